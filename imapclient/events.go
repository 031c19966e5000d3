package imapclient

import (
	"fmt"
)

// Event is a mailbox notification delivered on Options.Events. Sends never
// block: events are dropped when the channel is full.
type Event interface {
	event()
}

// CountChangedEvent is sent when the number of messages in the selected
// mailbox changes, and when the mailbox is selected or deselected.
type CountChangedEvent struct {
	NumMessages uint32
}

// FlagsChangedEvent is sent once per STORE, and for unsolicited flag
// updates.
type FlagsChangedEvent struct {
	SeqNums []uint32
}

// ExpungedEvent is sent when a message is expunged. Messages after it are
// renumbered.
type ExpungedEvent struct {
	SeqNum uint32
}

// AlertEvent carries an [ALERT] text, which must be shown to the user.
type AlertEvent struct {
	Text string
}

func (*CountChangedEvent) event() {}
func (*FlagsChangedEvent) event() {}
func (*ExpungedEvent) event()     {}
func (*AlertEvent) event()        {}

func (c *Client) emit(ev Event) {
	if c.options.Events == nil {
		return
	}
	select {
	case c.options.Events <- ev:
	default:
		c.logger.Warn("dropping event, channel full", "event", fmt.Sprintf("%T", ev))
	}
}
