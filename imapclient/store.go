package imapclient

import (
	"github.com/emersion/go-imapsession"
)

// Store adds (add is true) or removes flags on the messages of nums, with
// STORE +FLAGS.SILENT or -FLAGS.SILENT.
//
// Messages already known to be in the target state are left out; no command
// is sent if none remain. On success the flag cache is updated for every
// targeted message and a single FlagsChangedEvent is emitted. If the server
// rejects the command, the affected flags are marked unknown.
func (c *Client) Store(nums []uint32, flags imap.MsgFlags, add bool) error {
	c.acquire()
	defer c.release()

	if err := c.checkState("STORE", imap.ConnStateSelected); err != nil {
		return err
	}
	if len(nums) == 0 || flags == 0 {
		return imap.ErrEmptyInput
	}

	var targets []uint32
	set := numsCoalescer(nums)(func(seqNum uint32) uint32 {
		state := c.mailbox.flagState(seqNum)
		if state == nil {
			return 0
		}
		if state.Missing(flags) == 0 && (add && state.Value&flags == flags || !add && state.Value&flags == 0) {
			return 0
		}
		targets = append(targets, seqNum)
		return seqNum
	})
	if set == "" {
		return nil
	}

	item := "-FLAGS.SILENT"
	if add {
		item = "+FLAGS.SILENT"
	}
	err := c.exec(&storeCommand{}, "STORE", func(enc *commandEncoder) {
		enc.SP().NumSet(set).SP().Atom(item).SP().MsgFlags(flags)
	})
	if c.mailbox == nil {
		return err
	}
	if err != nil {
		for _, seqNum := range targets {
			if state := c.mailbox.flagState(seqNum); state != nil {
				state.Forget(flags)
			}
		}
		return err
	}

	var changed []uint32
	for _, seqNum := range targets {
		if state := c.mailbox.flagState(seqNum); state != nil {
			state.Set(flags, add)
			changed = append(changed, seqNum)
		}
	}
	c.emit(&FlagsChangedEvent{SeqNums: changed})
	return nil
}

// storeCommand is a STORE command. FETCH responses received while it is
// pending do not emit their own FlagsChangedEvent.
type storeCommand struct {
	commandBase
}
