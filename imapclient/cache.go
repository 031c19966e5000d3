package imapclient

import (
	"github.com/emersion/go-imapsession"
)

// mailboxState holds the selected mailbox and its caches, indexed by
// sequence number minus one. Both caches always hold NumMessages entries.
type mailboxState struct {
	data     imap.SelectedMailbox
	examined bool
	flags    []imap.FlagState
	msgs     []*imap.MessageAttrs
	view     *mailboxView
}

// mailboxView maps view indices (starting at 1) to sequence numbers. Only
// messages matching filter are listed, when set.
type mailboxView struct {
	seqNums []uint32
	filter  imap.SearchKeys
}

func newMailboxState(data imap.SelectedMailbox, examined bool) *mailboxState {
	mbox := &mailboxState{data: data, examined: examined}
	mbox.resize(data.NumMessages)
	return mbox
}

// resize sets the message count. Cache entries of remaining messages are
// kept. New messages are appended to the view.
func (mbox *mailboxState) resize(n uint32) {
	old := mbox.data.NumMessages
	mbox.data.NumMessages = n
	if n == 0 {
		mbox.flags = nil
		mbox.msgs = nil
	} else {
		flags := make([]imap.FlagState, n)
		copy(flags, mbox.flags)
		msgs := make([]*imap.MessageAttrs, n)
		copy(msgs, mbox.msgs)
		mbox.flags, mbox.msgs = flags, msgs
	}

	if mbox.view == nil {
		return
	}
	if n < old {
		l := mbox.view.seqNums[:0]
		for _, seqNum := range mbox.view.seqNums {
			if seqNum <= n {
				l = append(l, seqNum)
			}
		}
		mbox.view.seqNums = l
	}
	for seqNum := old + 1; seqNum <= n; seqNum++ {
		mbox.view.seqNums = append(mbox.view.seqNums, seqNum)
	}
}

// expunge removes a message and renumbers the following ones.
func (mbox *mailboxState) expunge(seqNum uint32) bool {
	if seqNum == 0 || seqNum > mbox.data.NumMessages {
		return false
	}
	i := seqNum - 1
	mbox.flags = append(mbox.flags[:i], mbox.flags[i+1:]...)
	mbox.msgs = append(mbox.msgs[:i], mbox.msgs[i+1:]...)
	mbox.data.NumMessages--
	if mbox.data.FirstUnseen > seqNum {
		mbox.data.FirstUnseen--
	} else if mbox.data.FirstUnseen == seqNum {
		mbox.data.FirstUnseen = 0
	}

	if mbox.view != nil {
		l := mbox.view.seqNums[:0]
		for _, n := range mbox.view.seqNums {
			switch {
			case n < seqNum:
				l = append(l, n)
			case n > seqNum:
				l = append(l, n-1)
			}
		}
		mbox.view.seqNums = l
	}
	return true
}

func (mbox *mailboxState) valid(seqNum uint32) bool {
	return seqNum > 0 && seqNum <= mbox.data.NumMessages
}

// flagState returns the flag cache entry of a message, or nil if seqNum is
// out of range.
func (mbox *mailboxState) flagState(seqNum uint32) *imap.FlagState {
	if !mbox.valid(seqNum) {
		return nil
	}
	return &mbox.flags[seqNum-1]
}

// attrs returns the attribute cache entry of a message, allocating it if
// needed. It returns nil if seqNum is out of range.
func (mbox *mailboxState) attrs(seqNum uint32) *imap.MessageAttrs {
	if !mbox.valid(seqNum) {
		return nil
	}
	attrs := mbox.msgs[seqNum-1]
	if attrs == nil {
		attrs = &imap.MessageAttrs{}
		mbox.msgs[seqNum-1] = attrs
	}
	return attrs
}

// seqNumAt maps a view index to a sequence number.
func (mbox *mailboxState) seqNumAt(index uint32) uint32 {
	if mbox.view == nil {
		return index
	}
	if index == 0 || int(index) > len(mbox.view.seqNums) {
		return 0
	}
	return mbox.view.seqNums[index-1]
}

// viewLen returns the number of messages visible through the view.
func (mbox *mailboxState) viewLen() uint32 {
	if mbox.view == nil {
		return mbox.data.NumMessages
	}
	return uint32(len(mbox.view.seqNums))
}

func (c *Client) handleExists(num uint32) error {
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}
	if cmd := findPendingCmdByType[*selectCommand](c); cmd != nil {
		cmd.data.NumMessages = num
		return nil
	}
	if c.mailbox == nil || c.mailbox.data.NumMessages == num {
		return nil
	}
	c.mailbox.resize(num)
	c.emit(&CountChangedEvent{NumMessages: num})
	return nil
}

func (c *Client) handleRecent(num uint32) error {
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}
	if data := c.selectData(); data != nil {
		data.NumRecent = num
	}
	return nil
}

func (c *Client) handleFlags() error {
	if !c.dec.ExpectSP() {
		return c.dec.Err()
	}
	flags, err := readFlagList(c.dec)
	if err != nil {
		return err
	}
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}
	if data := c.selectData(); data != nil {
		data.Flags = flags
	}
	return nil
}

func (c *Client) handleExpunge(seqNum uint32) error {
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}
	if cmd := findPendingCmdByType[*expungeCommand](c); cmd != nil {
		cmd.seqNums = append(cmd.seqNums, seqNum)
	}
	if c.mailbox != nil && c.mailbox.expunge(seqNum) {
		c.emit(&ExpungedEvent{SeqNum: seqNum})
	}
	return nil
}
