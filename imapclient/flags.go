package imapclient

import (
	"github.com/emersion/go-imapsession"
)

type coalescer func(need func(uint32) uint32) string

func rangeCoalescer(lo, hi uint32) coalescer {
	return func(need func(uint32) uint32) string {
		return imap.Coalesce(lo, hi, need)
	}
}

func numsCoalescer(nums []uint32) coalescer {
	return func(need func(uint32) uint32) string {
		var l []uint32
		for _, num := range nums {
			if v := need(num); v != 0 {
				l = append(l, v)
			}
		}
		return imap.CoalesceNums(l)
	}
}

type flagSearch struct {
	bit imap.MsgFlags
	set string
	cmd *searchCommand
}

// ensureFlags makes the flags of mask known for the messages picked by
// coalesce. One SEARCH command is sent per flag with unknown values; the
// commands are pipelined. Nothing is sent if the cache already knows
// everything.
func (c *Client) ensureFlags(mask imap.MsgFlags, coalesce coalescer) error {
	var searches []*flagSearch
	mask.Each(func(bit imap.MsgFlags) {
		set := coalesce(func(seqNum uint32) uint32 {
			if state := c.mailbox.flagState(seqNum); state != nil && state.Missing(bit) != 0 {
				return seqNum
			}
			return 0
		})
		if set != "" {
			searches = append(searches, &flagSearch{bit: bit, set: set})
		}
	})
	if len(searches) == 0 {
		return nil
	}

	for _, s := range searches {
		// \Seen is looked up with UNSEEN: unread messages are usually
		// fewer
		key := &imap.SearchFlag{Flag: s.bit, Negated: s.bit == imap.MsgFlagSeen}
		cmd, err := c.beginSearch(imap.SearchKeys{key}, false, s.set)
		if err != nil {
			return err
		}
		s.cmd = cmd
	}

	var firstErr error
	for _, s := range searches {
		if err := c.wait(s.cmd); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.applyFlagSearch(s)
	}
	return firstErr
}

// applyFlagSearch stores the result of a flag search: messages of the
// searched set are marked as known, with the flag set for hits of a positive
// search and cleared for hits of a negated one.
func (c *Client) applyFlagSearch(s *flagSearch) {
	if c.mailbox == nil {
		return
	}
	nums, err := imap.ParseNumSet(s.set)
	if err != nil {
		return
	}
	negated := s.bit == imap.MsgFlagSeen
	for _, seqNum := range nums {
		if state := c.mailbox.flagState(seqNum); state != nil {
			state.Set(s.bit, negated)
		}
	}
	for _, seqNum := range s.cmd.nums {
		if state := c.mailbox.flagState(seqNum); state != nil {
			state.Set(s.bit, !negated)
		}
	}
}

// HasFlags reports, for each message of seqNums, whether all flags in set
// are set and all flags in unset are cleared. Unknown flags are resolved
// with SEARCH commands first.
func (c *Client) HasFlags(seqNums []uint32, set, unset imap.MsgFlags) ([]bool, error) {
	c.acquire()
	defer c.release()

	if err := c.checkState("SEARCH", imap.ConnStateSelected); err != nil {
		return nil, err
	}
	if len(seqNums) == 0 {
		return nil, imap.ErrEmptyInput
	}
	if err := c.ensureFlags(set|unset, numsCoalescer(seqNums)); err != nil {
		return nil, err
	}

	l := make([]bool, len(seqNums))
	for i, seqNum := range seqNums {
		if state := c.mailbox.flagState(seqNum); state != nil {
			l[i] = state.Matches(set, unset)
		}
	}
	return l, nil
}

// FlagState returns the cached flag state of a message. No command is sent.
func (c *Client) FlagState(seqNum uint32) imap.FlagState {
	c.acquire()
	defer c.release()

	if c.mailbox == nil {
		return imap.FlagState{}
	}
	if state := c.mailbox.flagState(seqNum); state != nil {
		return *state
	}
	return imap.FlagState{}
}
