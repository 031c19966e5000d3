package imapclient

import (
	"cmp"
	"slices"

	"golang.org/x/text/cases"

	"github.com/emersion/go-imapsession"
)

// Sort sorts the messages of nums by key and returns their sequence numbers
// in order.
//
// The SORT command is used if the server supports it. The result is checked
// against the request: if the server drops messages, nums is returned in
// ascending order along with ErrSortMismatch. Without SORT, messages are
// sorted locally if Options.ClientSideSort is set, fetching only the
// attributes the cache lacks.
func (c *Client) Sort(nums []uint32, key imap.SortKey, reverse bool) ([]uint32, error) {
	c.acquire()
	defer c.release()

	if err := c.checkState("SORT", imap.ConnStateSelected); err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return nil, imap.ErrEmptyInput
	}
	nums = slices.Clone(nums)
	slices.Sort(nums)
	nums = slices.Compact(nums)

	if key == imap.SortKeySeqNum {
		if reverse {
			slices.Reverse(nums)
		}
		return nums, nil
	}

	caps, err := c.capabilities()
	if err != nil {
		return nil, err
	}
	if !caps.Has(imap.CapSort) {
		if !c.options.ClientSideSort {
			return nil, &imap.CapabilityError{Op: "SORT", Cap: imap.CapSort}
		}
		return c.clientSort(nums, key, reverse)
	}

	set := imap.CoalesceNums(nums)
	sorted, err := c.serverSort(key, reverse, func(enc *commandEncoder) {
		enc.Atom(set)
	})
	if err != nil {
		return nil, err
	}
	if len(sorted) != len(nums) {
		c.logger.Warn("server returned an incomplete SORT result", "want", len(nums), "got", len(sorted))
		return nums, imap.ErrSortMismatch
	}
	return sorted, nil
}

// SortView installs a mailbox view listing the messages matching filter
// (all messages if filter is empty) sorted by key. Sorting by
// SortKeySeqNum without a filter removes the view.
//
// If the server drops messages from an unfiltered SORT result, the view is
// removed and ErrSortMismatch is returned.
func (c *Client) SortView(key imap.SortKey, reverse bool, filter imap.SearchKeys) error {
	c.acquire()
	defer c.release()

	if err := c.checkState("SORT", imap.ConnStateSelected); err != nil {
		return err
	}
	mbox := c.mailbox
	if key == imap.SortKeySeqNum && len(filter) == 0 && !reverse {
		mbox.view = nil
		return nil
	}

	n := mbox.data.NumMessages
	if n == 0 {
		mbox.view = &mailboxView{filter: filter}
		return nil
	}

	var caps imap.CapSet
	if key != imap.SortKeySeqNum {
		var err error
		if caps, err = c.capabilities(); err != nil {
			return err
		}
		if !caps.Has(imap.CapSort) && !c.options.ClientSideSort {
			return &imap.CapabilityError{Op: "SORT", Cap: imap.CapSort}
		}
	}

	var seqNums []uint32
	if key != imap.SortKeySeqNum && caps.Has(imap.CapSort) {
		sorted, err := c.serverSort(key, reverse, func(enc *commandEncoder) {
			if len(filter) == 0 {
				enc.Atom("ALL")
			} else {
				enc.SearchKeys(filter)
			}
		})
		if err != nil {
			return err
		}
		if len(filter) == 0 && len(sorted) != int(n) {
			c.logger.Warn("server returned an incomplete SORT result", "want", n, "got", len(sorted))
			if c.mailbox != nil {
				c.mailbox.view = nil
			}
			return imap.ErrSortMismatch
		}
		seqNums = sorted
	} else {
		var err error
		if len(filter) > 0 {
			seqNums, err = c.searchAll(filter)
			slices.Sort(seqNums)
		} else {
			seqNums = make([]uint32, n)
			for i := range seqNums {
				seqNums[i] = uint32(i + 1)
			}
		}
		if err != nil {
			return err
		}
		if key != imap.SortKeySeqNum {
			seqNums, err = c.clientSort(seqNums, key, reverse)
			if err != nil {
				return err
			}
		} else if reverse {
			slices.Reverse(seqNums)
		}
	}

	if c.mailbox == nil {
		return imap.ErrSevered
	}
	c.mailbox.view = &mailboxView{seqNums: seqNums, filter: filter}
	return nil
}

// ViewLen returns the number of messages in the mailbox view, or in the
// mailbox if no view is installed.
func (c *Client) ViewLen() uint32 {
	c.acquire()
	defer c.release()

	if c.mailbox == nil {
		return 0
	}
	return c.mailbox.viewLen()
}

// ViewSeqNum returns the sequence number of the message at a 1-based
// position of the mailbox view, or zero if the position is out of range.
func (c *Client) ViewSeqNum(index uint32) uint32 {
	c.acquire()
	defer c.release()

	if c.mailbox == nil {
		return 0
	}
	return c.mailbox.seqNumAt(index)
}

// serverSort sends "SORT (key) UTF-8 criteria".
func (c *Client) serverSort(key imap.SortKey, reverse bool, criteria func(enc *commandEncoder)) ([]uint32, error) {
	cmd := &sortCommand{}
	err := c.exec(cmd, "SORT", func(enc *commandEncoder) {
		enc.SP().List(1, func(i int) {
			if reverse {
				enc.Atom("REVERSE").SP()
			}
			enc.Atom(string(key))
		}).SP().Atom("UTF-8").SP()
		criteria(enc)
	})
	if err != nil {
		return nil, err
	}
	return cmd.nums, nil
}

// clientSort sorts messages locally. nums must be in ascending order; equal
// keys keep that order.
func (c *Client) clientSort(nums []uint32, key imap.SortKey, reverse bool) ([]uint32, error) {
	if err := c.fetchMissing(numsCoalescer(nums), key.FetchItems()); err != nil {
		return nil, err
	}
	if c.mailbox == nil {
		return nil, imap.ErrSevered
	}

	fold := cases.Fold()
	attrs := make(map[uint32]*imap.MessageAttrs, len(nums))
	for _, seqNum := range nums {
		if c.mailbox.valid(seqNum) {
			attrs[seqNum] = c.mailbox.msgs[seqNum-1]
		}
	}

	compare := sortComparator(key, fold)
	sorted := slices.Clone(nums)
	slices.SortStableFunc(sorted, func(a, b uint32) int {
		return compare(attrs[a], attrs[b])
	})
	if reverse {
		slices.Reverse(sorted)
	}
	return sorted, nil
}

func sortComparator(key imap.SortKey, fold cases.Caser) func(a, b *imap.MessageAttrs) int {
	switch key {
	case imap.SortKeyArrival:
		return func(a, b *imap.MessageAttrs) int {
			return cmp.Compare(sortUID(a), sortUID(b))
		}
	case imap.SortKeySize:
		return func(a, b *imap.MessageAttrs) int {
			return cmp.Compare(sortSize(a), sortSize(b))
		}
	case imap.SortKeyDate:
		return func(a, b *imap.MessageAttrs) int {
			ea, eb := sortEnvelope(a), sortEnvelope(b)
			return ea.Date.Compare(eb.Date)
		}
	case imap.SortKeySubject:
		return func(a, b *imap.MessageAttrs) int {
			sa, sb := sortEnvelope(a).Subject, sortEnvelope(b).Subject
			// a missing subject sorts first
			switch {
			case sa == "" && sb == "":
				return 0
			case sa == "":
				return -1
			case sb == "":
				return 1
			}
			return cmp.Compare(fold.String(sa), fold.String(sb))
		}
	default:
		return func(a, b *imap.MessageAttrs) int {
			return cmp.Compare(fold.String(firstAddr(key, a)), fold.String(firstAddr(key, b)))
		}
	}
}

func sortUID(attrs *imap.MessageAttrs) uint32 {
	if attrs == nil {
		return 0
	}
	return attrs.UID
}

func sortSize(attrs *imap.MessageAttrs) int64 {
	if attrs == nil {
		return 0
	}
	return attrs.Size
}

var emptyEnvelope imap.Envelope

func sortEnvelope(attrs *imap.MessageAttrs) *imap.Envelope {
	if attrs == nil || attrs.Envelope == nil {
		return &emptyEnvelope
	}
	return attrs.Envelope
}

// firstAddr returns the display name of the first address of the field
// sorted by key.
func firstAddr(key imap.SortKey, attrs *imap.MessageAttrs) string {
	env := sortEnvelope(attrs)
	var l []imap.Address
	switch key {
	case imap.SortKeyFrom:
		l = env.From
	case imap.SortKeyTo:
		l = env.To
	case imap.SortKeyCc:
		l = env.Cc
	}
	if len(l) == 0 {
		return ""
	}
	return l[0].DisplayName()
}

func (c *Client) handleSort() error {
	cmd := findPendingCmdByType[*sortCommand](c)
	for c.dec.SP() {
		// CONDSTORE appends "(MODSEQ n)"
		if c.dec.Special('(') {
			c.dec.Skip(')')
			if !c.dec.ExpectSpecial(')') {
				return c.dec.Err()
			}
			continue
		}
		var num uint32
		if !c.dec.ExpectNumber(&num) {
			return c.dec.Err()
		}
		if cmd != nil {
			cmd.nums = append(cmd.nums, num)
		}
	}
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}
	return nil
}

// sortCommand is a SORT command.
type sortCommand struct {
	commandBase
	nums []uint32
}
