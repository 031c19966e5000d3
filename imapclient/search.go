package imapclient

import (
	"fmt"
	"slices"
	"strings"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/internal/imapwire"
)

// Number of messages searched per command, when the search keys restrict the
// sequence range.
const (
	searchBatchBody   = 500000
	searchBatchHeader = 2000
	searchBatchSeq    = 100000

	findNextBatch = 3000
)

// Search searches the selected mailbox and calls fn once per matching
// message sequence number, in ascending order.
//
// Searches made only of flag keys are evaluated against the flag cache: flags
// which are not known yet are resolved first, and no SEARCH command is sent
// if they all are. Other searches are sent to the server, split into batches
// if they contain a sequence key.
//
// fn is called with the connection lock held and must not use the client.
func (c *Client) Search(keys imap.SearchKeys, fn func(seqNum uint32)) error {
	c.acquire()
	defer c.release()

	if err := c.checkState("SEARCH", imap.ConnStateSelected); err != nil {
		return err
	}
	if len(keys) == 0 {
		return imap.ErrEmptyInput
	}

	nums, err := c.searchAll(keys)
	if err != nil {
		return err
	}
	slices.Sort(nums)
	for _, seqNum := range nums {
		fn(seqNum)
	}
	return nil
}

// searchAll returns the sequence numbers of the messages matching keys.
func (c *Client) searchAll(keys imap.SearchKeys) ([]uint32, error) {
	if _, ok := keys.FlagsOnly(); ok {
		return c.searchRange(keys, 1, c.mailbox.data.NumMessages)
	}
	return c.search(keys, false)
}

// UIDSearch sends a UID SEARCH command and returns the UIDs of the matching
// messages.
func (c *Client) UIDSearch(keys imap.SearchKeys) ([]uint32, error) {
	c.acquire()
	defer c.release()

	if err := c.checkState("UID SEARCH", imap.ConnStateSelected); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, imap.ErrEmptyInput
	}
	return c.search(keys, true)
}

// FindNext returns the first message matching keys after the message after,
// searching towards higher sequence numbers if forward is set and towards
// lower ones otherwise. With a zero after, the search starts at the first or
// the last message. The filter of the mailbox view, if any, also applies.
//
// Zero is returned if there is no match.
func (c *Client) FindNext(keys imap.SearchKeys, after uint32, forward bool) (uint32, error) {
	c.acquire()
	defer c.release()

	if err := c.checkState("SEARCH", imap.ConnStateSelected); err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, imap.ErrEmptyInput
	}
	if view := c.mailbox.view; view != nil && len(view.filter) > 0 {
		keys = append(append(imap.SearchKeys(nil), keys...), view.filter...)
	}

	n := c.mailbox.data.NumMessages
	if forward {
		for lo := after + 1; lo <= n; lo += findNextBatch {
			hi := min(lo+findNextBatch-1, n)
			nums, err := c.searchRange(keys, lo, hi)
			if err != nil || len(nums) > 0 {
				return minNum(nums), err
			}
		}
		return 0, nil
	}

	hi := n
	if after > 0 {
		hi = min(after-1, n)
	}
	for hi >= 1 {
		lo := uint32(1)
		if hi > findNextBatch {
			lo = hi - findNextBatch + 1
		}
		nums, err := c.searchRange(keys, lo, hi)
		if err != nil || len(nums) > 0 {
			return maxNum(nums), err
		}
		hi = lo - 1
	}
	return 0, nil
}

// searchRange searches the messages lo to hi, locally if possible.
func (c *Client) searchRange(keys imap.SearchKeys, lo, hi uint32) ([]uint32, error) {
	if needed, ok := keys.FlagsOnly(); ok {
		if err := c.ensureFlags(needed, rangeCoalescer(lo, hi)); err != nil {
			return nil, err
		}
		var nums []uint32
		for seqNum := lo; c.mailbox != nil && seqNum <= hi && seqNum <= c.mailbox.data.NumMessages; seqNum++ {
			if keys.MatchFlags(c.mailbox.flags[seqNum-1].Value) {
				nums = append(nums, seqNum)
			}
		}
		return nums, nil
	}
	if lo > hi {
		return nil, nil
	}
	return c.execSearch(keys, false, fmt.Sprintf("%v:%v", lo, hi))
}

// search runs a search on the server, in batches if keys restrict the
// sequence range.
func (c *Client) search(keys imap.SearchKeys, uid bool) ([]uint32, error) {
	if !keys.HasSequence() {
		return c.execSearch(keys, uid, "")
	}

	var batch uint32
	switch {
	case keys.HasBody():
		batch = searchBatchBody
	case keys.HasString():
		batch = searchBatchHeader
	default:
		batch = searchBatchSeq
	}

	var all []uint32
	for lo := uint32(1); c.mailbox != nil && lo <= c.mailbox.data.NumMessages; lo += batch {
		hi := min(lo+batch-1, c.mailbox.data.NumMessages)
		nums, err := c.execSearch(keys, uid, fmt.Sprintf("%v:%v", lo, hi))
		if err != nil {
			return nil, err
		}
		all = append(all, nums...)
	}
	return all, nil
}

// execSearch sends one SEARCH command and waits for its results.
func (c *Client) execSearch(keys imap.SearchKeys, uid bool, set string) ([]uint32, error) {
	cmd, err := c.beginSearch(keys, uid, set)
	if err != nil {
		return nil, err
	}
	if err := c.wait(cmd); err != nil {
		return nil, err
	}
	return cmd.nums, nil
}

// beginSearch writes a SEARCH command without waiting for its completion. A
// non-empty set restricts the search to these sequence numbers.
func (c *Client) beginSearch(keys imap.SearchKeys, uid bool, set string) (*searchCommand, error) {
	caps, err := c.capabilities()
	if err != nil {
		return nil, err
	}
	// ESEARCH results of UID searches cannot be told apart from sequence
	// numbers by older servers
	esearch := !uid && caps.Has(imap.CapESearch)
	charset := !keys.IsASCII() && !caps.Has(imap.CapIMAP4rev2)

	name := "SEARCH"
	if uid {
		name = "UID SEARCH"
	}
	cmd := &searchCommand{}
	enc := c.beginCommand(name, cmd)
	if esearch {
		enc.SP().Atom("RETURN").SP().List(1, func(i int) {
			enc.Atom("ALL")
		})
	}
	if charset {
		enc.SP().Atom("CHARSET").SP().Atom("UTF-8")
	}
	if set != "" {
		enc.SP().Atom(set)
	}
	enc.SP().SearchKeys(keys)
	if err := enc.end(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (c *Client) handleSearch() error {
	cmd := findPendingCmdByType[*searchCommand](c)
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

func (c *Client) handleESearch() error {
	tag, data, err := readESearchResponse(c.dec)
	if err != nil {
		return fmt.Errorf("in esearch-response: %w", err)
	}
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}

	var cmd *searchCommand
	if tag != "" {
		cmd, _ = c.findPendingCmdByTag(tag).(*searchCommand)
	} else {
		cmd = findPendingCmdByType[*searchCommand](c)
	}
	if cmd != nil {
		cmd.nums = append(cmd.nums, data.All...)
	}
	return nil
}

// searchCommand is a SEARCH or UID SEARCH command.
type searchCommand struct {
	commandBase
	nums []uint32
}

func readESearchResponse(dec *imapwire.Decoder) (tag string, data *imap.SearchData, err error) {
	data = &imap.SearchData{}

	if !dec.SP() {
		return "", data, nil
	}
	if dec.Special('(') { // search-correlator
		var correlator string
		if !dec.ExpectAtom(&correlator) || !dec.ExpectSP() || !dec.ExpectAString(&tag) || !dec.ExpectSpecial(')') {
			return "", nil, dec.Err()
		}
		if !strings.EqualFold(correlator, "TAG") {
			return "", nil, fmt.Errorf("in search-correlator: name must be TAG, but got %q", correlator)
		}
		if !dec.SP() {
			return tag, data, nil
		}
	}

	for {
		var name string
		if !dec.ExpectAtom(&name) {
			return "", nil, dec.Err()
		}
		name = strings.ToUpper(name)
		if name == "UID" {
			data.UID = true
		} else {
			if !dec.ExpectSP() {
				return "", nil, dec.Err()
			}
			switch name {
			case "ALL":
				if !dec.ExpectNumSet(&data.All) {
					return "", nil, dec.Err()
				}
			default: // MIN, MAX, COUNT and extensions
				if !dec.DiscardValue() {
					return "", nil, dec.Err()
				}
			}
		}

		if !dec.SP() {
			break
		}
	}
	return tag, data, nil
}

func minNum(nums []uint32) uint32 {
	var v uint32
	for _, num := range nums {
		if v == 0 || num < v {
			v = num
		}
	}
	return v
}

func maxNum(nums []uint32) uint32 {
	var v uint32
	for _, num := range nums {
		if num > v {
			v = num
		}
	}
	return v
}
