package imapclient

import (
	"fmt"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/internal/imapwire"
)

// Thread sends a THREAD command and returns the thread forest of the
// messages matching keys, all messages if keys is empty.
//
// The server must advertise THREAD with the requested algorithm.
func (c *Client) Thread(alg imap.ThreadAlgorithm, keys imap.SearchKeys) ([]imap.Thread, error) {
	c.acquire()
	defer c.release()

	if err := c.checkState("THREAD", imap.ConnStateSelected); err != nil {
		return nil, err
	}
	capability := imap.CapThreadReferences
	if alg == imap.ThreadOrderedSubject {
		capability = imap.CapThreadOrderedSubject
	}
	if err := c.requireCap("THREAD", capability); err != nil {
		return nil, err
	}

	cmd := &threadCommand{}
	err := c.exec(cmd, "THREAD", func(enc *commandEncoder) {
		enc.SP().Atom(string(alg)).SP().Atom("UTF-8").SP()
		if len(keys) == 0 {
			enc.Atom("ALL")
		} else {
			enc.SearchKeys(keys)
		}
	})
	if err != nil {
		return nil, err
	}
	return cmd.threads, nil
}

func (c *Client) handleThread() error {
	cmd := findPendingCmdByType[*threadCommand](c)
	c.dec.SP()
	for c.dec.Special('(') {
		thread, err := readThreadList(c.dec)
		if err != nil {
			return fmt.Errorf("in thread-list: %w", err)
		}
		if cmd != nil {
			cmd.threads = append(cmd.threads, thread)
		}
	}
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}
	return nil
}

// threadCommand is a THREAD command.
type threadCommand struct {
	commandBase
	threads []imap.Thread
}

// readThreadList reads a thread-list after its opening parenthesis. Nested
// thread lists are not separated by spaces.
//
// A chain of messages "(1 2 3)" becomes a tree where each message is the
// only child of the previous one. A list starting with nested lists gets a
// zero root.
func readThreadList(dec *imapwire.Decoder) (imap.Thread, error) {
	var (
		chain  []uint32
		nested []imap.Thread
	)
	for !dec.Special(')') {
		switch {
		case dec.Special('('):
			sub, err := readThreadList(dec)
			if err != nil {
				return imap.Thread{}, err
			}
			nested = append(nested, sub)
		case dec.SP():
		default:
			if len(nested) > 0 {
				return imap.Thread{}, fmt.Errorf("message number after nested thread")
			}
			var num uint32
			if !dec.ExpectNumber(&num) {
				return imap.Thread{}, dec.Err()
			}
			chain = append(chain, num)
		}
	}

	if len(chain) == 0 {
		return imap.Thread{Children: nested}, nil
	}
	root := imap.Thread{SeqNum: chain[0]}
	cur := &root
	for _, num := range chain[1:] {
		cur.Children = []imap.Thread{{SeqNum: num}}
		cur = &cur.Children[0]
	}
	cur.Children = nested
	return root, nil
}
