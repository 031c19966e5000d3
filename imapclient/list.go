package imapclient

import (
	"fmt"
	"unicode/utf8"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/internal"
	"github.com/emersion/go-imapsession/internal/imapwire"
)

// List sends a LIST command and returns the matching mailboxes.
//
// ref and pattern use the LIST syntax: "%" matches one hierarchy level, "*"
// matches any number of levels. Mailbox names are translated from modified
// UTF-7.
func (c *Client) List(ref, pattern string) ([]*imap.ListData, error) {
	return c.list("LIST", ref, pattern)
}

// LSub sends a LSUB command and returns the matching subscribed mailboxes.
func (c *Client) LSub(ref, pattern string) ([]*imap.ListData, error) {
	return c.list("LSUB", ref, pattern)
}

func (c *Client) list(name, ref, pattern string) ([]*imap.ListData, error) {
	c.acquire()
	defer c.release()

	if err := c.checkState(name, imap.ConnStateAuthenticated, imap.ConnStateSelected); err != nil {
		return nil, err
	}

	cmd := &listCommand{}
	err := c.exec(cmd, name, func(enc *commandEncoder) {
		enc.SP().Mailbox(ref).SP().Mailbox(pattern)
	})
	if err != nil {
		return nil, err
	}
	return cmd.mailboxes, nil
}

func (c *Client) handleList() error {
	if !c.dec.ExpectSP() {
		return c.dec.Err()
	}
	data, err := readList(c.dec)
	if err != nil {
		return fmt.Errorf("in LIST: %w", err)
	}
	// ignore mbox-list-extended
	for c.dec.SP() {
		if !c.dec.DiscardValue() {
			return c.dec.Err()
		}
	}
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}

	if cmd := findPendingCmdByType[*listCommand](c); cmd != nil {
		cmd.mailboxes = append(cmd.mailboxes, data)
	}
	return nil
}

// listCommand is a LIST or LSUB command.
type listCommand struct {
	commandBase
	mailboxes []*imap.ListData
}

func readList(dec *imapwire.Decoder) (*imap.ListData, error) {
	var data imap.ListData

	err := dec.ExpectList(func() error {
		attr, err := internal.ReadFlag(dec)
		if err != nil {
			return err
		}
		data.Attrs = append(data.Attrs, imap.MailboxAttr(attr))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("in mbx-list-flags: %w", err)
	}

	if !dec.ExpectSP() {
		return nil, dec.Err()
	}

	var delimStr string
	if dec.Quoted(&delimStr) {
		delim, size := utf8.DecodeRuneInString(delimStr)
		if delim == utf8.RuneError || size != len(delimStr) {
			return nil, fmt.Errorf("mailbox delimiter must be a single rune")
		}
		data.Delim = delim
	} else if !dec.ExpectNIL() {
		return nil, dec.Err()
	}

	if !dec.ExpectSP() || !dec.ExpectMailbox(&data.Mailbox) {
		return nil, dec.Err()
	}
	return &data, nil
}
