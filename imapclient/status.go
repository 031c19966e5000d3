package imapclient

import (
	"fmt"
	"strings"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/internal/imapwire"
)

// Status sends a STATUS command.
//
// At least one item must be requested. StatusItemSize requires the
// STATUS=SIZE extension.
func (c *Client) Status(mailbox string, items []imap.StatusItem) (*imap.StatusData, error) {
	c.acquire()
	defer c.release()

	if err := c.checkState("STATUS", imap.ConnStateAuthenticated, imap.ConnStateSelected); err != nil {
		return nil, err
	}
	if mailbox == "" || len(items) == 0 {
		return nil, imap.ErrEmptyInput
	}
	for _, item := range items {
		if cap := item.Cap(); cap != 0 {
			if err := c.requireCap("STATUS", cap); err != nil {
				return nil, err
			}
		}
	}

	cmd := &statusCommand{mailbox: imap.CanonicalMailboxName(mailbox)}
	err := c.exec(cmd, "STATUS", func(enc *commandEncoder) {
		enc.SP().Mailbox(mailbox).SP()
		enc.List(len(items), func(i int) {
			enc.Atom(string(items[i]))
		})
	})
	if err != nil {
		return nil, err
	}
	if cmd.data == nil {
		return nil, &imap.ProtocolError{Err: fmt.Errorf("no STATUS response for %q", mailbox)}
	}
	return cmd.data, nil
}

func (c *Client) handleStatus() error {
	if !c.dec.ExpectSP() {
		return c.dec.Err()
	}
	data, err := readStatus(c.dec)
	if err != nil {
		return fmt.Errorf("in status: %w", err)
	}
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}

	if cmd := findPendingCmdByType[*statusCommand](c); cmd != nil && cmd.mailbox == data.Mailbox {
		cmd.data = data
	}
	return nil
}

// statusCommand is a STATUS command.
type statusCommand struct {
	commandBase
	mailbox string
	data    *imap.StatusData
}

func readStatus(dec *imapwire.Decoder) (*imap.StatusData, error) {
	var data imap.StatusData

	if !dec.ExpectMailbox(&data.Mailbox) || !dec.ExpectSP() {
		return nil, dec.Err()
	}

	err := dec.ExpectList(func() error {
		if err := readStatusAttVal(dec, &data); err != nil {
			return fmt.Errorf("in status-att-val: %w", err)
		}
		return nil
	})
	return &data, err
}

func readStatusAttVal(dec *imapwire.Decoder, data *imap.StatusData) error {
	var name string
	if !dec.ExpectAtom(&name) || !dec.ExpectSP() {
		return dec.Err()
	}

	var ok bool
	switch imap.StatusItem(strings.ToUpper(name)) {
	case imap.StatusItemNumMessages:
		var num uint32
		ok = dec.ExpectNumber(&num)
		data.NumMessages = &num
	case imap.StatusItemNumRecent:
		var num uint32
		ok = dec.ExpectNumber(&num)
		data.NumRecent = &num
	case imap.StatusItemUIDNext:
		ok = dec.ExpectNumber(&data.UIDNext)
	case imap.StatusItemUIDValidity:
		ok = dec.ExpectNumber(&data.UIDValidity)
	case imap.StatusItemNumUnseen:
		var num uint32
		ok = dec.ExpectNumber(&num)
		data.NumUnseen = &num
	case imap.StatusItemSize:
		var size int64
		size, ok = dec.ExpectNumber64()
		data.Size = &size
	default:
		ok = dec.DiscardValue()
	}
	if !ok {
		return dec.Err()
	}
	return nil
}
