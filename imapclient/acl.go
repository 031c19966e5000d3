package imapclient

import (
	"fmt"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/internal/imapwire"
)

// MyRights sends a MYRIGHTS command.
//
// This command requires support for the ACL extension.
func (c *Client) MyRights(mailbox string) (*imap.MyRightsData, error) {
	c.acquire()
	defer c.release()

	if err := c.checkState("MYRIGHTS", imap.ConnStateAuthenticated, imap.ConnStateSelected); err != nil {
		return nil, err
	}
	if err := c.requireCap("MYRIGHTS", imap.CapACL); err != nil {
		return nil, err
	}
	return c.myRights(mailbox)
}

func (c *Client) myRights(mailbox string) (*imap.MyRightsData, error) {
	if mailbox == "" {
		return nil, imap.ErrEmptyInput
	}
	cmd := &myRightsCommand{mailbox: imap.CanonicalMailboxName(mailbox)}
	err := c.exec(cmd, "MYRIGHTS", func(enc *commandEncoder) {
		enc.SP().Mailbox(mailbox)
	})
	if err != nil {
		return nil, err
	}
	return &cmd.data, nil
}

// GetACL sends a GETACL command.
//
// This command requires support for the ACL extension.
func (c *Client) GetACL(mailbox string) (*imap.ACLData, error) {
	c.acquire()
	defer c.release()

	if err := c.checkState("GETACL", imap.ConnStateAuthenticated, imap.ConnStateSelected); err != nil {
		return nil, err
	}
	if mailbox == "" {
		return nil, imap.ErrEmptyInput
	}
	if err := c.requireCap("GETACL", imap.CapACL); err != nil {
		return nil, err
	}

	cmd := &getACLCommand{mailbox: imap.CanonicalMailboxName(mailbox)}
	err := c.exec(cmd, "GETACL", func(enc *commandEncoder) {
		enc.SP().Mailbox(mailbox)
	})
	if err != nil {
		return nil, err
	}
	return &cmd.data, nil
}

func (c *Client) handleMyRights() error {
	if !c.dec.ExpectSP() {
		return c.dec.Err()
	}
	data, err := readMyRights(c.dec)
	if err != nil {
		return fmt.Errorf("in myrights-response: %w", err)
	}
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}

	if cmd := findPendingCmdByType[*myRightsCommand](c); cmd != nil && cmd.mailbox == data.Mailbox {
		cmd.data = *data
	}
	if c.mailbox != nil && c.mailbox.data.Name == data.Mailbox {
		c.mailbox.data.Rights = data.Rights
	}
	return nil
}

func (c *Client) handleGetACL() error {
	if !c.dec.ExpectSP() {
		return c.dec.Err()
	}
	data, err := readGetACL(c.dec)
	if err != nil {
		return fmt.Errorf("in acl-response: %w", err)
	}
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}
	if cmd := findPendingCmdByType[*getACLCommand](c); cmd != nil && cmd.mailbox == data.Mailbox {
		cmd.data = *data
	}
	return nil
}

// requireCap returns a CapabilityError if the server lacks cap.
func (c *Client) requireCap(op string, cap imap.Cap) error {
	caps, err := c.capabilities()
	if err != nil {
		return err
	}
	if !caps.Has(cap) {
		return &imap.CapabilityError{Op: op, Cap: cap}
	}
	return nil
}

type myRightsCommand struct {
	commandBase
	mailbox string
	data    imap.MyRightsData
}

type getACLCommand struct {
	commandBase
	mailbox string
	data    imap.ACLData
}

func readMyRights(dec *imapwire.Decoder) (*imap.MyRightsData, error) {
	var data imap.MyRightsData
	var rights string
	if !dec.ExpectMailbox(&data.Mailbox) || !dec.ExpectSP() || !dec.ExpectAString(&rights) {
		return nil, dec.Err()
	}
	data.Rights = imap.RightSet(rights)
	return &data, nil
}

func readGetACL(dec *imapwire.Decoder) (*imap.ACLData, error) {
	data := &imap.ACLData{Rights: make(map[imap.RightsIdentifier]imap.RightSet)}
	if !dec.ExpectMailbox(&data.Mailbox) {
		return nil, dec.Err()
	}
	for dec.SP() {
		var id, rights string
		if !dec.ExpectAString(&id) || !dec.ExpectSP() || !dec.ExpectAString(&rights) {
			return nil, dec.Err()
		}
		data.Rights[imap.RightsIdentifier(id)] = imap.RightSet(rights)
	}
	return data, nil
}
