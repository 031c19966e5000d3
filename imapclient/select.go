package imapclient

import (
	"errors"

	"github.com/emersion/go-imapsession"
)

// Select sends a SELECT command.
//
// Selecting the mailbox which is already selected does not send any command,
// but rights are refreshed if the server supports ACL. If the command fails,
// no mailbox is selected anymore.
func (c *Client) Select(mailbox string) error {
	return c.selectMailbox(mailbox, false)
}

// Examine sends an EXAMINE command. It behaves like Select, but the mailbox
// is opened read-only.
func (c *Client) Examine(mailbox string) error {
	return c.selectMailbox(mailbox, true)
}

func (c *Client) selectMailbox(mailbox string, readOnly bool) error {
	c.acquire()
	defer c.release()

	cmdName := "SELECT"
	if readOnly {
		cmdName = "EXAMINE"
	}
	if err := c.checkState(cmdName, imap.ConnStateAuthenticated, imap.ConnStateSelected); err != nil {
		return err
	}
	if mailbox == "" {
		return imap.ErrEmptyInput
	}

	mailbox = imap.CanonicalMailboxName(mailbox)
	if c.mailbox != nil && c.mailbox.data.Name == mailbox && c.mailbox.examined == readOnly {
		return c.syncRights()
	}

	// the previous mailbox is deselected even if the command fails
	c.mailbox = nil
	cmd := &selectCommand{data: imap.SelectedMailbox{Name: mailbox, ReadOnly: readOnly}}
	err := c.exec(cmd, cmdName, func(enc *commandEncoder) {
		enc.SP().Mailbox(mailbox)
	})
	if err != nil {
		if c.State() != imap.ConnStateDisconnected {
			c.setState(imap.ConnStateAuthenticated)
			c.emit(&CountChangedEvent{})
		}
		return err
	}

	c.mailbox = newMailboxState(cmd.data, readOnly)
	c.setState(imap.ConnStateSelected)
	c.emit(&CountChangedEvent{NumMessages: cmd.data.NumMessages})
	return c.syncRights()
}

// syncRights refreshes the rights on the selected mailbox. A rejection is
// logged and ignored.
func (c *Client) syncRights() error {
	caps, err := c.capabilities()
	if err != nil || !caps.Has(imap.CapACL) {
		return err
	}
	data, err := c.myRights(c.mailbox.data.Name)
	if errors.Is(err, imap.ErrSevered) {
		return err
	} else if err != nil {
		c.logger.Warn("failed to fetch rights", "mailbox", c.mailbox.data.Name, "err", err)
		return nil
	}
	if c.mailbox != nil {
		c.mailbox.data.Rights = data.Rights
	}
	return nil
}

// Mailbox returns a snapshot of the selected mailbox, or nil if no mailbox
// is selected.
func (c *Client) Mailbox() *imap.SelectedMailbox {
	c.acquire()
	defer c.release()

	if c.mailbox == nil {
		return nil
	}
	data := c.mailbox.data
	data.Flags = append([]imap.Flag(nil), data.Flags...)
	data.PermanentFlags = append([]imap.Flag(nil), data.PermanentFlags...)
	return &data
}

// CloseMailbox sends a CLOSE command. Messages marked \Deleted are removed
// silently and the mailbox is deselected.
func (c *Client) CloseMailbox() error {
	c.acquire()
	defer c.release()

	if err := c.checkState("CLOSE", imap.ConnStateSelected); err != nil {
		return err
	}
	return c.deselect("CLOSE")
}

// Unselect deselects the mailbox without expunging it.
//
// This requires the UNSELECT extension, unless the mailbox is read-only: in
// that case CLOSE is used.
func (c *Client) Unselect() error {
	c.acquire()
	defer c.release()

	if err := c.checkState("UNSELECT", imap.ConnStateSelected); err != nil {
		return err
	}
	caps, err := c.capabilities()
	if err != nil {
		return err
	}
	switch {
	case caps.Has(imap.CapUnselect):
		return c.deselect("UNSELECT")
	case c.mailbox.examined || c.mailbox.data.ReadOnly:
		return c.deselect("CLOSE")
	default:
		return &imap.CapabilityError{Op: "UNSELECT", Cap: imap.CapUnselect}
	}
}

func (c *Client) deselect(name string) error {
	if err := c.exec(&commandBase{}, name, nil); err != nil {
		return err
	}
	c.mailbox = nil
	c.setState(imap.ConnStateAuthenticated)
	c.emit(&CountChangedEvent{})
	return nil
}

// selectCommand collects the untagged data of a SELECT or EXAMINE command.
type selectCommand struct {
	commandBase
	data imap.SelectedMailbox
}
