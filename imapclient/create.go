package imapclient

import (
	"github.com/emersion/go-imapsession"
)

// Create sends a CREATE command.
func (c *Client) Create(mailbox string) error {
	return c.mailboxCommand("CREATE", mailbox)
}

// Delete sends a DELETE command.
func (c *Client) Delete(mailbox string) error {
	return c.mailboxCommand("DELETE", mailbox)
}

// Subscribe sends a SUBSCRIBE command.
func (c *Client) Subscribe(mailbox string) error {
	return c.mailboxCommand("SUBSCRIBE", mailbox)
}

// Unsubscribe sends an UNSUBSCRIBE command.
func (c *Client) Unsubscribe(mailbox string) error {
	return c.mailboxCommand("UNSUBSCRIBE", mailbox)
}

// Rename sends a RENAME command.
func (c *Client) Rename(mailbox, newName string) error {
	c.acquire()
	defer c.release()

	if err := c.checkState("RENAME", imap.ConnStateAuthenticated, imap.ConnStateSelected); err != nil {
		return err
	}
	if mailbox == "" || newName == "" {
		return imap.ErrEmptyInput
	}
	return c.exec(&commandBase{}, "RENAME", func(enc *commandEncoder) {
		enc.SP().Mailbox(mailbox).SP().Mailbox(newName)
	})
}

func (c *Client) mailboxCommand(name, mailbox string) error {
	c.acquire()
	defer c.release()

	if err := c.checkState(name, imap.ConnStateAuthenticated, imap.ConnStateSelected); err != nil {
		return err
	}
	if mailbox == "" {
		return imap.ErrEmptyInput
	}
	return c.exec(&commandBase{}, name, func(enc *commandEncoder) {
		enc.SP().Mailbox(mailbox)
	})
}
