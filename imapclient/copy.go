package imapclient

import (
	"github.com/emersion/go-imapsession"
)

// Copy copies the messages of nums to another mailbox.
//
// With UIDPLUS, the returned data maps the source UIDs to the UIDs of the
// copies.
func (c *Client) Copy(nums []uint32, mailbox string) (*imap.CopyData, error) {
	c.acquire()
	defer c.release()

	if err := c.checkState("COPY", imap.ConnStateSelected); err != nil {
		return nil, err
	}
	if len(nums) == 0 || mailbox == "" {
		return nil, imap.ErrEmptyInput
	}

	cmd := &copyCommand{}
	err := c.exec(cmd, "COPY", func(enc *commandEncoder) {
		enc.SP().NumSet(imap.CoalesceNums(nums)).SP().Mailbox(mailbox)
	})
	if err != nil {
		return nil, err
	}
	return &cmd.data, nil
}

// copyCommand is a COPY command.
type copyCommand struct {
	commandBase
	data imap.CopyData
}
