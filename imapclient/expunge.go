package imapclient

import (
	"github.com/emersion/go-imapsession"
)

// Expunge sends an EXPUNGE command and returns the sequence numbers of the
// removed messages, in the order the server reported them.
//
// Caches and the mailbox view are renumbered as EXPUNGE responses arrive.
func (c *Client) Expunge() ([]uint32, error) {
	c.acquire()
	defer c.release()

	if err := c.checkState("EXPUNGE", imap.ConnStateSelected); err != nil {
		return nil, err
	}
	cmd := &expungeCommand{}
	if err := c.exec(cmd, "EXPUNGE", nil); err != nil {
		return nil, err
	}
	return cmd.seqNums, nil
}

// expungeCommand is an EXPUNGE command.
type expungeCommand struct {
	commandBase
	seqNums []uint32
}
