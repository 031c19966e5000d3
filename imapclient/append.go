package imapclient

import (
	"fmt"
	"io"

	"github.com/emersion/go-imapsession"
)

// Append uploads messages to a mailbox.
//
// Several messages are sent in a single command if the server supports
// MULTIAPPEND. Otherwise one APPEND is sent per message: the commands are
// pipelined when no literal needs a continuation request (LITERAL+), and
// sent one after the other if some do.
//
// With UIDPLUS, the returned data holds the UIDs assigned to the messages.
func (c *Client) Append(mailbox string, msgs []imap.AppendMessage) (*imap.AppendData, error) {
	c.acquire()
	defer c.release()

	if err := c.checkState("APPEND", imap.ConnStateAuthenticated, imap.ConnStateSelected); err != nil {
		return nil, err
	}
	if mailbox == "" || len(msgs) == 0 {
		return nil, imap.ErrEmptyInput
	}
	caps, err := c.capabilities()
	if err != nil {
		return nil, err
	}

	if len(msgs) > 1 && caps.Has(imap.CapMultiAppend) {
		cmd := &appendCommand{}
		enc := c.beginCommand("APPEND", cmd)
		enc.SP().Mailbox(mailbox)
		for i := range msgs {
			if err := c.writeAppendMessage(enc, &msgs[i]); err != nil {
				return nil, err
			}
		}
		if err := enc.end(); err != nil {
			return nil, err
		}
		if err := c.wait(cmd); err != nil {
			return nil, err
		}
		return &cmd.data, nil
	}

	pipeline := true
	for _, msg := range msgs {
		if c.enc.SyncLiteral(msg.Size) {
			pipeline = false
			break
		}
	}

	var data imap.AppendData
	if pipeline {
		cmds := make([]*appendCommand, len(msgs))
		for i := range msgs {
			cmd, err := c.beginAppend(mailbox, &msgs[i])
			if err != nil {
				return nil, err
			}
			cmds[i] = cmd
		}
		var firstErr error
		for _, cmd := range cmds {
			if err := c.wait(cmd); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			mergeAppendData(&data, &cmd.data)
		}
		if firstErr != nil {
			return nil, firstErr
		}
		return &data, nil
	}

	for i := range msgs {
		cmd, err := c.beginAppend(mailbox, &msgs[i])
		if err != nil {
			return nil, err
		}
		if err := c.wait(cmd); err != nil {
			return nil, err
		}
		mergeAppendData(&data, &cmd.data)
	}
	return &data, nil
}

func (c *Client) beginAppend(mailbox string, msg *imap.AppendMessage) (*appendCommand, error) {
	cmd := &appendCommand{}
	enc := c.beginCommand("APPEND", cmd)
	enc.SP().Mailbox(mailbox)
	if err := c.writeAppendMessage(enc, msg); err != nil {
		return nil, err
	}
	if err := enc.end(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// writeAppendMessage writes the flags, date and literal of one message. A
// synchronizing literal rejected by the server ends the command; a body
// shorter than announced severs the connection.
func (c *Client) writeAppendMessage(enc *commandEncoder, msg *imap.AppendMessage) error {
	if msg.Flags != 0 {
		enc.SP().MsgFlags(msg.Flags)
	}
	if !msg.Time.IsZero() {
		enc.SP().DateTime(msg.Time)
	}
	enc.SP()

	w := enc.Literal(msg.Size, enc.SyncLiteral(msg.Size))
	if _, err := io.CopyN(w, msg.Body, msg.Size); err != nil {
		if enc.cmd.base().done || enc.Err() != nil {
			return enc.end()
		}
		return c.sever(fmt.Errorf("failed to write message body: %w", err))
	}
	if err := w.Close(); err != nil {
		return c.sever(err)
	}
	return nil
}

func mergeAppendData(dst, src *imap.AppendData) {
	if src.UIDValidity != 0 {
		dst.UIDValidity = src.UIDValidity
	}
	dst.UIDs = append(dst.UIDs, src.UIDs...)
}

// appendCommand is an APPEND command.
type appendCommand struct {
	commandBase
	data imap.AppendData
}
