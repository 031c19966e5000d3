package imapclient

import (
	"errors"
	"time"

	"github.com/emersion/go-imapsession"
)

type idleStatus int

const (
	idleInactive idleStatus = iota
	// timer armed, IDLE not sent yet
	idlePending
	// IDLE acknowledged, responses read in the background
	idleActive
)

// idleState drives IDLE (RFC 2177). It is protected by the connection lock;
// while active, the background reader owns the decoder and the caches until
// done is closed.
type idleState struct {
	status idleStatus
	gen    uint64
	timer  *time.Timer
	cmd    *commandBase
	done   chan struct{}
}

// scheduleIdle arms the IDLE timer if the connection qualifies. It is called
// with the connection lock held, when a public method returns.
func (c *Client) scheduleIdle() {
	if c.options.IdleAfter <= 0 || c.idle.status != idleInactive {
		return
	}
	if c.State() != imap.ConnStateSelected || !c.capsKnown || !c.caps.Has(imap.CapIdle) {
		return
	}

	c.idle.status = idlePending
	c.idle.gen++
	gen := c.idle.gen
	c.idle.timer = time.AfterFunc(c.options.IdleAfter, func() {
		c.startIdle(gen)
	})
}

func (c *Client) startIdle(gen uint64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.idle.status != idlePending || c.idle.gen != gen {
		return
	}
	c.idle.status = idleInactive
	if c.State() != imap.ConnStateSelected {
		return
	}

	cmd := &commandBase{}
	if err := c.beginCommand("IDLE", cmd).end(); err != nil {
		c.logger.Warn("failed to start IDLE", "err", err)
		return
	}
	if _, err := c.waitContinuation(cmd); err != nil {
		c.logger.Warn("server refused IDLE", "err", err)
		return
	}

	c.idle.status = idleActive
	c.idle.cmd = cmd
	c.idle.done = make(chan struct{})
	c.clearDeadline()
	go c.readIdle(cmd, c.idle.done)
}

// readIdle dispatches responses until the IDLE command completes or the
// connection is severed.
func (c *Client) readIdle(cmd *commandBase, done chan<- struct{}) {
	defer close(done)
	for !cmd.done {
		cont, err := c.dispatchResponse()
		if err != nil {
			return
		}
		if cont != nil {
			c.logger.Warn("ignoring unexpected continuation request during IDLE", "text", *cont)
		}
	}
}

// stopIdle cancels a pending IDLE or terminates an active one, and waits
// for the background reader to exit. It is called with the connection lock
// held.
func (c *Client) stopIdle() {
	switch c.idle.status {
	case idlePending:
		c.idle.timer.Stop()
		c.idle.status = idleInactive
	case idleActive:
		c.idle.status = idleInactive
		c.setDeadline()
		_, err := c.bw.WriteString("DONE\r\n")
		if err == nil {
			err = c.bw.Flush()
		}
		if err != nil {
			// unblock the reader, it severs the connection
			c.closeConn()
		}
		<-c.idle.done

		cmd := c.idle.cmd
		c.idle.cmd = nil
		c.idle.done = nil
		if cmd.err != nil && !errors.Is(cmd.err, imap.ErrSevered) {
			c.logger.Warn("IDLE failed", "err", cmd.err)
		}
	}
}

func (c *Client) clearDeadline() {
	c.connMutex.Lock()
	c.conn.SetDeadline(time.Time{})
	c.connMutex.Unlock()
}
