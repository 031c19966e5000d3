package imapclient

import (
	"fmt"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/internal/imapwire"
)

// Caps returns the capabilities advertised by the server.
//
// The capabilities are cached. A CAPABILITY command is only sent if the
// server has not announced them yet, or after they were invalidated by
// STARTTLS or authentication.
func (c *Client) Caps() (imap.CapSet, error) {
	c.acquire()
	defer c.release()

	if err := c.checkState("CAPABILITY", imap.ConnStateConnected, imap.ConnStateAuthenticated, imap.ConnStateSelected); err != nil {
		return 0, err
	}
	return c.capabilities()
}

// HasCap reports whether the server supports cap. Errors are logged and
// reported as missing support.
func (c *Client) HasCap(cap imap.Cap) bool {
	caps, err := c.Caps()
	if err != nil {
		c.logger.Warn("failed to fetch capabilities", "err", err)
		return false
	}
	return caps.Has(cap)
}

func (c *Client) capabilities() (imap.CapSet, error) {
	if c.capsKnown {
		return c.caps, nil
	}
	if err := c.exec(&commandBase{}, "CAPABILITY", nil); err != nil {
		return 0, err
	}
	if !c.capsKnown {
		return 0, &imap.ProtocolError{Err: fmt.Errorf("server did not send capabilities")}
	}
	return c.caps, nil
}

func (c *Client) handleCapability() error {
	caps, err := readCapabilities(c.dec)
	if err != nil {
		return err
	}
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}
	c.setCaps(caps)
	return nil
}

func (c *Client) setCaps(caps imap.CapSet) {
	c.caps = caps
	c.capsKnown = true
	if !caps.Has(imap.CapIMAP4rev1) && !caps.Has(imap.CapIMAP4rev2) {
		c.logger.Warn("server does not advertise IMAP4rev1", "caps", caps.String())
	}
	c.updateEncoder()
}

// updateEncoder enables the literal extensions advertised by the server.
func (c *Client) updateEncoder() {
	if c.enc == nil {
		return
	}
	c.enc.LiteralPlus = c.caps.Has(imap.CapLiteralPlus)
	c.enc.LiteralMinus = c.caps.Has(imap.CapLiteralMinus)
}

func readCapabilities(dec *imapwire.Decoder) (imap.CapSet, error) {
	var names []string
	for dec.SP() {
		var name string
		if !dec.ExpectAtom(&name) {
			return 0, fmt.Errorf("in capability-data: %w", dec.Err())
		}
		names = append(names, name)
	}
	caps, _ := imap.ParseCapSet(names)
	return caps, nil
}
