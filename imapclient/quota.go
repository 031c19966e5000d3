package imapclient

import (
	"fmt"
	"strings"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/internal/imapwire"
)

// GetQuotaRoot sends a GETQUOTAROOT command.
//
// The QUOTA responses of every root of the mailbox are collected.
//
// This command requires support for the QUOTA extension.
func (c *Client) GetQuotaRoot(mailbox string) (*imap.QuotaRootData, error) {
	c.acquire()
	defer c.release()

	if err := c.checkState("GETQUOTAROOT", imap.ConnStateAuthenticated, imap.ConnStateSelected); err != nil {
		return nil, err
	}
	if mailbox == "" {
		return nil, imap.ErrEmptyInput
	}
	if err := c.requireCap("GETQUOTAROOT", imap.CapQuota); err != nil {
		return nil, err
	}

	cmd := &getQuotaRootCommand{}
	cmd.data.Mailbox = imap.CanonicalMailboxName(mailbox)
	err := c.exec(cmd, "GETQUOTAROOT", func(enc *commandEncoder) {
		enc.SP().Mailbox(mailbox)
	})
	if err != nil {
		return nil, err
	}
	return &cmd.data, nil
}

func (c *Client) handleQuota() error {
	if !c.dec.ExpectSP() {
		return c.dec.Err()
	}
	data, err := readQuota(c.dec)
	if err != nil {
		return fmt.Errorf("in quota-response: %w", err)
	}
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}
	if cmd := findPendingCmdByType[*getQuotaRootCommand](c); cmd != nil {
		cmd.data.Quotas = append(cmd.data.Quotas, *data)
	}
	return nil
}

func (c *Client) handleQuotaRoot() error {
	if !c.dec.ExpectSP() {
		return c.dec.Err()
	}
	mailbox, roots, err := readQuotaRoot(c.dec)
	if err != nil {
		return fmt.Errorf("in quotaroot-response: %w", err)
	}
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}
	if cmd := findPendingCmdByType[*getQuotaRootCommand](c); cmd != nil && cmd.data.Mailbox == mailbox {
		cmd.data.Roots = roots
	}
	return nil
}

type getQuotaRootCommand struct {
	commandBase
	data imap.QuotaRootData
}

func readQuota(dec *imapwire.Decoder) (*imap.QuotaData, error) {
	var data imap.QuotaData
	if !dec.ExpectAString(&data.Root) || !dec.ExpectSP() {
		return nil, dec.Err()
	}
	data.Resources = make(map[imap.QuotaResourceType]imap.QuotaResourceData)
	err := dec.ExpectList(func() error {
		var (
			name    string
			resData imap.QuotaResourceData
			ok      bool
		)
		if !dec.ExpectAtom(&name) || !dec.ExpectSP() {
			return dec.Err()
		}
		if resData.Usage, ok = dec.ExpectNumber64(); !ok || !dec.ExpectSP() {
			return fmt.Errorf("in quota-resource: %w", dec.Err())
		}
		if resData.Limit, ok = dec.ExpectNumber64(); !ok {
			return fmt.Errorf("in quota-resource: %w", dec.Err())
		}
		data.Resources[imap.QuotaResourceType(strings.ToUpper(name))] = resData
		return nil
	})
	return &data, err
}

func readQuotaRoot(dec *imapwire.Decoder) (mailbox string, roots []string, err error) {
	if !dec.ExpectMailbox(&mailbox) {
		return "", nil, dec.Err()
	}
	for dec.SP() {
		var root string
		if !dec.ExpectAString(&root) {
			return "", nil, dec.Err()
		}
		roots = append(roots, root)
	}
	return mailbox, roots, nil
}
