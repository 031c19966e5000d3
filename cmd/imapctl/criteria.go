package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/emersion/go-imapsession"
)

const dateFlagLayout = "2006-01-02"

// searchCriteria holds the search flags shared by search and sort. The
// resulting terms are ANDed.
type searchCriteria struct {
	from, to, cc, subject, body, text string
	headers                           []string
	seen, unseen, flagged, deleted    bool
	answered, draft                   bool
	larger, smaller                   uint32
	since, before                     string
}

func (c *searchCriteria) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&c.from, "from", "", "match the From header")
	flags.StringVar(&c.to, "to", "", "match the To header")
	flags.StringVar(&c.cc, "cc", "", "match the Cc header")
	flags.StringVar(&c.subject, "subject", "", "match the Subject header")
	flags.StringVar(&c.body, "body", "", "match the message body")
	flags.StringVar(&c.text, "text", "", "match the header or the body")
	flags.StringArrayVar(&c.headers, "header", nil, "match a header field, as NAME:VALUE")
	flags.BoolVar(&c.seen, "seen", false, "only seen messages")
	flags.BoolVar(&c.unseen, "unseen", false, "only unseen messages")
	flags.BoolVar(&c.flagged, "flagged", false, "only flagged messages")
	flags.BoolVar(&c.deleted, "deleted", false, "only messages marked deleted")
	flags.BoolVar(&c.answered, "answered", false, "only answered messages")
	flags.BoolVar(&c.draft, "draft", false, "only drafts")
	flags.Uint32Var(&c.larger, "larger", 0, "only messages larger than this many bytes")
	flags.Uint32Var(&c.smaller, "smaller", 0, "only messages not larger than this many bytes")
	flags.StringVar(&c.since, "since", "", "only messages received on or after this day (YYYY-MM-DD)")
	flags.StringVar(&c.before, "before", "", "only messages received before this day (YYYY-MM-DD)")
}

func (c *searchCriteria) keys() (imap.SearchKeys, error) {
	if c.seen && c.unseen {
		return nil, fmt.Errorf("--seen and --unseen are mutually exclusive")
	}

	var keys imap.SearchKeys
	for _, s := range []struct {
		field imap.SearchField
		value string
	}{
		{imap.SearchFieldFrom, c.from},
		{imap.SearchFieldTo, c.to},
		{imap.SearchFieldCc, c.cc},
		{imap.SearchFieldSubject, c.subject},
		{imap.SearchFieldBody, c.body},
		{imap.SearchFieldText, c.text},
	} {
		if s.value != "" {
			keys = append(keys, imap.NewSearchString(false, s.field, s.value, ""))
		}
	}
	for _, h := range c.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header criterion %q, want NAME:VALUE", h)
		}
		keys = append(keys, imap.NewSearchString(false, imap.SearchFieldHeader, strings.TrimSpace(value), name))
	}

	for _, f := range []struct {
		set     bool
		flag    imap.MsgFlags
		negated bool
	}{
		{c.seen, imap.MsgFlagSeen, false},
		{c.unseen, imap.MsgFlagSeen, true},
		{c.flagged, imap.MsgFlagFlagged, false},
		{c.deleted, imap.MsgFlagDeleted, false},
		{c.answered, imap.MsgFlagAnswered, false},
		{c.draft, imap.MsgFlagDraft, false},
	} {
		if f.set {
			keys = append(keys, &imap.SearchFlag{Flag: f.flag, Negated: f.negated})
		}
	}

	if c.larger > 0 {
		keys = append(keys, &imap.SearchSize{Larger: c.larger})
	}
	if c.smaller > 0 {
		keys = append(keys, &imap.SearchSize{Negated: true, Larger: c.smaller})
	}

	for _, d := range []struct {
		value string
		rng   imap.SearchDateRange
	}{
		{c.since, imap.SearchDateSince},
		{c.before, imap.SearchDateBefore},
	} {
		if d.value == "" {
			continue
		}
		t, err := time.Parse(dateFlagLayout, d.value)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", d.value, err)
		}
		keys = append(keys, &imap.SearchDate{Range: d.rng, Internal: true, Date: t})
	}

	return keys, nil
}
