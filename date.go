package imap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// Date and time layouts.
const (
	// date in SEARCH keys (RFC 3501 section 9), two-digit day
	DateLayout = "02-Jan-2006"
	// INTERNALDATE (RFC 3501 section 9), space-padded day
	DateTimeLayout = "_2-Jan-2006 15:04:05 -0700"
)

// ParseMessageDateTime parses the Date header field of a message. The
// obsolete RFC 5322 forms (two-digit years, zone names, trailing comments)
// are accepted.
func ParseMessageDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("imap: empty message date")
	}
	var h mail.Header
	h.Set("Date", s)
	t, err := h.Date()
	if err != nil {
		return time.Time{}, fmt.Errorf("imap: invalid message date %q: %w", s, err)
	}
	return t, nil
}

// ParseDateTime parses an INTERNALDATE value. Servers do not agree on the
// day padding, both forms are accepted.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateTimeLayout, "2-Jan-2006 15:04:05 -0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("imap: invalid date-time %q", s)
}
