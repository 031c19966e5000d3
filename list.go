package imap

import (
	"strings"
)

// ListData is the mailbox data returned by a LIST or LSUB command.
type ListData struct {
	Attrs   []MailboxAttr
	Delim   rune // zero for a flat hierarchy
	Mailbox string
}

// HasAttr reports whether the mailbox has attribute attr. Attribute names
// are case-insensitive.
func (data *ListData) HasAttr(attr MailboxAttr) bool {
	for _, a := range data.Attrs {
		if strings.EqualFold(string(a), string(attr)) {
			return true
		}
	}
	return false
}
