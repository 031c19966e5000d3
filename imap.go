// Package imap holds the protocol types shared by the IMAP session engine.
//
// The wire protocol is IMAP4rev1, defined in RFC 3501, plus the extensions
// advertised through capabilities (ACL, QUOTA, SORT, THREAD, UIDPLUS,
// MULTIAPPEND, COMPRESS, LITERAL+, BINARY, ESEARCH).
package imap

import (
	"strings"
)

// ConnState describes the state of a connection.
//
// See RFC 3501 section 3.
type ConnState int

const (
	ConnStateDisconnected ConnState = iota
	ConnStateConnected
	ConnStateAuthenticated
	ConnStateSelected
)

// String implements fmt.Stringer.
func (state ConnState) String() string {
	switch state {
	case ConnStateDisconnected:
		return "disconnected"
	case ConnStateConnected:
		return "connected"
	case ConnStateAuthenticated:
		return "authenticated"
	case ConnStateSelected:
		return "selected"
	default:
		return "unknown"
	}
}

// MailboxAttr is a mailbox attribute.
//
// Mailbox attributes are defined in RFC 3501 section 7.2.2 and RFC 6154.
type MailboxAttr string

const (
	// Base attributes
	MailboxAttrNonExistent   MailboxAttr = "\\NonExistent"
	MailboxAttrNoInferiors   MailboxAttr = "\\Noinferiors"
	MailboxAttrNoSelect      MailboxAttr = "\\Noselect"
	MailboxAttrHasChildren   MailboxAttr = "\\HasChildren"
	MailboxAttrHasNoChildren MailboxAttr = "\\HasNoChildren"
	MailboxAttrMarked        MailboxAttr = "\\Marked"
	MailboxAttrUnmarked      MailboxAttr = "\\Unmarked"

	// Role (aka. "special-use") attributes
	MailboxAttrAll     MailboxAttr = "\\All"
	MailboxAttrArchive MailboxAttr = "\\Archive"
	MailboxAttrDrafts  MailboxAttr = "\\Drafts"
	MailboxAttrFlagged MailboxAttr = "\\Flagged"
	MailboxAttrJunk    MailboxAttr = "\\Junk"
	MailboxAttrSent    MailboxAttr = "\\Sent"
	MailboxAttrTrash   MailboxAttr = "\\Trash"
)

// InboxName is the name of the primary mailbox, which is case-insensitive.
const InboxName = "INBOX"

// CanonicalMailboxName returns the canonical form of a mailbox name.
func CanonicalMailboxName(name string) string {
	if strings.EqualFold(name, InboxName) {
		return InboxName
	}
	return name
}

// Flag is a message flag as it appears on the wire.
//
// Message flags are defined in RFC 3501 section 2.3.2.
type Flag string

const (
	// System flags
	FlagSeen     Flag = "\\Seen"
	FlagAnswered Flag = "\\Answered"
	FlagFlagged  Flag = "\\Flagged"
	FlagDeleted  Flag = "\\Deleted"
	FlagDraft    Flag = "\\Draft"
	FlagRecent   Flag = "\\Recent"

	// Widely used flags
	FlagForwarded Flag = "$Forwarded"
	FlagJunk      Flag = "$Junk"
	FlagNotJunk   Flag = "$NotJunk"

	// Permanent flags
	FlagWildcard Flag = "\\*"
)

// MsgFlags is a bitmask over the system flags tracked by the flag cache.
type MsgFlags uint8

const (
	MsgFlagSeen MsgFlags = 1 << iota
	MsgFlagAnswered
	MsgFlagFlagged
	MsgFlagDeleted
	MsgFlagDraft
	MsgFlagRecent

	MsgFlagsAll = MsgFlagSeen | MsgFlagAnswered | MsgFlagFlagged | MsgFlagDeleted | MsgFlagDraft | MsgFlagRecent
)

var msgFlagNames = []struct {
	bit  MsgFlags
	flag Flag
}{
	{MsgFlagSeen, FlagSeen},
	{MsgFlagAnswered, FlagAnswered},
	{MsgFlagFlagged, FlagFlagged},
	{MsgFlagDeleted, FlagDeleted},
	{MsgFlagDraft, FlagDraft},
	{MsgFlagRecent, FlagRecent},
}

// MsgFlagsFromList converts a wire flag list into a bitmask. Keywords and
// unknown flags are ignored.
func MsgFlagsFromList(flags []Flag) MsgFlags {
	var mask MsgFlags
	for _, f := range flags {
		for _, entry := range msgFlagNames {
			if strings.EqualFold(string(f), string(entry.flag)) {
				mask |= entry.bit
				break
			}
		}
	}
	return mask
}

// Flags returns the wire names of the flags set in the mask.
func (mask MsgFlags) Flags() []Flag {
	var l []Flag
	for _, entry := range msgFlagNames {
		if mask&entry.bit != 0 {
			l = append(l, entry.flag)
		}
	}
	return l
}

// Each calls fn once per flag bit set in the mask, lowest bit first.
func (mask MsgFlags) Each(fn func(bit MsgFlags)) {
	for _, entry := range msgFlagNames {
		if mask&entry.bit != 0 {
			fn(entry.bit)
		}
	}
}

// String implements fmt.Stringer.
func (mask MsgFlags) String() string {
	l := mask.Flags()
	s := make([]string, len(l))
	for i, f := range l {
		s[i] = string(f)
	}
	return "(" + strings.Join(s, " ") + ")"
}

// FlagState is a flag cache entry. A bit of Value is only meaningful if the
// same bit of Known is set; Value&^Known is always zero.
type FlagState struct {
	Known MsgFlags
	Value MsgFlags
}

// Set marks the flags in mask as known and sets or clears them.
func (state *FlagState) Set(mask MsgFlags, on bool) {
	state.Known |= mask
	if on {
		state.Value |= mask
	} else {
		state.Value &^= mask
	}
}

// Replace makes every system flag known, with exactly the flags in value set.
func (state *FlagState) Replace(value MsgFlags) {
	state.Known = MsgFlagsAll
	state.Value = value & MsgFlagsAll
}

// Forget marks the flags in mask as unknown.
func (state *FlagState) Forget(mask MsgFlags) {
	state.Known &^= mask
	state.Value &^= mask
}

// Missing returns the flags of mask whose value is not known.
func (state FlagState) Missing(mask MsgFlags) MsgFlags {
	return mask &^ state.Known
}

// Matches reports whether all flags in set are set and all flags in unset are
// cleared. Unknown flags never match.
func (state FlagState) Matches(set, unset MsgFlags) bool {
	if state.Missing(set|unset) != 0 {
		return false
	}
	return state.Value&set == set && state.Value&unset == 0
}
