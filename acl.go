package imap

import (
	"strings"
)

// RightSet is a set of access rights, as returned by MYRIGHTS and GETACL.
type RightSet string

// Right is a single access right.
type Right byte

const (
	RightLookup     = Right('l') // mailbox is visible to LIST/LSUB commands
	RightRead       = Right('r') // SELECT the mailbox, perform CHECK, FETCH, SEARCH, COPY from mailbox
	RightSeen       = Right('s') // keep seen/unseen information across sessions (STORE SEEN flag)
	RightWrite      = Right('w') // STORE flags other than SEEN and DELETED
	RightInsert     = Right('i') // perform APPEND, COPY into mailbox
	RightPost       = Right('p') // send mail to submission address for mailbox, not enforced by IMAP4 itself
	RightCreateMbox = Right('k') // CREATE new sub-mailboxes
	RightDeleteMbox = Right('x') // DELETE mailbox
	RightDeleteMsg  = Right('t') // STORE DELETED flag
	RightExpunge    = Right('e') // perform EXPUNGE
	RightAdminister = Right('a') // perform SETACL
	// Obsolete RFC 2086 rights, still sent by some servers
	RightCreate = Right('c')
	RightDelete = Right('d')
)

// RightsIdentifier is an identifier of an ACL entry.
type RightsIdentifier string

const RightsIdentifierAnyone = RightsIdentifier("anyone")

// Has reports whether the set holds right. The obsolete rights 'c' and 'd'
// imply the rights they were split into.
func (r RightSet) Has(right Right) bool {
	if strings.IndexByte(string(r), byte(right)) >= 0 {
		return true
	}
	switch right {
	case RightCreateMbox:
		return r.Has(RightCreate)
	case RightDeleteMbox, RightDeleteMsg, RightExpunge:
		return r.Has(RightDelete)
	}
	return false
}

// MyRightsData is the data returned by the MYRIGHTS command.
type MyRightsData struct {
	Mailbox string
	Rights  RightSet
}

// ACLData is the data returned by the GETACL command.
type ACLData struct {
	Mailbox string
	Rights  map[RightsIdentifier]RightSet
}
