package imap

// SelectedMailbox is a snapshot of the state of the selected mailbox.
type SelectedMailbox struct {
	Name     string
	ReadOnly bool

	// Flags defined for this mailbox
	Flags []Flag
	// Flags that the client can change permanently
	PermanentFlags []Flag
	// Number of messages in this mailbox (aka. "EXISTS")
	NumMessages uint32
	NumRecent   uint32
	// Sequence number of the first unseen message, zero if unknown
	FirstUnseen uint32
	UIDNext     uint32
	UIDValidity uint32

	// requires ACL
	Rights RightSet
}
