package imap

// StatusItem is a data item which can be requested by a STATUS command.
type StatusItem string

const (
	StatusItemNumMessages StatusItem = "MESSAGES"
	StatusItemNumRecent   StatusItem = "RECENT"
	StatusItemUIDNext     StatusItem = "UIDNEXT"
	StatusItemUIDValidity StatusItem = "UIDVALIDITY"
	StatusItemNumUnseen   StatusItem = "UNSEEN"
	StatusItemSize        StatusItem = "SIZE"
)

// Cap returns the capability the server must advertise for item, or zero
// for the RFC 3501 items.
func (item StatusItem) Cap() Cap {
	if item == StatusItemSize {
		return CapStatusSize
	}
	return 0
}

// StatusData is a mailbox STATUS response. Counters the server did not
// report are nil; UIDNext and UIDValidity are zero when absent.
type StatusData struct {
	Mailbox string

	NumMessages *uint32
	NumRecent   *uint32
	UIDNext     uint32
	UIDValidity uint32
	NumUnseen   *uint32
	Size        *int64
}
