package imap

// SortKey is a sort criterion.
//
// See RFC 5256 section 3.
type SortKey string

const (
	SortKeyArrival SortKey = "ARRIVAL"
	SortKeyCc      SortKey = "CC"
	SortKeyDate    SortKey = "DATE"
	SortKeyFrom    SortKey = "FROM"
	SortKeySize    SortKey = "SIZE"
	SortKeySubject SortKey = "SUBJECT"
	SortKeyTo      SortKey = "TO"
	// Mailbox order, never sent to the server
	SortKeySeqNum SortKey = ""
)

// FetchItems returns the attributes a client-side sort by key needs.
func (key SortKey) FetchItems() FetchItems {
	switch key {
	case SortKeyArrival:
		return FetchUID
	case SortKeySize:
		return FetchSize
	case SortKeySeqNum:
		return 0
	default:
		return FetchEnvelope
	}
}
