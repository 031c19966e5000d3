package imap

// QuotaResourceType is a QUOTA resource type.
//
// See RFC 9208 section 5.
type QuotaResourceType string

const (
	QuotaResourceStorage QuotaResourceType = "STORAGE"
	QuotaResourceMessage QuotaResourceType = "MESSAGE"
	QuotaResourceMailbox QuotaResourceType = "MAILBOX"
)

// QuotaResourceData is the usage and limit of a quota resource. Storage is
// counted in units of 1024 octets.
type QuotaResourceData struct {
	Usage int64
	Limit int64
}

// QuotaData is the data returned by a QUOTA response.
type QuotaData struct {
	Root      string
	Resources map[QuotaResourceType]QuotaResourceData
}

// QuotaRootData is the data returned by GETQUOTAROOT: the quota roots of a
// mailbox and their quotas.
type QuotaRootData struct {
	Mailbox string
	Roots   []string
	Quotas  []QuotaData
}
