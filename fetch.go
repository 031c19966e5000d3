package imap

import (
	"fmt"
	"strings"
	"time"

	gomessage "github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

// FetchItems is a bitmask of the message attributes the engine caches.
type FetchItems uint16

const (
	FetchUID FetchItems = 1 << iota
	FetchFlags
	FetchEnvelope
	FetchBodyStructure
	FetchSize
	FetchInternalDate
	// Content-Type, References and List-Post header fields
	FetchContentType
	FetchReferences
	FetchListPost
	// Header fields not covered by the envelope
	FetchSelectedHeaders
	// The whole message header
	FetchHeader

	// FetchHeaderFields groups the items served by a single
	// BODY.PEEK[HEADER.FIELDS (...)] request.
	FetchHeaderFields = FetchContentType | FetchReferences | FetchListPost
)

// HeaderFieldNames returns the header fields of the FetchHeaderFields group
// requested by items.
func (items FetchItems) HeaderFieldNames() []string {
	var l []string
	if items&FetchContentType != 0 {
		l = append(l, "CONTENT-TYPE")
	}
	if items&FetchReferences != 0 {
		l = append(l, "REFERENCES")
	}
	if items&FetchListPost != 0 {
		l = append(l, "LIST-POST")
	}
	return l
}

// EnvelopeHeaderFields are the header fields parsed into the envelope. The
// selected headers group is every other field.
var EnvelopeHeaderFields = []string{
	"DATE", "SUBJECT", "FROM", "SENDER", "REPLY-TO", "TO", "CC", "BCC",
	"IN-REPLY-TO", "MESSAGE-ID",
}

// Envelope is the envelope structure of a message.
type Envelope struct {
	Date      time.Time // zero if the Date header cannot be parsed
	Subject   string
	From      []Address
	Sender    []Address
	ReplyTo   []Address
	To        []Address
	Cc        []Address
	Bcc       []Address
	InReplyTo string
	MessageID string
}

// Address represents a sender or recipient of a message.
type Address struct {
	Name    string
	Mailbox string
	Host    string
}

// Addr returns the e-mail address in the form "foo@example.org".
//
// If the address is a start or end of group, the empty string is returned.
func (addr *Address) Addr() string {
	if addr.Mailbox == "" || addr.Host == "" {
		return ""
	}
	return addr.Mailbox + "@" + addr.Host
}

// DisplayName returns the name of the address if any, its e-mail address
// otherwise.
func (addr *Address) DisplayName() string {
	if addr.Name != "" {
		return addr.Name
	}
	if s := addr.Addr(); s != "" {
		return s
	}
	return addr.Mailbox
}

// IsGroupStart returns true if this address is a start of group marker.
//
// In that case, Mailbox contains the group name phrase.
func (addr *Address) IsGroupStart() bool {
	return addr.Host == "" && addr.Mailbox != ""
}

// IsGroupEnd returns true if this address is a end of group marker.
func (addr *Address) IsGroupEnd() bool {
	return addr.Host == "" && addr.Mailbox == ""
}

// BodyStructure describes the body structure of a message.
//
// A BodyStructure value is either a *BodyStructureSinglePart or a
// *BodyStructureMultiPart.
type BodyStructure interface {
	// MediaType returns the MIME type of this body structure, e.g. "text/plain".
	MediaType() string
	// Walk walks the body structure tree, calling f for each part in the tree,
	// including bs itself. The parts are visited in DFS pre-order.
	Walk(f BodyStructureWalkFunc)

	bodyStructure()
}

var (
	_ BodyStructure = (*BodyStructureSinglePart)(nil)
	_ BodyStructure = (*BodyStructureMultiPart)(nil)
)

// BodyStructureSinglePart is a body structure with a single part.
type BodyStructureSinglePart struct {
	Type, Subtype string
	Params        map[string]string
	ID            string
	Description   string
	Encoding      string
	Size          uint32

	MessageRFC822 *BodyStructureMessageRFC822 // only for "message/rfc822"
	Text          *BodyStructureText          // only for "text/*"
	Extended      *BodyStructureSinglePartExt
}

func (bs *BodyStructureSinglePart) MediaType() string {
	return strings.ToLower(bs.Type) + "/" + strings.ToLower(bs.Subtype)
}

func (bs *BodyStructureSinglePart) Walk(f BodyStructureWalkFunc) {
	f([]int{1}, bs)
}

// Filename returns the body structure's filename, if any.
func (bs *BodyStructureSinglePart) Filename() string {
	var filename string
	if bs.Extended != nil && bs.Extended.Disposition != nil {
		filename = bs.Extended.Disposition.Params["filename"]
	}
	if filename == "" {
		filename = bs.Params["name"]
	}
	return filename
}

func (*BodyStructureSinglePart) bodyStructure() {}

type BodyStructureMessageRFC822 struct {
	Envelope      *Envelope
	BodyStructure BodyStructure
	NumLines      int64
}

type BodyStructureText struct {
	NumLines int64
}

type BodyStructureSinglePartExt struct {
	MD5         string
	Disposition *BodyStructureDisposition
	Language    []string
	Location    string
}

// BodyStructureMultiPart is a body structure with multiple parts.
type BodyStructureMultiPart struct {
	Children []BodyStructure
	Subtype  string

	Extended *BodyStructureMultiPartExt
}

func (bs *BodyStructureMultiPart) MediaType() string {
	return "multipart/" + strings.ToLower(bs.Subtype)
}

func (bs *BodyStructureMultiPart) Walk(f BodyStructureWalkFunc) {
	bs.walk(f, nil)
}

func (bs *BodyStructureMultiPart) walk(f BodyStructureWalkFunc, path []int) {
	if !f(path, bs) {
		return
	}

	pathBuf := make([]int, len(path))
	copy(pathBuf, path)
	for i, part := range bs.Children {
		partPath := append(pathBuf, i+1)

		switch part := part.(type) {
		case *BodyStructureSinglePart:
			f(partPath, part)
		case *BodyStructureMultiPart:
			part.walk(f, partPath)
		default:
			panic(fmt.Errorf("unsupported body structure type %T", part))
		}
	}
}

func (*BodyStructureMultiPart) bodyStructure() {}

type BodyStructureMultiPartExt struct {
	Params      map[string]string
	Disposition *BodyStructureDisposition
	Language    []string
	Location    string
}

type BodyStructureDisposition struct {
	Value  string
	Params map[string]string
}

// BodyStructureWalkFunc is a function called for each body structure visited
// by BodyStructure.Walk.
//
// The path argument contains the IMAP part path.
//
// The function should return true to visit all of the part's children or false
// to skip them.
type BodyStructureWalkFunc func(path []int, part BodyStructure) (walkChildren bool)

// MessageAttrs holds the cached attributes of one message. Fields are only
// meaningful if the matching bit of Available is set.
type MessageAttrs struct {
	Available FetchItems

	UID           uint32
	Envelope      *Envelope
	BodyStructure BodyStructure
	Size          int64
	InternalDate  time.Time
	// Fetched header fields, merged across header groups
	Header mail.Header
}

// Missing returns the items of want that are not cached. A cached full
// header satisfies every header group.
func (attrs *MessageAttrs) Missing(want FetchItems) FetchItems {
	if attrs == nil {
		return want
	}
	have := attrs.Available
	if have&FetchHeader != 0 {
		have |= FetchHeaderFields | FetchSelectedHeaders
	}
	return want &^ have &^ FetchFlags
}

// Copy returns a copy of attrs with its own header. The envelope and body
// structure are shared: they are never modified once fetched.
func (attrs *MessageAttrs) Copy() *MessageAttrs {
	if attrs == nil {
		return nil
	}
	cp := *attrs
	if attrs.Available&(FetchHeaderFields|FetchSelectedHeaders|FetchHeader) != 0 {
		cp.Header = mail.Header{Header: gomessage.Header{Header: attrs.Header.Header.Header.Copy()}}
	}
	return &cp
}

// References returns the message identifiers of the References header
// field, if it was fetched.
func (attrs *MessageAttrs) References() []string {
	if attrs.Available&(FetchReferences|FetchHeader) == 0 {
		return nil
	}
	ids, _ := attrs.Header.MsgIDList("References")
	return ids
}

// ListPost returns the List-Post header field, if it was fetched.
func (attrs *MessageAttrs) ListPost() string {
	if attrs.Available&(FetchListPost|FetchHeader) == 0 {
		return ""
	}
	return attrs.Header.Get("List-Post")
}

// ContentType returns the media type of the message from the Content-Type
// header field, if it was fetched.
func (attrs *MessageAttrs) ContentType() string {
	if attrs.Available&(FetchContentType|FetchHeader) == 0 {
		return ""
	}
	t, _, err := attrs.Header.ContentType()
	if err != nil {
		return ""
	}
	return t
}
