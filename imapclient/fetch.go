package imapclient

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	gomessage "github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/internal"
)

// FetchRange makes sure items are cached for the messages lo to hi. The
// range is clamped to the mailbox. Only messages lacking some of the items
// are fetched; no command is sent if the cache already holds everything.
func (c *Client) FetchRange(lo, hi uint32, items imap.FetchItems) error {
	c.acquire()
	defer c.release()

	if err := c.checkState("FETCH", imap.ConnStateSelected); err != nil {
		return err
	}
	if items == 0 {
		return imap.ErrEmptyInput
	}
	hi = min(hi, c.mailbox.data.NumMessages)
	return c.fetchMissing(rangeCoalescer(lo, hi), items)
}

// FetchSet is like FetchRange for an explicit list of sequence numbers, in
// any order.
func (c *Client) FetchSet(nums []uint32, items imap.FetchItems) error {
	c.acquire()
	defer c.release()

	if err := c.checkState("FETCH", imap.ConnStateSelected); err != nil {
		return err
	}
	if items == 0 {
		return imap.ErrEmptyInput
	}
	return c.fetchMissing(numsCoalescer(nums), items)
}

func (c *Client) fetchMissing(coalesce coalescer, items imap.FetchItems) error {
	var want imap.FetchItems
	set := coalesce(func(seqNum uint32) uint32 {
		missing := c.missingItems(seqNum, items)
		if missing == 0 {
			return 0
		}
		want |= missing
		return seqNum
	})
	if set == "" {
		return nil
	}

	cmd := &fetchCommand{}
	return c.exec(cmd, "FETCH", func(enc *commandEncoder) {
		enc.SP().NumSet(set).SP()
		writeFetchItems(enc, want)
	})
}

// missingItems returns the items of want that are not cached for a message.
// Flags are missing unless every system flag is known.
func (c *Client) missingItems(seqNum uint32, want imap.FetchItems) imap.FetchItems {
	if !c.mailbox.valid(seqNum) {
		return 0
	}
	missing := c.mailbox.msgs[seqNum-1].Missing(want)
	if want&imap.FetchFlags != 0 && c.mailbox.flags[seqNum-1].Known != imap.MsgFlagsAll {
		missing |= imap.FetchFlags
	}
	return missing
}

func writeFetchItems(enc *commandEncoder, items imap.FetchItems) {
	// UID is always requested
	names := []string{"UID"}
	if items&imap.FetchFlags != 0 {
		names = append(names, "FLAGS")
	}
	if items&imap.FetchEnvelope != 0 {
		names = append(names, "ENVELOPE")
	}
	if items&imap.FetchBodyStructure != 0 {
		names = append(names, "BODYSTRUCTURE")
	}
	if items&imap.FetchSize != 0 {
		names = append(names, "RFC822.SIZE")
	}
	if items&imap.FetchInternalDate != 0 {
		names = append(names, "INTERNALDATE")
	}
	if items&imap.FetchHeader != 0 {
		names = append(names, "BODY.PEEK[HEADER]")
	} else {
		if fields := items.HeaderFieldNames(); len(fields) > 0 {
			names = append(names, "BODY.PEEK[HEADER.FIELDS ("+strings.Join(fields, " ")+")]")
		}
		if items&imap.FetchSelectedHeaders != 0 {
			names = append(names, "BODY.PEEK[HEADER.FIELDS.NOT ("+strings.Join(imap.EnvelopeHeaderFields, " ")+")]")
		}
	}

	if len(names) == 1 {
		enc.Atom(names[0])
		return
	}
	enc.List(len(names), func(i int) {
		enc.Atom(names[i])
	})
}

// FetchBody writes the contents of a body section of a message to w. The
// section uses the BODY[] syntax, e.g. "" for the whole message, "1.2" or
// "HEADER". If the server supports BINARY, numeric sections are fetched
// decoded from their transfer encoding.
func (c *Client) FetchBody(seqNum uint32, section string, w io.Writer) error {
	c.acquire()
	defer c.release()

	if err := c.checkState("FETCH", imap.ConnStateSelected); err != nil {
		return err
	}
	if seqNum == 0 {
		return imap.ErrEmptyInput
	}
	caps, err := c.capabilities()
	if err != nil {
		return err
	}

	cmd := &fetchBodyCommand{
		seqNum:  seqNum,
		section: sectionName(section),
		prefix:  "BODY",
		w:       w,
	}
	if caps.Has(imap.CapBinary) && isPartSection(section) {
		cmd.prefix = "BINARY"
	}
	err = c.exec(cmd, "FETCH", func(enc *commandEncoder) {
		enc.SP().Number(seqNum).SP().Atom(cmd.prefix + ".PEEK[" + section + "]")
	})
	if err != nil {
		return err
	}
	if !cmd.found {
		return &imap.ProtocolError{Err: fmt.Errorf("no %v[%v] data for message %v", cmd.prefix, section, seqNum)}
	}
	return nil
}

// sectionName returns the part of a section specifier before its header list.
func sectionName(section string) string {
	if i := strings.IndexByte(section, ' '); i >= 0 {
		section = section[:i]
	}
	return strings.ToUpper(section)
}

func isPartSection(section string) bool {
	for _, ch := range section {
		if ch != '.' && (ch < '0' || ch > '9') {
			return false
		}
	}
	return true
}

// Message returns a copy of the cached attributes of a message, or nil if
// nothing is cached. No command is sent.
func (c *Client) Message(seqNum uint32) *imap.MessageAttrs {
	c.acquire()
	defer c.release()

	if c.mailbox == nil || !c.mailbox.valid(seqNum) {
		return nil
	}
	return c.mailbox.msgs[seqNum-1].Copy()
}

// UIDToSeqNum returns the sequence number of the message with the given
// UID, or zero if there is none. The cache is looked up first; a SEARCH UID
// command is sent if the UID is not cached.
func (c *Client) UIDToSeqNum(uid uint32) (uint32, error) {
	c.acquire()
	defer c.release()

	if err := c.checkState("SEARCH", imap.ConnStateSelected); err != nil {
		return 0, err
	}
	if uid == 0 {
		return 0, imap.ErrEmptyInput
	}
	for i, attrs := range c.mailbox.msgs {
		if attrs != nil && attrs.Available&imap.FetchUID != 0 && attrs.UID == uid {
			return uint32(i + 1), nil
		}
	}

	keys := imap.SearchKeys{imap.NewSearchSet(false, true, []uint32{uid})}
	nums, err := c.execSearch(keys, false, "")
	if err != nil {
		return 0, err
	}
	return minNum(nums), nil
}

func (c *Client) handleFetch(seqNum uint32) error {
	if !c.dec.ExpectSP() {
		return c.dec.Err()
	}
	data, err := c.readMsgAtt(seqNum)
	if err != nil {
		return fmt.Errorf("in msg-att: %w", err)
	}
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}
	c.applyFetch(seqNum, data)
	return nil
}

// fetchData holds the attributes of one FETCH response.
type fetchData struct {
	items         imap.FetchItems
	uid           uint32
	flags         imap.MsgFlags
	envelope      *imap.Envelope
	bodyStructure imap.BodyStructure
	size          int64
	internalDate  time.Time
	headers       []fetchedHeader
}

type fetchedHeader struct {
	items imap.FetchItems
	raw   []byte
}

func (c *Client) readMsgAtt(seqNum uint32) (*fetchData, error) {
	dec := c.dec
	data := &fetchData{}
	err := dec.ExpectList(func() error {
		var name string
		if !dec.ExpectAtom(&name) {
			return dec.Err()
		}
		if i := strings.IndexByte(name, '['); i >= 0 {
			return c.readSectionAtt(seqNum, strings.ToUpper(name[:i]), name[i+1:], data)
		}

		if !dec.ExpectSP() {
			return dec.Err()
		}
		switch name = strings.ToUpper(name); name {
		case "UID":
			if !dec.ExpectNumber(&data.uid) {
				return dec.Err()
			}
			data.items |= imap.FetchUID
		case "FLAGS":
			flags, err := internal.ReadMsgFlags(dec)
			if err != nil {
				return err
			}
			data.flags = flags
			data.items |= imap.FetchFlags
		case "ENVELOPE":
			envelope, err := readEnvelope(dec, &c.options)
			if err != nil {
				return fmt.Errorf("in envelope: %w", err)
			}
			data.envelope = envelope
			data.items |= imap.FetchEnvelope
		case "BODYSTRUCTURE":
			bs, err := readBody(dec, &c.options)
			if err != nil {
				return fmt.Errorf("in body: %w", err)
			}
			data.bodyStructure = bs
			data.items |= imap.FetchBodyStructure
		case "RFC822.SIZE":
			size, ok := dec.ExpectNumber64()
			if !ok {
				return dec.Err()
			}
			data.size = size
			data.items |= imap.FetchSize
		case "INTERNALDATE":
			t, err := readDateTime(dec)
			if err != nil {
				return err
			}
			data.internalDate = t
			data.items |= imap.FetchInternalDate
		default:
			// non-extensible BODY, MODSEQ, RFC822.HEADER and friends
			if !dec.DiscardValue() {
				return dec.Err()
			}
		}
		return nil
	})
	return data, err
}

// readSectionAtt reads the rest of a "BODY[...]", "BINARY[...]" or
// "BINARY.SIZE[...]" attribute, starting after the '['. Requested body
// contents are streamed to the pending FetchBody, headers are buffered for
// the cache and anything else is discarded.
func (c *Client) readSectionAtt(seqNum uint32, prefix, section string, data *fetchData) error {
	dec := c.dec
	section = strings.ToUpper(section)

	var fields []string
	if strings.HasPrefix(section, "HEADER.FIELDS") {
		if !dec.ExpectSP() {
			return dec.Err()
		}
		err := dec.ExpectList(func() error {
			var s string
			if !dec.ExpectAString(&s) {
				return dec.Err()
			}
			fields = append(fields, strings.ToUpper(s))
			return nil
		})
		if err != nil {
			return err
		}
	}
	if !dec.ExpectSpecial(']') {
		return dec.Err()
	}
	var partial string
	dec.Atom(&partial)
	if !dec.ExpectSP() {
		return dec.Err()
	}

	if prefix == "BINARY.SIZE" {
		if _, ok := dec.ExpectNumber64(); !ok {
			return dec.Err()
		}
		return nil
	}

	cmd := findPendingCmdFunc(c, func(cmd *fetchBodyCommand) bool {
		return !cmd.found && cmd.seqNum == seqNum && cmd.prefix == prefix && cmd.section == section
	})
	if cmd != nil && partial == "" {
		cmd.found = true
		if !dec.ExpectNStringTo(cmd.w) {
			return dec.Err()
		}
		return nil
	}

	items := headerSectionItems(section, fields)
	if prefix != "BODY" || items == 0 {
		if !dec.ExpectNStringTo(io.Discard) {
			return dec.Err()
		}
		return nil
	}
	var buf bytes.Buffer
	if !dec.ExpectNStringTo(&buf) {
		return dec.Err()
	}
	data.headers = append(data.headers, fetchedHeader{items: items, raw: buf.Bytes()})
	data.items |= items
	return nil
}

// headerSectionItems maps a header section of a FETCH response to the cache
// items it provides.
func headerSectionItems(section string, fields []string) imap.FetchItems {
	switch section {
	case "HEADER":
		return imap.FetchHeader
	case "HEADER.FIELDS.NOT":
		return imap.FetchSelectedHeaders
	case "HEADER.FIELDS":
		var items imap.FetchItems
		for _, f := range fields {
			switch f {
			case "CONTENT-TYPE":
				items |= imap.FetchContentType
			case "REFERENCES":
				items |= imap.FetchReferences
			case "LIST-POST":
				items |= imap.FetchListPost
			}
		}
		return items
	default:
		return 0
	}
}

// applyFetch stores the data of a FETCH response in the caches.
//
// FLAGS are authoritative and replace the cached flag state. A
// FlagsChangedEvent is emitted for unsolicited updates.
func (c *Client) applyFetch(seqNum uint32, data *fetchData) {
	mbox := c.mailbox
	if mbox == nil {
		return
	}

	if data.items&imap.FetchFlags != 0 {
		if state := mbox.flagState(seqNum); state != nil {
			old := *state
			state.Replace(data.flags)
			solicited := findPendingCmdByType[*fetchCommand](c) != nil || findPendingCmdByType[*storeCommand](c) != nil
			if *state != old && !solicited {
				c.emit(&FlagsChangedEvent{SeqNums: []uint32{seqNum}})
			}
		}
	}

	items := data.items &^ imap.FetchFlags
	if items == 0 {
		return
	}
	attrs := mbox.attrs(seqNum)
	if attrs == nil {
		return
	}
	if items&imap.FetchUID != 0 {
		attrs.UID = data.uid
	}
	if items&imap.FetchEnvelope != 0 {
		attrs.Envelope = data.envelope
	}
	if items&imap.FetchBodyStructure != 0 {
		attrs.BodyStructure = data.bodyStructure
	}
	if items&imap.FetchSize != 0 {
		attrs.Size = data.size
	}
	if items&imap.FetchInternalDate != 0 {
		attrs.InternalDate = data.internalDate
	}
	for _, h := range data.headers {
		if err := mergeHeader(attrs, h); err != nil {
			c.logger.Warn("failed to parse fetched header", "seqnum", seqNum, "err", err)
			items &^= h.items
		}
	}
	attrs.Available |= items
}

// mergeHeader parses a fetched header section into attrs.Header. A full
// header replaces the cached one; a group of fields replaces the cached
// values of the fields it lists.
func mergeHeader(attrs *imap.MessageAttrs, h fetchedHeader) error {
	raw := bytes.TrimRight(h.raw, "\r\n")
	if len(raw) > 0 {
		raw = append(raw, "\r\n"...)
	}
	raw = append(raw, "\r\n"...)

	hdr, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return err
	}

	const headerItems = imap.FetchHeader | imap.FetchHeaderFields | imap.FetchSelectedHeaders
	if h.items&imap.FetchHeader != 0 || attrs.Available&headerItems == 0 {
		attrs.Header = mail.Header{Header: gomessage.Header{Header: hdr}}
		return nil
	}

	var keys []string
	fields := hdr.Fields()
	for fields.Next() {
		keys = append(keys, fields.Key())
	}
	for _, k := range keys {
		attrs.Header.Del(k)
	}
	fields = hdr.Fields()
	for fields.Next() {
		attrs.Header.Add(fields.Key(), fields.Value())
	}
	return nil
}

// fetchCommand is a FETCH command filling the caches.
type fetchCommand struct {
	commandBase
}

// fetchBodyCommand is a FETCH command streaming one body section.
type fetchBodyCommand struct {
	commandBase
	seqNum  uint32
	section string
	prefix  string
	w       io.Writer
	found   bool
}
