package imapwire

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emersion/go-imapsession/internal/imapnum"
	"github.com/emersion/go-imapsession/utf7"
)

// A Decoder reads IMAP data.
//
// Methods come in pairs: X tries to read a value and reports whether it
// matched, ExpectX does the same and records an error on mismatch. The first
// error is sticky and returned by Err.
type Decoder struct {
	r    *bufio.Reader
	side ConnSide
	err  error
	// set when err comes from the underlying reader
	ioErr bool
}

// NewDecoder creates a new decoder.
func NewDecoder(r *bufio.Reader, side ConnSide) *Decoder {
	return &Decoder{r: r, side: side}
}

func (dec *Decoder) mustUnreadByte() {
	if err := dec.r.UnreadByte(); err != nil {
		panic(fmt.Errorf("imapwire: failed to unread byte: %v", err))
	}
}

// Err returns the decoding error, if any.
func (dec *Decoder) Err() error {
	return dec.err
}

// IOError reports whether the decoding error was returned by the underlying
// reader, in which case the stream cannot be resynchronized.
func (dec *Decoder) IOError() bool {
	return dec.err != nil && dec.ioErr
}

func (dec *Decoder) returnErr(err error) bool {
	if err == nil {
		return true
	}
	if dec.err == nil {
		dec.err = err
	}
	return false
}

func (dec *Decoder) readByte() (byte, bool) {
	if dec.err != nil {
		return 0, false
	}
	b, err := dec.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		dec.ioErr = true
		return b, dec.returnErr(err)
	}
	return b, true
}

func (dec *Decoder) acceptByte(want byte) bool {
	got, ok := dec.readByte()
	if !ok {
		return false
	} else if got != want {
		dec.mustUnreadByte()
		return false
	}
	return true
}

// EOF returns true if end-of-file is reached.
func (dec *Decoder) EOF() bool {
	_, err := dec.r.ReadByte()
	if err == io.EOF {
		return true
	} else if err != nil {
		dec.ioErr = true
		return dec.returnErr(err)
	}
	dec.mustUnreadByte()
	return false
}

// Expect sets the decoder error if ok is false.
func (dec *Decoder) Expect(ok bool, name string) bool {
	if !ok {
		err := fmt.Errorf("expected %v", name)
		if dec.r.Buffered() > 0 {
			b, _ := dec.r.Peek(1)
			err = fmt.Errorf("%v, got %q", err, string(b))
		}
		return dec.returnErr(err)
	}
	return true
}

func (dec *Decoder) SP() bool {
	return dec.acceptByte(' ')
}

func (dec *Decoder) ExpectSP() bool {
	return dec.Expect(dec.SP(), "SP")
}

func (dec *Decoder) CRLF() bool {
	return dec.acceptByte('\r') && dec.acceptByte('\n')
}

func (dec *Decoder) ExpectCRLF() bool {
	return dec.Expect(dec.CRLF(), "CRLF")
}

func (dec *Decoder) Atom(ptr *string) bool {
	var sb strings.Builder
	for {
		b, ok := dec.readByte()
		if !ok {
			return false
		}
		if !IsAtomChar(b) && b < 0x80 {
			dec.mustUnreadByte()
			break
		}
		sb.WriteByte(b)
	}
	if sb.Len() == 0 {
		return false
	}
	*ptr = sb.String()
	return true
}

func (dec *Decoder) ExpectAtom(ptr *string) bool {
	return dec.Expect(dec.Atom(ptr), "atom")
}

func (dec *Decoder) Special(b byte) bool {
	return dec.acceptByte(b)
}

func (dec *Decoder) ExpectSpecial(b byte) bool {
	return dec.Expect(dec.Special(b), fmt.Sprintf("'%v'", string(b)))
}

// Text reads the rest of the line, without the CRLF.
func (dec *Decoder) Text(ptr *string) bool {
	var sb strings.Builder
	for {
		b, ok := dec.readByte()
		if !ok {
			return false
		} else if b == '\r' || b == '\n' {
			dec.mustUnreadByte()
			break
		}
		sb.WriteByte(b)
	}
	if sb.Len() == 0 {
		return false
	}
	*ptr = sb.String()
	return true
}

func (dec *Decoder) ExpectText(ptr *string) bool {
	return dec.Expect(dec.Text(ptr), "text")
}

// Skip reads until untilCh, which is left unread.
func (dec *Decoder) Skip(untilCh byte) {
	for {
		ch, ok := dec.readByte()
		if !ok {
			return
		} else if ch == untilCh {
			dec.mustUnreadByte()
			return
		}
	}
}

// DiscardLine skips the rest of the current line, including any literal it
// announces, and clears a decoding error. It must not be called after an I/O
// error.
func (dec *Decoder) DiscardLine() error {
	if dec.ioErr {
		return dec.err
	}
	dec.err = nil
	var prev []byte
	for {
		ch, ok := dec.readByte()
		if !ok {
			return dec.err
		}
		if ch != '\n' {
			prev = append(prev, ch)
			continue
		}
		if size, ok := trailingLiteralSize(prev); ok {
			if _, err := io.CopyN(io.Discard, dec.r, size); err != nil {
				dec.ioErr = true
				dec.returnErr(err)
				return err
			}
			prev = prev[:0]
			continue
		}
		return nil
	}
}

// trailingLiteralSize parses a line ending with "{n}\r" or "{n+}\r".
func trailingLiteralSize(line []byte) (int64, bool) {
	s := strings.TrimSuffix(string(line), "\r")
	if !strings.HasSuffix(s, "}") {
		return 0, false
	}
	i := strings.LastIndexByte(s, '{')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSuffix(s[i+1:len(s)-1], "+"), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Until reads until untilCh, which is left unread. It fails if the end of the
// line is reached first.
func (dec *Decoder) Until(untilCh byte, ptr *string) bool {
	var sb strings.Builder
	for {
		ch, ok := dec.readByte()
		if !ok {
			return false
		}
		if ch == untilCh {
			dec.mustUnreadByte()
			break
		}
		if ch == '\r' || ch == '\n' {
			dec.mustUnreadByte()
			return dec.Expect(false, string(untilCh))
		}
		sb.WriteByte(ch)
	}
	*ptr = sb.String()
	return true
}

func (dec *Decoder) Number64() (v int64, ok bool) {
	var sb strings.Builder
	for {
		ch, ok := dec.readByte()
		if !ok {
			return 0, false
		} else if ch < '0' || ch > '9' {
			dec.mustUnreadByte()
			break
		}
		sb.WriteByte(ch)
	}
	if sb.Len() == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(sb.String(), 10, 64)
	if err != nil {
		return 0, dec.returnErr(err)
	}
	return v, true
}

func (dec *Decoder) ExpectNumber64() (v int64, ok bool) {
	v, ok = dec.Number64()
	dec.Expect(ok, "number64")
	return v, ok
}

func (dec *Decoder) Number(ptr *uint32) bool {
	v, ok := dec.Number64()
	if !ok {
		return false
	}
	if v > int64(^uint32(0)) {
		return dec.returnErr(fmt.Errorf("imapwire: number %v out of range", v))
	}
	*ptr = uint32(v)
	return true
}

func (dec *Decoder) ExpectNumber(ptr *uint32) bool {
	return dec.Expect(dec.Number(ptr), "number")
}

// Quoted reads a quoted string.
func (dec *Decoder) Quoted(ptr *string) bool {
	if !dec.Special('"') {
		return false
	}
	var sb strings.Builder
	for {
		ch, ok := dec.readByte()
		if !ok {
			return false
		}
		if ch == '"' {
			break
		}
		if ch == '\\' {
			ch, ok = dec.readByte()
			if !ok {
				return false
			}
		} else if ch == '\r' || ch == '\n' {
			return dec.returnErr(fmt.Errorf("imapwire: CR or LF in quoted string"))
		}
		sb.WriteByte(ch)
	}
	*ptr = sb.String()
	return true
}

func (dec *Decoder) ExpectQuoted(ptr *string) bool {
	return dec.Expect(dec.Quoted(ptr), "quoted")
}

// literalHeader reads "{n}" CRLF or "~{n}" CRLF (literal8). A trailing '+'
// is accepted on the server side.
func (dec *Decoder) literalHeader() (size int64, ok bool) {
	if dec.Special('~') {
		if !dec.ExpectSpecial('{') {
			return 0, false
		}
	} else if !dec.Special('{') {
		return 0, false
	}
	size, ok = dec.ExpectNumber64()
	if !ok {
		return 0, false
	}
	if dec.side == ConnSideServer {
		dec.Special('+')
	}
	if !dec.ExpectSpecial('}') || !dec.ExpectCRLF() {
		return 0, false
	}
	return size, true
}

func (dec *Decoder) readLiteral(w io.Writer, size int64) bool {
	if _, err := io.CopyN(w, dec.r, size); err != nil {
		dec.ioErr = true
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return dec.returnErr(err)
	}
	return true
}

// Literal reads a literal.
func (dec *Decoder) Literal(ptr *string) bool {
	size, ok := dec.literalHeader()
	if !ok {
		return false
	}
	var sb strings.Builder
	sb.Grow(int(size))
	if !dec.readLiteral(&sb, size) {
		return false
	}
	*ptr = sb.String()
	return true
}

// String reads a quoted string or a literal.
func (dec *Decoder) String(ptr *string) bool {
	return dec.Quoted(ptr) || dec.Literal(ptr)
}

func (dec *Decoder) ExpectString(ptr *string) bool {
	return dec.Expect(dec.String(ptr), "string")
}

// AString reads an atom, a quoted string or a literal.
func (dec *Decoder) AString(ptr *string) bool {
	if dec.String(ptr) {
		return true
	}
	// astring atoms may contain ']'
	var sb strings.Builder
	for {
		b, ok := dec.readByte()
		if !ok {
			return false
		}
		if (!IsAtomChar(b) && b != ']' && b < 0x80) || b == '\r' || b == '\n' {
			dec.mustUnreadByte()
			break
		}
		sb.WriteByte(b)
	}
	if sb.Len() == 0 {
		return false
	}
	*ptr = sb.String()
	return true
}

func (dec *Decoder) ExpectAString(ptr *string) bool {
	return dec.Expect(dec.AString(ptr), "astring")
}

// NIL reads the NIL atom. The comparison is case-insensitive.
func (dec *Decoder) NIL() bool {
	b, err := dec.r.Peek(3)
	if err != nil || !strings.EqualFold(string(b), "NIL") {
		return false
	}
	// NIL must not be the prefix of a longer atom
	if b, err := dec.r.Peek(4); err == nil && len(b) == 4 && IsAtomChar(b[3]) {
		return false
	}
	_, _ = dec.r.Discard(3)
	return true
}

func (dec *Decoder) ExpectNIL() bool {
	return dec.Expect(dec.NIL(), "NIL")
}

// NString reads NIL or a string. A NIL value leaves ptr empty.
func (dec *Decoder) NString(ptr *string) bool {
	if dec.NIL() {
		*ptr = ""
		return true
	}
	return dec.String(ptr)
}

func (dec *Decoder) ExpectNString(ptr *string) bool {
	return dec.Expect(dec.NString(ptr), "nstring")
}

// ExpectNStringTo copies a string, a literal or NIL (nothing) to w. Large
// literals are streamed without buffering.
func (dec *Decoder) ExpectNStringTo(w io.Writer) bool {
	if dec.NIL() {
		return true
	}
	var s string
	if dec.Quoted(&s) {
		_, err := io.WriteString(w, s)
		return dec.returnErr(err)
	}
	size, ok := dec.literalHeader()
	if !ok {
		return dec.Expect(false, "nstring")
	}
	return dec.readLiteral(w, size)
}

// List reads a parenthesized list, calling f for each item. It returns false
// if the next value is not a list.
func (dec *Decoder) List(f func() error) (isList bool, err error) {
	if !dec.Special('(') {
		return false, nil
	}
	if dec.Special(')') {
		return true, nil
	}

	for {
		if err := f(); err != nil {
			return true, err
		}

		if dec.Special(')') {
			return true, nil
		} else if !dec.ExpectSP() {
			return true, dec.Err()
		}
	}
}

func (dec *Decoder) ExpectList(f func() error) error {
	isList, err := dec.List(f)
	if err != nil {
		return err
	} else if !dec.Expect(isList, "(") {
		return dec.Err()
	}
	return nil
}

// ExpectNList reads NIL or a list.
func (dec *Decoder) ExpectNList(f func() error) error {
	if dec.NIL() {
		return nil
	}
	return dec.ExpectList(f)
}

// ExpectMailbox reads a mailbox name and decodes it from modified UTF-7.
// INBOX is returned in its canonical form.
func (dec *Decoder) ExpectMailbox(ptr *string) bool {
	var name string
	if !dec.ExpectAString(&name) {
		return false
	}
	if strings.EqualFold(name, "INBOX") {
		*ptr = "INBOX"
		return true
	}
	decoded, err := utf7.Decode(name)
	if err != nil {
		// servers not following RFC 3501 send raw UTF-8
		decoded = name
	}
	*ptr = decoded
	return true
}

// ExpectNumSet reads a sequence-set without "*".
func (dec *Decoder) ExpectNumSet(ptr *[]uint32) bool {
	var s string
	if !dec.ExpectAtom(&s) {
		return false
	}
	set, err := imapnum.ParseSet(s)
	if err != nil {
		return dec.returnErr(err)
	}
	*ptr = set.Nums()
	return true
}

// DiscardValue skips a single value: an atom, a number, a string, a literal
// or a list, possibly followed by a bracketed section as in "BODY[...]".
func (dec *Decoder) DiscardValue() bool {
	var s string
	if dec.String(&s) {
		return true
	}
	if isList, err := dec.List(func() error {
		if !dec.DiscardValue() {
			return dec.Err()
		}
		return nil
	}); err != nil {
		return false
	} else if isList {
		return true
	}
	if dec.Err() != nil {
		return false
	}
	if !dec.Atom(&s) {
		return dec.Expect(false, "value")
	}
	// '[' is an atom char, the section text may contain spaces
	if strings.IndexByte(s, '[') >= 0 {
		dec.Skip(']')
		if !dec.ExpectSpecial(']') {
			return false
		}
		var partial string
		dec.Atom(&partial)
	}
	return dec.Err() == nil
}
