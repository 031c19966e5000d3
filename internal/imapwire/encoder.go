package imapwire

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/utf7"
)

// An Encoder writes IMAP data.
//
// Most methods don't return an error, instead they defer error handling until
// CRLF is called. These methods return the Encoder so that calls can be
// chained.
type Encoder struct {
	// QuotedUTF8 allows non-ASCII strings to be encoded as quoted strings.
	// This requires IMAP4rev2.
	QuotedUTF8 bool
	// LiteralMinus enables non-synchronizing literals for short payloads.
	// This requires IMAP4rev2 or LITERAL-. This is only meaningful for
	// clients.
	LiteralMinus bool
	// LiteralPlus enables non-synchronizing literals for all payloads. This
	// requires LITERAL+. This is only meaningful for clients.
	LiteralPlus bool
	// WaitContinuation is called once the header of a synchronizing literal
	// has been flushed. It must block until the server sends a continuation
	// request. A non-nil error cancels the literal. This is only meaningful
	// for clients.
	WaitContinuation func() error

	w       *bufio.Writer
	side    ConnSide
	err     error
	literal bool
}

// NewEncoder creates a new encoder.
func NewEncoder(w *bufio.Writer, side ConnSide) *Encoder {
	return &Encoder{w: w, side: side}
}

func (enc *Encoder) setErr(err error) {
	if enc.err == nil {
		enc.err = err
	}
}

// Err returns the first error recorded since the last call to Reset.
func (enc *Encoder) Err() error {
	return enc.err
}

// Reset clears the recorded error, so that the next command can be written.
func (enc *Encoder) Reset() {
	enc.err = nil
	enc.literal = false
}

func (enc *Encoder) writeString(s string) *Encoder {
	if enc.err != nil {
		return enc
	}
	if enc.literal {
		enc.err = fmt.Errorf("imapwire: cannot encode while a literal is open")
		return enc
	}
	if _, err := enc.w.WriteString(s); err != nil {
		enc.err = err
	}
	return enc
}

// CRLF writes a "\r\n" sequence and flushes the buffered writer.
func (enc *Encoder) CRLF() error {
	enc.writeString("\r\n")
	if enc.err != nil {
		return enc.err
	}
	if err := enc.w.Flush(); err != nil {
		enc.setErr(err)
		return err
	}
	return nil
}

func (enc *Encoder) Atom(s string) *Encoder {
	return enc.writeString(s)
}

func (enc *Encoder) SP() *Encoder {
	return enc.writeString(" ")
}

func (enc *Encoder) Special(ch byte) *Encoder {
	return enc.writeString(string(ch))
}

func (enc *Encoder) Quoted(s string) *Encoder {
	var sb strings.Builder
	sb.Grow(2 + len(s))
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '"' || ch == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(ch)
	}
	sb.WriteByte('"')
	return enc.writeString(sb.String())
}

// String writes a quoted string, or a literal if s cannot be quoted.
func (enc *Encoder) String(s string) *Encoder {
	if !enc.validQuoted(s) {
		enc.stringLiteral(s)
		return enc
	}
	return enc.Quoted(s)
}

// AString writes s as an atom if possible, as a string otherwise.
func (enc *Encoder) AString(s string) *Encoder {
	if s != "" && !strings.EqualFold(s, "NIL") && isAtom(s) {
		return enc.Atom(s)
	}
	return enc.String(s)
}

func isAtom(s string) bool {
	for i := 0; i < len(s); i++ {
		if !IsAtomChar(s[i]) {
			return false
		}
	}
	return true
}

func (enc *Encoder) validQuoted(s string) bool {
	if len(s) > 4096 {
		return false
	}

	for i := 0; i < len(s); i++ {
		ch := s[i]

		// NUL, CR and LF are never valid
		switch ch {
		case 0, '\r', '\n':
			return false
		}

		if !enc.QuotedUTF8 && ch > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func (enc *Encoder) syncLiteral(size int64) bool {
	if enc.side != ConnSideClient || enc.LiteralPlus {
		return false
	}
	return !enc.LiteralMinus || size > 4096
}

func (enc *Encoder) stringLiteral(s string) {
	wc := enc.Literal(int64(len(s)), enc.syncLiteral(int64(len(s))))
	_, writeErr := io.WriteString(wc, s)
	closeErr := wc.Close()
	if writeErr != nil {
		enc.setErr(writeErr)
	} else if closeErr != nil {
		enc.setErr(closeErr)
	}
}

// Mailbox writes a mailbox name in modified UTF-7.
func (enc *Encoder) Mailbox(name string) *Encoder {
	if strings.EqualFold(name, imap.InboxName) {
		return enc.Atom(imap.InboxName)
	}
	return enc.AString(utf7.Encode(name))
}

// NumSet writes a sequence set as returned by the coalescer.
func (enc *Encoder) NumSet(set string) *Encoder {
	if set == "" {
		enc.setErr(fmt.Errorf("imapwire: cannot encode empty sequence set"))
		return enc
	}
	return enc.writeString(set)
}

func (enc *Encoder) Flag(flag imap.Flag) *Encoder {
	if flag != imap.FlagWildcard && !isValidFlag(string(flag)) {
		enc.setErr(fmt.Errorf("imapwire: invalid flag %q", flag))
		return enc
	}
	return enc.writeString(string(flag))
}

// MsgFlags writes a parenthesized flag list.
func (enc *Encoder) MsgFlags(mask imap.MsgFlags) *Encoder {
	flags := mask.Flags()
	return enc.List(len(flags), func(i int) {
		enc.Flag(flags[i])
	})
}

// isValidFlag checks whether the provided string satisfies
// flag-keyword / flag-extension.
func isValidFlag(s string) bool {
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\\' {
			if i != 0 {
				return false
			}
		} else {
			if !IsAtomChar(ch) {
				return false
			}
		}
	}
	return len(s) > 0
}

func (enc *Encoder) Number(v uint32) *Encoder {
	return enc.writeString(strconv.FormatUint(uint64(v), 10))
}

func (enc *Encoder) Number64(v int64) *Encoder {
	if v < 0 {
		enc.setErr(fmt.Errorf("imapwire: cannot encode negative number %v", v))
		return enc
	}
	return enc.writeString(strconv.FormatInt(v, 10))
}

// DateTime writes a quoted date-time, as used by APPEND.
func (enc *Encoder) DateTime(t time.Time) *Encoder {
	if t.IsZero() {
		return enc
	}
	return enc.Quoted(t.Format(imap.DateTimeLayout))
}

// List writes a parenthesized list.
func (enc *Encoder) List(n int, f func(i int)) *Encoder {
	enc.Special('(')
	for i := 0; i < n; i++ {
		if i > 0 {
			enc.SP()
		}
		f(i)
	}
	enc.Special(')')
	return enc
}

func (enc *Encoder) BeginList() *ListEncoder {
	enc.Special('(')
	return &ListEncoder{enc: enc}
}

func (enc *Encoder) NIL() *Encoder {
	return enc.Atom("NIL")
}

func (enc *Encoder) Text(s string) *Encoder {
	return enc.writeString(s)
}

// SearchKeys writes a search key list. Strings that cannot be quoted are
// sent as literals.
func (enc *Encoder) SearchKeys(keys imap.SearchKeys) *Encoder {
	keys.Encode(searchEncoder{enc})
	return enc
}

type searchEncoder struct {
	enc *Encoder
}

func (se searchEncoder) Atom(s string)   { se.enc.Atom(s) }
func (se searchEncoder) String(s string) { se.enc.String(s) }
func (se searchEncoder) Special(ch byte) { se.enc.Special(ch) }
func (se searchEncoder) SP()             { se.enc.SP() }

// Literal writes a literal.
//
// The caller must write exactly size bytes to the returned writer.
//
// If sync is true, the literal is synchronizing: the encoder flushes the
// literal header and calls WaitContinuation before the data can be written.
func (enc *Encoder) Literal(size int64, sync bool) io.WriteCloser {
	return enc.literalWithPrefix("", size, sync)
}

// Literal8 writes a binary literal (RFC 3516).
func (enc *Encoder) Literal8(size int64, sync bool) io.WriteCloser {
	return enc.literalWithPrefix("~", size, sync)
}

func (enc *Encoder) literalWithPrefix(prefix string, size int64, sync bool) io.WriteCloser {
	if sync && enc.side == ConnSideServer {
		panic("imapwire: sync must be false on a server-side Encoder.Literal")
	}

	enc.writeString(prefix + "{")
	enc.Number64(size)
	if !sync && enc.side == ConnSideClient {
		enc.writeString("+")
	}
	enc.writeString("}")

	if !sync {
		enc.writeString("\r\n")
	} else {
		if err := enc.CRLF(); err != nil {
			return errorWriter{err}
		}
		if enc.WaitContinuation == nil {
			err := fmt.Errorf("imapwire: cannot send synchronizing literal")
			enc.setErr(err)
			return errorWriter{err}
		}
		if err := enc.WaitContinuation(); err != nil {
			enc.setErr(err)
			return errorWriter{err}
		}
	}
	if enc.err != nil {
		return errorWriter{enc.err}
	}

	enc.literal = true
	return &literalWriter{
		enc: enc,
		n:   size,
	}
}

// SyncLiteral reports whether a literal of the given size has to be
// synchronizing with the current settings.
func (enc *Encoder) SyncLiteral(size int64) bool {
	return enc.syncLiteral(size)
}

type errorWriter struct {
	err error
}

func (ew errorWriter) Write(b []byte) (int, error) {
	return 0, ew.err
}

func (ew errorWriter) Close() error {
	return ew.err
}

type literalWriter struct {
	enc *Encoder
	n   int64
}

func (lw *literalWriter) Write(b []byte) (int, error) {
	if lw.n-int64(len(b)) < 0 {
		return 0, fmt.Errorf("wrote too many bytes in literal")
	}
	n, err := lw.enc.w.Write(b)
	lw.n -= int64(n)
	return n, err
}

func (lw *literalWriter) Close() error {
	lw.enc.literal = false
	if lw.n != 0 {
		return fmt.Errorf("wrote too few bytes in literal (%v remaining)", lw.n)
	}
	return nil
}

type ListEncoder struct {
	enc *Encoder
	n   int
}

func (le *ListEncoder) Item() *Encoder {
	if le.n > 0 {
		le.enc.SP()
	}
	le.n++
	return le.enc
}

func (le *ListEncoder) End() {
	le.enc.Special(')')
	le.enc = nil
}
