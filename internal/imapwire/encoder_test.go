package imapwire

import (
	"bufio"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersion/go-imapsession"
)

func newTestEncoder() (*Encoder, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewEncoder(bufio.NewWriter(&buf), ConnSideClient), &buf
}

func TestEncoder_strings(t *testing.T) {
	enc, buf := newTestEncoder()

	enc.Atom("A1").SP().Atom("LOGIN").SP().AString("joe").SP().AString(`p"w d`)
	require.NoError(t, enc.CRLF())
	assert.Equal(t, "A1 LOGIN joe \"p\\\"w d\"\r\n", buf.String())
}

func TestEncoder_Mailbox(t *testing.T) {
	enc, buf := newTestEncoder()

	enc.Mailbox("inbox").SP().Mailbox("日本語").SP().Mailbox("a&b")
	require.NoError(t, enc.CRLF())
	assert.Equal(t, "INBOX &ZeVnLIqe- a&-b\r\n", buf.String())
}

func TestEncoder_literalPlus(t *testing.T) {
	enc, buf := newTestEncoder()
	enc.LiteralPlus = true
	enc.WaitContinuation = func() error {
		t.Error("unexpected continuation wait")
		return nil
	}

	enc.Atom("A1").SP().String("caf\xc3\xa9")
	require.NoError(t, enc.CRLF())
	assert.Equal(t, "A1 {5+}\r\ncaf\xc3\xa9\r\n", buf.String())
}

func TestEncoder_syncLiteral(t *testing.T) {
	enc, buf := newTestEncoder()
	var flushed string
	enc.WaitContinuation = func() error {
		flushed = buf.String()
		return nil
	}

	enc.Atom("A1").SP().String("caf\xc3\xa9")
	require.NoError(t, enc.CRLF())
	assert.Equal(t, "A1 {5}\r\n", flushed)
	assert.Equal(t, "A1 {5}\r\ncaf\xc3\xa9\r\n", buf.String())
}

func TestEncoder_syncLiteralRejected(t *testing.T) {
	enc, _ := newTestEncoder()
	errRejected := errors.New("rejected")
	enc.WaitContinuation = func() error {
		return errRejected
	}

	enc.Atom("A1").SP().String("caf\xc3\xa9").SP().Atom("more")
	assert.ErrorIs(t, enc.CRLF(), errRejected)

	enc.Reset()
	assert.NoError(t, enc.Err())
}

func TestEncoder_MsgFlags(t *testing.T) {
	enc, buf := newTestEncoder()

	enc.MsgFlags(imap.MsgFlagSeen | imap.MsgFlagDeleted).SP().NumSet("1:3")
	require.NoError(t, enc.CRLF())
	assert.Equal(t, "(\\Seen \\Deleted) 1:3\r\n", buf.String())
}

func TestEncoder_NumSet_empty(t *testing.T) {
	enc, _ := newTestEncoder()

	enc.NumSet("")
	assert.Error(t, enc.CRLF())
}

func TestEncoder_SearchKeys(t *testing.T) {
	enc, buf := newTestEncoder()
	enc.LiteralPlus = true

	keys := imap.SearchKeys{
		&imap.SearchFlag{Flag: imap.MsgFlagSeen, Negated: true},
		imap.NewSearchString(false, imap.SearchFieldSubject, "r\xc3\xa9sum\xc3\xa9", ""),
	}
	enc.SearchKeys(keys)
	require.NoError(t, enc.CRLF())
	assert.Equal(t, "UNSEEN SUBJECT {8+}\r\nr\xc3\xa9sum\xc3\xa9\r\n", buf.String())
}
