package imapwire

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDecoder(s string) *Decoder {
	return NewDecoder(bufio.NewReader(strings.NewReader(s)), ConnSideClient)
}

func TestDecoder_strings(t *testing.T) {
	dec := newTestDecoder(`"a \"b\" \\c" {3}` + "\r\nxyz NIL atom\r\n")

	var s string
	require.True(t, dec.ExpectString(&s))
	assert.Equal(t, `a "b" \c`, s)
	require.True(t, dec.ExpectSP())
	require.True(t, dec.ExpectString(&s))
	assert.Equal(t, "xyz", s)
	require.True(t, dec.ExpectSP())
	require.True(t, dec.ExpectNString(&s))
	assert.Equal(t, "", s)
	require.True(t, dec.ExpectSP())
	require.True(t, dec.ExpectAString(&s))
	assert.Equal(t, "atom", s)
	require.True(t, dec.ExpectCRLF())
	assert.NoError(t, dec.Err())
}

func TestDecoder_literal8(t *testing.T) {
	dec := newTestDecoder("~{4}\r\n\x00\x01\x02\x03\r\n")

	var buf bytes.Buffer
	require.True(t, dec.ExpectNStringTo(&buf))
	assert.Equal(t, []byte{0, 1, 2, 3}, buf.Bytes())
	require.True(t, dec.ExpectCRLF())
}

func TestDecoder_NIL(t *testing.T) {
	dec := newTestDecoder("NILS nil")

	assert.False(t, dec.NIL())
	var s string
	require.True(t, dec.ExpectAtom(&s))
	assert.Equal(t, "NILS", s)
	require.True(t, dec.ExpectSP())
	assert.True(t, dec.NIL())
}

func TestDecoder_List(t *testing.T) {
	dec := newTestDecoder(`(1 2 3) ()`)

	var nums []uint32
	err := dec.ExpectList(func() error {
		var n uint32
		if !dec.ExpectNumber(&n) {
			return dec.Err()
		}
		nums = append(nums, n)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, nums)

	require.True(t, dec.ExpectSP())
	err = dec.ExpectList(func() error {
		t.Error("unexpected item")
		return nil
	})
	assert.NoError(t, err)
}

func TestDecoder_ExpectMailbox(t *testing.T) {
	dec := newTestDecoder(`inbox "&ZeVnLIqe-" Sent` + "\r\n")

	var name string
	require.True(t, dec.ExpectMailbox(&name))
	assert.Equal(t, "INBOX", name)
	require.True(t, dec.ExpectSP())
	require.True(t, dec.ExpectMailbox(&name))
	assert.Equal(t, "日本語", name)
	require.True(t, dec.ExpectSP())
	require.True(t, dec.ExpectMailbox(&name))
	assert.Equal(t, "Sent", name)
}

func TestDecoder_ExpectNumSet(t *testing.T) {
	dec := newTestDecoder("1:3,7\r\n")

	var nums []uint32
	require.True(t, dec.ExpectNumSet(&nums))
	assert.Equal(t, []uint32{1, 2, 3, 7}, nums)
}

func TestDecoder_DiscardValue(t *testing.T) {
	dec := newTestDecoder(`(a "b" (c {1}` + "\r\nd)) BODY[HEADER] x\r\n")

	require.True(t, dec.DiscardValue())
	require.True(t, dec.ExpectSP())
	require.True(t, dec.DiscardValue())
	require.True(t, dec.ExpectSP())
	var s string
	require.True(t, dec.ExpectAtom(&s))
	assert.Equal(t, "x", s)
}

func TestDecoder_DiscardLine(t *testing.T) {
	dec := newTestDecoder("junk {5}\r\nab\r\nc more\r\n* OK next\r\n")

	assert.False(t, dec.ExpectSpecial('*'))
	require.Error(t, dec.Err())
	assert.False(t, dec.IOError())

	require.NoError(t, dec.DiscardLine())
	assert.NoError(t, dec.Err())

	var s string
	require.True(t, dec.ExpectSpecial('*'))
	require.True(t, dec.ExpectSP())
	require.True(t, dec.ExpectAtom(&s))
	assert.Equal(t, "OK", s)
}

func TestDecoder_IOError(t *testing.T) {
	dec := newTestDecoder(`"unterminated`)

	var s string
	assert.False(t, dec.String(&s))
	assert.ErrorIs(t, dec.Err(), io.ErrUnexpectedEOF)
	assert.True(t, dec.IOError())
	assert.Error(t, dec.DiscardLine())
}
