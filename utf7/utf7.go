// Package utf7 implements the modified UTF-7 encoding of mailbox names
// defined in RFC 3501 section 5.1.3.
package utf7

import (
	"encoding/base64"
	"errors"

	"golang.org/x/text/encoding"
)

const (
	min = 0x20 // Minimum self-representing UTF-7 value
	max = 0x7E // Maximum self-representing UTF-7 value

	repl = '\uFFFD' // Unicode replacement code point
)

var b64Enc = base64.NewEncoding("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+,")

// ErrInvalidUTF7 means that a decoder encountered invalid UTF-7.
var ErrInvalidUTF7 = errors.New("utf7: invalid UTF-7")

type utf7Encoding struct{}

// Encoding is the modified UTF-7 encoding.
var Encoding encoding.Encoding = utf7Encoding{}

func (utf7Encoding) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: &decoder{ascii: true}}
}

func (utf7Encoding) NewEncoder() *encoding.Encoder {
	return &encoding.Encoder{Transformer: &encoder{}}
}

// Encode converts a UTF-8 mailbox name to its wire form.
func Encode(name string) string {
	s, err := Encoding.NewEncoder().String(name)
	if err != nil {
		// the encoder accepts any input
		return name
	}
	return s
}

// Decode converts a mailbox name from its wire form to UTF-8.
func Decode(name string) (string, error) {
	return Encoding.NewDecoder().String(name)
}
