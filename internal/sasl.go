package internal

import (
	"encoding/base64"
)

// EncodeSASL encodes a SASL response. An empty response is sent as "=" so
// that it can be told apart from a cancellation.
func EncodeSASL(b []byte) string {
	if len(b) == 0 {
		return "="
	}
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeSASL decodes the text of a SASL continuation request.
func DecodeSASL(s string) ([]byte, error) {
	if s == "=" || s == "" {
		// go-sasl treats nil as no challenge/response, so return a non-nil
		// empty byte slice
		return []byte{}, nil
	}
	return base64.StdEncoding.DecodeString(s)
}
