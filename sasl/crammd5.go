// Package sasl implements the SASL mechanisms the client needs and
// github.com/emersion/go-sasl does not provide.
package sasl

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"errors"
)

// CRAMMD5 is the name of the CRAM-MD5 mechanism.
const CRAMMD5 = "CRAM-MD5"

// ErrUnexpectedChallenge is returned when the server sends a challenge after
// the exchange is complete.
var ErrUnexpectedChallenge = errors.New("sasl: unexpected server challenge")

type cramMD5Client struct {
	username string
	secret   string
	done     bool
}

// NewCRAMMD5Client returns a go-sasl compatible client implementing the
// CRAM-MD5 mechanism (RFC 2195).
//
// The response to the server challenge is the user name followed by the
// lowercase hexadecimal HMAC-MD5 of the challenge keyed with the secret.
func NewCRAMMD5Client(username, secret string) *cramMD5Client {
	return &cramMD5Client{username: username, secret: secret}
}

// Start implements sasl.Client. CRAM-MD5 has no initial response.
func (c *cramMD5Client) Start() (mech string, ir []byte, err error) {
	return CRAMMD5, nil, nil
}

// Next implements sasl.Client.
func (c *cramMD5Client) Next(challenge []byte) (response []byte, err error) {
	if c.done {
		return nil, ErrUnexpectedChallenge
	}
	c.done = true

	mac := hmac.New(md5.New, []byte(c.secret))
	mac.Write(challenge)
	digest := hex.EncodeToString(mac.Sum(nil))
	return []byte(c.username + " " + digest), nil
}
