package imapclient

import (
	"errors"
	"fmt"

	"github.com/emersion/go-sasl"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/internal"
	imapsasl "github.com/emersion/go-imapsession/sasl"
)

// AuthMethod is an authentication method tried by Authenticate.
type AuthMethod string

const (
	AuthCRAMMD5   AuthMethod = imapsasl.CRAMMD5
	AuthPlain     AuthMethod = sasl.Plain
	AuthLogin     AuthMethod = sasl.Login // SASL mechanism, not the LOGIN command
	AuthAnonymous AuthMethod = sasl.Anonymous
	AuthGSSAPI    AuthMethod = "GSSAPI"
	// AuthLoginCommand is the LOGIN command, sending the password in clear
	AuthLoginCommand AuthMethod = "LOGIN-COMMAND"
)

// DefaultAuthMethods lists the methods tried by Authenticate by default,
// hashed challenge-response first.
var DefaultAuthMethods = []AuthMethod{AuthCRAMMD5, AuthPlain, AuthLogin, AuthLoginCommand}

// AuthMode selects how Authenticate picks the authentication method.
type AuthMode int

const (
	// Try Options.AuthMethods in order
	AuthModeDefault AuthMode = iota
	// Only use Kerberos (GSSAPI)
	AuthModeGSSAPI
	// Only use anonymous access
	AuthModeAnonymous
)

// errAuthUnavailable reports that a method cannot be used with this server
// or client configuration; the next method is tried.
var errAuthUnavailable = errors.New("imapclient: authentication method unavailable")

// Authenticate logs in, trying the configured methods in order. Methods the
// server does not advertise are skipped. The first rejection stops the
// negotiation: an error matching imap.ErrAuthFailed is returned. If the user
// cancels a credentials prompt, imap.ErrCancelled is returned.
func (c *Client) Authenticate() error {
	c.acquire()
	defer c.release()

	if err := c.checkState("AUTHENTICATE", imap.ConnStateConnected); err != nil {
		return err
	}

	for _, method := range c.authMethods() {
		err := c.tryAuthMethod(method)
		if errors.Is(err, errAuthUnavailable) {
			c.logger.Debug("skipping authentication method", "method", method)
			continue
		}
		return err
	}
	return imap.ErrAuthUnavailable
}

func (c *Client) authMethods() []AuthMethod {
	switch c.options.AuthMode {
	case AuthModeGSSAPI:
		return []AuthMethod{AuthGSSAPI}
	case AuthModeAnonymous:
		return []AuthMethod{AuthAnonymous}
	}
	if len(c.options.AuthMethods) > 0 {
		return c.options.AuthMethods
	}
	return DefaultAuthMethods
}

func (c *Client) credentials(method AuthMethod) (username, secret string, err error) {
	if c.options.Credentials == nil {
		return "", "", errAuthUnavailable
	}
	username, secret, ok := c.options.Credentials(string(method))
	if !ok {
		return "", "", imap.ErrCancelled
	}
	return username, secret, nil
}

func (c *Client) tryAuthMethod(method AuthMethod) error {
	caps, err := c.capabilities()
	if err != nil {
		return err
	}

	var saslClient sasl.Client
	switch method {
	case AuthCRAMMD5, AuthPlain, AuthLogin:
		capByMethod := map[AuthMethod]imap.Cap{
			AuthCRAMMD5: imap.CapAuthCRAMMD5,
			AuthPlain:   imap.CapAuthPlain,
			AuthLogin:   imap.CapAuthLogin,
		}
		if !caps.Has(capByMethod[method]) {
			return errAuthUnavailable
		}
		username, secret, err := c.credentials(method)
		if err != nil {
			return err
		}
		switch method {
		case AuthCRAMMD5:
			saslClient = imapsasl.NewCRAMMD5Client(username, secret)
		case AuthPlain:
			saslClient = sasl.NewPlainClient("", username, secret)
		case AuthLogin:
			saslClient = sasl.NewLoginClient(username, secret)
		}
	case AuthAnonymous:
		if !caps.Has(imap.CapAuthAnonymous) {
			return errAuthUnavailable
		}
		var trace string
		if c.options.Credentials != nil {
			trace, _, _ = c.options.Credentials(string(method))
		}
		saslClient = sasl.NewAnonymousClient(trace)
	case AuthGSSAPI:
		if !caps.Has(imap.CapAuthGSSAPI) || c.options.GSSAPI == nil {
			return errAuthUnavailable
		}
		saslClient, err = c.options.GSSAPI(c.host)
		if err != nil {
			return fmt.Errorf("imapclient: GSSAPI: %w", err)
		}
	case AuthLoginCommand:
		if caps.Has(imap.CapLoginDisabled) {
			return errAuthUnavailable
		}
		username, secret, err := c.credentials(method)
		if err != nil {
			return err
		}
		return c.login(username, secret)
	default:
		return errAuthUnavailable
	}

	return c.authenticate(saslClient)
}

// Login sends a LOGIN command.
func (c *Client) Login(username, password string) error {
	c.acquire()
	defer c.release()

	if err := c.checkState("LOGIN", imap.ConnStateConnected); err != nil {
		return err
	}
	return c.login(username, password)
}

func (c *Client) login(username, password string) error {
	c.capsKnown = false
	err := c.exec(&commandBase{}, "LOGIN", func(enc *commandEncoder) {
		enc.SP().AString(username).SP().AString(password)
	})
	return c.authDone("LOGIN", err)
}

// AuthenticateSASL sends an AUTHENTICATE command with the given mechanism.
//
// Unlike Authenticate, no negotiation takes place.
func (c *Client) AuthenticateSASL(saslClient sasl.Client) error {
	c.acquire()
	defer c.release()

	if err := c.checkState("AUTHENTICATE", imap.ConnStateConnected); err != nil {
		return err
	}
	return c.authenticate(saslClient)
}

func (c *Client) authenticate(saslClient sasl.Client) error {
	mech, initialResp, err := saslClient.Start()
	if err != nil {
		return err
	}

	// c.capabilities may send a CAPABILITY command, so check it before
	// c.beginCommand
	var hasSASLIR bool
	if initialResp != nil {
		caps, err := c.capabilities()
		if err != nil {
			return err
		}
		hasSASLIR = caps.Has(imap.CapSASLIR)
	}

	c.capsKnown = false
	cmd := &commandBase{}
	enc := c.beginCommand("AUTHENTICATE", cmd)
	enc.SP().Atom(mech)
	if initialResp != nil && hasSASLIR {
		enc.SP().Atom(internal.EncodeSASL(initialResp))
		initialResp = nil
	}
	if err := enc.end(); err != nil {
		return err
	}

	for {
		challengeStr, err := c.waitContinuation(cmd)
		if cmd.done {
			// the tagged response decides, not the missing continuation
			return c.authDone(mech, cmd.err)
		}
		if err != nil {
			return err
		}

		var resp []byte
		if challengeStr == "" && initialResp != nil {
			resp = initialResp
			initialResp = nil
		} else {
			challenge, err := internal.DecodeSASL(challengeStr)
			if err != nil {
				c.writeSASLCancel()
				return c.authDone(mech, c.wait(cmd))
			}
			resp, err = saslClient.Next(challenge)
			if err != nil {
				c.logger.Warn("SASL mechanism failed", "mechanism", mech, "err", err)
				c.writeSASLCancel()
				if err := c.wait(cmd); errors.Is(err, imap.ErrSevered) {
					return err
				}
				return &imap.AuthError{Mechanism: mech, Err: err}
			}
		}

		if err := c.writeSASLResp(internal.EncodeSASL(resp)); err != nil {
			return err
		}
	}
}

// authDone updates the connection state once an authentication command has
// completed.
func (c *Client) authDone(mech string, err error) error {
	if err == nil {
		c.setState(imap.ConnStateAuthenticated)
		return nil
	}
	if errors.Is(err, imap.ErrSevered) {
		return err
	}
	return &imap.AuthError{Mechanism: mech, Err: err}
}

func (c *Client) writeSASLResp(s string) error {
	c.setDeadline()
	if _, err := c.bw.WriteString(s + "\r\n"); err != nil {
		return c.sever(err)
	}
	if err := c.bw.Flush(); err != nil {
		return c.sever(err)
	}
	return nil
}

// writeSASLCancel aborts the exchange, RFC 3501 section 6.2.2.
func (c *Client) writeSASLCancel() {
	c.writeSASLResp("*")
}
