package main

import (
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/imapclient"
	"github.com/emersion/go-imapsession/internal/config"
	"github.com/emersion/go-imapsession/internal/logging"
)

func authMode(mode string) imapclient.AuthMode {
	switch mode {
	case config.AuthModeAnonymous:
		return imapclient.AuthModeAnonymous
	case config.AuthModeGSSAPI:
		return imapclient.AuthModeGSSAPI
	default:
		return imapclient.AuthModeDefault
	}
}

// clientOptions maps the configuration onto engine options. Events, if not
// nil, receives mailbox notifications.
func clientOptions(cfg *config.Config, logger *slog.Logger, events chan<- imapclient.Event) *imapclient.Options {
	options := &imapclient.Options{
		Timeout:        cfg.Server.Timeout,
		Logger:         logging.WithComponent(logger, "imapclient"),
		Events:         events,
		AuthMode:       authMode(cfg.Auth.Mode),
		ClientSideSort: cfg.Client.ClientSideSort,
		IdleAfter:      cfg.Client.IdleAfter,
	}
	for _, m := range cfg.Auth.Methods {
		options.AuthMethods = append(options.AuthMethods, imapclient.AuthMethod(m))
	}
	if cfg.Client.Debug {
		options.DebugWriter = os.Stderr
	}

	username, password := cfg.Auth.Username, cfg.Auth.Password
	options.Credentials = func(mechanism string) (string, string, bool) {
		if mechanism == string(imapclient.AuthAnonymous) {
			return username, "", true
		}
		if password == "" {
			return "", "", false
		}
		return username, password, true
	}

	if cfg.Server.InsecureSkipVerify {
		options.AcceptCertificate = func(cert *x509.Certificate, verifyErr error) bool {
			logger.Warn("accepting untrusted server certificate", "subject", cert.Subject.String(), "err", verifyErr)
			return true
		}
	}
	return options
}

func logEvents(logger *slog.Logger, events <-chan imapclient.Event) {
	for ev := range events {
		switch ev := ev.(type) {
		case *imapclient.AlertEvent:
			logger.Warn("server alert", "text", ev.Text)
		case *imapclient.CountChangedEvent:
			logger.Debug("message count changed", "count", ev.NumMessages)
		case *imapclient.ExpungedEvent:
			logger.Debug("message expunged", "seq", ev.SeqNum)
		case *imapclient.FlagsChangedEvent:
			logger.Debug("flags changed", "count", len(ev.SeqNums))
		}
	}
}

// session is an authenticated connection.
type session struct {
	*imapclient.Client
	events chan imapclient.Event
}

// connect dials the configured server and authenticates. If login is
// false, the connection is left in the state the greeting put it in.
func (a *app) connect(login bool) (*session, error) {
	events := make(chan imapclient.Event, 16)
	go logEvents(a.logger, events)
	options := clientOptions(a.cfg, a.logger, events)

	addr := a.cfg.Server.Address
	var (
		c   *imapclient.Client
		err error
	)
	switch a.cfg.Server.TLS {
	case config.TLSModeImplicit:
		c, err = imapclient.DialTLS(addr, options)
	case config.TLSModeStartTLS:
		c, err = imapclient.DialStartTLS(addr, options)
	default:
		c, err = imapclient.Dial(addr, options)
	}
	if err != nil {
		close(events)
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	s := &session{Client: c, events: events}

	if login && c.State() == imap.ConnStateConnected {
		if err := c.Authenticate(); err != nil {
			s.close()
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}
	if login && a.cfg.Client.Compress && c.HasCap(imap.CapCompressDeflate) {
		if err := c.Compress(); err != nil {
			s.close()
			return nil, fmt.Errorf("failed to enable compression: %w", err)
		}
	}
	return s, nil
}

// close logs out and releases the connection. Logout waits for a background
// IDLE reader, so nothing is sent on the events channel once it returns.
func (s *session) close() {
	if s.State() != imap.ConnStateDisconnected {
		s.Logout()
	}
	s.Close()
	if s.events != nil {
		close(s.events)
	}
}
