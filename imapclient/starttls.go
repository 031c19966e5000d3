package imapclient

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/emersion/go-imapsession"
)

// StartTLS sends a STARTTLS command and upgrades the connection.
//
// The capability list is discarded afterwards, as required by RFC 3501.
func (c *Client) StartTLS() error {
	c.acquire()
	defer c.release()

	if err := c.checkState("STARTTLS", imap.ConnStateConnected); err != nil {
		return err
	}
	caps, err := c.capabilities()
	if err != nil {
		return err
	}
	if !caps.Has(imap.CapStartTLS) {
		return &imap.CapabilityError{Op: "STARTTLS", Cap: imap.CapStartTLS}
	}

	// Once a client issues a STARTTLS command, it MUST NOT issue further
	// commands until a server response is seen and the TLS negotiation is
	// complete
	if err := c.exec(&commandBase{}, "STARTTLS", nil); err != nil {
		return err
	}
	if err := c.upgradeStartTLS(c.options.tlsConfig(c.host)); err != nil {
		return c.sever(err)
	}
	c.caps = 0
	c.capsKnown = false
	return nil
}

func (c *Client) upgradeStartTLS(tlsConfig *tls.Config) error {
	// Drain buffered data from our bufio.Reader
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, c.br, int64(c.br.Buffered())); err != nil {
		panic(err) // unreachable
	}

	var cleartextConn net.Conn
	if buf.Len() > 0 {
		r := io.MultiReader(&buf, c.conn)
		cleartextConn = startTLSConn{c.conn, r}
	} else {
		cleartextConn = c.conn
	}

	tlsConn := tls.Client(cleartextConn, tlsConfig)
	c.setDeadline()
	if err := tlsConn.Handshake(); err != nil {
		return fmt.Errorf("TLS handshake: %w", err)
	}
	c.setConn(tlsConn)
	return nil
}

type startTLSConn struct {
	net.Conn
	r io.Reader
}

func (conn startTLSConn) Read(b []byte) (int, error) {
	return conn.r.Read(b)
}

// tlsConfig returns the TLS configuration for a connection to host. When
// AcceptCertificate is set, certificates are verified by the client so that
// the callback can overrule a failure.
func (options *Options) tlsConfig(host string) *tls.Config {
	var config *tls.Config
	if options.TLSConfig != nil {
		config = options.TLSConfig.Clone()
	} else {
		config = &tls.Config{}
	}
	if config.ServerName == "" {
		config.ServerName = host
	}
	if options.AcceptCertificate == nil || config.InsecureSkipVerify {
		return config
	}

	accept := options.AcceptCertificate
	roots := config.RootCAs
	serverName := config.ServerName
	config.InsecureSkipVerify = true
	config.VerifyConnection = func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return errors.New("imapclient: server sent no certificate")
		}
		opts := x509.VerifyOptions{
			Roots:         roots,
			DNSName:       serverName,
			Intermediates: x509.NewCertPool(),
		}
		for _, cert := range cs.PeerCertificates[1:] {
			opts.Intermediates.AddCert(cert)
		}
		leaf := cs.PeerCertificates[0]
		_, verifyErr := leaf.Verify(opts)
		if verifyErr == nil || accept(leaf, verifyErr) {
			return nil
		}
		return fmt.Errorf("imapclient: certificate rejected: %w", verifyErr)
	}
	return config
}
