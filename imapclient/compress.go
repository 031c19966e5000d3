package imapclient

import (
	"bytes"
	"compress/flate"
	"io"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/internal"
)

// Compress enables COMPRESS=DEFLATE (RFC 4978) on the connection.
func (c *Client) Compress() error {
	c.acquire()
	defer c.release()

	if err := c.checkState("COMPRESS", imap.ConnStateAuthenticated, imap.ConnStateSelected); err != nil {
		return err
	}
	caps, err := c.capabilities()
	if err != nil {
		return err
	}
	if !caps.Has(imap.CapCompressDeflate) {
		return &imap.CapabilityError{Op: "COMPRESS", Cap: imap.CapCompressDeflate}
	}

	err = c.exec(&commandBase{}, "COMPRESS", func(enc *commandEncoder) {
		enc.SP().Atom(imap.CompressDeflate)
	})
	if err != nil {
		return err
	}

	var pending bytes.Buffer
	if _, err := io.CopyN(&pending, c.br, int64(c.br.Buffered())); err != nil {
		panic(err) // unreachable
	}
	conn, err := internal.NewDeflateConn(c.conn, &pending, flate.DefaultCompression)
	if err != nil {
		return c.sever(err)
	}
	c.setConn(conn)
	return nil
}
