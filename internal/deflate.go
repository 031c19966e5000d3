package internal

import (
	"compress/flate"
	"io"
	"net"
)

// deflateConn compresses both directions of a connection after
// COMPRESS DEFLATE (RFC 4978). Every write is flushed, so that a command
// reaches the server as soon as the client has written it.
type deflateConn struct {
	net.Conn

	r io.ReadCloser
	w *flate.Writer
}

func (c *deflateConn) Read(b []byte) (int, error) {
	return c.r.Read(b)
}

func (c *deflateConn) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	if err != nil {
		return n, err
	}
	return n, c.w.Flush()
}

func (c *deflateConn) Close() error {
	rErr := c.r.Close()
	wErr := c.w.Close()
	cErr := c.Conn.Close()
	switch {
	case rErr != nil:
		return rErr
	case wErr != nil:
		return wErr
	default:
		return cErr
	}
}

// NewDeflateConn wraps c with raw DEFLATE compression. Bytes already
// buffered from c must be supplied in pending.
func NewDeflateConn(c net.Conn, pending io.Reader, level int) (net.Conn, error) {
	var src io.Reader = c
	if pending != nil {
		src = io.MultiReader(pending, c)
	}
	w, err := flate.NewWriter(c, level)
	if err != nil {
		return nil, err
	}

	return &deflateConn{
		Conn: c,
		r:    flate.NewReader(src),
		w:    w,
	}, nil
}
