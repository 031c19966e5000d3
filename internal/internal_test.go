package internal

import (
	"bufio"
	"compress/flate"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/internal/imapwire"
)

func TestReadFlagList(t *testing.T) {
	dec := imapwire.NewDecoder(bufio.NewReader(strings.NewReader(`(\Seen $Junk \*)`)), imapwire.ConnSideClient)

	flags, err := ReadFlagList(dec)
	require.NoError(t, err)
	assert.Equal(t, []imap.Flag{imap.FlagSeen, imap.FlagJunk, imap.FlagWildcard}, flags)
}

func TestReadMsgFlags(t *testing.T) {
	dec := imapwire.NewDecoder(bufio.NewReader(strings.NewReader(`(\SEEN \Deleted custom)`)), imapwire.ConnSideClient)

	mask, err := ReadMsgFlags(dec)
	require.NoError(t, err)
	assert.Equal(t, imap.MsgFlagSeen|imap.MsgFlagDeleted, mask)
}

func TestSASL(t *testing.T) {
	assert.Equal(t, "=", EncodeSASL(nil))
	assert.Equal(t, "AGZvbwBiYXI=", EncodeSASL([]byte("\x00foo\x00bar")))

	b, err := DecodeSASL("=")
	require.NoError(t, err)
	assert.NotNil(t, b)
	assert.Empty(t, b)

	b, err = DecodeSASL("AGZvbwBiYXI=")
	require.NoError(t, err)
	assert.Equal(t, "\x00foo\x00bar", string(b))

	_, err = DecodeSASL("!!")
	assert.Error(t, err)
}

func TestDeflateConn(t *testing.T) {
	client, server := net.Pipe()

	conn, err := NewDeflateConn(client, nil, flate.DefaultCompression)
	require.NoError(t, err)

	var g errgroup.Group
	g.Go(func() error {
		r := bufio.NewReader(flate.NewReader(server))
		line, err := r.ReadString('\n')
		if err != nil {
			return err
		}
		assert.Equal(t, "A1 NOOP\r\n", line)

		w, err := flate.NewWriter(server, flate.DefaultCompression)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, "A1 OK done\r\n"); err != nil {
			return err
		}
		return w.Flush()
	})

	_, err = io.WriteString(conn, "A1 NOOP\r\n")
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "A1 OK done\r\n", line)

	require.NoError(t, g.Wait())
	server.Close()
	conn.Close()
}
