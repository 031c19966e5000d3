package imapclient_test

import (
	"bufio"
	"compress/flate"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/emersion/go-imapsession/imapclient"
)

const testTimeout = 5 * time.Second

// scriptServer is the server end of a test connection. Scripts read the
// commands sent by the client and write canned responses. The first
// mismatch is recorded and closes the connection.
type scriptServer struct {
	conn net.Conn
	br   *bufio.Reader
	w    io.Writer
	err  error
}

func (s *scriptServer) fail(format string, args ...interface{}) {
	if s.err == nil {
		s.err = fmt.Errorf(format, args...)
	}
	s.conn.Close()
}

// readLine reads one line sent by the client, without the CRLF.
func (s *scriptServer) readLine() string {
	if s.err != nil {
		return ""
	}
	line, err := s.br.ReadString('\n')
	if err != nil {
		s.fail("failed to read line: %v", err)
		return ""
	}
	return strings.TrimSuffix(line, "\r\n")
}

// readN reads n raw bytes, e.g. literal data.
func (s *scriptServer) readN(n int) string {
	if s.err != nil {
		return ""
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(s.br, b); err != nil {
		s.fail("failed to read %v bytes: %v", n, err)
		return ""
	}
	return string(b)
}

// expect reads a command and checks it against want, without the tag. The
// tag is returned.
func (s *scriptServer) expect(want string) string {
	line := s.readLine()
	if s.err != nil {
		return ""
	}
	tag, cmd, _ := strings.Cut(line, " ")
	if cmd != want {
		s.fail("got command %q, want %q", cmd, want)
		return ""
	}
	return tag
}

// expectLine reads a line which is not a command, e.g. the rest of a
// command after a literal.
func (s *scriptServer) expectLine(want string) {
	if line := s.readLine(); s.err == nil && line != want {
		s.fail("got line %q, want %q", line, want)
	}
}

// writeLine writes lines to the client, adding CRLF.
func (s *scriptServer) writeLine(lines ...string) {
	for _, line := range lines {
		if s.err != nil {
			return
		}
		if _, err := io.WriteString(s.w, line+"\r\n"); err != nil {
			s.fail("failed to write %q: %v", line, err)
		}
	}
}

// startDeflate compresses both directions from now on.
func (s *scriptServer) startDeflate() {
	fw, err := flate.NewWriter(s.conn, flate.DefaultCompression)
	if err != nil {
		s.fail("failed to create flate writer: %v", err)
		return
	}
	s.br = bufio.NewReader(flate.NewReader(s.br))
	s.w = flushWriter{fw}
}

type flushWriter struct {
	*flate.Writer
}

func (w flushWriter) Write(b []byte) (int, error) {
	n, err := w.Writer.Write(b)
	if err != nil {
		return n, err
	}
	return n, w.Writer.Flush()
}

// reply answers a command: untagged lines first, then the tagged OK.
func (s *scriptServer) reply(tag string, untagged ...string) {
	s.writeLine(untagged...)
	s.writeLine(tag + " OK done")
}

// expectEOF checks that the client sends nothing more before closing the
// connection.
func (s *scriptServer) expectEOF() {
	if s.err != nil {
		return
	}
	line, err := s.br.ReadString('\n')
	if err == nil {
		s.fail("unexpected command %q", strings.TrimSuffix(line, "\r\n"))
	}
}

type testConn struct {
	t      *testing.T
	client *imapclient.Client
	group  *errgroup.Group
	server *scriptServer
}

// newTestConn starts a client against a scripted server. The server writes
// greeting, then runs script; once script returns, any further command
// fails the test.
func newTestConn(t *testing.T, options *imapclient.Options, greeting string, script func(s *scriptServer)) *testConn {
	t.Helper()

	if options == nil {
		options = &imapclient.Options{}
	}
	if options.Timeout == 0 {
		options.Timeout = testTimeout
	}

	clientConn, serverConn := net.Pipe()
	server := &scriptServer{conn: serverConn, br: bufio.NewReader(serverConn), w: serverConn}

	var g errgroup.Group
	g.Go(func() error {
		defer serverConn.Close()
		server.writeLine(greeting)
		script(server)
		server.expectEOF()
		return server.err
	})

	client, err := imapclient.New(clientConn, options)
	require.NoError(t, err)
	return &testConn{t: t, client: client, group: &g, server: server}
}

// close closes the client and checks the server script.
func (tc *testConn) close() {
	tc.t.Helper()
	tc.client.Close()
	require.NoError(tc.t, tc.group.Wait())
}

// preauthGreeting is a PREAUTH greeting with the given extra capabilities.
func preauthGreeting(caps ...string) string {
	return "* PREAUTH [CAPABILITY " + strings.Join(append([]string{"IMAP4rev1"}, caps...), " ") + "] ready"
}

// selectINBOX scripts the SELECT of an INBOX with n messages.
func selectINBOX(s *scriptServer, n int) {
	tag := s.expect("SELECT INBOX")
	s.reply(tag,
		"* FLAGS (\\Answered \\Flagged \\Deleted \\Seen \\Draft)",
		fmt.Sprintf("* %v EXISTS", n),
		"* 0 RECENT",
		"* OK [UIDVALIDITY 42] UIDs valid",
		"* OK [UIDNEXT 1000] next UID",
	)
}

// newSelectedConn returns a connection with INBOX holding n messages
// selected.
func newSelectedConn(t *testing.T, options *imapclient.Options, caps []string, n int, script func(s *scriptServer)) *testConn {
	t.Helper()
	tc := newTestConn(t, options, preauthGreeting(caps...), func(s *scriptServer) {
		selectINBOX(s, n)
		script(s)
	})
	require.NoError(t, tc.client.Select("INBOX"))
	return tc
}
