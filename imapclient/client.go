// Package imapclient implements an IMAP client session engine.
//
// A Client owns one connection. Every method takes the connection lock,
// writes one or more tagged commands and reads responses until their
// completion, dispatching untagged data to the flag and message caches on
// the way. Methods block until the server has replied; a Client can be
// shared between goroutines, calls are serialized.
//
// # Charset decoding
//
// By default, envelope text is decoded with the charsets known to
// github.com/emersion/go-message/charset. A different decoder can be set
// with Options.WordDecoder.
package imapclient

import (
	"bufio"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-sasl"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/internal/imapwire"
)

// Options contains options for Client.
type Options struct {
	// TLS configuration used by DialTLS and STARTTLS. ServerName defaults to
	// the dialed host.
	TLSConfig *tls.Config
	// Deadline applied to each network read and write. Zero means no
	// deadline.
	Timeout time.Duration
	// Raw ingress and egress data will be written to this writer, if any
	DebugWriter io.Writer
	// Logger receives diagnostics. Nothing is logged if nil.
	Logger *slog.Logger
	// Events receives mailbox notifications. Sends never block: an event is
	// dropped if the channel is full.
	Events chan<- Event
	// Credentials is called once per authentication mechanism tried. ok is
	// false if the user cancelled.
	Credentials func(mechanism string) (username, secret string, ok bool)
	// AcceptCertificate is called when the server certificate fails
	// verification. The connection is only kept if it returns true. If nil,
	// such certificates are rejected.
	AcceptCertificate func(cert *x509.Certificate, verifyErr error) bool
	// AuthMode restricts Authenticate to a single mechanism.
	AuthMode AuthMode
	// Mechanisms tried by Authenticate, in order. DefaultAuthMethods is
	// used if empty.
	AuthMethods []AuthMethod
	// GSSAPI creates the Kerberos mechanism for AuthModeGSSAPI.
	GSSAPI func(host string) (sasl.Client, error)
	// ClientSideSort allows Sort to sort locally when the server lacks SORT.
	ClientSideSort bool
	// IdleAfter starts IDLE once a selected connection has been unused for
	// this long. Zero disables IDLE.
	IdleAfter time.Duration
	// Decoder for RFC 2047 encoded words in envelopes
	WordDecoder *mime.WordDecoder
}

func (options *Options) wrapReadWriter(rw io.ReadWriter) io.ReadWriter {
	if options.DebugWriter == nil {
		return rw
	}
	return struct {
		io.Reader
		io.Writer
	}{
		Reader: io.TeeReader(rw, options.DebugWriter),
		Writer: io.MultiWriter(rw, options.DebugWriter),
	}
}

func (options *Options) decodeText(s string) (string, error) {
	wordDecoder := options.WordDecoder
	if wordDecoder == nil {
		wordDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}
	}
	out, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return s, err
	}
	return out, nil
}

func (options *Options) logger() *slog.Logger {
	if options.Logger != nil {
		return options.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Client is an IMAP client.
type Client struct {
	options Options
	logger  *slog.Logger
	host    string

	connMutex sync.Mutex // protects conn
	conn      net.Conn
	closed    atomic.Bool
	state     atomic.Int32

	br  *bufio.Reader
	bw  *bufio.Writer
	dec *imapwire.Decoder
	enc *imapwire.Encoder

	// mutex is the connection lock. Everything below is protected by it.
	mutex       sync.Mutex
	caps        imap.CapSet
	capsKnown   bool
	cmdTag      uint64
	pendingCmds []command
	literalCmd  command
	lastMsg     string
	loggingOut  bool
	mailbox     *mailboxState
	idle        idleState
}

// New creates a new IMAP client and reads the server greeting.
//
// A nil options pointer is equivalent to a zero options value.
func New(conn net.Conn, options *Options) (*Client, error) {
	if options == nil {
		options = &Options{}
	}

	client := &Client{
		options: *options,
		logger:  options.logger(),
	}
	if addr := conn.RemoteAddr(); addr != nil {
		client.host, _, _ = net.SplitHostPort(addr.String())
	}
	client.setConn(conn)
	client.setState(imap.ConnStateConnected)

	client.mutex.Lock()
	err := client.readGreeting()
	client.mutex.Unlock()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

// Dial connects to an IMAP server without encryption.
func Dial(address string, options *Options) (*Client, error) {
	conn, err := dialer(options).Dial("tcp", address)
	if err != nil {
		return nil, err
	}
	return newWithHost(conn, address, options)
}

// DialTLS connects to an IMAP server with implicit TLS.
func DialTLS(address string, options *Options) (*Client, error) {
	if options == nil {
		options = &Options{}
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	conn, err := tls.DialWithDialer(dialer(options), "tcp", address, options.tlsConfig(host))
	if err != nil {
		return nil, err
	}
	return newWithHost(conn, address, options)
}

// DialStartTLS connects to an IMAP server and upgrades the connection with
// STARTTLS.
func DialStartTLS(address string, options *Options) (*Client, error) {
	client, err := Dial(address, options)
	if err != nil {
		return nil, err
	}
	if err := client.StartTLS(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func dialer(options *Options) *net.Dialer {
	d := &net.Dialer{}
	if options != nil {
		d.Timeout = options.Timeout
	}
	return d
}

func newWithHost(conn net.Conn, address string, options *Options) (*Client, error) {
	client, err := New(conn, options)
	if err != nil {
		return nil, err
	}
	if host, _, err := net.SplitHostPort(address); err == nil {
		client.host = host
	}
	return client, nil
}

func (c *Client) setConn(conn net.Conn) {
	c.connMutex.Lock()
	c.conn = conn
	c.connMutex.Unlock()

	rw := c.options.wrapReadWriter(conn)
	c.br = bufio.NewReader(rw)
	c.bw = bufio.NewWriter(rw)
	c.dec = imapwire.NewDecoder(c.br, imapwire.ConnSideClient)
	c.enc = imapwire.NewEncoder(c.bw, imapwire.ConnSideClient)
	c.enc.WaitContinuation = c.waitLiteralContinuation
	c.updateEncoder()
}

// Close immediately closes the connection. It can be called from any
// goroutine: a method blocked on the network returns a severed error.
func (c *Client) Close() error {
	c.closed.Store(true)
	c.setState(imap.ConnStateDisconnected)
	return c.closeConn()
}

func (c *Client) closeConn() error {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()
	return c.conn.Close()
}

// State returns the current connection state.
func (c *Client) State() imap.ConnState {
	return imap.ConnState(c.state.Load())
}

func (c *Client) setState(state imap.ConnState) {
	if c.closed.Load() {
		state = imap.ConnStateDisconnected
	}
	c.state.Store(int32(state))
}

// LastMessage returns the text of the last status response received from the
// server.
func (c *Client) LastMessage() string {
	c.acquire()
	defer c.release()
	return c.lastMsg
}

// acquire takes the connection lock and stops IDLE. It must be paired with
// release.
func (c *Client) acquire() {
	c.mutex.Lock()
	c.stopIdle()
}

func (c *Client) release() {
	c.scheduleIdle()
	c.mutex.Unlock()
}

// checkState returns a StateError if the connection is in none of the given
// states.
func (c *Client) checkState(op string, want ...imap.ConnState) error {
	state := c.State()
	for _, s := range want {
		if s == state {
			return nil
		}
	}
	return &imap.StateError{Op: op, Have: state, Want: want}
}

func (c *Client) setDeadline() {
	if c.options.Timeout <= 0 {
		return
	}
	c.connMutex.Lock()
	c.conn.SetDeadline(time.Now().Add(c.options.Timeout))
	c.connMutex.Unlock()
}

// sever tears the connection down after a fatal error. Every pending command
// fails with the returned error.
func (c *Client) sever(err error) error {
	var severed *imap.SeveredError
	if !errors.As(err, &severed) {
		severed = &imap.SeveredError{Err: err}
	}
	if c.State() != imap.ConnStateDisconnected {
		c.logger.Error("connection severed", "err", severed.Err)
	}
	c.setState(imap.ConnStateDisconnected)
	c.closeConn()

	for _, cmd := range c.pendingCmds {
		base := cmd.base()
		base.done = true
		base.err = severed
	}
	c.pendingCmds = nil
	if c.mailbox != nil {
		c.mailbox = nil
		c.emit(&CountChangedEvent{})
	}
	return severed
}

// beginCommand starts sending a command to the server.
//
// The command name is written after the tag. The caller must call
// commandEncoder.end.
func (c *Client) beginCommand(name string, cmd command) *commandEncoder {
	c.cmdTag++
	base := cmd.base()
	base.tag = fmt.Sprintf("T%v", c.cmdTag)
	base.name = name
	c.pendingCmds = append(c.pendingCmds, cmd)
	c.literalCmd = cmd

	c.setDeadline()
	enc := &commandEncoder{
		Encoder: c.enc,
		client:  c,
		cmd:     cmd,
	}
	enc.Atom(base.tag).SP().Atom(name)
	return enc
}

// exec sends a command and waits for its completion. args writes the
// command arguments, if any.
func (c *Client) exec(cmd command, name string, args func(enc *commandEncoder)) error {
	enc := c.beginCommand(name, cmd)
	if args != nil {
		args(enc)
	}
	if err := enc.end(); err != nil {
		return err
	}
	return c.wait(cmd)
}

func (c *Client) deletePendingCmd(cmd command) {
	for i, pending := range c.pendingCmds {
		if pending == cmd {
			c.pendingCmds = append(c.pendingCmds[:i], c.pendingCmds[i+1:]...)
			return
		}
	}
}

func (c *Client) findPendingCmdByTag(tag string) command {
	for _, cmd := range c.pendingCmds {
		if cmd.base().tag == tag {
			return cmd
		}
	}
	return nil
}

func findPendingCmdByType[T interface{}](c *Client) T {
	for _, cmd := range c.pendingCmds {
		if cmd, ok := cmd.(T); ok {
			return cmd
		}
	}

	var cmd T
	return cmd
}

// findPendingCmdFunc returns the first pending command of type T for which
// f returns true.
func findPendingCmdFunc[T command](c *Client, f func(cmd T) bool) T {
	for _, cmd := range c.pendingCmds {
		if cmd, ok := cmd.(T); ok && f(cmd) {
			return cmd
		}
	}

	var cmd T
	return cmd
}

// wait reads responses until cmd has completed.
func (c *Client) wait(cmd command) error {
	base := cmd.base()
	for !base.done {
		cont, err := c.readResponse()
		if err != nil {
			return err
		}
		if cont != nil {
			c.logger.Warn("ignoring unexpected continuation request", "text", *cont)
		}
	}
	return base.err
}

// waitContinuation reads responses until the server sends a continuation
// request, and returns its text. If cmd completes first, its error is
// returned.
func (c *Client) waitContinuation(cmd command) (string, error) {
	base := cmd.base()
	for !base.done {
		cont, err := c.readResponse()
		if err != nil {
			return "", err
		}
		if cont != nil {
			return *cont, nil
		}
	}
	if base.err != nil {
		return "", base.err
	}
	return "", &imap.ProtocolError{Err: fmt.Errorf("%v completed without continuation request", base.name)}
}

func (c *Client) waitLiteralContinuation() error {
	if c.literalCmd == nil {
		return fmt.Errorf("imapclient: literal outside of a command")
	}
	_, err := c.waitContinuation(c.literalCmd)
	return err
}

// byeError is returned by the response reader when the server closes the
// connection.
type byeError struct {
	text string
}

func (err *byeError) Error() string {
	return fmt.Sprintf("server said BYE: %v", err.text)
}

// readResponse reads and dispatches one response. cont is non-nil if the
// response was a continuation request.
//
// The returned error is always a severed error. A malformed response is
// skipped and fails the pending commands with a protocol error.
func (c *Client) readResponse() (cont *string, err error) {
	c.setDeadline()
	return c.dispatchResponse()
}

// dispatchResponse is readResponse without a read deadline.
func (c *Client) dispatchResponse() (cont *string, err error) {
	cont, err = c.readResponseLine()
	if err == nil {
		return cont, nil
	}

	var bye *byeError
	if errors.As(err, &bye) || c.dec.IOError() {
		return nil, c.sever(err)
	}

	if discardErr := c.dec.DiscardLine(); discardErr != nil {
		return nil, c.sever(discardErr)
	}
	c.logger.Warn("discarding malformed response", "err", err)
	protoErr := &imap.ProtocolError{Err: err}
	for _, cmd := range c.pendingCmds {
		if base := cmd.base(); base.protoErr == nil {
			base.protoErr = protoErr
		}
	}
	return nil, nil
}

func (c *Client) readResponseLine() (*string, error) {
	if c.dec.Special('+') {
		var text string
		if c.dec.SP() {
			c.dec.Text(&text)
		}
		if !c.dec.ExpectCRLF() {
			return nil, fmt.Errorf("in continue-req: %w", c.dec.Err())
		}
		return &text, nil
	}

	var tag, typ string
	if !c.dec.Expect(c.dec.Special('*') || c.dec.Atom(&tag), "'*' or atom") {
		return nil, fmt.Errorf("in response: cannot read tag: %w", c.dec.Err())
	}
	if !c.dec.ExpectSP() {
		return nil, fmt.Errorf("in response: %w", c.dec.Err())
	}
	if !c.dec.ExpectAtom(&typ) {
		return nil, fmt.Errorf("in response: cannot read type: %w", c.dec.Err())
	}

	if tag != "" {
		if err := c.readResponseTagged(tag, typ); err != nil {
			return nil, fmt.Errorf("in response-tagged: %w", err)
		}
		return nil, nil
	}
	if err := c.readResponseData(typ); err != nil {
		var bye *byeError
		if errors.As(err, &bye) {
			return nil, err
		}
		return nil, fmt.Errorf("in response-data: %w", err)
	}
	return nil, nil
}

func (c *Client) readGreeting() error {
	c.setDeadline()
	var typ string
	if !c.dec.ExpectSpecial('*') || !c.dec.ExpectSP() || !c.dec.ExpectAtom(&typ) {
		return c.sever(fmt.Errorf("in greeting: %w", c.dec.Err()))
	}
	var rt respText
	if c.dec.SP() {
		if err := readRespText(c.dec, &rt); err != nil {
			return c.sever(fmt.Errorf("in greeting: %w", err))
		}
	}
	if !c.dec.ExpectCRLF() {
		return c.sever(fmt.Errorf("in greeting: %w", c.dec.Err()))
	}
	c.applyRespText(&rt, nil)

	switch imap.StatusResponseType(strings.ToUpper(typ)) {
	case imap.StatusResponseTypeOK:
		c.setState(imap.ConnStateConnected)
	case imap.StatusResponseTypePreAuth:
		c.setState(imap.ConnStateAuthenticated)
	case imap.StatusResponseTypeBye:
		return c.sever(&byeError{text: rt.text})
	default:
		return c.sever(fmt.Errorf("in greeting: unexpected response type %q", typ))
	}
	return nil
}

func (c *Client) readResponseTagged(tag, typ string) error {
	cmd := c.findPendingCmdByTag(tag)
	if cmd == nil {
		return fmt.Errorf("received tagged response with unknown tag %q", tag)
	}

	var rt respText
	if c.dec.SP() {
		if err := readRespText(c.dec, &rt); err != nil {
			return err
		}
	}
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}

	c.applyRespText(&rt, cmd)

	base := cmd.base()
	c.deletePendingCmd(cmd)
	base.done = true
	switch respType := imap.StatusResponseType(strings.ToUpper(typ)); respType {
	case imap.StatusResponseTypeOK:
		base.err = base.protoErr
	case imap.StatusResponseTypeNo, imap.StatusResponseTypeBad:
		base.err = &imap.Error{Type: respType, Code: rt.code, Text: rt.text}
	default:
		base.err = &imap.ProtocolError{Err: fmt.Errorf("expected OK, NO or BAD status condition, but got %v", typ)}
	}
	return nil
}

func (c *Client) readResponseData(typ string) error {
	// number SP "EXISTS" / number SP "RECENT" / ...
	var num uint32
	if typ[0] >= '0' && typ[0] <= '9' {
		v, err := strconv.ParseUint(typ, 10, 32)
		if err != nil {
			return err
		}

		num = uint32(v)
		if !c.dec.ExpectSP() || !c.dec.ExpectAtom(&typ) {
			return c.dec.Err()
		}
	}

	switch typ = strings.ToUpper(typ); typ {
	case "OK", "NO", "BAD", "PREAUTH", "BYE": // resp-cond-state, resp-cond-bye
		return c.handleStatusResp(imap.StatusResponseType(typ))
	case "CAPABILITY":
		return c.handleCapability()
	case "FLAGS":
		return c.handleFlags()
	case "EXISTS":
		return c.handleExists(num)
	case "RECENT":
		return c.handleRecent(num)
	case "EXPUNGE":
		return c.handleExpunge(num)
	case "FETCH":
		return c.handleFetch(num)
	case "LIST", "LSUB":
		return c.handleList()
	case "STATUS":
		return c.handleStatus()
	case "SEARCH":
		return c.handleSearch()
	case "ESEARCH":
		return c.handleESearch()
	case "SORT":
		return c.handleSort()
	case "THREAD":
		return c.handleThread()
	case "QUOTA":
		return c.handleQuota()
	case "QUOTAROOT":
		return c.handleQuotaRoot()
	case "MYRIGHTS":
		return c.handleMyRights()
	case "ACL":
		return c.handleGetACL()
	default:
		c.logger.Debug("ignoring unknown response", "type", typ)
		return c.dec.DiscardLine()
	}
}

func (c *Client) handleStatusResp(typ imap.StatusResponseType) error {
	var rt respText
	if c.dec.SP() {
		if err := readRespText(c.dec, &rt); err != nil {
			return err
		}
	}
	if !c.dec.ExpectCRLF() {
		return c.dec.Err()
	}

	if typ == imap.StatusResponseTypeBye {
		if c.loggingOut {
			return nil
		}
		return &byeError{text: rt.text}
	}
	c.applyRespText(&rt, nil)
	return nil
}

// respText is a parsed resp-text, with the arguments of the response codes
// the client understands.
type respText struct {
	code imap.ResponseCode
	text string

	caps        imap.CapSet
	flags       []imap.Flag
	num         uint32
	uidValidity uint32
	srcUIDs     []uint32
	dstUIDs     []uint32
}

func readRespText(dec *imapwire.Decoder, rt *respText) error {
	if dec.Special('[') { // resp-text-code
		var code string
		if !dec.ExpectAtom(&code) {
			return fmt.Errorf("in resp-text-code: %w", dec.Err())
		}
		rt.code = imap.ResponseCode(strings.ToUpper(code))
		var err error
		switch rt.code {
		case imap.ResponseCodeCapability:
			rt.caps, err = readCapabilities(dec)
		case imap.ResponseCodePermanentFlags:
			if !dec.ExpectSP() {
				return dec.Err()
			}
			rt.flags, err = readFlagList(dec)
		case imap.ResponseCodeUIDNext, imap.ResponseCodeUIDValidity, imap.ResponseCodeUnseen:
			if !dec.ExpectSP() || !dec.ExpectNumber(&rt.num) {
				return dec.Err()
			}
		case imap.ResponseCodeAppendUID:
			if !dec.ExpectSP() || !dec.ExpectNumber(&rt.uidValidity) || !dec.ExpectSP() || !dec.ExpectNumSet(&rt.dstUIDs) {
				return dec.Err()
			}
		case imap.ResponseCodeCopyUID:
			if !dec.ExpectSP() || !dec.ExpectNumber(&rt.uidValidity) ||
				!dec.ExpectSP() || !dec.ExpectNumSet(&rt.srcUIDs) ||
				!dec.ExpectSP() || !dec.ExpectNumSet(&rt.dstUIDs) {
				return dec.Err()
			}
		default: // [SP 1*<any TEXT-CHAR except "]">]
			if dec.SP() {
				dec.Skip(']')
			}
		}
		if err != nil {
			return fmt.Errorf("in resp-text-code: %w", err)
		}
		if !dec.ExpectSpecial(']') {
			return fmt.Errorf("in resp-text: %w", dec.Err())
		}
		dec.SP()
	}
	dec.Text(&rt.text)
	return dec.Err()
}

// applyRespText records the side effects of a status response. cmd is the
// command completed by a tagged response, nil for untagged responses.
func (c *Client) applyRespText(rt *respText, cmd command) {
	if rt.text != "" {
		c.lastMsg = rt.text
	}

	switch rt.code {
	case imap.ResponseCodeAlert:
		c.logger.Warn("server alert", "text", rt.text)
		c.emit(&AlertEvent{Text: rt.text})
	case imap.ResponseCodeCapability:
		c.setCaps(rt.caps)
	case imap.ResponseCodePermanentFlags:
		if data := c.selectData(); data != nil {
			data.PermanentFlags = rt.flags
		}
	case imap.ResponseCodeUIDNext:
		if data := c.selectData(); data != nil {
			data.UIDNext = rt.num
		}
	case imap.ResponseCodeUIDValidity:
		if data := c.selectData(); data != nil {
			data.UIDValidity = rt.num
		}
	case imap.ResponseCodeUnseen:
		if data := c.selectData(); data != nil {
			data.FirstUnseen = rt.num
		}
	case imap.ResponseCodeReadOnly, imap.ResponseCodeReadWrite:
		if data := c.selectData(); data != nil {
			data.ReadOnly = rt.code == imap.ResponseCodeReadOnly
		}
	case imap.ResponseCodeAppendUID:
		cmd, _ := cmd.(*appendCommand)
		if cmd != nil {
			cmd.data.UIDValidity = rt.uidValidity
			cmd.data.UIDs = append(cmd.data.UIDs, rt.dstUIDs...)
		}
	case imap.ResponseCodeCopyUID:
		cmd, _ := cmd.(*copyCommand)
		if cmd != nil {
			cmd.data = imap.CopyData{
				UIDValidity: rt.uidValidity,
				SourceUIDs:  rt.srcUIDs,
				DestUIDs:    rt.dstUIDs,
			}
		}
	}
}

// selectData returns the mailbox data being filled by a pending SELECT, or
// the data of the selected mailbox.
func (c *Client) selectData() *imap.SelectedMailbox {
	if cmd := findPendingCmdByType[*selectCommand](c); cmd != nil {
		return &cmd.data
	}
	if c.mailbox != nil {
		return &c.mailbox.data
	}
	return nil
}

// Noop sends a NOOP command. Pending mailbox updates are processed.
func (c *Client) Noop() error {
	c.acquire()
	defer c.release()

	if err := c.checkState("NOOP", imap.ConnStateConnected, imap.ConnStateAuthenticated, imap.ConnStateSelected); err != nil {
		return err
	}
	return c.exec(&commandBase{}, "NOOP", nil)
}

// Logout sends a LOGOUT command and closes the connection.
//
// This command informs the server that the client is done with the connection.
func (c *Client) Logout() error {
	c.acquire()
	defer c.release()

	if c.State() == imap.ConnStateDisconnected {
		return nil
	}

	c.loggingOut = true
	err := c.exec(&commandBase{}, "LOGOUT", nil)
	c.mailbox = nil
	if closeErr := c.Close(); err == nil && closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
		err = closeErr
	}
	// the server may close the connection right after BYE
	if errors.Is(err, imap.ErrSevered) {
		err = nil
	}
	return err
}

type commandEncoder struct {
	*imapwire.Encoder
	client *Client
	cmd    command
}

// end ends an outgoing command.
//
// A CRLF is written and the encoder is flushed. If a synchronizing literal
// was rejected by the server, the rest of the command is not sent and the
// rejection is returned.
func (ce *commandEncoder) end() error {
	c := ce.client
	err := ce.Encoder.CRLF()
	ce.Encoder.Reset()
	c.literalCmd = nil
	if err == nil {
		return nil
	}
	if base := ce.cmd.base(); base.done {
		return base.err
	}
	return c.sever(err)
}

// command is an interface for IMAP commands.
//
// Commands are represented by the commandBase type, but can be extended by
// other types (e.g. selectCommand) collecting untagged data.
type command interface {
	base() *commandBase
}

// commandBase is a basic IMAP command.
type commandBase struct {
	tag  string
	name string
	done bool
	err  error
	// malformed response received while the command was pending
	protoErr error
}

func (cmd *commandBase) base() *commandBase {
	return cmd
}
