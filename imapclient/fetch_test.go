package imapclient_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/imapclient"
)

func envelopeLine(seqNum, uid int, subject string) string {
	return fmt.Sprintf(`* %v FETCH (UID %v FLAGS (\Seen) ENVELOPE ("Mon, 7 Feb 1994 21:52:25 -0800" %v `+
		`(("Alice" NIL "alice" "example.org")) NIL NIL (("Bob" NIL "bob" "example.org")) NIL NIL NIL "<%v@example.org>"))`,
		seqNum, uid, subject, uid)
}

func TestClient_FetchRange(t *testing.T) {
	events := make(chan imapclient.Event, 4)
	tc := newSelectedConn(t, &imapclient.Options{Events: events}, nil, 3, func(s *scriptServer) {
		tag := s.expect("FETCH 1:3 (UID FLAGS ENVELOPE)")
		s.reply(tag,
			envelopeLine(1, 101, `"=?utf-8?q?caf=C3=A9?="`),
			envelopeLine(2, 102, "NIL"),
			envelopeLine(3, 103, `"hello"`),
		)
		tag = s.expect("FETCH 2 (UID RFC822.SIZE)")
		s.reply(tag, "* 2 FETCH (UID 102 RFC822.SIZE 2048)")
	})
	defer tc.close()
	<-events

	// the range is clamped to the mailbox
	require.NoError(t, tc.client.FetchRange(1, 10, imap.FetchEnvelope|imap.FetchFlags))

	msg := tc.client.Message(1)
	require.NotNil(t, msg)
	assert.Equal(t, imap.FetchUID|imap.FetchEnvelope, msg.Available)
	assert.Equal(t, uint32(101), msg.UID)
	assert.Equal(t, "café", msg.Envelope.Subject)
	assert.Equal(t, "<101@example.org>", msg.Envelope.MessageID)
	require.Len(t, msg.Envelope.From, 1)
	assert.Equal(t, "alice@example.org", msg.Envelope.From[0].Addr())
	assert.Equal(t, "Alice", msg.Envelope.From[0].DisplayName())
	assert.Equal(t, 1994, msg.Envelope.Date.Year())
	assert.Equal(t, "", tc.client.Message(2).Envelope.Subject)
	assert.Equal(t, imap.FlagState{Known: imap.MsgFlagsAll, Value: imap.MsgFlagSeen}, tc.client.FlagState(3))

	// solicited flags do not produce events
	assert.Len(t, events, 0)

	// everything is cached
	require.NoError(t, tc.client.FetchSet([]uint32{3, 1}, imap.FetchEnvelope|imap.FetchFlags))

	require.NoError(t, tc.client.FetchSet([]uint32{2}, imap.FetchEnvelope|imap.FetchSize))
	assert.Equal(t, int64(2048), tc.client.Message(2).Size)
}

func TestClient_FetchSet_headerFields(t *testing.T) {
	refs := "References: <a@example.org> <b@example.org>\r\nList-Post: <mailto:list@example.org>\r\n\r\n"
	contentType := "Content-Type: text/plain; charset=utf-8\r\n\r\n"

	tc := newSelectedConn(t, nil, nil, 1, func(s *scriptServer) {
		tag := s.expect("FETCH 1 (UID BODY.PEEK[HEADER.FIELDS (REFERENCES LIST-POST)])")
		s.writeLine(fmt.Sprintf("* 1 FETCH (UID 7 BODY[HEADER.FIELDS (REFERENCES LIST-POST)] {%v}", len(refs)))
		s.writeLine(refs + ")")
		s.reply(tag)

		tag = s.expect("FETCH 1 (UID BODY.PEEK[HEADER.FIELDS (CONTENT-TYPE)])")
		s.writeLine(fmt.Sprintf("* 1 FETCH (BODY[HEADER.FIELDS (\"Content-Type\")] {%v}", len(contentType)))
		s.writeLine(contentType + ")")
		s.reply(tag)
	})
	defer tc.close()

	require.NoError(t, tc.client.FetchSet([]uint32{1}, imap.FetchReferences|imap.FetchListPost))
	msg := tc.client.Message(1)
	assert.Equal(t, []string{"a@example.org", "b@example.org"}, msg.References())
	assert.Equal(t, "<mailto:list@example.org>", msg.ListPost())
	assert.Equal(t, "", msg.ContentType())

	// the FETCH response omits the UID, it is not requested again
	require.NoError(t, tc.client.FetchSet([]uint32{1}, imap.FetchContentType|imap.FetchReferences))
	msg = tc.client.Message(1)
	assert.Equal(t, "text/plain", msg.ContentType())
	assert.Equal(t, []string{"a@example.org", "b@example.org"}, msg.References())
	assert.Equal(t, uint32(7), msg.UID)
}

func TestClient_FetchBody(t *testing.T) {
	header := "Subject: hi\r\n\r\n"

	tc := newSelectedConn(t, nil, []string{"BINARY"}, 2, func(s *scriptServer) {
		tag := s.expect("FETCH 2 BINARY.PEEK[1]")
		s.writeLine("* 2 FETCH (UID 9 BINARY[1] ~{5}")
		s.writeLine("hello)")
		s.reply(tag)

		tag = s.expect("FETCH 2 BODY.PEEK[HEADER]")
		s.writeLine(fmt.Sprintf("* 2 FETCH (BODY[HEADER] {%v}", len(header)))
		s.writeLine(header + ")")
		s.reply(tag)

		tag = s.expect("FETCH 1 BINARY.PEEK[2]")
		s.reply(tag)
	})
	defer tc.close()

	var buf bytes.Buffer
	require.NoError(t, tc.client.FetchBody(2, "1", &buf))
	assert.Equal(t, "hello", buf.String())

	buf.Reset()
	require.NoError(t, tc.client.FetchBody(2, "HEADER", &buf))
	assert.Equal(t, header, buf.String())

	err := tc.client.FetchBody(1, "2", &buf)
	var protoErr *imap.ProtocolError
	assert.ErrorAs(t, err, &protoErr)
}

func TestClient_unsolicited(t *testing.T) {
	events := make(chan imapclient.Event, 8)
	tc := newSelectedConn(t, &imapclient.Options{Events: events}, nil, 3, func(s *scriptServer) {
		tag := s.expect("FETCH 1:3 UID")
		s.reply(tag,
			"* 1 FETCH (UID 11)",
			"* 2 FETCH (UID 12)",
			"* 3 FETCH (UID 13)",
		)
		tag = s.expect("NOOP")
		s.reply(tag,
			"* 2 EXPUNGE",
			"* 3 EXISTS",
			`* 1 FETCH (FLAGS (\Flagged))`,
		)
		tag = s.expect("SEARCH UID 99")
		s.reply(tag, "* SEARCH")
	})
	defer tc.close()
	<-events

	require.NoError(t, tc.client.FetchRange(1, 3, imap.FetchUID))
	require.NoError(t, tc.client.Noop())

	require.Len(t, events, 3)
	assert.Equal(t, &imapclient.ExpungedEvent{SeqNum: 2}, <-events)
	assert.Equal(t, &imapclient.CountChangedEvent{NumMessages: 3}, <-events)
	assert.Equal(t, &imapclient.FlagsChangedEvent{SeqNums: []uint32{1}}, <-events)

	// message 3 was renumbered, the new message 3 is not cached
	assert.Equal(t, uint32(13), tc.client.Message(2).UID)
	assert.Nil(t, tc.client.Message(3))
	assert.Equal(t, uint32(3), tc.client.ViewLen())
	assert.Equal(t, imap.FlagState{Known: imap.MsgFlagsAll, Value: imap.MsgFlagFlagged}, tc.client.FlagState(1))

	seqNum, err := tc.client.UIDToSeqNum(13)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), seqNum)

	seqNum, err = tc.client.UIDToSeqNum(99)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), seqNum)
}
