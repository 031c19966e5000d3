package imapclient_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersion/go-imapsession"
)

func appendMessages(bodies ...string) []imap.AppendMessage {
	l := make([]imap.AppendMessage, len(bodies))
	for i, body := range bodies {
		l[i] = imap.AppendMessage{Size: int64(len(body)), Body: strings.NewReader(body)}
	}
	return l
}

func TestClient_Append_multi(t *testing.T) {
	greeting := preauthGreeting("MULTIAPPEND", "UIDPLUS", "LITERAL+")
	tc := newTestConn(t, nil, greeting, func(s *scriptServer) {
		tag := s.expect(`APPEND Drafts (\Seen) {5+}`)
		s.expectLine("hello {5+}")
		s.expectLine("world")
		s.writeLine(tag + " OK [APPENDUID 42 7:8] done")
	})
	defer tc.close()

	msgs := appendMessages("hello", "world")
	msgs[0].Flags = imap.MsgFlagSeen
	data, err := tc.client.Append("Drafts", msgs)
	require.NoError(t, err)
	assert.Equal(t, &imap.AppendData{UIDValidity: 42, UIDs: []uint32{7, 8}}, data)
}

func TestClient_Append_pipelined(t *testing.T) {
	greeting := preauthGreeting("UIDPLUS", "LITERAL+")
	tc := newTestConn(t, nil, greeting, func(s *scriptServer) {
		tag1 := s.expect("APPEND INBOX {5+}")
		s.expectLine("hello")
		tag2 := s.expect("APPEND INBOX {5+}")
		s.expectLine("world")
		s.writeLine(tag1 + " OK [APPENDUID 42 7] done")
		s.writeLine(tag2 + " OK [APPENDUID 42 8] done")
	})
	defer tc.close()

	data, err := tc.client.Append("inbox", appendMessages("hello", "world"))
	require.NoError(t, err)
	assert.Equal(t, &imap.AppendData{UIDValidity: 42, UIDs: []uint32{7, 8}}, data)
}

func TestClient_Append_sync(t *testing.T) {
	tc := newTestConn(t, nil, preauthGreeting(), func(s *scriptServer) {
		tag := s.expect("APPEND Sent {5}")
		s.writeLine("+ go ahead")
		s.expectLine("hello")
		s.reply(tag)

		tag = s.expect("APPEND Sent {5}")
		s.writeLine("+ go ahead")
		s.expectLine("world")
		s.reply(tag)
	})
	defer tc.close()

	data, err := tc.client.Append("Sent", appendMessages("hello", "world"))
	require.NoError(t, err)
	assert.Empty(t, data.UIDs)
}

func TestClient_Append_rejectedLiteral(t *testing.T) {
	tc := newTestConn(t, nil, preauthGreeting(), func(s *scriptServer) {
		tag := s.expect("APPEND Sent {5}")
		s.writeLine(tag + " NO [OVERQUOTA] mailbox is full")
		tag = s.expect("NOOP")
		s.reply(tag)
	})
	defer tc.close()

	_, err := tc.client.Append("Sent", appendMessages("hello"))
	assert.ErrorIs(t, err, imap.ErrOverQuota)

	// the connection is still in sync
	require.NoError(t, tc.client.Noop())
}

func TestClient_Copy(t *testing.T) {
	tc := newSelectedConn(t, nil, []string{"UIDPLUS"}, 5, func(s *scriptServer) {
		tag := s.expect("COPY 1:3 Archive")
		s.writeLine(tag + " OK [COPYUID 42 101:103 201:203] done")
	})
	defer tc.close()

	data, err := tc.client.Copy([]uint32{3, 1, 2}, "Archive")
	require.NoError(t, err)
	assert.Equal(t, &imap.CopyData{
		UIDValidity: 42,
		SourceUIDs:  []uint32{101, 102, 103},
		DestUIDs:    []uint32{201, 202, 203},
	}, data)
}
