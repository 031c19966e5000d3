package imapclient_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/imapclient"
)

func TestClient_Select(t *testing.T) {
	events := make(chan imapclient.Event, 4)
	tc := newTestConn(t, &imapclient.Options{Events: events}, preauthGreeting("ACL"), func(s *scriptServer) {
		tag := s.expect("SELECT INBOX")
		s.reply(tag,
			"* FLAGS (\\Answered \\Flagged \\Deleted \\Seen \\Draft)",
			"* 172 EXISTS",
			"* 1 RECENT",
			"* OK [UNSEEN 12] Message 12 is first unseen",
			"* OK [UIDVALIDITY 3857529045] UIDs valid",
			"* OK [UIDNEXT 4392] Predicted next UID",
			"* OK [PERMANENTFLAGS (\\Deleted \\Seen \\*)] Limited",
		)
		tag = s.expect("MYRIGHTS INBOX")
		s.reply(tag, "* MYRIGHTS INBOX lrswi")
	})
	defer tc.close()

	require.NoError(t, tc.client.Select("inbox"))
	assert.Equal(t, imap.ConnStateSelected, tc.client.State())

	mbox := tc.client.Mailbox()
	require.NotNil(t, mbox)
	assert.Equal(t, "INBOX", mbox.Name)
	assert.Equal(t, uint32(172), mbox.NumMessages)
	assert.Equal(t, uint32(1), mbox.NumRecent)
	assert.Equal(t, uint32(12), mbox.FirstUnseen)
	assert.Equal(t, uint32(3857529045), mbox.UIDValidity)
	assert.Equal(t, uint32(4392), mbox.UIDNext)
	assert.Equal(t, []imap.Flag{imap.FlagDeleted, imap.FlagSeen, imap.FlagWildcard}, mbox.PermanentFlags)
	assert.Len(t, mbox.Flags, 5)
	assert.Equal(t, imap.RightSet("lrswi"), mbox.Rights)
	assert.False(t, mbox.ReadOnly)

	require.Len(t, events, 1)
	assert.Equal(t, &imapclient.CountChangedEvent{NumMessages: 172}, <-events)
}

func TestClient_Select_idempotent(t *testing.T) {
	tc := newSelectedConn(t, nil, nil, 3, func(s *scriptServer) {})
	defer tc.close()

	// no command is sent for the selected mailbox
	require.NoError(t, tc.client.Select("INBOX"))
	require.NoError(t, tc.client.Select("inbox"))
	assert.Equal(t, imap.ConnStateSelected, tc.client.State())
}

func TestClient_Select_idempotentRights(t *testing.T) {
	tc := newTestConn(t, nil, preauthGreeting("ACL"), func(s *scriptServer) {
		tag := s.expect("SELECT INBOX")
		s.reply(tag, "* 3 EXISTS")
		tag = s.expect("MYRIGHTS INBOX")
		s.reply(tag, "* MYRIGHTS INBOX lr")
		tag = s.expect("MYRIGHTS INBOX")
		s.reply(tag, "* MYRIGHTS INBOX lrs")
	})
	defer tc.close()

	require.NoError(t, tc.client.Select("INBOX"))
	require.NoError(t, tc.client.Select("INBOX"))
	assert.Equal(t, imap.RightSet("lrs"), tc.client.Mailbox().Rights)
}

func TestClient_Select_failed(t *testing.T) {
	events := make(chan imapclient.Event, 4)
	tc := newSelectedConn(t, &imapclient.Options{Events: events}, nil, 3, func(s *scriptServer) {
		tag := s.expect("SELECT Missing")
		s.writeLine(tag + " NO [NONEXISTENT] no such mailbox")
	})
	defer tc.close()
	<-events

	err := tc.client.Select("Missing")
	var imapErr *imap.Error
	require.ErrorAs(t, err, &imapErr)
	assert.Equal(t, imap.ConnStateAuthenticated, tc.client.State())
	assert.Nil(t, tc.client.Mailbox())
	assert.Equal(t, uint32(0), tc.client.ViewLen())
	assert.Equal(t, &imapclient.CountChangedEvent{}, <-events)
}

func TestClient_Examine(t *testing.T) {
	tc := newTestConn(t, nil, preauthGreeting(), func(s *scriptServer) {
		tag := s.expect("EXAMINE Archive")
		s.writeLine("* 2 EXISTS")
		s.writeLine(tag + " OK [READ-ONLY] done")
		tag = s.expect("CLOSE")
		s.reply(tag)
	})
	defer tc.close()

	require.NoError(t, tc.client.Examine("Archive"))
	assert.True(t, tc.client.Mailbox().ReadOnly)

	// no UNSELECT, but CLOSE does not expunge read-only mailboxes
	require.NoError(t, tc.client.Unselect())
	assert.Equal(t, imap.ConnStateAuthenticated, tc.client.State())
}

func TestClient_Unselect(t *testing.T) {
	t.Run("capability", func(t *testing.T) {
		tc := newSelectedConn(t, nil, []string{"UNSELECT"}, 1, func(s *scriptServer) {
			tag := s.expect("UNSELECT")
			s.reply(tag)
		})
		defer tc.close()

		require.NoError(t, tc.client.Unselect())
		assert.Nil(t, tc.client.Mailbox())
	})

	t.Run("unsupported", func(t *testing.T) {
		tc := newSelectedConn(t, nil, nil, 1, func(s *scriptServer) {})
		defer tc.close()

		err := tc.client.Unselect()
		assert.ErrorIs(t, err, imap.ErrCapability)
		assert.Equal(t, imap.ConnStateSelected, tc.client.State())
	})
}

func TestClient_CloseMailbox(t *testing.T) {
	tc := newSelectedConn(t, nil, nil, 1, func(s *scriptServer) {
		tag := s.expect("CLOSE")
		s.reply(tag)
	})
	defer tc.close()

	require.NoError(t, tc.client.CloseMailbox())
	assert.Equal(t, imap.ConnStateAuthenticated, tc.client.State())
}
