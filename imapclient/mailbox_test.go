package imapclient_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersion/go-imapsession"
)

func TestClient_List(t *testing.T) {
	tc := newTestConn(t, nil, preauthGreeting(), func(s *scriptServer) {
		tag := s.expect(`LIST "" "%"`)
		s.reply(tag,
			`* LIST (\HasNoChildren) "/" INBOX`,
			`* LIST (\HasNoChildren \Drafts) "/" "Entw&APw-rfe"`,
			`* LIST (\Noselect) NIL Public`,
		)
	})
	defer tc.close()

	mailboxes, err := tc.client.List("", "%")
	require.NoError(t, err)
	require.Len(t, mailboxes, 3)
	assert.Equal(t, &imap.ListData{
		Attrs:   []imap.MailboxAttr{imap.MailboxAttrHasNoChildren, imap.MailboxAttrDrafts},
		Delim:   '/',
		Mailbox: "Entwürfe",
	}, mailboxes[1])
	assert.Equal(t, "INBOX", mailboxes[0].Mailbox)
	assert.Equal(t, rune(0), mailboxes[2].Delim)
}

func TestClient_mailboxCommands(t *testing.T) {
	tc := newTestConn(t, nil, preauthGreeting(), func(s *scriptServer) {
		tag := s.expect("CREATE Entw&APw-rfe")
		s.reply(tag)
		tag = s.expect("RENAME Entw&APw-rfe Drafts")
		s.reply(tag)
		tag = s.expect("SUBSCRIBE Drafts")
		s.reply(tag)
		tag = s.expect("DELETE INBOX")
		s.writeLine(tag + " NO cannot delete INBOX")
	})
	defer tc.close()

	require.NoError(t, tc.client.Create("Entwürfe"))
	require.NoError(t, tc.client.Rename("Entwürfe", "Drafts"))
	require.NoError(t, tc.client.Subscribe("Drafts"))

	err := tc.client.Delete("inbox")
	var imapErr *imap.Error
	require.ErrorAs(t, err, &imapErr)
	assert.Equal(t, imap.StatusResponseTypeNo, imapErr.Type)
	assert.Equal(t, "cannot delete INBOX", imapErr.Text)

	assert.ErrorIs(t, tc.client.Create(""), imap.ErrEmptyInput)
}

func TestClient_Status(t *testing.T) {
	tc := newTestConn(t, nil, preauthGreeting(), func(s *scriptServer) {
		tag := s.expect("STATUS INBOX (MESSAGES UNSEEN UIDNEXT)")
		s.reply(tag, "* STATUS INBOX (MESSAGES 17 UNSEEN 3 UIDNEXT 4392)")
		tag = s.expect("STATUS Archive (MESSAGES)")
		s.reply(tag, "* STATUS Other (MESSAGES 1)")
	})
	defer tc.close()

	items := []imap.StatusItem{imap.StatusItemNumMessages, imap.StatusItemNumUnseen, imap.StatusItemUIDNext}
	data, err := tc.client.Status("inbox", items)
	require.NoError(t, err)
	assert.Equal(t, "INBOX", data.Mailbox)
	require.NotNil(t, data.NumMessages)
	assert.Equal(t, uint32(17), *data.NumMessages)
	require.NotNil(t, data.NumUnseen)
	assert.Equal(t, uint32(3), *data.NumUnseen)
	assert.Equal(t, uint32(4392), data.UIDNext)
	assert.Nil(t, data.NumRecent)

	// a response for another mailbox is not an answer
	_, err = tc.client.Status("Archive", []imap.StatusItem{imap.StatusItemNumMessages})
	var protoErr *imap.ProtocolError
	assert.ErrorAs(t, err, &protoErr)

	_, err = tc.client.Status("INBOX", []imap.StatusItem{imap.StatusItemSize})
	assert.ErrorIs(t, err, imap.ErrCapability)
}

func TestClient_GetQuotaRoot(t *testing.T) {
	tc := newTestConn(t, nil, preauthGreeting("QUOTA"), func(s *scriptServer) {
		tag := s.expect("GETQUOTAROOT INBOX")
		s.reply(tag,
			`* QUOTAROOT INBOX "" user`,
			`* QUOTA "" (STORAGE 10 512)`,
			`* QUOTA user (STORAGE 10 1024 MESSAGE 5 100)`,
		)
	})
	defer tc.close()

	data, err := tc.client.GetQuotaRoot("INBOX")
	require.NoError(t, err)
	assert.Equal(t, "INBOX", data.Mailbox)
	assert.Equal(t, []string{"", "user"}, data.Roots)
	require.Len(t, data.Quotas, 2)
	assert.Equal(t, imap.QuotaResourceData{Usage: 10, Limit: 512}, data.Quotas[0].Resources[imap.QuotaResourceStorage])
	assert.Equal(t, "user", data.Quotas[1].Root)
	assert.Equal(t, imap.QuotaResourceData{Usage: 5, Limit: 100}, data.Quotas[1].Resources[imap.QuotaResourceMessage])
}

func TestClient_ACL(t *testing.T) {
	tc := newTestConn(t, nil, preauthGreeting("ACL"), func(s *scriptServer) {
		tag := s.expect("GETACL Shared")
		s.reply(tag, `* ACL Shared alice lrswipkxtecda "bob smith" lr`)
		tag = s.expect("MYRIGHTS Shared")
		s.reply(tag, "* MYRIGHTS Shared lr")
	})
	defer tc.close()

	acl, err := tc.client.GetACL("Shared")
	require.NoError(t, err)
	assert.Equal(t, map[imap.RightsIdentifier]imap.RightSet{
		"alice":     "lrswipkxtecda",
		"bob smith": "lr",
	}, acl.Rights)

	rights, err := tc.client.MyRights("Shared")
	require.NoError(t, err)
	assert.Equal(t, &imap.MyRightsData{Mailbox: "Shared", Rights: "lr"}, rights)
}

func TestClient_ACL_unsupported(t *testing.T) {
	tc := newTestConn(t, nil, preauthGreeting(), func(s *scriptServer) {})
	defer tc.close()

	_, err := tc.client.MyRights("INBOX")
	assert.ErrorIs(t, err, imap.ErrCapability)
	_, err = tc.client.GetQuotaRoot("INBOX")
	assert.ErrorIs(t, err, imap.ErrCapability)
}

func TestClient_Expunge(t *testing.T) {
	tc := newSelectedConn(t, nil, nil, 3, func(s *scriptServer) {
		tag := s.expect("EXPUNGE")
		s.reply(tag, "* 2 EXPUNGE", "* 2 EXPUNGE")
	})
	defer tc.close()

	seqNums, err := tc.client.Expunge()
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 2}, seqNums)
	assert.Equal(t, uint32(1), tc.client.ViewLen())
	assert.Equal(t, uint32(1), tc.client.Mailbox().NumMessages)
}
