package main

import (
	"bufio"
	"bytes"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/imapclient"
	"github.com/emersion/go-imapsession/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSearchCriteria_keys(t *testing.T) {
	c := searchCriteria{
		from:    "alice",
		subject: "report",
		headers: []string{"X-Label: work"},
		unseen:  true,
		flagged: true,
		larger:  1024,
		smaller: 1 << 20,
		since:   "2024-03-01",
	}
	keys, err := c.keys()
	require.NoError(t, err)
	assert.Equal(t, `FROM "alice" SUBJECT "report" HEADER X-Label "work" UNSEEN FLAGGED LARGER 1024 NOT LARGER 1048576 SINCE 01-Mar-2024`, keys.String())

	needed, ok := keys[3:5].FlagsOnly()
	assert.True(t, ok)
	assert.Equal(t, imap.MsgFlagSeen|imap.MsgFlagFlagged, needed)
}

func TestSearchCriteria_invalid(t *testing.T) {
	for name, c := range map[string]searchCriteria{
		"seen and unseen": {seen: true, unseen: true},
		"header":          {headers: []string{"no-colon"}},
		"date":            {before: "01/02/2024"},
	} {
		_, err := c.keys()
		assert.Error(t, err, name)
	}

	keys, err := (&searchCriteria{}).keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestParseSortKey(t *testing.T) {
	key, err := parseSortKey("subject")
	require.NoError(t, err)
	assert.Equal(t, imap.SortKeySubject, key)

	key, err = parseSortKey("seq")
	require.NoError(t, err)
	assert.Equal(t, imap.SortKeySeqNum, key)

	_, err = parseSortKey("thread")
	assert.Error(t, err)
}

func TestParseStatusItems(t *testing.T) {
	items, err := parseStatusItems([]string{"messages", " unseen", "SIZE"})
	require.NoError(t, err)
	assert.Equal(t, []imap.StatusItem{imap.StatusItemNumMessages, imap.StatusItemNumUnseen, imap.StatusItemSize}, items)

	_, err = parseStatusItems([]string{"HIGHESTMODSEQ"})
	assert.Error(t, err)
}

func TestClientOptions(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Address: "mail.example.org:993", TLS: config.TLSModeImplicit, Timeout: 30 * time.Second, InsecureSkipVerify: true},
		Auth:   config.AuthConfig{Mode: config.AuthModeDefault, Username: "alice", Password: "secret", Methods: []string{"PLAIN", "LOGIN-COMMAND"}},
		Client: config.ClientConfig{ClientSideSort: true, IdleAfter: time.Minute},
	}
	options := clientOptions(cfg, discardLogger(), nil)

	assert.Equal(t, 30*time.Second, options.Timeout)
	assert.Equal(t, imapclient.AuthModeDefault, options.AuthMode)
	assert.Equal(t, []imapclient.AuthMethod{imapclient.AuthPlain, imapclient.AuthLoginCommand}, options.AuthMethods)
	assert.True(t, options.ClientSideSort)
	assert.Equal(t, time.Minute, options.IdleAfter)
	assert.Nil(t, options.DebugWriter)
	assert.NotNil(t, options.AcceptCertificate)

	username, secret, ok := options.Credentials("PLAIN")
	assert.True(t, ok)
	assert.Equal(t, "alice", username)
	assert.Equal(t, "secret", secret)

	username, secret, ok = options.Credentials("ANONYMOUS")
	assert.True(t, ok)
	assert.Equal(t, "alice", username)
	assert.Empty(t, secret)

	cfg.Auth.Password = ""
	cfg.Auth.Mode = config.AuthModeAnonymous
	options = clientOptions(cfg, discardLogger(), nil)
	assert.Equal(t, imapclient.AuthModeAnonymous, options.AuthMode)
	_, _, ok = options.Credentials("CRAM-MD5")
	assert.False(t, ok)
}

func TestPrintListData(t *testing.T) {
	var buf bytes.Buffer
	printListData(&buf, &imap.ListData{Attrs: []imap.MailboxAttr{imap.MailboxAttrHasNoChildren}, Delim: '/', Mailbox: "Entwürfe"})
	printListData(&buf, &imap.ListData{Mailbox: "INBOX"})
	assert.Equal(t, "(\\HasNoChildren) / Entwürfe\n() NIL INBOX\n", buf.String())
}

func TestPrintStatusData(t *testing.T) {
	messages, unseen := uint32(12), uint32(3)
	var buf bytes.Buffer
	printStatusData(&buf, &imap.StatusData{Mailbox: "INBOX", NumMessages: &messages, NumUnseen: &unseen, UIDNext: 44})
	assert.Equal(t, "INBOX messages=12 unseen=3 uidnext=44\n", buf.String())
}

func TestPrintQuotaRoot(t *testing.T) {
	var buf bytes.Buffer
	printQuotaRoot(&buf, &imap.QuotaRootData{
		Mailbox: "INBOX",
		Roots:   []string{""},
		Quotas: []imap.QuotaData{{
			Root: "",
			Resources: map[imap.QuotaResourceType]imap.QuotaResourceData{
				imap.QuotaResourceStorage: {Usage: 10, Limit: 512},
				imap.QuotaResourceMessage: {Usage: 3, Limit: 100},
			},
		}},
	})
	assert.Equal(t, "INBOX: roots [\"\"]\n MESSAGE 3/100\n STORAGE 10/512\n", buf.String())
}

func TestPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	printMessage(&buf, 2, &imap.MessageAttrs{
		UID:  7,
		Size: 2048,
		Envelope: &imap.Envelope{
			Date:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			Subject: "café",
			From:    []imap.Address{{Name: "Alice", Mailbox: "alice", Host: "example.org"}},
		},
	})
	printMessage(&buf, 5, nil)
	assert.Equal(t, "2\t7\t2024-03-01\t2048\tAlice\tcafé\n5\n", buf.String())
}

func TestRootCmd_version(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "imapctl dev")
}

func TestRootCmd_invalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imapctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  tls: ssl\n"), 0600))

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--config", path, "status", "INBOX"})
	err := cmd.Execute()
	assert.ErrorContains(t, err, "server.tls must be one of")
}

func TestSession_closeStopsEventLogger(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	go func() {
		defer serverConn.Close()
		io.WriteString(serverConn, "* PREAUTH [CAPABILITY IMAP4rev1] ready\r\n")
		br := bufio.NewReader(serverConn)
		for {
			line, err := br.ReadString('\n')
			if err != nil || strings.Contains(line, "LOGOUT") {
				return
			}
		}
	}()

	events := make(chan imapclient.Event, 16)
	c, err := imapclient.New(clientConn, &imapclient.Options{Events: events})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		logEvents(discardLogger(), events)
		close(done)
	}()

	s := &session{Client: c, events: events}
	s.close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event logger still running after close")
	}
	assert.Equal(t, imap.ConnStateDisconnected, c.State())
}
