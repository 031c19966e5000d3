package imapclient_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emersion/go-imapsession"
	"github.com/emersion/go-imapsession/imapclient"
)

func TestClient_Sort(t *testing.T) {
	tc := newSelectedConn(t, nil, []string{"SORT"}, 5, func(s *scriptServer) {
		tag := s.expect("SORT (SUBJECT) UTF-8 1,3,5")
		s.reply(tag, "* SORT 5 1 3")
		tag = s.expect("SORT (REVERSE DATE) UTF-8 1:2")
		s.reply(tag, "* SORT 2")
	})
	defer tc.close()

	nums, err := tc.client.Sort([]uint32{5, 3, 3, 1}, imap.SortKeySubject, false)
	require.NoError(t, err)
	assert.Equal(t, []uint32{5, 1, 3}, nums)

	nums, err = tc.client.Sort([]uint32{2, 1}, imap.SortKeyDate, true)
	assert.ErrorIs(t, err, imap.ErrSortMismatch)
	assert.Equal(t, []uint32{1, 2}, nums)

	// no command for mailbox order
	nums, err = tc.client.Sort([]uint32{4, 2}, imap.SortKeySeqNum, true)
	require.NoError(t, err)
	assert.Equal(t, []uint32{4, 2}, nums)
}

func TestClient_Sort_unsupported(t *testing.T) {
	tc := newSelectedConn(t, nil, nil, 5, func(s *scriptServer) {})
	defer tc.close()

	_, err := tc.client.Sort([]uint32{1, 2}, imap.SortKeyFrom, false)
	assert.ErrorIs(t, err, imap.ErrCapability)
	assert.ErrorIs(t, tc.client.SortView(imap.SortKeyFrom, false, nil), imap.ErrCapability)
}

func TestClient_Sort_clientSide(t *testing.T) {
	options := &imapclient.Options{ClientSideSort: true}
	tc := newSelectedConn(t, options, nil, 3, func(s *scriptServer) {
		tag := s.expect("FETCH 1:3 (UID ENVELOPE)")
		s.reply(tag,
			fmt.Sprintf(`* 1 FETCH %v`, envelopeAtt(103, `"b"`)),
			fmt.Sprintf(`* 2 FETCH %v`, envelopeAtt(101, "NIL")),
			fmt.Sprintf(`* 3 FETCH %v`, envelopeAtt(102, `"A"`)),
		)
	})
	defer tc.close()

	nums, err := tc.client.Sort([]uint32{1, 2, 3}, imap.SortKeySubject, false)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 3, 1}, nums)

	// UIDs are cached already
	nums, err = tc.client.Sort([]uint32{1, 2, 3}, imap.SortKeyArrival, true)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 3, 2}, nums)

	require.NoError(t, tc.client.SortView(imap.SortKeySubject, true, nil))
	assert.Equal(t, uint32(3), tc.client.ViewLen())
	assert.Equal(t, uint32(1), tc.client.ViewSeqNum(1))
	assert.Equal(t, uint32(2), tc.client.ViewSeqNum(3))
	assert.Equal(t, uint32(0), tc.client.ViewSeqNum(4))
}

func envelopeAtt(uid int, subject string) string {
	return fmt.Sprintf(`(UID %v ENVELOPE (NIL %v NIL NIL NIL NIL NIL NIL NIL NIL))`, uid, subject)
}

func TestClient_SortView(t *testing.T) {
	tc := newSelectedConn(t, nil, []string{"SORT"}, 4, func(s *scriptServer) {
		tag := s.expect("SORT (DATE) UTF-8 ALL")
		s.reply(tag, "* SORT 4 2 1 3")
		tag = s.expect("SORT (SUBJECT) UTF-8 UNSEEN")
		s.reply(tag, "* SORT 3")
		tag = s.expect("SORT (DATE) UTF-8 ALL")
		s.reply(tag, "* SORT 1 2")
	})
	defer tc.close()

	require.NoError(t, tc.client.SortView(imap.SortKeyDate, false, nil))
	assert.Equal(t, uint32(4), tc.client.ViewLen())
	assert.Equal(t, uint32(4), tc.client.ViewSeqNum(1))
	assert.Equal(t, uint32(3), tc.client.ViewSeqNum(4))

	unseen := imap.SearchKeys{&imap.SearchFlag{Flag: imap.MsgFlagSeen, Negated: true}}
	require.NoError(t, tc.client.SortView(imap.SortKeySubject, false, unseen))
	assert.Equal(t, uint32(1), tc.client.ViewLen())
	assert.Equal(t, uint32(3), tc.client.ViewSeqNum(1))

	// an incomplete result drops the view
	assert.ErrorIs(t, tc.client.SortView(imap.SortKeyDate, false, nil), imap.ErrSortMismatch)
	assert.Equal(t, uint32(4), tc.client.ViewLen())
	assert.Equal(t, uint32(2), tc.client.ViewSeqNum(2))

	// mailbox order in reverse is computed locally
	require.NoError(t, tc.client.SortView(imap.SortKeySeqNum, true, nil))
	assert.Equal(t, uint32(4), tc.client.ViewSeqNum(1))
	require.NoError(t, tc.client.SortView(imap.SortKeySeqNum, false, nil))
	assert.Equal(t, uint32(1), tc.client.ViewSeqNum(1))
}

func TestClient_Thread(t *testing.T) {
	tc := newSelectedConn(t, nil, []string{"THREAD=REFERENCES"}, 96, func(s *scriptServer) {
		tag := s.expect("THREAD REFERENCES UTF-8 ALL")
		s.reply(tag, "* THREAD (2)(3 6 (4 23)(44 7 96))((8)(9))")
	})
	defer tc.close()

	threads, err := tc.client.Thread(imap.ThreadReferences, nil)
	require.NoError(t, err)
	want := []imap.Thread{
		{SeqNum: 2},
		{SeqNum: 3, Children: []imap.Thread{
			{SeqNum: 6, Children: []imap.Thread{
				{SeqNum: 4, Children: []imap.Thread{{SeqNum: 23}}},
				{SeqNum: 44, Children: []imap.Thread{
					{SeqNum: 7, Children: []imap.Thread{{SeqNum: 96}}},
				}},
			}},
		}},
		{Children: []imap.Thread{{SeqNum: 8}, {SeqNum: 9}}},
	}
	assert.Equal(t, want, threads)

	var walked []uint32
	threads[1].Walk(func(seqNum uint32, depth int) {
		walked = append(walked, seqNum)
	})
	assert.Equal(t, []uint32{3, 6, 4, 23, 44, 7, 96}, walked)

	_, err = tc.client.Thread(imap.ThreadOrderedSubject, nil)
	assert.ErrorIs(t, err, imap.ErrCapability)
}
