package imap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMsgFlags(t *testing.T) {
	mask := MsgFlagsFromList([]Flag{"\\seen", FlagDeleted, "$Junk", FlagRecent})
	assert.Equal(t, MsgFlagSeen|MsgFlagDeleted|MsgFlagRecent, mask)
	assert.Equal(t, []Flag{FlagSeen, FlagDeleted, FlagRecent}, mask.Flags())
	assert.Equal(t, `(\Seen \Deleted \Recent)`, mask.String())
}

func TestFlagStateInvariant(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	var state FlagState
	for i := 0; i < 2000; i++ {
		mask := MsgFlags(rnd.Intn(int(MsgFlagsAll) + 1))
		switch rnd.Intn(4) {
		case 0:
			state.Set(mask, rnd.Intn(2) == 0)
		case 1:
			state.Replace(MsgFlags(rnd.Intn(256)))
		case 2:
			state.Forget(mask)
		case 3:
			state.Set(mask, true)
			assert.True(t, state.Matches(mask, 0))
		}
		assert.Zero(t, state.Value&^state.Known, "iteration %v: %+v", i, state)
	}
}

func TestFlagStateMatches(t *testing.T) {
	state := FlagState{}
	assert.False(t, state.Matches(MsgFlagSeen, 0))
	assert.Equal(t, MsgFlagSeen|MsgFlagDeleted, state.Missing(MsgFlagSeen|MsgFlagDeleted))

	state.Set(MsgFlagSeen, true)
	state.Set(MsgFlagDeleted, false)
	assert.True(t, state.Matches(MsgFlagSeen, MsgFlagDeleted))
	assert.False(t, state.Matches(MsgFlagSeen, MsgFlagFlagged))
	assert.Zero(t, state.Missing(MsgFlagSeen|MsgFlagDeleted))
}

func TestCapSet(t *testing.T) {
	set, unknown := ParseCapSet([]string{"IMAP4rev1", "auth=plain", "LITERAL+", "X-GOOGLE", "APPENDLIMIT=1000"})
	assert.Equal(t, []string{"X-GOOGLE"}, unknown)
	assert.True(t, set.Has(CapIMAP4rev1))
	assert.True(t, set.Has(CapAuthPlain))
	assert.True(t, set.Has(CapLiteralMinus))
	assert.True(t, set.Has(CapAppendLimit))
	assert.False(t, set.Has(CapAuthCRAMMD5))
	assert.False(t, set.Has(CapIMAP4rev1|CapAuthPlain))
	assert.Equal(t, 4, set.Len())

	rev2 := NewCapSet(CapIMAP4rev2)
	assert.True(t, rev2.Has(CapUIDPlus))
	assert.True(t, rev2.Has(CapESearch))
	assert.False(t, rev2.Has(CapSort))
}

func TestConnStateString(t *testing.T) {
	assert.Equal(t, "selected", ConnStateSelected.String())
	assert.Equal(t, "disconnected", ConnStateDisconnected.String())
}
