package imap

import (
	"math/bits"
	"strings"
)

// Cap is a single capability known to the engine. Capabilities form a
// bitset, see CapSet.
type Cap uint64

// Capabilities understood by the engine.
//
// See: https://www.iana.org/assignments/imap-capabilities/
const (
	CapIMAP4rev1 Cap = 1 << iota // RFC 3501
	CapIMAP4rev2                 // RFC 9051

	CapStartTLS      // RFC 3501
	CapLoginDisabled // RFC 3501

	CapAuthPlain     // RFC 4616
	CapAuthLogin     // draft-murchison-sasl-login
	CapAuthCRAMMD5   // RFC 2195
	CapAuthAnonymous // RFC 4505
	CapAuthGSSAPI    // RFC 4752
	CapSASLIR        // RFC 4959

	CapACL                  // RFC 4314
	CapQuota                // RFC 9208
	CapSort                 // RFC 5256
	CapThreadOrderedSubject // RFC 5256
	CapThreadReferences     // RFC 5256
	CapUIDPlus              // RFC 4315
	CapMultiAppend          // RFC 3502
	CapCompressDeflate      // RFC 4978
	CapLiteralPlus          // RFC 7888
	CapLiteralMinus         // RFC 7888
	CapBinary               // RFC 3516
	CapESearch              // RFC 4731
	CapUnselect             // RFC 3691
	CapIdle                 // RFC 2177
	CapNamespace            // RFC 2342
	CapChildren             // RFC 3348
	CapID                   // RFC 2971
	CapEnable               // RFC 5161
	CapCondStore            // RFC 7162
	CapMove                 // RFC 6851
	CapSpecialUse           // RFC 6154
	CapListExtended         // RFC 5258
	CapLoginReferrals       // RFC 2221
	CapMailboxReferrals     // RFC 2193
	CapSearchRes            // RFC 5182
	CapUTF8Accept           // RFC 6855
	CapStatusSize           // RFC 8438
	CapAppendLimit          // RFC 7889
	capEnd
)

var capNames = map[string]Cap{
	"IMAP4REV1":             CapIMAP4rev1,
	"IMAP4REV2":             CapIMAP4rev2,
	"STARTTLS":              CapStartTLS,
	"LOGINDISABLED":         CapLoginDisabled,
	"AUTH=PLAIN":            CapAuthPlain,
	"AUTH=LOGIN":            CapAuthLogin,
	"AUTH=CRAM-MD5":         CapAuthCRAMMD5,
	"AUTH=ANONYMOUS":        CapAuthAnonymous,
	"AUTH=GSSAPI":           CapAuthGSSAPI,
	"SASL-IR":               CapSASLIR,
	"ACL":                   CapACL,
	"QUOTA":                 CapQuota,
	"SORT":                  CapSort,
	"THREAD=ORDEREDSUBJECT": CapThreadOrderedSubject,
	"THREAD=REFERENCES":     CapThreadReferences,
	"UIDPLUS":               CapUIDPlus,
	"MULTIAPPEND":           CapMultiAppend,
	"COMPRESS=DEFLATE":      CapCompressDeflate,
	"LITERAL+":              CapLiteralPlus,
	"LITERAL-":              CapLiteralMinus,
	"BINARY":                CapBinary,
	"ESEARCH":               CapESearch,
	"UNSELECT":              CapUnselect,
	"IDLE":                  CapIdle,
	"NAMESPACE":             CapNamespace,
	"CHILDREN":              CapChildren,
	"ID":                    CapID,
	"ENABLE":                CapEnable,
	"CONDSTORE":             CapCondStore,
	"MOVE":                  CapMove,
	"SPECIAL-USE":           CapSpecialUse,
	"LIST-EXTENDED":         CapListExtended,
	"LOGIN-REFERRALS":       CapLoginReferrals,
	"MAILBOX-REFERRALS":     CapMailboxReferrals,
	"SEARCHRES":             CapSearchRes,
	"UTF8=ACCEPT":           CapUTF8Accept,
	"STATUS=SIZE":           CapStatusSize,
	"APPENDLIMIT":           CapAppendLimit,
}

// ParseCap looks up a capability by its wire name. The lookup is
// case-insensitive. Unknown capabilities return false.
func ParseCap(name string) (Cap, bool) {
	name = strings.ToUpper(name)
	if c, ok := capNames[name]; ok {
		return c, true
	}
	// APPENDLIMIT=<n> still advertises the extension
	if strings.HasPrefix(name, "APPENDLIMIT=") {
		return CapAppendLimit, true
	}
	return 0, false
}

// String returns the wire name of the capability.
func (c Cap) String() string {
	for name, v := range capNames {
		if v == c {
			return name
		}
	}
	return "UNKNOWN"
}

// CapSet is a set of capabilities, stored as a bitset.
type CapSet uint64

// NewCapSet returns a set holding the given capabilities.
func NewCapSet(caps ...Cap) CapSet {
	var set CapSet
	for _, c := range caps {
		set.Add(c)
	}
	return set
}

// ParseCapSet builds a set from wire names. Names the engine does not know
// are returned separately.
func ParseCapSet(names []string) (set CapSet, unknown []string) {
	for _, name := range names {
		if c, ok := ParseCap(name); ok {
			set.Add(c)
		} else {
			unknown = append(unknown, name)
		}
	}
	return set, unknown
}

// Add inserts c into the set. Values that are not a single known capability
// are ignored.
func (set *CapSet) Add(c Cap) {
	if !c.valid() {
		return
	}
	*set |= CapSet(c)
}

func (c Cap) valid() bool {
	return c != 0 && c < capEnd && bits.OnesCount64(uint64(c)) == 1
}

// Has checks whether a capability is supported.
//
// Some capabilities are implied by others, as such Has may return true even if
// the capability is not in the set.
func (set CapSet) Has(c Cap) bool {
	if !c.valid() {
		return false
	}
	if set&CapSet(c) != 0 {
		return true
	}

	if c == CapLiteralMinus && set&CapSet(CapLiteralPlus) != 0 {
		return true
	}

	if set&CapSet(CapIMAP4rev2) != 0 {
		switch c {
		case CapNamespace, CapUnselect, CapUIDPlus, CapESearch, CapSearchRes,
			CapEnable, CapIdle, CapSASLIR, CapListExtended, CapMove,
			CapLiteralMinus, CapStatusSize:
			return true
		}
	}

	return false
}

// Len returns the number of capabilities in the set.
func (set CapSet) Len() int {
	return bits.OnesCount64(uint64(set))
}

// Caps returns the capabilities in the set, lowest bit first.
func (set CapSet) Caps() []Cap {
	var l []Cap
	for c := Cap(1); c < capEnd; c <<= 1 {
		if set&CapSet(c) != 0 {
			l = append(l, c)
		}
	}
	return l
}

// String implements fmt.Stringer.
func (set CapSet) String() string {
	l := set.Caps()
	names := make([]string, len(l))
	for i, c := range l {
		names[i] = c.String()
	}
	return strings.Join(names, " ")
}

// ThreadAlgorithms returns the list of supported threading algorithms.
func (set CapSet) ThreadAlgorithms() []ThreadAlgorithm {
	var l []ThreadAlgorithm
	if set.Has(CapThreadReferences) {
		l = append(l, ThreadReferences)
	}
	if set.Has(CapThreadOrderedSubject) {
		l = append(l, ThreadOrderedSubject)
	}
	return l
}

// CompressDeflate is the only COMPRESS algorithm (RFC 4978), advertised as
// CapCompressDeflate.
const CompressDeflate = "DEFLATE"
