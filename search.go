package imap

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// SearchKey is a single search term. The concrete types are *SearchNot,
// *SearchOr, *SearchFlag, *SearchString, *SearchDate, *SearchSize and
// *SearchSequence.
type SearchKey interface {
	searchKey()
}

var (
	_ SearchKey = (*SearchNot)(nil)
	_ SearchKey = (*SearchOr)(nil)
	_ SearchKey = (*SearchFlag)(nil)
	_ SearchKey = (*SearchString)(nil)
	_ SearchKey = (*SearchDate)(nil)
	_ SearchKey = (*SearchSize)(nil)
	_ SearchKey = (*SearchSequence)(nil)
)

// SearchKeys is a list of search terms. A message matches the list if it
// matches all of the terms.
type SearchKeys []SearchKey

// SearchNot groups a list of terms. When Negated is set (the usual case) it
// matches messages that do not match the list.
type SearchNot struct {
	Negated bool
	Keys    SearchKeys
}

// NewSearchNot returns a term matching messages that do not match keys.
func NewSearchNot(keys ...SearchKey) *SearchNot {
	return &SearchNot{Negated: true, Keys: keys}
}

// SearchOr matches messages matching either side.
type SearchOr struct {
	Negated     bool
	Left, Right SearchKeys
}

// NewSearchOr returns a term matching messages that match left or right.
func NewSearchOr(left, right SearchKeys) *SearchOr {
	return &SearchOr{Left: left, Right: right}
}

// SearchFlag matches messages with every flag of Flag set, or with at least
// one of them cleared if Negated. An empty Flag matches no message.
type SearchFlag struct {
	Negated bool
	Flag    MsgFlags
}

// SearchField is the part of the message a SearchString is matched against.
type SearchField int

const (
	SearchFieldBcc SearchField = iota
	SearchFieldBody
	SearchFieldCc
	SearchFieldFrom
	SearchFieldSubject
	SearchFieldText
	SearchFieldTo
	SearchFieldHeader // arbitrary header, named by SearchString.Header
)

func (field SearchField) atom() string {
	switch field {
	case SearchFieldBcc:
		return "BCC"
	case SearchFieldBody:
		return "BODY"
	case SearchFieldCc:
		return "CC"
	case SearchFieldSubject:
		return "SUBJECT"
	case SearchFieldText:
		return "TEXT"
	case SearchFieldTo:
		return "TO"
	case SearchFieldHeader:
		return "HEADER"
	default:
		return "FROM"
	}
}

// SearchString matches messages containing Value in a field.
type SearchString struct {
	Negated bool
	Field   SearchField
	Header  string // only used with SearchFieldHeader
	Value   string
}

// NewSearchString returns a string term. The user header name is reduced to
// characters allowed in an atom, others are replaced by '_'.
func NewSearchString(negated bool, field SearchField, value, header string) *SearchString {
	return &SearchString{
		Negated: negated,
		Field:   field,
		Header:  SanitizeHeaderName(header),
		Value:   value,
	}
}

// SanitizeHeaderName replaces every byte of name which cannot appear in an
// atom with '_'.
func SanitizeHeaderName(name string) string {
	b := []byte(name)
	for i, ch := range b {
		if !IsAtomChar(ch) {
			b[i] = '_'
		}
	}
	return string(b)
}

// IsAtomChar reports whether ch may appear in an atom.
func IsAtomChar(ch byte) bool {
	switch ch {
	case '(', ')', '{', ' ', '%', '*', '"', '\\', ']':
		return false
	}
	return ch > 0x1f && ch < 0x7f
}

// SearchDateRange is the comparison applied by a SearchDate.
type SearchDateRange int

const (
	SearchDateBefore SearchDateRange = iota
	SearchDateOn
	SearchDateSince
)

// SearchDate matches messages by internal date or by the Date header. Only
// the day is used. SearchDate cannot be negated, wrap it in a SearchNot.
type SearchDate struct {
	Range    SearchDateRange
	Internal bool
	Date     time.Time
}

// SearchSize matches messages larger than Larger bytes, or not larger if
// Negated.
type SearchSize struct {
	Negated bool
	Larger  uint32
}

// SearchSequence matches messages in a sequence-set of sequence numbers or
// UIDs.
type SearchSequence struct {
	Negated bool
	UID     bool
	Set     string
}

// NewSearchRange returns a term matching the numbers of [lo, hi]. It returns
// nil if the range is empty.
func NewSearchRange(negated, uid bool, lo, hi uint32) *SearchSequence {
	if lo > hi || lo == 0 {
		return nil
	}
	set := strconv.FormatUint(uint64(lo), 10)
	if lo < hi {
		set += ":" + strconv.FormatUint(uint64(hi), 10)
	}
	return &SearchSequence{Negated: negated, UID: uid, Set: set}
}

// NewSearchSet returns a term matching the given numbers. It returns nil if
// nums is empty.
func NewSearchSet(negated, uid bool, nums []uint32) *SearchSequence {
	set := CoalesceNums(nums)
	if set == "" {
		return nil
	}
	return &SearchSequence{Negated: negated, UID: uid, Set: set}
}

func (*SearchNot) searchKey()      {}
func (*SearchOr) searchKey()       {}
func (*SearchFlag) searchKey()     {}
func (*SearchString) searchKey()   {}
func (*SearchDate) searchKey()     {}
func (*SearchSize) searchKey()     {}
func (*SearchSequence) searchKey() {}

// FlagsOnly reports whether the whole tree is made of NOT, OR and flag terms,
// in which case it can be evaluated against the flag cache. needed holds the
// flags referenced by the tree.
func (keys SearchKeys) FlagsOnly() (needed MsgFlags, ok bool) {
	if len(keys) == 0 {
		return 0, false
	}
	for _, key := range keys {
		switch key := key.(type) {
		case *SearchNot:
			flags, ok := key.Keys.FlagsOnly()
			if !ok {
				return 0, false
			}
			needed |= flags
		case *SearchOr:
			left, ok := key.Left.FlagsOnly()
			if !ok {
				return 0, false
			}
			right, ok := key.Right.FlagsOnly()
			if !ok {
				return 0, false
			}
			needed |= left | right
		case *SearchFlag:
			needed |= key.Flag
		default:
			return 0, false
		}
	}
	return needed, true
}

// MatchFlags evaluates a flag-only tree against a message's flags. Terms
// other than NOT, OR and flags never match.
func (keys SearchKeys) MatchFlags(flags MsgFlags) bool {
	for _, key := range keys {
		if !matchKeyFlags(key, flags) {
			return false
		}
	}
	return true
}

func matchKeyFlags(key SearchKey, flags MsgFlags) bool {
	var (
		res     bool
		negated bool
	)
	switch key := key.(type) {
	case *SearchNot:
		res, negated = key.Keys.MatchFlags(flags), key.Negated
	case *SearchOr:
		res, negated = key.Left.MatchFlags(flags) || key.Right.MatchFlags(flags), key.Negated
	case *SearchFlag:
		res, negated = key.Flag != 0 && flags&key.Flag == key.Flag, key.Negated
	default:
		return false
	}
	return res != negated
}

// checks reports whether fn holds for a term of the list. Terms under a NOT
// are not inspected.
func (keys SearchKeys) checks(fn func(SearchKey) bool) bool {
	for _, key := range keys {
		switch key := key.(type) {
		case *SearchNot:
			// negated terms do not restrict the search
		case *SearchOr:
			if key.Left.checks(fn) || key.Right.checks(fn) {
				return true
			}
		default:
			if fn(key) {
				return true
			}
		}
	}
	return false
}

// HasSequence reports whether the list is restricted by a sequence term.
func (keys SearchKeys) HasSequence() bool {
	return keys.checks(func(key SearchKey) bool {
		_, ok := key.(*SearchSequence)
		return ok
	})
}

// HasString reports whether the list contains a string term.
func (keys SearchKeys) HasString() bool {
	return keys.checks(func(key SearchKey) bool {
		_, ok := key.(*SearchString)
		return ok
	})
}

// HasBody reports whether the list searches message bodies.
func (keys SearchKeys) HasBody() bool {
	return keys.checks(func(key SearchKey) bool {
		s, ok := key.(*SearchString)
		return ok && s.Field == SearchFieldBody
	})
}

// IsASCII reports whether all string terms are 7-bit.
func (keys SearchKeys) IsASCII() bool {
	for _, key := range keys {
		switch key := key.(type) {
		case *SearchNot:
			if !key.Keys.IsASCII() {
				return false
			}
		case *SearchOr:
			if !key.Left.IsASCII() || !key.Right.IsASCII() {
				return false
			}
		case *SearchString:
			if !isASCII(key.Value) {
				return false
			}
		}
	}
	return true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// SearchEncoder receives the tokens of a search key list.
type SearchEncoder interface {
	Atom(s string)
	String(s string)
	Special(ch byte)
	SP()
}

// Encode writes keys to enc in IMAP syntax. OR operands and NOT lists are
// only parenthesized when they hold more than one term.
func (keys SearchKeys) Encode(enc SearchEncoder) {
	for i, key := range keys {
		if i > 0 {
			enc.SP()
		}
		encodeSearchKey(enc, key)
	}
}

func encodeSearchOperand(enc SearchEncoder, keys SearchKeys) {
	if len(keys) == 1 {
		encodeSearchKey(enc, keys[0])
		return
	}
	enc.Special('(')
	keys.Encode(enc)
	enc.Special(')')
}

func encodeSearchKey(enc SearchEncoder, key SearchKey) {
	switch key := key.(type) {
	case *SearchNot:
		if key.Negated {
			enc.Atom("NOT")
			enc.SP()
		}
		encodeSearchOperand(enc, key.Keys)
	case *SearchOr:
		if key.Negated {
			enc.Atom("NOT")
			enc.SP()
		}
		enc.Atom("OR")
		enc.SP()
		encodeSearchOperand(enc, key.Left)
		enc.SP()
		encodeSearchOperand(enc, key.Right)
	case *SearchFlag:
		encodeSearchFlag(enc, key)
	case *SearchString:
		if key.Negated {
			enc.Atom("NOT")
			enc.SP()
		}
		enc.Atom(key.Field.atom())
		enc.SP()
		if key.Field == SearchFieldHeader {
			enc.Atom(SanitizeHeaderName(key.Header))
			enc.SP()
		}
		enc.String(key.Value)
	case *SearchDate:
		var prefix string
		if !key.Internal {
			prefix = "SENT"
		}
		switch key.Range {
		case SearchDateBefore:
			enc.Atom(prefix + "BEFORE")
		case SearchDateOn:
			enc.Atom(prefix + "ON")
		default:
			enc.Atom(prefix + "SINCE")
		}
		enc.SP()
		enc.Atom(key.Date.Format(DateLayout))
	case *SearchSize:
		if key.Negated {
			enc.Atom("NOT")
			enc.SP()
		}
		enc.Atom("LARGER")
		enc.SP()
		enc.Atom(strconv.FormatUint(uint64(key.Larger), 10))
	case *SearchSequence:
		if key.Negated {
			enc.Atom("NOT")
			enc.SP()
		}
		if key.UID {
			enc.Atom("UID")
			enc.SP()
		}
		enc.Atom(key.Set)
	}
}

func encodeSearchFlag(enc SearchEncoder, key *SearchFlag) {
	var bits []MsgFlags
	for _, entry := range msgFlagNames {
		if key.Flag&entry.bit != 0 {
			bits = append(bits, entry.bit)
		}
	}

	switch {
	case len(bits) == 0 || key.Flag&^MsgFlagsAll != 0:
		// no message carries the whole set
		if !key.Negated {
			enc.Atom("NOT")
			enc.SP()
		}
		enc.Atom("ALL")
	case len(bits) == 1:
		enc.Atom(searchFlagAtom(bits[0], key.Negated))
	default:
		if key.Negated {
			enc.Atom("NOT")
			enc.SP()
		}
		enc.Special('(')
		for i, bit := range bits {
			if i > 0 {
				enc.SP()
			}
			enc.Atom(searchFlagAtom(bit, false))
		}
		enc.Special(')')
	}
}

func searchFlagAtom(flag MsgFlags, negated bool) string {
	var name string
	switch flag {
	case MsgFlagAnswered:
		name = "ANSWERED"
	case MsgFlagFlagged:
		name = "FLAGGED"
	case MsgFlagDeleted:
		name = "DELETED"
	case MsgFlagDraft:
		name = "DRAFT"
	case MsgFlagRecent:
		// there is no UNRECENT key
		if negated {
			return "OLD"
		}
		return "RECENT"
	default:
		name = "SEEN"
	}
	if negated {
		return "UN" + name
	}
	return name
}

type textSearchEncoder struct {
	sb strings.Builder
}

func (enc *textSearchEncoder) Atom(s string)   { enc.sb.WriteString(s) }
func (enc *textSearchEncoder) Special(ch byte) { enc.sb.WriteByte(ch) }
func (enc *textSearchEncoder) SP()             { enc.sb.WriteByte(' ') }

func (enc *textSearchEncoder) String(s string) {
	enc.sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			enc.sb.WriteByte('\\')
		}
		enc.sb.WriteByte(s[i])
	}
	enc.sb.WriteByte('"')
}

// String returns the keys in IMAP syntax with every string quoted. It is the
// filter string of a mailbox view; use Encode to write keys to a server.
func (keys SearchKeys) String() string {
	var enc textSearchEncoder
	keys.Encode(&enc)
	return enc.sb.String()
}

// SearchData is the data returned by a SEARCH command.
type SearchData struct {
	// Matching sequence numbers or UIDs, in server order
	All []uint32
	UID bool
}
