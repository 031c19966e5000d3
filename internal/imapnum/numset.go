// Package imapnum implements sets of message numbers in the IMAP
// sequence-set syntax.
package imapnum

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Range represents a single seq-number or seq-range value (RFC 3501 ABNF). A
// seq-number is represented by setting Start = Stop. The order of values is
// always 0 < Start <= Stop. The dynamic value "*" is not supported: the
// engine always knows the message count and writes explicit numbers.
type Range struct {
	Start, Stop uint32
}

// Contains returns true if the number q is contained in the range.
func (r Range) Contains(q uint32) bool {
	return r.Start <= q && q <= r.Stop
}

// Len returns the number of values in the range.
func (r Range) Len() int {
	return int(r.Stop-r.Start) + 1
}

// Merge combines ranges r and t into a single union if the two intersect or
// touch. The order of r and t does not matter. If the values cannot be
// merged, r is returned unmodified and ok is set to false.
func (r Range) Merge(t Range) (union Range, ok bool) {
	if r.Start > t.Start {
		r, t = t, r
	}
	// r starts at or before t, check where it ends
	if r.Stop >= t.Stop {
		return r, true
	}
	if r.Stop == ^uint32(0) || r.Stop+1 >= t.Start {
		return Range{r.Start, t.Stop}, true
	}
	return r, false
}

// String returns the range as a seq-number or seq-range string.
func (r Range) String() string {
	if r.Start == r.Stop {
		return strconv.FormatUint(uint64(r.Start), 10)
	}
	b := strconv.AppendUint(make([]byte, 0, 24), uint64(r.Start), 10)
	return string(strconv.AppendUint(append(b, ':'), uint64(r.Stop), 10))
}

// Set is a sorted list of disjoint, non-adjacent ranges. The zero value is
// an empty set.
type Set []Range

// AddNum inserts numbers into the set. Zero is ignored.
func (s *Set) AddNum(q ...uint32) {
	for _, v := range q {
		if v != 0 {
			s.insert(Range{v, v})
		}
	}
}

// AddRange inserts a range into the set.
func (s *Set) AddRange(start, stop uint32) {
	if start > stop {
		start, stop = stop, start
	}
	if start == 0 {
		start = 1
		if stop == 0 {
			return
		}
	}
	s.insert(Range{start, stop})
}

// Contains returns true if q is contained in the set.
func (s Set) Contains(q uint32) bool {
	i := s.search(q)
	return i < len(s) && s[i].Contains(q)
}

// Len returns the number of values in the set.
func (s Set) Len() int {
	n := 0
	for _, r := range s {
		n += r.Len()
	}
	return n
}

// Nums returns all numbers contained in the set, in ascending order.
func (s Set) Nums() []uint32 {
	var nums []uint32
	for _, r := range s {
		for n := r.Start; ; n++ {
			nums = append(nums, n)
			if n == r.Stop {
				break
			}
		}
	}
	return nums
}

// String returns the sequence-set representation, or an empty string for an
// empty set.
func (s Set) String() string {
	l := make([]string, len(s))
	for i, r := range s {
		l[i] = r.String()
	}
	return strings.Join(l, ",")
}

// search returns the index of the first range that does not end before q.
func (s Set) search(q uint32) int {
	return sort.Search(len(s), func(i int) bool {
		return s[i].Stop >= q
	})
}

// insert adds range v to the set, merging with neighbours.
func (s *Set) insert(v Range) {
	set := *s
	i := s.search(v.Start)
	if i > 0 {
		// the preceding range may touch v (e.g. "1:3".insert(4))
		if union, ok := set[i-1].Merge(v); ok {
			i--
			v = union
		}
	}
	j := i
	for j < len(set) {
		union, ok := v.Merge(set[j])
		if !ok {
			break
		}
		v = union
		j++
	}
	if i == j {
		set = append(set, Range{})
		copy(set[i+1:], set[i:])
		set[i] = v
	} else {
		set[i] = v
		set = append(set[:i+1], set[j:]...)
	}
	*s = set
}

// errBadNumSet is used to report problems with the format of a number set
// value.
type errBadNumSet string

func (err errBadNumSet) Error() string {
	return fmt.Sprintf("imap: bad number set value %q", string(err))
}

// parseNum parses a single non-zero number.
func parseNum(v string) (uint32, error) {
	if n, err := strconv.ParseUint(v, 10, 32); err == nil && n != 0 && v[0] != '0' {
		return uint32(n), nil
	}
	return 0, errBadNumSet(v)
}

// parseNumRange parses strings in the format "n" or "n:m".
func parseNumRange(v string) (Range, error) {
	var (
		r   Range
		err error
	)
	if sep := strings.IndexByte(v, ':'); sep < 0 {
		r.Start, err = parseNum(v)
		r.Stop = r.Start
		return r, err
	} else if r.Start, err = parseNum(v[:sep]); err == nil {
		if r.Stop, err = parseNum(v[sep+1:]); err == nil {
			if r.Stop < r.Start {
				r.Start, r.Stop = r.Stop, r.Start
			}
			return r, nil
		}
	}
	return r, errBadNumSet(v)
}

// ParseSet returns a new Set after parsing the set string.
func ParseSet(set string) (Set, error) {
	var s Set
	for _, sv := range strings.Split(set, ",") {
		r, err := parseNumRange(sv)
		if err != nil {
			return nil, err
		}
		s.insert(r)
	}
	return s, nil
}
