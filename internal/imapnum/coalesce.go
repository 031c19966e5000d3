package imapnum

// Coalesce calls need for every number of [lo, hi] in ascending order and
// returns a sequence-set covering the non-zero values it returned. Values
// returned by successive calls that follow each other numerically are merged
// into ranges, so need may map an index onto a different number (e.g. a view
// position onto a sequence number).
//
// An empty string is returned if need never returned a non-zero value or if
// lo > hi.
func Coalesce(lo, hi uint32, need func(i uint32) uint32) string {
	if lo == 0 {
		lo = 1
	}
	if lo > hi {
		return ""
	}

	var (
		ranges Set
		run    Range
	)
	for i := lo; ; i++ {
		if n := need(i); n != 0 {
			switch {
			case run.Start == 0:
				run = Range{n, n}
			case run.Stop != ^uint32(0) && n == run.Stop+1:
				run.Stop = n
			default:
				ranges = append(ranges, run)
				run = Range{n, n}
			}
		}
		if i == hi {
			break
		}
	}
	if run.Start != 0 {
		ranges = append(ranges, run)
	}
	return ranges.String()
}

// CoalesceNums returns the shortest sequence-set covering nums. The input
// does not need to be sorted and may contain duplicates.
func CoalesceNums(nums []uint32) string {
	var s Set
	s.AddNum(nums...)
	return s.String()
}
