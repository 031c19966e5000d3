package imap

import (
	"github.com/emersion/go-imapsession/internal/imapnum"
)

// Coalesce returns the sequence-set covering the non-zero values need
// returns for each index of [lo, hi], merging runs of consecutive values.
// The result is empty when nothing is needed, in which case callers must not
// issue a command.
func Coalesce(lo, hi uint32, need func(i uint32) uint32) string {
	return imapnum.Coalesce(lo, hi, need)
}

// CoalesceNums returns the shortest sequence-set covering nums, which may be
// unsorted. The result is empty for an empty input.
func CoalesceNums(nums []uint32) string {
	return imapnum.CoalesceNums(nums)
}

// ParseNumSet decodes a sequence-set without "*" into its numbers, in
// ascending order.
func ParseNumSet(s string) ([]uint32, error) {
	set, err := imapnum.ParseSet(s)
	if err != nil {
		return nil, err
	}
	return set.Nums(), nil
}
