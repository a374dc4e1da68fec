package graph

import (
	"cmp"
	"strconv"
	"strings"
)

// CompareIDs orders string user ids naturally: when both parse as integers
// they compare numerically ("3" < "7" < "12"), otherwise lexically. Integer
// ids sort before non-integer ids so the order stays total.
func CompareIDs(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		if c := cmp.Compare(ai, bi); c != 0 {
			return c
		}
		// "07" and "7" parse equal; fall back to the text to stay antisymmetric.
		return strings.Compare(a, b)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
