// Package join implements hash-join with on-disk partitioning (§4.4.14):
// the left pipe and every right pipe are spilled to P on-disk shards by
// hash(key) mod P, then each partition is built (left) and probed
// (right) with only one partition resident in memory at a time.
package join

// Pair is the wire shape hash-join partitions and joins on: a key and
// a single associated value. Callers of HashJoin decompose their
// records into Pair[K, V] the way an SQL join decomposes a row into a
// join column plus a payload.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// JoinRecord is the output of a hash-join (§3 Data model): leftValues
// is the ordered sequence of values seen for Key in the left pipe,
// and rightValues[i] is the ordered sequence of values seen for Key in
// right pipe i. Both are non-nil, possibly-empty slices so equality
// comparisons don't have to special-case nil vs empty.
type JoinRecord[K comparable, V any] struct {
	Key         K
	LeftValues  []V
	RightValues [][]V
}

func newJoinRecord[K comparable, V any](key K, numRight int) *JoinRecord[K, V] {
	rv := make([][]V, numRight)
	for i := range rv {
		rv[i] = []V{}
	}
	return &JoinRecord[K, V]{Key: key, LeftValues: []V{}, RightValues: rv}
}

// Mode selects which joined records survive the final filter (§4.4.14).
type Mode int

const (
	// LEFT emits every record with at least one left value, regardless
	// of whether any right pipe matched it.
	LEFT Mode = iota
	// INNER emits only records with at least one left value and at
	// least one match from every right pipe.
	INNER
	// FULL_INNER emits records matched by every right pipe at least
	// once, regardless of whether the left pipe contributed - the
	// cross-right analogue of INNER that drops the left requirement.
	FULL_INNER
	// OUTER emits every record seen anywhere, left or right.
	OUTER
)

func (m Mode) shouldOutput(leftLen int, rightLens []int) bool {
	switch m {
	case LEFT:
		return leftLen > 0
	case INNER:
		if leftLen == 0 {
			return false
		}
		for _, n := range rightLens {
			if n == 0 {
				return false
			}
		}
		return true
	case FULL_INNER:
		for _, n := range rightLens {
			if n == 0 {
				return false
			}
		}
		return true
	case OUTER:
		return true
	default:
		return false
	}
}
