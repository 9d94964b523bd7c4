package recurrence

import (
	"strconv"
	"strings"
)

// bitset is a compact set of small integers 0-63.
type bitset uint64

func (b bitset) has(value int) bool {
	return value >= 0 && value < 64 && b&(1<<uint(value)) != 0
}

func (b *bitset) set(value int) { *b |= 1 << uint(value) }

func (b bitset) values() []int {
	var out []int
	for v := 0; v < 64; v++ {
		if b.has(v) {
			out = append(out, v)
		}
	}
	return out
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
