package common

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPowerset(t *testing.T) {
	subsets := Powerset([]uint16{3, 1, 2})
	assert.Len(t, subsets, 8)

	var pairs [][]uint16
	for _, subset := range subsets {
		if len(subset) != 2 {
			continue
		}
		sorted := append([]uint16(nil), subset...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		pairs = append(pairs, sorted)
	}
	assert.ElementsMatch(t, [][]uint16{{1, 2}, {1, 3}, {2, 3}}, pairs)
}

func TestSubsetsContaining(t *testing.T) {
	// C(n-1, t) subsets of size t+1 contain a fixed party.
	cases := []struct {
		n      uint16
		t      int
		expect int
	}{
		{3, 1, 2},
		{5, 2, 6},
		{7, 3, 20},
	}
	for _, tc := range cases {
		subsets := SubsetsContaining(tc.n, tc.t+1, 1)
		assert.Len(t, subsets, tc.expect, "n=%d t=%d", tc.n, tc.t)
		for _, subset := range subsets {
			assert.Len(t, subset, tc.t+1)
			assert.True(t, ContainsUint16(subset, 1))
			assert.True(t, sort.SliceIsSorted(subset, func(i, j int) bool { return subset[i] < subset[j] }))
		}
	}
}

func TestSameMembers(t *testing.T) {
	assert.True(t, SameMembers([]uint16{2, 1}, []uint16{1, 2}))
	assert.False(t, SameMembers([]uint16{1, 2}, []uint16{1, 3}))
	assert.False(t, SameMembers([]uint16{1}, []uint16{1, 2}))
}

func TestJoinUint16(t *testing.T) {
	assert.Equal(t, "1_2_3", JoinUint16([]uint16{1, 2, 3}, "_"))
	assert.Equal(t, "", JoinUint16(nil, "_"))
}
