package common

import (
	"fmt"
	"sort"
	"strings"
)

// Powerset returns every subset of s, enumerated by bitmask: subset i
// contains s[j] iff bit j of i is set. The empty subset is included.
func Powerset(s []uint16) [][]uint16 {
	n := 1 << uint(len(s))
	result := make([][]uint16, 0, n)
	for i := 0; i < n; i++ {
		var subset []uint16
		for j, element := range s {
			if (i>>uint(j))&1 == 1 {
				subset = append(subset, element)
			}
		}
		result = append(result, subset)
	}
	return result
}

// SubsetsContaining returns the size-k subsets of {1..n} that contain member,
// each sorted ascending, in powerset enumeration order.
func SubsetsContaining(n uint16, k int, member uint16) [][]uint16 {
	all := make([]uint16, n)
	for i := range all {
		all[i] = uint16(i + 1)
	}
	var out [][]uint16
	for _, subset := range Powerset(all) {
		if len(subset) != k || !ContainsUint16(subset, member) {
			continue
		}
		sorted := append([]uint16(nil), subset...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		out = append(out, sorted)
	}
	return out
}

func ContainsUint16(s []uint16, v uint16) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// SameMembers reports whether a and b contain the same set of party indices,
// regardless of order.
func SameMembers(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[uint16]struct{}, len(a))
	for _, x := range a {
		seen[x] = struct{}{}
	}
	for _, x := range b {
		if _, ok := seen[x]; !ok {
			return false
		}
	}
	return true
}

// JoinUint16 renders s as its decimal members joined by sep.
func JoinUint16(s []uint16, sep string) string {
	parts := make([]string, len(s))
	for i, x := range s {
		parts[i] = fmt.Sprintf("%d", x)
	}
	return strings.Join(parts, sep)
}

// SeqUint16 returns the slice [from..to] inclusive.
func SeqUint16(from, to uint16) []uint16 {
	if to < from {
		return nil
	}
	out := make([]uint16, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
