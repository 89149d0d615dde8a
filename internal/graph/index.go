package graph

import (
	"sort"
	"strings"
)

// PrefixIndex answers prefix lookups and shortest-unique-prefix queries over
// a fixed set of identifiers.
type PrefixIndex struct {
	ids  []string
	lens []int
}

// NewPrefixIndex sorts and deduplicates ids and precomputes the shortest
// unique prefix length of each.
func NewPrefixIndex(ids []string) *PrefixIndex {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	uniq := sorted[:0]
	for i, id := range sorted {
		if i > 0 && id == sorted[i-1] {
			continue
		}
		uniq = append(uniq, id)
	}

	x := &PrefixIndex{ids: uniq, lens: make([]int, len(uniq))}
	for i, id := range uniq {
		n := 0
		if i > 0 {
			n = commonPrefixLen(id, uniq[i-1])
		}
		if i+1 < len(uniq) {
			n = max(n, commonPrefixLen(id, uniq[i+1]))
		}
		x.lens[i] = min(n+1, len(id))
	}
	return x
}

func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// Len returns the number of distinct identifiers.
func (x *PrefixIndex) Len() int { return len(x.ids) }

// Lookup returns every identifier starting with prefix, in sorted order.
func (x *PrefixIndex) Lookup(prefix string) []string {
	lo := sort.SearchStrings(x.ids, prefix)
	hi := lo
	for hi < len(x.ids) && strings.HasPrefix(x.ids[hi], prefix) {
		hi++
	}
	if lo == hi {
		return nil
	}
	return append([]string(nil), x.ids[lo:hi]...)
}

// ShortestUniquePrefixLen returns the length of the shortest prefix of id
// that no other identifier in the index shares.
func (x *PrefixIndex) ShortestUniquePrefixLen(id string) (int, bool) {
	i := sort.SearchStrings(x.ids, id)
	if i == len(x.ids) || x.ids[i] != id {
		return 0, false
	}
	return x.lens[i], true
}
