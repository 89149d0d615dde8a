package revset

import (
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
)

// byPositionDesc orders snapshot positions newest first.
func byPositionDesc(a, b interface{}) int {
	return utils.IntComparator(b, a)
}

// CommitSet is an ordered set of snapshot positions, iterated in reverse
// topological order.
type CommitSet struct {
	set *treeset.Set
}

// NewCommitSet returns a set holding positions.
func NewCommitSet(positions ...int) *CommitSet {
	s := &CommitSet{set: treeset.NewWith(byPositionDesc)}
	s.Add(positions...)
	return s
}

// Add inserts positions.
func (s *CommitSet) Add(positions ...int) {
	for _, pos := range positions {
		s.set.Add(pos)
	}
}

// Contains reports whether pos is in the set.
func (s *CommitSet) Contains(pos int) bool {
	return s.set.Contains(pos)
}

// Len returns the number of positions.
func (s *CommitSet) Len() int {
	return s.set.Size()
}

// Empty reports whether the set has no positions.
func (s *CommitSet) Empty() bool {
	return s.set.Empty()
}

// Positions returns the positions in descending order.
func (s *CommitSet) Positions() []int {
	out := make([]int, 0, s.set.Size())
	it := s.set.Iterator()
	for it.Next() {
		out = append(out, it.Value().(int))
	}
	return out
}

// Union returns the positions in either set.
func (s *CommitSet) Union(o *CommitSet) *CommitSet {
	out := NewCommitSet(s.Positions()...)
	out.Add(o.Positions()...)
	return out
}

// Intersect returns the positions in both sets.
func (s *CommitSet) Intersect(o *CommitSet) *CommitSet {
	small, large := s, o
	if small.Len() > large.Len() {
		small, large = large, small
	}
	out := NewCommitSet()
	for _, pos := range small.Positions() {
		if large.Contains(pos) {
			out.Add(pos)
		}
	}
	return out
}

// Difference returns the positions of s that are not in o.
func (s *CommitSet) Difference(o *CommitSet) *CommitSet {
	out := NewCommitSet()
	for _, pos := range s.Positions() {
		if !o.Contains(pos) {
			out.Add(pos)
		}
	}
	return out
}
