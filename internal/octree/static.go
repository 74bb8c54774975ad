package octree

import (
	"sort"

	"github.com/pkg/errors"
)

// Static is a Topology over explicitly supplied children indexes, one per depth.
// It is what a host hands over when the octree was parsed elsewhere.
type Static struct {
	levels   map[int]ChildrenIndex
	nonEmpty map[int]int
	maxDepth int
}

// NewStatic validates every level and returns a Static topology.
// The non-empty count of each level is the number of non-sentinel entries,
// and each level must be a bijection onto [0, M).
func NewStatic(levels map[int]ChildrenIndex) (*Static, error) {
	s := &Static{
		levels:   make(map[int]ChildrenIndex, len(levels)),
		nonEmpty: make(map[int]int, len(levels)),
	}
	depths := make([]int, 0, len(levels))
	for d := range levels {
		depths = append(depths, d)
	}
	sort.Ints(depths)

	for _, d := range depths {
		if d < 0 || d > MaxDepth {
			return nil, errors.Errorf("depth %d outside [0, %d]", d, MaxDepth)
		}
		idx := levels[d]
		m := idx.NonEmpty()
		if err := idx.Validate(m); err != nil {
			return nil, errors.Wrapf(err, "depth %d", d)
		}
		s.levels[d] = append(ChildrenIndex(nil), idx...)
		s.nonEmpty[d] = m
		s.maxDepth = d
	}
	return s, nil
}

// MaxDepth returns the deepest level held.
func (s *Static) MaxDepth() int {
	return s.maxDepth
}

func (s *Static) level(depth int) (ChildrenIndex, error) {
	idx, ok := s.levels[depth]
	if !ok {
		return nil, errors.WithStack(&TopologyError{Depth: depth, Reason: "no children index for this depth"})
	}
	return idx, nil
}

// NodeCount implements Topology.
func (s *Static) NodeCount(depth int) (int, error) {
	idx, err := s.level(depth)
	if err != nil {
		return 0, err
	}
	return len(idx), nil
}

// NonEmptyNodeCount implements Topology.
func (s *Static) NonEmptyNodeCount(depth int) (int, error) {
	if _, err := s.level(depth); err != nil {
		return 0, err
	}
	return s.nonEmpty[depth], nil
}

// Children implements Topology.
func (s *Static) Children(depth int) (ChildrenIndex, error) {
	return s.level(depth)
}
