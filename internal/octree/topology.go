// Package octree answers the per-depth topology queries that pad and depad rely on:
// how many nodes a depth has, how many of them are non-empty, and which compact
// rank each dense node maps to.
package octree

import (
	"fmt"

	"github.com/pkg/errors"
)

// MaxDepth is the deepest level an octree may encode. Node keys at this depth
// use 3*MaxDepth bits and fit in a uint32.
const MaxDepth = 10

// Empty is the children index sentinel for a node without data.
// Every other entry is >= 0 and is the node's rank among the non-empty nodes
// of its depth.
const Empty int32 = -1

// Topology is the read-only view of an octree consumed by pad and depad.
// Implementations must be safe for concurrent readers.
type Topology interface {
	// NodeCount returns N(depth), the number of nodes at depth.
	NodeCount(depth int) (int, error)
	// NonEmptyNodeCount returns M(depth) <= N(depth).
	NonEmptyNodeCount(depth int) (int, error)
	// Children returns the children index of depth; its length is N(depth).
	// Callers must not modify the returned slice.
	Children(depth int) (ChildrenIndex, error)
}

// ChildrenIndex maps each dense node slot at one depth to its compact rank,
// or to Empty.
type ChildrenIndex []int32

// Rank returns the compact rank of dense slot i and whether the node is non-empty.
func (c ChildrenIndex) Rank(i int) (int, bool) {
	k := c[i]
	if k < 0 {
		return 0, false
	}
	return int(k), true
}

// NonEmpty counts the non-sentinel entries.
func (c ChildrenIndex) NonEmpty() int {
	n := 0
	for _, k := range c {
		if k >= 0 {
			n++
		}
	}
	return n
}

// Validate checks that c is a bijection between its non-empty slots and the
// ranks [0, nonEmpty), and that every negative entry is Empty.
func (c ChildrenIndex) Validate(nonEmpty int) error {
	if nonEmpty < 0 || nonEmpty > len(c) {
		return errors.Errorf("non-empty count %d outside [0, %d]", nonEmpty, len(c))
	}
	seen := make([]bool, nonEmpty)
	for i, k := range c {
		switch {
		case k == Empty:
			continue
		case k < 0:
			return errors.Errorf("slot %d holds %d; the only negative value allowed is %d", i, k, Empty)
		case int(k) >= nonEmpty:
			return errors.Errorf("slot %d maps to rank %d, want < %d", i, k, nonEmpty)
		case seen[k]:
			return errors.Errorf("rank %d is claimed by more than one slot (again at %d)", k, i)
		}
		seen[k] = true
	}
	for k, ok := range seen {
		if !ok {
			return errors.Errorf("rank %d has no dense slot", k)
		}
	}
	return nil
}

// Inverse returns, for each compact rank k in [0, nonEmpty), the dense slot
// mapping to it. c must satisfy Validate(nonEmpty).
func (c ChildrenIndex) Inverse(nonEmpty int) []int32 {
	inv := make([]int32, nonEmpty)
	for i, k := range c {
		if k >= 0 {
			inv[k] = int32(i) //nolint:gosec // G115: slot count is bounded by 8^MaxDepth
		}
	}
	return inv
}

// ErrTopology is matched by every TopologyError.
var ErrTopology = errors.New("octree topology error")

// TopologyError reports a query the topology cannot answer.
type TopologyError struct {
	Depth  int
	Reason string
}

// Error implements the error interface.
func (e *TopologyError) Error() string {
	return fmt.Sprintf("octree topology: depth %d: %s", e.Depth, e.Reason)
}

// Is makes errors.Is(err, ErrTopology) true.
func (e *TopologyError) Is(target error) bool {
	return target == ErrTopology
}

func depthError(depth, maxDepth int) error {
	return errors.WithStack(&TopologyError{
		Depth:  depth,
		Reason: fmt.Sprintf("octree encodes depths [0, %d]", maxDepth),
	})
}
