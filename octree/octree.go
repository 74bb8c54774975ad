// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package octree provides octree topologies for the pad and depad transforms.
//
// A Topology answers three questions per depth d: how many node slots the
// depth has (N), how many of them are non-empty (M), and the children index
// mapping every slot to its compact rank or to Empty.
//
// Two providers are included:
//   - Static: explicit per-depth children indices
//   - Octree: built from points with a Builder or from occupied leaf keys
//
// Example:
//
//	b, _ := octree.NewBuilder(5, r3.Vector{}, 1)
//	_ = b.Add(r3.Vector{X: 0.2, Y: 0.7, Z: 0.1})
//	tree := b.Build()
//	n, _ := tree.NodeCount(5)
package octree

import (
	"github.com/golang/geo/r3"

	"github.com/born-ml/octpad/internal/octree"
)

// MaxDepth is the deepest level an octree may have.
const MaxDepth = octree.MaxDepth

// Empty marks a dense node slot with no compact feature.
const Empty = octree.Empty

// Topology is the per-depth structure consumed by the transforms.
type Topology = octree.Topology

// ChildrenIndex maps dense slots to compact ranks or Empty.
type ChildrenIndex = octree.ChildrenIndex

// Static is a topology defined by explicit children indices.
type Static = octree.Static

// Octree is a topology built from occupied leaf cells.
type Octree = octree.Octree

// Builder accumulates points into an Octree.
type Builder = octree.Builder

// TopologyError reports a query the topology cannot answer.
type TopologyError = octree.TopologyError

// ErrTopology is matched by every TopologyError.
var ErrTopology = octree.ErrTopology

// NewStatic validates and copies the given per-depth children indices.
func NewStatic(levels map[int]ChildrenIndex) (*Static, error) {
	return octree.NewStatic(levels)
}

// FromOccupancy builds an octree from the Morton keys of occupied leaves.
func FromOccupancy(depth int, leafKeys []uint32) (*Octree, error) {
	return octree.FromOccupancy(depth, leafKeys)
}

// NewBuilder creates a builder over the cube [origin, origin+sideLength]^3.
func NewBuilder(depth int, origin r3.Vector, sideLength float64) (*Builder, error) {
	return octree.NewBuilder(depth, origin, sideLength)
}

// MortonKey returns the leaf key of cell (x, y, z) at the given depth.
func MortonKey(x, y, z uint32, depth int) uint32 {
	return octree.MortonKey(x, y, z, depth)
}
