package octree

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Octree is a Topology built from occupied leaf cells.
//
// Depth 0 holds the root. The nodes of depth d > 0 are the eight children of
// every non-empty node of depth d-1, in Morton (shuffled key) order, so
// N(d) = 8*M(d-1). A node is non-empty when a point falls inside it.
type Octree struct {
	depth    int
	keys     [][]uint32
	occupied []*roaring.Bitmap
	children []ChildrenIndex
}

// FromOccupancy builds an Octree of the given depth from the Morton keys of
// the occupied leaf cells. Duplicate keys are allowed.
func FromOccupancy(depth int, leafKeys []uint32) (*Octree, error) {
	if depth < 1 || depth > MaxDepth {
		return nil, errors.Errorf("octree depth %d outside [1, %d]", depth, MaxDepth)
	}
	limit := uint64(1) << (3 * uint(depth))
	leaves := roaring.New()
	for _, k := range leafKeys {
		if uint64(k) >= limit {
			return nil, errors.Errorf("leaf key %d does not fit depth %d", k, depth)
		}
		leaves.Add(k)
	}
	return build(depth, leaves), nil
}

func build(depth int, leaves *roaring.Bitmap) *Octree {
	o := &Octree{
		depth:    depth,
		keys:     make([][]uint32, depth+1),
		occupied: make([]*roaring.Bitmap, depth+1),
		children: make([]ChildrenIndex, depth+1),
	}

	o.occupied[depth] = leaves
	for d := depth - 1; d >= 0; d-- {
		parents := roaring.New()
		it := o.occupied[d+1].Iterator()
		for it.HasNext() {
			parents.Add(it.Next() >> 3)
		}
		o.occupied[d] = parents
	}

	o.keys[0] = []uint32{0}
	for d := 1; d <= depth; d++ {
		keys := make([]uint32, 0, 8*o.occupied[d-1].GetCardinality())
		it := o.occupied[d-1].Iterator()
		for it.HasNext() {
			parent := it.Next()
			for octant := uint32(0); octant < 8; octant++ {
				keys = append(keys, parent<<3|octant)
			}
		}
		o.keys[d] = keys
	}

	for d := 0; d <= depth; d++ {
		occ := o.occupied[d]
		idx := make(ChildrenIndex, len(o.keys[d]))
		for i, k := range o.keys[d] {
			if occ.Contains(k) {
				idx[i] = int32(occ.Rank(k) - 1) //nolint:gosec // G115: rank < 8^MaxDepth
			} else {
				idx[i] = Empty
			}
		}
		o.children[d] = idx
	}
	return o
}

// Depth returns the deepest level encoded.
func (o *Octree) Depth() int {
	return o.depth
}

func (o *Octree) check(depth int) error {
	if depth < 0 || depth > o.depth {
		return depthError(depth, o.depth)
	}
	return nil
}

// NodeCount implements Topology.
func (o *Octree) NodeCount(depth int) (int, error) {
	if err := o.check(depth); err != nil {
		return 0, err
	}
	return len(o.keys[depth]), nil
}

// NonEmptyNodeCount implements Topology.
func (o *Octree) NonEmptyNodeCount(depth int) (int, error) {
	if err := o.check(depth); err != nil {
		return 0, err
	}
	return int(o.occupied[depth].GetCardinality()), nil
}

// Children implements Topology.
func (o *Octree) Children(depth int) (ChildrenIndex, error) {
	if err := o.check(depth); err != nil {
		return nil, err
	}
	return o.children[depth], nil
}

// Keys returns the Morton keys of the nodes at depth, in dense slot order.
func (o *Octree) Keys(depth int) ([]uint32, error) {
	if err := o.check(depth); err != nil {
		return nil, err
	}
	return o.keys[depth], nil
}

// Builder accumulates points inside an axis-aligned cube and builds an Octree.
type Builder struct {
	depth      int
	origin     r3.Vector
	sideLength float64
	leaves     *roaring.Bitmap
	points     int
}

// NewBuilder creates a builder for an octree of the given depth over the cube
// [origin, origin+sideLength]^3.
func NewBuilder(depth int, origin r3.Vector, sideLength float64) (*Builder, error) {
	if depth < 1 || depth > MaxDepth {
		return nil, errors.Errorf("octree depth %d outside [1, %d]", depth, MaxDepth)
	}
	if sideLength <= 0 || math.IsNaN(sideLength) || math.IsInf(sideLength, 0) {
		return nil, errors.Errorf("invalid side length (%.2f) for octree", sideLength)
	}
	return &Builder{
		depth:      depth,
		origin:     origin,
		sideLength: sideLength,
		leaves:     roaring.New(),
	}, nil
}

// Add marks the leaf cell containing p as occupied.
func (b *Builder) Add(p r3.Vector) error {
	cells := uint32(1) << uint(b.depth)
	rel := p.Sub(b.origin).Mul(1 / b.sideLength)
	coords := [3]float64{rel.X, rel.Y, rel.Z}

	var cell [3]uint32
	for axis, v := range coords {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return errors.Errorf("point %v is outside the bounds of this octree", p)
		}
		c := uint32(v * float64(cells))
		if c >= cells {
			c = cells - 1
		}
		cell[axis] = c
	}

	b.leaves.Add(MortonKey(cell[0], cell[1], cell[2], b.depth))
	b.points++
	return nil
}

// Points returns how many points were added.
func (b *Builder) Points() int {
	return b.points
}

// Build returns the octree for the points added so far.
// The builder can keep accepting points afterwards.
func (b *Builder) Build() *Octree {
	return build(b.depth, b.leaves.Clone())
}

// MortonKey interleaves the low depth bits of x, y and z into a shuffled key,
// x in the most significant position of each octant triple.
func MortonKey(x, y, z uint32, depth int) uint32 {
	var key uint32
	for i := 0; i < depth; i++ {
		key |= (x >> i & 1) << (3*i + 2)
		key |= (y >> i & 1) << (3*i + 1)
		key |= (z >> i & 1) << (3 * i)
	}
	return key
}
