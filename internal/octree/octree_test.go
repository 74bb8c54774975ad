package octree

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMortonKey(t *testing.T) {
	tests := []struct {
		x, y, z uint32
		depth   int
		want    uint32
	}{
		{0, 0, 0, 1, 0},
		{0, 0, 1, 1, 1},
		{0, 1, 0, 1, 2},
		{1, 0, 0, 1, 4},
		{1, 1, 1, 1, 7},
		{2, 0, 0, 2, 32},
		{3, 3, 3, 2, 63},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MortonKey(tt.x, tt.y, tt.z, tt.depth), "key(%d,%d,%d)@%d", tt.x, tt.y, tt.z, tt.depth)
	}
}

func TestFromOccupancy(t *testing.T) {
	o, err := FromOccupancy(2, []uint32{63, 0, 9, 9})
	require.NoError(t, err)
	assert.Equal(t, 2, o.Depth())

	counts := []struct{ n, m int }{{1, 1}, {8, 3}, {24, 3}}
	for d, want := range counts {
		n, err := o.NodeCount(d)
		require.NoError(t, err)
		m, err := o.NonEmptyNodeCount(d)
		require.NoError(t, err)
		assert.Equal(t, want.n, n, "N(%d)", d)
		assert.Equal(t, want.m, m, "M(%d)", d)
	}

	c1, err := o.Children(1)
	require.NoError(t, err)
	assert.Equal(t, ChildrenIndex{0, 1, Empty, Empty, Empty, Empty, Empty, 2}, c1)

	c2, err := o.Children(2)
	require.NoError(t, err)
	require.Len(t, c2, 24)
	for i, k := range c2 {
		switch i {
		case 0:
			assert.Equal(t, int32(0), k)
		case 9:
			assert.Equal(t, int32(1), k)
		case 23:
			assert.Equal(t, int32(2), k)
		default:
			assert.Equal(t, Empty, k, "slot %d", i)
		}
	}

	keys, err := o.Keys(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(63), keys[23])
}

func TestFromOccupancyRejectsBadInput(t *testing.T) {
	_, err := FromOccupancy(0, nil)
	assert.Error(t, err)

	_, err = FromOccupancy(MaxDepth+1, nil)
	assert.Error(t, err)

	_, err = FromOccupancy(1, []uint32{8})
	assert.Error(t, err)
}

func TestOctreeEmpty(t *testing.T) {
	o, err := FromOccupancy(3, nil)
	require.NoError(t, err)

	n, err := o.NodeCount(0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	m, err := o.NonEmptyNodeCount(0)
	require.NoError(t, err)
	assert.Equal(t, 0, m)

	n, err = o.NodeCount(3)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestOctreeDepthOutOfRange(t *testing.T) {
	o, err := FromOccupancy(2, []uint32{1})
	require.NoError(t, err)

	_, err = o.NodeCount(3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTopology))

	var topoErr *TopologyError
	require.True(t, errors.As(err, &topoErr))
	assert.Equal(t, 3, topoErr.Depth)

	_, err = o.NonEmptyNodeCount(-1)
	assert.True(t, errors.Is(err, ErrTopology))

	_, err = o.Children(7)
	assert.True(t, errors.Is(err, ErrTopology))
}

func TestOctreeChildrenAreBijections(t *testing.T) {
	o, err := FromOccupancy(4, []uint32{0, 1, 100, 511, 512, 1000, 4095})
	require.NoError(t, err)

	for d := 0; d <= o.Depth(); d++ {
		idx, err := o.Children(d)
		require.NoError(t, err)
		m, err := o.NonEmptyNodeCount(d)
		require.NoError(t, err)
		assert.NoError(t, idx.Validate(m), "depth %d", d)

		if d > 0 {
			prevM, err := o.NonEmptyNodeCount(d - 1)
			require.NoError(t, err)
			assert.Len(t, idx, 8*prevM, "N(%d) = 8*M(%d)", d, d-1)
		}
	}
}

func TestBuilder(t *testing.T) {
	b, err := NewBuilder(1, r3.Vector{}, 1)
	require.NoError(t, err)

	require.NoError(t, b.Add(r3.Vector{X: 0.1, Y: 0.1, Z: 0.1}))
	require.NoError(t, b.Add(r3.Vector{X: 0.9, Y: 0.1, Z: 0.1}))
	require.NoError(t, b.Add(r3.Vector{X: 1, Y: 1, Z: 1}))
	require.NoError(t, b.Add(r3.Vector{X: 0.2, Y: 0.3, Z: 0.4}))
	assert.Error(t, b.Add(r3.Vector{X: 1.5, Y: 0, Z: 0}))
	assert.Error(t, b.Add(r3.Vector{X: -0.1, Y: 0, Z: 0}))
	assert.Equal(t, 4, b.Points())

	o := b.Build()
	c1, err := o.Children(1)
	require.NoError(t, err)
	assert.Equal(t, ChildrenIndex{0, Empty, Empty, Empty, 1, Empty, Empty, 2}, c1)

	// Adding after Build does not change the built octree.
	require.NoError(t, b.Add(r3.Vector{X: 0.1, Y: 0.9, Z: 0.1}))
	m, err := o.NonEmptyNodeCount(1)
	require.NoError(t, err)
	assert.Equal(t, 3, m)
}

func TestNewBuilderValidation(t *testing.T) {
	_, err := NewBuilder(0, r3.Vector{}, 1)
	assert.Error(t, err)

	_, err = NewBuilder(3, r3.Vector{}, 0)
	assert.Error(t, err)

	_, err = NewBuilder(3, r3.Vector{}, -2)
	assert.Error(t, err)
}
