package cpu

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/octpad/internal/octree"
	"github.com/born-ml/octpad/internal/parallel"
	"github.com/born-ml/octpad/internal/tensor"
)

func TestBackendInfo(t *testing.T) {
	b := New()
	assert.Equal(t, "CPU", b.Name())
	assert.Equal(t, tensor.CPU, b.Device())
	assert.Equal(t, parallel.DefaultConfig(), b.Config())
}

func TestPadForward(t *testing.T) {
	b := New()
	children := octree.ChildrenIndex{octree.Empty, 0, octree.Empty, 1, octree.Empty}

	src, err := tensor.FromNodeMajor([][]float32{{1, 2}, {3, 4}}, 0, tensor.CPU)
	require.NoError(t, err)
	dst, err := tensor.Zeros(2, 5, tensor.CPU)
	require.NoError(t, err)

	// Garbage in dst must be overwritten, including empty slots.
	for i := range dst.Data() {
		dst.Data()[i] = 99
	}

	require.NoError(t, b.PadForward(dst, src, children))
	assert.Equal(t, [][]float32{{0, 0}, {1, 2}, {0, 0}, {3, 4}, {0, 0}}, dst.NodeMajor())
}

func TestPadBackward(t *testing.T) {
	b := New()
	children := octree.ChildrenIndex{octree.Empty, 1, octree.Empty, 0, octree.Empty}

	src, err := tensor.FromNodeMajor([][]float32{{9, 9}, {1, 2}, {9, 9}, {3, 4}, {9, 9}}, 0, tensor.CPU)
	require.NoError(t, err)
	dst, err := tensor.Zeros(2, 2, tensor.CPU)
	require.NoError(t, err)

	require.NoError(t, b.PadBackward(dst, src, children))
	assert.Equal(t, [][]float32{{3, 4}, {1, 2}}, dst.NodeMajor())
}

func TestNegativeEntriesAreEmpty(t *testing.T) {
	b := New()
	// Any negative entry is an empty slot, matching ChildrenIndex.Rank.
	children := octree.ChildrenIndex{-2, 0, -7}

	src, err := tensor.FromNodeMajor([][]float32{{5, 6}}, 0, tensor.CPU)
	require.NoError(t, err)
	dense, err := tensor.Zeros(2, 3, tensor.CPU)
	require.NoError(t, err)
	require.NoError(t, b.PadForward(dense, src, children))
	assert.Equal(t, [][]float32{{0, 0}, {5, 6}, {0, 0}}, dense.NodeMajor())

	back, err := tensor.Zeros(2, 1, tensor.CPU)
	require.NoError(t, err)
	require.NoError(t, b.PadBackward(back, dense, children))
	assert.Equal(t, [][]float32{{5, 6}}, back.NodeMajor())
}

func TestKernelShapeChecks(t *testing.T) {
	b := New()
	children := octree.ChildrenIndex{0, octree.Empty}

	compact, err := tensor.Zeros(2, 1, tensor.CPU)
	require.NoError(t, err)
	denseWrongC, err := tensor.Zeros(3, 2, tensor.CPU)
	require.NoError(t, err)
	denseWrongH, err := tensor.Zeros(2, 3, tensor.CPU)
	require.NoError(t, err)

	assert.Error(t, b.PadForward(denseWrongC, compact, children))
	assert.Error(t, b.PadForward(denseWrongH, compact, children))
	assert.Error(t, b.PadBackward(compact, denseWrongC, children))
	assert.Error(t, b.PadBackward(compact, denseWrongH, children))
}

// randomLevel returns a shuffled children index with m of n slots non-empty.
func randomLevel(rng *rand.Rand, n, m int) octree.ChildrenIndex {
	idx := make(octree.ChildrenIndex, n)
	for i := range idx {
		idx[i] = octree.Empty
	}
	for k, slot := range rng.Perm(n)[:m] {
		idx[slot] = int32(k)
	}
	return idx
}

func TestParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const channels, n, m = 5, 3001, 1234
	children := randomLevel(rng, n, m)

	compact, err := tensor.Zeros(channels, m, tensor.CPU)
	require.NoError(t, err)
	for i := range compact.Data() {
		compact.Data()[i] = rng.Float32()
	}

	seq := NewWithConfig(parallel.Sequential())
	par := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 7, MinChunkSize: 16})

	denseSeq, err := tensor.Zeros(channels, n, tensor.CPU)
	require.NoError(t, err)
	densePar, err := tensor.Zeros(channels, n, tensor.CPU)
	require.NoError(t, err)
	require.NoError(t, seq.PadForward(denseSeq, compact, children))
	require.NoError(t, par.PadForward(densePar, compact, children))
	if diff := cmp.Diff(denseSeq.Data(), densePar.Data()); diff != "" {
		t.Fatalf("pad forward mismatch (-seq +par):\n%s", diff)
	}

	back, err := tensor.Zeros(channels, m, tensor.CPU)
	require.NoError(t, err)
	require.NoError(t, par.PadBackward(back, densePar, children))
	if diff := cmp.Diff(compact.Data(), back.Data()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func BenchmarkPadForward(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	const channels, n, m = 32, 1 << 16, 1 << 14
	children := randomLevel(rng, n, m)

	compact, _ := tensor.Zeros(channels, m, tensor.CPU)
	dense, _ := tensor.Zeros(channels, n, tensor.CPU)
	backend := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = backend.PadForward(dense, compact, children)
	}
}

func BenchmarkPadBackward(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	const channels, n, m = 32, 1 << 16, 1 << 14
	children := randomLevel(rng, n, m)

	compact, _ := tensor.Zeros(channels, m, tensor.CPU)
	dense, _ := tensor.Zeros(channels, n, tensor.CPU)
	backend := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = backend.PadBackward(compact, dense, children)
	}
}
