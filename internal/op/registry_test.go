package op

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/born-ml/octpad/internal/backend/cpu"
	"github.com/born-ml/octpad/internal/octree"
	"github.com/born-ml/octpad/internal/pad"
	"github.com/born-ml/octpad/internal/parallel"
	"github.com/born-ml/octpad/internal/tensor"
)

func scenarioTopology(t *testing.T) octree.Topology {
	t.Helper()
	e := octree.Empty
	topo, err := octree.NewStatic(map[int]octree.ChildrenIndex{
		3: {e, 0, e, 1, e},
	})
	require.NoError(t, err)
	return topo
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{OctreeDepad, OctreePad}, r.SupportedOps())

	_, ok := r.Get(OctreePad)
	assert.True(t, ok)
	_, ok = r.Get("Conv")
	assert.False(t, ok)
}

func TestGradientOf(t *testing.T) {
	r := NewRegistry()

	g, ok := r.GradientOf(OctreePad)
	require.True(t, ok)
	assert.Equal(t, OctreeDepad, g)

	g, ok = r.GradientOf(OctreeDepad)
	require.True(t, ok)
	assert.Equal(t, OctreePad, g)

	_, ok = r.GradientOf("Unknown")
	assert.False(t, ok)

	r.Register("NoGrad", Definition{Run: Bind(pad.Pad), Infer: pad.InferPadShape})
	_, ok = r.GradientOf("NoGrad")
	assert.False(t, ok)
}

func TestDecodeAttributes(t *testing.T) {
	for _, raw := range []any{3, int64(3), float64(3), "3", uint8(3)} {
		a, err := DecodeAttributes(map[string]any{"depth": raw})
		require.NoError(t, err, "%T", raw)
		assert.Equal(t, 3, a.Depth)
	}

	_, err := DecodeAttributes(map[string]any{})
	assert.ErrorIs(t, err, pad.ErrConfig)

	_, err = DecodeAttributes(map[string]any{"depth": 3, "stride": 2})
	assert.ErrorIs(t, err, pad.ErrConfig)

	_, err = DecodeAttributes(map[string]any{"depth": "three"})
	assert.ErrorIs(t, err, pad.ErrConfig)

	for _, raw := range []any{3.7, float32(2.5), -0.5} {
		_, err = DecodeAttributes(map[string]any{"depth": raw})
		assert.ErrorIs(t, err, pad.ErrConfig, "%v", raw)
	}

	_, err = NewRegistry().New(OctreePad, map[string]any{"depth": 3.7})
	assert.ErrorIs(t, err, pad.ErrConfig)
}

func TestRegistryNew_Errors(t *testing.T) {
	r := NewRegistry()

	_, err := r.New("Conv", map[string]any{"depth": 3})
	assert.Error(t, err)

	_, err = r.New(OctreePad, map[string]any{"depth": 0})
	var cfgErr *pad.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, 0, cfgErr.Depth)

	_, err = r.New(OctreeDepad, map[string]any{"depth": octree.MaxDepth + 1})
	assert.ErrorIs(t, err, pad.ErrConfig)
}

func TestKernel_ComputeScenario(t *testing.T) {
	r := NewRegistry()
	topo := scenarioTopology(t)

	padK, err := r.New(OctreePad, map[string]any{"depth": "3"}, WithEngine(cpu.New()))
	require.NoError(t, err)
	assert.Equal(t, OctreePad, padK.OpType())
	assert.Equal(t, pad.Depth(3), padK.Depth())

	compact, err := tensor.FromNodeMajor([][]float32{{1, 2}, {3, 4}}, 0, tensor.CPU)
	require.NoError(t, err)

	dense, err := padK.Compute(context.Background(), topo, compact)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 0}, {1, 2}, {0, 0}, {3, 4}, {0, 0}}, dense.NodeMajor())

	grad, ok := r.GradientOf(padK.OpType())
	require.True(t, ok)
	depadK, err := r.New(grad, map[string]any{"depth": 3})
	require.NoError(t, err)
	back, err := depadK.Compute(context.Background(), topo, dense)
	require.NoError(t, err)
	assert.Equal(t, compact.NodeMajor(), back.NodeMajor())
}

func TestKernel_ComputeMismatch(t *testing.T) {
	topo := scenarioTopology(t)
	k, err := NewRegistry().New(OctreePad, map[string]any{"depth": 3})
	require.NoError(t, err)

	bad, err := tensor.FromNodeMajor([][]float32{{1, 2}, {3, 4}, {5, 6}}, 0, tensor.CPU)
	require.NoError(t, err)

	out, err := k.Compute(context.Background(), topo, bad)
	assert.Nil(t, out)
	var mismatch *pad.ShapeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 3, mismatch.Got)
	assert.Equal(t, 2, mismatch.Want)
}

func TestKernel_InferShape(t *testing.T) {
	k, err := NewRegistry().New(OctreePad, map[string]any{"depth": 3})
	require.NoError(t, err)

	got, err := k.InferShape(nil, tensor.Shape{1, 8, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 8, tensor.UnknownDim, 1}, got)

	got, err = k.InferShape(scenarioTopology(t), tensor.Shape{1, 8, 2})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 8, 5}, got)
}

func TestKernel_TracingAndLogging(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	core, logs := observer.New(zapcore.DebugLevel)

	k, err := NewRegistry().New(OctreePad, map[string]any{"depth": 3},
		WithTracerProvider(tp),
		WithLogger(zap.New(core)),
	)
	require.NoError(t, err)
	topo := scenarioTopology(t)

	ok, err := tensor.Zeros(2, 2, tensor.CPU)
	require.NoError(t, err)
	_, err = k.Compute(context.Background(), topo, ok)
	require.NoError(t, err)

	bad, err := tensor.Zeros(2, 3, tensor.CPU)
	require.NoError(t, err)
	_, err = k.Compute(context.Background(), topo, bad)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "octpad.OctreePad", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.Int("octpad.output_nodes", 5))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("octpad.depth", 3))
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "dispatch", spans[0].Events()[0].Name)
	assert.Equal(t, codes.Error, spans[1].Status().Code)

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, OctreePad, entries[1].ContextMap()["op"])
}

func TestKernel_RunSeesKernelSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	var got trace.SpanContext
	r := NewRegistry()
	r.Register("Identity", Definition{
		Run: func(ctx context.Context, _ pad.Engine, _ octree.Topology, _ pad.Depth, input *tensor.Feature) (*tensor.Feature, error) {
			got = trace.SpanContextFromContext(ctx)
			return input, nil
		},
		Infer: pad.InferPadShape,
	})
	k, err := r.New("Identity", map[string]any{"depth": 3}, WithTracerProvider(tp))
	require.NoError(t, err)

	x, err := tensor.Zeros(2, 2, tensor.CPU)
	require.NoError(t, err)
	_, err = k.Compute(context.Background(), nil, x)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.True(t, got.IsValid())
	assert.Equal(t, spans[0].SpanContext().SpanID(), got.SpanID())
}

func TestKernel_ComputeNilArguments(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	core, logs := observer.New(zapcore.DebugLevel)

	for _, opType := range []string{OctreePad, OctreeDepad} {
		k, err := NewRegistry().New(opType, map[string]any{"depth": 3},
			WithTracerProvider(tp), WithLogger(zap.New(core)))
		require.NoError(t, err)

		x, err := tensor.Zeros(2, 2, tensor.CPU)
		require.NoError(t, err)
		out, err := k.Compute(context.Background(), nil, x)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, octree.ErrTopology)

		out, err = k.Compute(context.Background(), scenarioTopology(t), nil)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, pad.ErrShapeMismatch)
	}

	assert.Len(t, recorder.Ended(), 4)
	assert.Equal(t, 4, logs.FilterMessage("compute failed").Len())
}

func TestKernel_ComputeBatch(t *testing.T) {
	topo := scenarioTopology(t)
	k, err := NewRegistry().New(OctreePad, map[string]any{"depth": 3},
		WithParallel(parallel.Config{Enabled: true, NumWorkers: 2}))
	require.NoError(t, err)

	inputs := make([]*tensor.Feature, 5)
	for i := range inputs {
		inputs[i], err = tensor.FromNodeMajor([][]float32{{float32(i)}, {float32(-i)}}, 0, tensor.CPU)
		require.NoError(t, err)
	}

	outs, err := k.ComputeBatch(context.Background(), topo, inputs)
	require.NoError(t, err)
	require.Len(t, outs, len(inputs))
	for i, out := range outs {
		assert.Equal(t, [][]float32{{0}, {float32(i)}, {0}, {float32(-i)}, {0}}, out.NodeMajor())
	}

	bad, err := tensor.Zeros(1, 4, tensor.CPU)
	require.NoError(t, err)
	inputs[3] = bad
	outs, err = k.ComputeBatch(context.Background(), topo, inputs)
	assert.Nil(t, outs)
	assert.ErrorIs(t, err, pad.ErrShapeMismatch)
	assert.Contains(t, err.Error(), "batch item 3")
}

func TestKernel_ComputeCanceled(t *testing.T) {
	k, err := NewRegistry().New(OctreePad, map[string]any{"depth": 3})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x, err := tensor.Zeros(2, 2, tensor.CPU)
	require.NoError(t, err)
	_, err = k.Compute(ctx, scenarioTopology(t), x)
	assert.ErrorIs(t, err, context.Canceled)
}
