package op

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/born-ml/octpad/internal/octree"
	"github.com/born-ml/octpad/internal/pad"
	"github.com/born-ml/octpad/internal/parallel"
	"github.com/born-ml/octpad/internal/tensor"
)

const tracerName = "github.com/born-ml/octpad/internal/op"

type options struct {
	engine   pad.Engine
	logger   *zap.Logger
	provider trace.TracerProvider
	parallel parallel.Config
}

// Option configures a Kernel.
type Option func(*options)

// WithEngine sets the execution engine. Defaults to pad.DefaultEngine.
func WithEngine(e pad.Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.provider = tp }
}

// WithParallel sets the fan-out used by ComputeBatch.
func WithParallel(cfg parallel.Config) Option {
	return func(o *options) { o.parallel = cfg }
}

// Kernel is an operator bound to one depth.
type Kernel struct {
	opType string
	def    Definition
	depth  pad.Depth

	engine   pad.Engine
	logger   *zap.Logger
	tracer   trace.Tracer
	parallel parallel.Config
}

func newKernel(opType string, def Definition, depth pad.Depth, opts []Option) *Kernel {
	o := options{
		engine:   pad.DefaultEngine,
		logger:   zap.NewNop(),
		provider: otel.GetTracerProvider(),
		parallel: parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.engine == nil {
		o.engine = pad.DefaultEngine
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &Kernel{
		opType:   opType,
		def:      def,
		depth:    depth,
		engine:   o.engine,
		logger:   o.logger.With(zap.String("op", opType), zap.Int("depth", depth.Int())),
		tracer:   o.provider.Tracer(tracerName),
		parallel: o.parallel,
	}
}

// OpType returns the registered op type.
func (k *Kernel) OpType() string {
	return k.opType
}

// Depth returns the depth the kernel was constructed with.
func (k *Kernel) Depth() pad.Depth {
	return k.depth
}

// InferShape returns the output shape for an input shape. With a nil
// topology the node axis of the result is tensor.UnknownDim.
func (k *Kernel) InferShape(topo octree.Topology, in tensor.Shape) (tensor.Shape, error) {
	return k.def.Infer(topo, k.depth, in)
}

// Compute runs the transform on one feature tensor.
func (k *Kernel) Compute(ctx context.Context, topo octree.Topology, input *tensor.Feature) (*tensor.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	attrs := []attribute.KeyValue{
		attribute.Int("octpad.depth", k.depth.Int()),
		attribute.String("octpad.engine", k.engine.Name()),
	}
	var fields []zap.Field
	if input != nil {
		attrs = append(attrs,
			attribute.Int("octpad.channels", input.Channels()),
			attribute.Int("octpad.input_nodes", input.Nodes()),
		)
		fields = append(fields, zap.Int("channels", input.Channels()), zap.Int("input_nodes", input.Nodes()))
	}
	ctx, span := k.tracer.Start(ctx, "octpad."+k.opType, trace.WithAttributes(attrs...))
	defer span.End()

	out, err := k.def.Run(ctx, k.engine, topo, k.depth, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compute failed")
		k.logger.Warn("compute failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	span.SetAttributes(attribute.Int("octpad.output_nodes", out.Nodes()))
	span.SetStatus(codes.Ok, "")
	k.logger.Debug("compute", append(fields,
		zap.String("engine", k.engine.Name()),
		zap.Int("output_nodes", out.Nodes()),
	)...)
	return out, nil
}

// ComputeBatch runs Compute on every input concurrently. Results keep input
// order; if any item fails no results are returned.
func (k *Kernel) ComputeBatch(ctx context.Context, topo octree.Topology, inputs []*tensor.Feature) ([]*tensor.Feature, error) {
	outs := make([]*tensor.Feature, len(inputs))
	err := parallel.Each(ctx, len(inputs), func(ctx context.Context, i int) error {
		out, err := k.Compute(ctx, topo, inputs[i])
		if err != nil {
			return errors.Wrapf(err, "batch item %d", i)
		}
		outs[i] = out
		return nil
	}, k.parallel)
	if err != nil {
		return nil, err
	}
	return outs, nil
}

// Bind adapts a transform to a RunFunc. The engine dispatch is recorded as an
// event on the span carried by ctx.
func Bind(f pad.Func) RunFunc {
	return func(ctx context.Context, e pad.Engine, topo octree.Topology, depth pad.Depth, input *tensor.Feature) (*tensor.Feature, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e == nil {
			e = pad.DefaultEngine
		}
		trace.SpanFromContext(ctx).AddEvent("dispatch",
			trace.WithAttributes(attribute.String("octpad.engine", e.Name())))
		return f(e, topo, depth, input)
	}
}
