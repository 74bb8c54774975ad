// Package autodiff records octree pad and depad calls on a GradientTape so
// their gradients can be computed in reverse mode.
//
// Architecture:
//   - Decorator pattern: Backend wraps any pad.Engine (CPU, WebGPU)
//   - GradientTape: Records operations during forward pass
//   - ops.PadOp / ops.DepadOp: each one's backward pass is the other transform
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	dense, _ := backend.Pad(topo, depth, compact)
//	grads, _ := backend.Tape().Backward(lossGrad, backend.Inner())
//	gradCompact := grads[compact]
package autodiff

import (
	"github.com/born-ml/octpad/internal/autodiff/ops"
	"github.com/born-ml/octpad/internal/octree"
	"github.com/born-ml/octpad/internal/pad"
	"github.com/born-ml/octpad/internal/tensor"
)

// Backend wraps a pad.Engine and records pad and depad calls on its tape.
type Backend struct {
	inner pad.Engine    // Wrapped engine (CPU, WebGPU)
	tape  *GradientTape // Records operations for backpropagation
}

// New creates a new Backend wrapping the given engine.
// A nil engine uses pad.DefaultEngine.
func New(engine pad.Engine) *Backend {
	if engine == nil {
		engine = pad.DefaultEngine
	}
	return &Backend{
		inner: engine,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
func (b *Backend) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped engine.
func (b *Backend) Inner() pad.Engine {
	return b.inner
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return b.inner.Device()
}

// Pad runs pad.Pad and records the operation.
func (b *Backend) Pad(topo octree.Topology, depth pad.Depth, input *tensor.Feature) (*tensor.Feature, error) {
	out, err := pad.Pad(b.inner, topo, depth, input)
	if err != nil {
		return nil, err
	}
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewPadOp(input, out, topo, depth))
	}
	return out, nil
}

// Depad runs pad.Depad and records the operation.
func (b *Backend) Depad(topo octree.Topology, depth pad.Depth, input *tensor.Feature) (*tensor.Feature, error) {
	out, err := pad.Depad(b.inner, topo, depth, input)
	if err != nil {
		return nil, err
	}
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDepadOp(input, out, topo, depth))
	}
	return out, nil
}
