// Package ops defines differentiable operations recorded by the gradient tape.
//
// Each operation implements the Operation interface, which provides:
//   - Forward pass: computed by a pad.Engine before the op is recorded
//   - Backward pass: computes gradients for inputs given output gradient
//
// Supported operations:
//   - PadOp: octree pad (d pad(x)/dx applied to g = depad(g))
//   - DepadOp: octree depad (d depad(y)/dy applied to g = pad(g))
package ops

import (
	"github.com/born-ml/octpad/internal/pad"
	"github.com/born-ml/octpad/internal/tensor"
)

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor.
	Backward(outputGrad *tensor.Feature, engine pad.Engine) ([]*tensor.Feature, error)

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.Feature

	// Output returns the output tensor produced by this operation.
	Output() *tensor.Feature
}
