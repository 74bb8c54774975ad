package ops

import (
	"github.com/pkg/errors"

	"github.com/born-ml/octpad/internal/octree"
	"github.com/born-ml/octpad/internal/pad"
	"github.com/born-ml/octpad/internal/tensor"
)

// PadOp represents an octree pad (compact -> dense scatter with zero fill).
//
// Forward: output = Pad(input, children(depth))
//
// Backward:
//
//	Pad is linear and its transpose is Depad, so gradInput = Depad(gradOutput).
//	Gradient routed to zero-filled slots is discarded, matching the fact that
//	those slots do not depend on the input.
//
// Example:
//
//	children:   [-1, 0, -1, 1]
//	input:      [a, b]
//	output:     [0, a, 0, b]
//	gradOutput: [g0, g1, g2, g3]
//	gradInput:  [g1, g3]
type PadOp struct {
	input  *tensor.Feature
	output *tensor.Feature
	topo   octree.Topology
	depth  pad.Depth
}

// NewPadOp creates a new pad operation.
func NewPadOp(input, output *tensor.Feature, topo octree.Topology, depth pad.Depth) *PadOp {
	return &PadOp{input: input, output: output, topo: topo, depth: depth}
}

// Inputs returns the compact input tensor.
func (op *PadOp) Inputs() []*tensor.Feature {
	return []*tensor.Feature{op.input}
}

// Output returns the dense output tensor.
func (op *PadOp) Output() *tensor.Feature {
	return op.output
}

// Backward depads the output gradient.
func (op *PadOp) Backward(gradOutput *tensor.Feature, engine pad.Engine) ([]*tensor.Feature, error) {
	grad, err := pad.Depad(engine, op.topo, op.depth, gradOutput)
	if err != nil {
		return nil, errors.Wrap(err, "pad backward")
	}
	return []*tensor.Feature{grad}, nil
}

// DepadOp represents an octree depad (dense -> compact gather).
//
// Forward: output = Depad(input, children(depth))
//
// Backward:
//
//	gradInput = Pad(gradOutput): every compact gradient flows back to the one
//	dense slot it was gathered from; empty slots receive zero.
type DepadOp struct {
	input  *tensor.Feature
	output *tensor.Feature
	topo   octree.Topology
	depth  pad.Depth
}

// NewDepadOp creates a new depad operation.
func NewDepadOp(input, output *tensor.Feature, topo octree.Topology, depth pad.Depth) *DepadOp {
	return &DepadOp{input: input, output: output, topo: topo, depth: depth}
}

// Inputs returns the dense input tensor.
func (op *DepadOp) Inputs() []*tensor.Feature {
	return []*tensor.Feature{op.input}
}

// Output returns the compact output tensor.
func (op *DepadOp) Output() *tensor.Feature {
	return op.output
}

// Backward pads the output gradient.
func (op *DepadOp) Backward(gradOutput *tensor.Feature, engine pad.Engine) ([]*tensor.Feature, error) {
	grad, err := pad.Pad(engine, op.topo, op.depth, gradOutput)
	if err != nil {
		return nil, errors.Wrap(err, "depad backward")
	}
	return []*tensor.Feature{grad}, nil
}
