// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pad provides the octree pad and depad transforms.
//
// Pad scatters a compact [1, C, M] feature tensor into a dense [1, C, N]
// tensor, writing zeros for empty nodes. Depad gathers the non-empty rows
// back. Each is the gradient of the other.
//
// Example:
//
//	depth, _ := pad.ParseDepth(3)
//	dense, err := pad.Pad(cpu.New(), topo, depth, compact)
//	compact2, err := pad.Depad(cpu.New(), topo, depth, dense)
package pad

import (
	"context"

	"github.com/born-ml/octpad/internal/pad"
	"github.com/born-ml/octpad/octree"
	"github.com/born-ml/octpad/tensor"
)

// Engine executes the scatter and gather kernels.
type Engine = pad.Engine

// Func is the signature shared by Pad and Depad.
type Func = pad.Func

// Depth is a validated octree depth.
type Depth = pad.Depth

// ConfigError reports a depth outside [1, octree.MaxDepth].
type ConfigError = pad.ConfigError

// ShapeMismatchError reports an input that does not match the octree.
type ShapeMismatchError = pad.ShapeMismatchError

// Sentinel errors.
var (
	ErrConfig        = pad.ErrConfig
	ErrShapeMismatch = pad.ErrShapeMismatch
)

// ParseDepth validates d as an octree depth.
func ParseDepth(d int) (Depth, error) {
	return pad.ParseDepth(d)
}

// Pad expands compact features of M(depth) nodes to N(depth) nodes.
// A nil engine runs on the CPU.
func Pad(e Engine, topo octree.Topology, depth Depth, input *tensor.Feature) (*tensor.Feature, error) {
	return pad.Pad(e, topo, depth, input)
}

// Depad contracts dense features of N(depth) nodes to M(depth) nodes.
// A nil engine runs on the CPU.
func Depad(e Engine, topo octree.Topology, depth Depth, input *tensor.Feature) (*tensor.Feature, error) {
	return pad.Depad(e, topo, depth, input)
}

// PadBatch pads several tensors concurrently.
func PadBatch(ctx context.Context, e Engine, topo octree.Topology, depth Depth, inputs []*tensor.Feature) ([]*tensor.Feature, error) {
	return pad.PadBatch(ctx, e, topo, depth, inputs)
}

// DepadBatch depads several tensors concurrently.
func DepadBatch(ctx context.Context, e Engine, topo octree.Topology, depth Depth, inputs []*tensor.Feature) ([]*tensor.Feature, error) {
	return pad.DepadBatch(ctx, e, topo, depth, inputs)
}

// InferPadShape returns the output shape of Pad. A nil topology leaves the
// node axis as tensor.UnknownDim.
func InferPadShape(topo octree.Topology, depth Depth, in tensor.Shape) (tensor.Shape, error) {
	return pad.InferPadShape(topo, depth, in)
}

// InferDepadShape returns the output shape of Depad. A nil topology leaves
// the node axis as tensor.UnknownDim.
func InferDepadShape(topo octree.Topology, depth Depth, in tensor.Shape) (tensor.Shape, error) {
	return pad.InferDepadShape(topo, depth, in)
}
