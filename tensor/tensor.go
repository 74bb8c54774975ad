// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the feature tensors the octree transforms operate on.
//
// A feature tensor has shape [1, C, H] or [1, C, H, 1]: one batch, C channels
// and H octree nodes. Storage is channel-major, element (c, h) sits at
// Data()[c*H+h].
//
// Example:
//
//	x, _ := tensor.FromNodeMajor([][]float32{{1, 2}, {3, 4}}, 0, tensor.CPU)
//	x.Shape()     // [1 2 2]
//	x.At(1, 0)    // 2
package tensor

import (
	"github.com/born-ml/octpad/internal/tensor"
)

// Shape is the dimensions of a feature tensor.
type Shape = tensor.Shape

// Feature is a dense float32 feature tensor.
type Feature = tensor.Feature

// Device identifies where a tensor's kernels run.
type Device = tensor.Device

// Devices.
const (
	CPU    = tensor.CPU
	WebGPU = tensor.WebGPU
)

// Axes of a feature shape.
const (
	AxisBatch   = tensor.AxisBatch
	AxisChannel = tensor.AxisChannel
	AxisNode    = tensor.AxisNode
)

// UnknownDim marks a node axis whose length is not known yet.
const UnknownDim = tensor.UnknownDim

// NewFeature allocates a zeroed tensor of the given shape.
func NewFeature(shape Shape, device Device) (*Feature, error) {
	return tensor.NewFeature(shape, device)
}

// Zeros allocates a zeroed [1, channels, nodes] tensor.
func Zeros(channels, nodes int, device Device) (*Feature, error) {
	return tensor.Zeros(channels, nodes, device)
}

// FromData wraps channel-major data without copying.
func FromData(shape Shape, data []float32, device Device) (*Feature, error) {
	return tensor.FromData(shape, data, device)
}

// FromNodeMajor builds a [1, C, H] tensor from [node][channel] rows.
func FromNodeMajor(rows [][]float32, channels int, device Device) (*Feature, error) {
	return tensor.FromNodeMajor(rows, channels, device)
}

// Add returns a + b element-wise.
func Add(a, b *Feature) (*Feature, error) {
	return tensor.Add(a, b)
}

// Dot returns the inner product of a and b.
func Dot(a, b *Feature) (float64, error) {
	return tensor.Dot(a, b)
}
