// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU engine for the octree transforms.
//
// The kernels run as WGSL compute shaders. The native library is available
// on windows builds; on other platforms New returns ErrUnavailable.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	dense, err := pad.Pad(gpu, topo, depth, compact)
package webgpu

import (
	internalwebgpu "github.com/born-ml/octpad/internal/backend/webgpu"
	"github.com/born-ml/octpad/pad"
)

// Backend represents the WebGPU engine.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements pad.Engine.
var _ pad.Engine = (*Backend)(nil)

// ErrUnavailable is returned when no WebGPU adapter can be used.
var ErrUnavailable = internalwebgpu.ErrUnavailable

// New creates a new WebGPU engine. Call Release when done.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
