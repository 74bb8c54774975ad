// Package webgpu implements the pad and depad kernels as WGSL compute shaders.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// The GPU path is built on windows only, where the native wgpu library is
// loaded at runtime. Elsewhere New returns ErrUnavailable.
package webgpu

import "github.com/pkg/errors"

// ErrUnavailable is returned when no WebGPU adapter can be used.
var ErrUnavailable = errors.New("webgpu: not available")
