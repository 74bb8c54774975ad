//go:build !windows

package webgpu

import (
	"github.com/born-ml/octpad/internal/octree"
	"github.com/born-ml/octpad/internal/tensor"
)

// Backend is a placeholder on platforms without the native WebGPU library.
type Backend struct{}

// New always fails with ErrUnavailable on this platform.
func New() (*Backend, error) {
	return nil, ErrUnavailable
}

// IsAvailable reports whether WebGPU can be used.
func IsAvailable() bool {
	return false
}

// Release is a no-op.
func (b *Backend) Release() {}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "WebGPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// PadForward returns ErrUnavailable.
func (b *Backend) PadForward(_, _ *tensor.Feature, _ octree.ChildrenIndex) error {
	return ErrUnavailable
}

// PadBackward returns ErrUnavailable.
func (b *Backend) PadBackward(_, _ *tensor.Feature, _ octree.ChildrenIndex) error {
	return ErrUnavailable
}
