// Package cpu implements the pad and depad kernels on the CPU.
package cpu

import (
	"github.com/pkg/errors"

	"github.com/born-ml/octpad/internal/octree"
	"github.com/born-ml/octpad/internal/parallel"
	"github.com/born-ml/octpad/internal/tensor"
)

// CPUBackend runs the kernels as a chunked parallel map over output elements.
type CPUBackend struct {
	device tensor.Device
	cfg    parallel.Config
}

// New creates a CPU backend using parallel.DefaultConfig.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		cfg:    cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Config returns the parallelism settings.
func (cpu *CPUBackend) Config() parallel.Config {
	return cpu.cfg
}

// PadForward scatters the compact src into the dense dst.
//
// Work is split over the C*N dense elements; element (c, i) reads at most one
// compact element and no two elements share an output, so chunks need no
// synchronization.
func (cpu *CPUBackend) PadForward(dst, src *tensor.Feature, children octree.ChildrenIndex) error {
	if err := checkKernelShapes(dst, src, len(children)); err != nil {
		return errors.Wrap(err, "pad forward")
	}

	denseH := dst.Nodes()
	compactH := src.Nodes()
	out := dst.Data()
	in := src.Data()

	parallel.ForRange(len(out), func(start, end int) {
		c, h := start/denseH, start%denseH
		base := c * compactH
		for idx := start; idx < end; idx++ {
			if k, ok := children.Rank(h); ok {
				out[idx] = in[base+k]
			} else {
				out[idx] = 0
			}
			h++
			if h == denseH {
				h = 0
				c++
				base = c * compactH
			}
		}
	}, cpu.cfg)
	return nil
}

// PadBackward gathers the non-empty nodes of the dense src into the compact dst.
//
// It walks dense elements and writes element (c, children[i]) whenever node i
// is non-empty. Because children is a bijection onto the compact ranks each
// compact element is written exactly once.
func (cpu *CPUBackend) PadBackward(dst, src *tensor.Feature, children octree.ChildrenIndex) error {
	if err := checkKernelShapes(src, dst, len(children)); err != nil {
		return errors.Wrap(err, "pad backward")
	}

	denseH := src.Nodes()
	compactH := dst.Nodes()
	out := dst.Data()
	in := src.Data()

	parallel.ForRange(len(in), func(start, end int) {
		c, h := start/denseH, start%denseH
		base := c * compactH
		for idx := start; idx < end; idx++ {
			if k, ok := children.Rank(h); ok {
				out[base+k] = in[idx]
			}
			h++
			if h == denseH {
				h = 0
				c++
				base = c * compactH
			}
		}
	}, cpu.cfg)
	return nil
}

func checkKernelShapes(dense, compact *tensor.Feature, childrenLen int) error {
	if dense.Channels() != compact.Channels() {
		return errors.Errorf("channel mismatch: dense %d, compact %d", dense.Channels(), compact.Channels())
	}
	if dense.Nodes() != childrenLen {
		return errors.Errorf("dense tensor has %d nodes, children index has %d", dense.Nodes(), childrenLen)
	}
	return nil
}
