package tensor

import (
	"github.com/pkg/errors"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// Feature is a per-node float32 feature tensor of shape [1, C, H] or [1, C, H, 1].
//
// Storage is channel-major: element (c, h) lives at data[c*H + h], so every
// channel is a contiguous run over the node axis.
type Feature struct {
	shape  Shape
	data   []float32
	device Device
}

// NewFeature allocates a zero-filled feature tensor.
func NewFeature(shape Shape, device Device) (*Feature, error) {
	if err := shape.ValidateFeature(false); err != nil {
		return nil, errors.Wrap(err, "invalid shape")
	}
	return &Feature{
		shape:  shape.Clone(),
		data:   make([]float32, shape.NumElements()),
		device: device,
	}, nil
}

// Zeros allocates a zero-filled rank-3 feature tensor with the given channel
// and node counts.
func Zeros(channels, nodes int, device Device) (*Feature, error) {
	return NewFeature(Shape{1, channels, nodes}, device)
}

// FromData wraps data as a feature tensor without copying.
// len(data) must match the shape.
func FromData(shape Shape, data []float32, device Device) (*Feature, error) {
	if err := shape.ValidateFeature(false); err != nil {
		return nil, errors.Wrap(err, "invalid shape")
	}
	if n := shape.NumElements(); len(data) != n {
		return nil, errors.Errorf("data length %d does not match shape %v (%d elements)", len(data), []int(shape), n)
	}
	return &Feature{shape: shape.Clone(), data: data, device: device}, nil
}

// FromNodeMajor builds a rank-3 feature tensor from rows indexed [node][channel],
// the layout most callers write literals in. Every row must have the same length.
// An empty rows slice needs channels > 0 to describe the tensor.
func FromNodeMajor(rows [][]float32, channels int, device Device) (*Feature, error) {
	if len(rows) > 0 {
		channels = len(rows[0])
	}
	f, err := Zeros(channels, len(rows), device)
	if err != nil {
		return nil, err
	}
	for h, row := range rows {
		if len(row) != channels {
			return nil, errors.Errorf("row %d has %d channels, expected %d", h, len(row), channels)
		}
		for c, v := range row {
			f.Set(c, h, v)
		}
	}
	return f, nil
}

// Shape returns the tensor's shape.
func (f *Feature) Shape() Shape {
	return f.shape
}

// Device returns the tensor's compute device.
func (f *Feature) Device() Device {
	return f.device
}

// Channels returns C.
func (f *Feature) Channels() int {
	return f.shape[AxisChannel]
}

// Nodes returns H, the length of the node axis.
func (f *Feature) Nodes() int {
	return f.shape[AxisNode]
}

// NumElements returns the total number of elements.
func (f *Feature) NumElements() int {
	return len(f.data)
}

// ByteSize returns the total memory size in bytes.
func (f *Feature) ByteSize() int {
	return len(f.data) * 4
}

// Data returns the underlying channel-major buffer.
// WARNING: Direct access to underlying memory. Use with caution.
func (f *Feature) Data() []float32 {
	return f.data
}

// Channel returns the contiguous slice holding channel c.
func (f *Feature) Channel(c int) []float32 {
	h := f.Nodes()
	return f.data[c*h : (c+1)*h]
}

// At returns element (c, h).
func (f *Feature) At(c, h int) float32 {
	return f.data[c*f.Nodes()+h]
}

// Set writes element (c, h).
func (f *Feature) Set(c, h int, v float32) {
	f.data[c*f.Nodes()+h] = v
}

// Node returns the feature vector of node h across all channels.
func (f *Feature) Node(h int) []float32 {
	out := make([]float32, f.Channels())
	for c := range out {
		out[c] = f.At(c, h)
	}
	return out
}

// NodeMajor returns a [node][channel] copy of the tensor.
func (f *Feature) NodeMajor() [][]float32 {
	rows := make([][]float32, f.Nodes())
	for h := range rows {
		rows[h] = f.Node(h)
	}
	return rows
}

// Clone returns a deep copy.
func (f *Feature) Clone() *Feature {
	data := make([]float32, len(f.data))
	copy(data, f.data)
	return &Feature{shape: f.shape.Clone(), data: data, device: f.device}
}

// Add returns a + b element-wise. Shapes must match.
func Add(a, b *Feature) (*Feature, error) {
	if !a.shape.Equal(b.shape) {
		return nil, errors.Errorf("add: shape mismatch %v vs %v", []int(a.shape), []int(b.shape))
	}
	out := a.Clone()
	for i, v := range b.data {
		out.data[i] += v
	}
	return out, nil
}

// Dot returns the inner product of two tensors of equal shape, accumulated in float64.
func Dot(a, b *Feature) (float64, error) {
	if !a.shape.Equal(b.shape) {
		return 0, errors.Errorf("dot: shape mismatch %v vs %v", []int(a.shape), []int(b.shape))
	}
	var sum float64
	for i, v := range a.data {
		sum += float64(v) * float64(b.data[i])
	}
	return sum, nil
}
