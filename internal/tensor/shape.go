// Package tensor provides the feature tensor type carried through octree pad and depad.
package tensor

import (
	"github.com/pkg/errors"
)

// Axes of a feature tensor.
const (
	AxisBatch   = 0
	AxisChannel = 1
	AxisNode    = 2
)

// UnknownDim marks a dimension whose size is only known once an octree is bound.
const UnknownDim = -1

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
// A zero-length node axis yields 0.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// ValidateFeature checks that s describes a feature tensor:
// [1, C, H] or [1, C, H, 1], with C > 0 and H >= 0.
//
// The node axis may be UnknownDim when allowUnknown is set, which is what
// shape inference sees before an octree is attached.
func (s Shape) ValidateFeature(allowUnknown bool) error {
	if len(s) != 3 && len(s) != 4 {
		return errors.Errorf("feature tensor must have rank 3 or 4, got shape %v", []int(s))
	}
	if s[AxisBatch] != 1 {
		return errors.Errorf("feature tensor batch axis must be 1, got shape %v", []int(s))
	}
	if s[AxisChannel] <= 0 {
		return errors.Errorf("feature tensor needs at least one channel, got shape %v", []int(s))
	}
	h := s[AxisNode]
	if h < 0 && !(allowUnknown && h == UnknownDim) {
		return errors.Errorf("invalid node axis %d in shape %v", h, []int(s))
	}
	if len(s) == 4 && s[3] != 1 {
		return errors.Errorf("rank-4 feature tensor must have a trailing axis of 1, got shape %v", []int(s))
	}
	return nil
}

// WithNodes returns a copy of the shape with the node axis replaced.
func (s Shape) WithNodes(h int) Shape {
	out := s.Clone()
	out[AxisNode] = h
	return out
}
