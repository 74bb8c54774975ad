package pad

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/octpad/internal/octree"
	"github.com/born-ml/octpad/internal/tensor"
)

const (
	opPad   = "pad"
	opDepad = "depad"
)

// Depth is a validated octree depth attribute, fixed per operator instance.
type Depth int

// ParseDepth validates d against [1, octree.MaxDepth].
func ParseDepth(d int) (Depth, error) {
	if err := Depth(d).Validate(); err != nil {
		return 0, err
	}
	return Depth(d), nil
}

// Validate returns a ConfigError when d is outside [1, octree.MaxDepth].
func (d Depth) Validate() error {
	if d < 1 || d > octree.MaxDepth {
		return errors.WithStack(&ConfigError{Depth: int(d), Min: 1, Max: octree.MaxDepth})
	}
	return nil
}

// Int returns d as an int.
func (d Depth) Int() int {
	return int(d)
}

// counts returns N(depth) and M(depth), rejecting a topology that breaks M <= N.
func counts(topo octree.Topology, depth Depth) (n, m int, err error) {
	if n, err = topo.NodeCount(int(depth)); err != nil {
		return 0, 0, err
	}
	if m, err = topo.NonEmptyNodeCount(int(depth)); err != nil {
		return 0, 0, err
	}
	if m < 0 || m > n {
		return 0, 0, errors.WithStack(&octree.TopologyError{
			Depth:  int(depth),
			Reason: fmt.Sprintf("non-empty count %d outside [0, %d]", m, n),
		})
	}
	return n, m, nil
}

// ValidatePad checks a compact input of inputNodes nodes against M(depth) and
// returns the dense output length N(depth).
func ValidatePad(topo octree.Topology, depth Depth, inputNodes int) (int, error) {
	n, m, err := counts(topo, depth)
	if err != nil {
		return 0, err
	}
	if inputNodes != m {
		return 0, errors.WithStack(&ShapeMismatchError{Op: opPad, Depth: int(depth), Got: inputNodes, Want: m})
	}
	return n, nil
}

// ValidateDepad checks a dense input of inputNodes nodes against N(depth) and
// returns the compact output length M(depth).
func ValidateDepad(topo octree.Topology, depth Depth, inputNodes int) (int, error) {
	n, m, err := counts(topo, depth)
	if err != nil {
		return 0, err
	}
	if inputNodes != n {
		return 0, errors.WithStack(&ShapeMismatchError{Op: opDepad, Depth: int(depth), Got: inputNodes, Want: n})
	}
	return m, nil
}

// InferPadShape returns the output shape of pad for an input of shape in.
// With a nil topology the node axis of the result is tensor.UnknownDim.
func InferPadShape(topo octree.Topology, depth Depth, in tensor.Shape) (tensor.Shape, error) {
	return inferShape(opPad, ValidatePad, topo, depth, in)
}

// InferDepadShape returns the output shape of depad for an input of shape in.
// With a nil topology the node axis of the result is tensor.UnknownDim.
func InferDepadShape(topo octree.Topology, depth Depth, in tensor.Shape) (tensor.Shape, error) {
	return inferShape(opDepad, ValidateDepad, topo, depth, in)
}

func inferShape(
	op string,
	validate func(octree.Topology, Depth, int) (int, error),
	topo octree.Topology,
	depth Depth,
	in tensor.Shape,
) (tensor.Shape, error) {
	if err := depth.Validate(); err != nil {
		return nil, err
	}
	if err := in.ValidateFeature(topo == nil); err != nil {
		return nil, errors.WithStack(&ShapeMismatchError{Op: op, Depth: int(depth), Detail: err.Error()})
	}
	if topo == nil {
		return in.WithNodes(tensor.UnknownDim), nil
	}
	out, err := validate(topo, depth, in[tensor.AxisNode])
	if err != nil {
		return nil, err
	}
	return in.WithNodes(out), nil
}
