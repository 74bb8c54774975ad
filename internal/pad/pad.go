// Package pad implements the octree pad and depad transforms.
//
// Pad scatters a compact feature tensor, one slot per non-empty node of a
// depth, into a dense tensor with one slot per node, zero-filling empty nodes:
//
//	dense[c, i] = compact[c, children[i]]   if children[i] >= 0
//	dense[c, i] = 0                         otherwise
//
// Depad is the matching gather. The two are adjoint linear maps, so each one
// is the gradient of the other with respect to its input; see PadOp and
// DepadOp in internal/autodiff/ops.
package pad

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/octpad/internal/backend/cpu"
	"github.com/born-ml/octpad/internal/octree"
	"github.com/born-ml/octpad/internal/parallel"
	"github.com/born-ml/octpad/internal/tensor"
)

// Engine executes the scatter and gather kernels.
//
// Both kernels receive shapes that were already validated: dst and src share
// the channel count, the dense side has len(children) nodes and the compact
// side has as many nodes as children has non-empty entries. dst is freshly
// allocated and owned by the caller.
type Engine interface {
	Name() string
	Device() tensor.Device

	// PadForward writes every element of the dense dst from the compact src.
	PadForward(dst, src *tensor.Feature, children octree.ChildrenIndex) error

	// PadBackward writes every element of the compact dst from the dense src.
	PadBackward(dst, src *tensor.Feature, children octree.ChildrenIndex) error
}

// DefaultEngine is used when a nil Engine is passed.
var DefaultEngine Engine = cpu.New()

// Pad expands a compact feature tensor of M(depth) nodes into a dense tensor
// of N(depth) nodes. The input is not modified.
func Pad(e Engine, topo octree.Topology, depth Depth, input *tensor.Feature) (*tensor.Feature, error) {
	return run(opPad, e, topo, depth, input)
}

// Depad contracts a dense feature tensor of N(depth) nodes into a compact
// tensor of M(depth) nodes, dropping empty nodes. The input is not modified.
func Depad(e Engine, topo octree.Topology, depth Depth, input *tensor.Feature) (*tensor.Feature, error) {
	return run(opDepad, e, topo, depth, input)
}

func run(op string, e Engine, topo octree.Topology, depth Depth, input *tensor.Feature) (*tensor.Feature, error) {
	if e == nil {
		e = DefaultEngine
	}
	if input == nil {
		return nil, errors.WithStack(&ShapeMismatchError{Op: op, Depth: int(depth), Detail: "nil input tensor"})
	}
	if topo == nil {
		return nil, errors.WithStack(&octree.TopologyError{Depth: int(depth), Reason: "no topology bound"})
	}

	var (
		outShape tensor.Shape
		err      error
	)
	if op == opPad {
		outShape, err = InferPadShape(topo, depth, input.Shape())
	} else {
		outShape, err = InferDepadShape(topo, depth, input.Shape())
	}
	if err != nil {
		return nil, err
	}

	children, err := topo.Children(int(depth))
	if err != nil {
		return nil, err
	}
	dense, compact := outShape[tensor.AxisNode], input.Nodes()
	if op == opDepad {
		dense, compact = compact, dense
	}
	if len(children) != dense {
		return nil, errors.WithStack(&octree.TopologyError{
			Depth:  int(depth),
			Reason: fmt.Sprintf("children index has %d entries, node count is %d", len(children), dense),
		})
	}
	if err := children.Validate(compact); err != nil {
		return nil, errors.WithStack(&octree.TopologyError{Depth: int(depth), Reason: err.Error()})
	}

	out, err := tensor.NewFeature(outShape, e.Device())
	if err != nil {
		return nil, errors.Wrapf(err, "%s: allocate output", op)
	}
	if out.NumElements() == 0 {
		return out, nil
	}

	if op == opPad {
		err = e.PadForward(out, input, children)
	} else {
		err = e.PadBackward(out, input, children)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "%s: %s engine", op, e.Name())
	}
	return out, nil
}

// PadBatch pads several compact tensors of the same depth concurrently.
// Results are returned in input order; on error no results are returned.
func PadBatch(ctx context.Context, e Engine, topo octree.Topology, depth Depth, inputs []*tensor.Feature) ([]*tensor.Feature, error) {
	return runBatch(ctx, Pad, e, topo, depth, inputs)
}

// DepadBatch depads several dense tensors of the same depth concurrently.
// Results are returned in input order; on error no results are returned.
func DepadBatch(ctx context.Context, e Engine, topo octree.Topology, depth Depth, inputs []*tensor.Feature) ([]*tensor.Feature, error) {
	return runBatch(ctx, Depad, e, topo, depth, inputs)
}

// Func is the signature shared by Pad and Depad.
type Func func(e Engine, topo octree.Topology, depth Depth, input *tensor.Feature) (*tensor.Feature, error)

func runBatch(ctx context.Context, f Func, e Engine, topo octree.Topology, depth Depth, inputs []*tensor.Feature) ([]*tensor.Feature, error) {
	if err := depth.Validate(); err != nil {
		return nil, err
	}
	outs := make([]*tensor.Feature, len(inputs))
	err := parallel.Each(ctx, len(inputs), func(_ context.Context, i int) error {
		out, err := f(e, topo, depth, inputs[i])
		if err != nil {
			return errors.Wrapf(err, "batch item %d", i)
		}
		outs[i] = out
		return nil
	}, parallel.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return outs, nil
}
