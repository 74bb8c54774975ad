// Package op exposes the octree transforms as named host operators.
//
// A host graph refers to the transforms by op type ("OctreePad",
// "OctreeDepad") and supplies attributes as a loosely typed map. The
// Registry resolves the op type, decodes and validates the attributes once,
// and returns a Kernel bound to one depth:
//
//	r := op.NewRegistry()
//	k, err := r.New("OctreePad", map[string]any{"depth": 3}, op.WithLogger(logger))
//	dense, err := k.Compute(ctx, topo, compact)
package op

import (
	"context"
	"math"
	"reflect"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"github.com/born-ml/octpad/internal/octree"
	"github.com/born-ml/octpad/internal/pad"
	"github.com/born-ml/octpad/internal/tensor"
)

// Registered op types.
const (
	OctreePad   = "OctreePad"
	OctreeDepad = "OctreeDepad"
)

// ShapeFunc infers an output shape from an input shape.
type ShapeFunc func(topo octree.Topology, depth pad.Depth, in tensor.Shape) (tensor.Shape, error)

// RunFunc executes an operator. ctx carries the span of the calling Kernel.
type RunFunc func(ctx context.Context, e pad.Engine, topo octree.Topology, depth pad.Depth, input *tensor.Feature) (*tensor.Feature, error)

// Definition describes one operator.
type Definition struct {
	Run      RunFunc
	Infer    ShapeFunc
	Gradient string // op type computing this op's input gradient
}

// Registry maps op types to definitions.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry creates a registry with OctreePad and OctreeDepad registered.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	r.Register(OctreePad, Definition{Run: Bind(pad.Pad), Infer: pad.InferPadShape, Gradient: OctreeDepad})
	r.Register(OctreeDepad, Definition{Run: Bind(pad.Depad), Infer: pad.InferDepadShape, Gradient: OctreePad})
	return r
}

// Register adds or replaces an operator definition.
func (r *Registry) Register(opType string, def Definition) {
	r.defs[opType] = def
}

// Get returns the definition for an op type.
func (r *Registry) Get(opType string) (Definition, bool) {
	def, ok := r.defs[opType]
	return def, ok
}

// SupportedOps returns the registered op types in sorted order.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0, len(r.defs))
	for op := range r.defs {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// GradientOf returns the op type computing the input gradient of opType.
func (r *Registry) GradientOf(opType string) (string, bool) {
	def, ok := r.defs[opType]
	if !ok || def.Gradient == "" {
		return "", false
	}
	return def.Gradient, true
}

// New constructs a kernel for opType. The depth attribute is decoded and
// validated here, so a bad depth fails before any tensor is seen.
func (r *Registry) New(opType string, attrs map[string]any, opts ...Option) (*Kernel, error) {
	def, ok := r.defs[opType]
	if !ok {
		return nil, errors.Errorf("unsupported operator: %s", opType)
	}
	a, err := DecodeAttributes(attrs)
	if err != nil {
		return nil, errors.Wrap(err, opType)
	}
	depth, err := pad.ParseDepth(a.Depth)
	if err != nil {
		return nil, errors.Wrap(err, opType)
	}
	return newKernel(opType, def, depth, opts), nil
}

// Attributes are the operator attributes shared by both transforms.
type Attributes struct {
	Depth int `json:"depth"`
}

// DecodeAttributes decodes a host attribute map. Numeric strings, integer
// types and integral floats are accepted for depth; a fractional depth, a
// missing depth or an unknown key is an error matching pad.ErrConfig.
func DecodeAttributes(raw map[string]any) (Attributes, error) {
	var a Attributes
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(integralFloatHook),
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ErrorUnset:       true,
		Result:           &a,
	})
	if err != nil {
		return Attributes{}, errors.Wrap(err, "attribute decoder")
	}
	if err := dec.Decode(raw); err != nil {
		return Attributes{}, errors.WithMessagef(pad.ErrConfig, "decode attributes: %v", err)
	}
	return a, nil
}

// integralFloatHook stops weak decoding from truncating a fractional float
// into an integer field.
func integralFloatHook(from, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	var v float64
	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
		v = reflect.ValueOf(data).Float()
	default:
		return data, nil
	}
	if math.Trunc(v) != v {
		return nil, errors.Errorf("%v is not an integer", data)
	}
	return data, nil
}
