// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package op exposes the transforms as named host operators, OctreePad and
// OctreeDepad, configured from an attribute map.
//
// Example:
//
//	r := op.NewRegistry()
//	k, err := r.New(op.OctreePad, map[string]any{"depth": 3}, op.WithLogger(logger))
//	dense, err := k.Compute(ctx, topo, compact)
package op

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/born-ml/octpad/internal/op"
	"github.com/born-ml/octpad/internal/parallel"
	"github.com/born-ml/octpad/pad"
)

// Registered op types.
const (
	OctreePad   = op.OctreePad
	OctreeDepad = op.OctreeDepad
)

// Registry maps op types to definitions.
type Registry = op.Registry

// Definition describes one operator.
type Definition = op.Definition

// RunFunc executes an operator with the calling Kernel's span in ctx.
type RunFunc = op.RunFunc

// ParallelConfig controls how ComputeBatch fans out.
type ParallelConfig = parallel.Config

// Kernel is an operator bound to one depth.
type Kernel = op.Kernel

// Option configures a Kernel.
type Option = op.Option

// Attributes are the decoded operator attributes.
type Attributes = op.Attributes

// Bind adapts pad.Pad, pad.Depad or another transform to a RunFunc.
func Bind(f pad.Func) RunFunc {
	return op.Bind(f)
}

// NewRegistry creates a registry with both transforms registered.
func NewRegistry() *Registry {
	return op.NewRegistry()
}

// DecodeAttributes decodes a host attribute map.
func DecodeAttributes(raw map[string]any) (Attributes, error) {
	return op.DecodeAttributes(raw)
}

// WithEngine sets the execution engine.
func WithEngine(e pad.Engine) Option {
	return op.WithEngine(e)
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return op.WithLogger(l)
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return op.WithTracerProvider(tp)
}

// WithParallel sets the fan-out used by ComputeBatch.
func WithParallel(cfg ParallelConfig) Option {
	return op.WithParallel(cfg)
}

// DefaultParallelConfig returns the ComputeBatch fan-out used when
// WithParallel is not given.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}
