// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode differentiation through the octree
// transforms.
//
// Backend wraps any engine and records Pad and Depad calls on a gradient
// tape. Backward walks the tape in reverse: the gradient of Pad is Depad of
// the output gradient and vice versa.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	dense, _ := backend.Pad(topo, depth, compact)
//	grads, _ := backend.Tape().Backward(lossGrad, backend.Inner())
//	gradCompact := grads[compact]
package autodiff

import (
	"github.com/born-ml/octpad/internal/autodiff"
	"github.com/born-ml/octpad/pad"
)

// Backend is the recording decorator.
type Backend = autodiff.Backend

// GradientTape records operations for the backward pass.
type GradientTape = autodiff.GradientTape

// New wraps engine with gradient recording. A nil engine runs on the CPU.
func New(engine pad.Engine) *Backend {
	return autodiff.New(engine)
}

// NewGradientTape creates an empty, non-recording tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}
