// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/octpad/internal/backend/cpu"
	"github.com/born-ml/octpad/internal/parallel"
	"github.com/born-ml/octpad/pad"
)

// Backend represents the CPU engine.
type Backend = internalcpu.CPUBackend

// Config controls parallel execution.
type Config = parallel.Config

// Compile-time check that Backend implements pad.Engine.
var _ pad.Engine = (*Backend)(nil)

// New creates a CPU engine with the default parallel configuration.
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU engine with explicit parallelism settings.
//
// Example:
//
//	engine := cpu.NewWithConfig(cpu.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 4096})
func NewWithConfig(cfg Config) *Backend {
	return internalcpu.NewWithConfig(cfg)
}

// DefaultConfig returns the default parallel configuration.
func DefaultConfig() Config {
	return parallel.DefaultConfig()
}
