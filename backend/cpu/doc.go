// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go engine for the octree transforms.
//
// # Overview
//
// The engine maps over output elements in parallel chunks:
//   - Pure Go implementation (no CGO)
//   - One goroutine per chunk, no shared writes
//   - Falls back to a single loop below the minimum chunk size
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/octpad/backend/cpu"
//	    "github.com/born-ml/octpad/pad"
//	)
//
//	func main() {
//	    engine := cpu.New()
//	    dense, err := pad.Pad(engine, topo, depth, compact)
//	}
//
// For GPU execution, see the webgpu package.
package cpu
