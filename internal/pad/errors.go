package pad

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors matched by the typed errors below.
var (
	ErrConfig        = errors.New("invalid octree pad configuration")
	ErrShapeMismatch = errors.New("feature shape does not match octree")
)

// ConfigError reports a depth attribute outside the supported range.
// It is raised when an operator is constructed, never during a call.
type ConfigError struct {
	Depth int
	Min   int
	Max   int
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("octree depth %d outside [%d, %d]", e.Depth, e.Min, e.Max)
}

// Is makes errors.Is(err, ErrConfig) true.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// ShapeMismatchError reports an input whose node axis (or overall shape) does
// not match what the octree expects at the requested depth.
type ShapeMismatchError struct {
	Op     string // "pad" or "depad"
	Depth  int
	Got    int    // node-axis length supplied
	Want   int    // node-axis length expected
	Detail string // set for malformed shapes instead of Got/Want
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: depth %d: %s", e.Op, e.Depth, e.Detail)
	}
	return fmt.Sprintf("%s: depth %d: input has %d nodes, octree expects %d", e.Op, e.Depth, e.Got, e.Want)
}

// Is makes errors.Is(err, ErrShapeMismatch) true.
func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}
