package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/octpad/internal/autodiff/ops"
	"github.com/born-ml/octpad/internal/pad"
	"github.com/born-ml/octpad/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic differentiation.
//
// Usage:
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	// ... perform operations ...
//	gradients, err := tape.Backward(outputGrad, engine)
type GradientTape struct {
	operations []ops.Operation // Recorded operations (in execution order)
	recording  bool            // Whether tape is currently recording
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 16),
		recording:  false,
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape.
// Only records if the tape is currently recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear resets the tape, removing all recorded operations.
// Recording state is preserved.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Backward computes gradients for all inputs by walking the tape in reverse.
//
// outputGrad is the gradient of the last recorded operation's output.
// Gradients reaching the same tensor from several operations are summed.
// Returns a map from tensor to its accumulated gradient.
func (t *GradientTape) Backward(outputGrad *tensor.Feature, engine pad.Engine) (map[*tensor.Feature]*tensor.Feature, error) {
	grads := make(map[*tensor.Feature]*tensor.Feature)
	if len(t.operations) == 0 {
		return grads, nil
	}

	// Stop recording during backward pass to prevent recording gradient operations
	wasRecording := t.recording
	t.recording = false
	defer func() {
		t.recording = wasRecording
	}()

	lastOp := t.operations[len(t.operations)-1]
	if !lastOp.Output().Shape().Equal(outputGrad.Shape()) {
		return nil, errors.Errorf("output gradient shape %v does not match output shape %v",
			[]int(outputGrad.Shape()), []int(lastOp.Output().Shape()))
	}
	grads[lastOp.Output()] = outputGrad

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		opGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}
		inputGrads, err := op.Backward(opGrad, engine)
		if err != nil {
			return nil, errors.Wrapf(err, "backward through op %d", i)
		}
		if err := accumulate(op.Inputs(), inputGrads, grads); err != nil {
			return nil, err
		}
	}
	return grads, nil
}

// accumulate adds each input gradient into grads.
func accumulate(inputs, inputGrads []*tensor.Feature, grads map[*tensor.Feature]*tensor.Feature) error {
	for j, input := range inputs {
		if j >= len(inputGrads) || inputGrads[j] == nil {
			continue
		}
		existing, ok := grads[input]
		if !ok {
			grads[input] = inputGrads[j]
			continue
		}
		sum, err := tensor.Add(existing, inputGrads[j])
		if err != nil {
			return errors.Wrap(err, "accumulate gradient")
		}
		grads[input] = sum
	}
	return nil
}
