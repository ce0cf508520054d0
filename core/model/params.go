package model

import (
	"github.com/minilearn-ml/minilearn/pkg/errors"
)

// Parameter is a named, mutable weight tensor owned by the model that
// declares it. Data is the backing slice of the model's matrix or
// vector, so in-place updates through a Parameter are visible to the
// model immediately.
type Parameter struct {
	Name string
	Data []float64
}

// SnapshotParams deep-copies the current parameter values. The returned
// slices are fully independent of the live parameters.
func SnapshotParams(params []Parameter) [][]float64 {
	snapshot := make([][]float64, len(params))
	for i, p := range params {
		snapshot[i] = make([]float64, len(p.Data))
		copy(snapshot[i], p.Data)
	}
	return snapshot
}

// RestoreParams copies a snapshot back into the live parameters. The
// snapshot must have been taken from a parameter set of the same shape.
func RestoreParams(params []Parameter, snapshot [][]float64) error {
	if len(snapshot) != len(params) {
		return errors.NewDimensionError("model.RestoreParams", len(params), len(snapshot), 0)
	}
	for i, p := range params {
		if len(snapshot[i]) != len(p.Data) {
			return errors.NewDimensionError("model.RestoreParams", len(p.Data), len(snapshot[i]), 1)
		}
		copy(p.Data, snapshot[i])
	}
	return nil
}
