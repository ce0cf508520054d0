package model

import (
	"testing"
)

func TestSnapshotIsIndependent(t *testing.T) {
	params := []Parameter{
		{Name: "W", Data: []float64{1, 2, 3}},
		{Name: "b", Data: []float64{4}},
	}

	snap := SnapshotParams(params)

	// Mutating the live parameters must not change the snapshot.
	params[0].Data[0] = 99
	if snap[0][0] != 1 {
		t.Errorf("snapshot aliased live parameters: got %v", snap[0][0])
	}
}

func TestRestoreParams(t *testing.T) {
	params := []Parameter{
		{Name: "W", Data: []float64{1, 2}},
	}
	snap := SnapshotParams(params)

	params[0].Data[0] = -5
	params[0].Data[1] = -6

	if err := RestoreParams(params, snap); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if params[0].Data[0] != 1 || params[0].Data[1] != 2 {
		t.Errorf("restore did not recover values: %v", params[0].Data)
	}
}

func TestRestoreParamsShapeMismatch(t *testing.T) {
	params := []Parameter{{Name: "W", Data: []float64{1, 2}}}

	if err := RestoreParams(params, [][]float64{{1}}); err == nil {
		t.Error("length mismatch should be rejected")
	}
	if err := RestoreParams(params, [][]float64{{1, 2}, {3}}); err == nil {
		t.Error("parameter count mismatch should be rejected")
	}
}
