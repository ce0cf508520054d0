package dataset

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func newTestDataset(t *testing.T, n int) *Dataset {
	t.Helper()
	data := make([]float64, n*2)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		data[2*i] = float64(i)
		data[2*i+1] = float64(i) + 0.5
		labels[i] = i % 2
	}
	ds, err := New(mat.NewDense(n, 2, data), labels, 2)
	if err != nil {
		t.Fatalf("failed to build dataset: %v", err)
	}
	return ds
}

func TestNewValidation(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})

	if _, err := New(X, []int{0, 1}, 2); err == nil {
		t.Error("label count mismatch should be rejected")
	}
	if _, err := New(X, []int{0, 1, 2}, 2); err == nil {
		t.Error("out-of-range label should be rejected")
	}
	if _, err := New(X, []int{0, 1, 0}, 0); err == nil {
		t.Error("non-positive class count should be rejected")
	}
	if _, err := New(X, []int{0, 1, 0}, 2); err != nil {
		t.Errorf("valid dataset rejected: %v", err)
	}
}

func TestSplit(t *testing.T) {
	ds := newTestDataset(t, 10)

	train, valid, test, err := ds.Split(6, 2, 2)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if train.Len() != 6 || valid.Len() != 2 || test.Len() != 2 {
		t.Errorf("unexpected split sizes: %d/%d/%d", train.Len(), valid.Len(), test.Len())
	}

	// Splits are disjoint and in order.
	if got := valid.X.At(0, 0); got != 6 {
		t.Errorf("validation split should start at sample 6, got first feature %v", got)
	}
	if got := test.X.At(0, 0); got != 8 {
		t.Errorf("test split should start at sample 8, got first feature %v", got)
	}

	// Splits own their data: mutating a split must not touch the source.
	train.X.Set(0, 0, -1)
	if ds.X.At(0, 0) == -1 {
		t.Error("split should copy data, not alias the source")
	}

	if _, _, _, err := ds.Split(8, 2, 2); err == nil {
		t.Error("oversized split should be rejected")
	}

	// A zero-sized part is allowed and comes back nil.
	_, _, test, err = ds.Split(8, 2, 0)
	if err != nil {
		t.Fatalf("two-way split failed: %v", err)
	}
	if test != nil {
		t.Error("zero-sized test part should be nil")
	}
}

func TestFromSlices(t *testing.T) {
	ds, err := FromSlices([][]float64{{1, 0}, {0, 1}}, []int{0, 1}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 2 || ds.Dim() != 2 {
		t.Errorf("unexpected shape: %d x %d", ds.Len(), ds.Dim())
	}

	if _, err := FromSlices([][]float64{{1, 0}, {0}}, []int{0, 1}, 2); err == nil {
		t.Error("ragged rows should be rejected")
	}
}
