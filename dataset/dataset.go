// Package dataset provides the data containers and minibatch iteration
// used by the training loop: immutable train/validation/test splits and
// a cyclic, fixed-order minibatch iterator.
package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/minilearn-ml/minilearn/pkg/errors"
)

// Dataset is an immutable set of (input vector, integer label) pairs.
// X has one sample per row; Y holds labels in [0, NumClasses).
// The training loop never mutates a Dataset.
type Dataset struct {
	X          *mat.Dense
	Y          []int
	NumClasses int
}

// New validates the inputs and wraps them in a Dataset.
func New(X *mat.Dense, y []int, numClasses int) (*Dataset, error) {
	if X == nil {
		return nil, errors.NewValueError("dataset.New", "nil input matrix")
	}
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.NewValueError("dataset.New", "empty input matrix")
	}
	if len(y) != rows {
		return nil, errors.NewDimensionError("dataset.New", rows, len(y), 0)
	}
	if numClasses <= 0 {
		return nil, errors.NewValidationError("num_classes", "must be positive", numClasses)
	}
	for i, label := range y {
		if label < 0 || label >= numClasses {
			return nil, errors.Newf("dataset.New: label %d at index %d out of range [0, %d)", label, i, numClasses)
		}
	}
	if err := errors.CheckMatrix("dataset.New", X, rows, cols, 0); err != nil {
		return nil, err
	}

	return &Dataset{X: X, Y: y, NumClasses: numClasses}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	rows, _ := d.X.Dims()
	return rows
}

// Dim returns the number of features per sample.
func (d *Dataset) Dim() int {
	_, cols := d.X.Dims()
	return cols
}

// Slice returns a view of samples [start, end) sharing the underlying
// data. The view must be treated as read-only.
func (d *Dataset) Slice(start, end int) (mat.Matrix, []int) {
	_, cols := d.X.Dims()
	return d.X.Slice(start, end, 0, cols), d.Y[start:end]
}

// Split cuts a dataset into three disjoint contiguous parts of the given
// sizes, in order: train, validation, test. The sizes must sum to at
// most the dataset length; a zero size yields a nil part.
func (d *Dataset) Split(nTrain, nValid, nTest int) (train, valid, test *Dataset, err error) {
	if nTrain <= 0 || nValid < 0 || nTest < 0 {
		return nil, nil, nil, errors.NewValidationError("split_sizes", "train size must be positive, others non-negative", []int{nTrain, nValid, nTest})
	}
	if nTrain+nValid+nTest > d.Len() {
		return nil, nil, nil, errors.NewValidationError("split_sizes", "split sizes exceed dataset length", nTrain+nValid+nTest)
	}

	part := func(start, n int) *Dataset {
		if n == 0 {
			return nil
		}
		_, cols := d.X.Dims()
		sub := mat.DenseCopyOf(d.X.Slice(start, start+n, 0, cols))
		labels := make([]int, n)
		copy(labels, d.Y[start:start+n])
		return &Dataset{X: sub, Y: labels, NumClasses: d.NumClasses}
	}

	train = part(0, nTrain)
	valid = part(nTrain, nValid)
	test = part(nTrain+nValid, nTest)
	return train, valid, test, nil
}

// FromSlices builds a Dataset from a slice of feature vectors. All rows
// must have the same length.
func FromSlices(rows [][]float64, y []int, numClasses int) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, errors.NewValueError("dataset.FromSlices", "no samples")
	}
	dim := len(rows[0])
	data := make([]float64, 0, len(rows)*dim)
	for _, row := range rows {
		if len(row) != dim {
			return nil, errors.NewDimensionError("dataset.FromSlices", dim, len(row), 1)
		}
		data = append(data, row...)
	}

	return New(mat.NewDense(len(rows), dim, data), y, numClasses)
}
