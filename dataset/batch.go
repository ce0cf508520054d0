package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/minilearn-ml/minilearn/pkg/errors"
)

// BatchIterator produces an effectively infinite sequence of fixed-size
// minibatches in a fixed repeating order. After the last minibatch of an
// epoch it wraps around to the first; samples are never shuffled, so the
// k-th request of every epoch returns the same minibatch.
//
// Trailing samples that do not fill a whole minibatch are dropped.
type BatchIterator struct {
	ds        *Dataset
	batchSize int
	nBatches  int
	step      int
}

// NewBatchIterator validates the batch size against the dataset and
// returns an iterator positioned at the first minibatch.
func NewBatchIterator(ds *Dataset, batchSize int) (*BatchIterator, error) {
	if batchSize <= 0 {
		return nil, errors.NewValidationError("batch_size", "must be positive", batchSize)
	}
	if batchSize > ds.Len() {
		return nil, errors.NewValidationError("batch_size", "larger than dataset", batchSize)
	}

	return &BatchIterator{
		ds:        ds,
		batchSize: batchSize,
		nBatches:  ds.Len() / batchSize,
	}, nil
}

// NumBatches returns the number of minibatches per epoch.
func (it *BatchIterator) NumBatches() int {
	return it.nBatches
}

// BatchSize returns the configured minibatch size.
func (it *BatchIterator) BatchSize() int {
	return it.batchSize
}

// Next returns the next minibatch along with the epoch counter and the
// minibatch index within that epoch. The returned matrix and label slice
// are views into the dataset and must be treated as read-only.
func (it *BatchIterator) Next() (X mat.Matrix, y []int, epoch, index int) {
	epoch = it.step / it.nBatches
	index = it.step % it.nBatches
	it.step++

	start := index * it.batchSize
	X, y = it.ds.Slice(start, start+it.batchSize)
	return X, y, epoch, index
}

// Reset rewinds the iterator to the first minibatch of epoch zero.
func (it *BatchIterator) Reset() {
	it.step = 0
}
