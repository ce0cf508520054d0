package optimize

import (
	"math"

	"github.com/minilearn-ml/minilearn/core/model"
	"github.com/minilearn-ml/minilearn/pkg/errors"
)

// EarlyStopping implements the patience-based stopping rule used by the
// training loop. Patience is an iteration budget: it grows geometrically
// while validation performance keeps improving by a meaningful margin
// and stays put once progress plateaus, so training terminates shortly
// after the plateau begins.
//
// The controller also keeps an independent snapshot of the best
// parameters seen, which the trainer restores before the final test
// evaluation.
type EarlyStopping struct {
	patience             int     // iteration budget
	patienceIncrease     int     // budget multiplier on meaningful improvement
	improvementThreshold float64 // relative improvement considered significant
	validationFrequency  int     // steps between validation passes

	bestLoss   float64
	bestIter   int
	bestParams [][]float64
	stopped    bool
}

// NewEarlyStopping validates the controller settings and returns a
// controller in the Running state with no best snapshot.
func NewEarlyStopping(patience, patienceIncrease int, improvementThreshold float64, validationFrequency int) (*EarlyStopping, error) {
	if patience <= 0 {
		return nil, errors.NewValidationError("patience", "must be positive", patience)
	}
	if patienceIncrease <= 0 {
		return nil, errors.NewValidationError("patience_increase", "must be positive", patienceIncrease)
	}
	if improvementThreshold <= 0 || improvementThreshold > 1 {
		return nil, errors.NewValidationError("improvement_threshold", "must be in (0, 1]", improvementThreshold)
	}
	if validationFrequency <= 0 {
		return nil, errors.NewValidationError("validation_frequency", "must be positive", validationFrequency)
	}

	return &EarlyStopping{
		patience:             patience,
		patienceIncrease:     patienceIncrease,
		improvementThreshold: improvementThreshold,
		validationFrequency:  validationFrequency,
		bestLoss:             math.Inf(1),
		bestIter:             -1,
	}, nil
}

// ShouldValidate reports whether a validation pass is due after
// training step iter (zero-based).
func (es *EarlyStopping) ShouldValidate(iter int) bool {
	return (iter+1)%es.validationFrequency == 0
}

// Update records a validation result for step iter and returns whether
// it is a new best. Patience extends to iter*patienceIncrease only when
// the loss improves on the best by more than the threshold ratio; the
// budget never shrinks. A strictly better loss also snapshots the
// current parameters as a fully independent copy.
func (es *EarlyStopping) Update(iter int, validationLoss float64, params []model.Parameter) bool {
	if validationLoss < es.bestLoss*es.improvementThreshold {
		if extended := iter * es.patienceIncrease; extended > es.patience {
			es.patience = extended
		}
	}

	improved := validationLoss < es.bestLoss
	if improved {
		es.bestLoss = validationLoss
		es.bestIter = iter
		es.bestParams = model.SnapshotParams(params)
	}
	return improved
}

// ShouldStop reports whether the patience budget is exhausted at step
// iter. Once it returns true the controller is terminal.
func (es *EarlyStopping) ShouldStop(iter int) bool {
	if es.patience <= iter {
		es.stopped = true
	}
	return es.stopped
}

// Stopped returns whether the controller has reached its terminal state.
func (es *EarlyStopping) Stopped() bool {
	return es.stopped
}

// Patience returns the current iteration budget.
func (es *EarlyStopping) Patience() int {
	return es.patience
}

// BestLoss returns the lowest validation loss observed, +Inf before the
// first validation pass.
func (es *EarlyStopping) BestLoss() float64 {
	return es.bestLoss
}

// BestIter returns the step of the best validation result, -1 if none.
func (es *EarlyStopping) BestIter() int {
	return es.bestIter
}

// HasSnapshot reports whether a best-parameter snapshot exists.
func (es *EarlyStopping) HasSnapshot() bool {
	return es.bestParams != nil
}

// RestoreBest copies the best-parameter snapshot back into the live
// parameters.
func (es *EarlyStopping) RestoreBest(params []model.Parameter) error {
	if es.bestParams == nil {
		return errors.New("optimize: no best-parameter snapshot recorded")
	}
	return model.RestoreParams(params, es.bestParams)
}
