package optimize

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/minilearn-ml/minilearn/core/model"
	"github.com/minilearn-ml/minilearn/core/parallel"
	"github.com/minilearn-ml/minilearn/dataset"
	"github.com/minilearn-ml/minilearn/metrics"
	"github.com/minilearn-ml/minilearn/pkg/errors"
	"github.com/minilearn-ml/minilearn/pkg/log"
)

// evaluation switches to chunked parallel prediction above this many samples.
const parallelEvalThreshold = 2048

// Trainable is the contract a classifier must satisfy to be trained by
// the Trainer. The gradient computation lives behind LossAndGrad, so
// the trainer never differentiates anything itself: models return
// closed-form gradients aligned with their Parameters order.
type Trainable interface {
	// ModelName identifies the model in logs and errors.
	ModelName() string

	// Initialize allocates parameters for the given data shape.
	Initialize(nFeatures, nClasses int) error

	// Parameters returns the live parameter set; the data slices alias
	// model storage so in-place updates take effect immediately.
	Parameters() []model.Parameter

	// LossAndGrad computes the batch loss and one gradient per
	// parameter from the current parameter values.
	LossAndGrad(X mat.Matrix, y []int) (float64, [][]float64, error)

	// PredictLabels predicts class labels without requiring the model
	// to be marked fitted; the trainer uses it for validation passes.
	PredictLabels(X mat.Matrix) ([]int, error)

	// SetFitted marks the model as trained.
	SetFitted()
}

// Labeler is the minimal surface needed to evaluate a classifier.
type Labeler interface {
	PredictLabels(X mat.Matrix) ([]int, error)
}

// Config holds the training-loop hyperparameters. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	LearningRate float64 // SGD step size
	BatchSize    int     // minibatch size
	MaxEpochs    int     // epoch budget, one epoch = one pass over all minibatches

	// Early stopping controls.
	Patience             int     // initial iteration budget
	PatienceIncrease     int     // budget multiplier on meaningful improvement
	ImprovementThreshold float64 // relative improvement considered significant
	ValidationFrequency  int     // steps between validation passes
}

// DefaultConfig returns the classic tutorial settings for digit
// classification.
func DefaultConfig() Config {
	return Config{
		LearningRate:         0.01,
		BatchSize:            20,
		MaxEpochs:            100,
		Patience:             5000,
		PatienceIncrease:     2,
		ImprovementThreshold: 0.995,
		ValidationFrequency:  1000,
	}
}

func (c Config) validate() error {
	if c.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", c.LearningRate)
	}
	if c.BatchSize <= 0 {
		return errors.NewValidationError("batch_size", "must be positive", c.BatchSize)
	}
	if c.MaxEpochs <= 0 {
		return errors.NewValidationError("max_epochs", "must be positive", c.MaxEpochs)
	}
	if c.ValidationFrequency <= 0 {
		return errors.NewValidationError("validation_frequency", "must be positive", c.ValidationFrequency)
	}
	if c.Patience <= 0 {
		return errors.NewValidationError("patience", "must be positive", c.Patience)
	}
	if c.PatienceIncrease <= 0 {
		return errors.NewValidationError("patience_increase", "must be positive", c.PatienceIncrease)
	}
	if c.ImprovementThreshold <= 0 || c.ImprovementThreshold > 1 {
		return errors.NewValidationError("improvement_threshold", "must be in (0, 1]", c.ImprovementThreshold)
	}
	return nil
}

// Result summarizes a training run.
type Result struct {
	BestValidationLoss float64 // lowest validation zero-one error, NaN without validation
	BestIter           int     // step of the best validation result, -1 without validation
	TestLoss           float64 // test zero-one error of the best snapshot, NaN without a test set
	Epochs             int     // epochs completed or in progress when training ended
	Iterations         int     // minibatch steps executed
	StoppedEarly       bool    // whether the patience budget ended training
	LossHistory        []float64
}

// Trainer runs minibatch stochastic gradient descent with early
// stopping. One Trainer can fit both the softmax regression and the MLP
// classifier; everything model-specific is behind Trainable.
type Trainer struct {
	cfg Config
}

// NewTrainer validates the configuration and creates a Trainer.
func NewTrainer(cfg Config) (*Trainer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Trainer{cfg: cfg}, nil
}

// Fit trains the model on the training set for the full epoch budget
// with no validation and no early stopping.
func (t *Trainer) Fit(m Trainable, train *dataset.Dataset) (res *Result, err error) {
	defer errors.Recover(&err, "Trainer.Fit")

	it, err := t.setup(m, train)
	if err != nil {
		return nil, err
	}

	logger := log.WithComponent("optimize").With().
		Str(log.ModelNameKey, m.ModelName()).
		Str(log.OperationKey, "fit").Logger()

	result := &Result{
		BestValidationLoss: math.NaN(),
		BestIter:           -1,
		TestLoss:           math.NaN(),
	}

	nBatches := it.NumBatches()
	maxIter := t.cfg.MaxEpochs * nBatches
	params := m.Parameters()
	sgd, err := NewSGD(t.cfg.LearningRate)
	if err != nil {
		return nil, err
	}

	for iter := 0; iter < maxIter; iter++ {
		X, y, epoch, index := it.Next()

		loss, grads, err := m.LossAndGrad(X, y)
		if err != nil {
			return nil, errors.Wrap(err, "training step failed")
		}
		if err := errors.CheckScalar("loss_calculation", loss, iter); err != nil {
			return nil, err
		}
		if err := sgd.Step(params, grads); err != nil {
			return nil, err
		}

		result.LossHistory = append(result.LossHistory, loss)
		result.Iterations = iter + 1
		result.Epochs = epoch + 1

		if index == nBatches-1 {
			logger.Debug().
				Int(log.EpochKey, epoch).
				Float64(log.LossKey, loss).
				Msg("epoch complete")
		}
	}

	m.SetFitted()
	return result, nil
}

// FitWithValidation trains the model with periodic validation passes
// and patience-based early stopping. After training ends, the best
// parameter snapshot is restored into the model; if a test set is given
// (it may be nil), the restored model is evaluated on it exactly once.
func (t *Trainer) FitWithValidation(m Trainable, train, valid, test *dataset.Dataset) (res *Result, err error) {
	defer errors.Recover(&err, "Trainer.FitWithValidation")

	if valid == nil {
		return nil, errors.NewValueError("Trainer.FitWithValidation", "nil validation set")
	}
	if err := checkSplitShapes(train, valid, test); err != nil {
		return nil, err
	}

	it, err := t.setup(m, train)
	if err != nil {
		return nil, err
	}

	logger := log.WithComponent("optimize").With().
		Str(log.ModelNameKey, m.ModelName()).
		Str(log.OperationKey, "fit").Logger()
	logger.Info().
		Int(log.SamplesKey, train.Len()).
		Int(log.FeaturesKey, train.Dim()).
		Int(log.ClassesKey, train.NumClasses).
		Int(log.BatchSizeKey, t.cfg.BatchSize).
		Msg("training started")

	es, err := NewEarlyStopping(t.cfg.Patience, t.cfg.PatienceIncrease, t.cfg.ImprovementThreshold, t.cfg.ValidationFrequency)
	if err != nil {
		return nil, err
	}
	sgd, err := NewSGD(t.cfg.LearningRate)
	if err != nil {
		return nil, err
	}

	result := &Result{
		BestValidationLoss: math.NaN(),
		BestIter:           -1,
		TestLoss:           math.NaN(),
	}

	nBatches := it.NumBatches()
	maxIter := t.cfg.MaxEpochs * nBatches
	params := m.Parameters()

	for iter := 0; iter < maxIter; iter++ {
		X, y, epoch, index := it.Next()

		loss, grads, err := m.LossAndGrad(X, y)
		if err != nil {
			return nil, errors.Wrap(err, "training step failed")
		}
		if err := errors.CheckScalar("loss_calculation", loss, iter); err != nil {
			return nil, err
		}
		if err := sgd.Step(params, grads); err != nil {
			return nil, err
		}

		result.LossHistory = append(result.LossHistory, loss)
		result.Iterations = iter + 1
		result.Epochs = epoch + 1

		if es.ShouldValidate(iter) {
			validationLoss, err := Evaluate(m, valid)
			if err != nil {
				return nil, errors.Wrap(err, "validation failed")
			}

			improved := es.Update(iter, validationLoss, params)
			logger.Info().
				Int(log.EpochKey, epoch).
				Int(log.IterKey, iter).
				Int(log.BatchIndexKey, index+1).
				Float64(log.ValidationErrorKey, validationLoss*100).
				Int(log.PatienceKey, es.Patience()).
				Bool("improved", improved).
				Msg("validation checkpoint")
		}

		if es.ShouldStop(iter) {
			result.StoppedEarly = true
			break
		}
	}

	if es.HasSnapshot() {
		if err := es.RestoreBest(params); err != nil {
			return nil, err
		}
		result.BestValidationLoss = es.BestLoss()
		result.BestIter = es.BestIter()
	}
	if !result.StoppedEarly {
		errors.Warn(errors.NewConvergenceWarning("SGD", result.Iterations, "epoch budget exhausted before the patience criterion fired"))
	}

	m.SetFitted()

	if test != nil {
		testLoss, err := Evaluate(m, test)
		if err != nil {
			return nil, errors.Wrap(err, "test evaluation failed")
		}
		result.TestLoss = testLoss
	}

	logger.Info().
		Float64(log.BestValidationErrorKey, result.BestValidationLoss*100).
		Float64(log.TestErrorKey, result.TestLoss*100).
		Int(log.IterKey, result.Iterations).
		Bool("stopped_early", result.StoppedEarly).
		Msg("training finished")

	return result, nil
}

// setup validates the training set against the config and initializes
// the model and the minibatch iterator.
func (t *Trainer) setup(m Trainable, train *dataset.Dataset) (*dataset.BatchIterator, error) {
	if train == nil {
		return nil, errors.NewValueError("Trainer", "nil training set")
	}

	it, err := dataset.NewBatchIterator(train, t.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	if err := m.Initialize(train.Dim(), train.NumClasses); err != nil {
		return nil, err
	}
	return it, nil
}

func checkSplitShapes(train, valid, test *dataset.Dataset) error {
	if train == nil {
		return errors.NewValueError("Trainer", "nil training set")
	}
	for _, ds := range []*dataset.Dataset{valid, test} {
		if ds == nil {
			continue
		}
		if ds.Dim() != train.Dim() {
			return errors.NewDimensionError("Trainer", train.Dim(), ds.Dim(), 1)
		}
		if ds.NumClasses != train.NumClasses {
			return errors.NewDimensionError("Trainer", train.NumClasses, ds.NumClasses, 1)
		}
	}
	return nil
}

// Evaluate computes the zero-one misclassification rate of the model on
// a dataset. Large datasets are predicted in parallel chunks; parameter
// values are only read, never written.
func Evaluate(m Labeler, ds *dataset.Dataset) (float64, error) {
	if ds == nil {
		return 0, errors.NewValueError("optimize.Evaluate", "nil dataset")
	}

	n := ds.Len()
	preds := make([]int, n)

	var mu sync.Mutex
	var firstErr error

	parallel.ParallelizeWithThreshold(n, parallelEvalThreshold, func(start, end int) {
		X, _ := ds.Slice(start, end)
		labels, err := m.PredictLabels(X)
		if err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			return
		}
		copy(preds[start:end], labels)
	})

	if firstErr != nil {
		return 0, firstErr
	}

	return metrics.ZeroOneLoss(ds.Y, preds)
}
