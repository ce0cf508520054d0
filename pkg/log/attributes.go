// Package log defines standard attribute keys for training events.
//
// Using these keys consistently keeps log output filterable: every
// validation checkpoint carries the same field names regardless of which
// model is being trained.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the model type, e.g. "SoftmaxRegression"
	// or "MLPClassifier".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "evaluate".
	OperationKey = "ml.operation"

	// ComponentKey identifies the package emitting the event.
	ComponentKey = "ml.component"
)

// Data shape.
const (
	// SamplesKey is the number of samples (rows) being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of features (columns).
	FeaturesKey = "data.features"

	// ClassesKey is the number of target classes.
	ClassesKey = "data.classes"

	// BatchSizeKey is the minibatch size used by the training loop.
	BatchSizeKey = "data.batch_size"
)

// Training progress.
const (
	// EpochKey is the zero-based epoch counter.
	EpochKey = "train.epoch"

	// IterKey is the monotonic minibatch step counter.
	IterKey = "train.iter"

	// BatchIndexKey is the minibatch index within the current epoch.
	BatchIndexKey = "train.batch_index"

	// LossKey is the minibatch training loss.
	LossKey = "train.loss"

	// ValidationErrorKey is the validation zero-one error rate.
	ValidationErrorKey = "train.validation_error"

	// TestErrorKey is the test-set zero-one error rate.
	TestErrorKey = "train.test_error"

	// PatienceKey is the early-stopping iteration budget.
	PatienceKey = "train.patience"

	// BestValidationErrorKey is the best validation error seen so far.
	BestValidationErrorKey = "train.best_validation_error"
)
