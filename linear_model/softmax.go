// Package linear_model provides linear classifiers trained by
// stochastic gradient descent.
package linear_model

import (
	"bytes"
	"encoding/gob"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/minilearn-ml/minilearn/core/model"
	"github.com/minilearn-ml/minilearn/pkg/errors"
)

// SoftmaxRegression implements multinomial logistic regression: an
// affine transform followed by a softmax over class scores. Probability
// computations go through a fused log-softmax (log-sum-exp), so the log
// of a predicted probability never evaluates log(0).
//
// The model owns two parameters: a weights matrix (nFeatures x nClasses)
// and a bias vector (nClasses). Weights are initialized uniformly in
// [-1/sqrt(nFeatures), 1/sqrt(nFeatures)], biases to zero.
type SoftmaxRegression struct {
	state *model.StateManager

	// Hyperparameters
	l1          float64 // L1 penalty coefficient over weights
	l2          float64 // L2 penalty coefficient over weights
	randomState int64   // seed for weight initialization

	// Model parameters
	nFeatures int
	nClasses  int
	weights   *mat.Dense // nFeatures x nClasses
	bias      []float64  // nClasses

	rng *rand.Rand
}

// SoftmaxOption is a functional option for SoftmaxRegression.
type SoftmaxOption func(*SoftmaxRegression)

// WithSoftmaxL1 sets the L1 regularization coefficient.
func WithSoftmaxL1(l1 float64) SoftmaxOption {
	return func(m *SoftmaxRegression) {
		m.l1 = l1
	}
}

// WithSoftmaxL2 sets the L2 regularization coefficient.
func WithSoftmaxL2(l2 float64) SoftmaxOption {
	return func(m *SoftmaxRegression) {
		m.l2 = l2
	}
}

// WithSoftmaxRandomState sets the random seed for weight initialization.
func WithSoftmaxRandomState(seed int64) SoftmaxOption {
	return func(m *SoftmaxRegression) {
		m.randomState = seed
	}
}

// NewSoftmaxRegression creates a new SoftmaxRegression classifier.
func NewSoftmaxRegression(opts ...SoftmaxOption) *SoftmaxRegression {
	m := &SoftmaxRegression{
		state:       model.NewStateManager(),
		randomState: -1,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.randomState >= 0 {
		m.rng = rand.New(rand.NewSource(m.randomState))
	} else {
		m.rng = rand.New(rand.NewSource(rand.Int63()))
	}

	return m
}

// ModelName returns the model identifier used in errors and logs.
func (m *SoftmaxRegression) ModelName() string {
	return "SoftmaxRegression"
}

// IsFitted returns whether the model has been trained.
func (m *SoftmaxRegression) IsFitted() bool {
	return m.state.IsFitted()
}

// SetFitted marks the model as trained. The training loop calls this
// after restoring the best parameter snapshot.
func (m *SoftmaxRegression) SetFitted() {
	m.state.SetFitted()
}

// NumFeatures returns the input dimension the model was initialized for.
func (m *SoftmaxRegression) NumFeatures() int { return m.nFeatures }

// NumClasses returns the number of target classes.
func (m *SoftmaxRegression) NumClasses() int { return m.nClasses }

// Initialize allocates and initializes the parameters for the given
// input dimension and class count. Any previous parameters are discarded.
func (m *SoftmaxRegression) Initialize(nFeatures, nClasses int) error {
	if err := validateDims(nFeatures, nClasses); err != nil {
		return err
	}
	if err := validatePenalties(m.l1, m.l2); err != nil {
		return err
	}

	m.nFeatures = nFeatures
	m.nClasses = nClasses
	m.weights = mat.NewDense(nFeatures, nClasses, nil)
	m.bias = make([]float64, nClasses)

	initUniform(m.weights.RawMatrix().Data, nFeatures, m.rng)

	m.state.Reset()
	m.state.SetDimensions(nFeatures, 0, nClasses)
	return nil
}

// Parameters returns the live parameter set in a fixed order. The data
// slices alias the model's matrices: updating them in place updates the
// model.
func (m *SoftmaxRegression) Parameters() []model.Parameter {
	return []model.Parameter{
		{Name: "weights", Data: m.weights.RawMatrix().Data},
		{Name: "bias", Data: m.bias},
	}
}

// logProbs computes the fused log-softmax of the class scores for every
// row of X.
func (m *SoftmaxRegression) logProbs(X mat.Matrix) (*mat.Dense, error) {
	if m.weights == nil {
		return nil, errors.NewModelError("SoftmaxRegression.logProbs", "model not initialized", nil)
	}
	rows, cols := X.Dims()
	if cols != m.nFeatures {
		return nil, errors.NewDimensionError("SoftmaxRegression", m.nFeatures, cols, 1)
	}
	if rows == 0 {
		return nil, errors.NewValueError("SoftmaxRegression", "empty input batch")
	}

	var logits mat.Dense
	logits.Mul(X, m.weights)

	for i := 0; i < rows; i++ {
		row := logits.RawRowView(i)

		maxScore := math.Inf(-1)
		for j := range row {
			row[j] += m.bias[j]
			if row[j] > maxScore {
				maxScore = row[j]
			}
		}

		var sum float64
		for _, v := range row {
			sum += math.Exp(v - maxScore)
		}
		logSumExp := maxScore + math.Log(sum)

		for j := range row {
			row[j] -= logSumExp
		}
	}

	return &logits, nil
}

// PredictLogProba returns per-class log-probabilities, one row per sample.
func (m *SoftmaxRegression) PredictLogProba(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted(m.ModelName(), "PredictLogProba"); err != nil {
		return nil, err
	}
	return m.logProbs(X)
}

// PredictProba returns per-class probabilities, one row per sample.
// Each row sums to 1 and every entry lies in (0, 1).
func (m *SoftmaxRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted(m.ModelName(), "PredictProba"); err != nil {
		return nil, err
	}
	logp, err := m.logProbs(X)
	if err != nil {
		return nil, err
	}

	rows, cols := logp.Dims()
	for i := 0; i < rows; i++ {
		row := logp.RawRowView(i)
		for j := 0; j < cols; j++ {
			row[j] = math.Exp(row[j])
		}
	}
	return logp, nil
}

// Predict returns the predicted class per sample: the index of the
// maximum probability, with ties broken by the lowest index.
func (m *SoftmaxRegression) Predict(X mat.Matrix) ([]int, error) {
	if err := m.state.RequireFitted(m.ModelName(), "Predict"); err != nil {
		return nil, err
	}
	return m.PredictLabels(X)
}

// PredictLabels is the unchecked prediction path used by the training
// loop while the model is still being fitted.
func (m *SoftmaxRegression) PredictLabels(X mat.Matrix) ([]int, error) {
	logp, err := m.logProbs(X)
	if err != nil {
		return nil, err
	}

	rows, _ := logp.Dims()
	labels := make([]int, rows)
	for i := 0; i < rows; i++ {
		labels[i] = argmaxRow(logp.RawRowView(i))
	}
	return labels, nil
}

// Loss computes the regularized mean negative log-likelihood of the
// batch without computing gradients.
func (m *SoftmaxRegression) Loss(X mat.Matrix, y []int) (float64, error) {
	logp, err := m.logProbs(X)
	if err != nil {
		return 0, err
	}
	nll, err := meanNLL(logp, y, m.nClasses)
	if err != nil {
		return 0, err
	}
	return nll + penalty(m.l1, m.l2, m.weights.RawMatrix().Data), nil
}

// LossAndGrad computes the regularized batch loss and its gradient with
// respect to every parameter, in the order returned by Parameters.
func (m *SoftmaxRegression) LossAndGrad(X mat.Matrix, y []int) (float64, [][]float64, error) {
	logp, err := m.logProbs(X)
	if err != nil {
		return 0, nil, err
	}
	nll, err := meanNLL(logp, y, m.nClasses)
	if err != nil {
		return 0, nil, err
	}

	wData := m.weights.RawMatrix().Data
	loss := nll + penalty(m.l1, m.l2, wData)

	rows, cols := logp.Dims()
	invB := 1.0 / float64(rows)

	// dLogits = (softmax - onehot) / batchSize, computed in place.
	for i := 0; i < rows; i++ {
		row := logp.RawRowView(i)
		for j := 0; j < cols; j++ {
			row[j] = math.Exp(row[j]) * invB
		}
		row[y[i]] -= invB
	}

	// Weight gradient: X^T * dLogits, plus penalty terms.
	var gw mat.Dense
	gw.Mul(X.T(), logp)
	gwData := gw.RawMatrix().Data
	addPenaltyGrad(gwData, wData, m.l1, m.l2)

	// Bias gradient: column sums of dLogits.
	gb := make([]float64, cols)
	for i := 0; i < rows; i++ {
		row := logp.RawRowView(i)
		for j := 0; j < cols; j++ {
			gb[j] += row[j]
		}
	}

	return loss, [][]float64{gwData, gb}, nil
}

// GobEncode serializes the model, including hyperparameters, dimensions,
// parameter values, and fitted state.
func (m *SoftmaxRegression) GobEncode() ([]byte, error) {
	st := softmaxRegressionState{
		L1:          m.l1,
		L2:          m.l2,
		RandomState: m.randomState,
		NFeatures:   m.nFeatures,
		NClasses:    m.nClasses,
		Bias:        m.bias,
		Fitted:      m.state.IsFitted(),
	}
	if m.weights != nil {
		st.Weights = m.weights.RawMatrix().Data
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&st); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode restores a model serialized by GobEncode.
func (m *SoftmaxRegression) GobDecode(data []byte) error {
	var st softmaxRegressionState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return err
	}

	m.l1 = st.L1
	m.l2 = st.L2
	m.randomState = st.RandomState
	m.nFeatures = st.NFeatures
	m.nClasses = st.NClasses
	m.bias = st.Bias
	if st.Weights != nil {
		m.weights = mat.NewDense(st.NFeatures, st.NClasses, st.Weights)
	}

	m.state = model.NewStateManager()
	m.state.SetDimensions(st.NFeatures, 0, st.NClasses)
	if st.Fitted {
		m.state.SetFitted()
	}

	if st.RandomState >= 0 {
		m.rng = rand.New(rand.NewSource(st.RandomState))
	} else {
		m.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return nil
}

type softmaxRegressionState struct {
	L1, L2      float64
	RandomState int64
	NFeatures   int
	NClasses    int
	Weights     []float64
	Bias        []float64
	Fitted      bool
}

// ---------------------------------------------------------------------------
// shared numeric helpers
// ---------------------------------------------------------------------------

func validateDims(nFeatures, nClasses int) error {
	if nFeatures <= 0 {
		return errors.NewValidationError("n_features", "must be positive", nFeatures)
	}
	if nClasses < 2 {
		return errors.NewValidationError("n_classes", "need at least two classes", nClasses)
	}
	return nil
}

func validatePenalties(l1, l2 float64) error {
	if l1 < 0 {
		return errors.NewValidationError("l1", "must be non-negative", l1)
	}
	if l2 < 0 {
		return errors.NewValidationError("l2", "must be non-negative", l2)
	}
	return nil
}

// initUniform fills data with independent uniform samples in
// [-1/sqrt(fanIn), 1/sqrt(fanIn)].
func initUniform(data []float64, fanIn int, rng *rand.Rand) {
	bound := 1.0 / math.Sqrt(float64(fanIn))
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * bound
	}
}

// meanNLL computes the mean negative log-likelihood of the true classes
// given per-row log-probabilities.
func meanNLL(logp *mat.Dense, y []int, nClasses int) (float64, error) {
	rows, _ := logp.Dims()
	if len(y) != rows {
		return 0, errors.NewDimensionError("meanNLL", rows, len(y), 0)
	}

	var sum float64
	for i, label := range y {
		if label < 0 || label >= nClasses {
			return 0, errors.Newf("label %d at index %d out of range [0, %d)", label, i, nClasses)
		}
		sum -= logp.At(i, label)
	}
	return sum / float64(rows), nil
}

// penalty computes l1*sum(|w|) + l2*sum(w^2) over the weight values.
func penalty(l1, l2 float64, weights []float64) float64 {
	if l1 == 0 && l2 == 0 {
		return 0
	}
	var abs, sq float64
	for _, w := range weights {
		abs += math.Abs(w)
		sq += w * w
	}
	return l1*abs + l2*sq
}

// addPenaltyGrad adds the penalty contribution l1*sign(w) + 2*l2*w to
// the weight gradient in place.
func addPenaltyGrad(grad, weights []float64, l1, l2 float64) {
	if l1 == 0 && l2 == 0 {
		return
	}
	for i, w := range weights {
		switch {
		case w > 0:
			grad[i] += l1
		case w < 0:
			grad[i] -= l1
		}
		grad[i] += 2 * l2 * w
	}
}

// argmaxRow returns the index of the strictly largest value; ties go to
// the lowest index.
func argmaxRow(row []float64) int {
	best := 0
	for j := 1; j < len(row); j++ {
		if row[j] > row[best] {
			best = j
		}
	}
	return best
}
