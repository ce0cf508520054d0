// Package neural provides a single-hidden-layer multilayer perceptron
// classifier: a tanh hidden transformation feeding a softmax output
// layer.
package neural

import (
	"bytes"
	"encoding/gob"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/minilearn-ml/minilearn/core/model"
	"github.com/minilearn-ml/minilearn/pkg/errors"
)

// MLPClassifier is a multilayer perceptron with one hidden layer. The
// hidden layer computes tanh(X*W1 + b1), producing features in (-1, 1);
// the output layer applies an affine transform and a fused log-softmax
// over those features.
//
// The model owns four parameters: hidden weights (nFeatures x nHidden),
// hidden bias (nHidden), output weights (nHidden x nClasses), and output
// bias (nClasses). Each weight matrix is initialized uniformly in
// [-1/sqrt(fanIn), 1/sqrt(fanIn)] of its own fan-in; biases start at
// zero. L1/L2 penalties cover both weight matrices and never the biases.
type MLPClassifier struct {
	state *model.StateManager

	// Hyperparameters
	nHidden     int
	l1          float64
	l2          float64
	randomState int64

	// Model parameters
	nFeatures     int
	nClasses      int
	hiddenWeights *mat.Dense // nFeatures x nHidden
	hiddenBias    []float64  // nHidden
	outWeights    *mat.Dense // nHidden x nClasses
	outBias       []float64  // nClasses

	rng *rand.Rand
}

// MLPOption is a functional option for MLPClassifier.
type MLPOption func(*MLPClassifier)

// WithMLPHiddenUnits sets the hidden layer width.
func WithMLPHiddenUnits(n int) MLPOption {
	return func(m *MLPClassifier) {
		m.nHidden = n
	}
}

// WithMLPL1 sets the L1 regularization coefficient.
func WithMLPL1(l1 float64) MLPOption {
	return func(m *MLPClassifier) {
		m.l1 = l1
	}
}

// WithMLPL2 sets the L2 regularization coefficient.
func WithMLPL2(l2 float64) MLPOption {
	return func(m *MLPClassifier) {
		m.l2 = l2
	}
}

// WithMLPRandomState sets the random seed for weight initialization.
func WithMLPRandomState(seed int64) MLPOption {
	return func(m *MLPClassifier) {
		m.randomState = seed
	}
}

// NewMLPClassifier creates a new MLPClassifier. The default hidden
// width is 500 units.
func NewMLPClassifier(opts ...MLPOption) *MLPClassifier {
	m := &MLPClassifier{
		state:       model.NewStateManager(),
		nHidden:     500,
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
func (m *MLPClassifier) ModelName() string {
	return "MLPClassifier"
}

// IsFitted returns whether the model has been trained.
func (m *MLPClassifier) IsFitted() bool {
	return m.state.IsFitted()
}

// SetFitted marks the model as trained.
func (m *MLPClassifier) SetFitted() {
	m.state.SetFitted()
}

// NumFeatures returns the input dimension the model was initialized for.
func (m *MLPClassifier) NumFeatures() int { return m.nFeatures }

// NumClasses returns the number of target classes.
func (m *MLPClassifier) NumClasses() int { return m.nClasses }

// NumHidden returns the hidden layer width.
func (m *MLPClassifier) NumHidden() int { return m.nHidden }

// Initialize allocates and initializes all four parameters for the
// given input dimension and class count.
func (m *MLPClassifier) Initialize(nFeatures, nClasses int) error {
	if nFeatures <= 0 {
		return errors.NewValidationError("n_features", "must be positive", nFeatures)
	}
	if nClasses < 2 {
		return errors.NewValidationError("n_classes", "need at least two classes", nClasses)
	}
	if m.nHidden <= 0 {
		return errors.NewValidationError("hidden_units", "must be positive", m.nHidden)
	}
	if m.l1 < 0 || m.l2 < 0 {
		return errors.NewValidationError("penalty", "must be non-negative", []float64{m.l1, m.l2})
	}

	m.nFeatures = nFeatures
	m.nClasses = nClasses
	m.hiddenWeights = mat.NewDense(nFeatures, m.nHidden, nil)
	m.hiddenBias = make([]float64, m.nHidden)
	m.outWeights = mat.NewDense(m.nHidden, nClasses, nil)
	m.outBias = make([]float64, nClasses)

	m.uniformInit(m.hiddenWeights.RawMatrix().Data, nFeatures)
	m.uniformInit(m.outWeights.RawMatrix().Data, m.nHidden)

	m.state.Reset()
	m.state.SetDimensions(nFeatures, 0, nClasses)
	return nil
}

func (m *MLPClassifier) uniformInit(data []float64, fanIn int) {
	bound := 1.0 / math.Sqrt(float64(fanIn))
	for i := range data {
		data[i] = (m.rng.Float64()*2 - 1) * bound
	}
}

// Parameters returns the live parameter set in a fixed order: hidden
// weights, hidden bias, output weights, output bias.
func (m *MLPClassifier) Parameters() []model.Parameter {
	return []model.Parameter{
		{Name: "hidden_weights", Data: m.hiddenWeights.RawMatrix().Data},
		{Name: "hidden_bias", Data: m.hiddenBias},
		{Name: "output_weights", Data: m.outWeights.RawMatrix().Data},
		{Name: "output_bias", Data: m.outBias},
	}
}

// hiddenActivations computes tanh(X*W1 + b1) for every row of X.
func (m *MLPClassifier) hiddenActivations(X mat.Matrix) (*mat.Dense, error) {
	if m.hiddenWeights == nil {
		return nil, errors.NewModelError("MLPClassifier", "model not initialized", nil)
	}
	rows, cols := X.Dims()
	if cols != m.nFeatures {
		return nil, errors.NewDimensionError("MLPClassifier", m.nFeatures, cols, 1)
	}
	if rows == 0 {
		return nil, errors.NewValueError("MLPClassifier", "empty input batch")
	}

	var hidden mat.Dense
	hidden.Mul(X, m.hiddenWeights)
	for i := 0; i < rows; i++ {
		row := hidden.RawRowView(i)
		for j := range row {
			row[j] = math.Tanh(row[j] + m.hiddenBias[j])
		}
	}
	return &hidden, nil
}

// logProbs runs the full forward pass and returns per-row fused
// log-softmax values along with the hidden activations, which the
// backward pass reuses.
func (m *MLPClassifier) logProbs(X mat.Matrix) (logp, hidden *mat.Dense, err error) {
	hidden, err = m.hiddenActivations(X)
	if err != nil {
		return nil, nil, err
	}

	var logits mat.Dense
	logits.Mul(hidden, m.outWeights)

	rows, _ := logits.Dims()
	for i := 0; i < rows; i++ {
		row := logits.RawRowView(i)

		maxScore := math.Inf(-1)
		for j := range row {
			row[j] += m.outBias[j]
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

	return &logits, hidden, nil
}

// PredictLogProba returns per-class log-probabilities, one row per sample.
func (m *MLPClassifier) PredictLogProba(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted(m.ModelName(), "PredictLogProba"); err != nil {
		return nil, err
	}
	logp, _, err := m.logProbs(X)
	return logp, err
}

// PredictProba returns per-class probabilities, one row per sample.
func (m *MLPClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted(m.ModelName(), "PredictProba"); err != nil {
		return nil, err
	}
	logp, _, err := m.logProbs(X)
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
// maximum probability, ties broken by the lowest index.
func (m *MLPClassifier) Predict(X mat.Matrix) ([]int, error) {
	if err := m.state.RequireFitted(m.ModelName(), "Predict"); err != nil {
		return nil, err
	}
	return m.PredictLabels(X)
}

// PredictLabels is the unchecked prediction path used by the training
// loop while the model is still being fitted.
func (m *MLPClassifier) PredictLabels(X mat.Matrix) ([]int, error) {
	logp, _, err := m.logProbs(X)
	if err != nil {
		return nil, err
	}

	rows, _ := logp.Dims()
	labels := make([]int, rows)
	for i := 0; i < rows; i++ {
		row := logp.RawRowView(i)
		best := 0
		for j := 1; j < len(row); j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		labels[i] = best
	}
	return labels, nil
}

// Loss computes the regularized mean negative log-likelihood of the
// batch without computing gradients.
func (m *MLPClassifier) Loss(X mat.Matrix, y []int) (float64, error) {
	logp, _, err := m.logProbs(X)
	if err != nil {
		return 0, err
	}
	nll, err := m.meanNLL(logp, y)
	if err != nil {
		return 0, err
	}
	return nll + m.penalty(), nil
}

// LossAndGrad computes the regularized batch loss and its gradient with
// respect to every parameter, in the order returned by Parameters.
// Gradients are closed-form: the output delta is (softmax - onehot)/B
// and the hidden delta propagates through tanh as (1 - a^2).
func (m *MLPClassifier) LossAndGrad(X mat.Matrix, y []int) (float64, [][]float64, error) {
	logp, hidden, err := m.logProbs(X)
	if err != nil {
		return 0, nil, err
	}
	nll, err := m.meanNLL(logp, y)
	if err != nil {
		return 0, nil, err
	}
	loss := nll + m.penalty()

	rows, cols := logp.Dims()
	invB := 1.0 / float64(rows)

	// Output delta, computed in place over logp.
	for i := 0; i < rows; i++ {
		row := logp.RawRowView(i)
		for j := 0; j < cols; j++ {
			row[j] = math.Exp(row[j]) * invB
		}
		row[y[i]] -= invB
	}
	dLogits := logp

	// Output layer gradients.
	var gOutW mat.Dense
	gOutW.Mul(hidden.T(), dLogits)
	gOutWData := gOutW.RawMatrix().Data
	m.addPenaltyGrad(gOutWData, m.outWeights.RawMatrix().Data)

	gOutB := make([]float64, cols)
	for i := 0; i < rows; i++ {
		row := dLogits.RawRowView(i)
		for j := 0; j < cols; j++ {
			gOutB[j] += row[j]
		}
	}

	// Hidden delta: (dLogits * W2^T) elementwise (1 - a^2).
	var dHidden mat.Dense
	dHidden.Mul(dLogits, m.outWeights.T())
	for i := 0; i < rows; i++ {
		dRow := dHidden.RawRowView(i)
		aRow := hidden.RawRowView(i)
		for j := range dRow {
			dRow[j] *= 1 - aRow[j]*aRow[j]
		}
	}

	// Hidden layer gradients.
	var gHidW mat.Dense
	gHidW.Mul(X.T(), &dHidden)
	gHidWData := gHidW.RawMatrix().Data
	m.addPenaltyGrad(gHidWData, m.hiddenWeights.RawMatrix().Data)

	gHidB := make([]float64, m.nHidden)
	for i := 0; i < rows; i++ {
		row := dHidden.RawRowView(i)
		for j := range row {
			gHidB[j] += row[j]
		}
	}

	grads := [][]float64{gHidWData, gHidB, gOutWData, gOutB}
	return loss, grads, nil
}

func (m *MLPClassifier) meanNLL(logp *mat.Dense, y []int) (float64, error) {
	rows, _ := logp.Dims()
	if len(y) != rows {
		return 0, errors.NewDimensionError("MLPClassifier", rows, len(y), 0)
	}

	var sum float64
	for i, label := range y {
		if label < 0 || label >= m.nClasses {
			return 0, errors.Newf("label %d at index %d out of range [0, %d)", label, i, m.nClasses)
		}
		sum -= logp.At(i, label)
	}
	return sum / float64(rows), nil
}

// penalty computes the L1/L2 terms over both weight matrices.
func (m *MLPClassifier) penalty() float64 {
	if m.l1 == 0 && m.l2 == 0 {
		return 0
	}
	var abs, sq float64
	for _, data := range [][]float64{m.hiddenWeights.RawMatrix().Data, m.outWeights.RawMatrix().Data} {
		for _, w := range data {
			abs += math.Abs(w)
			sq += w * w
		}
	}
	return m.l1*abs + m.l2*sq
}

func (m *MLPClassifier) addPenaltyGrad(grad, weights []float64) {
	if m.l1 == 0 && m.l2 == 0 {
		return
	}
	for i, w := range weights {
		switch {
		case w > 0:
			grad[i] += m.l1
		case w < 0:
			grad[i] -= m.l1
		}
		grad[i] += 2 * m.l2 * w
	}
}

// GobEncode serializes the model, including hyperparameters, dimensions,
// parameter values, and fitted state.
func (m *MLPClassifier) GobEncode() ([]byte, error) {
	st := mlpClassifierState{
		NHidden:     m.nHidden,
		L1:          m.l1,
		L2:          m.l2,
		RandomState: m.randomState,
		NFeatures:   m.nFeatures,
		NClasses:    m.nClasses,
		HiddenBias:  m.hiddenBias,
		OutBias:     m.outBias,
		Fitted:      m.state.IsFitted(),
	}
	if m.hiddenWeights != nil {
		st.HiddenWeights = m.hiddenWeights.RawMatrix().Data
		st.OutWeights = m.outWeights.RawMatrix().Data
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&st); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode restores a model serialized by GobEncode.
func (m *MLPClassifier) GobDecode(data []byte) error {
	var st mlpClassifierState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return err
	}

	m.nHidden = st.NHidden
	m.l1 = st.L1
	m.l2 = st.L2
	m.randomState = st.RandomState
	m.nFeatures = st.NFeatures
	m.nClasses = st.NClasses
	m.hiddenBias = st.HiddenBias
	m.outBias = st.OutBias
	if st.HiddenWeights != nil {
		m.hiddenWeights = mat.NewDense(st.NFeatures, st.NHidden, st.HiddenWeights)
		m.outWeights = mat.NewDense(st.NHidden, st.NClasses, st.OutWeights)
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

type mlpClassifierState struct {
	NHidden       int
	L1, L2        float64
	RandomState   int64
	NFeatures     int
	NClasses      int
	HiddenWeights []float64
	HiddenBias    []float64
	OutWeights    []float64
	OutBias       []float64
	Fitted        bool
}
