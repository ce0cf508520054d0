package linear_model

import (
	"bytes"
	"encoding/gob"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func newInitializedModel(t *testing.T, nFeatures, nClasses int, opts ...SoftmaxOption) *SoftmaxRegression {
	t.Helper()
	opts = append([]SoftmaxOption{WithSoftmaxRandomState(42)}, opts...)
	m := NewSoftmaxRegression(opts...)
	if err := m.Initialize(nFeatures, nClasses); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	return m
}

func TestInitializeValidation(t *testing.T) {
	m := NewSoftmaxRegression()
	if err := m.Initialize(0, 2); err == nil {
		t.Error("zero features should be rejected")
	}
	if err := m.Initialize(2, 1); err == nil {
		t.Error("single class should be rejected")
	}

	bad := NewSoftmaxRegression(WithSoftmaxL1(-0.1))
	if err := bad.Initialize(2, 2); err == nil {
		t.Error("negative penalty should be rejected")
	}
}

func TestWeightInitializationBounds(t *testing.T) {
	m := newInitializedModel(t, 100, 10)

	bound := 1.0 / math.Sqrt(100)
	params := m.Parameters()
	for _, w := range params[0].Data {
		if w < -bound || w > bound {
			t.Fatalf("weight %v outside [-%v, %v]", w, bound, bound)
		}
	}
	for _, b := range params[1].Data {
		if b != 0 {
			t.Fatalf("bias should start at zero, got %v", b)
		}
	}
}

func TestPredictProbaIsDistribution(t *testing.T) {
	m := newInitializedModel(t, 3, 4)
	m.SetFitted()

	X := mat.NewDense(5, 3, []float64{
		0.1, 0.9, 0.3,
		0.0, 0.0, 0.0,
		1.0, 1.0, 1.0,
		-2.0, 3.0, 0.5,
		4.0, -4.0, 2.0,
	})

	proba, err := m.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}

	rows, cols := proba.Dims()
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			p := proba.At(i, j)
			if p <= 0 || p >= 1 {
				t.Errorf("probability (%d,%d)=%v outside (0,1)", i, j, p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("row %d sums to %v, want 1", i, sum)
		}
	}
}

func TestPredictProbaSaturatedScores(t *testing.T) {
	// Extreme score gaps drive the dominant softmax entry to exactly 1.0
	// in float64. The fused log-softmax must keep everything finite and
	// normalized rather than producing NaN or Inf.
	m := newInitializedModel(t, 3, 4)
	m.SetFitted()

	X := mat.NewDense(2, 3, []float64{
		100, -100, 50,
		-500, 500, 0,
	})

	proba, err := m.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}

	rows, cols := proba.Dims()
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			p := proba.At(i, j)
			if math.IsNaN(p) || math.IsInf(p, 0) {
				t.Fatalf("probability (%d,%d)=%v not finite", i, j, p)
			}
			if p < 0 || p > 1 {
				t.Errorf("probability (%d,%d)=%v outside [0,1]", i, j, p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("row %d sums to %v, want 1", i, sum)
		}
	}
}

func TestPredictDominantClass(t *testing.T) {
	m := newInitializedModel(t, 2, 3)

	// Craft weights so class 2's score strictly dominates for x=[1,1].
	params := m.Parameters()
	copy(params[0].Data, []float64{
		0, 0, 5,
		0, 0, 5,
	})
	copy(params[1].Data, []float64{0, 0, 0})
	m.SetFitted()

	pred, err := m.Predict(mat.NewDense(1, 2, []float64{1, 1}))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred[0] != 2 {
		t.Errorf("dominant class not predicted: got %d, want 2", pred[0])
	}
}

func TestPredictTieBreaksToLowestIndex(t *testing.T) {
	m := newInitializedModel(t, 2, 3)

	// All-zero weights give identical scores for every class.
	params := m.Parameters()
	for i := range params[0].Data {
		params[0].Data[i] = 0
	}
	m.SetFitted()

	pred, err := m.Predict(mat.NewDense(1, 2, []float64{0.5, -0.5}))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred[0] != 0 {
		t.Errorf("tie should break to lowest index: got %d", pred[0])
	}
}

func TestPredictBeforeFit(t *testing.T) {
	m := newInitializedModel(t, 2, 2)
	if _, err := m.Predict(mat.NewDense(1, 2, []float64{1, 2})); err == nil {
		t.Error("Predict before fitting should fail")
	}
}

func TestUnregularizedLossEqualsMeanNLL(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 0,
		0, 1,
		1, 1,
		0.5, 0.2,
	})
	y := []int{0, 1, 1, 0}

	plain := newInitializedModel(t, 2, 2)
	plainLoss, err := plain.Loss(X, y)
	if err != nil {
		t.Fatalf("Loss failed: %v", err)
	}

	// Mean NLL computed directly from log-probabilities.
	plain.SetFitted()
	logp, err := plain.PredictLogProba(X)
	if err != nil {
		t.Fatalf("PredictLogProba failed: %v", err)
	}
	var want float64
	for i, label := range y {
		want -= logp.At(i, label)
	}
	want /= 4

	if math.Abs(plainLoss-want) > 1e-15 {
		t.Errorf("with zero penalties loss must equal mean NLL exactly: %v vs %v", plainLoss, want)
	}
}

func TestRegularizationAddsPenalty(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	y := []int{0, 1}

	plain := newInitializedModel(t, 2, 2)
	reg := newInitializedModel(t, 2, 2, WithSoftmaxL2(0.1))
	// Same seed gives identical weights, so the loss difference is the penalty.
	plainLoss, err := plain.Loss(X, y)
	if err != nil {
		t.Fatal(err)
	}
	regLoss, err := reg.Loss(X, y)
	if err != nil {
		t.Fatal(err)
	}

	var sq float64
	for _, w := range reg.Parameters()[0].Data {
		sq += w * w
	}
	if math.Abs(regLoss-(plainLoss+0.1*sq)) > 1e-12 {
		t.Errorf("L2 penalty mismatch: reg=%v plain=%v sq=%v", regLoss, plainLoss, sq)
	}
}

func TestGradientDescentStepReducesLoss(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 0,
		0, 1,
		1, 1,
		0.2, 0.7,
	})
	y := []int{0, 1, 1, 0}

	m := newInitializedModel(t, 2, 2)

	before, grads, err := m.LossAndGrad(X, y)
	if err != nil {
		t.Fatalf("LossAndGrad failed: %v", err)
	}

	const lr = 0.1
	for i, p := range m.Parameters() {
		for j := range p.Data {
			p.Data[j] -= lr * grads[i][j]
		}
	}

	after, err := m.Loss(X, y)
	if err != nil {
		t.Fatalf("Loss failed: %v", err)
	}
	if after >= before {
		t.Errorf("one gradient step should reduce the loss: before=%v after=%v", before, after)
	}
}

func TestSingleUpdateIncreasesTrueClassProbability(t *testing.T) {
	// Zero weights, zero bias, one example (x=[1,0], y=1), lr=0.1:
	// after one step the probability of class 1 must strictly increase.
	m := newInitializedModel(t, 2, 2)
	for _, p := range m.Parameters() {
		for j := range p.Data {
			p.Data[j] = 0
		}
	}
	m.SetFitted()

	X := mat.NewDense(1, 2, []float64{1, 0})
	y := []int{1}

	probaBefore, err := m.PredictProba(X)
	if err != nil {
		t.Fatal(err)
	}
	before := probaBefore.At(0, 1)

	_, grads, err := m.LossAndGrad(X, y)
	if err != nil {
		t.Fatal(err)
	}
	const lr = 0.1
	for i, p := range m.Parameters() {
		for j := range p.Data {
			p.Data[j] -= lr * grads[i][j]
		}
	}

	probaAfter, err := m.PredictProba(X)
	if err != nil {
		t.Fatal(err)
	}
	after := probaAfter.At(0, 1)

	if after <= before {
		t.Errorf("true-class probability must strictly increase: before=%v after=%v", before, after)
	}
}

func TestGradientMatchesFiniteDifference(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0.3, -0.1,
		0.8, 0.5,
		-0.2, 0.9,
	})
	y := []int{0, 1, 1}

	m := newInitializedModel(t, 2, 2, WithSoftmaxL1(1e-4), WithSoftmaxL2(1e-4))

	_, grads, err := m.LossAndGrad(X, y)
	if err != nil {
		t.Fatal(err)
	}

	const h = 1e-6
	for pi, p := range m.Parameters() {
		for j := range p.Data {
			orig := p.Data[j]

			p.Data[j] = orig + h
			up, err := m.Loss(X, y)
			if err != nil {
				t.Fatal(err)
			}
			p.Data[j] = orig - h
			down, err := m.Loss(X, y)
			if err != nil {
				t.Fatal(err)
			}
			p.Data[j] = orig

			numeric := (up - down) / (2 * h)
			if math.Abs(numeric-grads[pi][j]) > 1e-5 {
				t.Errorf("param %s[%d]: analytic %v vs numeric %v", p.Name, j, grads[pi][j], numeric)
			}
		}
	}
}

func TestLossAndGradLabelValidation(t *testing.T) {
	m := newInitializedModel(t, 2, 2)
	X := mat.NewDense(1, 2, []float64{1, 0})

	if _, _, err := m.LossAndGrad(X, []int{5}); err == nil {
		t.Error("out-of-range label should be rejected")
	}
	if _, _, err := m.LossAndGrad(X, []int{0, 1}); err == nil {
		t.Error("label count mismatch should be rejected")
	}
	if _, _, err := m.LossAndGrad(mat.NewDense(1, 3, []float64{1, 0, 0}), []int{0}); err == nil {
		t.Error("feature mismatch should be rejected")
	}
}

func TestGobRoundTrip(t *testing.T) {
	m := newInitializedModel(t, 3, 2, WithSoftmaxL2(1e-4))
	m.SetFitted()

	X := mat.NewDense(2, 3, []float64{0.1, 0.5, 0.9, 0.4, 0.2, 0.7})
	y := []int{0, 1}
	lossBefore, err := m.Loss(X, y)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var restored SoftmaxRegression
	if err := gob.NewDecoder(&buf).Decode(&restored); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if !restored.IsFitted() {
		t.Error("fitted state not restored")
	}
	lossAfter, err := restored.Loss(X, y)
	if err != nil {
		t.Fatal(err)
	}
	if lossBefore != lossAfter {
		t.Errorf("loss changed after round trip: %v vs %v", lossBefore, lossAfter)
	}
}
