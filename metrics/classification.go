// Package metrics provides evaluation metrics for classification models.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/minilearn-ml/minilearn/pkg/errors"
)

// logLossEps keeps log arguments strictly positive.
const logLossEps = 1e-15

// ZeroOneLoss computes the mean misclassification rate, the fraction of
// predictions that differ from the true label. This is the metric the
// early-stopping controller tracks on the validation set.
func ZeroOneLoss(yTrue, yPred []int) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("ZeroOneLoss", "empty label slice")
	}
	if len(yPred) != n {
		return 0, errors.NewDimensionError("ZeroOneLoss", n, len(yPred), 0)
	}

	wrong := 0
	for i := range yTrue {
		if yTrue[i] != yPred[i] {
			wrong++
		}
	}

	return float64(wrong) / float64(n), nil
}

// Accuracy computes the fraction of correct predictions.
func Accuracy(yTrue, yPred []int) (float64, error) {
	loss, err := ZeroOneLoss(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - loss, nil
}

// LogLoss computes the mean negative log-likelihood of the true class
// given predicted probabilities (one row per sample, one column per
// class). Probabilities are clipped to [eps, 1-eps] so a degenerate
// prediction cannot produce an infinite loss.
func LogLoss(yTrue []int, proba mat.Matrix) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.NewValueError("LogLoss", "empty label slice")
	}

	rows, cols := proba.Dims()
	if rows != n {
		return 0, errors.NewDimensionError("LogLoss", n, rows, 0)
	}

	var sum float64
	for i, label := range yTrue {
		if label < 0 || label >= cols {
			return 0, errors.NewValueError("LogLoss", "label out of range for probability matrix")
		}
		p := errors.ClipValue(proba.At(i, label), logLossEps, 1-logLossEps)
		sum -= math.Log(p)
	}

	return sum / float64(n), nil
}

// ConfusionMatrix computes the numClasses x numClasses confusion matrix:
// entry (i, j) counts samples with true class i predicted as class j.
func ConfusionMatrix(yTrue, yPred []int, numClasses int) (*mat.Dense, error) {
	n := len(yTrue)
	if n == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty label slice")
	}
	if len(yPred) != n {
		return nil, errors.NewDimensionError("ConfusionMatrix", n, len(yPred), 0)
	}
	if numClasses <= 0 {
		return nil, errors.NewValidationError("num_classes", "must be positive", numClasses)
	}

	cm := mat.NewDense(numClasses, numClasses, nil)
	for i := range yTrue {
		if yTrue[i] < 0 || yTrue[i] >= numClasses || yPred[i] < 0 || yPred[i] >= numClasses {
			return nil, errors.NewValueError("ConfusionMatrix", "label out of range")
		}
		cm.Set(yTrue[i], yPred[i], cm.At(yTrue[i], yPred[i])+1)
	}

	return cm, nil
}
