// Package optimize provides the minibatch stochastic gradient descent
// training harness shared by all minilearn classifiers: the parameter
// updater, the early-stopping controller, and the training loop.
package optimize

import (
	"github.com/minilearn-ml/minilearn/core/model"
	"github.com/minilearn-ml/minilearn/pkg/errors"
)

// SGD applies plain stochastic gradient descent updates with a fixed
// learning rate: parameter <- parameter - learningRate * gradient.
type SGD struct {
	learningRate float64
}

// NewSGD creates an SGD updater. The learning rate must be positive.
func NewSGD(learningRate float64) (*SGD, error) {
	if learningRate <= 0 {
		return nil, errors.NewValidationError("learning_rate", "must be positive", learningRate)
	}
	return &SGD{learningRate: learningRate}, nil
}

// LearningRate returns the configured learning rate.
func (s *SGD) LearningRate() float64 {
	return s.learningRate
}

// Step updates every parameter in place from its gradient. All
// gradients come from the same loss evaluation, so the update is
// simultaneous: no parameter sees another's updated value within one
// step.
func (s *SGD) Step(params []model.Parameter, grads [][]float64) error {
	if len(grads) != len(params) {
		return errors.NewDimensionError("SGD.Step", len(params), len(grads), 0)
	}

	for i, p := range params {
		g := grads[i]
		if len(g) != len(p.Data) {
			return errors.NewDimensionError("SGD.Step", len(p.Data), len(g), 1)
		}
		for j := range p.Data {
			p.Data[j] -= s.learningRate * g[j]
		}
	}
	return nil
}
