// Package minilearn provides supervised classifiers for dense numeric
// data, trained with minibatch stochastic gradient descent and
// patience-based early stopping.
//
// Two models are included: a multinomial logistic regression with a
// softmax output (linear_model.SoftmaxRegression) and a single
// hidden-layer perceptron with tanh activations (neural.MLPClassifier).
// Both expose closed-form gradients through a shared training contract,
// so the optimize.Trainer drives either one without knowing its
// internals.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/minilearn-ml/minilearn/dataset"
//	    "github.com/minilearn-ml/minilearn/linear_model"
//	    "github.com/minilearn-ml/minilearn/optimize"
//	)
//
//	func main() {
//	    train, err := dataset.LoadIDX("train-images-idx3-ubyte", "train-labels-idx1-ubyte")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    train, valid, _, err := train.Split(50000, 10000, 0)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    trainer, err := optimize.NewTrainer(optimize.DefaultConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    clf := linear_model.NewSoftmaxRegression()
//	    res, err := trainer.FitWithValidation(clf, train, valid, nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("validation error: %.2f%%\n", res.BestValidationLoss*100)
//	}
//
// # Packages
//
//   - linear_model: softmax regression classifier
//   - neural: single hidden-layer MLP classifier
//   - optimize: SGD updates, early stopping and the training loop
//   - dataset: in-memory datasets, minibatch iteration, IDX loading
//   - preprocessing: feature scaling
//   - metrics: zero-one loss, accuracy, log loss, confusion matrix
//   - core/model: parameter snapshots, fitted state, gob persistence
//   - core/parallel: chunked parallel execution
//   - pkg/errors: structured error and warning types
//   - pkg/log: zerolog-backed structured logging
//
// Trained models serialize with encoding/gob via core/model.SaveModel
// and restore with core/model.LoadModel.
package minilearn
