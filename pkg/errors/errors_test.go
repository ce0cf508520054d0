package errors

import (
	"math"
	"strings"
	"testing"
)

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("SoftmaxRegression", "Predict")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var nfe *NotFittedError
	if !As(err, &nfe) {
		t.Fatalf("error should unwrap to *NotFittedError: %v", err)
	}
	if nfe.ModelName != "SoftmaxRegression" || nfe.Method != "Predict" {
		t.Errorf("unexpected fields: %+v", nfe)
	}
	if !strings.Contains(err.Error(), "not fitted") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestDimensionError(t *testing.T) {
	err := NewDimensionError("MLPClassifier.Fit", 784, 100, 1)

	var de *DimensionError
	if !As(err, &de) {
		t.Fatalf("error should unwrap to *DimensionError: %v", err)
	}
	if de.Expected != 784 || de.Got != 100 {
		t.Errorf("unexpected fields: %+v", de)
	}
	if !strings.Contains(err.Error(), "features") {
		t.Errorf("axis 1 should be reported as features: %v", err)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("learning_rate", "must be positive", -0.5)

	var ve *ValidationError
	if !As(err, &ve) {
		t.Fatalf("error should unwrap to *ValidationError: %v", err)
	}
	if ve.ParamName != "learning_rate" {
		t.Errorf("unexpected param name: %q", ve.ParamName)
	}
}

func TestCheckScalar(t *testing.T) {
	if err := CheckScalar("loss_calculation", 0.5, 10); err != nil {
		t.Errorf("finite value should pass: %v", err)
	}

	err := CheckScalar("loss_calculation", math.NaN(), 10)
	if err == nil {
		t.Fatal("NaN should be detected")
	}
	var nie *NumericalInstabilityError
	if !As(err, &nie) {
		t.Fatalf("error should unwrap to *NumericalInstabilityError: %v", err)
	}
	if nie.Iteration != 10 {
		t.Errorf("iteration not recorded: %+v", nie)
	}

	if err := CheckScalar("loss_calculation", math.Inf(1), 0); err == nil {
		t.Error("Inf should be detected")
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("gradient_update", []float64{1, 2, 3}, 0); err != nil {
		t.Errorf("finite values should pass: %v", err)
	}
	if err := CheckNumericalStability("gradient_update", []float64{1, math.Inf(-1)}, 0); err == nil {
		t.Error("Inf should be detected")
	}
}

func TestWarningHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(nil)

	w := NewConvergenceWarning("SGD", 5000, "")
	Warn(w)

	if captured == nil {
		t.Fatal("warning handler not invoked")
	}
	if !strings.Contains(captured.Error(), "SGD") {
		t.Errorf("unexpected warning: %v", captured)
	}
}

func TestSafeExecuteRecoversPanic(t *testing.T) {
	err := SafeExecute("matrix multiply", func() error {
		panic("mat: dimension mismatch")
	})
	if err == nil {
		t.Fatal("expected error from panic")
	}
	var pe *PanicError
	if !As(err, &pe) {
		t.Fatalf("error should unwrap to *PanicError: %v", err)
	}
	if pe.Operation != "matrix multiply" {
		t.Errorf("unexpected operation: %q", pe.Operation)
	}
}
