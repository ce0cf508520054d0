package model

import (
	"bytes"
	"path/filepath"
	"testing"
)

type dummyModel struct {
	Weights []float64
	Bias    float64
	Fitted  bool
}

func TestSaveLoadModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.gob")

	saved := &dummyModel{Weights: []float64{0.25, -1.5}, Bias: 0.125, Fitted: true}
	if err := SaveModel(saved, path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var loaded dummyModel
	if err := LoadModel(&loaded, path); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Bias != saved.Bias || !loaded.Fitted {
		t.Errorf("scalar fields not restored: %+v", loaded)
	}
	for i := range saved.Weights {
		if loaded.Weights[i] != saved.Weights[i] {
			t.Errorf("weight %d not restored bit-for-bit: %v != %v", i, loaded.Weights[i], saved.Weights[i])
		}
	}
}

func TestSaveLoadModelWriter(t *testing.T) {
	var buf bytes.Buffer
	saved := &dummyModel{Weights: []float64{1}, Bias: 2}
	if err := SaveModelToWriter(saved, &buf); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var loaded dummyModel
	if err := LoadModelFromReader(&loaded, &buf); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if loaded.Weights[0] != 1 || loaded.Bias != 2 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	if s.IsFitted() {
		t.Error("new state manager should not be fitted")
	}
	if err := s.RequireFitted("SoftmaxRegression", "Predict"); err == nil {
		t.Error("RequireFitted should fail before SetFitted")
	}

	s.SetDimensions(784, 50000, 10)
	s.SetFitted()

	if !s.IsFitted() {
		t.Error("SetFitted not recorded")
	}
	if err := s.RequireFitted("SoftmaxRegression", "Predict"); err != nil {
		t.Errorf("RequireFitted should pass after SetFitted: %v", err)
	}

	nf, ns, nc := s.GetDimensions()
	if nf != 784 || ns != 50000 || nc != 10 {
		t.Errorf("dimensions not recorded: %d %d %d", nf, ns, nc)
	}

	s.Reset()
	if s.IsFitted() {
		t.Error("Reset should clear fitted state")
	}
}
