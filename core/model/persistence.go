package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/minilearn-ml/minilearn/pkg/errors"
)

// SaveModel saves a model to a file using gob encoding.
//
// The model's exported fields (weights, biases, recorded dimensions) are
// written as-is, so a later LoadModel reproduces the exact parameter
// values, bit for bit.
//
// Example:
//
//	clf := linear_model.NewSoftmaxRegression()
//	// ... training ...
//	err := model.SaveModel(clf, "digits.gob")
func SaveModel(model interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create model file")
	}
	defer file.Close()

	return SaveModelToWriter(model, file)
}

// LoadModel loads a model from a file written by SaveModel. The target
// must be a pointer to the same concrete type that was saved.
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open model file")
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter encodes a model to an arbitrary writer.
func SaveModelToWriter(model interface{}, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader decodes a model from an arbitrary reader.
// Corrupt input can make gob panic, so decoding runs through a
// recovery wrapper and surfaces as an error.
func LoadModelFromReader(model interface{}, r io.Reader) error {
	return errors.SafeExecute("model decode", func() error {
		decoder := gob.NewDecoder(r)
		if err := decoder.Decode(model); err != nil {
			return errors.Wrap(err, "failed to decode model")
		}
		return nil
	})
}
