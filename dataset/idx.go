package dataset

import (
	"encoding/binary"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/minilearn-ml/minilearn/pkg/errors"
)

// IDX magic numbers for the MNIST distribution files.
const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049
)

// LoadIDX reads a pair of local MNIST-style IDX files (images + labels)
// and returns a Dataset with pixel values scaled to [0, 1]. Labels are
// digits, so NumClasses is 10.
func LoadIDX(imagesPath, labelsPath string) (*Dataset, error) {
	images, dim, err := readIDXImages(imagesPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading IDX images")
	}
	labels, err := readIDXLabels(labelsPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading IDX labels")
	}
	if len(labels) != len(images)/dim {
		return nil, errors.NewDimensionError("dataset.LoadIDX", len(images)/dim, len(labels), 0)
	}

	return New(mat.NewDense(len(labels), dim, images), labels, 10)
}

// readIDXImages reads an IDX image file.
//
// Layout: magic (2051), image count, rows, cols as big-endian uint32,
// then one unsigned byte per pixel. Pixels are scaled by 1/255.
func readIDXImages(filename string) ([]float64, int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	var magic uint32
	if err := binary.Read(file, binary.BigEndian, &magic); err != nil {
		return nil, 0, errors.Wrap(err, "failed to read magic")
	}
	if magic != idxImagesMagic {
		return nil, 0, errors.Newf("invalid magic number: got %d, want %d", magic, idxImagesMagic)
	}

	var numImages, numRows, numCols uint32
	if err := binary.Read(file, binary.BigEndian, &numImages); err != nil {
		return nil, 0, err
	}
	if err := binary.Read(file, binary.BigEndian, &numRows); err != nil {
		return nil, 0, err
	}
	if err := binary.Read(file, binary.BigEndian, &numCols); err != nil {
		return nil, 0, err
	}

	imageSize := int(numRows * numCols)
	raw := make([]byte, int(numImages)*imageSize)
	if _, err := io.ReadFull(file, raw); err != nil {
		return nil, 0, errors.Wrap(err, "failed to read pixel data")
	}

	pixels := make([]float64, len(raw))
	for i, b := range raw {
		pixels[i] = float64(b) / 255.0
	}

	return pixels, imageSize, nil
}

// readIDXLabels reads an IDX label file.
//
// Layout: magic (2049), label count as big-endian uint32, then one
// unsigned byte per label.
func readIDXLabels(filename string) ([]int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var magic uint32
	if err := binary.Read(file, binary.BigEndian, &magic); err != nil {
		return nil, errors.Wrap(err, "failed to read magic")
	}
	if magic != idxLabelsMagic {
		return nil, errors.Newf("invalid magic number: got %d, want %d", magic, idxLabelsMagic)
	}

	var numLabels uint32
	if err := binary.Read(file, binary.BigEndian, &numLabels); err != nil {
		return nil, err
	}

	raw := make([]byte, numLabels)
	if _, err := io.ReadFull(file, raw); err != nil {
		return nil, errors.Wrap(err, "failed to read label data")
	}

	labels := make([]int, numLabels)
	for i, b := range raw {
		labels[i] = int(b)
	}

	return labels, nil
}
