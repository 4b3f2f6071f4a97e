package data

import (
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/tensor"
)

// Dataset is an indexed collection of labeled samples.
type Dataset interface {
	// Len returns the number of samples.
	Len() int

	// Get returns sample i and its class label.
	Get(i int) (x *tensor.NDArray, label int, err error)
}

// ArrayDataset serves the rows of an in-memory array.
type ArrayDataset struct {
	x      *tensor.NDArray
	labels []int
	sample tensor.Shape
}

// NewArrayDataset creates a dataset whose sample i is x[i] with label
// labels[i]. x must have at least one dimension and len(labels) rows.
func NewArrayDataset(x *tensor.NDArray, labels []int) (*ArrayDataset, error) {
	shape := x.Shape()
	if len(shape) == 0 || shape[0] != len(labels) {
		return nil, errors.Wrapf(tensor.ErrShape, "array %v does not match %d labels", shape, len(labels))
	}
	return &ArrayDataset{x: x, labels: labels, sample: shape[1:].Clone()}, nil
}

// Len returns the number of samples.
func (d *ArrayDataset) Len() int {
	return len(d.labels)
}

// Get returns a copy of row i.
func (d *ArrayDataset) Get(i int) (*tensor.NDArray, int, error) {
	if i < 0 || i >= len(d.labels) {
		return nil, 0, errors.Errorf("index %d out of range [0, %d)", i, len(d.labels))
	}
	size := d.sample.NumElements()
	row, err := tensor.FromSlice(d.x.Data()[i*size:(i+1)*size], d.sample)
	if err != nil {
		return nil, 0, err
	}
	return row, d.labels[i], nil
}

// MNISTDataset serves MNIST images as flat [rows*cols] arrays.
//
// Transforms see each image as a [rows, cols] array and are applied in
// order every time a sample is read, so augmentation differs per epoch.
type MNISTDataset struct {
	*MNIST
	transforms []Transform
}

// NewMNISTDataset parses a gzip-compressed IDX image/label pair.
func NewMNISTDataset(imagePath, labelPath string, transforms ...Transform) (*MNISTDataset, error) {
	m, err := ParseMNIST(imagePath, labelPath)
	if err != nil {
		return nil, err
	}
	return &MNISTDataset{MNIST: m, transforms: transforms}, nil
}

// Len returns the number of images.
func (d *MNISTDataset) Len() int {
	return len(d.Labels)
}

// Get returns image i, flattened, after applying the transforms.
func (d *MNISTDataset) Get(i int) (*tensor.NDArray, int, error) {
	if i < 0 || i >= len(d.Labels) {
		return nil, 0, errors.Errorf("index %d out of range [0, %d)", i, len(d.Labels))
	}
	size := d.Rows * d.Cols
	img, err := tensor.FromSlice(d.Images.Data()[i*size:(i+1)*size], tensor.Shape{d.Rows, d.Cols})
	if err != nil {
		return nil, 0, err
	}
	for _, t := range d.transforms {
		img = t.Apply(img)
	}
	flat, err := img.Reshape(tensor.Shape{size})
	if err != nil {
		return nil, 0, err
	}
	return flat, d.Labels[i], nil
}
