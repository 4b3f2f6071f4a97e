package data

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"github.com/born-ml/lazygrad/internal/tensor"
)

// Batch is a mini-batch of samples.
type Batch struct {
	X *tensor.NDArray // [size, sample...]
	Y *tensor.NDArray // [size], class labels as float32
}

// Size returns the number of samples in the batch.
func (b *Batch) Size() int {
	return b.Y.Len()
}

// Labels returns the class labels as ints.
func (b *Batch) Labels() []int {
	out := make([]int, b.Y.Len())
	for i, v := range b.Y.Data() {
		out[i] = int(v)
	}
	return out
}

// DataLoader provides batching and shuffling over a Dataset.
//
// An epoch starts with Reset, which draws a new sample order from the
// loader's generator when shuffling is enabled. Next then returns
// consecutive batches; the last one may be smaller than the batch size.
type DataLoader struct {
	dataset   Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
	order     []int
	position  int
}

// NewDataLoader creates a loader. rng is only used when shuffle is true and
// may be nil otherwise.
func NewDataLoader(dataset Dataset, batchSize int, shuffle bool, rng *rand.Rand) *DataLoader {
	if batchSize <= 0 {
		panic(errors.Errorf("batch size must be positive, got %d", batchSize))
	}
	if shuffle && rng == nil {
		panic("data: shuffling DataLoader needs a generator")
	}
	dl := &DataLoader{
		dataset:   dataset,
		batchSize: batchSize,
		shuffle:   shuffle,
		rng:       rng,
	}
	dl.Reset()
	return dl
}

// Dataset returns the underlying dataset.
func (dl *DataLoader) Dataset() Dataset {
	return dl.dataset
}

// Len returns the number of batches in an epoch.
func (dl *DataLoader) Len() int {
	return (dl.dataset.Len() + dl.batchSize - 1) / dl.batchSize
}

// Reset starts a new epoch.
func (dl *DataLoader) Reset() {
	n := dl.dataset.Len()
	if cap(dl.order) < n {
		dl.order = make([]int, n)
	}
	dl.order = dl.order[:n]
	if dl.shuffle {
		copy(dl.order, dl.rng.Perm(n))
	} else {
		for i := range dl.order {
			dl.order[i] = i
		}
	}
	dl.position = 0
}

// Next returns the next batch, or nil when the epoch is complete.
func (dl *DataLoader) Next() (*Batch, error) {
	if dl.position >= len(dl.order) {
		return nil, nil
	}
	end := min(dl.position+dl.batchSize, len(dl.order))
	idx := dl.order[dl.position:end]
	dl.position = end

	var (
		xs     []float32
		sample tensor.Shape
	)
	ys := make([]float32, len(idx))
	for i, j := range idx {
		x, y, err := dl.dataset.Get(j)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load sample %d", j)
		}
		if i == 0 {
			sample = x.Shape().Clone()
			xs = make([]float32, 0, len(idx)*x.Len())
		} else if !x.Shape().Equal(sample) {
			return nil, errors.Wrapf(tensor.ErrShape, "sample %d has shape %v, batch has %v", j, x.Shape(), sample)
		}
		xs = append(xs, x.Data()...)
		ys[i] = float32(y)
	}

	x, err := tensor.New(append(tensor.Shape{len(idx)}, sample...), xs)
	if err != nil {
		return nil, err
	}
	y, err := tensor.New(tensor.Shape{len(idx)}, ys)
	if err != nil {
		return nil, err
	}
	return &Batch{X: x, Y: y}, nil
}
