// Package data provides datasets, augmentation transforms and a mini-batch
// loader for training.
//
// Samples are plain arrays, not graph tensors: a training loop copies each
// Batch into the graph as constants.
//
//	ds, err := data.NewMNISTDataset(images, labels, data.NewRandomFlipHorizontal(0.5, rng))
//	loader := data.NewDataLoader(ds, 100, true, rng)
//	for loader.Reset(); ; {
//	    batch, err := loader.Next()
//	    if batch == nil || err != nil {
//	        break
//	    }
//	    ...
//	}
package data

import (
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/born-ml/lazygrad/internal/tensor"
)

// IDX magic numbers.
const (
	imageMagic = 2051 // 0x00000803: unsigned bytes, 3 dimensions
	labelMagic = 2049 // 0x00000801: unsigned bytes, 1 dimension
)

// Limits on IDX headers. Larger headers are rejected before any payload
// is read.
const (
	MaxIDXSamples   = 10_000_000 // Maximum image or label count
	MaxIDXImageSide = 4096       // Maximum rows or cols
	MaxIDXBytes     = 1 << 30    // Maximum payload size
)

// ErrMalformed reports an IDX stream whose header is invalid or whose
// payload is shorter than the header declares.
var ErrMalformed = errors.New("malformed IDX data")

// MNIST holds a parsed image/label file pair.
type MNIST struct {
	Images *tensor.NDArray // [count, rows*cols], pixels scaled to [0, 1]
	Labels []int           // [count]
	Rows   int
	Cols   int
}

// ParseMNIST reads a gzip-compressed IDX image file and label file.
//
// The two files are decoded concurrently. Pixels are converted from bytes
// to float32 and divided by 255.
//
// Returns an error if either file is missing or malformed, or if the files
// hold a different number of samples.
func ParseMNIST(imagePath, labelPath string) (*MNIST, error) {
	var (
		images     []float32
		rows, cols int
		labels     []int
	)

	var g errgroup.Group
	g.Go(func() error {
		return readGzip(imagePath, func(r io.Reader) error {
			var err error
			images, rows, cols, err = ReadIDXImages(r)
			return err
		})
	})
	g.Go(func() error {
		return readGzip(labelPath, func(r io.Reader) error {
			var err error
			labels, err = ReadIDXLabels(r)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	count := len(labels)
	if rows*cols == 0 || len(images) != count*rows*cols {
		return nil, errors.Errorf("mnist: %d pixels of %dx%d images for %d labels", len(images), rows, cols, count)
	}
	x, err := tensor.New(tensor.Shape{count, rows * cols}, images)
	if err != nil {
		return nil, err
	}
	return &MNIST{Images: x, Labels: labels, Rows: rows, Cols: cols}, nil
}

func readGzip(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "mnist")
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "mnist: %s", path)
	}
	defer zr.Close()

	return errors.Wrapf(read(zr), "mnist: %s", path)
}

// ReadIDXImages decodes an uncompressed IDX image stream.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
//
// Returns the pixels scaled to [0, 1] and the image dimensions.
func ReadIDXImages(r io.Reader) (pixels []float32, rows, cols int, err error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, 0, errors.Wrap(err, "failed to read image header")
	}
	if header[0] != imageMagic {
		return nil, 0, 0, errors.Wrapf(ErrMalformed, "invalid magic number: got %d, want %d", header[0], imageMagic)
	}

	count, h, w := uint64(header[1]), uint64(header[2]), uint64(header[3])
	if count > MaxIDXSamples || h > MaxIDXImageSide || w > MaxIDXImageSide {
		return nil, 0, 0, errors.Wrapf(ErrMalformed, "header declares %d images of %dx%d", count, h, w)
	}
	size := count * h * w
	if size > MaxIDXBytes {
		return nil, 0, 0, errors.Wrapf(ErrMalformed, "%d pixel bytes exceed max %d", size, MaxIDXBytes)
	}
	raw, err := readPayload(r, int(size))
	if err != nil {
		return nil, 0, 0, errors.Wrapf(err, "failed to read %d images", count)
	}

	pixels = make([]float32, len(raw))
	for i, b := range raw {
		pixels[i] = float32(b) / 255
	}
	return pixels, int(h), int(w), nil
}

// readPayload reads exactly n bytes. The buffer grows as data arrives, so a
// short stream with a large declared size fails without allocating n bytes.
func readPayload(r io.Reader, n int) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, int64(n)))
	if err != nil {
		return nil, err
	}
	if len(raw) < n {
		return nil, errors.Wrapf(ErrMalformed, "got %d of %d bytes", len(raw), n)
	}
	return raw, nil
}

// ReadIDXLabels decodes an uncompressed IDX label stream.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func ReadIDXLabels(r io.Reader) ([]int, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrap(err, "failed to read label header")
	}
	if header[0] != labelMagic {
		return nil, errors.Wrapf(ErrMalformed, "invalid magic number: got %d, want %d", header[0], labelMagic)
	}
	if header[1] > MaxIDXSamples {
		return nil, errors.Wrapf(ErrMalformed, "header declares %d labels, max %d", header[1], MaxIDXSamples)
	}

	raw, err := readPayload(r, int(header[1]))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %d labels", header[1])
	}

	labels := make([]int, len(raw))
	for i, b := range raw {
		labels[i] = int(b)
	}
	return labels, nil
}

// WriteIDXImages encodes images of shape [count, rows*cols] with pixels in
// [0, 1] as an uncompressed IDX stream. Pixels are rounded to bytes.
func WriteIDXImages(w io.Writer, images *tensor.NDArray, rows, cols int) error {
	shape := images.Shape()
	if len(shape) != 2 || shape[1] != rows*cols {
		return errors.Wrapf(tensor.ErrShape, "images %v are not [count, %d]", shape, rows*cols)
	}
	header := [4]uint32{imageMagic, uint32(shape[0]), uint32(rows), uint32(cols)}
	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return err
	}

	raw := make([]byte, images.Len())
	for i, v := range images.Data() {
		raw[i] = byte(min(max(v*255+0.5, 0), 255))
	}
	_, err := w.Write(raw)
	return err
}

// WriteIDXLabels encodes labels in [0, 255] as an uncompressed IDX stream.
func WriteIDXLabels(w io.Writer, labels []int) error {
	header := [2]uint32{labelMagic, uint32(len(labels))}
	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return err
	}
	raw := make([]byte, len(labels))
	for i, y := range labels {
		if y < 0 || y > 255 {
			return errors.Errorf("label %d at index %d does not fit in a byte", y, i)
		}
		raw[i] = byte(y)
	}
	_, err := w.Write(raw)
	return err
}
