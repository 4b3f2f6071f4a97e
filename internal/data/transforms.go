package data

import (
	"golang.org/x/exp/rand"

	"github.com/born-ml/lazygrad/internal/tensor"
)

// Transform augments a single [height, width] image.
type Transform interface {
	Apply(img *tensor.NDArray) *tensor.NDArray
}

// RandomFlipHorizontal mirrors an image left to right with probability P.
type RandomFlipHorizontal struct {
	P   float32
	rng *rand.Rand
}

// NewRandomFlipHorizontal creates a flip transform drawing from rng.
func NewRandomFlipHorizontal(p float32, rng *rand.Rand) *RandomFlipHorizontal {
	return &RandomFlipHorizontal{P: p, rng: rng}
}

// Apply returns the flipped image, or img itself when no flip is drawn.
func (f *RandomFlipHorizontal) Apply(img *tensor.NDArray) *tensor.NDArray {
	if f.rng.Float32() >= f.P {
		return img
	}
	h, w := img.Shape()[0], img.Shape()[1]
	src := img.Data()
	out := tensor.Zeros(img.Shape())
	dst := out.Data()
	for r := range h {
		for c := range w {
			dst[r*w+c] = src[r*w+(w-1-c)]
		}
	}
	return out
}

// RandomCrop zero-pads an image by Padding pixels on every side and crops
// back to the original size at a random offset, which shifts the content
// by up to Padding pixels in each direction.
type RandomCrop struct {
	Padding int
	rng     *rand.Rand
}

// NewRandomCrop creates a crop transform drawing from rng.
func NewRandomCrop(padding int, rng *rand.Rand) *RandomCrop {
	return &RandomCrop{Padding: padding, rng: rng}
}

// Apply returns the shifted image.
func (c *RandomCrop) Apply(img *tensor.NDArray) *tensor.NDArray {
	dx := c.rng.Intn(2*c.Padding+1) - c.Padding
	dy := c.rng.Intn(2*c.Padding+1) - c.Padding
	return Shift(img, dx, dy)
}

// Shift moves the content of a [height, width] image so that out[r][c] =
// img[r+dx][c+dy], filling pixels that come from outside with zeros.
func Shift(img *tensor.NDArray, dx, dy int) *tensor.NDArray {
	h, w := img.Shape()[0], img.Shape()[1]
	src := img.Data()
	out := tensor.Zeros(img.Shape())
	dst := out.Data()
	for r := range h {
		sr := r + dx
		if sr < 0 || sr >= h {
			continue
		}
		for col := range w {
			sc := col + dy
			if sc < 0 || sc >= w {
				continue
			}
			dst[r*w+col] = src[sr*w+sc]
		}
	}
	return out
}
