package nn

import (
	"math"

	"github.com/chewxy/math32"
	"golang.org/x/exp/rand"

	"github.com/born-ml/lazygrad/internal/tensor"
)

// Weight initializers. Every initializer returns a [fanIn, fanOut] array
// and draws from the generator it is given, so results depend only on the
// caller's seed.

const sqrt2 = float32(math.Sqrt2)

// XavierUniform draws from U(-a, a) with a = gain * sqrt(6 / (fanIn + fanOut)).
func XavierUniform(fanIn, fanOut int, gain float32, rng *rand.Rand) *tensor.NDArray {
	a := gain * math32.Sqrt(6/float32(fanIn+fanOut))
	return tensor.Rand(tensor.Shape{fanIn, fanOut}, -a, a, rng)
}

// XavierNormal draws from N(0, std²) with std = gain * sqrt(2 / (fanIn + fanOut)).
func XavierNormal(fanIn, fanOut int, gain float32, rng *rand.Rand) *tensor.NDArray {
	std := gain * math32.Sqrt(2/float32(fanIn+fanOut))
	return tensor.Randn(tensor.Shape{fanIn, fanOut}, 0, std, rng)
}

// KaimingUniform draws from U(-b, b) with b = sqrt(2) * sqrt(3 / fanIn),
// the ReLU gain.
func KaimingUniform(fanIn, fanOut int, rng *rand.Rand) *tensor.NDArray {
	b := sqrt2 * math32.Sqrt(3/float32(fanIn))
	return tensor.Rand(tensor.Shape{fanIn, fanOut}, -b, b, rng)
}

// KaimingNormal draws from N(0, std²) with std = sqrt(2) / sqrt(fanIn).
func KaimingNormal(fanIn, fanOut int, rng *rand.Rand) *tensor.NDArray {
	std := sqrt2 / math32.Sqrt(float32(fanIn))
	return tensor.Randn(tensor.Shape{fanIn, fanOut}, 0, std, rng)
}
