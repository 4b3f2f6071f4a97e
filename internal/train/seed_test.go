package train

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

func TestAugmentRNG_SeparateStream(t *testing.T) {
	for _, seed := range []uint64{0, 1, 7} {
		main := rand.New(rand.NewSource(seed))
		aug := augmentRNG(seed)
		again := augmentRNG(seed)

		same := 0
		for range 16 {
			a := aug.Uint64()
			assert.Equal(t, a, again.Uint64(), "seed %d", seed)
			if a == main.Uint64() {
				same++
			}
		}
		assert.Zero(t, same, "seed %d", seed)
	}
}
