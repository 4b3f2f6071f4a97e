package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	var counter int64
	For(1000, DefaultConfig(), func(_ int) {
		atomic.AddInt64(&counter, 1)
	})
	assert.Equal(t, int64(1000), counter)
}

func TestFor_Sequential(t *testing.T) {
	var counter int64
	For(100, Config{Enabled: false}, func(_ int) {
		atomic.AddInt64(&counter, 1)
	})
	assert.Equal(t, int64(100), counter)
}

func TestRange_CoversEveryIndexOnce(t *testing.T) {
	cfg := Config{Enabled: true, Workers: 3, MinChunk: 2}
	hits := make([]int32, 17)
	Range(len(hits), cfg, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})
	for i, h := range hits {
		assert.Equal(t, int32(1), h, "index %d", i)
	}
}

func TestRange_SmallInputRunsOnce(t *testing.T) {
	var calls int32
	Range(3, Config{Enabled: true, Workers: 8, MinChunk: 2}, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 0, start)
		assert.Equal(t, 3, end)
	})
	assert.Equal(t, int32(1), calls)
}

func TestRange_Empty(t *testing.T) {
	Range(0, DefaultConfig(), func(_, _ int) {
		t.Fatal("f must not be called for n == 0")
	})
}
