package tensor

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/lazygrad/internal/parallel"
)

// MatMul computes the matrix product a @ b over the last two axes.
//
// Leading axes are batch axes and broadcast against each other:
//
//	[2, 3, 4] @ [4, 5]    -> [2, 3, 5]
//	[2, 1, 3, 4] @ [6, 4, 5] -> [2, 6, 3, 5]
//
// Every matrix product goes through gonum's float32 GEMM.
func (a *NDArray) MatMul(b *NDArray) (*NDArray, error) {
	outShape, err := MatMulShape(a.shape, b.shape)
	if err != nil {
		return nil, err
	}

	m, k := a.shape[len(a.shape)-2], a.shape[len(a.shape)-1]
	n := b.shape[len(b.shape)-1]
	out := Zeros(outShape)
	if m == 0 || k == 0 || n == 0 {
		return out, nil
	}

	batchShape := outShape[:len(outShape)-2]
	batches := batchShape.NumElements()
	batchStrides := batchShape.ComputeStrides()
	aBatch := broadcastStrides(a.shape[:len(a.shape)-2], batchShape)
	bBatch := broadcastStrides(b.shape[:len(b.shape)-2], batchShape)

	parallel.For(batches, parallel.DefaultConfig(), func(i int) {
		ai := flatIndex(i, batchStrides, aBatch) * m * k
		bi := flatIndex(i, batchStrides, bBatch) * k * n
		blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
			blas32.General{Rows: m, Cols: k, Stride: k, Data: a.data[ai : ai+m*k]},
			blas32.General{Rows: k, Cols: n, Stride: n, Data: b.data[bi : bi+k*n]},
			0,
			blas32.General{Rows: m, Cols: n, Stride: n, Data: out.data[i*m*n : (i+1)*m*n]},
		)
	})
	return out, nil
}
