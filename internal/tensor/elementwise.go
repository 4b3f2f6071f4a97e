package tensor

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// binary applies f element-wise with NumPy broadcasting.
func binary(name string, a, b *NDArray, f func(x, y float32) float32) (*NDArray, error) {
	if a.shape.Equal(b.shape) {
		out := Zeros(a.shape)
		for i, x := range a.data {
			out.data[i] = f(x, b.data[i])
		}
		return out, nil
	}

	shape, _, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	out := Zeros(shape)
	outStrides := shape.ComputeStrides()
	aStrides := broadcastStrides(a.shape, shape)
	bStrides := broadcastStrides(b.shape, shape)
	for i := range out.data {
		x := a.data[flatIndex(i, outStrides, aStrides)]
		y := b.data[flatIndex(i, outStrides, bStrides)]
		out.data[i] = f(x, y)
	}
	return out, nil
}

// Map applies f to every element.
func (a *NDArray) Map(f func(x float32) float32) *NDArray {
	out := Zeros(a.shape)
	for i, x := range a.data {
		out.data[i] = f(x)
	}
	return out
}

// Add returns a + b.
func (a *NDArray) Add(b *NDArray) (*NDArray, error) {
	return binary("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub returns a - b.
func (a *NDArray) Sub(b *NDArray) (*NDArray, error) {
	return binary("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul returns a * b.
func (a *NDArray) Mul(b *NDArray) (*NDArray, error) {
	return binary("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div returns a / b.
func (a *NDArray) Div(b *NDArray) (*NDArray, error) {
	return binary("div", a, b, func(x, y float32) float32 { return x / y })
}

// Pow returns a ** b.
func (a *NDArray) Pow(b *NDArray) (*NDArray, error) {
	return binary("pow", a, b, math32.Pow)
}

// Maximum returns max(a, b).
func (a *NDArray) Maximum(b *NDArray) (*NDArray, error) {
	return binary("maximum", a, b, func(x, y float32) float32 {
		if x > y {
			return x
		}
		return y
	})
}

// Greater returns 1 where a > b, else 0.
func (a *NDArray) Greater(b *NDArray) (*NDArray, error) {
	return binary("greater", a, b, func(x, y float32) float32 {
		if x > y {
			return 1
		}
		return 0
	})
}

// Equal returns 1 where a == b, else 0.
func (a *NDArray) Equal(b *NDArray) (*NDArray, error) {
	return binary("equal", a, b, func(x, y float32) float32 {
		if x == y {
			return 1
		}
		return 0
	})
}

// AddScalar returns a + c.
func (a *NDArray) AddScalar(c float32) *NDArray {
	return a.Map(func(x float32) float32 { return x + c })
}

// MulScalar returns a * c.
func (a *NDArray) MulScalar(c float32) *NDArray {
	return a.Map(func(x float32) float32 { return x * c })
}

// DivScalar returns a / c.
func (a *NDArray) DivScalar(c float32) *NDArray {
	return a.Map(func(x float32) float32 { return x / c })
}

// PowScalar returns a ** c.
func (a *NDArray) PowScalar(c float32) *NDArray {
	return a.Map(func(x float32) float32 { return math32.Pow(x, c) })
}

// MaximumScalar returns max(a, c).
func (a *NDArray) MaximumScalar(c float32) *NDArray {
	return a.Map(func(x float32) float32 {
		if x > c {
			return x
		}
		return c
	})
}

// GreaterScalar returns 1 where a > c, else 0.
func (a *NDArray) GreaterScalar(c float32) *NDArray {
	return a.Map(func(x float32) float32 {
		if x > c {
			return 1
		}
		return 0
	})
}

// Neg returns -a.
func (a *NDArray) Neg() *NDArray {
	return a.Map(func(x float32) float32 { return -x })
}

// Exp returns e ** a.
func (a *NDArray) Exp() *NDArray {
	return a.Map(math32.Exp)
}

// Log returns the natural logarithm of a.
func (a *NDArray) Log() *NDArray {
	return a.Map(math32.Log)
}

// Sqrt returns the square root of a.
func (a *NDArray) Sqrt() *NDArray {
	return a.Map(math32.Sqrt)
}
