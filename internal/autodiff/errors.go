package autodiff

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/tensor"
)

// Sentinel errors. Every error returned by this package (and by the ops
// package) wraps one of these; match them with errors.Is.
var (
	// ErrType reports an operand of the wrong kind: a zero-value Tensor, a
	// tensor from another graph, or a tuple where a tensor is expected.
	ErrType = errors.New("type error")

	// ErrShape reports incompatible shapes. It is the array backend's
	// sentinel, so backend failures match it too.
	ErrShape = tensor.ErrShape

	// ErrNotImplemented reports an operator without a gradient rule.
	ErrNotImplemented = errors.New("not implemented")

	// ErrNoGrad reports Backward on a node that does not require gradients.
	ErrNoGrad = errors.New("tensor does not require grad")

	// ErrStaleTensor reports a handle to a node dropped by Graph.Release.
	ErrStaleTensor = errors.New("stale tensor handle")
)

// mustPanic carries an error raised by Must through panic/recover.
type mustPanic struct {
	err error
}

// Must returns t or panics with err. Gradient rules and layers use it to
// chain operators; Backward and Guard turn the panic back into an error.
func Must(t Tensor, err error) Tensor {
	if err != nil {
		panic(mustPanic{err: err})
	}
	return t
}

// Raise panics with err so that an enclosing Guard returns it. Layers use
// it to report misuse from methods without an error result.
func Raise(err error) {
	panic(mustPanic{err: err})
}

// Guard recovers a panic raised by Must or Raise and stores its error in *errp.
// Other panics propagate unchanged. Use it as:
//
//	defer autodiff.Guard(&err)
func Guard(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if mp, ok := r.(mustPanic); ok {
		*errp = mp.err
		return
	}
	panic(r)
}

// guardGradient is Guard for Backward. It also recovers panics whose value
// is an error, which is how array methods report misuse inside a gradient
// rule.
func guardGradient(errp *error) {
	switch r := recover().(type) {
	case nil:
	case mustPanic:
		*errp = r.err
	case error:
		*errp = errors.Wrap(r, "panic in gradient rule")
	default:
		panic(r)
	}
}

func (mp mustPanic) String() string {
	return fmt.Sprintf("autodiff: %v", mp.err)
}
