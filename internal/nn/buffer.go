package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/tensor"
)

// Buffer is non-trainable module state, such as the running statistics of
// BatchNorm1d. Buffers are not graph nodes; checkpoints store them next to
// the parameters.
type Buffer struct {
	name string
	data *tensor.NDArray
}

// NewBuffer creates a buffer holding data.
func NewBuffer(name string, data *tensor.NDArray) *Buffer {
	return &Buffer{name: name, data: data}
}

// Name returns the buffer name.
func (b *Buffer) Name() string { return b.name }

// Data returns the current value.
func (b *Buffer) Data() *tensor.NDArray { return b.data }

// SetData replaces the value. The shape must not change.
func (b *Buffer) SetData(a *tensor.NDArray) error {
	if !a.Shape().Equal(b.data.Shape()) {
		return errors.Wrapf(tensor.ErrShape, "buffer %q: shape %v, want %v", b.name, a.Shape(), b.data.Shape())
	}
	b.data = a
	return nil
}

// Stateful is implemented by modules that hold buffers, directly or through
// nested modules.
type Stateful interface {
	Buffers() []*Buffer
}

// Buffers returns the buffers of m in a stable order, or nil if m holds
// none.
func Buffers(m Module) []*Buffer {
	if s, ok := m.(Stateful); ok {
		return s.Buffers()
	}
	return nil
}
