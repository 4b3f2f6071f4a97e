package tensor

import "github.com/pkg/errors"

// Sentinel errors reported by array operations. They are wrapped with
// context, so match them with errors.Is.
var (
	// ErrShape reports incompatible or invalid shapes.
	ErrShape = errors.New("shape mismatch")

	// ErrAxis reports an axis outside the array rank.
	ErrAxis = errors.New("invalid axis")
)
