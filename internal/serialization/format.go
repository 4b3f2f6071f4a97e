package serialization

import (
	"github.com/born-ml/lazygrad/internal/tensor"
)

// Format constants.
const (
	MagicBytes    = "LZGD"
	FormatVersion = 1  // v1: float32 tensors with SHA-256 trailer
	ChecksumSize  = 32 // SHA-256 checksum size (32 bytes)
	producer      = "lazygrad"
)

// Protobuf field numbers.
const (
	fieldVersion  = 1
	fieldProducer = 2
	fieldTensor   = 3

	fieldDims      = 1
	fieldDataType  = 2
	fieldFloatData = 4
	fieldName      = 8

	dataTypeFloat = 1
)

// Record is a named array stored in a checkpoint.
type Record struct {
	Name  string
	Array *tensor.NDArray
}
