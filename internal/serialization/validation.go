package serialization

import (
	"fmt"
	"strings"
)

// Validation limits for resource protection.
const (
	MaxTensorCount   = 100_000 // Maximum number of tensors in a file
	MaxTensorNameLen = 4096    // Maximum tensor name length
	MaxTensorRank    = 32      // Maximum number of dimensions
)

// ValidateTensorName rejects empty names, overlong names, path-like names
// and names with null bytes.
func ValidateTensorName(name string) error {
	if name == "" {
		return &ValidationError{Type: "invalid_name", Details: "empty name", Err: ErrInvalidTensorName}
	}
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name[:32] + "...",
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
			Err:     ErrTensorNameTooLong,
		}
	}
	if strings.Contains(name, "..") {
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains '..'", Err: ErrInvalidTensorName}
	}
	if strings.ContainsAny(name, "/\\") {
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains path separator (/ or \\)", Err: ErrInvalidTensorName}
	}
	if strings.Contains(name, "\x00") {
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains null byte", Err: ErrInvalidTensorName}
	}
	return nil
}

// ValidateRecords checks names, uniqueness and count.
func ValidateRecords(records []Record) error {
	if len(records) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(records), MaxTensorCount),
			Err:     ErrTooManyTensors,
		}
	}
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if err := ValidateTensorName(r.Name); err != nil {
			return err
		}
		if seen[r.Name] {
			return &ValidationError{Type: "duplicate_name", Tensor: r.Name, Details: "stored twice", Err: ErrInvalidTensorName}
		}
		seen[r.Name] = true
	}
	return nil
}
