package serialization

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/nn"
	"github.com/born-ml/lazygrad/internal/tensor"
)

// Record name prefixes of non-parameter entries.
const (
	statePrefix  = "optim."
	bufferPrefix = "buffer."
)

// ParameterKey returns the checkpoint name of the i-th parameter.
func ParameterKey(i int, p *nn.Parameter) string {
	return fmt.Sprintf("%d.%s", i, p.Name())
}

// BufferKey returns the checkpoint name of the i-th buffer.
func BufferKey(i int, b *nn.Buffer) string {
	return fmt.Sprintf("%s%d.%s", bufferPrefix, i, b.Name())
}

// Save writes the current values of params.
func Save(w io.Writer, params []*nn.Parameter) error {
	return SaveCheckpoint(w, params, nil, nil)
}

// SaveCheckpoint writes the current values of params and buffers (see
// nn.Buffers) followed by optional optimizer state (as returned by an
// optimizer's StateDict).
func SaveCheckpoint(w io.Writer, params []*nn.Parameter, buffers []*nn.Buffer, state map[string]*tensor.NDArray) error {
	records := make([]Record, 0, len(params)+len(buffers)+len(state))
	for i, p := range params {
		records = append(records, Record{Name: ParameterKey(i, p), Array: p.Data()})
	}
	for i, b := range buffers {
		records = append(records, Record{Name: BufferKey(i, b), Array: b.Data()})
	}

	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		records = append(records, Record{Name: statePrefix + k, Array: state[k]})
	}
	return Encode(w, records)
}

// Load reads a checkpoint into params. Buffers and optimizer state in the
// file are ignored.
func Load(r io.Reader, params []*nn.Parameter) error {
	_, err := LoadCheckpoint(r, params, nil)
	return err
}

// LoadCheckpoint reads a checkpoint into params and buffers and returns the
// optimizer state stored with it (empty if none).
//
// The file must hold exactly one entry per parameter, in order, with the
// same name and shape. The same holds for buffers unless buffers is nil, in
// which case stored buffers are ignored. Nothing is modified unless every
// entry matches.
func LoadCheckpoint(r io.Reader, params []*nn.Parameter, buffers []*nn.Buffer) (map[string]*tensor.NDArray, error) {
	records, err := Decode(r)
	if err != nil {
		return nil, err
	}

	var values, stored []Record
	state := make(map[string]*tensor.NDArray)
	for _, rec := range records {
		if key, ok := strings.CutPrefix(rec.Name, statePrefix); ok {
			state[key] = rec.Array
			continue
		}
		if strings.HasPrefix(rec.Name, bufferPrefix) {
			stored = append(stored, rec)
			continue
		}
		values = append(values, rec)
	}

	if len(values) != len(params) {
		return nil, errors.Wrapf(ErrMismatch, "checkpoint holds %d parameters, model has %d", len(values), len(params))
	}
	for i, p := range params {
		if err := match(values[i], ParameterKey(i, p), p.Shape()); err != nil {
			return nil, err
		}
	}
	if buffers != nil {
		if len(stored) != len(buffers) {
			return nil, errors.Wrapf(ErrMismatch, "checkpoint holds %d buffers, model has %d", len(stored), len(buffers))
		}
		for i, b := range buffers {
			if err := match(stored[i], BufferKey(i, b), b.Data().Shape()); err != nil {
				return nil, err
			}
		}
	}

	for i, p := range params {
		if err := p.SetData(values[i].Array); err != nil {
			return nil, errors.Wrapf(err, "parameter %q", values[i].Name)
		}
	}
	for i, b := range buffers {
		if err := b.SetData(stored[i].Array); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// match checks a stored record against the expected name and shape.
func match(rec Record, name string, shape tensor.Shape) error {
	if rec.Name != name {
		return &ValidationError{Type: "name_mismatch", Tensor: rec.Name, Details: "expected " + name, Err: ErrMismatch}
	}
	if !rec.Array.Shape().Equal(shape) {
		return &ValidationError{
			Type:    "shape_mismatch",
			Tensor:  rec.Name,
			Details: fmt.Sprintf("stored %v, expected %v", rec.Array.Shape(), shape),
			Err:     tensor.ErrShape,
		}
	}
	return nil
}

// SaveFile writes a checkpoint to path.
func SaveFile(path string, params []*nn.Parameter, buffers []*nn.Buffer, state map[string]*tensor.NDArray) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	if err := SaveCheckpoint(f, params, buffers, state); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "failed to close file")
}

// LoadFile reads a checkpoint from path.
func LoadFile(path string, params []*nn.Parameter, buffers []*nn.Buffer) (map[string]*tensor.NDArray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer f.Close()
	return LoadCheckpoint(f, params, buffers)
}
