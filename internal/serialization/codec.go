package serialization

import (
	"bytes"
	"io"
	"math"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/born-ml/lazygrad/internal/tensor"
)

// Encode writes records as a checkpoint file.
func Encode(w io.Writer, records []Record) error {
	if err := ValidateRecords(records); err != nil {
		return err
	}

	buf := []byte(MagicBytes)
	buf = protowire.AppendTag(buf, fieldVersion, protowire.VarintType)
	buf = protowire.AppendVarint(buf, FormatVersion)
	buf = protowire.AppendTag(buf, fieldProducer, protowire.BytesType)
	buf = protowire.AppendString(buf, producer)
	for _, r := range records {
		if r.Array == nil {
			return errors.Errorf("tensor %q has no data", r.Name)
		}
		buf = protowire.AppendTag(buf, fieldTensor, protowire.BytesType)
		buf = protowire.AppendBytes(buf, appendTensor(nil, r))
	}
	sum := ComputeChecksum(buf)
	buf = append(buf, sum[:]...)

	_, err := w.Write(buf)
	return errors.Wrap(err, "failed to write checkpoint")
}

func appendTensor(b []byte, r Record) []byte {
	var dims []byte
	for _, d := range r.Array.Shape() {
		dims = protowire.AppendVarint(dims, uint64(d))
	}
	b = protowire.AppendTag(b, fieldDims, protowire.BytesType)
	b = protowire.AppendBytes(b, dims)

	b = protowire.AppendTag(b, fieldDataType, protowire.VarintType)
	b = protowire.AppendVarint(b, dataTypeFloat)

	data := r.Array.Data()
	b = protowire.AppendTag(b, fieldFloatData, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(4*len(data)))
	for _, v := range data {
		b = protowire.AppendFixed32(b, math.Float32bits(v))
	}

	b = protowire.AppendTag(b, fieldName, protowire.BytesType)
	return protowire.AppendString(b, r.Name)
}

// Decode reads a checkpoint file written by Encode.
//
// The checksum is verified before the body is parsed.
func Decode(r io.Reader) ([]Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read checkpoint")
	}
	if len(raw) < len(MagicBytes)+ChecksumSize || !bytes.HasPrefix(raw, []byte(MagicBytes)) {
		return nil, ErrInvalidMagic
	}

	content, trailer := raw[:len(raw)-ChecksumSize], raw[len(raw)-ChecksumSize:]
	if err := ValidateChecksum(ComputeChecksum(content), [32]byte(trailer)); err != nil {
		return nil, err
	}

	records, err := decodeBody(content[len(MagicBytes):])
	if err != nil {
		return nil, err
	}
	if err := ValidateRecords(records); err != nil {
		return nil, err
	}
	return records, nil
}

func decodeBody(b []byte) ([]Record, error) {
	var (
		records []Record
		version uint64
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed(n)
		}
		b = b[n:]

		switch {
		case num == fieldVersion && typ == protowire.VarintType:
			version, n = protowire.ConsumeVarint(b)
		case num == fieldTensor && typ == protowire.BytesType:
			var msg []byte
			msg, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				rec, err := decodeTensor(msg)
				if err != nil {
					return nil, err
				}
				if len(records) == MaxTensorCount {
					return nil, ErrTooManyTensors
				}
				records = append(records, rec)
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, malformed(n)
		}
		b = b[n:]
	}

	if version != FormatVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "got %d, want %d", version, FormatVersion)
	}
	return records, nil
}

func decodeTensor(b []byte) (Record, error) {
	var (
		name     string
		shape    tensor.Shape
		data     []float32
		dataType uint64 = dataTypeFloat
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Record{}, malformed(n)
		}
		b = b[n:]

		switch {
		case num == fieldName && typ == protowire.BytesType:
			name, n = protowire.ConsumeString(b)
		case num == fieldDataType && typ == protowire.VarintType:
			dataType, n = protowire.ConsumeVarint(b)
		case num == fieldDims && typ == protowire.BytesType:
			var packed []byte
			packed, n = protowire.ConsumeBytes(b)
			for len(packed) > 0 && n >= 0 {
				d, m := protowire.ConsumeVarint(packed)
				if m < 0 {
					return Record{}, malformed(m)
				}
				shape = append(shape, int(d))
				packed = packed[m:]
			}
		case num == fieldDims && typ == protowire.VarintType:
			var d uint64
			d, n = protowire.ConsumeVarint(b)
			shape = append(shape, int(d))
		case num == fieldFloatData && typ == protowire.BytesType:
			var packed []byte
			packed, n = protowire.ConsumeBytes(b)
			if len(packed)%4 != 0 {
				return Record{}, errors.Wrapf(ErrMalformed, "packed float data of %d bytes", len(packed))
			}
			for len(packed) > 0 {
				v, m := protowire.ConsumeFixed32(packed)
				data = append(data, math.Float32frombits(v))
				packed = packed[m:]
			}
		case num == fieldFloatData && typ == protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			data = append(data, math.Float32frombits(v))
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return Record{}, malformed(n)
		}
		b = b[n:]
	}

	if dataType != dataTypeFloat {
		return Record{}, errors.Wrapf(ErrMalformed, "tensor %q: unsupported data type %d", name, dataType)
	}
	if len(shape) > MaxTensorRank {
		return Record{}, errors.Wrapf(ErrMalformed, "tensor %q: rank %d", name, len(shape))
	}
	if data == nil {
		data = []float32{}
	}
	a, err := tensor.New(shape, data)
	if err != nil {
		return Record{}, errors.Wrapf(err, "tensor %q", name)
	}
	return Record{Name: name, Array: a}, nil
}

func malformed(n int) error {
	return errors.Wrap(ErrMalformed, protowire.ParseError(n).Error())
}
