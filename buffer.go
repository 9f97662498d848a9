package tdms

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// rawDataBuffer accumulates one channel's pending values between flushes. It
// mirrors how a [Channel]'s dataChunks are read back: fixed-size values are
// appended directly as bytes, while string values additionally build a
// cumulative offset table so the chunk stays self-describing on disk.
type rawDataBuffer struct {
	dataType DataType

	// payload holds the encoded bytes of a fixed-size channel's values,
	// concatenated and ready to be written as-is into a raw-data block. It
	// stays empty for string channels, which use the two fields below.
	payload bytes.Buffer

	// stringOffsets accumulates the cumulative byte offsets for a string
	// channel; nil for fixed-size channels.
	stringOffsets []uint32
	stringData    bytes.Buffer

	numValues uint64
}

func newRawDataBuffer(dataType DataType) *rawDataBuffer {
	return &rawDataBuffer{dataType: dataType}
}

// appendValue encodes and appends a single value of the buffer's data type.
func (b *rawDataBuffer) appendValue(order binary.ByteOrder, value any) error {
	if b.dataType == DataTypeString {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: expected string, got %T", ErrTypeMismatch, value)
		}
		b.stringData.WriteString(s)
		b.stringOffsets = append(b.stringOffsets, uint32(b.stringData.Len()))
		b.numValues++
		return nil
	}

	if err := writeValue(&b.payload, order, b.dataType, value); err != nil {
		return err
	}
	b.numValues++
	return nil
}

// appendValues encodes and appends a slice of values, all of the buffer's
// data type. values is expected to be a []T for the Go type matching
// dataType. A slice of an unsupported type, or a non-string element for a
// string buffer, reports ErrTypeMismatch; for fixed-size types the element
// type is not checked here, and a mismatch panics in writeValue's type
// assertion.
func (b *rawDataBuffer) appendValues(order binary.ByteOrder, values any) error {
	switch v := values.(type) {
	case []int8:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	case []int16:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	case []int32:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	case []int64:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	case []uint8:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	case []uint16:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	case []uint32:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	case []uint64:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	case []float32:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	case []float64:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	case []Float128:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	case []string:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	case []bool:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	case []Timestamp:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	case []complex64:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	case []complex128:
		for _, x := range v {
			if err := b.appendValue(order, x); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unsupported slice type %T", ErrTypeMismatch, values)
	}

	return nil
}

// byteLength returns the byte length this buffer's pending values will
// occupy in the raw-data block, as will be reported in the object's raw-data
// index header.
func (b *rawDataBuffer) byteLength() uint64 {
	if b.dataType == DataTypeString {
		return uint64(len(b.stringOffsets)*4) + uint64(b.stringData.Len())
	}
	return uint64(b.payload.Len())
}

// isEmpty reports whether the buffer has no pending values.
func (b *rawDataBuffer) isEmpty() bool {
	return b.numValues == 0
}

// writeTo writes the buffer's encoded payload, in the order it will appear
// in the raw-data block. It leaves the buffer as it is; callers call clear
// afterwards.
func (b *rawDataBuffer) writeTo(dst *bytes.Buffer, order binary.ByteOrder) {
	if b.dataType == DataTypeString {
		offsetBytes := make([]byte, 4*len(b.stringOffsets))
		for i, off := range b.stringOffsets {
			order.PutUint32(offsetBytes[i*4:], off)
		}
		dst.Write(offsetBytes)
		dst.Write(b.stringData.Bytes())
	} else {
		dst.Write(b.payload.Bytes())
	}
}

// clear resets the buffer to empty, ready to accumulate the next flush's
// values.
func (b *rawDataBuffer) clear() {
	b.payload.Reset()
	b.stringOffsets = b.stringOffsets[:0]
	b.stringData.Reset()
	b.numValues = 0
}
