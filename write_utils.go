package tdms

import (
	"encoding/binary"
	"io"
	"math"
)

// Write-side counterparts to read_utils.go's scalar readers. Each function
// writes exactly the bytes that the matching interpretX/readX pair would
// decode back to the same value.

func writeUint32(w io.Writer, order binary.ByteOrder, v uint32) error {
	buf := make([]byte, 4)
	order.PutUint32(buf, v)
	_, err := w.Write(buf)
	return err
}

func writeUint64(w io.Writer, order binary.ByteOrder, v uint64) error {
	buf := make([]byte, 8)
	order.PutUint64(buf, v)
	_, err := w.Write(buf)
	return err
}

func writeString(w io.Writer, order binary.ByteOrder, s string) error {
	if err := writeUint32(w, order, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func writeBool(w io.Writer, v bool) error {
	b := byte(0)
	if v {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}

func writeTimestamp(w io.Writer, order binary.ByteOrder, ts Timestamp) error {
	buf := make([]byte, 16)
	if order == binary.BigEndian {
		order.PutUint64(buf, uint64(ts.Seconds))
		order.PutUint64(buf[8:], ts.Fractions)
	} else {
		order.PutUint64(buf, ts.Fractions)
		order.PutUint64(buf[8:], uint64(ts.Seconds))
	}
	_, err := w.Write(buf)
	return err
}

// writeValue writes a single property value of the given data type. It is
// the write-side mirror of readValue in segment.go.
func writeValue(w io.Writer, order binary.ByteOrder, dataType DataType, value any) error {
	switch dataType {
	case DataTypeVoid:
		return nil
	case DataTypeInt8:
		_, err := w.Write([]byte{byte(value.(int8))})
		return err
	case DataTypeInt16:
		buf := make([]byte, 2)
		order.PutUint16(buf, uint16(value.(int16)))
		_, err := w.Write(buf)
		return err
	case DataTypeInt32:
		return writeUint32(w, order, uint32(value.(int32)))
	case DataTypeInt64:
		return writeUint64(w, order, uint64(value.(int64)))
	case DataTypeUint8:
		_, err := w.Write([]byte{value.(uint8)})
		return err
	case DataTypeUint16:
		buf := make([]byte, 2)
		order.PutUint16(buf, value.(uint16))
		_, err := w.Write(buf)
		return err
	case DataTypeUint32:
		return writeUint32(w, order, value.(uint32))
	case DataTypeUint64:
		return writeUint64(w, order, value.(uint64))
	case DataTypeFloat32, DataTypeFloat32WithUnit:
		return writeUint32(w, order, math.Float32bits(value.(float32)))
	case DataTypeFloat64, DataTypeFloat64WithUnit:
		return writeUint64(w, order, math.Float64bits(value.(float64)))
	case DataTypeFloat128, DataTypeFloat128WithUnit:
		_, err := w.Write(writeQuad(value.(Float128), order))
		return err
	case DataTypeString:
		return writeString(w, order, value.(string))
	case DataTypeBool:
		return writeBool(w, value.(bool))
	case DataTypeTimestamp:
		return writeTimestamp(w, order, value.(Timestamp))
	case DataTypeComplex64:
		c := value.(complex64)
		if err := writeUint32(w, order, math.Float32bits(real(c))); err != nil {
			return err
		}
		return writeUint32(w, order, math.Float32bits(imag(c)))
	case DataTypeComplex128:
		c := value.(complex128)
		if err := writeUint64(w, order, math.Float64bits(real(c))); err != nil {
			return err
		}
		return writeUint64(w, order, math.Float64bits(imag(c)))
	default:
		return ErrUnsupportedType
	}
}
