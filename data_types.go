package tdms

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"slices"
	"time"
)

// DataType identifies the on-disk representation of a property value or a
// channel's raw data. The numeric values match the codes written into TDMS
// metadata, so DataType(rawUint32) is always a valid conversion; unrecognised
// values simply report size 0 and an "Unknown" name.
type DataType uint32

const (
	DataTypeVoid    DataType = 0
	DataTypeInt8    DataType = 1
	DataTypeInt16   DataType = 2
	DataTypeInt32   DataType = 3
	DataTypeInt64   DataType = 4
	DataTypeUint8   DataType = 5
	DataTypeUint16  DataType = 6
	DataTypeUint32  DataType = 7
	DataTypeUint64  DataType = 8
	DataTypeFloat32 DataType = 9
	DataTypeFloat64 DataType = 10
	DataTypeFloat128 DataType = 11

	// The "with unit" variants are identical on the wire to their plain
	// counterparts; readers are expected to find the unit string in a
	// "unit_string" property alongside the value.
	DataTypeFloat32WithUnit  DataType = 0x19
	DataTypeFloat64WithUnit  DataType = 0x1A
	DataTypeFloat128WithUnit DataType = 0x1B

	DataTypeString    DataType = 0x20
	DataTypeBool      DataType = 0x21
	DataTypeTimestamp DataType = 0x44

	// DataTypeFixedPoint is recognised but never decoded – see the doc
	// comment on [ErrUnsupportedType] usage in readObject.
	DataTypeFixedPoint DataType = 0x4F

	DataTypeComplex64  DataType = 0x08000c
	DataTypeComplex128 DataType = 0x10000d

	// DataTypeDAQmxRawData marks a channel whose true element type and
	// layout live in the DAQmx scaler table rather than the data type field
	// itself.
	DataTypeDAQmxRawData DataType = 0xFFFFFFFF
)

// Size returns the fixed on-disk byte size of a single value of this type, or
// 0 for variable-size types (string) and types whose size cannot be known
// without additional context (DAQmx raw data).
func (dt DataType) Size() int {
	switch dt {
	case DataTypeVoid, DataTypeString, DataTypeDAQmxRawData:
		return 0
	case DataTypeInt8, DataTypeUint8, DataTypeBool:
		return 1
	case DataTypeInt16, DataTypeUint16:
		return 2
	case DataTypeInt32, DataTypeUint32, DataTypeFloat32, DataTypeFloat32WithUnit:
		return 4
	case DataTypeInt64, DataTypeUint64, DataTypeFloat64, DataTypeFloat64WithUnit, DataTypeComplex64:
		return 8
	case DataTypeFloat128, DataTypeFloat128WithUnit, DataTypeComplex128, DataTypeTimestamp:
		return 16
	default:
		return 0
	}
}

// String implements [fmt.Stringer].
func (dt DataType) String() string {
	switch dt {
	case DataTypeVoid:
		return "Void"
	case DataTypeInt8:
		return "Int8"
	case DataTypeInt16:
		return "Int16"
	case DataTypeInt32:
		return "Int32"
	case DataTypeInt64:
		return "Int64"
	case DataTypeUint8:
		return "Uint8"
	case DataTypeUint16:
		return "Uint16"
	case DataTypeUint32:
		return "Uint32"
	case DataTypeUint64:
		return "Uint64"
	case DataTypeFloat32, DataTypeFloat32WithUnit:
		return "Float32"
	case DataTypeFloat64, DataTypeFloat64WithUnit:
		return "Float64"
	case DataTypeFloat128, DataTypeFloat128WithUnit:
		return "Float128"
	case DataTypeString:
		return "String"
	case DataTypeBool:
		return "Boolean"
	case DataTypeTimestamp:
		return "Timestamp"
	case DataTypeFixedPoint:
		return "FixedPoint"
	case DataTypeComplex64:
		return "ComplexFloat32"
	case DataTypeComplex128:
		return "ComplexFloat64"
	case DataTypeDAQmxRawData:
		return "DAQmxRawData"
	default:
		return fmt.Sprintf("Unknown(0x%X)", uint32(dt))
	}
}

// tdmsEpoch is the TDMS epoch (1904-01-01T00:00:00Z) expressed as a Unix
// timestamp. Adding it to a TDMS timestamp's whole-seconds field converts it
// to a Unix timestamp.
const tdmsEpoch int64 = -2_082_844_800

// Timestamp is a TDMS-native 128-bit timestamp: a signed count of whole
// seconds since the TDMS epoch (1904-01-01 UTC) plus an unsigned fractional
// remainder in units of 2⁻⁶⁴ seconds. This representation is more precise
// than [time.Time] – about 1.8×10^10 times more precise, in fact – so
// round-tripping through [Timestamp.AsTime] loses precision.
//
// On the wire the two 8-byte fields are ordered fractions-then-seconds in a
// little-endian segment, and seconds-then-fractions in a big-endian segment;
// callers never need to know this, since decoding always goes through
// [interpretTimestamp] with the segment's declared byte order.
type Timestamp struct {
	Seconds   int64
	Fractions uint64
}

// AsTime converts the timestamp to a [time.Time], losing some precision in
// the process (see the [Timestamp] doc comment).
func (t Timestamp) AsTime() time.Time {
	ns := new(big.Int).SetUint64(t.Fractions)
	ns.Mul(ns, big.NewInt(1e9))
	ns.Rsh(ns, 64)
	return time.Unix(t.Seconds+tdmsEpoch, ns.Int64())
}

// TimestampFromTime converts a [time.Time] to the TDMS [Timestamp]
// representation.
func TimestampFromTime(t time.Time) Timestamp {
	unixSeconds := t.Unix()
	ns := t.Nanosecond()

	fractions := new(big.Int).SetInt64(int64(ns))
	fractions.Lsh(fractions, 64)
	fractions.Div(fractions, big.NewInt(1e9))

	return Timestamp{
		Seconds:   unixSeconds - tdmsEpoch,
		Fractions: fractions.Uint64(),
	}
}

// Float128 is a 128-bit IEEE 754 quad-precision floating point value. Go has
// no native type for this, so the decoded value is held as a [big.Float] at
// 113 bits of precision, matching quad-precision's mantissa width. Since
// big.Float cannot itself represent NaN, a NaN value is tracked separately.
type Float128 struct {
	value *big.Float
	isNaN bool
}

// NewFloat128 constructs a Float128 from a [big.Float].
func NewFloat128(value *big.Float) Float128 {
	return Float128{value: new(big.Float).Set(value)}
}

// Float128NaN returns the Float128 representation of NaN.
func Float128NaN() Float128 {
	return Float128{isNaN: true}
}

// IsNaN reports whether this value is NaN.
func (f Float128) IsNaN() bool {
	return f.isNaN
}

// GetValue returns the value as a [big.Float], or nil if the value is NaN.
// The returned pointer is a copy; mutating it does not change the Float128.
func (f Float128) GetValue() *big.Float {
	if f.isNaN {
		return nil
	}
	return new(big.Float).Set(f.value)
}

// AsBigFloat is an alias for [Float128.GetValue], matching the name used in
// package documentation and by callers working primarily with big.Float.
func (f Float128) AsBigFloat() *big.Float {
	return f.GetValue()
}

// Float64 converts the value to a float64, losing precision. NaN converts to
// math.NaN().
func (f Float128) Float64() float64 {
	if f.isNaN {
		return nanFloat64()
	}
	result, _ := f.value.Float64()
	return result
}

func (f Float128) String() string {
	if f.isNaN {
		return "NaN"
	}
	return f.value.String()
}

// parseQuad parses a 128-bit IEEE 754 quad precision float from 16 bytes. The
// bytes should be in the specified byte order (big-endian or little-endian).
func parseQuad(data []byte, order binary.ByteOrder) Float128 {
	work := make([]byte, len(data))
	copy(work, data)
	if order == binary.LittleEndian {
		slices.Reverse(work)
	}

	// Extract sign bit (bit 127).
	sign := (work[0] >> 7) & 1

	// Extract exponent (bits 126-112, 15 bits total).
	exponent := uint16(work[0]&0x7F) << 8
	exponent |= uint16(work[1])

	// Extract mantissa (bits 111-0, 112 bits).
	mantissaBits := make([]byte, 14)
	copy(mantissaBits, work[2:16])

	// Quad precision has 113 bits of precision according to IEEE.
	result := new(big.Float).SetPrec(113)

	if exponent == 0x7FFF {
		if isZeroMantissa(mantissaBits) {
			result.SetInf(sign == 1)
			return NewFloat128(result)
		}
		return Float128NaN()
	}

	shiftAmount := new(big.Int).Lsh(big.NewInt(1), 112)

	if exponent == 0 {
		// Subnormal or zero.
		if isZeroMantissa(mantissaBits) {
			result.SetInt64(0)
			return NewFloat128(result)
		}

		mantissaValue := mantissaToBigInt(mantissaBits)
		mantissaFloat := new(big.Float).SetInt(mantissaValue)
		mantissaFloat.Quo(mantissaFloat, new(big.Float).SetInt(shiftAmount))

		power := new(big.Float).SetMantExp(big.NewFloat(1), -16382)
		result.Mul(mantissaFloat, power)

		if sign == 1 {
			result.Neg(result)
		}

		return NewFloat128(result)
	}

	// Normal number: implicit leading bit is 1.
	exponentValue := int(exponent) - 16383
	mantissaValue := mantissaToBigInt(mantissaBits)

	mantissaFloat := new(big.Float).SetInt(mantissaValue)
	mantissaFloat.Quo(mantissaFloat, new(big.Float).SetInt(shiftAmount))
	mantissaFloat.Add(mantissaFloat, big.NewFloat(1))

	// Apply exponent – you could directly apply SetMantExp() to result here,
	// but it would override other properties set on result such as the
	// precision from mantissaFloat.
	power := new(big.Float).SetMantExp(big.NewFloat(1), exponentValue)
	result.Mul(mantissaFloat, power)

	if sign == 1 {
		result.Neg(result)
	}

	return NewFloat128(result)
}

// writeQuad encodes a Float128 into 16 bytes in the given byte order. Used by
// the writer when emitting Float128 properties or channel data.
func writeQuad(value Float128, order binary.ByteOrder) []byte {
	out := make([]byte, 16)

	if value.isNaN {
		out[0] = 0x7F
		out[1] = 0xFF
		out[2] = 0x80
		if order == binary.LittleEndian {
			slices.Reverse(out)
		}
		return out
	}

	v := value.value
	if v.Sign() < 0 {
		out[0] |= 0x80
	}

	mag := new(big.Float).Abs(v)
	if mag.Sign() == 0 {
		if order == binary.LittleEndian {
			slices.Reverse(out)
		}
		return out
	}

	mant := new(big.Float).Copy(mag)
	exp2 := mant.MantExp(mant) // mag = mant * 2^exp2, 0.5 <= mant < 1

	// Normalise so that 1 <= mant < 2, matching IEEE's implicit leading bit.
	mant.Mul(mant, big.NewFloat(2))
	exponentValue := exp2 - 1 + 16383

	fractionalPart := new(big.Float).Sub(mant, big.NewFloat(1))
	fractionalPart.SetPrec(113)

	scaled := new(big.Int)
	scaledFloat := new(big.Float).Mul(fractionalPart, new(big.Float).SetInt(new(big.Int).Lsh(big.NewInt(1), 112)))
	scaledFloat.Int(scaled)

	mantissaBytes := scaled.Bytes()
	mantissaField := make([]byte, 14)
	copy(mantissaField[14-len(mantissaBytes):], mantissaBytes)

	out[0] |= byte(exponentValue >> 8 & 0x7F)
	out[1] = byte(exponentValue & 0xFF)
	copy(out[2:16], mantissaField)

	if order == binary.LittleEndian {
		slices.Reverse(out)
	}

	return out
}

func isZeroMantissa(mantissaBits []byte) bool {
	for _, b := range mantissaBits {
		if b != 0 {
			return false
		}
	}
	return true
}

func mantissaToBigInt(mantissaBits []byte) *big.Int {
	result := new(big.Int)
	for _, b := range mantissaBits {
		result.Lsh(result, 8)
		result.Or(result, new(big.Int).SetInt64(int64(b)))
	}
	return result
}

func nanFloat64() float64 {
	var zero float64
	return zero / zero
}
