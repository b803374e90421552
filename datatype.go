package zarr

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Endian selects the byte order a multi-byte DataType is encoded with.
type Endian int

const (
	// EndianNone is only valid for single-byte or raw data types.
	EndianNone Endian = iota
	EndianLittle
	EndianBig
)

func (e Endian) byteOrder() binary.ByteOrder {
	if e == EndianBig {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// TypeKind distinguishes the families of fixed-width primitive types
// the registry supports.
type TypeKind int

const (
	TypeKindBool TypeKind = iota
	TypeKindInt
	TypeKindUint
	TypeKindFloat
	TypeKindComplex
	TypeKindRaw
)

// DataType is a fixed-width primitive type named in zarr.json's
// "data_type" field. Every DataType has a fixed byte size; non-raw types
// wider than one byte require an Endian (see RequiresEndian).
type DataType struct {
	Name string
	Kind TypeKind
	Size int // bytes per element
}

var registry = map[string]DataType{
	"bool":       {"bool", TypeKindBool, 1},
	"int8":       {"int8", TypeKindInt, 1},
	"int16":      {"int16", TypeKindInt, 2},
	"int32":      {"int32", TypeKindInt, 4},
	"int64":      {"int64", TypeKindInt, 8},
	"uint8":      {"uint8", TypeKindUint, 1},
	"uint16":     {"uint16", TypeKindUint, 2},
	"uint32":     {"uint32", TypeKindUint, 4},
	"uint64":     {"uint64", TypeKindUint, 8},
	"float32":    {"float32", TypeKindFloat, 4},
	"float64":    {"float64", TypeKindFloat, 8},
	"complex64":  {"complex64", TypeKindComplex, 8},
	"complex128": {"complex128", TypeKindComplex, 16},
}

// LookupDataType resolves a zarr.json "data_type" string, including the
// "r{N}" opaque-raw family where N is a multiple of 8.
func LookupDataType(name string) (DataType, error) {
	if dt, ok := registry[name]; ok {
		return dt, nil
	}
	if strings.HasPrefix(name, "r") {
		bits, err := strconv.Atoi(name[1:])
		if err != nil || bits <= 0 || bits%8 != 0 {
			return DataType{}, newErr(KindInvalidMetadata, "lookup_data_type", "", fmt.Errorf("invalid raw type %q", name))
		}
		return DataType{Name: name, Kind: TypeKindRaw, Size: bits / 8}, nil
	}
	return DataType{}, newErr(KindInvalidMetadata, "lookup_data_type", "", fmt.Errorf("unsupported data_type %q", name))
}

// RequiresEndian reports whether this type must be given a non-none
// Endian at codec-construction time. Only single-byte and opaque raw
// types may go without one.
func (dt DataType) RequiresEndian() bool {
	return dt.Size > 1 && dt.Kind != TypeKindRaw
}

// EncodeElement appends the wire-format bytes of v (of a Go type
// matching dt) to dst in the given byte order.
func (dt DataType) EncodeElement(dst []byte, v any, endian Endian) ([]byte, error) {
	order := endian.byteOrder()
	switch dt.Kind {
	case TypeKindBool:
		b := byte(0)
		if v.(bool) {
			b = 1
		}
		return append(dst, b), nil
	case TypeKindInt:
		return encodeInt(dst, dt.Size, toInt64(v), order)
	case TypeKindUint:
		return encodeUint(dst, dt.Size, toUint64(v), order)
	case TypeKindFloat:
		switch dt.Size {
		case 4:
			var buf [4]byte
			order.PutUint32(buf[:], math.Float32bits(v.(float32)))
			return append(dst, buf[:]...), nil
		case 8:
			var buf [8]byte
			order.PutUint64(buf[:], math.Float64bits(v.(float64)))
			return append(dst, buf[:]...), nil
		}
	case TypeKindComplex:
		switch dt.Size {
		case 8:
			c := v.(complex64)
			var buf [8]byte
			order.PutUint32(buf[0:4], math.Float32bits(real(c)))
			order.PutUint32(buf[4:8], math.Float32bits(imag(c)))
			return append(dst, buf[:]...), nil
		case 16:
			c := v.(complex128)
			var buf [16]byte
			order.PutUint64(buf[0:8], math.Float64bits(real(c)))
			order.PutUint64(buf[8:16], math.Float64bits(imag(c)))
			return append(dst, buf[:]...), nil
		}
	case TypeKindRaw:
		raw := v.([]byte)
		if len(raw) != dt.Size {
			return nil, fmt.Errorf("raw value has %d bytes, want %d", len(raw), dt.Size)
		}
		return append(dst, raw...), nil
	}
	return nil, fmt.Errorf("unencodable data type %q", dt.Name)
}

// DecodeElement reads one element of dt from the front of src.
func (dt DataType) DecodeElement(src []byte, endian Endian) (any, error) {
	if len(src) < dt.Size {
		return nil, fmt.Errorf("short buffer decoding %s: need %d bytes, have %d", dt.Name, dt.Size, len(src))
	}
	order := endian.byteOrder()
	switch dt.Kind {
	case TypeKindBool:
		return src[0] != 0, nil
	case TypeKindInt:
		return decodeInt(src[:dt.Size], order), nil
	case TypeKindUint:
		return decodeUint(src[:dt.Size], order), nil
	case TypeKindFloat:
		switch dt.Size {
		case 4:
			return math.Float32frombits(order.Uint32(src)), nil
		case 8:
			return math.Float64frombits(order.Uint64(src)), nil
		}
	case TypeKindComplex:
		switch dt.Size {
		case 8:
			re := math.Float32frombits(order.Uint32(src[0:4]))
			im := math.Float32frombits(order.Uint32(src[4:8]))
			return complex(re, im), nil
		case 16:
			re := math.Float64frombits(order.Uint64(src[0:8]))
			im := math.Float64frombits(order.Uint64(src[8:16]))
			return complex(re, im), nil
		}
	case TypeKindRaw:
		out := make([]byte, dt.Size)
		copy(out, src[:dt.Size])
		return out, nil
	}
	return nil, fmt.Errorf("undecodable data type %q", dt.Name)
}

func encodeInt(dst []byte, size int, v int64, order binary.ByteOrder) ([]byte, error) {
	switch size {
	case 1:
		return append(dst, byte(int8(v))), nil
	case 2:
		var buf [2]byte
		order.PutUint16(buf[:], uint16(int16(v)))
		return append(dst, buf[:]...), nil
	case 4:
		var buf [4]byte
		order.PutUint32(buf[:], uint32(int32(v)))
		return append(dst, buf[:]...), nil
	case 8:
		var buf [8]byte
		order.PutUint64(buf[:], uint64(v))
		return append(dst, buf[:]...), nil
	}
	return nil, fmt.Errorf("unsupported int size %d", size)
}

func encodeUint(dst []byte, size int, v uint64, order binary.ByteOrder) ([]byte, error) {
	switch size {
	case 1:
		return append(dst, byte(v)), nil
	case 2:
		var buf [2]byte
		order.PutUint16(buf[:], uint16(v))
		return append(dst, buf[:]...), nil
	case 4:
		var buf [4]byte
		order.PutUint32(buf[:], uint32(v))
		return append(dst, buf[:]...), nil
	case 8:
		var buf [8]byte
		order.PutUint64(buf[:], v)
		return append(dst, buf[:]...), nil
	}
	return nil, fmt.Errorf("unsupported uint size %d", size)
}

func decodeInt(src []byte, order binary.ByteOrder) any {
	switch len(src) {
	case 1:
		return int8(src[0])
	case 2:
		return int16(order.Uint16(src))
	case 4:
		return int32(order.Uint32(src))
	case 8:
		return int64(order.Uint64(src))
	}
	return nil
}

func decodeUint(src []byte, order binary.ByteOrder) any {
	switch len(src) {
	case 1:
		return src[0]
	case 2:
		return order.Uint16(src)
	case 4:
		return order.Uint32(src)
	case 8:
		return order.Uint64(src)
	}
	return nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case uint8:
		return uint64(n)
	case uint16:
		return uint64(n)
	case uint32:
		return uint64(n)
	case uint64:
		return n
	case uint:
		return uint64(n)
	}
	return 0
}

// canonicalNaN32 has sign 0, exponent all-1s, and only the leading
// mantissa bit set, per the fill-value policy in spec §4.J/§9.
const canonicalNaN32 uint32 = 0x7FC00000

// canonicalNaN64 is the float64 analogue of canonicalNaN32.
const canonicalNaN64 uint64 = 0x7FF8000000000000

// ZeroValue returns the Go zero value for dt, used as the default fill
// value when zarr.json omits one.
func (dt DataType) ZeroValue() any {
	switch dt.Kind {
	case TypeKindBool:
		return false
	case TypeKindInt:
		switch dt.Size {
		case 1:
			return int8(0)
		case 2:
			return int16(0)
		case 4:
			return int32(0)
		case 8:
			return int64(0)
		}
	case TypeKindUint:
		switch dt.Size {
		case 1:
			return uint8(0)
		case 2:
			return uint16(0)
		case 4:
			return uint32(0)
		case 8:
			return uint64(0)
		}
	case TypeKindFloat:
		if dt.Size == 4 {
			return float32(0)
		}
		return float64(0)
	case TypeKindComplex:
		if dt.Size == 8 {
			return complex64(0)
		}
		return complex128(0)
	case TypeKindRaw:
		return make([]byte, dt.Size)
	}
	return nil
}
