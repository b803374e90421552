package zarr

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseFillValue deserializes a zarr.json "fill_value" JSON value into
// the in-memory representation of dt. Floats accept the literal
// numbers, "NaN", "Infinity", "-Infinity", and "0xHHHHHHHH"-style bit
// patterns for non-canonical NaNs (spec §4.J, §9).
func ParseFillValue(raw json.RawMessage, dt DataType) (any, error) {
	if len(raw) == 0 {
		return dt.ZeroValue(), nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return parseFillValueString(text, dt)
	}

	switch dt.Kind {
	case TypeKindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, newErr(KindInvalidMetadata, "parse_fill_value", "", err)
		}
		return b, nil
	case TypeKindInt:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, newErr(KindInvalidMetadata, "parse_fill_value", "", err)
		}
		return castInt(n, dt.Size), nil
	case TypeKindUint:
		var n uint64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, newErr(KindInvalidMetadata, "parse_fill_value", "", err)
		}
		return castUint(n, dt.Size), nil
	case TypeKindFloat:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, newErr(KindInvalidMetadata, "parse_fill_value", "", err)
		}
		if dt.Size == 4 {
			return float32(f), nil
		}
		return f, nil
	case TypeKindComplex:
		// [real, imag] pair.
		var pair [2]float64
		if err := json.Unmarshal(raw, &pair); err != nil {
			return nil, newErr(KindInvalidMetadata, "parse_fill_value", "", err)
		}
		if dt.Size == 8 {
			return complex(float32(pair[0]), float32(pair[1])), nil
		}
		return complex(pair[0], pair[1]), nil
	default:
		return nil, newErr(KindInvalidMetadata, "parse_fill_value", "", fmt.Errorf("cannot parse fill value for %s", dt.Name))
	}
}

func parseFillValueString(text string, dt DataType) (any, error) {
	switch dt.Kind {
	case TypeKindFloat, TypeKindComplex:
		bits, val, err := parseFloatText(text, dt)
		_ = bits
		return val, err
	default:
		return nil, newErr(KindInvalidMetadata, "parse_fill_value", "", fmt.Errorf("string fill value %q invalid for %s", text, dt.Name))
	}
}

func parseFloatText(text string, dt DataType) (uint64, any, error) {
	switch text {
	case "NaN":
		return canonicalNaNBits(dt), canonicalNaNValue(dt), nil
	case "Infinity":
		return 0, infValue(dt, 1), nil
	case "-Infinity":
		return 0, infValue(dt, -1), nil
	}
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		bits, err := strconv.ParseUint(text[2:], 16, 64)
		if err != nil {
			return 0, nil, newErr(KindInvalidMetadata, "parse_fill_value", "", fmt.Errorf("bad hex fill value %q: %w", text, err))
		}
		if dt.Size == 4 {
			return bits, math.Float32frombits(uint32(bits)), nil
		}
		return bits, math.Float64frombits(bits), nil
	}
	return 0, nil, newErr(KindInvalidMetadata, "parse_fill_value", "", fmt.Errorf("unrecognized fill value string %q", text))
}

func canonicalNaNBits(dt DataType) uint64 {
	if dt.Size == 4 {
		return uint64(canonicalNaN32)
	}
	return canonicalNaN64
}

func canonicalNaNValue(dt DataType) any {
	if dt.Kind == TypeKindComplex {
		if dt.Size == 8 {
			return complex(math.Float32frombits(canonicalNaN32), float32(0))
		}
		return complex(math.Float64frombits(canonicalNaN64), float64(0))
	}
	if dt.Size == 4 {
		return math.Float32frombits(canonicalNaN32)
	}
	return math.Float64frombits(canonicalNaN64)
}

func infValue(dt DataType, sign int) any {
	if dt.Size == 4 {
		return float32(math.Inf(sign))
	}
	return math.Inf(sign)
}

func castInt(n int64, size int) any {
	switch size {
	case 1:
		return int8(n)
	case 2:
		return int16(n)
	case 4:
		return int32(n)
	default:
		return n
	}
}

func castUint(n uint64, size int) any {
	switch size {
	case 1:
		return uint8(n)
	case 2:
		return uint16(n)
	case 4:
		return uint32(n)
	default:
		return n
	}
}

// EqualElement compares two decoded elements of the same DataType for
// fill-value matching. Floats compare NaN bit patterns rather than
// relying on host float equality, since NaN != NaN under Go's ==.
func EqualElement(dt DataType, a, b any) bool {
	switch dt.Kind {
	case TypeKindFloat:
		if dt.Size == 4 {
			return math.Float32bits(a.(float32)) == math.Float32bits(b.(float32))
		}
		return math.Float64bits(a.(float64)) == math.Float64bits(b.(float64))
	case TypeKindComplex:
		if dt.Size == 8 {
			ca, cb := a.(complex64), b.(complex64)
			return math.Float32bits(real(ca)) == math.Float32bits(real(cb)) &&
				math.Float32bits(imag(ca)) == math.Float32bits(imag(cb))
		}
		ca, cb := a.(complex128), b.(complex128)
		return math.Float64bits(real(ca)) == math.Float64bits(real(cb)) &&
			math.Float64bits(imag(ca)) == math.Float64bits(imag(cb))
	case TypeKindRaw:
		ra, rb := a.([]byte), b.([]byte)
		if len(ra) != len(rb) {
			return false
		}
		for i := range ra {
			if ra[i] != rb[i] {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
