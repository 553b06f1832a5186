// internal/codec/codec.go
package codec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DataType is the logical interpretation of register data.
// Values match the names stored by the property storage.
type DataType string

const (
	Integer     DataType = "Integer"
	Hexadecimal DataType = "Hexadecimal"
	Float       DataType = "Float"
	String      DataType = "String"
	Boolean     DataType = "Boolean"
)

var (
	ErrUnsupportedDataType = errors.New("unsupported data type")
	ErrInvalidValue        = errors.New("invalid value")
)

// Valid reports whether dt is one of the known data types.
func (dt DataType) Valid() bool {
	switch dt {
	case Integer, Hexadecimal, Float, String, Boolean:
		return true
	}
	return false
}

// RegistersPerValue is the register width of one logical value.
// String is packed two characters per register and has no fixed width.
func (dt DataType) RegistersPerValue() int {
	if dt == Float {
		return 2
	}
	return 1
}

// ---- encode (logical -> wire) ----

// EncodeRegisters parses a comma-separated value list and packs it into registers.
// String values are not split on commas: the whole text is packed.
func EncodeRegisters(dt DataType, value string) ([]uint16, error) {
	switch dt {
	case String:
		return encodeString(value)
	case Integer, Hexadecimal, Float, Boolean:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDataType, string(dt))
	}

	parts := splitValues(value)
	out := make([]uint16, 0, len(parts)*dt.RegistersPerValue())

	for _, p := range parts {
		switch dt {
		case Integer:
			v, err := parseInteger(p)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		case Hexadecimal:
			v, err := parseHex(p)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		case Float:
			f, err := strconv.ParseFloat(p, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: float %q", ErrInvalidValue, p)
			}
			out = append(out, FloatToRegisters(float32(f))...)
		case Boolean:
			b, err := parseBool(p)
			if err != nil {
				return nil, err
			}
			if b {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}

	return out, nil
}

// EncodeCoils parses a comma-separated boolean list into a coil sequence.
func EncodeCoils(value string) ([]bool, error) {
	parts := splitValues(value)
	out := make([]bool, 0, len(parts))
	for _, p := range parts {
		b, err := parseBool(p)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// FloatToRegisters splits an IEEE-754 value: high word first, low word second.
func FloatToRegisters(f float32) []uint16 {
	bits := math.Float32bits(f)
	return []uint16{uint16(bits >> 16), uint16(bits)}
}

// RegistersToFloat reverses FloatToRegisters.
func RegistersToFloat(hi, lo uint16) float32 {
	return math.Float32frombits(uint32(hi)<<16 | uint32(lo))
}

// encodeString packs two characters per register.
// Low byte = earlier character, high byte = later character.
// An odd trailing character leaves the high byte zero.
func encodeString(s string) ([]uint16, error) {
	chars := []rune(s)
	for _, c := range chars {
		if c > 0xFF {
			return nil, fmt.Errorf("%w: character %q is not single-byte", ErrInvalidValue, c)
		}
	}

	out := make([]uint16, (len(chars)+1)/2)
	for i := 0; i < len(chars); i += 2 {
		lo := uint16(chars[i])
		var hi uint16
		if i+1 < len(chars) {
			hi = uint16(chars[i+1])
		}
		out[i/2] = lo | hi<<8
	}
	return out, nil
}

// ---- decode (wire -> logical) ----

// DecodeRegisters renders registers as the logical text for dt.
// Multi-value types are comma-separated; String is concatenated.
func DecodeRegisters(dt DataType, regs []uint16) (string, error) {
	switch dt {
	case Integer:
		return joinEach(regs, func(r uint16) string { return strconv.Itoa(int(r)) }), nil
	case Hexadecimal:
		return joinEach(regs, func(r uint16) string { return strconv.FormatUint(uint64(r), 16) }), nil
	case Boolean:
		return joinEach(regs, func(r uint16) string { return strconv.FormatBool(r != 0) }), nil
	case Float:
		vals := make([]string, 0, len(regs)/2)
		// a trailing odd register has no partner and is dropped
		for i := 0; i+1 < len(regs); i += 2 {
			f := RegistersToFloat(regs[i], regs[i+1])
			vals = append(vals, strconv.FormatFloat(float64(f), 'g', -1, 32))
		}
		return strings.Join(vals, ","), nil
	case String:
		var b strings.Builder
		b.Grow(len(regs) * 2)
		for _, r := range regs {
			b.WriteRune(rune(r & 0xFF))
			b.WriteRune(rune(r >> 8))
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDataType, string(dt))
	}
}

// DecodeCoils renders a coil sequence as comma-separated true/false.
func DecodeCoils(bits []bool) string {
	vals := make([]string, len(bits))
	for i, b := range bits {
		vals[i] = strconv.FormatBool(b)
	}
	return strings.Join(vals, ",")
}

// ---- helpers ----

func splitValues(value string) []string {
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func joinEach(regs []uint16, f func(uint16) string) string {
	vals := make([]string, len(regs))
	for i, r := range regs {
		vals[i] = f(r)
	}
	return strings.Join(vals, ",")
}

// parseInteger accepts the signed and unsigned 16-bit range.
// Negative values wrap into the register as two's complement.
func parseInteger(s string) (uint16, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil || v < math.MinInt16 || v > math.MaxUint16 {
		return 0, fmt.Errorf("%w: integer %q", ErrInvalidValue, s)
	}
	return uint16(v), nil
}

func parseHex(s string) (uint16, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(h, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: hexadecimal %q", ErrInvalidValue, s)
	}
	return uint16(v), nil
}

func parseBool(s string) (bool, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: boolean %q", ErrInvalidValue, s)
	}
	return b, nil
}
