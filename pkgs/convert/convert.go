// Package convert is the conversion registry used by compiled parsers: the
// built-in string-to-scalar conversions keyed by target type, the Converter
// capability for caller-supplied conversions, and a registry of named
// converters that descriptor files and source annotations refer to.
package convert

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the declared target type of an option or parameter.
type Type int

const (
	TypeString Type = iota
	TypeBool
	TypeInt32
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeCustom
)

var typeNames = map[Type]string{
	TypeString:  "string",
	TypeBool:    "bool",
	TypeInt32:   "int32",
	TypeInt64:   "int64",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
	TypeCustom:  "custom",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// IsPrimitive reports whether t is a scalar whose zero value cannot be told
// apart from "not provided". Required checks never apply to primitives.
func (t Type) IsPrimitive() bool {
	switch t {
	case TypeBool, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64:
		return true
	default:
		return false
	}
}

// ParseType maps a type name used in descriptor files to a Type.
// "int" is accepted as an alias of int64.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "string":
		return TypeString, nil
	case "bool", "boolean":
		return TypeBool, nil
	case "int32":
		return TypeInt32, nil
	case "int", "int64":
		return TypeInt64, nil
	case "float32":
		return TypeFloat32, nil
	case "float64", "double":
		return TypeFloat64, nil
	case "custom":
		return TypeCustom, nil
	}
	return TypeString, fmt.Errorf("unknown type %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Converter turns the raw token following an option into the option's value.
type Converter interface {
	Convert(raw string) (any, error)
}

// Func adapts an ordinary function to the Converter interface.
type Func func(raw string) (any, error)

// Convert calls f(raw).
func (f Func) Convert(raw string) (any, error) { return f(raw) }

// ParseInt32 parses a base-10, 32-bit signed integer with an optional sign.
func ParseInt32(raw string) (int32, error) {
	v, err := strconv.ParseInt(raw, 10, 32)
	return int32(v), err
}

// ParseInt64 parses a base-10, 64-bit signed integer with an optional sign.
func ParseInt64(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

// ParseBool is true only for a case-insensitive "true". Any other input,
// including "1" and "yes", is false; it never fails.
func ParseBool(raw string) bool {
	return strings.EqualFold(raw, "true")
}

// ParseFloat64 parses a decimal or scientific float, ignoring surrounding
// whitespace. NaN and Infinity are accepted.
func ParseFloat64(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

// ParseFloat32 is ParseFloat64 with 32-bit precision and range.
func ParseFloat32(raw string) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
	return float32(v), err
}

// Builtin converts raw according to t. Custom and string targets receive raw
// unchanged. Failures are the underlying *strconv.NumError.
func Builtin(t Type, raw string) (any, error) {
	switch t {
	case TypeInt32:
		v, err := ParseInt32(raw)
		if err != nil {
			return nil, err
		}
		return v, nil
	case TypeInt64:
		v, err := ParseInt64(raw)
		if err != nil {
			return nil, err
		}
		return v, nil
	case TypeBool:
		return ParseBool(raw), nil
	case TypeFloat64:
		v, err := ParseFloat64(raw)
		if err != nil {
			return nil, err
		}
		return v, nil
	case TypeFloat32:
		v, err := ParseFloat32(raw)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return raw, nil
	}
}

// Zero returns the zero value a compiled parser starts each slot with.
// Custom slots start absent (nil).
func Zero(t Type) any {
	switch t {
	case TypeBool:
		return false
	case TypeInt32:
		return int32(0)
	case TypeInt64:
		return int64(0)
	case TypeFloat32:
		return float32(0)
	case TypeFloat64:
		return float64(0)
	case TypeString:
		return ""
	default:
		return nil
	}
}
