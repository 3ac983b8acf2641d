package compiler

import (
	"fmt"
	"reflect"

	"github.com/aledsdavies/cligen/pkgs/convert"
)

// layout is the field order shared by every Values a parser produces.
type layout struct {
	fields []string
	types  []convert.Type
	index  map[string]int
}

func newLayout(slots []slot) *layout {
	l := &layout{index: make(map[string]int, len(slots))}
	for i, s := range slots {
		l.fields = append(l.fields, s.field)
		l.types = append(l.types, s.typ)
		l.index[s.field] = i
	}
	return l
}

// Values is an untyped command record keyed by field name. Fields are
// ordered options first, then parameters, each in declaration order.
// Unset primitives read as their zero value; unset strings as "" and unset
// custom values as nil.
type Values struct {
	layout *layout
	vals   []any
	set    []bool
}

// Fields returns the field names in record order.
func (v *Values) Fields() []string {
	return append([]string(nil), v.layout.fields...)
}

// Get returns the value of field and whether the field exists.
func (v *Values) Get(field string) (any, bool) {
	i, ok := v.layout.index[field]
	if !ok {
		return nil, false
	}
	return v.vals[i], true
}

// IsSet reports whether the parse assigned field a non-nil value.
func (v *Values) IsSet(field string) bool {
	i, ok := v.layout.index[field]
	return ok && v.set[i]
}

// Map copies the record into a map.
func (v *Values) Map() map[string]any {
	m := make(map[string]any, len(v.vals))
	for i, f := range v.layout.fields {
		m[f] = v.vals[i]
	}
	return m
}

// String returns field as a string, or the zero value when the field is
// unknown or holds another type.
func (v *Values) String(field string) string {
	s, _ := getAs[string](v, field)
	return s
}

// Bool returns field as a bool, or the zero value when the field is
// unknown or holds another type.
func (v *Values) Bool(field string) bool {
	b, _ := getAs[bool](v, field)
	return b
}

// Int32 returns field as an int32, or the zero value when the field is
// unknown or holds another type.
func (v *Values) Int32(field string) int32 {
	n, _ := getAs[int32](v, field)
	return n
}

// Int64 returns field as an int64, or the zero value when the field is
// unknown or holds another type.
func (v *Values) Int64(field string) int64 {
	n, _ := getAs[int64](v, field)
	return n
}

// Float32 returns field as a float32, or the zero value when the field is
// unknown or holds another type.
func (v *Values) Float32(field string) float32 {
	f, _ := getAs[float32](v, field)
	return f
}

// Float64 returns field as a float64, or the zero value when the field is
// unknown or holds another type.
func (v *Values) Float64(field string) float64 {
	f, _ := getAs[float64](v, field)
	return f
}

// Value returns field as T, failing when the field is unknown or holds a
// different type.
func Value[T any](v *Values, field string) (T, error) {
	var zero T
	raw, ok := v.Get(field)
	if !ok {
		return zero, fmt.Errorf("no field %s", field)
	}
	if raw == nil {
		return zero, nil
	}
	t, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("field %s holds %T, not %s", field, raw, reflect.TypeOf((*T)(nil)).Elem())
	}
	return t, nil
}

func getAs[T any](v *Values, field string) (T, bool) {
	raw, ok := v.Get(field)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := raw.(T)
	return t, ok
}
