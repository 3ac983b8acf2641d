package compiler

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/aledsdavies/cligen/pkgs/convert"
	"github.com/aledsdavies/cligen/pkgs/descriptor"
	cerrors "github.com/aledsdavies/cligen/pkgs/errors"
)

// assembler creates the per-parse builder for a target type.
type assembler[T any] interface {
	begin() builder[T]
}

// builder receives slot values as tokens are consumed and yields the
// finished command value.
type builder[T any] interface {
	set(slot int, v any) error
	finish(set []bool) T
}

func newAssembler[T any](desc *descriptor.Command, slots []slot, flags map[int]bool) (assembler[T], error) {
	rt := targetType[T]()

	if rt == reflect.TypeOf((*Values)(nil)) {
		a := &valuesAssembler{layout: newLayout(slots)}
		return any(a).(assembler[T]), nil
	}

	st, ptr := rt, false
	if st.Kind() == reflect.Ptr {
		st, ptr = st.Elem(), true
	}
	if st.Kind() != reflect.Struct {
		return nil, cerrors.NewDescriptorError(desc.Name,
			fmt.Sprintf("cannot bind to %s: target must be *compiler.Values or a struct", rt))
	}

	a := &structAssembler[T]{typ: st, ptr: ptr, fields: make([][]int, len(slots))}
	for i, s := range slots {
		f, ok := findField(st, s.field)
		if !ok {
			return nil, cerrors.NewDescriptorError(desc.Name,
				fmt.Sprintf("%s has no field %s", st, s.field))
		}
		if !f.IsExported() {
			return nil, cerrors.NewDescriptorError(desc.Name,
				fmt.Sprintf("field %s.%s is not exported", st, f.Name))
		}
		if err := checkField(f, s, flags[i]); err != nil {
			return nil, cerrors.NewDescriptorError(desc.Name, err.Error())
		}
		a.fields[i] = f.Index
	}
	return a, nil
}

// findField matches by exact name first, then case-insensitively so that a
// descriptor field "dbHost" binds to a Go field DbHost.
func findField(st reflect.Type, name string) (reflect.StructField, bool) {
	if f, ok := st.FieldByName(name); ok {
		return f, true
	}
	return st.FieldByNameFunc(func(n string) bool {
		return strings.EqualFold(n, name)
	})
}

func checkField(f reflect.StructField, s slot, flag bool) error {
	ft := f.Type
	for ft.Kind() == reflect.Ptr {
		ft = ft.Elem()
	}
	k := ft.Kind()

	if flag {
		if k != reflect.Bool {
			return fmt.Errorf("field %s is %s but its option takes no value", f.Name, f.Type)
		}
		return nil
	}

	if s.conv != nil {
		// Converter output is checked when it is assigned.
		return nil
	}

	var ok bool
	switch s.typ {
	case convert.TypeBool:
		ok = k == reflect.Bool
	case convert.TypeInt32:
		ok = k == reflect.Int || k == reflect.Int32 || k == reflect.Int64
	case convert.TypeInt64:
		ok = k == reflect.Int || k == reflect.Int64
	case convert.TypeFloat32:
		ok = k == reflect.Float32 || k == reflect.Float64
	case convert.TypeFloat64:
		ok = k == reflect.Float64
	case convert.TypeString, convert.TypeCustom:
		ok = convert.CanHoldString(f.Type)
	}
	if !ok {
		if s.typ == convert.TypeCustom {
			return fmt.Errorf("field %s has type %s and needs a converter", f.Name, f.Type)
		}
		return fmt.Errorf("field %s has type %s, which cannot hold %s", f.Name, f.Type, s.typ)
	}
	return nil
}

type structAssembler[T any] struct {
	typ    reflect.Type
	ptr    bool
	fields [][]int
}

func (a *structAssembler[T]) begin() builder[T] {
	return &structBuilder[T]{a: a, v: reflect.New(a.typ)}
}

type structBuilder[T any] struct {
	a *structAssembler[T]
	v reflect.Value
}

func (b *structBuilder[T]) set(slot int, v any) error {
	return convert.Assign(b.v.Elem().FieldByIndex(b.a.fields[slot]), v)
}

func (b *structBuilder[T]) finish([]bool) T {
	if b.a.ptr {
		return b.v.Interface().(T)
	}
	return b.v.Elem().Interface().(T)
}

type valuesAssembler struct {
	layout *layout
}

func (a *valuesAssembler) begin() builder[*Values] {
	vals := make([]any, len(a.layout.types))
	for i, t := range a.layout.types {
		vals[i] = convert.Zero(t)
	}
	return &valuesBuilder{v: &Values{layout: a.layout, vals: vals}}
}

type valuesBuilder struct {
	v *Values
}

func (b *valuesBuilder) set(slot int, v any) error {
	b.v.vals[slot] = v
	return nil
}

func (b *valuesBuilder) finish(set []bool) *Values {
	b.v.set = set
	return b.v
}
