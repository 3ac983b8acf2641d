package extract

import (
	"fmt"
	"reflect"

	"github.com/aledsdavies/cligen/pkgs/convert"
	"github.com/aledsdavies/cligen/pkgs/descriptor"
	cerrors "github.com/aledsdavies/cligen/pkgs/errors"
)

var builtinReflectTypes = map[reflect.Type]convert.Type{
	reflect.TypeOf(false):      convert.TypeBool,
	reflect.TypeOf(int32(0)):   convert.TypeInt32,
	reflect.TypeOf(int(0)):     convert.TypeInt64,
	reflect.TypeOf(int64(0)):   convert.TypeInt64,
	reflect.TypeOf(float32(0)): convert.TypeFloat32,
	reflect.TypeOf(float64(0)): convert.TypeFloat64,
	reflect.TypeOf(""):         convert.TypeString,
}

// TypeOfReflect classifies a Go type the same way TypeOf classifies its
// source spelling.
func TypeOfReflect(t reflect.Type) convert.Type {
	if ct, ok := builtinReflectTypes[t]; ok {
		return ct
	}
	return convert.TypeCustom
}

// Struct builds a descriptor from the tags of the struct type of v, which
// may be a struct, a pointer to one, or a reflect.Type. Reflection cannot
// see doc comments, so the command identity comes from info.
func Struct(v any, info Info) (*descriptor.Command, error) {
	rt, ok := v.(reflect.Type)
	if !ok {
		rt = reflect.TypeOf(v)
	}
	if rt == nil {
		return nil, cerrors.NewExtractionError("<nil>", "not a struct")
	}
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, cerrors.NewExtractionError(rt.String(), "not a struct")
	}

	cmd := &descriptor.Command{
		Name:         info.Name,
		Description:  info.Description,
		Version:      info.Version,
		StandardHelp: info.StandardHelp,
	}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		_, isOption := f.Tag.Lookup(TagOption)
		_, isParam := f.Tag.Lookup(TagParam)
		if !isOption && !isParam {
			continue
		}
		if !f.IsExported() {
			return nil, cerrors.NewExtractionError(rt.String(), errUnexported(f.Name).Error())
		}
		m := member{field: f.Name, tag: f.Tag, typ: TypeOfReflect(f.Type)}
		if err := m.apply(cmd); err != nil {
			return nil, cerrors.NewExtractionError(rt.String(), err.Error())
		}
	}

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// For is Struct for a type parameter.
func For[T any](info Info) (*descriptor.Command, error) {
	return Struct(reflect.TypeOf((*T)(nil)).Elem(), info)
}

func errUnexported(name string) error {
	return fmt.Errorf("field %s is tagged but not exported", name)
}
