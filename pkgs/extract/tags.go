// Package extract builds command descriptors from annotated Go structs,
// either by scanning package source or by reflecting on a struct type.
//
// A struct becomes a command when its doc comment carries a directive:
//
//	//cligen:command name=migrate description="Database migration utility" version=1.0.0 standard-help
//	type MigrateApp struct {
//		Host    string `option:"-H,--host" description:"Database host" required:"true"`
//		DryRun  bool   `option:"--dry-run" arity:"0"`
//		Command string `param:"0" description:"Migration command"`
//	}
//
// Option tags list aliases separated by commas. Parameters are required
// unless tagged required:"false".
package extract

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/aledsdavies/cligen/pkgs/convert"
	"github.com/aledsdavies/cligen/pkgs/descriptor"
)

// Directive marks a struct type as a command.
const Directive = "//cligen:command"

// Struct tag keys.
const (
	TagOption      = "option"
	TagParam       = "param"
	TagDescription = "description"
	TagRequired    = "required"
	TagDefault     = "default"
	TagArity       = "arity"
	TagConverter   = "converter"
)

// Info is the command identity carried by the directive.
type Info struct {
	Name         string
	Description  string
	Version      string
	StandardHelp bool
}

// parseDirective reads the arguments after Directive. Values may be quoted
// with shell rules.
func parseDirective(args string) (Info, error) {
	words, err := shellquote.Split(args)
	if err != nil {
		return Info{}, fmt.Errorf("malformed directive: %w", err)
	}

	var info Info
	for _, w := range words {
		key, value, hasValue := strings.Cut(w, "=")
		switch key {
		case "name":
			info.Name = value
		case "description", "desc":
			info.Description = value
		case "version":
			info.Version = value
		case "standard-help":
			if hasValue {
				b, err := strconv.ParseBool(value)
				if err != nil {
					return Info{}, fmt.Errorf("standard-help: %w", err)
				}
				info.StandardHelp = b
			} else {
				info.StandardHelp = true
			}
		default:
			return Info{}, fmt.Errorf("unknown directive key %q", key)
		}
	}
	if info.Name == "" {
		return Info{}, fmt.Errorf("directive has no name")
	}
	return info, nil
}

// member is one tagged struct field, before it becomes an option or a
// parameter.
type member struct {
	field string
	tag   reflect.StructTag
	typ   convert.Type
}

// apply adds m to cmd as an option or parameter. Untagged fields are
// skipped.
func (m member) apply(cmd *descriptor.Command) error {
	names, isOption := m.tag.Lookup(TagOption)
	index, isParam := m.tag.Lookup(TagParam)

	switch {
	case isOption && isParam:
		return fmt.Errorf("field %s has both %s and %s tags", m.field, TagOption, TagParam)

	case isOption:
		aliases := lo.Compact(lo.Map(strings.Split(names, ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}))
		if len(aliases) == 0 {
			return fmt.Errorf("field %s has an empty %s tag", m.field, TagOption)
		}
		required, err := boolTag(m, false)
		if err != nil {
			return err
		}
		cmd.Options = append(cmd.Options, descriptor.Option{
			Field:         m.field,
			Aliases:       aliases,
			Description:   m.tag.Get(TagDescription),
			Required:      required,
			DefaultValue:  m.tag.Get(TagDefault),
			Arity:         m.tag.Get(TagArity),
			Type:          m.typ,
			ConverterName: m.tag.Get(TagConverter),
		})

	case isParam:
		idx, err := strconv.Atoi(strings.TrimSpace(index))
		if err != nil {
			return fmt.Errorf("field %s: bad %s index %q", m.field, TagParam, index)
		}
		if _, ok := m.tag.Lookup(TagConverter); ok {
			return fmt.Errorf("field %s: parameters do not take converters", m.field)
		}
		required, err := boolTag(m, true)
		if err != nil {
			return err
		}
		cmd.Parameters = append(cmd.Parameters, descriptor.Parameter{
			Field:       m.field,
			Index:       idx,
			Description: m.tag.Get(TagDescription),
			Required:    required,
			Type:        m.typ,
		})
	}
	return nil
}

func boolTag(m member, def bool) (bool, error) {
	raw, ok := m.tag.Lookup(TagRequired)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("field %s: bad %s value %q", m.field, TagRequired, raw)
	}
	return b, nil
}

// builtinTypes maps predeclared Go type names to descriptor types. Any
// other type, including named types over these, is custom.
var builtinTypes = map[string]convert.Type{
	"bool":    convert.TypeBool,
	"int32":   convert.TypeInt32,
	"int":     convert.TypeInt64,
	"int64":   convert.TypeInt64,
	"float32": convert.TypeFloat32,
	"float64": convert.TypeFloat64,
	"string":  convert.TypeString,
}

// TypeOf classifies a Go type expression as written in source.
func TypeOf(expr string) convert.Type {
	if t, ok := builtinTypes[expr]; ok {
		return t
	}
	return convert.TypeCustom
}
