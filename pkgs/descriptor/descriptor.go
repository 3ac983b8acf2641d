// Package descriptor holds the immutable metadata a parser is compiled from:
// one command's identity, its named options and its positional parameters.
package descriptor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aledsdavies/cligen/pkgs/convert"
	cerrors "github.com/aledsdavies/cligen/pkgs/errors"
)

// FlagArity marks an option that consumes no value token.
const FlagArity = "0"

// Command describes one flat command.
type Command struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`

	// StandardHelp lets a dispatcher answer "<command> --help" and
	// "<command> -h" with this command's help text.
	StandardHelp bool `json:"standardHelp,omitzero" yaml:"standardHelp,omitempty"`

	// Options keeps declaration order; help lists options in this order.
	Options    []Option    `json:"options,omitempty" yaml:"options,omitempty"`
	Parameters []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Option is one named flag or value option.
type Option struct {
	Field        string       `json:"field" yaml:"field"`
	Aliases      []string     `json:"names" yaml:"names"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	Required     bool         `json:"required,omitzero" yaml:"required,omitempty"`
	DefaultValue string       `json:"default,omitempty" yaml:"default,omitempty"`
	Arity        string       `json:"arity,omitempty" yaml:"arity,omitempty"`
	Type         convert.Type `json:"type" yaml:"type"`

	// Converter, when set, replaces the built-in conversion for this option.
	Converter convert.Converter `json:"-" yaml:"-" cbor:"-"`
	// ConverterName names a converter in a convert.Registry; loaders and
	// extractors resolve it into Converter.
	ConverterName string `json:"converter,omitempty" yaml:"converter,omitempty"`
}

// Parameter is one positional slot.
type Parameter struct {
	Field       string       `json:"field" yaml:"field"`
	Index       int          `json:"index" yaml:"index"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool         `json:"required" yaml:"required"`
	Type        convert.Type `json:"type" yaml:"type"`
}

// PrimaryAlias is the first alias; error messages name options by it.
func (o *Option) PrimaryAlias() string {
	if len(o.Aliases) == 0 {
		return ""
	}
	return o.Aliases[0]
}

// IsFlag reports whether the option consumes no value token. Any arity other
// than "0", including the empty string, consumes exactly one token.
func (o *Option) IsFlag() bool {
	return o.Arity == FlagArity
}

// SortedParameters returns the parameters ordered by index. Ties keep
// declaration order.
func (c *Command) SortedParameters() []Parameter {
	params := slices.Clone(c.Parameters)
	slices.SortStableFunc(params, func(a, b Parameter) int {
		return a.Index - b.Index
	})
	return params
}

// FindOption returns the option that declares alias.
func (c *Command) FindOption(alias string) (*Option, bool) {
	for i := range c.Options {
		if slices.Contains(c.Options[i].Aliases, alias) {
			return &c.Options[i], true
		}
	}
	return nil, false
}

// Aliases returns every alias of every option in declaration order.
func (c *Command) Aliases() []string {
	var aliases []string
	for _, opt := range c.Options {
		aliases = append(aliases, opt.Aliases...)
	}
	return aliases
}

// Validate checks the structural rules a parser relies on: a name, non-empty
// and pairwise disjoint alias sets, field names, and non-negative, unique
// parameter indices.
func (c *Command) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return cerrors.NewDescriptorError(c.Name, "name must not be empty")
	}

	owner := make(map[string]string)
	fields := make(map[string]bool)
	for i, opt := range c.Options {
		if opt.Field == "" {
			return cerrors.NewDescriptorError(c.Name, fmt.Sprintf("option %d has no field name", i))
		}
		if fields[opt.Field] {
			return cerrors.NewDescriptorError(c.Name, fmt.Sprintf("field %s is declared twice", opt.Field))
		}
		fields[opt.Field] = true

		if len(opt.Aliases) == 0 {
			return cerrors.NewDescriptorError(c.Name, fmt.Sprintf("option %s has no names", opt.Field))
		}
		for _, alias := range opt.Aliases {
			if alias == "" {
				return cerrors.NewDescriptorError(c.Name, fmt.Sprintf("option %s has an empty name", opt.Field))
			}
			if prev, dup := owner[alias]; dup {
				return cerrors.NewDescriptorError(c.Name,
					fmt.Sprintf("name %s is declared by both %s and %s", alias, prev, opt.Field))
			}
			owner[alias] = opt.Field
		}
	}

	indices := make(map[int]string)
	for i, param := range c.Parameters {
		if param.Field == "" {
			return cerrors.NewDescriptorError(c.Name, fmt.Sprintf("parameter %d has no field name", i))
		}
		if fields[param.Field] {
			return cerrors.NewDescriptorError(c.Name, fmt.Sprintf("field %s is declared twice", param.Field))
		}
		fields[param.Field] = true

		if param.Index < 0 {
			return cerrors.NewDescriptorError(c.Name,
				fmt.Sprintf("parameter %s has negative index %d", param.Field, param.Index))
		}
		if prev, dup := indices[param.Index]; dup {
			return cerrors.NewDescriptorError(c.Name,
				fmt.Sprintf("index %d is declared by both %s and %s", param.Index, prev, param.Field))
		}
		indices[param.Index] = param.Field
	}
	return nil
}

// ResolveConverters fills Converter from ConverterName using r.
func (c *Command) ResolveConverters(r *convert.Registry) error {
	for i := range c.Options {
		opt := &c.Options[i]
		if opt.Converter != nil || opt.ConverterName == "" {
			continue
		}
		conv, ok := r.Lookup(opt.ConverterName)
		if !ok {
			return cerrors.NewDescriptorError(c.Name,
				fmt.Sprintf("option %s uses unknown converter %q (known: %s)",
					opt.PrimaryAlias(), opt.ConverterName, strings.Join(r.Names(), ", ")))
		}
		opt.Converter = conv
	}
	return nil
}
