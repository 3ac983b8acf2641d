// Package compiler turns a command descriptor into a parser specialised to
// that command's shape.
//
// Compilation does all type analysis once: every option and parameter gets a
// slot with its conversion and a binding into the target value, aliases are
// indexed, and parameters are keyed by position. A compiled Parser is
// immutable and safe for concurrent use; each Parse call owns its state.
//
// The parse algorithm is a single left-to-right pass with three token
// classes:
//
//   - a token equal to an alias is an option; flags (arity "0") store true,
//     every other arity consumes exactly the next token as the value
//   - a token not starting with "-" is positional and binds to the parameter
//     whose index equals the number of positional tokens seen before it, or
//     else goes to the remainder
//   - any other token is an unknown option and aborts the parse
//
// After the loop, required options and parameters of reference-like types
// (string, custom) must have been set. Required primitives are not checked:
// their zero value cannot be told apart from "not provided".
package compiler

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/aledsdavies/cligen/internal/invariant"
	"github.com/aledsdavies/cligen/pkgs/convert"
	"github.com/aledsdavies/cligen/pkgs/descriptor"
	cerrors "github.com/aledsdavies/cligen/pkgs/errors"
)

// OptionPrefix starts every option-like token.
const OptionPrefix = "-"

// Result is the outcome of a successful parse.
type Result[T any] struct {
	Command T
	// Remainder holds positional tokens no parameter claimed, in encounter order.
	Remainder []string
}

// CommandParser is the type-erased contract a dispatcher consumes. Both
// compiled and generated parsers satisfy it.
type CommandParser interface {
	ParseArgs(tokens []string) (*Result[any], error)
	HelpText() string
}

// CompileOption configures Compile.
type CompileOption func(*compileConfig)

type compileConfig struct {
	registry *convert.Registry
}

// WithRegistry resolves ConverterName references against r instead of the
// default registry.
func WithRegistry(r *convert.Registry) CompileOption {
	return func(c *compileConfig) { c.registry = r }
}

type slot struct {
	field    string
	typ      convert.Type
	conv     convert.Converter
	required bool
}

type optionSlot struct {
	slot    int
	primary string
	flag    bool
}

type requirement struct {
	slot    int
	option  bool
	primary string
	field   string
}

// Parser is a compiled parser for one command, producing values of type T.
type Parser[T any] struct {
	desc *descriptor.Command

	slots    []slot
	options  []optionSlot
	byAlias  map[string]int
	params   map[int]int
	required []requirement
	target   assembler[T]

	helpOnce sync.Once
	help     string
}

// Compile validates desc and compiles it into a parser whose results have
// type T. T is either *Values or a struct (or pointer to struct) with one
// exported field per option and parameter, matched by name.
func Compile[T any](desc *descriptor.Command, opts ...CompileOption) (*Parser[T], error) {
	invariant.NotNil(desc, "descriptor")

	cfg := compileConfig{registry: convert.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := desc.Validate(); err != nil {
		return nil, err
	}

	p := &Parser[T]{
		desc:    desc,
		byAlias: make(map[string]int),
		params:  make(map[int]int),
	}

	for i := range desc.Options {
		opt := &desc.Options[i]
		conv := opt.Converter
		if conv == nil && opt.ConverterName != "" {
			c, ok := cfg.registry.Lookup(opt.ConverterName)
			if !ok {
				return nil, cerrors.NewDescriptorError(desc.Name,
					fmt.Sprintf("option %s uses unknown converter %q", opt.PrimaryAlias(), opt.ConverterName))
			}
			conv = c
		}

		idx := len(p.slots)
		p.slots = append(p.slots, slot{field: opt.Field, typ: opt.Type, conv: conv, required: opt.Required})
		for _, alias := range opt.Aliases {
			p.byAlias[alias] = len(p.options)
		}
		p.options = append(p.options, optionSlot{slot: idx, primary: opt.PrimaryAlias(), flag: opt.IsFlag()})

		if opt.Required && !opt.Type.IsPrimitive() {
			p.required = append(p.required, requirement{slot: idx, option: true, primary: opt.PrimaryAlias(), field: opt.Field})
		}
	}

	for _, param := range desc.Parameters {
		idx := len(p.slots)
		p.slots = append(p.slots, slot{field: param.Field, typ: param.Type, required: param.Required})
		p.params[param.Index] = idx

		if param.Required && !param.Type.IsPrimitive() {
			p.required = append(p.required, requirement{slot: idx, field: param.Field})
		}
	}

	target, err := newAssembler[T](desc, p.slots, p.flagSlots())
	if err != nil {
		return nil, err
	}
	p.target = target

	return p, nil
}

// MustCompile is Compile for descriptors known to be valid, such as those
// built in package initialisation. It panics on error.
func MustCompile[T any](desc *descriptor.Command, opts ...CompileOption) *Parser[T] {
	p, err := Compile[T](desc, opts...)
	invariant.ExpectNoError(err, "compile "+desc.Name)
	return p
}

func (p *Parser[T]) flagSlots() map[int]bool {
	flags := make(map[int]bool)
	for _, opt := range p.options {
		if opt.flag {
			flags[opt.slot] = true
		}
	}
	return flags
}

// Descriptor returns the descriptor the parser was compiled from.
func (p *Parser[T]) Descriptor() *descriptor.Command {
	return p.desc
}

// Parse converts tokens into a populated command value. Parsing is all or
// nothing: on error no result is returned.
func (p *Parser[T]) Parse(tokens []string) (*Result[T], error) {
	b := p.target.begin()
	set := make([]bool, len(p.slots))
	remainder := []string{}
	posIdx := 0

	store := func(idx int, v any) error {
		if err := b.set(idx, v); err != nil {
			return err
		}
		set[idx] = v != nil
		return nil
	}

	for idx := 0; idx < len(tokens); {
		prev := idx
		arg := tokens[idx]

		if oi, ok := p.byAlias[arg]; ok {
			opt := p.options[oi]
			if opt.flag {
				if err := store(opt.slot, true); err != nil {
					return nil, cerrors.ConversionFailed(opt.primary, err)
				}
				idx++
			} else {
				if idx+1 >= len(tokens) {
					return nil, cerrors.MissingValue(opt.primary)
				}
				v, err := p.convertOption(opt.slot, tokens[idx+1])
				if err != nil {
					return nil, cerrors.ConversionFailed(opt.primary, err)
				}
				if err := store(opt.slot, v); err != nil {
					return nil, cerrors.ConversionFailed(opt.primary, err)
				}
				idx += 2
			}
		} else if !strings.HasPrefix(arg, OptionPrefix) {
			if si, ok := p.params[posIdx]; ok {
				s := p.slots[si]
				v, err := convert.Builtin(s.typ, arg)
				if err != nil {
					return nil, cerrors.ParameterConversionFailed(s.field, err)
				}
				if err := store(si, v); err != nil {
					return nil, cerrors.ParameterConversionFailed(s.field, err)
				}
			} else {
				remainder = append(remainder, arg)
			}
			posIdx++
			idx++
		} else {
			return nil, cerrors.UnknownOption(arg)
		}

		invariant.Invariant(idx > prev, "token index must advance: %d -> %d", prev, idx)
	}

	for _, req := range p.required {
		if set[req.slot] {
			continue
		}
		if req.option {
			return nil, cerrors.MissingRequiredOption(req.primary)
		}
		return nil, cerrors.MissingRequiredParameter(req.field)
	}

	return &Result[T]{Command: b.finish(set), Remainder: remainder}, nil
}

func (p *Parser[T]) convertOption(idx int, raw string) (any, error) {
	s := p.slots[idx]
	if s.conv != nil {
		return s.conv.Convert(raw)
	}
	return convert.Builtin(s.typ, raw)
}

// ParseArgs is Parse with the command value type erased.
func (p *Parser[T]) ParseArgs(tokens []string) (*Result[any], error) {
	res, err := p.Parse(tokens)
	if err != nil {
		return nil, err
	}
	return &Result[any]{Command: res.Command, Remainder: res.Remainder}, nil
}

// HelpText returns the command's help, rendered on first use.
func (p *Parser[T]) HelpText() string {
	p.helpOnce.Do(func() {
		p.help = HelpText(p.desc)
	})
	return p.help
}

// targetType names T for error messages.
func targetType[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
