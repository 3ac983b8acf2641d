package generator

// Template components. Each is a named {{define}} block; the master template
// composes them in file order.

const headerTemplate = `{{define "header"}}// Code generated by cligen. DO NOT EDIT.
// Fingerprint: {{.Fingerprint}}
{{end}}`

const packageTemplate = `{{define "package"}}package {{.PackageName}}{{end}}`

const importsTemplate = `{{define "imports"}}
import (
{{- range .StdImports}}
	"{{.Path}}"
{{- end}}
{{- if and .StdImports .Imports}}
{{end}}
{{- range .Imports}}
	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{- end}}
)
{{end}}`

const descriptorTemplate = `{{define "descriptor"}}
var {{.DescriptorVar}} = &descriptor.Command{
	Name: {{quote .Name}},
	{{- with .Description}}
	Description: {{quote .}},
	{{- end}}
	{{- with .Version}}
	Version: {{quote .}},
	{{- end}}
	{{- if .StandardHelp}}
	StandardHelp: true,
	{{- end}}
	{{- if .Options}}
	Options: []descriptor.Option{
		{{- range .Options}}
		{
			Field: {{quote .Field}},
			Aliases: []string{ {{- range $i, $a := .Aliases}}{{if $i}}, {{end}}{{quote $a}}{{end -}} },
			{{- with .Description}}
			Description: {{quote .}},
			{{- end}}
			{{- if .Required}}
			Required: true,
			{{- end}}
			{{- with .Default}}
			DefaultValue: {{quote .}},
			{{- end}}
			{{- with .Arity}}
			Arity: {{quote .}},
			{{- end}}
			Type: convert.{{.TypeConst}},
			{{- with .ConverterName}}
			ConverterName: {{quote .}},
			{{- end}}
		},
		{{- end}}
	},
	{{- end}}
	{{- if .Params}}
	Parameters: []descriptor.Parameter{
		{{- range .Params}}
		{
			Field: {{quote .Field}},
			Index: {{.Index}},
			{{- with .Description}}
			Description: {{quote .}},
			{{- end}}
			{{- if .Required}}
			Required: true,
			{{- end}}
			Type: convert.{{.TypeConst}},
		},
		{{- end}}
	},
	{{- end}}
}

const {{.HelpConst}} = {{literal .Help}}
{{end}}`

const parserStructTemplate = `{{define "parser-struct"}}
// {{.ParserName}} parses the "{{.Name}}" command into a {{.TypeName}}.
type {{.ParserName}} struct{}

// Descriptor returns the descriptor {{.ParserName}} was generated from.
func ({{.ParserName}}) Descriptor() *descriptor.Command { return {{.DescriptorVar}} }

// HelpText returns the help for "{{.Name}}".
func ({{.ParserName}}) HelpText() string { return {{.HelpConst}} }

// ParseArgs is Parse with the command value type erased.
func (p {{.ParserName}}) ParseArgs(tokens []string) (*compiler.Result[any], error) {
	res, err := p.Parse(tokens)
	if err != nil {
		return nil, err
	}
	return &compiler.Result[any]{Command: res.Command, Remainder: res.Remainder}, nil
}
{{end}}`

// assignTemplate converts the token held in .Source and stores it in the
// field. It is shared by options and parameters.
const assignTemplate = `{{define "assign"}}
{{- if eq .Kind "flag"}}
			instance.{{.Field}} = true
{{- else if eq .Kind "string"}}
			instance.{{.Field}} = {{.Source}}
{{- else if eq .Kind "bool"}}
			instance.{{.Field}} = convert.ParseBool({{.Source}})
{{- else if eq .Kind "number"}}
			v, err := convert.{{.ParseFunc}}({{.Source}})
			if err != nil {
				return nil, {{.Fail}}
			}
			instance.{{.Field}} = {{.Expr}}
{{- else if eq .Kind "named"}}
			v, err := convert.Named({{quote .ConverterName}}, {{.Source}})
			if err != nil {
				return nil, {{.Fail}}
			}
			if err := convert.Into(&instance.{{.Field}}, v); err != nil {
				return nil, {{.Fail}}
			}
{{- else}}
			if err := convert.Into(&instance.{{.Field}}, {{.Source}}); err != nil {
				return nil, {{.Fail}}
			}
{{- end}}
{{- if .SetVar}}
			{{.SetVar}} = {{if eq .Kind "named"}}v != nil{{else}}true{{end}}
{{- end}}
{{- end}}`

const parseFunctionTemplate = `{{define "parse-function"}}
// Parse converts tokens into a {{.TypeName}}. Parsing stops at the first error.
func ({{.ParserName}}) Parse(tokens []string) (*compiler.Result[*{{.TypeName}}], error) {
	instance := &{{.TypeName}}{}
	remainder := []string{}
	posIdx := 0
	{{- range .Required}}
	var {{.SetVar}} bool
	{{- end}}

	for idx := 0; idx < len(tokens); {
		arg := tokens[idx]
		switch arg {
		{{- range .Options}}
		case {{range $i, $a := .Aliases}}{{if $i}}, {{end}}{{quote $a}}{{end}}:
			{{- if eq .Kind "flag"}}
			{{- template "assign" .}}
			idx++
			{{- else}}
			if idx+1 >= len(tokens) {
				return nil, cerrors.MissingValue({{quote .Primary}})
			}
			raw := tokens[idx+1]
			{{- template "assign" .}}
			idx += 2
			{{- end}}
		{{- end}}
		default:
			if strings.HasPrefix(arg, compiler.OptionPrefix) {
				return nil, cerrors.UnknownOption(arg)
			}
			switch posIdx {
			{{- range .Params}}
			case {{.Index}}:
			{{- template "assign" .}}
			{{- end}}
			default:
				remainder = append(remainder, arg)
			}
			posIdx++
			idx++
		}
	}
	{{- range .Required}}

	if !{{.SetVar}} {
		{{- if .Option}}
		return nil, cerrors.MissingRequiredOption({{quote .Primary}})
		{{- else}}
		return nil, cerrors.MissingRequiredParameter({{quote .Field}})
		{{- end}}
	}
	{{- end}}

	return &compiler.Result[*{{.TypeName}}]{Command: instance, Remainder: remainder}, nil
}
{{end}}`

const registerCommandsTemplate = `{{define "register-commands"}}
// RegisterCommands adds the generated parsers of this package to d.
func RegisterCommands(d *dispatch.Dispatcher) {
	{{- range .Commands}}
	d.Register({{quote .Name}}, {{.ParserName}}{})
	{{- end}}
}
{{end}}`

const commandTemplate = `{{define "command"}}
{{- template "descriptor" .}}
{{- template "parser-struct" .}}
{{- template "parse-function" .}}
{{- end}}`

const masterTemplate = `{{define "main"}}
{{- template "header" .}}
{{template "package" .}}
{{template "imports" .}}
{{- range .Commands}}
{{- template "command" .}}
{{- end}}
{{- template "register-commands" .}}
{{- end}}`
