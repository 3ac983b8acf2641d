// Package generator turns annotated structs into Go source: one parser type
// per command whose Parse method is a straight-line token loop with the
// same results and errors as the runtime compiler, plus the help text
// rendered at generation time.
package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/template"

	"github.com/aledsdavies/cligen/pkgs/compiler"
	"github.com/aledsdavies/cligen/pkgs/convert"
	"github.com/aledsdavies/cligen/pkgs/extract"
	"github.com/aledsdavies/cligen/pkgs/fingerprint"
)

const modulePath = "github.com/aledsdavies/cligen"

// TemplateData represents preprocessed data for template generation
type TemplateData struct {
	PackageName string
	Fingerprint string
	StdImports  []Import
	Imports     []Import
	Commands    []TemplateCommand
}

// Import is one import spec of the generated file.
type Import struct {
	Alias string
	Path  string
}

// TemplateCommand represents a command ready for template generation
type TemplateCommand struct {
	Name          string // Command name as dispatched
	TypeName      string // Annotated struct
	ParserName    string // Generated parser type
	DescriptorVar string
	HelpConst     string
	Description   string
	Version       string
	StandardHelp  bool
	Help          string
	Options       []TemplateOption
	Params        []TemplateParam
	Required      []TemplateRequired
}

// Assignment describes how one token is converted and stored.
type Assignment struct {
	Field         string
	Kind          string // "flag", "string", "bool", "number", "named", "custom"
	Source        string // Variable holding the token
	ParseFunc     string // convert function for "number"
	Expr          string // Stored expression for "number"
	ConverterName string
	Fail          string // Error expression for conversion failures
	SetVar        string // Presence variable, when required is tracked
	TypeConst     string // convert.Type constant name
}

// TemplateOption is one option: its descriptor literal and its assignment.
type TemplateOption struct {
	Assignment
	Aliases     []string
	Primary     string
	Description string
	Required    bool
	Default     string
	Arity       string
}

// TemplateParam is one positional parameter.
type TemplateParam struct {
	Assignment
	Index       int
	Description string
	Required    bool
}

// TemplateRequired is one post-loop presence check.
type TemplateRequired struct {
	SetVar  string
	Option  bool
	Primary string
	Field   string
}

// TemplateRegistry holds all template components
type TemplateRegistry struct {
	templates map[string]string
}

// NewTemplateRegistry creates a new template registry with all components
func NewTemplateRegistry() *TemplateRegistry {
	registry := &TemplateRegistry{
		templates: make(map[string]string),
	}
	registry.registerComponents()
	return registry
}

// registerComponents registers all template components
func (tr *TemplateRegistry) registerComponents() {
	// File structure
	tr.templates["header"] = headerTemplate
	tr.templates["package"] = packageTemplate
	tr.templates["imports"] = importsTemplate
	tr.templates["register-commands"] = registerCommandsTemplate

	// Per command
	tr.templates["command"] = commandTemplate
	tr.templates["descriptor"] = descriptorTemplate
	tr.templates["parser-struct"] = parserStructTemplate
	tr.templates["parse-function"] = parseFunctionTemplate
	tr.templates["assign"] = assignTemplate
}

// GetTemplate returns a specific template component
func (tr *TemplateRegistry) GetTemplate(name string) (string, bool) {
	tmpl, exists := tr.templates[name]
	return tmpl, exists
}

// GetMasterTemplate returns the master template that composes all components
func (tr *TemplateRegistry) GetMasterTemplate() string {
	return masterTemplate
}

// GetAllTemplates returns all template components as a single string
func (tr *TemplateRegistry) GetAllTemplates() string {
	var parts []string
	for _, name := range slices.Sorted(maps.Keys(tr.templates)) {
		parts = append(parts, tr.templates[name])
	}
	parts = append(parts, tr.GetMasterTemplate())
	return strings.Join(parts, "\n")
}

var funcs = template.FuncMap{
	"quote":   strconv.Quote,
	"literal": literal,
}

// literal renders s as a raw string literal when it can be, so generated
// help text stays readable.
func literal(s string) string {
	if strings.ContainsAny(s, "`\r") {
		return strconv.Quote(s)
	}
	return "`" + s + "`"
}

// Entries pairs each target with its descriptor for fingerprinting.
func Entries(targets []*extract.Target) []fingerprint.Entry {
	entries := make([]fingerprint.Entry, 0, len(targets))
	for _, t := range targets {
		entries = append(entries, fingerprint.Entry{
			TypeName: t.TypeName,
			GoTypes:  t.GoTypes,
			Command:  t.Command,
		})
	}
	return entries
}

// PreprocessTargets converts the annotated structs of one package into
// template-ready data. All validation problems are reported together.
func PreprocessTargets(pkg string, targets []*extract.Target) (*TemplateData, error) {
	if pkg == "" {
		return nil, fmt.Errorf("package name cannot be empty")
	}

	fp, err := fingerprint.Of(pkg, Entries(targets))
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint %s: %w", pkg, err)
	}

	data := &TemplateData{
		PackageName: pkg,
		Fingerprint: fp.String(),
		StdImports:  []Import{{Path: "strings"}},
	}

	errs := NewErrorCollector()
	seen := make(map[string]string)
	needsConvert := false
	for _, t := range targets {
		if t.Package != pkg {
			errs.Add(NewValidationError(
				fmt.Sprintf("declared in package %s, not %s", t.Package, pkg), t.TypeName, "", t.File))
			continue
		}
		if other, ok := seen[t.Command.Name]; ok {
			errs.Add(NewValidationError(
				fmt.Sprintf("command name %q is also declared by %s", t.Command.Name, other), t.TypeName, "", t.File))
			continue
		}
		seen[t.Command.Name] = t.TypeName

		cmd, err := processTarget(t)
		if err != nil {
			errs.Add(err)
			continue
		}
		if len(cmd.Options) > 0 || len(cmd.Params) > 0 {
			needsConvert = true
		}
		data.Commands = append(data.Commands, cmd)
	}
	if errs.HasErrors() {
		return nil, errs.Err()
	}

	paths := []string{"compiler", "descriptor", "dispatch", "errors"}
	if needsConvert {
		paths = append(paths, "convert")
	}
	slices.Sort(paths)
	for _, p := range paths {
		imp := Import{Path: modulePath + "/pkgs/" + p}
		if p == "errors" {
			imp.Alias = "cerrors"
		}
		data.Imports = append(data.Imports, imp)
	}

	return data, nil
}

// processTarget builds the template data of one command.
func processTarget(t *extract.Target) (TemplateCommand, error) {
	cmd := t.Command
	tc := TemplateCommand{
		Name:          cmd.Name,
		TypeName:      t.TypeName,
		ParserName:    t.TypeName + "CommandParser",
		DescriptorVar: "desc" + t.TypeName,
		HelpConst:     "help" + t.TypeName,
		Description:   cmd.Description,
		Version:       cmd.Version,
		StandardHelp:  cmd.StandardHelp,
		Help:          compiler.HelpText(cmd),
	}

	for i := range cmd.Options {
		opt := &cmd.Options[i]
		a, err := assignment(t, opt.Field, opt.Type, opt.ConverterName, opt.IsFlag())
		if err != nil {
			return tc, err
		}
		a.Source = "raw"
		a.Fail = fmt.Sprintf("cerrors.ConversionFailed(%s, err)", strconv.Quote(opt.PrimaryAlias()))
		if opt.Required && !opt.Type.IsPrimitive() {
			a.SetVar = "set" + opt.Field
			tc.Required = append(tc.Required, TemplateRequired{
				SetVar:  a.SetVar,
				Option:  true,
				Primary: opt.PrimaryAlias(),
				Field:   opt.Field,
			})
		}
		tc.Options = append(tc.Options, TemplateOption{
			Assignment:  a,
			Aliases:     opt.Aliases,
			Primary:     opt.PrimaryAlias(),
			Description: opt.Description,
			Required:    opt.Required,
			Default:     opt.DefaultValue,
			Arity:       opt.Arity,
		})
	}

	for _, p := range cmd.Parameters {
		a, err := assignment(t, p.Field, p.Type, "", false)
		if err != nil {
			return tc, err
		}
		a.Source = "arg"
		a.Fail = fmt.Sprintf("cerrors.ParameterConversionFailed(%s, err)", strconv.Quote(p.Field))
		if p.Required && !p.Type.IsPrimitive() {
			a.SetVar = "set" + p.Field
			tc.Required = append(tc.Required, TemplateRequired{SetVar: a.SetVar, Field: p.Field})
		}
		tc.Params = append(tc.Params, TemplateParam{
			Assignment:  a,
			Index:       p.Index,
			Description: p.Description,
			Required:    p.Required,
		})
	}

	return tc, nil
}

var parseFuncs = map[convert.Type]string{
	convert.TypeInt32:   "ParseInt32",
	convert.TypeInt64:   "ParseInt64",
	convert.TypeFloat32: "ParseFloat32",
	convert.TypeFloat64: "ParseFloat64",
}

// assignment decides how a field is converted. Only predeclared field types
// are assigned directly; everything else goes through convert.Into.
func assignment(t *extract.Target, field string, typ convert.Type, converter string, flag bool) (Assignment, error) {
	goType := t.GoTypes[field]
	a := Assignment{
		Field:         field,
		ConverterName: converter,
		TypeConst:     "Type" + typeConstSuffix(typ),
	}

	if flag {
		if goType != "bool" {
			return a, NewValidationError(
				fmt.Sprintf("field is %s but its option takes no value", goType), t.TypeName, field, t.File)
		}
		a.Kind = "flag"
		return a, nil
	}
	if converter != "" {
		a.Kind = "named"
		return a, nil
	}
	if typ != convert.TypeCustom && extract.TypeOf(goType) != typ {
		return a, NewValidationError(
			fmt.Sprintf("field has type %s, which cannot hold %s", goType, typ), t.TypeName, field, t.File)
	}

	switch typ {
	case convert.TypeString:
		a.Kind = "string"
	case convert.TypeBool:
		a.Kind = "bool"
	case convert.TypeCustom:
		a.Kind = "custom"
	default:
		a.Kind = "number"
		a.ParseFunc = parseFuncs[typ]
		a.Expr = "v"
		if goType != typ.String() {
			a.Expr = goType + "(v)"
		}
	}
	return a, nil
}

// typeConstSuffix names the convert.Type constant for typ.
func typeConstSuffix(typ convert.Type) string {
	s := typ.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// GenerateGo renders the parsers of one package as formatted Go source.
func GenerateGo(pkg string, targets []*extract.Target) ([]byte, error) {
	data, err := PreprocessTargets(pkg, targets)
	if err != nil {
		return nil, err
	}
	return render(data, NewTemplateRegistry().GetAllTemplates(), "main")
}

// GenerateGoWithTemplate renders the package with a custom template (for testing)
func GenerateGoWithTemplate(pkg string, targets []*extract.Target, templateStr string) (string, error) {
	if len(strings.TrimSpace(templateStr)) == 0 {
		return "", fmt.Errorf("template string cannot be empty")
	}

	data, err := PreprocessTargets(pkg, targets)
	if err != nil {
		return "", err
	}

	components, err := template.New("components").Funcs(funcs).Parse(NewTemplateRegistry().GetAllTemplates())
	if err != nil {
		return "", NewTemplateError(err.Error(), "components")
	}
	tmpl, err := components.New("custom").Parse(templateStr)
	if err != nil {
		return "", NewTemplateError(err.Error(), "custom")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewTemplateError(err.Error(), "custom")
	}
	return buf.String(), nil
}

// GetTemplateComponent returns a specific template component by name
func GetTemplateComponent(name string) (string, error) {
	registry := NewTemplateRegistry()
	template, exists := registry.GetTemplate(name)
	if !exists {
		return "", fmt.Errorf("template component '%s' not found", name)
	}
	return template, nil
}

func render(data *TemplateData, templates, name string) ([]byte, error) {
	tmpl, err := template.New("cligen").Funcs(funcs).Parse(templates)
	if err != nil {
		return nil, NewTemplateError(err.Error(), name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, NewTemplateError(err.Error(), name)
	}
	if buf.Len() == 0 {
		return nil, NewTemplateError("generated empty Go code", name)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, NewFormatError(err, buf.Bytes())
	}
	return src, nil
}
