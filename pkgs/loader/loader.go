// Package loader reads command descriptors from YAML, JSON and HCL files.
// YAML and JSON documents are checked against an embedded JSON Schema
// before decoding; every loaded descriptor is validated structurally.
package loader

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/afero"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/aledsdavies/cligen/pkgs/convert"
	"github.com/aledsdavies/cligen/pkgs/descriptor"
	cerrors "github.com/aledsdavies/cligen/pkgs/errors"
)

// Format is a descriptor file format.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
	FormatHCL
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatHCL:
		return "hcl"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat maps a format name as accepted on the command line.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "hcl":
		return FormatHCL, nil
	}
	return 0, fmt.Errorf("unknown format %q", name)
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return 0, fmt.Errorf("%s has no extension", path)
	}
	return ParseFormat(ext)
}

// IsDescriptorFile reports whether path has a descriptor file extension.
func IsDescriptorFile(path string) bool {
	_, err := FormatOf(path)
	return err == nil
}

//go:embed schema.json
var schemaJSON string

var schema = mustCompileSchema()

// Schema returns the JSON Schema YAML and JSON descriptor files are
// validated against.
func Schema() string { return schemaJSON }

func mustCompileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	c.Formats = map[string]func(any) bool{
		"semver": func(v any) bool {
			s, ok := v.(string)
			if !ok {
				return true
			}
			if !strings.HasPrefix(s, "v") {
				s = "v" + s
			}
			return semver.IsValid(s)
		},
	}
	const url = "schema://cligen.json"
	if err := c.AddResource(url, strings.NewReader(schemaJSON)); err != nil {
		panic(err)
	}
	return c.MustCompile(url)
}

// Option configures loading.
type Option func(*config)

type config struct {
	registry *convert.Registry
}

// WithRegistry resolves converter names against r. Without it names are
// resolved against the default registry.
func WithRegistry(r *convert.Registry) Option {
	return func(c *config) { c.registry = r }
}

// Load reads and decodes the descriptor file at path.
func Load(fs afero.Fs, path string, opts ...Option) ([]*descriptor.Command, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrFileParse, "unsupported descriptor file", err).
			WithContext("file", path)
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, cerrors.NewInputError(path, err)
	}
	return Parse(format, path, data, opts...)
}

// Parse decodes data in the given format. name is used in error messages.
func Parse(format Format, name string, data []byte, opts ...Option) ([]*descriptor.Command, error) {
	cfg := config{registry: convert.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		model *fileModel
		err   error
	)
	switch format {
	case FormatYAML:
		model, err = decodeYAML(data)
	case FormatJSON:
		model, err = decodeJSON(data)
	case FormatHCL:
		model, err = decodeHCL(name, data)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, cerrors.NewFileParseError(name, err)
	}

	cmds, err := model.descriptors()
	if err != nil {
		return nil, cerrors.NewFileParseError(name, err)
	}

	seen := make(map[string]bool, len(cmds))
	for _, cmd := range cmds {
		if seen[cmd.Name] {
			return nil, cerrors.NewDescriptorError(cmd.Name, "declared more than once").
				WithContext("file", name)
		}
		seen[cmd.Name] = true

		if err := cmd.Validate(); err != nil {
			return nil, err
		}
		if err := cmd.ResolveConverters(cfg.registry); err != nil {
			return nil, err
		}
	}
	return cmds, nil
}

func decodeYAML(data []byte) (*fileModel, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	// Round trip through JSON so the schema sees JSON types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("yaml document is not representable as JSON: %w", err)
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var m fileModel
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func decodeJSON(data []byte) (*fileModel, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	var m fileModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// validate checks a JSON document against the descriptor schema. The
// validator works on the generic decoding: maps, slices, float64 numbers.
func validate(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func decodeHCL(name string, data []byte) (*fileModel, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, diags
	}
	var m fileModel
	if diags := gohcl.DecodeBody(file.Body, nil, &m); diags.HasErrors() {
		return nil, diags
	}
	return &m, nil
}

// Marshal encodes cmds in the given format. The output loads back into
// equal descriptors, converter values aside.
func Marshal(format Format, cmds []*descriptor.Command) ([]byte, error) {
	m := modelOf(cmds)
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		out, err := json.Marshal(m, json.Deterministic(true), jsontext.WithIndent("  "))
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case FormatHCL:
		f := hclwrite.NewEmptyFile()
		gohcl.EncodeIntoBody(m, f.Body())
		return f.Bytes(), nil
	}
	return nil, fmt.Errorf("unsupported format %s", format)
}
