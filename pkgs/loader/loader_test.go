package loader

import (
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/cligen/pkgs/convert"
	"github.com/aledsdavies/cligen/pkgs/descriptor"
	cerrors "github.com/aledsdavies/cligen/pkgs/errors"
)

var migrateYAML = heredoc.Doc(`
	commands:
	  - name: migrate
	    description: Database migration utility
	    version: 1.0.0
	    standardHelp: true
	    options:
	      - field: dbHost
	        names: ["-H", "--host"]
	        description: Database host
	        required: true
	      - field: dbPort
	        names: ["--port"]
	        type: int32
	        default: "5432"
	      - field: timeout
	        names: ["--timeout"]
	        type: custom
	        converter: duration
	    parameters:
	      - field: command
	        index: 0
	      - field: targetVersion
	        index: 1
	        required: false
	  - name: status
`)

var migrateJSON = heredoc.Doc(`
	{
	  "commands": [
	    {
	      "name": "migrate",
	      "description": "Database migration utility",
	      "version": "1.0.0",
	      "standardHelp": true,
	      "options": [
	        {"field": "dbHost", "names": ["-H", "--host"], "description": "Database host", "required": true},
	        {"field": "dbPort", "names": ["--port"], "type": "int32", "default": "5432"},
	        {"field": "timeout", "names": ["--timeout"], "type": "custom", "converter": "duration"}
	      ],
	      "parameters": [
	        {"field": "command", "index": 0},
	        {"field": "targetVersion", "index": 1, "required": false}
	      ]
	    },
	    {"name": "status"}
	  ]
	}
`)

var migrateHCL = heredoc.Doc(`
	command "migrate" {
	  description   = "Database migration utility"
	  version       = "1.0.0"
	  standard_help = true

	  option "dbHost" {
	    names       = ["-H", "--host"]
	    description = "Database host"
	    required    = true
	  }

	  option "dbPort" {
	    names   = ["--port"]
	    type    = "int32"
	    default = "5432"
	  }

	  option "timeout" {
	    names     = ["--timeout"]
	    type      = "custom"
	    converter = "duration"
	  }

	  parameter "command" {
	    index = 0
	  }

	  parameter "targetVersion" {
	    index    = 1
	    required = false
	  }
	}

	command "status" {}
`)

func wantDescriptors() []*descriptor.Command {
	return []*descriptor.Command{
		{
			Name:         "migrate",
			Description:  "Database migration utility",
			Version:      "1.0.0",
			StandardHelp: true,
			Options: []descriptor.Option{
				{Field: "dbHost", Aliases: []string{"-H", "--host"}, Description: "Database host", Required: true, Type: convert.TypeString},
				{Field: "dbPort", Aliases: []string{"--port"}, DefaultValue: "5432", Type: convert.TypeInt32},
				{Field: "timeout", Aliases: []string{"--timeout"}, Type: convert.TypeCustom, ConverterName: "duration"},
			},
			Parameters: []descriptor.Parameter{
				{Field: "command", Index: 0, Required: true, Type: convert.TypeString},
				{Field: "targetVersion", Index: 1, Type: convert.TypeString},
			},
		},
		{Name: "status"},
	}
}

var ignoreConverter = cmpopts.IgnoreFields(descriptor.Option{}, "Converter")

func TestLoadFormats(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"cli.yaml": migrateYAML,
		"cli.yml":  migrateYAML,
		"cli.json": migrateJSON,
		"cli.hcl":  migrateHCL,
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	for name := range files {
		t.Run(name, func(t *testing.T) {
			cmds, err := Load(fs, name)
			require.NoError(t, err)
			if diff := cmp.Diff(wantDescriptors(), cmds, ignoreConverter, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("descriptors mismatch (-want +got):\n%s", diff)
			}
			require.NotNil(t, cmds[0].Options[2].Converter, "converter names are resolved")
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errType string
		want    string
	}{
		{"unknown extension", "cli.toml", "", cerrors.ErrFileParse, "unsupported descriptor file"},
		{"bad yaml", "cli.yaml", "commands: [", cerrors.ErrFileParse, "failed to parse cli.yaml"},
		{"schema: missing names", "cli.yaml", "commands:\n  - name: a\n    options:\n      - field: x\n", cerrors.ErrFileParse, "schema validation failed"},
		{"schema: unknown key", "cli.json", `{"commands": [{"name": "a", "colour": "blue"}]}`, cerrors.ErrFileParse, "schema validation failed"},
		{"schema: bad version", "cli.json", `{"commands": [{"name": "a", "version": "one"}]}`, cerrors.ErrFileParse, "schema validation failed"},
		{"schema: negative index", "cli.yaml", "commands:\n  - name: a\n    parameters:\n      - {field: x, index: -1}\n", cerrors.ErrFileParse, "schema validation failed"},
		{"bad hcl", "cli.hcl", "command {", cerrors.ErrFileParse, "failed to parse cli.hcl"},
		{"hcl missing names", "cli.hcl", "command \"a\" {\n  option \"x\" {}\n}\n", cerrors.ErrFileParse, "names"},
		{"duplicate command", "cli.yaml", "commands:\n  - name: a\n  - name: a\n", cerrors.ErrDescriptorInvalid, "declared more than once"},
		{"shared alias", "cli.yaml", "commands:\n  - name: a\n    options:\n      - {field: x, names: [-x]}\n      - {field: y, names: [-x]}\n", cerrors.ErrDescriptorInvalid, "name -x is declared by both x and y"},
		{"unknown converter", "cli.yaml", "commands:\n  - name: a\n    options:\n      - {field: x, names: [-x], type: custom, converter: nope}\n", cerrors.ErrDescriptorInvalid, `unknown converter "nope"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, tt.file, []byte(tt.content), 0o644))

			_, err := Load(fs, tt.file)
			require.Error(t, err)
			assert.True(t, cerrors.IsErrorType(err, tt.errType), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "absent.yaml")
	require.Error(t, err)
	assert.True(t, cerrors.IsErrorType(err, cerrors.ErrFileNotFound))
}

func TestWithRegistry(t *testing.T) {
	r := convert.NewRegistry()
	r.Register("level", convert.Func(func(raw string) (any, error) { return raw, nil }))

	data := []byte("commands:\n  - name: a\n    options:\n      - {field: x, names: [-x], type: custom, converter: level}\n")
	_, err := Parse(FormatYAML, "a.yaml", data)
	assert.Error(t, err)

	cmds, err := Parse(FormatYAML, "a.yaml", data, WithRegistry(r))
	require.NoError(t, err)
	assert.NotNil(t, cmds[0].Options[0].Converter)
}

func TestMarshalRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatJSON, FormatHCL} {
		t.Run(format.String(), func(t *testing.T) {
			out, err := Marshal(format, wantDescriptors())
			require.NoError(t, err)

			cmds, err := Parse(format, "roundtrip."+format.String(), out)
			require.NoError(t, err, "output:\n%s", out)
			if diff := cmp.Diff(wantDescriptors(), cmds, ignoreConverter, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormats(t *testing.T) {
	f, err := FormatOf("dir/cli.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = FormatOf("Makefile")
	assert.Error(t, err)

	assert.True(t, IsDescriptorFile("x.hcl"))
	assert.False(t, IsDescriptorFile("x.go"))
	assert.Equal(t, "Format(9)", Format(9).String())
}

func TestSchemaIsExposed(t *testing.T) {
	assert.Contains(t, Schema(), `"commands"`)
	assert.Contains(t, Schema(), "2020-12")
}

func TestValidateGenericDocument(t *testing.T) {
	require.NoError(t, validate([]byte(`{"commands": [{"name": "a", "parameters": [{"field": "x", "index": 1}]}]}`)))

	err := validate([]byte(`{"commands": [{"name": 7}]}`))
	assert.ErrorContains(t, err, "schema validation failed")

	assert.Error(t, validate([]byte(`{"commands": [`)))
}
