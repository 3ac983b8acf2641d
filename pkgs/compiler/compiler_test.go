package compiler

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/cligen/pkgs/convert"
	"github.com/aledsdavies/cligen/pkgs/descriptor"
	cerrors "github.com/aledsdavies/cligen/pkgs/errors"
)

func migrateDescriptor() *descriptor.Command {
	return &descriptor.Command{
		Name:        "migrate",
		Description: "Database migration utility",
		Version:     "1.0.0",
		Options: []descriptor.Option{
			{Field: "dbHost", Aliases: []string{"-H", "--host"}, Description: "Database host", Required: true, Type: convert.TypeString},
			{Field: "dbUser", Aliases: []string{"-U", "--user"}, Description: "Database user", Required: true, Type: convert.TypeString},
			{Field: "dbPassword", Aliases: []string{"-P", "--password"}, Description: "Database password", Type: convert.TypeString},
			{Field: "dbPort", Aliases: []string{"--port"}, Description: "Database port", DefaultValue: "5432", Type: convert.TypeInt32},
			{Field: "dryRun", Aliases: []string{"--dry-run"}, Description: "Show what would be done", Arity: "0", Type: convert.TypeBool},
		},
		Parameters: []descriptor.Parameter{
			{Field: "command", Index: 0, Description: "Migration command (up, down, status)", Type: convert.TypeString},
			{Field: "targetVersion", Index: 1, Description: "Target version", Type: convert.TypeString},
		},
	}
}

type migrateConfig struct {
	DBHost        string
	DBUser        string
	DBPassword    string
	DBPort        int
	DryRun        bool
	Command       string
	TargetVersion string
}

func TestFlagSetsTrueAndConsumesOneToken(t *testing.T) {
	desc := &descriptor.Command{
		Name: "tool",
		Options: []descriptor.Option{
			{Field: "verbose", Aliases: []string{"-v", "--verbose"}, Arity: "0", Type: convert.TypeBool},
		},
		Parameters: []descriptor.Parameter{
			{Field: "target", Index: 0, Type: convert.TypeString},
		},
	}
	p, err := Compile[*Values](desc)
	require.NoError(t, err)

	res, err := p.Parse([]string{"-v", "build"})
	require.NoError(t, err)
	assert.True(t, res.Command.Bool("verbose"))
	assert.Equal(t, "build", res.Command.String("target"), "flag must not consume the following token")
	assert.Empty(t, res.Remainder)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		kind   string
		want   string
	}{
		{"missing value", []string{"-H", "db", "-U"}, cerrors.ErrMissingValue, "Option -U requires an argument"},
		{"unknown option", []string{"--bogus"}, cerrors.ErrUnknownOption, "Unknown option: --bogus"},
		{"double dash is unknown", []string{"--"}, cerrors.ErrUnknownOption, "Unknown option: --"},
		{"lone dash is unknown", []string{"-H", "db", "-"}, cerrors.ErrUnknownOption, "Unknown option: -"},
		{"attached value is unknown", []string{"--port=5432"}, cerrors.ErrUnknownOption, "Unknown option: --port=5432"},
		{"bad int", []string{"-H", "db", "-U", "u", "--port", "abc"}, cerrors.ErrConversionFailed, "Failed to convert option --port: "},
		{"required option", []string{"-U", "u"}, cerrors.ErrMissingRequired, "Required option not provided: -H"},
		{"required options in declaration order", []string{}, cerrors.ErrMissingRequired, "Required option not provided: -H"},
	}

	p, err := Compile[*Values](migrateDescriptor())
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.Parse(tt.tokens)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, cerrors.IsKind(err, tt.kind), "kind of %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConversionFailureKeepsCause(t *testing.T) {
	p, err := Compile[*Values](migrateDescriptor())
	require.NoError(t, err)

	_, err = p.Parse([]string{"--port", "x"})
	var ne *strconv.NumError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "x", ne.Num)
}

func TestValueOptionTakesDashedToken(t *testing.T) {
	p, err := Compile[*Values](migrateDescriptor())
	require.NoError(t, err)

	res, err := p.Parse([]string{"-H", "db", "-U", "u", "-P", "--secret--"})
	require.NoError(t, err)
	assert.Equal(t, "--secret--", res.Command.String("dbPassword"))
}

func TestRequiredPrimitiveIsNotChecked(t *testing.T) {
	desc := &descriptor.Command{
		Name: "count",
		Options: []descriptor.Option{
			{Field: "n", Aliases: []string{"-n"}, Required: true, Type: convert.TypeInt32},
		},
	}
	p, err := Compile[*Values](desc)
	require.NoError(t, err)

	res, err := p.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, int32(0), res.Command.Int32("n"))
	assert.False(t, res.Command.IsSet("n"))
}

func TestRequiredParameter(t *testing.T) {
	desc := &descriptor.Command{
		Name: "cat",
		Options: []descriptor.Option{
			{Field: "out", Aliases: []string{"-o"}, Required: true, Type: convert.TypeString},
		},
		Parameters: []descriptor.Parameter{
			{Field: "file", Index: 0, Required: true, Type: convert.TypeString},
		},
	}
	p, err := Compile[*Values](desc)
	require.NoError(t, err)

	_, err = p.Parse([]string{"-o", "x"})
	assert.EqualError(t, err, "Required parameter not provided: file")

	_, err = p.Parse(nil)
	assert.EqualError(t, err, "Required option not provided: -o", "options are checked before parameters")
}

func TestPositionalOverflowGoesToRemainder(t *testing.T) {
	desc := &descriptor.Command{
		Name: "echo",
		Parameters: []descriptor.Parameter{
			{Field: "param0", Index: 0, Type: convert.TypeString},
		},
	}
	p, err := Compile[*Values](desc)
	require.NoError(t, err)

	res, err := p.Parse([]string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, "a", res.Command.String("param0"))
	if diff := cmp.Diff([]string{"b", "c"}, res.Remainder); diff != "" {
		t.Errorf("remainder mismatch (-want +got):\n%s", diff)
	}
}

func TestRemainderIsNeverNil(t *testing.T) {
	p, err := Compile[*Values](&descriptor.Command{Name: "noop"})
	require.NoError(t, err)

	res, err := p.Parse(nil)
	require.NoError(t, err)
	assert.NotNil(t, res.Remainder)
	assert.Empty(t, res.Remainder)
}

func TestGapInIndicesSendsTokenToRemainder(t *testing.T) {
	desc := &descriptor.Command{
		Name: "gap",
		Parameters: []descriptor.Parameter{
			{Field: "first", Index: 0, Type: convert.TypeString},
			{Field: "third", Index: 2, Type: convert.TypeString},
		},
	}
	p, err := Compile[*Values](desc)
	require.NoError(t, err)

	res, err := p.Parse([]string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, "a", res.Command.String("first"))
	assert.Equal(t, "c", res.Command.String("third"))
	assert.Equal(t, []string{"b"}, res.Remainder)
}

func TestParameterConversion(t *testing.T) {
	desc := &descriptor.Command{
		Name: "sleep",
		Parameters: []descriptor.Parameter{
			{Field: "seconds", Index: 0, Type: convert.TypeFloat64},
		},
	}
	p, err := Compile[*Values](desc)
	require.NoError(t, err)

	res, err := p.Parse([]string{"1.5"})
	require.NoError(t, err)
	assert.Equal(t, 1.5, res.Command.Float64("seconds"))

	_, err = p.Parse([]string{"soon"})
	require.Error(t, err)
	assert.True(t, cerrors.IsKind(err, cerrors.ErrConversionFailed))
	assert.Contains(t, err.Error(), "Failed to convert parameter seconds: ")
}

func TestLastOccurrenceWins(t *testing.T) {
	p, err := Compile[*Values](migrateDescriptor())
	require.NoError(t, err)

	res, err := p.Parse([]string{"-H", "a", "--host", "b", "-U", "u"})
	require.NoError(t, err)
	assert.Equal(t, "b", res.Command.String("dbHost"))
}

func TestEmptyArityConsumesValue(t *testing.T) {
	desc := &descriptor.Command{
		Name: "toggle",
		Options: []descriptor.Option{
			{Field: "enabled", Aliases: []string{"--enabled"}, Type: convert.TypeBool},
		},
	}
	p, err := Compile[*Values](desc)
	require.NoError(t, err)

	res, err := p.Parse([]string{"--enabled", "TRUE"})
	require.NoError(t, err)
	assert.True(t, res.Command.Bool("enabled"))

	_, err = p.Parse([]string{"--enabled"})
	assert.EqualError(t, err, "Option --enabled requires an argument")
}

func TestCustomConverter(t *testing.T) {
	failing := errors.New("not a level")
	level := convert.Func(func(raw string) (any, error) {
		switch raw {
		case "low", "high":
			return raw, nil
		}
		return nil, failing
	})

	desc := &descriptor.Command{
		Name: "serve",
		Options: []descriptor.Option{
			{Field: "timeout", Aliases: []string{"--timeout"}, Type: convert.TypeCustom, ConverterName: "duration"},
			{Field: "level", Aliases: []string{"--level"}, Type: convert.TypeCustom, Converter: level, Required: true},
		},
	}
	p, err := Compile[*Values](desc)
	require.NoError(t, err)

	res, err := p.Parse([]string{"--timeout", "2s", "--level", "high"})
	require.NoError(t, err)
	d, err := Value[time.Duration](res.Command, "timeout")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)

	_, err = p.Parse([]string{"--level", "max"})
	require.ErrorIs(t, err, failing)
	assert.EqualError(t, err, "Failed to convert option --level: not a level")

	_, err = p.Parse(nil)
	assert.EqualError(t, err, "Required option not provided: --level")
}

func TestUnknownConverterNameFailsCompile(t *testing.T) {
	desc := &descriptor.Command{
		Name: "serve",
		Options: []descriptor.Option{
			{Field: "timeout", Aliases: []string{"--timeout"}, Type: convert.TypeCustom, ConverterName: "eventually"},
		},
	}
	_, err := Compile[*Values](desc)
	require.Error(t, err)
	assert.True(t, cerrors.IsErrorType(err, cerrors.ErrDescriptorInvalid))

	r := convert.NewRegistry()
	r.Register("eventually", convert.Func(func(raw string) (any, error) { return raw, nil }))
	_, err = Compile[*Values](desc, WithRegistry(r))
	assert.NoError(t, err)
}

func TestInvalidDescriptorFailsCompile(t *testing.T) {
	desc := migrateDescriptor()
	desc.Options[1].Aliases = []string{"--host"}

	_, err := Compile[*Values](desc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name --host is declared by both dbHost and dbUser")
}

func TestStructTarget(t *testing.T) {
	p, err := Compile[migrateConfig](migrateDescriptor())
	require.NoError(t, err)

	res, err := p.Parse([]string{"-H", "db.local", "-U", "admin", "--port", "6543", "--dry-run", "up", "42", "extra"})
	require.NoError(t, err)

	want := migrateConfig{
		DBHost:        "db.local",
		DBUser:        "admin",
		DBPort:        6543,
		DryRun:        true,
		Command:       "up",
		TargetVersion: "42",
	}
	if diff := cmp.Diff(want, res.Command); diff != "" {
		t.Errorf("command mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"extra"}, res.Remainder)
}

func TestPointerStructTarget(t *testing.T) {
	type serve struct {
		Timeout time.Duration
		Name    *string
	}
	desc := &descriptor.Command{
		Name: "serve",
		Options: []descriptor.Option{
			{Field: "Timeout", Aliases: []string{"-t"}, Type: convert.TypeCustom, ConverterName: "duration"},
			{Field: "Name", Aliases: []string{"-n"}, Type: convert.TypeString},
		},
	}
	p, err := Compile[*serve](desc)
	require.NoError(t, err)

	res, err := p.Parse([]string{"-t", "1m", "-n", "api"})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, res.Command.Timeout)
	require.NotNil(t, res.Command.Name)
	assert.Equal(t, "api", *res.Command.Name)

	// Each parse starts from a fresh value.
	res2, err := p.Parse(nil)
	require.NoError(t, err)
	assert.Zero(t, res2.Command.Timeout)
	assert.Nil(t, res2.Command.Name)
}

func TestStructBindingErrors(t *testing.T) {
	type flags struct {
		Verbose int
		hidden  string
		Wait    time.Duration
	}
	tests := []struct {
		name string
		opt  descriptor.Option
		want string
	}{
		{"missing field", descriptor.Option{Field: "Absent", Aliases: []string{"-a"}}, "has no field Absent"},
		{"unexported", descriptor.Option{Field: "hidden", Aliases: []string{"-x"}}, "is not exported"},
		{"flag on non-bool", descriptor.Option{Field: "Verbose", Aliases: []string{"-v"}, Arity: "0", Type: convert.TypeBool}, "takes no value"},
		{"custom without converter", descriptor.Option{Field: "Wait", Aliases: []string{"-w"}, Type: convert.TypeCustom}, "needs a converter"},
		{"type mismatch", descriptor.Option{Field: "Verbose", Aliases: []string{"-v"}, Type: convert.TypeFloat64}, "cannot hold float64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := &descriptor.Command{Name: "x", Options: []descriptor.Option{tt.opt}}
			_, err := Compile[flags](desc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Compile[int](&descriptor.Command{Name: "x"})
	assert.ErrorContains(t, err, "target must be *compiler.Values or a struct")
}

func TestConverterOutputMismatchIsConversionError(t *testing.T) {
	type cfg struct{ Port int }
	desc := &descriptor.Command{
		Name: "x",
		Options: []descriptor.Option{
			{Field: "Port", Aliases: []string{"-p"}, Type: convert.TypeCustom,
				Converter: convert.Func(func(raw string) (any, error) { return raw, nil })},
		},
	}
	p, err := Compile[cfg](desc)
	require.NoError(t, err)

	_, err = p.Parse([]string{"-p", "80"})
	assert.EqualError(t, err, "Failed to convert option -p: cannot assign string to int")
}

func TestValuesRecord(t *testing.T) {
	p, err := Compile[*Values](migrateDescriptor())
	require.NoError(t, err)

	res, err := p.Parse([]string{"-H", "h", "-U", "u", "up"})
	require.NoError(t, err)
	v := res.Command

	assert.Equal(t, []string{"dbHost", "dbUser", "dbPassword", "dbPort", "dryRun", "command", "targetVersion"}, v.Fields())
	assert.True(t, v.IsSet("dbHost"))
	assert.False(t, v.IsSet("dbPassword"))
	assert.False(t, v.IsSet("nope"))

	got, ok := v.Get("dbPort")
	require.True(t, ok)
	assert.Equal(t, int32(0), got)

	_, ok = v.Get("nope")
	assert.False(t, ok)

	assert.Equal(t, map[string]any{
		"dbHost": "h", "dbUser": "u", "dbPassword": "", "dbPort": int32(0),
		"dryRun": false, "command": "up", "targetVersion": "",
	}, v.Map())

	_, err = Value[int64](v, "dbPort")
	assert.EqualError(t, err, "field dbPort holds int32, not int64")
	_, err = Value[string](v, "nope")
	assert.EqualError(t, err, "no field nope")

	assert.Equal(t, "h", v.String("dbHost"))
	assert.Equal(t, int32(0), v.Int32("dbPort"))
	assert.False(t, v.Bool("dryRun"))
	assert.Zero(t, v.Int64("dbPort"), "int32 slot read as int64")
	assert.Zero(t, v.Float64("nope"))
	assert.Empty(t, v.String("dbPort"))
}

func TestIdempotentCompilation(t *testing.T) {
	a, err := Compile[*Values](migrateDescriptor())
	require.NoError(t, err)
	b, err := Compile[*Values](migrateDescriptor())
	require.NoError(t, err)

	assert.Equal(t, a.HelpText(), b.HelpText())

	inputs := [][]string{
		{"-H", "h", "-U", "u", "--port", "1", "up"},
		{"-U", "u"},
		{"--weird"},
		{"-H", "h", "-U", "u", "a", "b", "c"},
	}
	for _, in := range inputs {
		ra, ea := a.Parse(in)
		rb, eb := b.Parse(in)
		if ea != nil || eb != nil {
			require.Error(t, ea)
			require.Error(t, eb)
			assert.Equal(t, ea.Error(), eb.Error())
			continue
		}
		assert.Equal(t, ra.Command.Map(), rb.Command.Map())
		assert.Equal(t, ra.Remainder, rb.Remainder)
	}
}

func TestParseArgsErasesType(t *testing.T) {
	var cp CommandParser = MustCompile[migrateConfig](migrateDescriptor())

	res, err := cp.ParseArgs([]string{"-H", "h", "-U", "u"})
	require.NoError(t, err)
	cfg, ok := res.Command.(migrateConfig)
	require.True(t, ok)
	assert.Equal(t, "h", cfg.DBHost)

	_, err = cp.ParseArgs([]string{"--nope"})
	assert.EqualError(t, err, "Unknown option: --nope")
}

func TestMustCompilePanicsOnInvalidDescriptor(t *testing.T) {
	assert.Panics(t, func() {
		MustCompile[*Values](&descriptor.Command{Name: ""})
	})
	assert.Panics(t, func() {
		_, _ = Compile[*Values](nil)
	})
}

func TestCompileAll(t *testing.T) {
	descs := []*descriptor.Command{
		migrateDescriptor(),
		{Name: "status", Description: "Show status"},
		{Name: "version"},
	}
	parsers, err := CompileAll[*Values](descs)
	require.NoError(t, err)
	require.Len(t, parsers, 3)
	for i, p := range parsers {
		assert.Same(t, descs[i], p.Descriptor())
	}

	descs = append(descs, &descriptor.Command{Name: " "})
	_, err = CompileAll[*Values](descs)
	assert.Error(t, err)
}

func TestConcurrentParse(t *testing.T) {
	p := MustCompile[*Values](migrateDescriptor())

	done := make(chan *Values)
	for i := 0; i < 16; i++ {
		go func(i int) {
			res, err := p.Parse([]string{"-H", strconv.Itoa(i), "-U", "u"})
			if err != nil {
				done <- nil
				return
			}
			done <- res.Command
		}(i)
	}
	seen := make(map[string]bool)
	for i := 0; i < 16; i++ {
		v := <-done
		require.NotNil(t, v)
		seen[v.String("dbHost")] = true
	}
	assert.Len(t, seen, 16)
}
