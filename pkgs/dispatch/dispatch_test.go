package dispatch

import (
	"bytes"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/cligen/pkgs/compiler"
	"github.com/aledsdavies/cligen/pkgs/convert"
	"github.com/aledsdavies/cligen/pkgs/descriptor"
	cerrors "github.com/aledsdavies/cligen/pkgs/errors"
)

func migrate() *descriptor.Command {
	return &descriptor.Command{
		Name:         "migrate",
		Description:  "Database migration utility",
		StandardHelp: true,
		Options: []descriptor.Option{
			{Field: "dbHost", Aliases: []string{"-H", "--host"}, Description: "Database host", Required: true, Type: convert.TypeString},
			{Field: "dryRun", Aliases: []string{"--dry-run"}, Description: "Dry run", Arity: "0", Type: convert.TypeBool},
		},
		Parameters: []descriptor.Parameter{
			{Field: "command", Index: 0, Description: "Migration command", Type: convert.TypeString},
		},
	}
}

func serve() *descriptor.Command {
	return &descriptor.Command{
		Name:        "serve",
		Description: "Run the server",
		Options: []descriptor.Option{
			{Field: "port", Aliases: []string{"-p", "--port"}, Type: convert.TypeInt32},
			{Field: "help", Aliases: []string{"-h"}, Arity: "0", Type: convert.TypeBool},
		},
	}
}

func newDispatcher(t *testing.T) (*Dispatcher, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	d := New("MyApp", "2.1.0", WithOutput(&out))
	require.NoError(t, d.RegisterDescriptors([]*descriptor.Command{migrate(), serve()}))
	return d, &out
}

func TestDispatchForwardsToCommand(t *testing.T) {
	d, out := newDispatcher(t)

	res, err := d.Dispatch([]string{"migrate", "-H", "db", "--dry-run", "up", "extra"})
	require.NoError(t, err)

	v, ok := res.Command.(*compiler.Values)
	require.True(t, ok)
	assert.Equal(t, "db", v.String("dbHost"))
	assert.True(t, v.Bool("dryRun"))
	assert.Equal(t, "up", v.String("command"))
	assert.Equal(t, []string{"extra"}, res.Remainder)
	assert.Empty(t, out.String())
}

func TestDispatchPropagatesParseErrors(t *testing.T) {
	d, _ := newDispatcher(t)

	_, err := d.Dispatch([]string{"migrate", "up"})
	assert.EqualError(t, err, "Required option not provided: -H")

	_, err = d.Dispatch([]string{"serve", "--bogus"})
	assert.EqualError(t, err, "Unknown option: --bogus")
}

func TestDispatchNoCommand(t *testing.T) {
	d, _ := newDispatcher(t)

	_, err := d.Dispatch(nil)
	assert.EqualError(t, err, "No command specified. Use --help for available commands.")
	assert.True(t, cerrors.IsKind(err, cerrors.ErrNoCommand))
}

func TestDispatchUnknownCommandSuggests(t *testing.T) {
	d, _ := newDispatcher(t)

	_, err := d.Dispatch([]string{"migrat"})
	require.Error(t, err)
	assert.Equal(t, "Unknown command: migrat. Use --help for available commands.", err.Error())

	var pe *cerrors.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, cerrors.ErrUnknownCommand, pe.Kind)
	assert.Equal(t, []string{"migrate"}, pe.Suggestions)

	_, err = d.Dispatch([]string{"zzzzzzzz"})
	require.ErrorAs(t, err, &pe)
	assert.Empty(t, pe.Suggestions)
}

func TestGlobalHelp(t *testing.T) {
	want := heredoc.Doc(`
		MyApp - CLI Application
		Version: 2.1.0

		Usage: myapp <command> [options]

		Commands:
		  migrate
		  serve

		Global Options:
		  --help, -h     Show this help message
		  --version      Show version information

		Use 'myapp <command> --help' for command-specific help
	`)

	for _, token := range []string{"--help", "-h", "help"} {
		t.Run(token, func(t *testing.T) {
			d, out := newDispatcher(t)
			res, err := d.Dispatch([]string{token, "ignored"})
			assert.Nil(t, res)
			require.ErrorIs(t, err, ErrHelpShown)
			if diff := cmp.Diff(want, out.String()); diff != "" {
				t.Errorf("global help mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	for _, token := range []string{"--version", "-v", "version"} {
		t.Run(token, func(t *testing.T) {
			d, out := newDispatcher(t)
			_, err := d.Dispatch([]string{token})
			require.ErrorIs(t, err, ErrHelpShown)
			assert.Equal(t, "MyApp version 2.1.0\n", out.String())
		})
	}
}

func TestStandardHelp(t *testing.T) {
	d, out := newDispatcher(t)

	_, err := d.Dispatch([]string{"migrate", "--help"})
	require.ErrorIs(t, err, ErrHelpShown)
	help, ok := d.CommandHelp("migrate")
	require.True(t, ok)
	assert.Equal(t, help, out.String())

	// Only the first forwarded token triggers help.
	_, err = d.Dispatch([]string{"migrate", "-H", "x", "--help"})
	assert.EqualError(t, err, "Unknown option: --help")
}

func TestHelpAliasClaimedByOption(t *testing.T) {
	d, out := newDispatcher(t)

	res, err := d.Dispatch([]string{"serve", "-h"})
	require.NoError(t, err)
	assert.True(t, res.Command.(*compiler.Values).Bool("help"))
	assert.Empty(t, out.String())

	_, err = d.Dispatch([]string{"serve", "--help"})
	assert.EqualError(t, err, "Unknown option: --help", "serve does not opt into standard help")
}

func TestDispatchLine(t *testing.T) {
	d, _ := newDispatcher(t)

	res, err := d.DispatchLine(`migrate --host "db one" 'up now'`)
	require.NoError(t, err)
	v := res.Command.(*compiler.Values)
	assert.Equal(t, "db one", v.String("dbHost"))
	assert.Equal(t, "up now", v.String("command"))

	_, err = d.DispatchLine(`migrate --host "unterminated`)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	d, _ := newDispatcher(t)
	assert.Equal(t, []string{"migrate", "serve"}, d.CommandNames())

	_, ok := d.CommandHelp("nope")
	assert.False(t, ok)

	typed := compiler.MustCompile[*compiler.Values](&descriptor.Command{Name: "status", Description: "Show status"})
	d.Register("status", typed)
	assert.Equal(t, []string{"migrate", "serve", "status"}, d.CommandNames())

	help, ok := d.CommandHelp("status")
	require.True(t, ok)
	assert.Equal(t, "status - Show status\n\nUsage: status [PARAMETERS] [OPTIONS]\n\n", help)

	assert.Panics(t, func() { d.Register("", typed) })
	assert.Panics(t, func() { d.Register("x", nil) })

	err := d.RegisterDescriptor(&descriptor.Command{Name: ""})
	assert.Error(t, err)
}
