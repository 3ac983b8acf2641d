// Package dispatch routes a program's arguments to one of several compiled
// command parsers by command name.
package dispatch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/kballard/go-shellquote"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"

	"github.com/aledsdavies/cligen/internal/invariant"
	"github.com/aledsdavies/cligen/pkgs/compiler"
	"github.com/aledsdavies/cligen/pkgs/convert"
	"github.com/aledsdavies/cligen/pkgs/descriptor"
	cerrors "github.com/aledsdavies/cligen/pkgs/errors"
)

// ErrHelpShown is returned after global help, command help or version
// information has been written. It is an outcome, not a failure.
var ErrHelpShown = errors.New("help shown")

// maxSuggestions bounds the near matches offered for an unknown command.
const maxSuggestions = 3

var (
	helpTokens    = []string{"--help", "-h", "help"}
	versionTokens = []string{"--version", "-v", "version"}
)

type entry struct {
	parser compiler.CommandParser
	desc   *descriptor.Command
}

// Dispatcher is a name to parser registry. Registration and dispatch may
// overlap; the registry is guarded by a reader/writer lock.
type Dispatcher struct {
	appName  string
	version  string
	out      io.Writer
	registry *convert.Registry

	mu       sync.RWMutex
	commands map[string]entry
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithOutput sends help and version text to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(d *Dispatcher) { d.out = w }
}

// WithConverters resolves converter names in descriptors registered with
// RegisterDescriptor against r.
func WithConverters(r *convert.Registry) Option {
	return func(d *Dispatcher) { d.registry = r }
}

// New returns an empty dispatcher for the named application.
func New(appName, version string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		appName:  appName,
		version:  version,
		out:      os.Stdout,
		registry: convert.Default(),
		commands: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds or replaces the parser for name.
func (d *Dispatcher) Register(name string, parser compiler.CommandParser) {
	invariant.Precondition(name != "", "command name must not be empty")
	invariant.NotNil(parser, "parser")

	var desc *descriptor.Command
	if dp, ok := parser.(interface{ Descriptor() *descriptor.Command }); ok {
		desc = dp.Descriptor()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands[name] = entry{parser: parser, desc: desc}
}

// RegisterDescriptor compiles desc into an untyped parser and registers it
// under the descriptor's name.
func (d *Dispatcher) RegisterDescriptor(desc *descriptor.Command) error {
	p, err := compiler.Compile[*compiler.Values](desc, compiler.WithRegistry(d.registry))
	if err != nil {
		return err
	}
	d.Register(desc.Name, p)
	return nil
}

// RegisterDescriptors compiles descs concurrently and registers them all,
// or none when any fails to compile.
func (d *Dispatcher) RegisterDescriptors(descs []*descriptor.Command) error {
	parsers, err := compiler.CompileAll[*compiler.Values](descs, compiler.WithRegistry(d.registry))
	if err != nil {
		return err
	}
	for _, p := range parsers {
		d.Register(p.Descriptor().Name, p)
	}
	return nil
}

// CommandNames returns the registered names in sorted order.
func (d *Dispatcher) CommandNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := lo.Keys(d.commands)
	slices.Sort(names)
	return names
}

// CommandHelp returns the help text of a registered command.
func (d *Dispatcher) CommandHelp(name string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.commands[name]
	if !ok {
		return "", false
	}
	return e.parser.HelpText(), true
}

// GlobalHelp renders the application help listing every command.
func (d *Dispatcher) GlobalHelp() string {
	lower := strings.ToLower(d.appName)

	var b strings.Builder
	fmt.Fprintf(&b, "%s - CLI Application\n", d.appName)
	fmt.Fprintf(&b, "Version: %s\n\n", d.version)
	fmt.Fprintf(&b, "Usage: %s <command> [options]\n\n", lower)
	b.WriteString("Commands:\n")
	for _, name := range d.CommandNames() {
		fmt.Fprintf(&b, "  %s\n", name)
	}
	b.WriteString("\nGlobal Options:\n")
	b.WriteString("  --help, -h     Show this help message\n")
	b.WriteString("  --version      Show version information\n")
	fmt.Fprintf(&b, "\nUse '%s <command> --help' for command-specific help\n", lower)
	return b.String()
}

// Dispatch routes args to a command parser. The first token selects the
// command; the rest are parsed by it. Help and version requests are
// answered on the output writer and reported as ErrHelpShown.
func (d *Dispatcher) Dispatch(args []string) (*compiler.Result[any], error) {
	if len(args) == 0 {
		return nil, cerrors.NoCommand()
	}

	first := args[0]
	switch {
	case slices.Contains(helpTokens, first):
		return nil, d.show(d.GlobalHelp())
	case slices.Contains(versionTokens, first):
		return nil, d.show(fmt.Sprintf("%s version %s\n", d.appName, d.version))
	}

	d.mu.RLock()
	e, ok := d.commands[first]
	d.mu.RUnlock()
	if !ok {
		return nil, cerrors.UnknownCommand(first, d.Suggest(first))
	}

	rest := args[1:]
	if e.wantsHelp(rest) {
		return nil, d.show(e.parser.HelpText())
	}
	return e.parser.ParseArgs(rest)
}

// DispatchLine splits line with shell quoting rules and dispatches it.
func (d *Dispatcher) DispatchLine(line string) (*compiler.Result[any], error) {
	args, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("split %q: %w", line, err)
	}
	return d.Dispatch(args)
}

func (d *Dispatcher) show(text string) error {
	if _, err := io.WriteString(d.out, text); err != nil {
		return err
	}
	return ErrHelpShown
}

// wantsHelp reports whether a standard-help command was asked for its help.
// An option alias named --help or -h takes precedence.
func (e entry) wantsHelp(rest []string) bool {
	if e.desc == nil || !e.desc.StandardHelp || len(rest) == 0 {
		return false
	}
	if rest[0] != "--help" && rest[0] != "-h" {
		return false
	}
	_, claimed := e.desc.FindOption(rest[0])
	return !claimed
}

// Suggest returns up to three registered names close to name, best first.
func (d *Dispatcher) Suggest(name string) []string {
	names := d.CommandNames()

	ranks := fuzzy.RankFindFold(name, names)
	sort.Sort(ranks)
	matches := lo.Map(ranks, func(r fuzzy.Rank, _ int) string { return r.Target })

	for _, candidate := range names {
		if fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(candidate)) <= 2 {
			matches = append(matches, candidate)
		}
	}

	matches = lo.Uniq(matches)
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	return matches
}
