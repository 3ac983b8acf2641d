package generator

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	cerrors "github.com/aledsdavies/cligen/pkgs/errors"
	"github.com/aledsdavies/cligen/pkgs/extract"
	"github.com/aledsdavies/cligen/pkgs/fingerprint"
)

// DefaultOutput is the file name generated into each package directory.
const DefaultOutput = "cligen_gen.go"

const fingerprintPrefix = "// Fingerprint: "

// Status says what happened to a package directory.
type Status int

const (
	StatusSkipped   Status = iota // no annotated structs
	StatusUnchanged               // output already up to date
	StatusWritten
)

func (s Status) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusWritten:
		return "written"
	default:
		return "skipped"
	}
}

// Result describes one processed package directory.
type Result struct {
	Dir         string
	Path        string
	Package     string
	Commands    []string
	Fingerprint fingerprint.Fingerprint
	Status      Status
}

// Generator writes generated parsers next to their sources.
type Generator struct {
	fs     afero.Fs
	logger *zap.Logger
	output string
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithOutputName overrides DefaultOutput.
func WithOutputName(name string) Option {
	return func(g *Generator) { g.output = name }
}

// New returns a Generator working on fs.
func New(fs afero.Fs, opts ...Option) *Generator {
	g := &Generator{fs: fs, logger: zap.NewNop(), output: DefaultOutput}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// OutputName is the generated file name used in every directory.
func (g *Generator) OutputName() string { return g.output }

// plan extracts the targets of dir and renders them, without writing.
func (g *Generator) plan(dir string) (*Result, []byte, error) {
	targets, err := extract.Source(g.fs, dir)
	if err != nil {
		return nil, nil, err
	}

	res := &Result{Dir: dir, Path: filepath.Join(dir, g.output)}
	if len(targets) == 0 {
		return res, nil, nil
	}

	res.Package = targets[0].Package
	for _, t := range targets {
		res.Commands = append(res.Commands, t.Command.Name)
	}
	res.Fingerprint, err = fingerprint.Of(res.Package, Entries(targets))
	if err != nil {
		return nil, nil, cerrors.NewGenerationError("fingerprint "+dir, err)
	}

	src, err := GenerateGo(res.Package, targets)
	if err != nil {
		return nil, nil, cerrors.NewGenerationError("generate "+dir, err)
	}
	return res, src, nil
}

// Dir generates the parsers of one package directory. The file is only
// rewritten when its content changes.
func (g *Generator) Dir(dir string) (*Result, error) {
	res, src, err := g.plan(dir)
	if err != nil {
		return nil, err
	}
	if src == nil {
		g.logger.Debug("no annotated structs", zap.String("dir", dir))
		res.Status = StatusSkipped
		return res, nil
	}

	existing, err := afero.ReadFile(g.fs, res.Path)
	switch {
	case err == nil && bytes.Equal(existing, src):
		g.logger.Debug("output up to date", zap.String("path", res.Path))
		res.Status = StatusUnchanged
		return res, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return nil, cerrors.NewInputError(res.Path, err)
	}

	if err := afero.WriteFile(g.fs, res.Path, src, 0o644); err != nil {
		return nil, cerrors.NewGenerationError("write "+res.Path, err)
	}
	g.logger.Info("generated parsers",
		zap.String("path", res.Path),
		zap.Strings("commands", res.Commands),
		zap.Stringer("fingerprint", res.Fingerprint))
	res.Status = StatusWritten
	return res, nil
}

// Dirs runs Dir for every directory concurrently. Results are in input
// order; errors from all directories are joined.
func (g *Generator) Dirs(ctx context.Context, dirs []string) ([]*Result, error) {
	return g.each(ctx, dirs, g.Dir)
}

// Verify checks that the generated file of dir matches its sources. A
// missing, foreign or outdated file is a stale error.
func (g *Generator) Verify(dir string) (*Result, error) {
	res, src, err := g.plan(dir)
	if err != nil {
		return nil, err
	}

	existing, err := afero.ReadFile(g.fs, res.Path)
	if errors.Is(err, fs.ErrNotExist) {
		if src == nil {
			res.Status = StatusSkipped
			return res, nil
		}
		return nil, cerrors.NewStaleError(res.Path, res.Fingerprint.String(), "missing")
	}
	if err != nil {
		return nil, cerrors.NewInputError(res.Path, err)
	}

	want := "none"
	if src != nil {
		want = res.Fingerprint.String()
	}
	got, err := ReadFingerprint(existing)
	if err != nil {
		return nil, cerrors.NewStaleError(res.Path, want, "unreadable")
	}
	if src == nil || got != res.Fingerprint {
		return nil, cerrors.NewStaleError(res.Path, want, got.String())
	}

	g.logger.Debug("output verified", zap.String("path", res.Path))
	res.Status = StatusUnchanged
	return res, nil
}

// VerifyDirs runs Verify for every directory concurrently.
func (g *Generator) VerifyDirs(ctx context.Context, dirs []string) ([]*Result, error) {
	return g.each(ctx, dirs, g.Verify)
}

func (g *Generator) each(ctx context.Context, dirs []string, fn func(string) (*Result, error)) ([]*Result, error) {
	results := make([]*Result, len(dirs))

	p := pool.New().WithContext(ctx).WithMaxGoroutines(runtime.GOMAXPROCS(0))
	for i, dir := range dirs {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := fn(dir)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// ReadFingerprint finds the fingerprint line in the header of a generated
// file.
func ReadFingerprint(src []byte) (fingerprint.Fingerprint, error) {
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "package ") {
			break
		}
		if hex, ok := strings.CutPrefix(line, fingerprintPrefix); ok {
			return fingerprint.Parse(strings.TrimSpace(hex))
		}
	}
	return fingerprint.Fingerprint{}, fmt.Errorf("no fingerprint in file header")
}
