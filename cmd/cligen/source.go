package main

import (
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/aledsdavies/cligen/pkgs/descriptor"
	cerrors "github.com/aledsdavies/cligen/pkgs/errors"
	"github.com/aledsdavies/cligen/pkgs/extract"
	"github.com/aledsdavies/cligen/pkgs/loader"
)

// loadDescriptors reads the commands declared at path: a descriptor file, or
// a Go package directory with annotated structs.
func (a *app) loadDescriptors(path string) ([]*descriptor.Command, error) {
	isDir, err := afero.IsDir(a.fs, path)
	if err != nil {
		return nil, cerrors.NewInputError(path, err)
	}

	if !isDir {
		cmds, err := loader.Load(a.fs, path)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("loaded descriptor file", zap.String("path", path), zap.Int("commands", len(cmds)))
		return cmds, nil
	}

	targets, err := extract.Source(a.fs, path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("extracted package", zap.String("dir", path), zap.Int("commands", len(targets)))
	if len(targets) == 0 {
		return nil, cerrors.New(cerrors.ErrExtraction, "no annotated structs in "+path).
			WithContext("directive", extract.Directive)
	}
	return lo.Map(targets, func(t *extract.Target, _ int) *descriptor.Command { return t.Command }), nil
}

// dirsOrCwd defaults an empty directory list to the working directory.
func dirsOrCwd(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}
