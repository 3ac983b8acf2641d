package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/cligen/pkgs/generator"
)

func (a *app) generator(output string) *generator.Generator {
	return generator.New(a.fs, generator.WithLogger(a.logger), generator.WithOutputName(output))
}

func (a *app) generateCmd() *cobra.Command {
	var (
		watch  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "generate [dir...]",
		Short: "Generate parsers for the annotated structs of each package directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			g := a.generator(output)
			dirs := dirsOrCwd(args)

			if !watch {
				results, err := g.Dirs(cmd.Context(), dirs)
				a.printResults(results)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, g, dirs)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Regenerate whenever a source file changes")
	cmd.Flags().StringVarP(&output, "output", "o", generator.DefaultOutput, "Generated file name within each directory")
	return cmd
}

func (a *app) watch(ctx context.Context, g *generator.Generator, dirs []string) error {
	_, _ = fmt.Fprintf(a.out, "watching %d director%s, press Ctrl+C to stop\n", len(dirs), plural(len(dirs), "y", "ies"))
	return g.Watch(ctx, dirs, func(results []*generator.Result, err error) {
		a.printResults(results)
		if err != nil {
			FormatError(a.errOut, err, a.useColor())
		}
	})
}

func (a *app) printResults(results []*generator.Result) {
	p := newPalette(a.useColor())
	for _, r := range results {
		if r == nil {
			continue
		}
		switch r.Status {
		case generator.StatusWritten:
			_, _ = fmt.Fprintf(a.out, "%s %s (%d command%s)\n",
				p.ok.Sprint("wrote"), r.Path, len(r.Commands), plural(len(r.Commands), "", "s"))
		case generator.StatusUnchanged:
			_, _ = fmt.Fprintf(a.out, "%s %s\n", p.muted.Sprint("unchanged"), r.Path)
		default:
			if a.debug {
				_, _ = fmt.Fprintf(a.out, "%s %s (no commands)\n", p.muted.Sprint("skipped"), r.Dir)
			}
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
