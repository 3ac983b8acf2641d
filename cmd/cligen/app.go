package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aledsdavies/cligen/pkgs/dispatch"
)

// app carries the process environment every subcommand works against.
type app struct {
	fs     afero.Fs
	out    io.Writer
	errOut io.Writer

	debug   bool
	noColor bool

	logger *zap.Logger
}

func (a *app) run(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, dispatch.ErrHelpShown) {
		FormatError(a.errOut, err, a.useColor())
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return exitCode(err)
}

func (a *app) useColor() bool {
	return ShouldUseColor(a.noColor)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cligen",
		Short:         "Generate and inspect command-line parsers from command descriptors",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initLogger()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug output")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		a.generateCmd(),
		a.verifyCmd(),
		a.inspectCmd(),
		a.lintCmd(),
		a.usageCmd(),
		a.runCmd(),
		a.schemaCmd(),
	)
	return root
}

// initLogger builds the process logger unless one was injected.
func (a *app) initLogger() error {
	if a.logger != nil {
		return nil
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if a.debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableCaller = true
	}
	cfg.Encoding = "console"

	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}
