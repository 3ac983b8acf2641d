package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/cligen/pkgs/dispatch"
	cerrors "github.com/aledsdavies/cligen/pkgs/errors"
)

type appFlags struct {
	name    string
	version string
}

func (f *appFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "app", "app", "Application name used in global help")
	cmd.Flags().StringVar(&f.version, "app-version", "0.0.0", "Application version used in global help")
}

// dispatcher compiles the commands at path into a dispatcher writing to w.
func (a *app) dispatcher(path string, f appFlags, w io.Writer) (*dispatch.Dispatcher, error) {
	cmds, err := a.loadDescriptors(path)
	if err != nil {
		return nil, err
	}
	d := dispatch.New(f.name, f.version, dispatch.WithOutput(w))
	if err := d.RegisterDescriptors(cmds); err != nil {
		return nil, err
	}
	return d, nil
}

func (a *app) usageCmd() *cobra.Command {
	var flags appFlags

	cmd := &cobra.Command{
		Use:   "usage <file|dir> [command]",
		Short: "Print the help a dispatcher would show for the declared commands",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.dispatcher(args[0], flags, a.out)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				_, err := io.WriteString(a.out, d.GlobalHelp())
				return err
			}
			help, ok := d.CommandHelp(args[1])
			if !ok {
				return cerrors.UnknownCommand(args[1], d.Suggest(args[1]))
			}
			_, err = io.WriteString(a.out, help)
			return err
		},
	}
	flags.register(cmd)
	return cmd
}
