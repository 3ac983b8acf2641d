package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/cligen/pkgs/descriptor"
	"github.com/aledsdavies/cligen/pkgs/lint"
)

func (a *app) lintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <file|dir>...",
		Short: "Report descriptor shapes that parse, but probably not as intended",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cmds []*descriptor.Command
			for _, path := range args {
				loaded, err := a.loadDescriptors(path)
				if err != nil {
					return err
				}
				cmds = append(cmds, loaded...)
			}

			findings := lint.All(cmds)
			p := newPalette(a.useColor())
			for _, f := range findings {
				c := p.warn
				if f.Severity == lint.SeverityError {
					c = p.err
				}
				_, _ = fmt.Fprintln(a.out, c.Sprint(f.String()))
			}
			if len(findings) == 0 {
				_, _ = fmt.Fprintf(a.out, "%s %d command%s\n", p.ok.Sprint("no findings in"), len(cmds), plural(len(cmds), "", "s"))
			}

			if lint.HasErrors(findings) {
				return &CLIError{
					Code:    ExitParseError,
					Message: "lint found errors",
					Hint:    "fix the findings marked error; warnings do not fail the run",
				}
			}
			return nil
		},
	}
}
