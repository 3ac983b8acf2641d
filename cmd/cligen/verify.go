package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/cligen/pkgs/generator"
)

func (a *app) verifyCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "verify [dir...]",
		Short: "Check that generated files match their sources",
		Long: "verify recomputes the fingerprint of each package's annotated structs and " +
			"compares it with the one recorded in the generated file. It exits with status 5 " +
			"when any file is missing or out of date.",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := a.generator(output).VerifyDirs(cmd.Context(), dirsOrCwd(args))
			p := newPalette(a.useColor())
			for _, r := range results {
				if r != nil && r.Status == generator.StatusUnchanged {
					_, _ = fmt.Fprintf(a.out, "%s %s\n", p.ok.Sprint("ok"), r.Path)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", generator.DefaultOutput, "Generated file name within each directory")
	return cmd
}
