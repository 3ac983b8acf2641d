package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/cligen/pkgs/loader"
)

func (a *app) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for YAML and JSON descriptor files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(a.out, loader.Schema())
			return err
		},
	}
}
