package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/cligen/pkgs/descriptor"
	"github.com/aledsdavies/cligen/pkgs/loader"
)

func (a *app) inspectCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "inspect <file|dir>",
		Short: "Print the commands declared by a descriptor file or package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmds, err := a.loadDescriptors(args[0])
			if err != nil {
				return err
			}

			if output == "table" {
				return writeTable(a.out, cmds)
			}
			format, err := loader.ParseFormat(output)
			if err != nil {
				return &CLIError{
					Code:    ExitInvalidArguments,
					Message: err.Error(),
					Hint:    "use one of table, json, yaml, hcl",
				}
			}
			data, err := loader.Marshal(format, cmds)
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json, yaml or hcl")
	return cmd
}

var tableHeader = []string{"COMMAND", "FIELD", "KIND", "NAMES", "TYPE", "REQUIRED", "DEFAULT", "DESCRIPTION"}

// writeTable renders one row per option and parameter. Commands without
// either get a single row.
func writeTable(w io.Writer, cmds []*descriptor.Command) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(
			renderer.NewBlueprint(tw.Rendition{Symbols: tw.NewSymbols(tw.StyleASCII)})),
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithTrimSpace(tw.Off),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(tableHeader)

	for _, cmd := range cmds {
		for _, row := range tableRows(cmd) {
			if err := table.Append(row); err != nil {
				return fmt.Errorf("failed to append row: %w", err)
			}
		}
	}
	return table.Render()
}

func tableRows(cmd *descriptor.Command) [][]string {
	if len(cmd.Options) == 0 && len(cmd.Parameters) == 0 {
		return [][]string{{cmd.Name, "", "", "", "", "", "", cmd.Description}}
	}

	var rows [][]string
	for _, opt := range cmd.Options {
		kind := "option"
		if opt.IsFlag() {
			kind = "flag"
		}
		rows = append(rows, []string{
			cmd.Name, opt.Field, kind, strings.Join(opt.Aliases, ", "), typeName(opt),
			strconv.FormatBool(opt.Required), opt.DefaultValue, opt.Description,
		})
	}
	for _, p := range cmd.SortedParameters() {
		rows = append(rows, []string{
			cmd.Name, p.Field, "param", "#" + strconv.Itoa(p.Index), p.Type.String(),
			strconv.FormatBool(p.Required), "", p.Description,
		})
	}
	return rows
}

func typeName(opt descriptor.Option) string {
	if opt.ConverterName != "" {
		return opt.Type.String() + " (" + opt.ConverterName + ")"
	}
	return opt.Type.String()
}
