package main

import (
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/cligen/pkgs/compiler"
)

func (a *app) runCmd() *cobra.Command {
	var (
		flags  appFlags
		line   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "run <file|dir> [--line <command line>] [-- <command> [args...]]",
		Short: "Parse a command line with the declared commands and print the result",
		Long: "run compiles the declared commands at runtime, dispatches the given command " +
			"line and prints the parsed values and the unconsumed tokens. Help and version " +
			"requests print what the dispatcher would show.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return &CLIError{Code: ExitInvalidArguments, Message: fmt.Sprintf("unknown output %q", output), Hint: "use text or json"}
			}

			d, err := a.dispatcher(args[0], flags, a.out)
			if err != nil {
				return err
			}

			var res *compiler.Result[any]
			if line != "" {
				res, err = d.DispatchLine(line)
			} else {
				res, err = d.Dispatch(args[1:])
			}
			if err != nil {
				return err
			}

			values, ok := res.Command.(*compiler.Values)
			if !ok {
				return fmt.Errorf("unexpected command value %T", res.Command)
			}
			if output == "json" {
				return writeJSON(a.out, values, res.Remainder)
			}
			return writeText(a.out, values, res.Remainder)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&line, "line", "", "Command line to parse, split with shell quoting rules")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text or json")
	return cmd
}

func writeText(w io.Writer, values *compiler.Values, remainder []string) error {
	for _, field := range values.Fields() {
		v, _ := values.Get(field)
		mark := ""
		if !values.IsSet(field) {
			mark = " (unset)"
		}
		if _, err := fmt.Fprintf(w, "%s = %v%s\n", field, v, mark); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "remainder: %s\n", shellquote.Join(remainder...))
	return err
}

type runOutput struct {
	Values    map[string]any `json:"values"`
	Remainder []string       `json:"remainder"`
}

func writeJSON(w io.Writer, values *compiler.Values, remainder []string) error {
	out := runOutput{
		Values: lo.MapValues(values.Map(), func(v any, _ string) any {
			switch v.(type) {
			case nil, string, bool, int32, int64, float32, float64:
				return v
			default:
				return fmt.Sprint(v)
			}
		}),
		Remainder: remainder,
	}
	data, err := json.Marshal(out, json.Deterministic(true), jsontext.WithIndent("  "))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
