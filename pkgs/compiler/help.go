package compiler

import (
	"strings"

	"github.com/aledsdavies/cligen/pkgs/descriptor"
)

// HelpText renders the help for desc. The layout is fixed:
//
//	<name> - <description>
//
//	Usage: <name> [PARAMETERS] [OPTIONS]
//
//	Parameters:
//	  <field>	<description>
//
//	Options:
//	  <alias>, <alias>	<description>
//
// Parameters are listed by index and omitted when there are none; options
// keep declaration order and are likewise omitted when empty. The text
// always ends with a blank line.
func HelpText(desc *descriptor.Command) string {
	var b strings.Builder

	b.WriteString(desc.Name)
	b.WriteString(" - ")
	b.WriteString(desc.Description)
	b.WriteString("\n\nUsage: ")
	b.WriteString(desc.Name)
	b.WriteString(" [PARAMETERS] [OPTIONS]\n")

	if len(desc.Parameters) > 0 {
		b.WriteString("\nParameters:\n")
		for _, p := range desc.SortedParameters() {
			b.WriteString("  ")
			b.WriteString(p.Field)
			b.WriteString("\t")
			b.WriteString(p.Description)
			b.WriteString("\n")
		}
	}

	if len(desc.Options) > 0 {
		b.WriteString("\nOptions:\n")
		for _, o := range desc.Options {
			b.WriteString("  ")
			b.WriteString(strings.Join(o.Aliases, ", "))
			b.WriteString("\t")
			b.WriteString(o.Description)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	return b.String()
}
