// Package lint reports descriptor shapes that parse, but probably not the
// way their author intended.
package lint

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/mod/semver"

	"github.com/aledsdavies/cligen/pkgs/convert"
	"github.com/aledsdavies/cligen/pkgs/descriptor"
)

// Severity ranks a finding.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Finding is one lint result.
type Finding struct {
	Command  string
	Field    string
	Rule     string
	Severity Severity
	Message  string
}

func (f Finding) String() string {
	loc := f.Command
	if f.Field != "" {
		loc += "." + f.Field
	}
	return fmt.Sprintf("%s: %s [%s] %s", loc, f.Severity, f.Rule, f.Message)
}

// Rule names.
const (
	RuleVersion          = "version"
	RuleIndexGap         = "index-gap"
	RuleArity            = "arity"
	RuleRequiredPrim     = "required-primitive"
	RuleBoolValue        = "bool-takes-value"
	RuleFlagType         = "flag-type"
	RuleRequiredOrder    = "required-after-optional"
	RuleAliasPrefix      = "alias-prefix"
	RuleCustomConversion = "custom-without-converter"
)

type check func(cmd *descriptor.Command) []Finding

var checks = []check{
	checkVersion,
	checkIndexGaps,
	checkOptions,
	checkRequiredOrder,
}

// Command lints one descriptor. Findings are ordered by rule, then by
// declaration order.
func Command(cmd *descriptor.Command) []Finding {
	var findings []Finding
	for _, c := range checks {
		findings = append(findings, c(cmd)...)
	}
	return findings
}

// All lints every descriptor.
func All(cmds []*descriptor.Command) []Finding {
	return lo.FlatMap(cmds, func(cmd *descriptor.Command, _ int) []Finding {
		return Command(cmd)
	})
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	return lo.SomeBy(findings, func(f Finding) bool { return f.Severity == SeverityError })
}

func checkVersion(cmd *descriptor.Command) []Finding {
	if cmd.Version == "" {
		return nil
	}
	v := cmd.Version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if semver.IsValid(v) {
		return nil
	}
	return []Finding{{
		Command:  cmd.Name,
		Rule:     RuleVersion,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("version %q is not a semantic version", cmd.Version),
	}}
}

func checkIndexGaps(cmd *descriptor.Command) []Finding {
	params := cmd.SortedParameters()
	for i, p := range params {
		if p.Index != i {
			return []Finding{{
				Command:  cmd.Name,
				Field:    p.Field,
				Rule:     RuleIndexGap,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("parameter index %d leaves position %d unbound; tokens there go to the remainder",
					p.Index, i),
			}}
		}
	}
	return nil
}

func checkOptions(cmd *descriptor.Command) []Finding {
	var findings []Finding
	add := func(opt descriptor.Option, rule string, sev Severity, format string, args ...any) {
		findings = append(findings, Finding{
			Command:  cmd.Name,
			Field:    opt.Field,
			Rule:     rule,
			Severity: sev,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	for _, opt := range cmd.Options {
		if opt.Arity != "" && opt.Arity != descriptor.FlagArity && opt.Arity != "1" {
			add(opt, RuleArity, SeverityWarning,
				"arity %q is treated as exactly one value", opt.Arity)
		}
		if opt.Required && opt.Type.IsPrimitive() {
			add(opt, RuleRequiredPrim, SeverityWarning,
				"required is not enforced for %s options; the zero value is indistinguishable from absent", opt.Type)
		}
		if opt.Type == convert.TypeBool && !opt.IsFlag() {
			add(opt, RuleBoolValue, SeverityWarning,
				"bool option %s consumes a value; set arity \"0\" to make it a flag", opt.PrimaryAlias())
		}
		if opt.IsFlag() && opt.Type != convert.TypeBool {
			add(opt, RuleFlagType, SeverityError,
				"flag %s stores true into a %s field", opt.PrimaryAlias(), opt.Type)
		}
		if opt.Type == convert.TypeCustom && opt.Converter == nil && opt.ConverterName == "" {
			add(opt, RuleCustomConversion, SeverityWarning,
				"custom option %s has no converter; the raw token is assigned", opt.PrimaryAlias())
		}
		for _, alias := range opt.Aliases {
			if !strings.HasPrefix(alias, "-") {
				add(opt, RuleAliasPrefix, SeverityError,
					"name %q does not start with '-' and would shadow a positional token", alias)
			}
		}
	}
	return findings
}

func checkRequiredOrder(cmd *descriptor.Command) []Finding {
	params := cmd.SortedParameters()
	optional := slices.IndexFunc(params, func(p descriptor.Parameter) bool { return !p.Required })
	if optional < 0 {
		return nil
	}
	var findings []Finding
	for _, p := range params[optional+1:] {
		if p.Required {
			findings = append(findings, Finding{
				Command:  cmd.Name,
				Field:    p.Field,
				Rule:     RuleRequiredOrder,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("required parameter %s follows optional parameter %s",
					p.Field, params[optional].Field),
			})
		}
	}
	return findings
}
