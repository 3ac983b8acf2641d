package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aledsdavies/cligen/pkgs/dispatch"
	cerrors "github.com/aledsdavies/cligen/pkgs/errors"
)

// CLIError represents a formatted CLI error with context
type CLIError struct {
	Code    int    // Exit code
	Message string
	Details string // Additional context
	Hint    string // How to fix it
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// FormatError formats an error for CLI output with colors
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}
	p := newPalette(useColor)

	var (
		cliErr   *CLIError
		parseErr *cerrors.ParseError
		toolErr  *cerrors.CligenError
	)
	switch {
	case errors.As(err, &cliErr):
		formatCLIError(w, cliErr, p)
	case errors.As(err, &parseErr):
		formatParseError(w, parseErr, p)
	case errors.As(err, &toolErr):
		formatCligenError(w, toolErr, p)
	default:
		_, _ = fmt.Fprintf(w, "%s%s\n", p.err.Sprint("Error: "), err.Error())
	}
}

// formatCLIError formats CLI errors
func formatCLIError(w io.Writer, err *CLIError, p palette) {
	_, _ = fmt.Fprintf(w, "%s%s\n", p.err.Sprint("Error: "), err.Message)

	if err.Details != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", err.Details)
	}

	if err.Hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", p.warn.Sprint("Hint: "), err.Hint)
	}
}

// formatParseError prints a rejected command line with any suggestions.
func formatParseError(w io.Writer, err *cerrors.ParseError, p palette) {
	_, _ = fmt.Fprintf(w, "%s%s\n", p.err.Sprint("Error: "), err.Message)
	if len(err.Suggestions) > 0 {
		_, _ = fmt.Fprintf(w, "%s%s\n", p.warn.Sprint("Did you mean: "), strings.Join(err.Suggestions, ", "))
	}
}

// formatCligenError prints a tooling failure, its context and its cause.
func formatCligenError(w io.Writer, err *cerrors.CligenError, p palette) {
	_, _ = fmt.Fprintf(w, "%s%s\n", p.err.Sprint("Error: "), err.Message)

	keys := make([]string, 0, len(err.Context))
	for k := range err.Context {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "%s\n", p.muted.Sprintf("  %s: %v", k, err.Context[k]))
	}

	if err.Cause != nil {
		_, _ = fmt.Fprintf(w, "%s%v\n", p.muted.Sprint("  Cause: "), err.Cause)
	}

	if hint := hintFor(err.Type); hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", p.warn.Sprint("Hint: "), hint)
	}
}

func hintFor(errorType string) string {
	switch errorType {
	case cerrors.ErrStaleOutput:
		return "run 'cligen generate' to refresh the generated files"
	case cerrors.ErrFileParse:
		return "run 'cligen schema' to print the descriptor file schema"
	}
	return ""
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if err == nil || errors.Is(err, dispatch.ErrHelpShown) {
		return ExitSuccess
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}

	var parseErr *cerrors.ParseError
	if errors.As(err, &parseErr) {
		return ExitInvalidArguments
	}

	var toolErr *cerrors.CligenError
	if errors.As(err, &toolErr) {
		switch toolErr.Type {
		case cerrors.ErrInputRead, cerrors.ErrFileNotFound:
			return ExitIOError
		case cerrors.ErrFileParse, cerrors.ErrExtraction, cerrors.ErrDescriptorInvalid:
			return ExitParseError
		case cerrors.ErrCodeGeneration:
			return ExitGenerationError
		case cerrors.ErrStaleOutput:
			return ExitStaleOutput
		}
	}

	return ExitInvalidArguments
}
