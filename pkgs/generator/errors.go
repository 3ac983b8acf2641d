package generator

import (
	"errors"
	"fmt"
	"strings"
)

// GeneratorError reports a problem with one annotated type, with the source
// position it was declared at.
type GeneratorError struct {
	Message   string
	File      string
	TypeName  string
	FieldName string
	ErrorType string // "validation", "template", "format"
}

func (e *GeneratorError) Error() string {
	var b strings.Builder
	if e.ErrorType != "" {
		fmt.Fprintf(&b, "[%s] ", e.ErrorType)
	}

	switch {
	case e.TypeName != "" && e.FieldName != "":
		fmt.Fprintf(&b, "error in %s.%s: %s", e.TypeName, e.FieldName, e.Message)
	case e.TypeName != "":
		fmt.Fprintf(&b, "error in %s: %s", e.TypeName, e.Message)
	default:
		fmt.Fprintf(&b, "generator error: %s", e.Message)
	}

	if e.File != "" {
		fmt.Fprintf(&b, "\nSource: %s", e.File)
	}
	return b.String()
}

// ValidationError is raised when a target cannot be rendered into code that
// would compile.
type ValidationError struct {
	*GeneratorError
}

func NewValidationError(message, typeName, fieldName, file string) *ValidationError {
	return &ValidationError{
		GeneratorError: &GeneratorError{
			Message:   message,
			File:      file,
			TypeName:  typeName,
			FieldName: fieldName,
			ErrorType: "validation",
		},
	}
}

// TemplateError reports a template that failed to parse or execute.
type TemplateError struct {
	*GeneratorError
	TemplateName string
}

func NewTemplateError(message, templateName string) *TemplateError {
	return &TemplateError{
		GeneratorError: &GeneratorError{
			Message:   message,
			ErrorType: "template",
		},
		TemplateName: templateName,
	}
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("[template] error in template '%s': %s", e.TemplateName, e.Message)
}

// FormatError carries the unformatted output when go/format rejects it.
type FormatError struct {
	*GeneratorError
	Source []byte
	Cause  error
}

func NewFormatError(cause error, source []byte) *FormatError {
	return &FormatError{
		GeneratorError: &GeneratorError{
			Message:   cause.Error(),
			ErrorType: "format",
		},
		Source: source,
		Cause:  cause,
	}
}

func (e *FormatError) Unwrap() error { return e.Cause }

// ErrorCollector gathers the validation errors of every target so that one
// run reports all of them.
type ErrorCollector struct {
	errs []error
}

func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{}
}

// Add records err; nil is ignored.
func (ec *ErrorCollector) Add(err error) {
	if err != nil {
		ec.errs = append(ec.errs, err)
	}
}

func (ec *ErrorCollector) HasErrors() bool { return len(ec.errs) > 0 }

func (ec *ErrorCollector) Errors() []error { return ec.errs }

// Err joins the collected errors, or returns nil when there are none.
func (ec *ErrorCollector) Err() error {
	return errors.Join(ec.errs...)
}
