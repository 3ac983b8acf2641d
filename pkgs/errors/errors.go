package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
)

// Parse error kinds. A parse aborts on the first error of any kind.
const (
	// Token loop errors
	ErrMissingValue     = "MISSING_VALUE"
	ErrConversionFailed = "CONVERSION_FAILED"
	ErrUnknownOption    = "UNKNOWN_OPTION"

	// Post-loop validation
	ErrMissingRequired = "MISSING_REQUIRED"

	// Dispatch errors
	ErrNoCommand      = "NO_COMMAND"
	ErrUnknownCommand = "UNKNOWN_COMMAND"
)

// Tooling error types used by the extractor, loader and generator.
const (
	// Input/File errors
	ErrInputRead    = "INPUT_READ_ERROR"
	ErrFileParse    = "FILE_PARSE_ERROR"
	ErrFileNotFound = "FILE_NOT_FOUND"

	// Descriptor errors
	ErrDescriptorInvalid = "DESCRIPTOR_INVALID"
	ErrExtraction        = "EXTRACTION_ERROR"

	// Generation errors
	ErrCodeGeneration = "CODE_GENERATION_ERROR"
	ErrStaleOutput    = "STALE_OUTPUT"
)

// ParseError is the single error kind a compiled parser or the dispatcher
// reports. Error returns Message verbatim so callers can print it as is.
type ParseError struct {
	Kind    string
	Message string
	Cause   error

	// Suggestions holds near matches for unknown command names.
	Suggestions []string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return e.Message
}

// Unwrap allows error unwrapping
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// MissingValue reports a value-taking option given as the last token.
func MissingValue(alias string) *ParseError {
	return &ParseError{
		Kind:    ErrMissingValue,
		Message: fmt.Sprintf("Option %s requires an argument", alias),
	}
}

// ConversionFailed reports a built-in or custom conversion failure for an option.
func ConversionFailed(alias string, cause error) *ParseError {
	return &ParseError{
		Kind:    ErrConversionFailed,
		Message: fmt.Sprintf("Failed to convert option %s: %v", alias, cause),
		Cause:   cause,
	}
}

// ParameterConversionFailed reports a conversion failure for a positional parameter.
func ParameterConversionFailed(field string, cause error) *ParseError {
	return &ParseError{
		Kind:    ErrConversionFailed,
		Message: fmt.Sprintf("Failed to convert parameter %s: %v", field, cause),
		Cause:   cause,
	}
}

// UnknownOption reports an option-like token that matches no alias.
func UnknownOption(token string) *ParseError {
	return &ParseError{
		Kind:    ErrUnknownOption,
		Message: "Unknown option: " + token,
	}
}

// MissingRequiredOption reports a required reference-typed option left unset.
func MissingRequiredOption(alias string) *ParseError {
	return &ParseError{
		Kind:    ErrMissingRequired,
		Message: "Required option not provided: " + alias,
	}
}

// MissingRequiredParameter reports a required reference-typed parameter left unset.
func MissingRequiredParameter(field string) *ParseError {
	return &ParseError{
		Kind:    ErrMissingRequired,
		Message: "Required parameter not provided: " + field,
	}
}

// NoCommand reports an empty argument list handed to the dispatcher.
func NoCommand() *ParseError {
	return &ParseError{
		Kind:    ErrNoCommand,
		Message: "No command specified. Use --help for available commands.",
	}
}

// UnknownCommand reports a command name with no registered parser.
func UnknownCommand(name string, suggestions []string) *ParseError {
	return &ParseError{
		Kind:        ErrUnknownCommand,
		Message:     "Unknown command: " + name + ". Use --help for available commands.",
		Suggestions: suggestions,
	}
}

// IsKind reports whether err is a ParseError of the given kind.
func IsKind(err error, kind string) bool {
	var pe *ParseError
	if stderrors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// CligenError represents a structured tooling error with type and context
type CligenError struct {
	Type    string
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface
func (e *CligenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows error unwrapping
func (e *CligenError) Unwrap() error {
	return e.Cause
}

// New creates a new CligenError
func New(errorType, message string) *CligenError {
	return &CligenError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

// Wrap creates a new CligenError wrapping an existing error
func Wrap(errorType, message string, cause error) *CligenError {
	return &CligenError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error
func (e *CligenError) WithContext(key string, value any) *CligenError {
	e.Context[key] = value
	return e
}

// GetContext returns context value by key
func (e *CligenError) GetContext(key string) (any, bool) {
	value, exists := e.Context[key]
	return value, exists
}

// NewInputError creates an input-related error. A cause matching
// fs.ErrNotExist yields ErrFileNotFound instead of ErrInputRead.
func NewInputError(path string, cause error) *CligenError {
	if stderrors.Is(cause, fs.ErrNotExist) {
		return Wrap(ErrFileNotFound, fmt.Sprintf("%s does not exist", path), cause).
			WithContext("path", path)
	}
	return Wrap(ErrInputRead, fmt.Sprintf("failed to read %s", path), cause).
		WithContext("path", path)
}

// NewFileParseError creates an error for a descriptor or source file that does not parse
func NewFileParseError(path string, cause error) *CligenError {
	return Wrap(ErrFileParse, fmt.Sprintf("failed to parse %s", path), cause).
		WithContext("path", path)
}

// NewDescriptorError creates an error for a structurally invalid descriptor
func NewDescriptorError(command, message string) *CligenError {
	return New(ErrDescriptorInvalid, fmt.Sprintf("command '%s': %s", command, message)).
		WithContext("command", command)
}

// NewExtractionError creates an error for an annotated type that cannot be turned into a descriptor
func NewExtractionError(typeName, message string) *CligenError {
	return New(ErrExtraction, fmt.Sprintf("type %s: %s", typeName, message)).
		WithContext("type", typeName)
}

// NewGenerationError creates a code generation error
func NewGenerationError(message string, cause error) *CligenError {
	return Wrap(ErrCodeGeneration, message, cause)
}

// NewStaleError creates an error for generated output that no longer matches its sources
func NewStaleError(path, want, got string) *CligenError {
	return New(ErrStaleOutput, fmt.Sprintf("%s is out of date: sources have fingerprint %s, file has %s", path, want, got)).
		WithContext("path", path).
		WithContext("want", want).
		WithContext("got", got)
}

// IsErrorType checks if an error is a CligenError of a specific type
func IsErrorType(err error, errorType string) bool {
	var ce *CligenError
	if stderrors.As(err, &ce) {
		return ce.Type == errorType
	}
	return false
}
