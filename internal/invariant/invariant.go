// Package invariant provides contract assertions for cligen.
//
// Violations are programming errors (a nil descriptor handed to the compiler,
// a parser registered under an empty name), never user input errors. User
// input problems are reported as parse errors; these functions panic.
package invariant

import (
	"fmt"
	"reflect"
	"runtime"
)

// Precondition checks an input contract at function entry.
// Panics with PRECONDITION VIOLATION if condition is false.
//
// Example:
//
//	func (d *Dispatcher) Register(name string, p compiler.CommandParser) {
//	    invariant.Precondition(name != "", "command name must not be empty")
//	    // ...
//	}
func Precondition(condition bool, format string, args ...any) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Invariant checks an internal invariant during function execution, such as
// the token loop advancing on every iteration.
func Invariant(condition bool, format string, args ...any) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// NotNil panics if value is nil, including typed nils such as (*T)(nil).
func NotNil(value any, name string) {
	if isNilValue(value) {
		fail("PRECONDITION", "%s must not be nil", name)
	}
}

func isNilValue(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// ExpectNoError panics if err is not nil. Use it for operations whose inputs
// were already validated, e.g. executing a built-in template.
func ExpectNoError(err error, msg string) {
	if err != nil {
		fail("POSTCONDITION", "%s must not fail: %v", msg, err)
	}
}

// fail panics with a formatted message including the violating call site.
func fail(kind, format string, args ...any) {
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])

	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]any{kind}, args...)...)
	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}

	panic(msg)
}
