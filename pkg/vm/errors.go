package vm

import (
	"fmt"
	"unsafe"

	"suzaku/pkg/jsstring"
	"suzaku/pkg/object"
	"suzaku/pkg/value"
)

// engineError marks a fault that aborts the current activation and
// bubbles out of the embedding boundary rather than being catchable by
// an exception table, per §7's two-layer error model (OOM, stack
// overflow, internal invariant violations).
type engineError struct{ msg string }

func (e *engineError) Error() string { return e.msg }

func (r *Realm) stackOverflow() error {
	return &engineError{msg: "vm: stack overflow"}
}

func (r *Realm) registerOverflow() error {
	return &engineError{msg: "vm: register stack overflow"}
}

// scriptErrorf raises a catchable script error: a plain string value
// for now, since the Error constructor/prototype wiring lives in the
// runtime library (§4.7), not here. Call sites that want a typed
// message ("TypeError: ...") bake the kind into the format string, the
// same ad-hoc convention the teacher's runtimeError used before its
// errors package existed.
func (r *Realm) scriptErrorf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	s := jsstring.NewFlat(msg)
	return &object.Throw{Value: value.FromHeapPointer(unsafe.Pointer(s.Header()))}
}

// ScriptErrorf exports scriptErrorf for pkg/runtime's natives, which
// raise the same kind of catchable plain-string error a core VM op does
// (a TypeError from a bad argument, a SyntaxError from an invalid regex
// literal) rather than going through the Error constructor family for
// every internal check.
func (r *Realm) ScriptErrorf(format string, args ...interface{}) error {
	return r.scriptErrorf(format, args...)
}

// throwValue raises a catchable script error carrying v itself, used
// where the thrown payload is already a value (a rethrow, or a native
// function calling realm.Throw with a constructed Error object) rather
// than a message to format.
func (r *Realm) throwValue(v value.Value) error {
	return &object.Throw{Value: v}
}

// errorToValue extracts the script-visible payload of a fault: the
// thrown value if it is a catchable object.Throw, or the message boxed
// as a string for any other Go error a native returned. Engine errors
// never get here: runFrame returns them before looking for a handler.
func errorToValue(err error) value.Value {
	if t, ok := err.(*object.Throw); ok {
		return t.Value
	}
	return value.FromHeapPointer(unsafe.Pointer(jsstring.NewFlat(err.Error()).Header()))
}

// isEngineError reports whether err is an uncatchable engine fault that
// must never be intercepted by a script exception-table handler.
func isEngineError(err error) bool {
	_, ok := err.(*engineError)
	return ok
}
