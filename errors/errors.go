package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in the bridge the error occurred
type Phase string

const (
	PhaseInit     Phase = "init"     // API table validation
	PhaseRequest  Phase = "request"  // application calls into the host
	PhaseDispatch Phase = "dispatch" // host calls back into the application
	PhaseAccess   Phase = "access"   // permission round trip
	PhaseTeardown Phase = "teardown" // connection close/release
	PhaseSound    Phase = "sound"    // sound channel and effect calls
	PhaseFatal    Phase = "fatal"    // supervisor
)

// Kind categorizes the error
type Kind string

const (
	KindConfiguration     Kind = "configuration"      // required native function is absent
	KindArgument          Kind = "argument"           // rejected before any native call
	KindNative            Kind = "native"             // closed NetErr code from the host
	KindProtocolViolation Kind = "protocol_violation" // host returned null where it must not
	KindInvalidState      Kind = "invalid_state"
	KindFatal             Kind = "fatal"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Op     string
	Tag    string
	Detail string
	Code   int32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}

	if e.Kind == KindNative {
		b.WriteString(": ")
		b.WriteString(e.Tag)
		fmt.Fprintf(&b, " (%d)", e.Code)
	}

	if e.Detail != "" {
		if e.Kind == KindNative {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether err is an *Error of the given kind, regardless of phase.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the failing operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Code sets the native result code and its tag
func (b *Builder) Code(code int32, tag string) *Builder {
	b.err.Code = code
	b.err.Tag = tag
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// MissingFunction creates a configuration error for an absent native entry
func MissingFunction(phase Phase, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindConfiguration,
		Op:     name,
		Detail: fmt.Sprintf("%s did not contain a function", name),
	}
}

// MissingTable creates a configuration error for an absent API sub-table
func MissingTable(name string) *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindConfiguration,
		Detail: fmt.Sprintf("nil %s table", name),
	}
}

// EmbeddedNul creates an argument error for text holding a terminator byte
func EmbeddedNul(phase Phase, op, field string, at int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindArgument,
		Op:     op,
		Detail: fmt.Sprintf("%s contains a nul byte at offset %d", field, at),
		Value:  at,
	}
}

// Overflow creates an argument error for a value exceeding the native width
func Overflow(phase Phase, op string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindArgument,
		Op:     op,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// InvalidArgument creates an argument error
func InvalidArgument(phase Phase, op, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindArgument,
		Op:     op,
		Detail: detail,
	}
}

// Native creates an error for a code from the host's closed error set
func Native(phase Phase, op string, code int32, tag string) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindNative,
		Op:    op,
		Code:  code,
		Tag:   tag,
	}
}

// ProtocolViolation creates an error for a null result the host should not produce
func ProtocolViolation(phase Phase, op, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindProtocolViolation,
		Op:     op,
		Detail: detail,
	}
}

// InvalidState creates an error for an operation that conflicts with pending state
func InvalidState(phase Phase, op, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidState,
		Op:     op,
		Detail: detail,
	}
}

// Teardown wraps a failure discovered while destroying a native object
func Teardown(op string, cause error) *Error {
	return &Error{
		Phase:  PhaseTeardown,
		Kind:   KindFatal,
		Op:     op,
		Detail: "native failure during teardown",
		Cause:  cause,
	}
}

// Fatal creates the error the supervisor returns after an unrecoverable condition
func Fatal(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseFatal,
		Kind:   KindFatal,
		Detail: detail,
		Cause:  cause,
	}
}
