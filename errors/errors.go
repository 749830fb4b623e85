package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLocal  Phase = "local"  // checks made before any call
	PhaseInvoke Phase = "invoke" // kernel invocation
	PhaseDecode Phase = "decode" // reading a reply buffer
	PhaseHost   Phase = "host"   // wasm host boundary
	PhaseConfig Phase = "config" // configuration loading
)

// Kind categorizes the error
type Kind string

// Kernel-reported kinds, one per Details variant.
const (
	KindInvalidArgument   Kind = "invalid_argument"
	KindInvalidCapability Kind = "invalid_capability"
	KindIllegalOperation  Kind = "illegal_operation"
	KindRangeError        Kind = "range_error"
	KindAlignmentError    Kind = "alignment_error"
	KindFailedLookup      Kind = "failed_lookup"
	KindTruncatedMessage  Kind = "truncated_message"
	KindDeleteFirst       Kind = "delete_first"
	KindRevokeFirst       Kind = "revoke_first"
	KindNotEnoughMemory   Kind = "not_enough_memory"
	KindTooMuchData       Kind = "too_much_data"
	KindTooManyCaps       Kind = "too_many_caps"
)

// Library kinds.
const (
	KindInvalidInput  Kind = "invalid_input"
	KindOutOfBounds   Kind = "out_of_bounds"
	KindNotFound      Kind = "not_found"
	KindClosed        Kind = "closed"
	KindRegistration  Kind = "registration"
	KindInstantiation Kind = "instantiation"
	KindTrap          Kind = "trap"
)

// Error is the structured error type used throughout capspace
type Error struct {
	Value   any
	Cause   error
	Details Details
	Phase   Phase
	Kind    Kind
	Op      string
	Detail  string
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

	detail := e.Detail
	if detail == "" && e.Details != nil {
		detail = e.Details.String()
	}
	if detail != "" {
		b.WriteString(": ")
		b.WriteString(detail)
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

// Is reports whether target matches this error. An empty Phase on the
// target matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
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

// Op sets the operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Details sets the kernel details
func (b *Builder) Details(d Details) *Builder {
	b.err.Details = d
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

// FromDetails wraps kernel details in an Error of the matching kind.
func FromDetails(phase Phase, op string, d Details) *Error {
	return &Error{
		Phase:   phase,
		Kind:    d.Kind(),
		Op:      op,
		Details: d,
	}
}

// DetailsOf returns the kernel details carried anywhere in err's chain.
func DetailsOf(err error) (Details, bool) {
	var e *Error
	if !stderrors.As(err, &e) || e.Details == nil {
		return nil, false
	}
	return e.Details, true
}

// Convenience constructors for common error patterns

// TooMuchDataError reports a message longer than the buffer holds.
func TooMuchDataError(op string, length, max int) *Error {
	return &Error{
		Phase:   PhaseLocal,
		Kind:    KindTooMuchData,
		Op:      op,
		Details: TooMuchData{},
		Value:   length,
		Detail:  fmt.Sprintf("%d words exceeds %d message registers", length, max),
	}
}

// TooManyCapsError reports more caps than one message may carry.
func TooManyCapsError(op string, count, max int) *Error {
	return &Error{
		Phase:   PhaseLocal,
		Kind:    KindTooManyCaps,
		Op:      op,
		Details: TooManyCaps{},
		Value:   count,
		Detail:  fmt.Sprintf("%d caps exceeds %d extra cap slots", count, max),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, what string, offset, length uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("%s at offset %d length %d out of bounds", what, offset, length),
		Value:  offset,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Closed reports use of a released resource.
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: what + " closed",
	}
}

// Registration creates a registration error
func Registration(phase Phase, namespace, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s#%s", namespace, name),
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
