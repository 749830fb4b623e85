package errors

import (
	"fmt"

	"github.com/wippyai/capspace/abi"
)

// Details is the typed diagnosis of a failed kernel invocation.
// The set of implementations is closed.
type Details interface {
	Kind() Kind
	String() string
	details()
}

type (
	// InvalidArgument reports which argument the kernel rejected.
	InvalidArgument struct{ Which abi.Word }

	// InvalidCapability reports which capability argument was unusable.
	InvalidCapability struct{ Which abi.Word }

	IllegalOperation struct{}

	// RangeError reports the accepted bounds for an out-of-range argument.
	RangeError struct{ Min, Max abi.Word }

	AlignmentError struct{}

	// FailedLookup reports that resolving a capability address failed.
	FailedLookup struct {
		Lookup          LookupFailure
		FailedForSource bool
	}

	TruncatedMessage struct{}
	DeleteFirst      struct{}
	RevokeFirst      struct{}

	// NotEnoughMemory reports the bytes left in the untyped.
	NotEnoughMemory struct{ BytesAvailable abi.Word }

	// TooMuchData and TooManyCaps are detected before any call is made.
	TooMuchData struct{}
	TooManyCaps struct{}
)

func (InvalidArgument) Kind() Kind   { return KindInvalidArgument }
func (InvalidCapability) Kind() Kind { return KindInvalidCapability }
func (IllegalOperation) Kind() Kind  { return KindIllegalOperation }
func (RangeError) Kind() Kind        { return KindRangeError }
func (AlignmentError) Kind() Kind    { return KindAlignmentError }
func (FailedLookup) Kind() Kind      { return KindFailedLookup }
func (TruncatedMessage) Kind() Kind  { return KindTruncatedMessage }
func (DeleteFirst) Kind() Kind       { return KindDeleteFirst }
func (RevokeFirst) Kind() Kind       { return KindRevokeFirst }
func (NotEnoughMemory) Kind() Kind   { return KindNotEnoughMemory }
func (TooMuchData) Kind() Kind       { return KindTooMuchData }
func (TooManyCaps) Kind() Kind       { return KindTooManyCaps }

func (InvalidArgument) details()   {}
func (InvalidCapability) details() {}
func (IllegalOperation) details()  {}
func (RangeError) details()        {}
func (AlignmentError) details()    {}
func (FailedLookup) details()      {}
func (TruncatedMessage) details()  {}
func (DeleteFirst) details()       {}
func (RevokeFirst) details()       {}
func (NotEnoughMemory) details()   {}
func (TooMuchData) details()       {}
func (TooManyCaps) details()       {}

func (d InvalidArgument) String() string {
	return fmt.Sprintf("argument %d was invalid", d.Which)
}

func (d InvalidCapability) String() string {
	return fmt.Sprintf("capability %d was invalid", d.Which)
}

func (IllegalOperation) String() string { return "operation not permitted" }

func (d RangeError) String() string {
	return fmt.Sprintf("value out of range (min = %d, max = %d)", d.Min, d.Max)
}

func (AlignmentError) String() string { return "value not aligned" }

func (d FailedLookup) String() string {
	which := "destination"
	if d.FailedForSource {
		which = "source"
	}
	if d.Lookup == nil {
		return fmt.Sprintf("looking up %s capability failed", which)
	}
	return fmt.Sprintf("looking up %s capability failed: %s", which, d.Lookup)
}

func (TruncatedMessage) String() string { return "too few arguments in message" }

func (DeleteFirst) String() string { return "destination slot must be deleted first" }

func (RevokeFirst) String() string { return "capability must be revoked first" }

func (d NotEnoughMemory) String() string {
	return fmt.Sprintf("only %d bytes available in untyped", d.BytesAvailable)
}

func (TooMuchData) String() string { return "message data exceeds IPC buffer" }

func (TooManyCaps) String() string { return "message caps exceed IPC buffer" }

// LookupFailure describes where capability address resolution stopped.
// The set of implementations is closed.
type LookupFailure interface {
	String() string
	lookupFailure()
}

type (
	// InvalidRoot means the root was not a CNode cap.
	InvalidRoot struct{}

	// MissingCapability means resolution reached an empty slot.
	MissingCapability struct{ BitsRemaining abi.Word }

	// DepthMismatch means the depth did not land on a slot boundary.
	DepthMismatch struct{ BitsRemaining, BitsResolved abi.Word }

	// GuardMismatch means the address did not carry a table's guard.
	GuardMismatch struct{ BitsRemaining, Guard, GuardSize abi.Word }
)

func (InvalidRoot) lookupFailure()       {}
func (MissingCapability) lookupFailure() {}
func (DepthMismatch) lookupFailure()     {}
func (GuardMismatch) lookupFailure()     {}

func (InvalidRoot) String() string { return "root of the address space was not a valid CNode" }

func (l MissingCapability) String() string {
	return fmt.Sprintf("empty slot with %d bits left to resolve", l.BitsRemaining)
}

func (l DepthMismatch) String() string {
	return fmt.Sprintf("depth mismatch after resolving %d bits with %d bits left", l.BitsResolved, l.BitsRemaining)
}

func (l GuardMismatch) String() string {
	return fmt.Sprintf("guard %#x (%d bits) did not match with %d bits left", l.Guard, l.GuardSize, l.BitsRemaining)
}
