package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "kernel details",
			err: &Error{
				Phase:   PhaseInvoke,
				Kind:    KindRangeError,
				Op:      "untyped.retype",
				Details: RangeError{Min: 1, Max: 256},
			},
			contains: []string{"[invoke]", "range_error", "untyped.retype", "min = 1", "max = 256"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "detail overrides details text",
			err: &Error{
				Phase:   PhaseLocal,
				Kind:    KindTooMuchData,
				Details: TooMuchData{},
				Detail:  "121 words",
			},
			contains: []string{"[local]", "too_much_data", "121 words"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseHost,
				Kind:   KindOutOfBounds,
				Detail: "ipc buffer",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[host]", "out_of_bounds", "ipc buffer", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseHost,
		Kind:  KindInstantiation,
		Cause: cause,
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := FromDetails(PhaseInvoke, "cnode.copy", DeleteFirst{})

	if !err.Is(&Error{Phase: PhaseInvoke, Kind: KindDeleteFirst}) {
		t.Error("Is should match same phase and kind")
	}
	if !err.Is(&Error{Kind: KindDeleteFirst}) {
		t.Error("Is should match any phase when target phase is empty")
	}
	if err.Is(&Error{Phase: PhaseLocal, Kind: KindDeleteFirst}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Kind: KindRevokeFirst}) {
		t.Error("Is should not match different kind")
	}

	wrapped := fmt.Errorf("copy slot: %w", err)
	if !errors.Is(wrapped, &Error{Kind: KindDeleteFirst}) {
		t.Error("errors.Is should see through wrapping")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseInvoke, KindNotEnoughMemory).
		Op("untyped.retype").
		Details(NotEnoughMemory{BytesAvailable: 64}).
		Value(3).
		Cause(cause).
		Detail("wanted %d objects", 3).
		Build()

	if err.Phase != PhaseInvoke || err.Kind != KindNotEnoughMemory {
		t.Errorf("Phase/Kind = %v/%v", err.Phase, err.Kind)
	}
	if err.Op != "untyped.retype" {
		t.Errorf("Op = %q", err.Op)
	}
	if d, ok := err.Details.(NotEnoughMemory); !ok || d.BytesAvailable != 64 {
		t.Errorf("Details = %#v", err.Details)
	}
	if err.Value != 3 {
		t.Errorf("Value = %v", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v", err.Cause)
	}
	if err.Detail != "wanted 3 objects" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestDetailsOf(t *testing.T) {
	want := FailedLookup{
		FailedForSource: true,
		Lookup:          GuardMismatch{BitsRemaining: 3, Guard: 0xF, GuardSize: 4},
	}
	err := fmt.Errorf("mint: %w", FromDetails(PhaseInvoke, "cnode.mint", want))

	got, ok := DetailsOf(err)
	if !ok {
		t.Fatal("DetailsOf found nothing")
	}
	if got != want {
		t.Fatalf("DetailsOf = %#v, want %#v", got, want)
	}

	if _, ok := DetailsOf(errors.New("plain")); ok {
		t.Error("plain error has no details")
	}
	if _, ok := DetailsOf(InvalidInput(PhaseConfig, "bad")); ok {
		t.Error("library error has no details")
	}
}

func TestDetails_KindAndString(t *testing.T) {
	tests := []struct {
		d        Details
		kind     Kind
		contains string
	}{
		{InvalidArgument{Which: 2}, KindInvalidArgument, "argument 2"},
		{InvalidCapability{Which: 1}, KindInvalidCapability, "capability 1"},
		{IllegalOperation{}, KindIllegalOperation, "not permitted"},
		{RangeError{Min: 5, Max: 10}, KindRangeError, "min = 5, max = 10"},
		{AlignmentError{}, KindAlignmentError, "aligned"},
		{FailedLookup{Lookup: InvalidRoot{}}, KindFailedLookup, "destination"},
		{FailedLookup{FailedForSource: true, Lookup: MissingCapability{BitsRemaining: 7}}, KindFailedLookup, "7 bits"},
		{FailedLookup{Lookup: DepthMismatch{BitsRemaining: 4, BitsResolved: 60}}, KindFailedLookup, "resolving 60 bits"},
		{TruncatedMessage{}, KindTruncatedMessage, "too few"},
		{DeleteFirst{}, KindDeleteFirst, "deleted"},
		{RevokeFirst{}, KindRevokeFirst, "revoked"},
		{NotEnoughMemory{BytesAvailable: 4096}, KindNotEnoughMemory, "4096 bytes"},
		{TooMuchData{}, KindTooMuchData, "data"},
		{TooManyCaps{}, KindTooManyCaps, "caps"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if tt.d.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", tt.d.Kind(), tt.kind)
			}
			if !strings.Contains(tt.d.String(), tt.contains) {
				t.Errorf("String() = %q, want it to contain %q", tt.d.String(), tt.contains)
			}
		})
	}
}

func TestLocalConstructors(t *testing.T) {
	err := TooMuchDataError("endpoint.send", 121, 120)
	if err.Phase != PhaseLocal || err.Kind != KindTooMuchData {
		t.Errorf("TooMuchDataError = %v/%v", err.Phase, err.Kind)
	}
	if _, ok := err.Details.(TooMuchData); !ok {
		t.Errorf("Details = %#v", err.Details)
	}

	err = TooManyCapsError("endpoint.send", 4, 3)
	if err.Kind != KindTooManyCaps {
		t.Errorf("TooManyCapsError kind = %v", err.Kind)
	}
}
