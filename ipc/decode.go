package ipc

import (
	"fmt"

	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/errors"
)

// DecodeError interprets the reply in b. A NoError label yields (nil, false),
// as does a FailedLookup whose nested label is NoFailure. Labels outside the
// taxonomy mean the kernel and library disagree on the ABI and panic.
func DecodeError(b *Buffer) (errors.Details, bool) {
	switch label := b.Tag.Label(); label {
	case abi.NoError:
		return nil, false
	case abi.InvalidArgument:
		return errors.InvalidArgument{Which: b.Msg[0]}, true
	case abi.InvalidCapability:
		return errors.InvalidCapability{Which: b.Msg[0]}, true
	case abi.IllegalOperation:
		return errors.IllegalOperation{}, true
	case abi.RangeError:
		return errors.RangeError{Min: b.Msg[0], Max: b.Msg[1]}, true
	case abi.AlignmentError:
		return errors.AlignmentError{}, true
	case abi.FailedLookup:
		lookup, ok := decodeLookupFailure(b.Msg[1], b.Msg[2:])
		if !ok {
			return nil, false
		}
		return errors.FailedLookup{FailedForSource: b.Msg[0] == 1, Lookup: lookup}, true
	case abi.TruncatedMessage:
		return errors.TruncatedMessage{}, true
	case abi.DeleteFirst:
		return errors.DeleteFirst{}, true
	case abi.RevokeFirst:
		return errors.RevokeFirst{}, true
	case abi.NotEnoughMemory:
		return errors.NotEnoughMemory{BytesAvailable: b.Msg[0]}, true
	default:
		panic(fmt.Sprintf("ipc: unknown error label %d", label))
	}
}

func decodeLookupFailure(label abi.Word, w []abi.Word) (errors.LookupFailure, bool) {
	switch label {
	case abi.NoFailure:
		return nil, false
	case abi.InvalidRoot:
		return errors.InvalidRoot{}, true
	case abi.MissingCapability:
		return errors.MissingCapability{BitsRemaining: w[0]}, true
	case abi.DepthMismatch:
		return errors.DepthMismatch{BitsRemaining: w[0], BitsResolved: w[1]}, true
	case abi.GuardMismatch:
		return errors.GuardMismatch{BitsRemaining: w[0], Guard: w[1], GuardSize: w[2]}, true
	default:
		panic(fmt.Sprintf("ipc: unknown lookup failure label %d", label))
	}
}

// EncodeError writes d into b the way a kernel reports it, overwriting the
// tag and the message registers it uses. A nil d writes a NoError reply.
// Details produced only locally (TooMuchData, TooManyCaps) panic.
func EncodeError(b *Buffer, d errors.Details) {
	var (
		label abi.Word
		words []abi.Word
	)
	switch d := d.(type) {
	case nil:
		label = abi.NoError
	case errors.InvalidArgument:
		label, words = abi.InvalidArgument, []abi.Word{d.Which}
	case errors.InvalidCapability:
		label, words = abi.InvalidCapability, []abi.Word{d.Which}
	case errors.IllegalOperation:
		label = abi.IllegalOperation
	case errors.RangeError:
		label, words = abi.RangeError, []abi.Word{d.Min, d.Max}
	case errors.AlignmentError:
		label = abi.AlignmentError
	case errors.FailedLookup:
		var src abi.Word
		if d.FailedForSource {
			src = 1
		}
		label = abi.FailedLookup
		words = append([]abi.Word{src}, encodeLookupFailure(d.Lookup)...)
	case errors.TruncatedMessage:
		label = abi.TruncatedMessage
	case errors.DeleteFirst:
		label = abi.DeleteFirst
	case errors.RevokeFirst:
		label = abi.RevokeFirst
	case errors.NotEnoughMemory:
		label, words = abi.NotEnoughMemory, []abi.Word{d.BytesAvailable}
	default:
		panic(fmt.Sprintf("ipc: %T has no wire encoding", d))
	}
	copy(b.Msg[:], words)
	b.Tag = abi.NewMessageInfo(label, 0, 0, abi.Word(len(words)))
}

func encodeLookupFailure(l errors.LookupFailure) []abi.Word {
	switch l := l.(type) {
	case nil:
		return []abi.Word{abi.NoFailure}
	case errors.InvalidRoot:
		return []abi.Word{abi.InvalidRoot}
	case errors.MissingCapability:
		return []abi.Word{abi.MissingCapability, l.BitsRemaining}
	case errors.DepthMismatch:
		return []abi.Word{abi.DepthMismatch, l.BitsRemaining, l.BitsResolved}
	case errors.GuardMismatch:
		return []abi.Word{abi.GuardMismatch, l.BitsRemaining, l.Guard, l.GuardSize}
	default:
		panic(fmt.Sprintf("ipc: %T has no wire encoding", l))
	}
}
