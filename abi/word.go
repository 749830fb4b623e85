package abi

// Word is one machine register.
type Word = uint64

// WordBits is the width of Word in bits.
const WordBits = 64

// WordBytes is the width of Word in bytes.
const WordBytes = WordBits / 8

// CPtr is a capability address resolved against a thread's cspace root.
type CPtr = Word

// Mask returns a word with the low n bits set. n >= WordBits yields all ones.
func Mask(n uint) Word {
	if n >= WordBits {
		return ^Word(0)
	}
	return Word(1)<<n - 1
}

const (
	// MsgMaxLength is the number of message registers in the IPC buffer.
	MsgMaxLength = 120

	// MsgExtraCapBits is the width of the extra-caps field of a message tag.
	MsgExtraCapBits = 2

	// MsgMaxExtraCaps is the most capabilities one message may carry.
	MsgMaxExtraCaps = 1<<MsgExtraCapBits - 1

	// FanOutLimit is the most objects a single retype may create.
	FanOutLimit = 256

	// SlotBits is log2 of the size of one capability slot in bytes.
	SlotBits = 5

	// MinUntypedBits and MaxUntypedBits bound the size of untyped objects.
	MinUntypedBits = 4
	MaxUntypedBits = 47
)
