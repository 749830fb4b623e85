// Package addr packs and unpacks capability addresses.
//
// A capability address is one machine word split into four contiguous
// fields, high to low:
//
//	| prefix | guard | radix | leftover |
//
// The prefix names the table (the bits consumed by levels above it), the
// guard is what the table expects to see before its index, the radix selects
// the slot and the leftover bits are left for a deeper level. A TableShape
// gives the widths for one level of the guarded radix tree. The kernel does
// not report shapes, so callers supply them.
package addr

import (
	"fmt"

	"github.com/wippyai/capspace/abi"
)

// TableShape describes one level of a guarded radix capability table.
type TableShape struct {
	GuardValue abi.Word
	RadixBits  uint8
	GuardBits  uint8
	PrefixBits uint8
}

// Valid reports whether the fields fit in one word.
func (s TableShape) Valid() bool {
	return s.ResolvedBits() <= abi.WordBits
}

// ResolvedBits is the number of address bits consumed down to and including
// this level. It exceeds abi.WordBits for shapes that are not Valid.
func (s TableShape) ResolvedBits() uint {
	return uint(s.RadixBits) + uint(s.GuardBits) + uint(s.PrefixBits)
}

// LeftoverBits is the number of low-order bits not consumed at this level.
func (s TableShape) LeftoverBits() uint {
	return abi.WordBits - uint(s.PrefixBits) - uint(s.GuardBits) - uint(s.RadixBits)
}

// Slots returns the number of slots in the table, 2^RadixBits.
func (s TableShape) Slots() uint64 {
	if s.RadixBits >= abi.WordBits {
		return 0
	}
	return 1 << s.RadixBits
}

func (s TableShape) String() string {
	return fmt.Sprintf("prefix=%d guard=%d/%#x radix=%d", s.PrefixBits, s.GuardBits, s.GuardValue, s.RadixBits)
}

// Decoded is one address split according to a TableShape.
type Decoded struct {
	Prefix   abi.Word
	Guard    abi.Word
	Radix    abi.Word
	Leftover abi.Word
}

// Decode splits w into its fields. Any word decodes; whether the result
// names a real slot is for the caller to judge.
func Decode(shape TableShape, w abi.Word) Decoded {
	var d Decoded

	lb := shape.LeftoverBits()
	d.Leftover = w & abi.Mask(lb)
	w = shr(w, lb)

	d.Radix = w & abi.Mask(uint(shape.RadixBits))
	w = shr(w, uint(shape.RadixBits))

	d.Guard = w & abi.Mask(uint(shape.GuardBits))
	w = shr(w, uint(shape.GuardBits))

	d.Prefix = w
	return d
}

// Encode joins d into one word. Each field is masked to its width first so
// an oversized field cannot spill into its neighbour.
func Encode(shape TableShape, d Decoded) abi.Word {
	w := d.Prefix & abi.Mask(uint(shape.PrefixBits))
	w = shl(w, uint(shape.GuardBits)) | d.Guard&abi.Mask(uint(shape.GuardBits))
	w = shl(w, uint(shape.RadixBits)) | d.Radix&abi.Mask(uint(shape.RadixBits))

	lb := shape.LeftoverBits()
	w = shl(w, lb) | d.Leftover&abi.Mask(lb)
	return w
}

// Fits reports whether every field of d fits its declared width.
func (d Decoded) Fits(shape TableShape) bool {
	return d.Prefix&^abi.Mask(uint(shape.PrefixBits)) == 0 &&
		d.Guard&^abi.Mask(uint(shape.GuardBits)) == 0 &&
		d.Radix&^abi.Mask(uint(shape.RadixBits)) == 0 &&
		d.Leftover&^abi.Mask(shape.LeftoverBits()) == 0
}

func (d Decoded) String() string {
	return fmt.Sprintf("prefix=%#x guard=%#x radix=%#x leftover=%#x", d.Prefix, d.Guard, d.Radix, d.Leftover)
}

// Go defines shifts by >= the operand width as zero for unsigned values;
// these helpers keep that explicit at the call sites.
func shr(w abi.Word, n uint) abi.Word {
	if n >= abi.WordBits {
		return 0
	}
	return w >> n
}

func shl(w abi.Word, n uint) abi.Word {
	if n >= abi.WordBits {
		return 0
	}
	return w << n
}
