package cspace

import (
	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/addr"
)

// Window is a run of NumSlots consecutive slots starting at FirstSlot in
// the table that Table refers to. Keeping FirstSlot+NumSlots within the
// table is the caller's job.
type Window struct {
	Table     SlotRef
	FirstSlot int
	NumSlots  int
}

// AddressOf returns the address of the i-th slot of the window, built from
// the table's own address as prefix. It reports false when i is outside
// the window.
func (w Window) AddressOf(shape addr.TableShape, i int) (abi.Word, bool) {
	if i < 0 || i >= w.NumSlots {
		return 0, false
	}
	return addr.Encode(shape, addr.Decoded{
		Prefix: w.Table.Index,
		Guard:  shape.GuardValue,
		Radix:  abi.Word(w.FirstSlot + i),
	}), true
}

// SlotRefOf is AddressOf as a SlotRef resolved from the table's root.
func (w Window) SlotRefOf(shape addr.TableShape, i int) (SlotRef, bool) {
	a, ok := w.AddressOf(shape, i)
	if !ok {
		return SlotRef{}, false
	}
	return SlotRef{Root: w.Table.Root, Index: a, Depth: uint8(shape.ResolvedBits())}, true
}

// Addresses returns the address of every slot in the window.
func (w Window) Addresses(shape addr.TableShape) []abi.Word {
	out := make([]abi.Word, 0, max(w.NumSlots, 0))
	for i := 0; i < w.NumSlots; i++ {
		a, _ := w.AddressOf(shape, i)
		out = append(out, a)
	}
	return out
}

// Slice returns the sub-window of n slots starting at offset within w.
func (w Window) Slice(offset, n int) Window {
	return Window{Table: w.Table, FirstSlot: w.FirstSlot + offset, NumSlots: n}
}
