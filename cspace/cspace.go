package cspace

import (
	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/ipc"
)

// CNode is a capability to a capability table, addressed in the invoking
// context's cspace.
type CNode struct {
	CPtr abi.CPtr
}

// SlotRef names one slot: the low Depth bits of Index resolved from Root.
// Depth 0 names the slot holding Root itself.
type SlotRef struct {
	Root  CNode
	Index abi.Word
	Depth uint8
}

// Slot returns the slot index in root, resolved with the given depth.
func (c CNode) Slot(index abi.Word, depth uint8) SlotRef {
	return SlotRef{Root: c, Index: index, Depth: depth}
}

// Copy places a copy of the capability in r into dest with rights masked
// by rights.
func (r SlotRef) Copy(s *ipc.Session, dest SlotRef, rights abi.CapRights) error {
	_, err := s.Invoke(dest.Root.CPtr, abi.CNodeCopy,
		[]abi.Word{dest.Index, abi.Word(dest.Depth), r.Index, abi.Word(r.Depth), abi.Word(rights)},
		[]abi.CPtr{r.Root.CPtr})
	return err
}

// Mint is Copy that also sets the badge of the derived capability.
func (r SlotRef) Mint(s *ipc.Session, dest SlotRef, rights abi.CapRights, badge Badge) error {
	_, err := s.Invoke(dest.Root.CPtr, abi.CNodeMint,
		[]abi.Word{dest.Index, abi.Word(dest.Depth), r.Index, abi.Word(r.Depth), abi.Word(rights), abi.Word(badge.Data())},
		[]abi.CPtr{r.Root.CPtr})
	return err
}

// Move transfers the capability in r to dest, leaving r empty.
func (r SlotRef) Move(s *ipc.Session, dest SlotRef) error {
	_, err := s.Invoke(dest.Root.CPtr, abi.CNodeMove,
		[]abi.Word{dest.Index, abi.Word(dest.Depth), r.Index, abi.Word(r.Depth)},
		[]abi.CPtr{r.Root.CPtr})
	return err
}

// Mutate is Move that also sets the badge.
func (r SlotRef) Mutate(s *ipc.Session, dest SlotRef, badge Badge) error {
	_, err := s.Invoke(dest.Root.CPtr, abi.CNodeMutate,
		[]abi.Word{dest.Index, abi.Word(dest.Depth), r.Index, abi.Word(r.Depth), abi.Word(badge.Data())},
		[]abi.CPtr{r.Root.CPtr})
	return err
}

// Delete empties the slot.
func (r SlotRef) Delete(s *ipc.Session) error {
	_, err := s.Invoke(r.Root.CPtr, abi.CNodeDelete,
		[]abi.Word{r.Index, abi.Word(r.Depth)}, nil)
	return err
}

// Revoke deletes every capability derived from the one in r.
func (r SlotRef) Revoke(s *ipc.Session) error {
	_, err := s.Invoke(r.Root.CPtr, abi.CNodeRevoke,
		[]abi.Word{r.Index, abi.Word(r.Depth)}, nil)
	return err
}

// Rotate moves pivot to dest and src to pivot in one step, badging both.
// dest must be empty; src and dest may be the same slot.
func Rotate(s *ipc.Session, dest SlotRef, destBadge Badge, pivot SlotRef, pivotBadge Badge, src SlotRef) error {
	_, err := s.Invoke(dest.Root.CPtr, abi.CNodeRotate,
		[]abi.Word{
			dest.Index, abi.Word(dest.Depth), abi.Word(destBadge.Data()),
			pivot.Index, abi.Word(pivot.Depth), abi.Word(pivotBadge.Data()),
			src.Index, abi.Word(src.Depth),
		},
		[]abi.CPtr{pivot.Root.CPtr, src.Root.CPtr})
	return err
}

// SetCapDestination sets the slot that receives a capability transferred
// by the next receive on this session.
func SetCapDestination(s *ipc.Session, slot SlotRef) {
	s.WithBuffer(func(b *ipc.Buffer) {
		b.SetReceiveSlot(ipc.ReceiveSlot{
			CNode: slot.Root.CPtr,
			Index: slot.Index,
			Depth: abi.Word(slot.Depth),
		})
	})
}

// CapDestination returns the configured receive slot.
func CapDestination(s *ipc.Session) SlotRef {
	var slot SlotRef
	s.WithBuffer(func(b *ipc.Buffer) {
		r := b.GetReceiveSlot()
		slot = SlotRef{Root: CNode{CPtr: r.CNode}, Index: r.Index, Depth: uint8(r.Depth)}
	})
	return slot
}
