package sim

import (
	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/errors"
)

// resolveAddressBits walks the guarded radix tree from nodeCap, consuming
// the low nBits of cptr most significant first. It stops at the slot where
// the bits run out or where a non-CNode cap is found, and returns the bits
// left unresolved.
func (k *Kernel) resolveAddressBits(nodeCap *capability, cptr abi.Word, nBits uint) (slotLoc, uint, errors.LookupFailure) {
	if nodeCap == nil || nodeCap.typ != abi.CapTableObject {
		return slotLoc{}, 0, errors.InvalidRoot{}
	}

	for {
		v, ok := k.store.getTyped(nodeCap.obj, abi.CapTableObject)
		if !ok {
			return slotLoc{}, 0, errors.InvalidRoot{}
		}
		node := v.(*cnodeObj)

		radixBits := uint(node.radix)
		guardBits := uint(nodeCap.guardSize)
		levelBits := radixBits + guardBits

		var guard abi.Word
		if guardBits <= nBits {
			guard = (cptr >> (nBits - guardBits)) & abi.Mask(guardBits)
		}
		if guardBits > nBits || guard != nodeCap.guard {
			return slotLoc{}, 0, errors.GuardMismatch{
				BitsRemaining: abi.Word(nBits),
				Guard:         nodeCap.guard,
				GuardSize:     abi.Word(guardBits),
			}
		}

		if levelBits > nBits {
			return slotLoc{}, 0, errors.DepthMismatch{
				BitsRemaining: abi.Word(nBits),
				BitsResolved:  abi.Word(levelBits),
			}
		}

		offset := (cptr >> (nBits - levelBits)) & abi.Mask(radixBits)
		loc := slotLoc{node: node, index: int(offset)}

		if nBits == levelBits {
			return loc, 0, nil
		}
		nBits -= levelBits

		next := loc.cap()
		if next == nil || next.typ != abi.CapTableObject {
			return loc, nBits, nil
		}
		nodeCap = next
	}
}

// lookupCap finds the capability an invocation address names, resolving
// a full word from root.
func (k *Kernel) lookupCap(root *capability, cptr abi.CPtr) (*capability, slotLoc, bool) {
	loc, _, failure := k.resolveAddressBits(root, cptr, abi.WordBits)
	if failure != nil {
		return nil, slotLoc{}, false
	}
	c := loc.cap()
	return c, loc, c != nil
}

// lookupSlot finds the slot a CNode operation targets. Unlike lookupCap
// the depth must land exactly on a slot.
func (k *Kernel) lookupSlot(isSource bool, root *capability, index, depth abi.Word) (slotLoc, errors.Details) {
	if root == nil || root.typ != abi.CapTableObject {
		return slotLoc{}, errors.FailedLookup{FailedForSource: isSource, Lookup: errors.InvalidRoot{}}
	}
	if depth < 1 || depth > abi.WordBits {
		return slotLoc{}, errors.RangeError{Min: 1, Max: abi.WordBits}
	}

	loc, remaining, failure := k.resolveAddressBits(root, index, uint(depth))
	if failure != nil {
		return slotLoc{}, errors.FailedLookup{FailedForSource: isSource, Lookup: failure}
	}
	if remaining != 0 {
		return slotLoc{}, errors.FailedLookup{
			FailedForSource: isSource,
			Lookup:          errors.DepthMismatch{BitsRemaining: abi.Word(remaining)},
		}
	}
	return loc, nil
}
