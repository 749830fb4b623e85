package sim

import (
	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/errors"
	"go.uber.org/zap"
)

// invoke performs a Call on the object dest names in t's cspace and
// returns the failure to report, nil on success.
func (k *Kernel) invoke(t *Thread, dest abi.CPtr, info abi.MessageInfo) errors.Details {
	target, loc, ok := k.lookupCap(t.root, dest)
	if !ok {
		return errors.InvalidCapability{Which: 0}
	}

	n := min(int(info.Length()), abi.MsgMaxLength)
	args := make([]abi.Word, n)
	copy(args, t.buf.Msg[:n])

	extra := make([]*capability, 0, info.ExtraCaps())
	for i, n := 0, min(int(info.ExtraCaps()), abi.MsgMaxExtraCaps); i < n; i++ {
		c, _, ok := k.lookupCap(t.root, t.buf.CapsOrBadges[i])
		if !ok {
			return errors.InvalidCapability{Which: abi.Word(i + 1)}
		}
		extra = append(extra, c)
	}

	label := info.Label()
	switch target.typ {
	case abi.UntypedObject:
		if label != abi.UntypedRetype {
			return errors.IllegalOperation{}
		}
		return k.retype(target, loc, args, extra)
	case abi.CapTableObject:
		return k.invokeCNode(target, label, args, extra)
	default:
		return errors.IllegalOperation{}
	}
}

var cnodeArgs = map[abi.InvocationLabel]struct{ words, caps int }{
	abi.CNodeRevoke: {2, 0},
	abi.CNodeDelete: {2, 0},
	abi.CNodeCopy:   {5, 1},
	abi.CNodeMint:   {6, 1},
	abi.CNodeMove:   {4, 1},
	abi.CNodeMutate: {5, 1},
	abi.CNodeRotate: {8, 2},
}

func (k *Kernel) invokeCNode(node *capability, label abi.InvocationLabel, args []abi.Word, extra []*capability) errors.Details {
	need, ok := cnodeArgs[label]
	if !ok {
		return errors.IllegalOperation{}
	}
	if len(args) < need.words || len(extra) < need.caps {
		return errors.TruncatedMessage{}
	}

	switch label {
	case abi.CNodeRevoke, abi.CNodeDelete:
		loc, d := k.lookupSlot(false, node, args[0], args[1])
		if d != nil {
			return d
		}
		if label == abi.CNodeRevoke {
			k.revoke(loc)
		} else {
			k.removeCap(loc)
		}
		return nil
	case abi.CNodeRotate:
		return k.rotate(node, args, extra)
	}

	destLoc, d := k.lookupSlot(false, node, args[0], args[1])
	if d != nil {
		return d
	}
	if destLoc.cap() != nil {
		return errors.DeleteFirst{}
	}

	srcLoc, d := k.lookupSlot(true, extra[0], args[2], args[3])
	if d != nil {
		return d
	}
	src := srcLoc.cap()
	if src == nil {
		return errors.FailedLookup{FailedForSource: true, Lookup: errors.MissingCapability{BitsRemaining: args[3]}}
	}

	switch label {
	case abi.CNodeCopy, abi.CNodeMint:
		if src.typ == abi.UntypedObject && k.hasChildren(src.id) {
			return errors.RevokeFirst{}
		}
		nc := *src
		nc.rights &= abi.CapRights(args[4])
		if label == abi.CNodeMint && !k.applyCapData(&nc, abi.CapData(args[5])) {
			return errors.IllegalOperation{}
		}
		nc.parent = src.id
		k.insertCap(destLoc, k.newCap(nc))
	case abi.CNodeMove, abi.CNodeMutate:
		if label == abi.CNodeMutate {
			nc := *src
			if !k.applyCapData(&nc, abi.CapData(args[4])) {
				return errors.IllegalOperation{}
			}
			*src = nc
		}
		k.moveCap(srcLoc, destLoc)
	}

	k.log.Debug("cnode invocation", zap.String("op", abi.InvocationName(label)), zap.Int("dest", destLoc.index))
	return nil
}

// rotate moves the cap at pivot to dest and the cap at src to pivot.
// Message words: dest index, dest depth, dest data, pivot index, pivot
// depth, pivot data, src index, src depth. Extra caps: pivot root, src root.
func (k *Kernel) rotate(node *capability, args []abi.Word, extra []*capability) errors.Details {
	destLoc, d := k.lookupSlot(false, node, args[0], args[1])
	if d != nil {
		return d
	}
	pivotLoc, d := k.lookupSlot(true, extra[0], args[3], args[4])
	if d != nil {
		return d
	}
	srcLoc, d := k.lookupSlot(true, extra[1], args[6], args[7])
	if d != nil {
		return d
	}

	if pivotLoc == srcLoc || pivotLoc == destLoc {
		return errors.IllegalOperation{}
	}
	if srcLoc != destLoc && destLoc.cap() != nil {
		return errors.DeleteFirst{}
	}
	src, pivot := srcLoc.cap(), pivotLoc.cap()
	if src == nil {
		return errors.FailedLookup{FailedForSource: true, Lookup: errors.MissingCapability{BitsRemaining: args[7]}}
	}
	if pivot == nil {
		return errors.FailedLookup{FailedForSource: true, Lookup: errors.MissingCapability{BitsRemaining: args[4]}}
	}

	newPivot, newSrc := *pivot, *src
	if !k.applyCapData(&newPivot, abi.CapData(args[2])) || !k.applyCapData(&newSrc, abi.CapData(args[5])) {
		return errors.IllegalOperation{}
	}
	*pivot, *src = newPivot, newSrc

	if srcLoc == destLoc {
		// swap
		pivotLoc.node.slots[pivotLoc.index], srcLoc.node.slots[srcLoc.index] = src, pivot
		k.caps[src.id], k.caps[pivot.id] = pivotLoc, srcLoc
		return nil
	}
	k.moveCap(pivotLoc, destLoc)
	k.moveCap(srcLoc, pivotLoc)
	return nil
}

// applyCapData sets the badge of endpoint and notification caps or the
// guard of CNode caps. It reports false when the cap cannot take data:
// already badged, or a guard that would not fit in a word.
func (k *Kernel) applyCapData(c *capability, data abi.CapData) bool {
	switch c.typ {
	case abi.EndpointObject, abi.NotificationObject:
		if c.badge != 0 {
			return false
		}
		c.badge = abi.Word(data.Badge())
	case abi.CapTableObject:
		size := data.GuardSize()
		v, ok := k.store.getTyped(c.obj, abi.CapTableObject)
		if !ok || int(size)+int(v.(*cnodeObj).radix) > abi.WordBits {
			return false
		}
		c.guard = data.Guard() & abi.Mask(uint(size))
		c.guardSize = size
	}
	return true
}
