package sim

import (
	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/errors"
	"github.com/wippyai/capspace/object"
	"go.uber.org/zap"
)

// retype carves objects out of the untyped at uloc. Message words: type,
// size bits, node index, node depth, node offset, count. Extra cap 0 is
// the root the destination CNode is looked up from; depth 0 names the
// root itself.
func (k *Kernel) retype(ucap *capability, uloc slotLoc, args []abi.Word, extra []*capability) errors.Details {
	if len(args) < 6 || len(extra) < 1 {
		return errors.TruncatedMessage{}
	}
	objType, userSize := args[0], args[1]
	nodeIndex, nodeDepth := args[2], args[3]
	nodeOffset, count := args[4], args[5]

	kind, ok := object.KindOf(objType)
	if !ok {
		return errors.InvalidArgument{Which: 0}
	}

	switch objType {
	case abi.UntypedObject:
		if userSize < abi.MinUntypedBits || userSize > abi.MaxUntypedBits {
			return errors.RangeError{Min: abi.MinUntypedBits, Max: abi.MaxUntypedBits}
		}
	case abi.CapTableObject:
		if userSize < 1 || userSize > abi.MaxUntypedBits-abi.SlotBits {
			return errors.RangeError{Min: 1, Max: abi.MaxUntypedBits - abi.SlotBits}
		}
	}
	objBits := kind.ObjectBits(userSize)

	destCap := extra[0]
	if nodeDepth != 0 {
		loc, d := k.lookupSlot(false, extra[0], nodeIndex, nodeDepth)
		if d != nil {
			return d
		}
		destCap = loc.cap()
	}
	if destCap == nil || destCap.typ != abi.CapTableObject {
		return errors.FailedLookup{Lookup: errors.MissingCapability{BitsRemaining: nodeDepth}}
	}
	v, _ := k.store.get(destCap.obj)
	dest := v.(*cnodeObj)

	size := abi.Word(len(dest.slots))
	if nodeOffset > size-1 {
		return errors.RangeError{Min: 0, Max: size - 1}
	}
	if count < 1 || count > abi.FanOutLimit {
		return errors.RangeError{Min: 1, Max: abi.FanOutLimit}
	}
	if count > size-nodeOffset {
		return errors.RangeError{Min: 1, Max: size - nodeOffset}
	}
	for i := nodeOffset; i < nodeOffset+count; i++ {
		if dest.slots[i] != nil {
			return errors.DeleteFirst{}
		}
	}

	uv, _ := k.store.get(ucap.obj)
	u := uv.(*untypedObj)
	if !k.hasChildren(ucap.id) {
		u.watermark = 0
	}
	start := alignUp(u.addr+u.watermark, objBits) - u.addr
	if objBits >= abi.WordBits-8 || start > u.size() || count<<objBits > u.size()-start {
		return errors.NotEnoughMemory{BytesAvailable: u.freeBytes()}
	}

	uid := ucap.obj
	for i := abi.Word(0); i < count; i++ {
		o := kobject{addr: u.addr + start + i<<objBits, sizeBits: objBits, from: uid}
		var value any
		switch objType {
		case abi.UntypedObject:
			value = &untypedObj{kobject: o}
		case abi.CapTableObject:
			value = newCNode(o, uint8(userSize))
		case abi.EndpointObject:
			value = &endpointObj{kobject: o}
		default:
			ko := o
			value = &ko
		}
		id := k.store.create(objType, value)
		k.insertCap(slotLoc{dest, int(nodeOffset + i)}, k.newCap(capability{
			parent: ucap.id,
			obj:    id,
			typ:    objType,
			rights: abi.AllRights,
		}))
		k.notify(Event{Object: id, Type: objType, Event: EventCreated, Addr: o.addr, SizeBits: objBits})
	}
	u.watermark = start + count<<objBits

	k.notify(Event{Object: uid, Type: abi.UntypedObject, Event: EventRetyped, Addr: u.addr, SizeBits: u.sizeBits, Count: int(count)})
	k.log.Debug("retype",
		zap.String("kind", kind.Name),
		zap.Uint64("size_bits", objBits),
		zap.Uint64("offset", nodeOffset),
		zap.Uint64("count", count),
		zap.Uint64("free", u.freeBytes()),
		zap.Int("untyped_slot", uloc.index))
	return nil
}
