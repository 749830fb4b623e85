package sim

import "github.com/wippyai/capspace/abi"

// capability is the content of one slot. id and parent link it into the
// derivation tree; parent 0 means an original capability.
type capability struct {
	id     uint64
	parent uint64
	obj    ObjectID
	typ    abi.ObjectType
	rights abi.CapRights

	// badge applies to endpoint and notification caps.
	badge abi.Word

	// guard and guardSize apply to CNode caps.
	guard     abi.Word
	guardSize uint8
}

// kobject is the part every kernel object has: where it lives and how big
// it is. from is the untyped it was carved from, 0 for boot objects.
type kobject struct {
	addr     abi.Word
	sizeBits abi.Word
	from     ObjectID
}

func (o *kobject) base() *kobject { return o }

type objectBase interface {
	base() *kobject
}

type untypedObj struct {
	kobject

	// watermark is the offset of the first free byte.
	watermark abi.Word
}

func (u *untypedObj) size() abi.Word { return abi.Word(1) << u.sizeBits }

func (u *untypedObj) freeBytes() abi.Word { return u.size() - u.watermark }

type cnodeObj struct {
	kobject
	radix uint8
	slots []*capability
}

func newCNode(o kobject, radix uint8) *cnodeObj {
	return &cnodeObj{kobject: o, radix: radix, slots: make([]*capability, 1<<radix)}
}

type endpointObj struct {
	kobject
	senders   []*sendRequest
	receivers []*recvRequest
}

// slotLoc is the position of one slot.
type slotLoc struct {
	node  *cnodeObj
	index int
}

func (l slotLoc) valid() bool { return l.node != nil }

func (l slotLoc) cap() *capability {
	if l.node == nil {
		return nil
	}
	return l.node.slots[l.index]
}

func alignUp(v, bits abi.Word) abi.Word {
	m := abi.Mask(uint(bits))
	return (v + m) &^ m
}
