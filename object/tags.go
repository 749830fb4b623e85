package object

import (
	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/addr"
	"github.com/wippyai/capspace/cspace"
)

// Tag is implemented by the marker types that name an object kind.
type Tag interface {
	Type() abi.ObjectType
}

type (
	Untyped          struct{}
	TCB              struct{}
	Endpoint         struct{}
	Notification     struct{}
	CNode            struct{}
	Page             struct{}
	LargePage        struct{}
	HugePage         struct{}
	PageTable        struct{}
	PageDirectory    struct{}
	PDPT             struct{}
	PML4             struct{}
	IOPageTable      struct{}
	VCPU             struct{}
	EPTPML4          struct{}
	EPTPDPT          struct{}
	EPTPageDirectory struct{}
	EPTPageTable     struct{}
)

func (Untyped) Type() abi.ObjectType          { return abi.UntypedObject }
func (TCB) Type() abi.ObjectType              { return abi.TCBObject }
func (Endpoint) Type() abi.ObjectType         { return abi.EndpointObject }
func (Notification) Type() abi.ObjectType     { return abi.NotificationObject }
func (CNode) Type() abi.ObjectType            { return abi.CapTableObject }
func (Page) Type() abi.ObjectType             { return abi.X86PageObject }
func (LargePage) Type() abi.ObjectType        { return abi.X86LargePageObject }
func (HugePage) Type() abi.ObjectType         { return abi.X86HugePageObject }
func (PageTable) Type() abi.ObjectType        { return abi.X86PageTableObject }
func (PageDirectory) Type() abi.ObjectType    { return abi.X86PageDirectoryObject }
func (PDPT) Type() abi.ObjectType             { return abi.X86PDPTObject }
func (PML4) Type() abi.ObjectType             { return abi.X64PML4Object }
func (IOPageTable) Type() abi.ObjectType      { return abi.X86IOPageTableObject }
func (VCPU) Type() abi.ObjectType             { return abi.X86VCPUObject }
func (EPTPML4) Type() abi.ObjectType          { return abi.X86EPTPML4Object }
func (EPTPDPT) Type() abi.ObjectType          { return abi.X86EPTPDPTObject }
func (EPTPageDirectory) Type() abi.ObjectType { return abi.X86EPTPDObject }
func (EPTPageTable) Type() abi.ObjectType     { return abi.X86EPTPTObject }

// Cap is a capability to an object of kind K.
type Cap[K Tag] struct {
	CPtr abi.CPtr
}

// Kind returns the row of the kind table for K.
func (Cap[K]) Kind() Kind {
	var k K
	return kinds[k.Type()]
}

// KindFor returns the row of the kind table for K.
func KindFor[K Tag]() Kind {
	var k K
	return kinds[k.Type()]
}

// Size returns log2 of the size in bytes of one K created with sizeBits.
func Size[K Tag](sizeBits abi.Word) abi.Word {
	return KindFor[K]().ObjectBits(sizeBits)
}

// Create retypes untyped into dest.NumSlots objects of kind K.
func Create[K Tag](s Invoker, untyped Cap[Untyped], sizeBits abi.Word, dest cspace.Window) (int, error) {
	var k K
	return Retype(s, untyped, k.Type(), sizeBits, dest)
}

// Caps returns typed capabilities for every slot of dest, addressed with
// shape. They are only meaningful once objects have been created there.
func Caps[K Tag](dest cspace.Window, shape addr.TableShape) []Cap[K] {
	addrs := dest.Addresses(shape)
	out := make([]Cap[K], len(addrs))
	for i, a := range addrs {
		out[i] = Cap[K]{CPtr: a}
	}
	return out
}
