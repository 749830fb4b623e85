package object

import (
	"strings"

	"github.com/wippyai/capspace/abi"
)

// Kind describes one object type.
type Kind struct {
	Name string
	Type abi.ObjectType

	// SizeBits is log2 of the object size in bytes for fixed-size kinds.
	SizeBits uint8

	// Variable kinds take their size from the retype size argument:
	// untyped as log2 bytes, CNodes as log2 slots.
	Variable bool
}

var kinds = [abi.NumObjectTypes]Kind{
	abi.UntypedObject:          {Name: "untyped", Type: abi.UntypedObject, Variable: true},
	abi.TCBObject:              {Name: "tcb", Type: abi.TCBObject, SizeBits: abi.TCBBits},
	abi.EndpointObject:         {Name: "endpoint", Type: abi.EndpointObject, SizeBits: abi.EndpointBits},
	abi.NotificationObject:     {Name: "notification", Type: abi.NotificationObject, SizeBits: abi.NotificationBits},
	abi.CapTableObject:         {Name: "cnode", Type: abi.CapTableObject, SizeBits: abi.SlotBits, Variable: true},
	abi.X86PageObject:          {Name: "page", Type: abi.X86PageObject, SizeBits: abi.PageBits},
	abi.X86LargePageObject:     {Name: "large_page", Type: abi.X86LargePageObject, SizeBits: abi.LargePageBits},
	abi.X86HugePageObject:      {Name: "huge_page", Type: abi.X86HugePageObject, SizeBits: abi.HugePageBits},
	abi.X86PageTableObject:     {Name: "page_table", Type: abi.X86PageTableObject, SizeBits: abi.PageTableBits},
	abi.X86PageDirectoryObject: {Name: "page_directory", Type: abi.X86PageDirectoryObject, SizeBits: abi.PageDirBits},
	abi.X86PDPTObject:          {Name: "pdpt", Type: abi.X86PDPTObject, SizeBits: abi.PDPTBits},
	abi.X64PML4Object:          {Name: "pml4", Type: abi.X64PML4Object, SizeBits: abi.PML4Bits},
	abi.X86IOPageTableObject:   {Name: "io_page_table", Type: abi.X86IOPageTableObject, SizeBits: abi.IOPageTableBits},
	abi.X86VCPUObject:          {Name: "vcpu", Type: abi.X86VCPUObject, SizeBits: abi.VCPUBits},
	abi.X86EPTPML4Object:       {Name: "ept_pml4", Type: abi.X86EPTPML4Object, SizeBits: abi.EPTPML4Bits},
	abi.X86EPTPDPTObject:       {Name: "ept_pdpt", Type: abi.X86EPTPDPTObject, SizeBits: abi.EPTPDPTBits},
	abi.X86EPTPDObject:         {Name: "ept_page_directory", Type: abi.X86EPTPDObject, SizeBits: abi.EPTPDBits},
	abi.X86EPTPTObject:         {Name: "ept_page_table", Type: abi.X86EPTPTObject, SizeBits: abi.EPTPTBits},
}

// Kinds returns every object kind in type order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds[:])
	return out
}

// KindOf returns the kind for an object type tag.
func KindOf(t abi.ObjectType) (Kind, bool) {
	if t >= abi.NumObjectTypes {
		return Kind{}, false
	}
	return kinds[t], true
}

// KindByName looks a kind up by its Name, ignoring case.
func KindByName(name string) (Kind, bool) {
	for _, k := range kinds {
		if strings.EqualFold(k.Name, name) {
			return k, true
		}
	}
	return Kind{}, false
}

// ObjectBits returns log2 of the size in bytes of one object created with
// the given size argument.
func (k Kind) ObjectBits(sizeBits abi.Word) abi.Word {
	switch {
	case k.Type == abi.UntypedObject:
		return sizeBits
	case k.Variable:
		return abi.Word(k.SizeBits) + sizeBits
	default:
		return abi.Word(k.SizeBits)
	}
}

func (k Kind) String() string { return k.Name }
