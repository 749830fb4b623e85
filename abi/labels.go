package abi

import "strconv"

// ErrorLabel is the label of a kernel reply to a failed invocation.
type ErrorLabel = Word

const (
	NoError ErrorLabel = iota
	InvalidArgument
	InvalidCapability
	IllegalOperation
	RangeError
	AlignmentError
	FailedLookup
	TruncatedMessage
	DeleteFirst
	RevokeFirst
	NotEnoughMemory
)

// LookupFailureType is the nested label of a FailedLookup reply.
type LookupFailureType = Word

const (
	NoFailure LookupFailureType = iota
	InvalidRoot
	MissingCapability
	DepthMismatch
	GuardMismatch
)

// InvocationLabel selects the kernel operation in a Call on an object cap.
type InvocationLabel = Word

const (
	InvalidInvocation InvocationLabel = iota
	UntypedRetype
	CNodeRevoke
	CNodeDelete
	CNodeCopy
	CNodeMint
	CNodeMove
	CNodeMutate
	CNodeRotate
)

var invocationNames = [...]string{
	InvalidInvocation: "invalid",
	UntypedRetype:     "untyped.retype",
	CNodeRevoke:       "cnode.revoke",
	CNodeDelete:       "cnode.delete",
	CNodeCopy:         "cnode.copy",
	CNodeMint:         "cnode.mint",
	CNodeMove:         "cnode.move",
	CNodeMutate:       "cnode.mutate",
	CNodeRotate:       "cnode.rotate",
}

// InvocationName returns a short name for logs and error messages.
func InvocationName(l InvocationLabel) string {
	if l < Word(len(invocationNames)) {
		return invocationNames[l]
	}
	return "invocation(" + strconv.FormatUint(l, 10) + ")"
}

// ObjectType is the tag passed to retype.
type ObjectType = Word

const (
	UntypedObject ObjectType = iota
	TCBObject
	EndpointObject
	NotificationObject
	CapTableObject
	X86PageObject
	X86LargePageObject
	X86HugePageObject
	X86PageTableObject
	X86PageDirectoryObject
	X86PDPTObject
	X64PML4Object
	X86IOPageTableObject
	X86VCPUObject
	X86EPTPML4Object
	X86EPTPDPTObject
	X86EPTPDObject
	X86EPTPTObject

	NumObjectTypes
)

// Fixed object sizes, log2 bytes.
const (
	TCBBits          = 11
	EndpointBits     = 4
	NotificationBits = 5
	PageBits         = 12
	LargePageBits    = 21
	HugePageBits     = 30
	PageTableBits    = 12
	PageDirBits      = 12
	PDPTBits         = 12
	PML4Bits         = 12
	IOPageTableBits  = 12
	VCPUBits         = 14
	EPTPML4Bits      = 12
	EPTPDPTBits      = 12
	EPTPDBits        = 12
	EPTPTBits        = 12
)
