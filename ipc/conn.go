package ipc

import "github.com/wippyai/capspace/abi"

// Conn is the syscall port of one execution context. Message contents
// travel through Buffer; the tag travels in the call.
//
// Call reports kernel failures through the reply label and buffer. The
// error results of the other methods report faults, such as sending on a
// cptr that is not an endpoint, or a kernel that has shut down.
type Conn interface {
	Buffer() *Buffer
	Call(dest abi.CPtr, info abi.MessageInfo) abi.MessageInfo
	Send(dest abi.CPtr, info abi.MessageInfo) error
	NBSend(dest abi.CPtr, info abi.MessageInfo) error
	Recv(src abi.CPtr) (abi.MessageInfo, abi.Word, error)
	NBRecv(src abi.CPtr) (abi.MessageInfo, abi.Word, error)
	Yield()
}
