// Package ipctest provides a scripted ipc.Conn for tests.
package ipctest

import (
	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/errors"
	"github.com/wippyai/capspace/ipc"
)

// Call records one Call made through a Conn.
type Call struct {
	Dest abi.CPtr
	Info abi.MessageInfo
	Args []abi.Word
	Caps []abi.Word
}

// Conn answers every Call through Reply. Non-call syscalls are recorded
// as calls too and succeed without delivering anything.
type Conn struct {
	buf ipc.Buffer

	// Reply inspects the i-th call and returns the kernel's verdict.
	// A nil Reply, or a nil result, means success with an empty reply.
	Reply func(i int, c Call) errors.Details

	Calls []Call
}

func (c *Conn) Buffer() *ipc.Buffer { return &c.buf }

func (c *Conn) Call(dest abi.CPtr, info abi.MessageInfo) abi.MessageInfo {
	c.buf.Tag = info
	call := Call{
		Dest: dest,
		Info: info,
		Args: c.buf.Data(),
		Caps: c.buf.Caps(),
	}
	c.Calls = append(c.Calls, call)

	var d errors.Details
	if c.Reply != nil {
		d = c.Reply(len(c.Calls)-1, call)
	}
	ipc.EncodeError(&c.buf, d)
	return c.buf.Tag
}

func (c *Conn) Send(dest abi.CPtr, info abi.MessageInfo) error {
	c.Call(dest, info)
	return nil
}

func (c *Conn) NBSend(dest abi.CPtr, info abi.MessageInfo) error {
	c.Call(dest, info)
	return nil
}

func (c *Conn) Recv(src abi.CPtr) (abi.MessageInfo, abi.Word, error) {
	return c.NBRecv(src)
}

func (c *Conn) NBRecv(abi.CPtr) (abi.MessageInfo, abi.Word, error) {
	c.buf.Tag = 0
	return 0, 0, nil
}

func (c *Conn) Yield() {}

var _ ipc.Conn = (*Conn)(nil)
