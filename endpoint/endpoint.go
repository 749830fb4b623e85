// Package endpoint sends and receives messages through endpoint
// capabilities.
package endpoint

import (
	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/cspace"
	"github.com/wippyai/capspace/ipc"
	"github.com/wippyai/capspace/object"
)

// Endpoint is a capability to a rendezvous point between threads.
type Endpoint struct {
	CPtr abi.CPtr
}

// FromCap converts a typed endpoint capability.
func FromCap(c object.Cap[object.Endpoint]) Endpoint {
	return Endpoint{CPtr: c.CPtr}
}

// RecvToken is a received message, copied out of the buffer.
type RecvToken struct {
	Badge         cspace.Badge
	Label         abi.Word
	CapsUnwrapped abi.Word
	Data          []abi.Word
	Caps          []abi.Word
}

// Send blocks until a receiver takes the message.
func (e Endpoint) Send(s *ipc.Session, label abi.Word, data []abi.Word, caps []abi.CPtr) error {
	return e.send(s, "endpoint.send", label, data, caps, ipc.Conn.Send)
}

// TrySend delivers the message only if a receiver is already waiting,
// and drops it otherwise.
func (e Endpoint) TrySend(s *ipc.Session, label abi.Word, data []abi.Word, caps []abi.CPtr) error {
	return e.send(s, "endpoint.try_send", label, data, caps, ipc.Conn.NBSend)
}

// SendData is Send without capabilities.
func (e Endpoint) SendData(s *ipc.Session, label abi.Word, data []abi.Word) error {
	return e.Send(s, label, data, nil)
}

// SendCap is Send with a single capability and no data.
func (e Endpoint) SendCap(s *ipc.Session, label abi.Word, c abi.CPtr) error {
	return e.Send(s, label, nil, []abi.CPtr{c})
}

func (e Endpoint) send(s *ipc.Session, op string, label abi.Word, data []abi.Word, caps []abi.CPtr,
	syscall func(ipc.Conn, abi.CPtr, abi.MessageInfo) error,
) error {
	if err := ipc.CheckLimits(op, len(data), len(caps)); err != nil {
		return err
	}
	return s.With(func(b *ipc.Buffer, c ipc.Conn) error {
		copy(b.Msg[:], data)
		copy(b.CapsOrBadges[:], caps)
		info := abi.NewMessageInfo(label, 0, abi.Word(len(caps)), abi.Word(len(data)))
		return syscall(c, e.CPtr, info)
	})
}

// Recv blocks until a sender arrives.
func (e Endpoint) Recv(s *ipc.Session) (RecvToken, error) {
	return e.recv(s, ipc.Conn.Recv)
}

// TryRecv returns at once. With no sender waiting the token is empty and
// its badge is zero.
func (e Endpoint) TryRecv(s *ipc.Session) (RecvToken, error) {
	return e.recv(s, ipc.Conn.NBRecv)
}

func (e Endpoint) recv(s *ipc.Session, syscall func(ipc.Conn, abi.CPtr) (abi.MessageInfo, abi.Word, error)) (RecvToken, error) {
	var tok RecvToken
	err := s.With(func(b *ipc.Buffer, c ipc.Conn) error {
		info, badge, err := syscall(c, e.CPtr)
		if err != nil {
			return err
		}
		b.Tag = info
		tok = RecvToken{
			Badge:         cspace.NewBadge(uint32(badge)),
			Label:         info.Label(),
			CapsUnwrapped: info.CapsUnwrapped(),
			Data:          b.Data(),
			Caps:          b.Caps(),
		}
		return nil
	})
	return tok, err
}
