package ipc

import (
	"sync"

	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/errors"
)

// Session is the exclusive owner of one execution context's buffer.
// Every access to the buffer happens under its lock, and replies are
// decoded or copied out before the lock is released.
type Session struct {
	conn Conn
	mu   sync.Mutex
}

// NewSession wraps conn. The caller must not use conn directly afterwards.
func NewSession(conn Conn) *Session {
	return &Session{conn: conn}
}

// With runs fn with exclusive access to the buffer and the port.
// Nothing fn retains from the buffer is valid after it returns.
func (s *Session) With(fn func(b *Buffer, c Conn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.conn.Buffer(), s.conn)
}

// WithBuffer runs fn with exclusive access to the buffer alone.
func (s *Session) WithBuffer(fn func(b *Buffer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.conn.Buffer())
}

// Invoke performs a kernel invocation on dest with the given message
// registers and extra caps. On failure it returns an *errors.Error in
// PhaseInvoke carrying the decoded Details. On success it returns a copy
// of the reply registers.
func (s *Session) Invoke(dest abi.CPtr, label abi.InvocationLabel, args []abi.Word, caps []abi.CPtr) ([]abi.Word, error) {
	op := abi.InvocationName(label)
	if err := CheckLimits(op, len(args), len(caps)); err != nil {
		return nil, err
	}

	var reply []abi.Word
	err := s.With(func(b *Buffer, c Conn) error {
		copy(b.Msg[:], args)
		copy(b.CapsOrBadges[:], caps)
		info := abi.NewMessageInfo(label, 0, abi.Word(len(caps)), abi.Word(len(args)))

		b.Tag = c.Call(dest, info)
		if b.Tag.Label() != abi.NoError {
			d, ok := DecodeError(b)
			if !ok {
				// FailedLookup nesting NoFailure
				d = errors.FailedLookup{FailedForSource: b.Msg[0] == 1}
			}
			return errors.FromDetails(errors.PhaseInvoke, op, d)
		}
		reply = b.Data()
		return nil
	})
	return reply, err
}

// CheckLimits reports whether a message of n words and caps extra caps
// fits the buffer. Length is checked first.
func CheckLimits(op string, n, caps int) error {
	if n > abi.MsgMaxLength {
		return errors.TooMuchDataError(op, n, abi.MsgMaxLength)
	}
	if caps > abi.MsgMaxExtraCaps {
		return errors.TooManyCapsError(op, caps, abi.MsgMaxExtraCaps)
	}
	return nil
}
