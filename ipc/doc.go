// Package ipc defines the per-context IPC buffer, the syscall port a
// kernel exposes to user code, and the decoder that turns a failing reply
// into typed errors.
//
// A Buffer is owned by exactly one execution context. Reading it after
// another call on the same context yields that call's contents, so all
// access goes through a Session, which performs a call and decodes its
// reply before releasing the buffer:
//
//	s := ipc.NewSession(conn)
//	reply, err := s.Invoke(untyped, abi.UntypedRetype, args, []abi.CPtr{root})
//	if d, ok := errors.DetailsOf(err); ok {
//	    // d is the kernel's diagnosis, e.g. errors.RangeError{Min: 1, Max: 256}
//	}
package ipc
