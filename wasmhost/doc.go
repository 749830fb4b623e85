// Package wasmhost exposes an ipc.Conn to WebAssembly guests.
//
// The host module is named "capspace" and exports:
//
//	ipc_buffer(ptr i32)                   bind the guest's IPC buffer
//	call(cptr i64, info i64) -> i64       invoke an object, returns the reply tag
//	send(cptr i64, info i64)
//	nb_send(cptr i64, info i64)
//	recv(cptr i64, badge_ptr i32) -> i64  badge is stored at badge_ptr
//	nb_recv(cptr i64, badge_ptr i32) -> i64
//	yield()
//
// The guest buffer is ipc.BufferWords little-endian words in the layout of
// ipc.Buffer. It is copied into the context before every syscall and back
// after it. A syscall made before ipc_buffer, or with pointers outside
// guest memory, traps.
package wasmhost
