// Package abi defines the wire contract shared by user-mode code and the
// kernel: the machine word, capability pointers, the packed message tag,
// cap-data and cap-rights words, and the numeric labels the kernel uses for
// invocations, object types and failures.
//
// Everything here is bit-exact. Values are plain integers so they can cross
// a syscall boundary or a wasm guest's linear memory unchanged.
package abi
