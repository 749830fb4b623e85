// Package capspace is a client library for a capability-based microkernel
// ABI, together with an in-process kernel to run it against.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	capspace/
//	├── abi/         Words, message tags, labels, cap data and rights
//	├── addr/        Capability address layout: prefix | guard | radix | leftover
//	├── errors/      Structured errors and the kernel error taxonomy
//	├── ipc/         IPC buffer, the Conn port, reply decoding, Session
//	├── cspace/      CNode slot references, windows, badges and CNode operations
//	├── object/      Object kinds and batched retype
//	├── endpoint/    Typed send and receive over endpoints
//	├── sim/         In-process kernel implementing Conn
//	├── wasmhost/    wazero host module exposing Conn to WebAssembly guests
//	└── cmd/capsim/  CLI and interactive explorer
//
// # Quick Start
//
// Boot a kernel and create objects from an untyped region:
//
//	k, err := sim.Boot(sim.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer k.Close()
//
//	s := ipc.NewSession(k.RootThread())
//	root := cspace.CNode{CPtr: sim.SlotRootCNode}
//	untyped := object.Cap[object.Untyped]{CPtr: sim.SlotFirstUntyped}
//	dest := cspace.Window{Table: root.Slot(0, 0), FirstSlot: 64, NumSlots: 8}
//
//	n, err := object.Create[object.Endpoint](s, untyped, 0, dest)
//
// Every operation that reaches the kernel goes through an ipc.Session, which
// owns the execution context's buffer for the duration of one call.
package capspace
