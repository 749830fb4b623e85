package wasmhost

import (
	"context"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/errors"
	"github.com/wippyai/capspace/ipc"
	"github.com/wippyai/capspace/sim"
)

// memoryWASM is a minimal WASM module with 1 page of memory exported as "memory"
var memoryWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
	0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // name: "memory"
	0x02, 0x00, // kind: memory, index 0
}

// guestWASM imports capspace.ipc_buffer and capspace.call and exports
// run(cptr, info i64) i64, which binds its buffer at 0 and makes the call.
var guestWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version

	// type section: (i32) -> (), (i64, i64) -> (i64)
	0x01, 0x0b, 0x02,
	0x60, 0x01, 0x7f, 0x00,
	0x60, 0x02, 0x7e, 0x7e, 0x01, 0x7e,

	// import section
	0x02, 0x27, 0x02,
	0x08, 'c', 'a', 'p', 's', 'p', 'a', 'c', 'e',
	0x0a, 'i', 'p', 'c', '_', 'b', 'u', 'f', 'f', 'e', 'r',
	0x00, 0x00,
	0x08, 'c', 'a', 'p', 's', 'p', 'a', 'c', 'e',
	0x04, 'c', 'a', 'l', 'l',
	0x00, 0x01,

	// function section: run has type 1
	0x03, 0x02, 0x01, 0x01,

	// memory section: 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,

	// export section: memory, run
	0x07, 0x10, 0x02,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x03, 'r', 'u', 'n', 0x00, 0x02,

	// code section
	0x0a, 0x0e, 0x01, 0x0c, 0x00,
	0x41, 0x00, // i32.const 0
	0x10, 0x00, // call ipc_buffer
	0x20, 0x00, // local.get 0
	0x20, 0x01, // local.get 1
	0x10, 0x01, // call call
	0x0b, // end
}

func instantiate(t *testing.T, ctx context.Context, rt wazero.Runtime, wasm []byte) api.Module {
	t.Helper()
	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		t.Fatalf("failed to compile: %v", err)
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}
	return mod
}

func TestBuffer_ReadWrite(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)
	mem := instantiate(t, ctx, rt, memoryWASM).Memory()

	var in ipc.Buffer
	in.Tag = abi.NewMessageInfo(3, 0, 1, 2)
	in.Msg[0], in.Msg[119] = 11, 12
	in.CapsOrBadges[0] = 13
	in.ReceiveDepth = 64
	if err := WriteBuffer(mem, 512, &in); err != nil {
		t.Fatal(err)
	}

	if w, _ := mem.ReadUint64Le(512 + 8); w != 11 {
		t.Errorf("msg[0] in memory = %d", w)
	}
	var out ipc.Buffer
	if err := ReadBuffer(mem, 512, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("read back %+v", out)
	}
}

func TestBuffer_OutOfBounds(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)
	mem := instantiate(t, ctx, rt, memoryWASM).Memory()

	var b ipc.Buffer
	for _, ptr := range []uint32{65536 - ipc.BufferBytes + 8, 65536, 0xFFFF_FFFF} {
		err := ReadBuffer(mem, ptr, &b)
		if err == nil {
			t.Errorf("ReadBuffer(%d) succeeded", ptr)
			continue
		}
		e, ok := err.(*errors.Error)
		if !ok || e.Kind != errors.KindOutOfBounds || e.Phase != errors.PhaseHost {
			t.Errorf("ReadBuffer(%d) = %v", ptr, err)
		}
	}
	if err := ReadBuffer(mem, 65536-ipc.BufferBytes, &b); err != nil {
		t.Errorf("last fitting buffer: %v", err)
	}

	h := New(nil)
	if err := h.bind(mem, 65536); err == nil {
		t.Error("bind out of bounds succeeded")
	}
	if err := h.syscall(mem, "call", func(*ipc.Buffer) error { return nil }); err == nil {
		t.Error("syscall before bind succeeded")
	}
}

func bootGuest(t *testing.T, ctx context.Context) (*sim.Kernel, api.Module) {
	t.Helper()
	k, err := sim.Boot(sim.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = k.Close() })

	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { _ = rt.Close(ctx) })
	if _, err := New(k.RootThread()).Instantiate(ctx, rt); err != nil {
		t.Fatal(err)
	}
	return k, instantiate(t, ctx, rt, guestWASM)
}

func writeRetype(t *testing.T, mem api.Memory, count abi.Word) {
	t.Helper()
	var b ipc.Buffer
	copy(b.Msg[:], []abi.Word{abi.EndpointObject, 0, 0, 0, 100, count})
	b.CapsOrBadges[0] = sim.SlotRootCNode
	if err := WriteBuffer(mem, 0, &b); err != nil {
		t.Fatal(err)
	}
}

func TestGuest_FailingCall(t *testing.T) {
	ctx := context.Background()
	_, mod := bootGuest(t, ctx)
	writeRetype(t, mod.Memory(), 300)

	info := abi.NewMessageInfo(abi.UntypedRetype, 0, 1, 6)
	res, err := mod.ExportedFunction("run").Call(ctx, sim.SlotFirstUntyped, uint64(info))
	if err != nil {
		t.Fatal(err)
	}
	if got := abi.MessageInfo(res[0]).Label(); got != abi.RangeError {
		t.Fatalf("reply label = %d, want %d", got, abi.RangeError)
	}

	var b ipc.Buffer
	if err := ReadBuffer(mod.Memory(), 0, &b); err != nil {
		t.Fatal(err)
	}
	d, ok := ipc.DecodeError(&b)
	if !ok || d != (errors.RangeError{Min: 1, Max: abi.FanOutLimit}) {
		t.Errorf("decoded = %#v, %v", d, ok)
	}
}

func TestGuest_SuccessfulCall(t *testing.T) {
	ctx := context.Background()
	k, mod := bootGuest(t, ctx)
	writeRetype(t, mod.Memory(), 5)

	info := abi.NewMessageInfo(abi.UntypedRetype, 0, 1, 6)
	res, err := mod.ExportedFunction("run").Call(ctx, sim.SlotFirstUntyped, uint64(info))
	if err != nil {
		t.Fatal(err)
	}
	if abi.MessageInfo(res[0]).Label() != abi.NoError {
		t.Fatalf("reply = %#x", res[0])
	}

	n := 0
	for _, s := range k.RootSlots() {
		if s.Type == abi.EndpointObject {
			n++
		}
	}
	if n != 5 {
		t.Errorf("endpoints = %d, want 5", n)
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	k, err := sim.Boot(sim.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer k.Close()

	info := abi.NewMessageInfo(abi.CNodeDelete, 0, 0, 0)
	res, err := Run(ctx, Config{MemoryLimitPages: 16}, k.RootThread(), guestWASM, "run", sim.SlotRootCNode, uint64(info))
	if err != nil {
		t.Fatal(err)
	}
	if got := abi.MessageInfo(res[0]).Label(); got != abi.TruncatedMessage {
		t.Errorf("reply label = %d, want %d", got, abi.TruncatedMessage)
	}

	_, err = Run(ctx, Config{}, k.RootThread(), guestWASM, "missing")
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Errorf("Run(missing) = %v", err)
	}
}
