package wasmhost

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/errors"
	"github.com/wippyai/capspace/ipc"
	"go.uber.org/zap"
)

// ModuleName is the import module guests use.
const ModuleName = "capspace"

// Host serves the syscalls of one guest on one execution context.
type Host struct {
	conn  ipc.Conn
	ptr   uint32
	bound bool
	mu    sync.Mutex
}

// New returns a host driving conn. conn must not be used elsewhere while
// the guest runs.
func New(conn ipc.Conn) *Host {
	return &Host{conn: conn}
}

// Instantiate registers the host module in rt.
func (h *Host) Instantiate(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	i32, i64 := api.ValueTypeI32, api.ValueTypeI64
	funcs := []struct {
		fn      api.GoModuleFunc
		name    string
		params  []api.ValueType
		results []api.ValueType
	}{
		{h.ipcBuffer, "ipc_buffer", []api.ValueType{i32}, nil},
		{h.call, "call", []api.ValueType{i64, i64}, []api.ValueType{i64}},
		{h.send(false), "send", []api.ValueType{i64, i64}, nil},
		{h.send(true), "nb_send", []api.ValueType{i64, i64}, nil},
		{h.recv(false), "recv", []api.ValueType{i64, i32}, []api.ValueType{i64}},
		{h.recv(true), "nb_recv", []api.ValueType{i64, i32}, []api.ValueType{i64}},
		{h.yield, "yield", nil, nil},
	}

	builder := rt.NewHostModuleBuilder(ModuleName)
	for _, f := range funcs {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.fn, f.params, f.results).
			Export(f.name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Registration(errors.PhaseHost, ModuleName, "*", err)
	}
	return mod, nil
}

// bind records the guest buffer location.
func (h *Host) bind(mem api.Memory, ptr uint32) error {
	if err := checkBuffer(mem, ptr); err != nil {
		return err
	}
	h.mu.Lock()
	h.ptr, h.bound = ptr, true
	h.mu.Unlock()
	return nil
}

// syscall runs fn between copying the guest buffer in and out.
func (h *Host) syscall(mem api.Memory, op string, fn func(b *ipc.Buffer) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.bound {
		return errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Op(op).
			Detail("ipc_buffer not called").
			Build()
	}
	b := h.conn.Buffer()
	if err := ReadBuffer(mem, h.ptr, b); err != nil {
		return err
	}
	if err := fn(b); err != nil {
		return err
	}
	return WriteBuffer(mem, h.ptr, b)
}

// trap aborts the guest call with err.
func trap(op string, err error) {
	Logger().Debug("guest trap", zap.String("op", op), zap.Error(err))
	panic(err)
}

func (h *Host) ipcBuffer(_ context.Context, mod api.Module, stack []uint64) {
	if err := h.bind(mod.Memory(), api.DecodeU32(stack[0])); err != nil {
		trap("ipc_buffer", err)
	}
}

func (h *Host) call(_ context.Context, mod api.Module, stack []uint64) {
	cptr, info := stack[0], abi.MessageInfo(stack[1])
	err := h.syscall(mod.Memory(), "call", func(b *ipc.Buffer) error {
		stack[0] = uint64(h.conn.Call(cptr, info))
		return nil
	})
	if err != nil {
		trap("call", err)
	}
}

func (h *Host) send(nonBlocking bool) api.GoModuleFunc {
	op := "send"
	if nonBlocking {
		op = "nb_send"
	}
	return func(_ context.Context, mod api.Module, stack []uint64) {
		cptr, info := stack[0], abi.MessageInfo(stack[1])
		err := h.syscall(mod.Memory(), op, func(*ipc.Buffer) error {
			if nonBlocking {
				return h.conn.NBSend(cptr, info)
			}
			return h.conn.Send(cptr, info)
		})
		if err != nil {
			trap(op, err)
		}
	}
}

func (h *Host) recv(nonBlocking bool) api.GoModuleFunc {
	op := "recv"
	if nonBlocking {
		op = "nb_recv"
	}
	return func(_ context.Context, mod api.Module, stack []uint64) {
		cptr, badgePtr := stack[0], api.DecodeU32(stack[1])
		mem := mod.Memory()
		err := h.syscall(mem, op, func(b *ipc.Buffer) error {
			var (
				info  abi.MessageInfo
				badge abi.Word
				err   error
			)
			if nonBlocking {
				info, badge, err = h.conn.NBRecv(cptr)
			} else {
				info, badge, err = h.conn.Recv(cptr)
			}
			if err != nil {
				return err
			}
			b.Tag = info
			stack[0] = uint64(info)
			return writeWord(mem, badgePtr, badge)
		})
		if err != nil {
			trap(op, err)
		}
	}
}

func (h *Host) yield(context.Context, api.Module, []uint64) {
	h.conn.Yield()
}
