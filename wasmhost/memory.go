package wasmhost

import (
	"github.com/tetratelabs/wazero/api"
	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/errors"
	"github.com/wippyai/capspace/ipc"
)

// ReadBuffer copies the guest buffer at ptr into b.
func ReadBuffer(mem api.Memory, ptr uint32, b *ipc.Buffer) error {
	if err := checkBuffer(mem, ptr); err != nil {
		return err
	}
	for i := 0; i < ipc.BufferWords; i++ {
		w, _ := mem.ReadUint64Le(ptr + uint32(i*abi.WordBytes))
		b.SetWord(i, w)
	}
	return nil
}

// WriteBuffer copies b into the guest buffer at ptr.
func WriteBuffer(mem api.Memory, ptr uint32, b *ipc.Buffer) error {
	if err := checkBuffer(mem, ptr); err != nil {
		return err
	}
	for i := 0; i < ipc.BufferWords; i++ {
		mem.WriteUint64Le(ptr+uint32(i*abi.WordBytes), b.Word(i))
	}
	return nil
}

func checkBuffer(mem api.Memory, ptr uint32) error {
	if mem == nil {
		return errors.NotFound(errors.PhaseHost, "memory", "memory")
	}
	if uint64(ptr)+ipc.BufferBytes > uint64(mem.Size()) {
		return errors.OutOfBounds(errors.PhaseHost, "ipc buffer", uint64(ptr), ipc.BufferBytes)
	}
	return nil
}

func writeWord(mem api.Memory, ptr uint32, w abi.Word) error {
	if !mem.WriteUint64Le(ptr, w) {
		return errors.OutOfBounds(errors.PhaseHost, "badge", uint64(ptr), abi.WordBytes)
	}
	return nil
}
