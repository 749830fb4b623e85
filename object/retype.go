package object

import (
	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/cspace"
	"go.uber.org/zap"
)

// Invoker performs one kernel invocation. *ipc.Session implements it.
type Invoker interface {
	Invoke(dest abi.CPtr, label abi.InvocationLabel, args []abi.Word, caps []abi.CPtr) ([]abi.Word, error)
}

// Retype creates dest.NumSlots objects of type objType from untyped, one
// per slot of dest, in calls of at most abi.FanOutLimit objects. It stops
// at the first failing call and returns that call's error unchanged along
// with the number of objects the earlier calls created, which are not
// undone. An empty window makes no call.
func Retype(s Invoker, untyped Cap[Untyped], objType abi.ObjectType, sizeBits abi.Word, dest cspace.Window) (int, error) {
	created := 0
	offset, remaining := dest.FirstSlot, dest.NumSlots

	for remaining > 0 {
		n := min(remaining, abi.FanOutLimit)
		args := []abi.Word{
			objType,
			sizeBits,
			dest.Table.Index,
			abi.Word(dest.Table.Depth),
			abi.Word(offset),
			abi.Word(n),
		}
		if _, err := s.Invoke(untyped.CPtr, abi.UntypedRetype, args, []abi.CPtr{dest.Table.Root.CPtr}); err != nil {
			Logger().Debug("retype batch failed",
				zap.Uint64("untyped", untyped.CPtr),
				zap.Int("offset", offset),
				zap.Int("count", n),
				zap.Int("created", created),
				zap.Error(err))
			return created, err
		}

		Logger().Debug("retype batch",
			zap.Uint64("untyped", untyped.CPtr),
			zap.Uint64("type", objType),
			zap.Int("offset", offset),
			zap.Int("count", n))

		created += n
		offset += n
		remaining -= n
	}
	return created, nil
}
