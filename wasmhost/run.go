package wasmhost

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/wippyai/capspace/errors"
	"github.com/wippyai/capspace/ipc"
	"go.uber.org/zap"
)

// Config holds guest runtime settings.
type Config struct {
	// MemoryLimitPages caps guest memory in 64 KiB pages. 0 means the
	// wazero default.
	MemoryLimitPages uint32
}

// Run instantiates wasm against a host driving conn and calls its export
// fn with args. An empty fn only instantiates, which runs any start
// function.
func Run(ctx context.Context, cfg Config, conn ipc.Conn, wasm []byte, fn string, args ...uint64) ([]uint64, error) {
	rcfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		rcfg = rcfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rcfg)
	defer rt.Close(ctx)

	if _, err := New(conn).Instantiate(ctx, rt); err != nil {
		return nil, err
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("guest"))
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	if fn == "" {
		return nil, nil
	}

	f := mod.ExportedFunction(fn)
	if f == nil {
		return nil, errors.NotFound(errors.PhaseHost, "export", fn)
	}
	Logger().Debug("calling guest", zap.String("func", fn), zap.Int("args", len(args)))
	res, err := f.Call(ctx, args...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindTrap, err, "call "+fn)
	}
	return res, nil
}
