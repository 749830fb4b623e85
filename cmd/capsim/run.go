package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/wasmhost"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		fn    string
		args  []string
		pages uint32
	)
	cmd := &cobra.Command{
		Use:   "run <guest.wasm>",
		Short: "Run a WebAssembly guest as the root thread",
		Long: `Run instantiates a core WebAssembly module against the capspace host
module and calls one of its exports with integer arguments. The guest owns
the root thread's cspace for the duration of the call.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			wasm, err := os.ReadFile(argv[0])
			if err != nil {
				return fmt.Errorf("read guest: %w", err)
			}
			params := make([]uint64, len(args))
			for i, s := range args {
				if params[i], err = parseWord(s); err != nil {
					return err
				}
			}

			k, err := a.boot()
			if err != nil {
				return err
			}
			defer k.Close()

			res, err := wasmhost.Run(cmd.Context(), wasmhost.Config{MemoryLimitPages: pages}, k.RootThread(), wasm, fn, params...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, r := range res {
				fmt.Fprintf(out, "result[%d] = %#x (label %d)\n", i, r, abi.MessageInfo(r).Label())
			}
			fmt.Fprintln(out, renderSlots(k.RootSlots()))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&fn, "func", "run", "export to call; empty only instantiates")
	f.StringSliceVar(&args, "arg", nil, "integer argument, repeatable")
	f.Uint32Var(&pages, "memory-pages", 0, "guest memory limit in 64 KiB pages")
	return cmd
}
