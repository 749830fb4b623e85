// Command capsim drives a simulated capability kernel from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/capspace/sim"
)

// app carries the state every subcommand shares once flags are parsed.
type app struct {
	cfgFile string
	cfg     sim.Config
	log     *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "capsim",
		Short: "Capability-space simulator",
		Long: `capsim boots an in-process capability kernel and lets you inspect
capability addresses, decode kernel replies, retype untyped memory and run
WebAssembly guests against it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (yaml)")
	f.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	f.Uint8("radix-bits", 0, "root CNode radix bits")
	f.Uint8("guard-bits", 0, "root CNode guard bits")

	root.AddCommand(
		newAddrCmd(),
		newDecodeCmd(),
		newRetypeCmd(a),
		newRunCmd(a),
		newExploreCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	v, err := loadConfig(a.cfgFile, cmd)
	if err != nil {
		return err
	}
	if a.cfg, err = decodeConfig(v); err != nil {
		return err
	}

	logger, err := newLogger(v.GetString(cfgKeyLogLevel))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = logger
	installLogger(logger)
	return nil
}

// boot starts a kernel from the loaded configuration.
func (a *app) boot() (*sim.Kernel, error) {
	k, err := sim.Boot(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}
	a.log.Debug("kernel booted", zap.Stringer("id", k.ID()), zap.Int("objects", k.Objects()))
	return k, nil
}
