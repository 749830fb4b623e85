package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wippyai/capspace/sim"
)

const (
	envPrefix = "CAPSIM"

	cfgKeyRadixBits = "root.radix_bits"
	cfgKeyGuardBits = "root.guard_bits"
	cfgKeyUntyped   = "untyped"
	cfgKeyLogLevel  = "log.level"

	defaultLogLevel = "warn"
)

// loadConfig layers defaults, the config file, CAPSIM_* environment
// variables and explicitly set flags, in increasing precedence.
func loadConfig(path string, cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()

	def := sim.DefaultConfig()
	v.SetDefault(cfgKeyRadixBits, def.Root.RadixBits)
	v.SetDefault(cfgKeyGuardBits, def.Root.GuardBits)
	untyped := make([]map[string]any, len(def.Untyped))
	for i, u := range def.Untyped {
		untyped[i] = map[string]any{"size_bits": u.SizeBits, "count": u.Count}
	}
	v.SetDefault(cfgKeyUntyped, untyped)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	flags := cmd.Flags()
	for key, name := range map[string]string{
		cfgKeyRadixBits: "radix-bits",
		cfgKeyGuardBits: "guard-bits",
		cfgKeyLogLevel:  "log-level",
	} {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// decodeConfig extracts and validates the kernel configuration.
func decodeConfig(v *viper.Viper) (sim.Config, error) {
	var cfg sim.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return sim.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return sim.Config{}, err
	}
	return cfg, nil
}
