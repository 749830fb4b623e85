package sim

import (
	"fmt"

	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/errors"
)

// Config describes the machine a Kernel boots.
type Config struct {
	Root    RootConfig      `mapstructure:"root" yaml:"root"`
	Untyped []UntypedConfig `mapstructure:"untyped" yaml:"untyped"`
}

// RootConfig shapes the root CNode. RadixBits+GuardBits should be
// abi.WordBits so that a slot's address is its index.
type RootConfig struct {
	RadixBits uint8 `mapstructure:"radix_bits" yaml:"radix_bits"`
	GuardBits uint8 `mapstructure:"guard_bits" yaml:"guard_bits"`
}

// UntypedConfig adds Count untyped regions of 2^SizeBits bytes.
type UntypedConfig struct {
	SizeBits uint8 `mapstructure:"size_bits" yaml:"size_bits"`
	Count    int   `mapstructure:"count" yaml:"count"`
}

// DefaultConfig returns a 4096-slot root CNode and four 16 MiB untypeds.
func DefaultConfig() Config {
	return Config{
		Root: RootConfig{RadixBits: 12, GuardBits: abi.WordBits - 12},
		Untyped: []UntypedConfig{
			{SizeBits: 24, Count: 4},
		},
	}
}

// Validate checks that the configuration can boot.
func (c Config) Validate() error {
	r := c.Root
	if r.RadixBits < 5 || r.RadixBits > 20 {
		return errors.InvalidInput(errors.PhaseConfig,
			fmt.Sprintf("root.radix_bits %d outside [5, 20]", r.RadixBits))
	}
	if int(r.RadixBits)+int(r.GuardBits) > abi.WordBits {
		return errors.InvalidInput(errors.PhaseConfig,
			fmt.Sprintf("root.radix_bits + root.guard_bits = %d exceeds %d", int(r.RadixBits)+int(r.GuardBits), abi.WordBits))
	}

	n := 0
	for i, u := range c.Untyped {
		if u.SizeBits < abi.MinUntypedBits || u.SizeBits > abi.MaxUntypedBits {
			return errors.InvalidInput(errors.PhaseConfig,
				fmt.Sprintf("untyped[%d].size_bits %d outside [%d, %d]", i, u.SizeBits, abi.MinUntypedBits, abi.MaxUntypedBits))
		}
		if u.Count < 0 {
			return errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("untyped[%d].count is negative", i))
		}
		n += u.Count
	}
	if SlotFirstUntyped+n > 1<<r.RadixBits {
		return errors.InvalidInput(errors.PhaseConfig,
			fmt.Sprintf("%d untypeds do not fit in a root CNode of %d slots", n, 1<<r.RadixBits))
	}
	return nil
}
