package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/capspace/addr"
	"github.com/wippyai/capspace/errors"
)

// shapeFlags holds the table shape given on the command line.
type shapeFlags struct {
	radix, guard, prefix uint8
	guardValue           string
}

func (f *shapeFlags) register(cmd *cobra.Command) {
	cmd.Flags().Uint8Var(&f.radix, "radix", 12, "radix bits")
	cmd.Flags().Uint8Var(&f.guard, "guard", 52, "guard bits")
	cmd.Flags().Uint8Var(&f.prefix, "prefix", 0, "prefix bits")
	cmd.Flags().StringVar(&f.guardValue, "guard-value", "0", "expected guard value")
}

func (f *shapeFlags) shape() (addr.TableShape, error) {
	gv, err := parseWord(f.guardValue)
	if err != nil {
		return addr.TableShape{}, err
	}
	s := addr.TableShape{GuardValue: gv, RadixBits: f.radix, GuardBits: f.guard, PrefixBits: f.prefix}
	if !s.Valid() {
		return addr.TableShape{}, errors.InvalidInput(errors.PhaseLocal,
			fmt.Sprintf("shape %s does not fit in a word", s))
	}
	return s, nil
}

func newAddrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addr",
		Short: "Pack and unpack capability addresses",
	}
	cmd.AddCommand(newAddrDecodeCmd(), newAddrEncodeCmd())
	return cmd
}

func newAddrDecodeCmd() *cobra.Command {
	var sf shapeFlags
	cmd := &cobra.Command{
		Use:   "decode <word>",
		Short: "Split an address into prefix, guard, radix and leftover",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shape, err := sf.shape()
			if err != nil {
				return err
			}
			w, err := parseWord(args[0])
			if err != nil {
				return err
			}
			d := addr.Decode(shape, w)
			fmt.Fprintln(cmd.OutOrStdout(), d)
			if d.Guard != shape.GuardValue {
				fmt.Fprintf(cmd.OutOrStdout(), "guard mismatch: want %#x\n", shape.GuardValue)
			}
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}

func newAddrEncodeCmd() *cobra.Command {
	var sf shapeFlags
	cmd := &cobra.Command{
		Use:   "encode <prefix> <radix> [leftover]",
		Short: "Build an address from its fields and the shape's guard value",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			shape, err := sf.shape()
			if err != nil {
				return err
			}
			var w [3]uint64
			for i, a := range args {
				if w[i], err = parseWord(a); err != nil {
					return err
				}
			}
			d := addr.Decoded{Prefix: w[0], Guard: shape.GuardValue, Radix: w[1], Leftover: w[2]}
			if !d.Fits(shape) {
				return errors.InvalidInput(errors.PhaseLocal,
					fmt.Sprintf("fields %s overflow shape %s", d, shape))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%#x\n", addr.Encode(shape, d))
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}
