package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/capspace/abi"
)

func newRetypeCmd(a *app) *cobra.Command {
	var (
		r        retypeRequest
		sizeBits uint8
	)
	cmd := &cobra.Command{
		Use:   "retype",
		Short: "Boot a kernel and retype a root untyped into root slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := a.boot()
			if err != nil {
				return err
			}
			defer k.Close()

			r.SizeBits = abi.Word(sizeBits)
			c := newConsole(k)
			n, err := c.retype(r)
			a.log.Info("retype finished",
				zap.Stringer("kernel", k.ID()),
				zap.String("kind", r.Kind),
				zap.Int("created", n),
				zap.Error(err))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created %d of %d %s objects\n", n, r.Count, r.Kind)
			fmt.Fprintln(out, renderSlots(k.RootSlots()))
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&r.Kind, "kind", "endpoint", "object kind (see explore's kinds command)")
	f.IntVar(&r.Count, "count", 1, "number of objects")
	f.IntVar(&r.First, "first", 64, "first destination slot")
	f.Uint8Var(&sizeBits, "size-bits", 0, "size argument for variable-size kinds")
	f.IntVar(&r.Untyped, "untyped", 0, "index of the source untyped")
	return cmd
}
