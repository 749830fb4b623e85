package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/errors"
	"github.com/wippyai/capspace/ipc"
)

var errorLabels = []string{
	abi.NoError:           "NoError",
	abi.InvalidArgument:   "InvalidArgument",
	abi.InvalidCapability: "InvalidCapability",
	abi.IllegalOperation:  "IllegalOperation",
	abi.RangeError:        "RangeError",
	abi.AlignmentError:    "AlignmentError",
	abi.FailedLookup:      "FailedLookup",
	abi.TruncatedMessage:  "TruncatedMessage",
	abi.DeleteFirst:       "DeleteFirst",
	abi.RevokeFirst:       "RevokeFirst",
	abi.NotEnoughMemory:   "NotEnoughMemory",
}

// parseLabel accepts a label number or its name, ignoring case.
func parseLabel(s string) (abi.ErrorLabel, error) {
	for i, name := range errorLabels {
		if strings.EqualFold(s, name) {
			return abi.ErrorLabel(i), nil
		}
	}
	w, err := parseWord(s)
	if err != nil || w >= abi.ErrorLabel(len(errorLabels)) {
		return 0, errors.InvalidInput(errors.PhaseDecode, fmt.Sprintf("unknown error label %q", s))
	}
	return w, nil
}

// decodeReply interprets label and message registers as a kernel reply.
func decodeReply(label abi.ErrorLabel, words []abi.Word) (errors.Details, bool, error) {
	if len(words) > abi.MsgMaxLength {
		return nil, false, errors.TooMuchDataError("decode", len(words), abi.MsgMaxLength)
	}
	var b ipc.Buffer
	copy(b.Msg[:], words)
	b.Tag = abi.NewMessageInfo(label, 0, 0, abi.Word(len(words)))
	if label == abi.FailedLookup && b.Msg[1] > abi.GuardMismatch {
		return nil, false, errors.InvalidInput(errors.PhaseDecode,
			fmt.Sprintf("unknown lookup failure label %d", b.Msg[1]))
	}
	d, ok := ipc.DecodeError(&b)
	return d, ok, nil
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <label> [words...]",
		Short: "Decode a kernel error reply",
		Long: `Decode interprets an error label and the message registers that follow
it the way the client library does. Labels are numbers or names such as
RangeError.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, err := parseLabel(args[0])
			if err != nil {
				return err
			}
			words := make([]abi.Word, len(args)-1)
			for i, a := range args[1:] {
				if words[i], err = parseWord(a); err != nil {
					return err
				}
			}

			d, ok, err := decodeReply(label, words)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no error")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", d.Kind(), d)
			return nil
		},
	}
}
