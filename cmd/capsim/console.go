package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/addr"
	"github.com/wippyai/capspace/cspace"
	"github.com/wippyai/capspace/errors"
	"github.com/wippyai/capspace/ipc"
	"github.com/wippyai/capspace/object"
	"github.com/wippyai/capspace/sim"
)

// console runs slot-level commands against the root thread of a kernel.
type console struct {
	k     *sim.Kernel
	s     *ipc.Session
	shape addr.TableShape
	root  cspace.CNode
}

func newConsole(k *sim.Kernel) *console {
	c := &console{
		k:     k,
		s:     ipc.NewSession(k.RootThread()),
		shape: k.RootShape(),
	}
	c.root = cspace.CNode{CPtr: c.addr(sim.SlotRootCNode)}
	return c
}

// addr returns the address of root slot i.
func (c *console) addr(i int) abi.CPtr {
	return addr.Encode(c.shape, addr.Decoded{Guard: c.shape.GuardValue, Radix: abi.Word(i)})
}

// slot names root slot i for CNode operations.
func (c *console) slot(i int) cspace.SlotRef {
	return c.root.Slot(c.addr(i), uint8(c.shape.ResolvedBits()))
}

// retypeRequest describes one retype from a root untyped into root slots.
type retypeRequest struct {
	Kind     string
	Count    int
	First    int
	SizeBits abi.Word
	Untyped  int
}

func (c *console) retype(r retypeRequest) (int, error) {
	kind, ok := object.KindByName(r.Kind)
	if !ok {
		return 0, errors.NotFound(errors.PhaseLocal, "object kind", r.Kind)
	}
	untyped := object.Cap[object.Untyped]{CPtr: c.addr(sim.SlotFirstUntyped + r.Untyped)}
	dest := cspace.Window{Table: c.root.Slot(0, 0), FirstSlot: r.First, NumSlots: r.Count}
	return object.Retype(c.s, untyped, kind.Type, r.SizeBits, dest)
}

const consoleHelp = `retype <kind> <count> <first> [size_bits] [untyped]
copy <src> <dst>    move <src> <dst>    mint <src> <dst> <badge>
delete <slot>       revoke <slot>       kinds`

// exec parses and runs one command line, returning a status message.
func (c *console) exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, args := fields[0], fields[1:]

	nums := func(n int) ([]abi.Word, error) {
		if len(args) < n {
			return nil, errors.InvalidInput(errors.PhaseLocal, fmt.Sprintf("%s: need %d arguments", cmd, n))
		}
		out := make([]abi.Word, len(args))
		for i, a := range args {
			w, err := parseWord(a)
			if err != nil {
				return nil, err
			}
			out[i] = w
		}
		return out, nil
	}

	switch cmd {
	case "help", "?":
		return consoleHelp, nil

	case "kinds":
		names := make([]string, 0, abi.NumObjectTypes)
		for _, k := range object.Kinds() {
			names = append(names, k.Name)
		}
		return strings.Join(names, " "), nil

	case "retype":
		if len(args) < 3 {
			return "", errors.InvalidInput(errors.PhaseLocal, "retype: need <kind> <count> <first>")
		}
		kind := args[0]
		args = args[1:]
		w, err := nums(2)
		if err != nil {
			return "", err
		}
		r := retypeRequest{Kind: kind, Count: int(w[0]), First: int(w[1])}
		if len(w) > 2 {
			r.SizeBits = w[2]
		}
		if len(w) > 3 {
			r.Untyped = int(w[3])
		}
		n, err := c.retype(r)
		if err != nil {
			return "", fmt.Errorf("created %d %s objects: %w", n, kind, err)
		}
		return fmt.Sprintf("created %d %s objects at %d", n, kind, r.First), nil

	case "copy", "move":
		w, err := nums(2)
		if err != nil {
			return "", err
		}
		src, dst := c.slot(int(w[0])), c.slot(int(w[1]))
		if cmd == "copy" {
			err = src.Copy(c.s, dst, abi.AllRights)
		} else {
			err = src.Move(c.s, dst)
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %d -> %d", cmd, w[0], w[1]), nil

	case "mint":
		w, err := nums(3)
		if err != nil {
			return "", err
		}
		if w[2] > 0xFFFF_FFFF {
			return "", errors.InvalidInput(errors.PhaseLocal, "mint: badge exceeds 32 bits")
		}
		badge := cspace.NewBadge(uint32(w[2]))
		if err := c.slot(int(w[0])).Mint(c.s, c.slot(int(w[1])), abi.AllRights, badge); err != nil {
			return "", err
		}
		return fmt.Sprintf("mint %d -> %d badge %d", w[0], w[1], w[2]), nil

	case "delete", "revoke":
		w, err := nums(1)
		if err != nil {
			return "", err
		}
		ref := c.slot(int(w[0]))
		if cmd == "delete" {
			err = ref.Delete(c.s)
		} else {
			err = ref.Revoke(c.s)
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %d", cmd, w[0]), nil
	}
	return "", errors.InvalidInput(errors.PhaseLocal, fmt.Sprintf("unknown command %q (try help)", cmd))
}

// parseWord accepts decimal, 0x hex, 0o octal and 0b binary.
func parseWord(s string) (abi.Word, error) {
	w, err := strconv.ParseUint(s, 0, abi.WordBits)
	if err != nil {
		return 0, errors.InvalidInput(errors.PhaseLocal, fmt.Sprintf("%q is not a word", s))
	}
	return w, nil
}
