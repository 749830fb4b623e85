package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/wippyai/capspace/abi"
	"github.com/wippyai/capspace/object"
	"github.com/wippyai/capspace/sim"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

var slotColumns = []string{"slot", "type", "object", "rights", "badge", "guard", "size", "free", "derived"}

func kindName(t abi.ObjectType) string {
	if k, ok := object.KindOf(t); ok {
		return k.Name
	}
	return "type(" + strconv.FormatUint(t, 10) + ")"
}

// slotRow formats one slot for display, in slotColumns order.
func slotRow(s sim.SlotInfo) []string {
	badge, guard, free := "", "", ""
	if s.Badge != 0 {
		badge = strconv.FormatUint(s.Badge, 10)
	}
	if s.GuardSize != 0 {
		guard = fmt.Sprintf("%#x/%d", s.Guard, s.GuardSize)
	}
	if s.Type == abi.UntypedObject {
		free = strconv.FormatUint(s.FreeBytes, 10)
	}
	derived := ""
	if s.Derived {
		derived = "yes"
	}
	return []string{
		strconv.Itoa(s.Index),
		kindName(s.Type),
		strconv.FormatUint(uint64(s.Object), 10),
		s.Rights.String(),
		badge,
		guard,
		strconv.FormatUint(s.SizeBits, 10),
		free,
		derived,
	}
}

// renderSlots draws slots as a bordered table.
func renderSlots(slots []sim.SlotInfo) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(slotColumns...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		})
	for _, s := range slots {
		t.Row(slotRow(s)...)
	}
	return t.String()
}
