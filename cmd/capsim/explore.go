package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/capspace/errors"
	"github.com/wippyai/capspace/sim"
)

type exploreModel struct {
	c      *console
	slots  table.Model
	input  textinput.Model
	result string
	err    error
	events int
}

// kernelEventMsg is sent for each kernel event so the table refreshes.
type kernelEventMsg sim.Event

func newExploreModel(c *console) *exploreModel {
	cols := make([]table.Column, len(slotColumns))
	for i, name := range slotColumns {
		cols[i] = table.Column{Title: name, Width: max(len(name), 6)}
	}
	cols[1].Width = 18
	cols[3].Width = 8

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(16),
	)
	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	st.Selected = st.Selected.
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color("#7D56F4"))
	t.SetStyles(st)

	in := textinput.New()
	in.Prompt = ": "
	in.Placeholder = "retype endpoint 4 64"
	in.Width = 60

	m := &exploreModel{c: c, slots: t, input: in}
	m.refresh()
	return m
}

func (m *exploreModel) refresh() {
	infos := m.c.k.RootSlots()
	rows := make([]table.Row, len(infos))
	for i, s := range infos {
		rows[i] = slotRow(s)
	}
	m.slots.SetRows(rows)
}

func (m *exploreModel) Init() tea.Cmd {
	return nil
}

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case ":", "tab":
			m.slots.Blur()
			return m, m.input.Focus()
		case "d", "r":
			if row := m.slots.SelectedRow(); row != nil {
				verb := "delete"
				if msg.String() == "r" {
					verb = "revoke"
				}
				m.run(verb + " " + row[0])
			}
			return m, nil
		}

	case kernelEventMsg:
		m.events++
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.slots, cmd = m.slots.Update(msg)
	return m, cmd
}

func (m *exploreModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		m.slots.Focus()
		return m, nil
	case "enter":
		m.run(m.input.Value())
		m.input.SetValue("")
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *exploreModel) run(line string) {
	m.result, m.err = m.c.exec(line)
	m.refresh()
}

func (m *exploreModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("capsim"))
	b.WriteString(" ")
	b.WriteString(m.c.k.ID().String())
	b.WriteString(helpStyle.Render(fmt.Sprintf("  %s  objects=%d events=%d", m.c.shape, m.c.k.Objects(), m.events)))
	b.WriteString("\n\n")
	b.WriteString(m.slots.View())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
	case m.result != "":
		b.WriteString(resultStyle.Render(m.result))
	}
	b.WriteString("\n\n")
	if m.input.Focused() {
		b.WriteString(helpStyle.Render("enter run • esc back • help lists commands"))
	} else {
		b.WriteString(helpStyle.Render("↑/↓ select • d delete • r revoke • : command • q quit"))
	}
	return b.String()
}

func newExploreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Browse and edit the root CNode interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.InvalidInput(errors.PhaseLocal, "explore needs a terminal")
			}

			k, err := a.boot()
			if err != nil {
				return err
			}
			defer k.Close()

			p := tea.NewProgram(newExploreModel(newConsole(k)), tea.WithAltScreen())
			// Events fire inside Update while the console runs a command,
			// so they must not block on the program's message loop.
			unsubscribe := k.Subscribe(sim.ObserverFunc(func(e sim.Event) {
				go p.Send(kernelEventMsg(e))
			}))
			defer unsubscribe()

			_, err = p.Run()
			return err
		},
	}
}
