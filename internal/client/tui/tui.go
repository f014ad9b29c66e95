// Package tui renders the todo list in the terminal and maps keys to
// controller operations.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/99minutos/todo-system/internal/client/api"
	"github.com/99minutos/todo-system/internal/client/state"
)

const tickInterval = 250 * time.Millisecond

type mode int

const (
	modeList mode = iota
	modeCreate
	modeEdit
	modeConfirm
)

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, ctrl *state.Controller) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires a TTY")
	}

	program := tea.NewProgram(newModel(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type model struct {
	ctx  context.Context
	ctrl *state.Controller
	st   state.State

	mode      mode
	cursor    int
	field     int // 0 title, 1 description
	pendingID string
	busy      bool
}

type stateMsg struct {
	st state.State
}

type tickMsg time.Time

func newModel(ctx context.Context, ctrl *state.Controller) *model {
	return &model{ctx: ctx, ctrl: ctrl}
}

func (m *model) Init() tea.Cmd {
	m.busy = true
	return tea.Batch(m.run(m.ctrl.Load), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// run executes a blocking controller call off the UI loop.
func (m *model) run(op func(context.Context, state.State) state.State) tea.Cmd {
	ctx, st := m.ctx, m.st
	return func() tea.Msg {
		return stateMsg{st: op(ctx, st)}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.st = m.ctrl.Expire(m.st, time.Time(msg))
		return m, tickCmd()

	case stateMsg:
		m.busy = false
		m.st = msg.st
		switch {
		case m.mode == modeCreate && m.st.Error == "":
			m.mode = modeList
		case m.mode == modeEdit && !m.st.Editing():
			m.mode = modeList
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch m.mode {
		case modeList:
			return m.updateList(msg)
		case modeCreate, modeEdit:
			return m.updateForm(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		}
	}
	return m, nil
}

func (m *model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.st.Items)-1 {
			m.cursor++
		}
	case "r":
		m.busy = true
		return m, m.run(m.ctrl.Load)
	case "a", "n":
		m.mode = modeCreate
		m.field = 0
		m.st.Error = ""
	case "e", "enter":
		if item, ok := m.selected(); ok {
			m.st = m.ctrl.BeginEdit(m.st, item)
			m.mode = modeEdit
			m.field = 0
		}
	case "d", "x":
		if item, ok := m.selected(); ok {
			m.pendingID = item.ID
			m.mode = modeConfirm
		}
	}
	return m, nil
}

func (m *model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.mode == modeEdit {
			m.st = m.ctrl.CancelEdit(m.st)
		}
		m.mode = modeList
		return m, nil
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		m.field = 1 - m.field
		return m, nil
	case tea.KeyEnter:
		m.busy = true
		if m.mode == modeCreate {
			return m, m.run(m.ctrl.SubmitCreate)
		}
		return m, m.run(m.ctrl.SubmitUpdate)
	case tea.KeyBackspace:
		f := m.activeField()
		if r := []rune(*f); len(r) > 0 {
			*f = string(r[:len(r)-1])
		}
		return m, nil
	case tea.KeySpace:
		*m.activeField() += " "
		return m, nil
	case tea.KeyRunes:
		*m.activeField() += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func (m *model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.pendingID
	m.pendingID = ""
	m.mode = modeList

	switch msg.String() {
	case "y", "Y":
		m.busy = true
		return m, m.run(func(ctx context.Context, st state.State) state.State {
			// The prompt was already answered on screen.
			return m.ctrl.Remove(ctx, st, id, func(string) bool { return true })
		})
	}
	return m, nil
}

func (m *model) activeField() *string {
	switch {
	case m.mode == modeEdit && m.field == 0:
		return &m.st.EditTitle
	case m.mode == modeEdit:
		return &m.st.EditDescription
	case m.field == 0:
		return &m.st.Title
	default:
		return &m.st.Description
	}
}

func (m *model) selected() (item api.Todo, ok bool) {
	if m.cursor < 0 || m.cursor >= len(m.st.Items) {
		return item, false
	}
	return m.st.Items[m.cursor], true
}

func (m *model) clampCursor() {
	if m.cursor >= len(m.st.Items) {
		m.cursor = len(m.st.Items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString("Todo List\n\n")

	if m.st.NeedsLogin {
		b.WriteString("Not logged in or session expired. Run `todo login` first.\n\n")
		b.WriteString("q: quit\n")
		return b.String()
	}

	if len(m.st.Items) == 0 {
		b.WriteString("  (no items)\n")
	}
	for i, it := range m.st.Items {
		cursor := "  "
		if i == m.cursor && m.mode != modeCreate {
			cursor = "> "
		}
		if m.mode == modeEdit && it.ID == m.st.EditID {
			b.WriteString(cursor + m.input(0, m.st.EditTitle) + "  " + m.input(1, m.st.EditDescription) + "\n")
			continue
		}
		fmt.Fprintf(&b, "%s%s\n", cursor, it.Title)
		if it.Description != "" {
			fmt.Fprintf(&b, "    %s\n", it.Description)
		}
	}
	b.WriteString("\n")

	if m.mode == modeCreate {
		b.WriteString("Add Item\n")
		b.WriteString("  Title:       " + m.input(0, m.st.Title) + "\n")
		b.WriteString("  Description: " + m.input(1, m.st.Description) + "\n\n")
	}
	if m.mode == modeConfirm {
		b.WriteString(state.ConfirmDeletePrompt + " (y/n)\n\n")
	}

	if m.st.Message != "" {
		b.WriteString(m.st.Message + "\n")
	}
	if m.st.Error != "" {
		b.WriteString("Error: " + m.st.Error + "\n")
	}
	if m.busy {
		b.WriteString("working...\n")
	}

	b.WriteString("\n" + m.help() + "\n")
	return b.String()
}

func (m *model) input(field int, value string) string {
	if m.field == field {
		return "[" + value + "_]"
	}
	return "[" + value + "]"
}

func (m *model) help() string {
	switch m.mode {
	case modeCreate, modeEdit:
		return "tab: switch field • enter: save • esc: cancel"
	case modeConfirm:
		return "y: delete • any other key: keep"
	default:
		return "a: add • e: edit • d: delete • r: reload • q: quit"
	}
}
