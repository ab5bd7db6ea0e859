// Package ui provides the terminal interface over a client session.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/example/task-manager/client"
)

type inputMode int

const (
	modeList inputMode = iota
	modeAdd
	modeEdit
)

// Run starts the task list program and blocks until the user quits.
func Run(ctx context.Context, session *client.Session) error {
	program := tea.NewProgram(NewModel(ctx, session), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

// Model is the bubbletea model of the task list.
type Model struct {
	ctx     context.Context
	session *client.Session
	cursor  int
	mode    inputMode
	input   string
	status  string
	busy    bool
}

// resultMsg reports a finished session call. done is the status text shown on
// success.
type resultMsg struct {
	action string
	done   string
	err    error
}

// NewModel creates a model over session. Calls made by the model use ctx.
func NewModel(ctx context.Context, session *client.Session) *Model {
	return &Model{ctx: ctx, session: session}
}

func (m *Model) Init() tea.Cmd {
	if !m.session.Authenticated() {
		return nil
	}
	return m.reload()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.mode != modeList {
			return m, m.updateInput(msg)
		}
		return m, m.updateList(msg)
	case resultMsg:
		m.busy = false
		m.clampCursor()
		if msg.err != nil {
			m.status = client.ErrorMessage(msg.err)
			if errors.Is(msg.err, client.ErrSessionExpired) || errors.Is(msg.err, client.ErrNotSignedIn) {
				m.mode = modeList
				m.input = ""
			}
			return m, nil
		}
		m.status = msg.done
		if msg.action == "add" {
			m.cursor = 0
		}
		if msg.action == "add" || msg.action == "save" {
			m.mode = modeList
			m.input = ""
		}
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) tea.Cmd {
	tasks := m.session.Tasks()

	switch msg.String() {
	case "q":
		return tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(tasks)-1 {
			m.cursor++
		}
	case "r":
		return m.reload()
	case "a":
		if !m.session.Authenticated() {
			return nil
		}
		m.mode = modeAdd
		m.input = ""
	case "e":
		task, ok := m.selected(tasks)
		if !ok {
			return nil
		}
		if err := m.session.BeginEdit(task.ID); err != nil {
			m.status = client.ErrorMessage(err)
			return nil
		}
		m.mode = modeEdit
		m.input = task.Title
	case " ":
		task, ok := m.selected(tasks)
		if !ok {
			return nil
		}
		return m.run("toggle", func(ctx context.Context) (string, error) {
			updated, err := m.session.Toggle(ctx, task.ID)
			if err != nil {
				return "", err
			}
			if updated.Completed {
				return fmt.Sprintf("Completed %q", updated.Title), nil
			}
			return fmt.Sprintf("Reopened %q", updated.Title), nil
		})
	case "d":
		task, ok := m.selected(tasks)
		if !ok {
			return nil
		}
		return m.run("delete", func(ctx context.Context) (string, error) {
			if err := m.session.Remove(ctx, task.ID); err != nil {
				return "", err
			}
			return fmt.Sprintf("Deleted %q", task.Title), nil
		})
	}
	return nil
}

func (m *Model) updateInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		if m.mode == modeEdit {
			m.session.CancelEdit()
		}
		m.mode = modeList
		m.input = ""
		m.status = ""
	case tea.KeyEnter:
		title := m.input
		if m.mode == modeAdd {
			return m.run("add", func(ctx context.Context) (string, error) {
				created, err := m.session.Add(ctx, client.Draft{Title: title})
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Added %q", created.Title), nil
			})
		}
		return m.run("save", func(ctx context.Context) (string, error) {
			saved, err := m.session.SaveEdit(ctx, client.Changes{Title: &title})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Saved %q", saved.Title), nil
		})
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return nil
}

func (m *Model) reload() tea.Cmd {
	return m.run("load", func(ctx context.Context) (string, error) {
		if err := m.session.Load(ctx); err != nil {
			return "", err
		}
		return fmt.Sprintf("Loaded %d tasks", len(m.session.Tasks())), nil
	})
}

// run wraps a session call in a command. Only one call runs at a time.
func (m *Model) run(action string, call func(ctx context.Context) (string, error)) tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	ctx := m.ctx
	return func() tea.Msg {
		done, err := call(ctx)
		return resultMsg{action: action, done: done, err: err}
	}
}

func (m *Model) selected(tasks []client.Task) (client.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(tasks) {
		return client.Task{}, false
	}
	return tasks[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.session.Tasks())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) View() string {
	var b strings.Builder
	writeTitle(&b)

	if !m.session.Authenticated() {
		b.WriteString("Signed out. Sign in again with taskctl -email ... -password ...\n\n")
		writeStatus(&b, m.status)
		b.WriteString("q to quit\n")
		return b.String()
	}

	writeTasks(&b, m.session.Tasks(), m.cursor, m.session.EditingID(), m.input)
	if m.mode == modeAdd {
		b.WriteString(fmt.Sprintf("New task: %s_\n\n", m.input))
	}
	writeStatus(&b, m.status)
	writeFooter(&b, m.mode)
	return b.String()
}

func writeTitle(b *strings.Builder) {
	title := "Task Manager"
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeTasks(b *strings.Builder, tasks []client.Task, cursor int, editingID, input string) {
	if len(tasks) == 0 {
		b.WriteString("  No tasks yet. Press a to add one.\n\n")
		return
	}
	for i, t := range tasks {
		pointer := " "
		if i == cursor {
			pointer = ">"
		}
		check := " "
		if t.Completed {
			check = "x"
		}
		title := t.Title
		if t.ID == editingID {
			title = input + "_"
		}
		line := fmt.Sprintf("%s [%s] %s", pointer, check, title)
		if due := formatDue(t); due != "" {
			line += "  (" + due + ")"
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
}

func formatDue(t client.Task) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{t.DueDate, t.DueTime, t.DueTimeAmPm} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func writeStatus(b *strings.Builder, status string) {
	if status != "" {
		b.WriteString(status + "\n\n")
	}
}

func writeFooter(b *strings.Builder, mode inputMode) {
	if mode != modeList {
		b.WriteString("enter save | esc cancel\n")
		return
	}
	b.WriteString("a add | e edit | space toggle | d delete | r reload | q quit\n")
}
