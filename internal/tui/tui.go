package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sokinpui/xattred/model"
	"github.com/sokinpui/xattred/xattred"
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")) // Mauve
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))            // Green
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))           // Orange
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))           // Red
	pathStyle    = lipgloss.NewStyle()
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

// --- Messages ---
type editReadyMsg struct{ ctx *xattred.EditContext }

type editorDoneMsg struct {
	ctx *xattred.EditContext
	err error
}

type summaryMsg struct {
	model.Summary
}

type errorMsg struct{ err error }

func (e errorMsg) Error() string { return e.err.Error() }

type progressMsg struct{ current, total int }

// --- Model ---
type Model struct {
	app      *xattred.App
	editMode bool
	spinner  spinner.Model
	state    state
	summary  summaryMsg
	err      error
	progress chan progressMsg
	current  int
	total    int
}

type state int

const (
	stateLoading state = iota
	stateEditing
	stateHostEditing
	stateApplying
	stateSummary
	stateError
)

// New builds the TUI around an App. editMode selects the editor hand-off
// flow; every other mode runs straight through Execute.
func New(app *xattred.App, editMode bool) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	// The callback fires from the worker goroutine; the channel hands the
	// update to the event loop. Sends never block so a finished TUI cannot
	// wedge the worker.
	progress := make(chan progressMsg, 8)
	app.SetProgressCallback(func(current, total int) {
		select {
		case progress <- progressMsg{current, total}:
		default:
		}
	})

	return Model{
		app:      app,
		editMode: editMode,
		spinner:  s,
		state:    stateLoading,
		progress: progress,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.listenProgress}
	if m.editMode {
		cmds = append(cmds, m.beginEdit)
	} else {
		cmds = append(cmds, m.runApp)
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case editReadyMsg:
		if m.app.UseHostEditor() {
			m.state = stateHostEditing
			return m, m.hostEdit(msg.ctx)
		}
		m.state = stateEditing
		cmd := m.app.EditorCommand(msg.ctx)
		return m, tea.ExecProcess(cmd, func(err error) tea.Msg {
			return editorDoneMsg{ctx: msg.ctx, err: err}
		})

	case editorDoneMsg:
		if msg.err != nil {
			m.app.CancelEdit(msg.ctx)
			m.state = stateError
			m.err = msg.err
			return m, tea.Quit
		}
		m.state = stateApplying
		return m, m.completeEdit(msg.ctx)

	case progressMsg:
		m.current, m.total = msg.current, msg.total
		return m, m.listenProgress

	case summaryMsg:
		m.state = stateSummary
		m.summary = msg
		return m, tea.Quit

	case errorMsg:
		m.state = stateError
		m.err = msg
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state != stateEditing {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case stateLoading:
		return fmt.Sprintf("%s Reading attributes...", m.spinner.View())
	case stateEditing:
		// The editor owns the terminal.
		return ""
	case stateHostEditing:
		return fmt.Sprintf("%s Editing in host Neovim... close the buffer to save.", m.spinner.View())
	case stateApplying:
		if m.total > 0 {
			return fmt.Sprintf("%s Applying changes... [%d/%d]", m.spinner.View(), m.current, m.total)
		}
		return fmt.Sprintf("%s Applying changes...", m.spinner.View())
	case stateError:
		return errorStyle.Render("Error: " + m.err.Error())
	case stateSummary:
		return m.renderSummary()
	default:
		return ""
	}
}

func (m *Model) renderSummary() string {
	var b strings.Builder

	if m.summary.Message != "" {
		b.WriteString(headerStyle.Render(m.summary.Message))
		b.WriteString("\n\n")
	}

	hasContent := false
	if len(m.summary.Modified) > 0 {
		hasContent = true
		b.WriteString(successStyle.Render("Modified:"))
		b.WriteString("\n")
		for _, f := range m.summary.Modified {
			b.WriteString(fmt.Sprintf("  %s\n", pathStyle.Render(f)))
		}
	}
	if len(m.summary.Unchanged) > 0 {
		hasContent = true
		b.WriteString(faintStyle.Render("Unchanged:"))
		b.WriteString("\n")
		for _, f := range m.summary.Unchanged {
			b.WriteString(fmt.Sprintf("  %s\n", faintStyle.Render(f)))
		}
	}
	if len(m.summary.Skipped) > 0 {
		hasContent = true
		b.WriteString(warnStyle.Render("Skipped:"))
		b.WriteString("\n")
		for _, f := range m.summary.Skipped {
			b.WriteString(fmt.Sprintf("  %s\n", pathStyle.Render(f)))
		}
	}
	if len(m.summary.Failed) > 0 {
		hasContent = true
		b.WriteString(errorStyle.Render("Failed:"))
		b.WriteString("\n")
		for _, f := range m.summary.Failed {
			b.WriteString(fmt.Sprintf("  %s\n", pathStyle.Render(f)))
		}
	}
	if len(m.summary.Operations) > 0 {
		hasContent = true
		b.WriteString(headerStyle.Render("Planned operations:"))
		b.WriteString("\n")
		for _, op := range m.summary.Operations {
			b.WriteString(fmt.Sprintf("  %s\n", faintStyle.Render(op)))
		}
	}

	if !hasContent && m.summary.Message == "" {
		b.WriteString(faintStyle.Render("Nothing to do."))
	}

	return b.String()
}

func (m Model) beginEdit() tea.Msg {
	ctx, err := m.app.BeginEdit()
	if err != nil {
		return errorMsg{err}
	}
	return editReadyMsg{ctx: ctx}
}

func (m Model) hostEdit(ctx *xattred.EditContext) tea.Cmd {
	return func() tea.Msg {
		if err := m.app.EditInHost(ctx); err != nil {
			m.app.CancelEdit(ctx)
			return errorMsg{err}
		}
		summary, err := m.app.CompleteEdit(ctx)
		if err != nil {
			return errorMsg{err}
		}
		return summaryMsg{Summary: summary}
	}
}

func (m Model) completeEdit(ctx *xattred.EditContext) tea.Cmd {
	return func() tea.Msg {
		summary, err := m.app.CompleteEdit(ctx)
		if err != nil {
			return errorMsg{err}
		}
		return summaryMsg{Summary: summary}
	}
}

func (m Model) listenProgress() tea.Msg {
	return <-m.progress
}

func (m Model) runApp() tea.Msg {
	summary, err := m.app.Execute()
	if err != nil {
		// Check for detailed error to print stack
		if e, ok := err.(*xattred.DetailedError); ok {
			// The TUI will exit, so we can print to stderr here for the stack trace.
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", e.Stack)
		}
		return errorMsg{err}
	}
	return summaryMsg{
		Summary: summary,
	}
}
