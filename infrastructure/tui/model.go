package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/application"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
)

// InvalidQuestion is shown for empty input and a bare "?".
const InvalidQuestion = "Please enter a valid question."

// Answerer is the part of the pipeline the loop needs.
type Answerer interface {
	Answer(ctx context.Context, query string) domain.QueryResult
}

type answerMsg struct {
	query  string
	result domain.QueryResult
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Model is the interactive question loop. One question is in flight at a
// time; input submitted while busy is ignored.
type Model struct {
	ctx      context.Context
	answerer Answerer
	input    textinput.Model
	spinner  spinner.Model
	width    int
	busy     bool
	status   string
	history  []string
	quitting bool
}

func New(ctx context.Context, answerer Answerer) Model {
	ti := textinput.New()
	ti.Prompt = "Question> "
	ti.Placeholder = "Ask about your documents, or type exit"
	ti.CharLimit = 0
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return Model{
		ctx:      ctx,
		answerer: answerer,
		input:    ti,
		spinner:  sp,
		width:    DefaultWidth,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case answerMsg:
		m.busy = false
		m.status = ""
		m.history = append(m.history, RenderBlocks(application.Render(msg.result), m.width))
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	q := strings.TrimSpace(m.input.Value())
	m.input.Reset()

	switch {
	case strings.EqualFold(q, "exit"), strings.EqualFold(q, "quit"):
		m.quitting = true
		return m, tea.Quit
	case q == "", q == "?":
		m.status = InvalidQuestion
		return m, nil
	}

	m.busy = true
	m.status = ""
	return m, tea.Batch(m.spinner.Tick, m.ask(q))
}

// ask runs the query off the update loop.
func (m Model) ask(q string) tea.Cmd {
	return func() tea.Msg {
		return answerMsg{query: q, result: m.answerer.Answer(m.ctx, q)}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("RAG Agents"))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Type a question and press Enter. Type exit or quit to leave."))
	b.WriteString("\n\n")
	for _, h := range m.history {
		b.WriteString(h)
		b.WriteString("\n\n")
	}
	if m.busy {
		b.WriteString(m.spinner.View())
		b.WriteString(" Thinking...\n")
	} else {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(warnStyle.Render(m.status))
		b.WriteString("\n")
	}
	return b.String()
}

// Run starts the loop and blocks until the user leaves.
func Run(ctx context.Context, answerer Answerer, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(New(ctx, answerer), opts...).Run()
	return err
}
