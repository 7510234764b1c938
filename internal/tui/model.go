package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"localrag/internal/domain"
	"localrag/internal/service"
)

// AssistantPort is the TUI-facing subset of the RAG service.
type AssistantPort interface {
	AddDocuments(ctx context.Context, texts []string, metadata []map[string]any) (int, error)
	GenerateResponse(ctx context.Context, query string, opts service.QueryOptions) (domain.GenerationResult, error)
}

type inputMode int

const (
	modeAsk inputMode = iota
	modeAdd
)

type answerMsg struct {
	result domain.GenerationResult
	err    error
}

type addedMsg struct {
	count int
	err   error
}

// Model is the Bubble Tea model for the assistant UI.
type Model struct {
	service AssistantPort
	opts    service.QueryOptions

	input    textinput.Model
	viewport viewport.Model
	mode     inputMode
	summary  string
	status   string
	busy     bool
	ready    bool
	result   domain.GenerationResult
}

// New creates the TUI model. summary is shown under the header (a digest of
// anything ingested at startup); opts are the retrieval/decoding defaults.
func New(svc AssistantPort, summary string, opts service.QueryOptions) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter (Tab switches to add-text mode)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:  svc,
		opts:     opts,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Ready.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + summary, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResult())
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.result = msg.result
			m.status = fmt.Sprintf("Answered using %d documents.", len(msg.result.Documents))
		}
		m.viewport.SetContent(m.renderResult())
		return m, nil

	case addedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Added %d document(s).", msg.count)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			if m.mode == modeAsk {
				m.mode = modeAdd
				m.input.Placeholder = "Type text to add and press Enter (Tab switches back)"
			} else {
				m.mode = modeAsk
				m.input.Placeholder = "Ask a question and press Enter (Tab switches to add-text mode)"
			}
			return m, nil
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.busy {
				return m, nil
			}
			m.input.Reset()
			m.busy = true
			if m.mode == modeAdd {
				m.status = "Adding document..."
				return m, addCmd(m.service, text)
			}
			m.status = "Thinking..."
			return m, askCmd(m.service, text, m.opts)
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the layout: header, summary, result pane, input, status.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Local RAG Assistant")
	mode := "ask"
	if m.mode == modeAdd {
		mode = "add text"
	}
	summary := subtleStyle.Render(fmt.Sprintf("[%s] %s", mode, m.summary))
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderResult() string {
	if m.result.Response == "" {
		return "Ask a question to see an answer here."
	}
	var b strings.Builder
	b.WriteString(m.result.Response)
	if len(m.result.Documents) > 0 {
		b.WriteString("\n\n")
		b.WriteString(subtleStyle.Render("Sources:"))
		for i, doc := range m.result.Documents {
			b.WriteString(fmt.Sprintf("\n%d. (%.3f) %s", i+1, doc.Similarity, snippet(doc.Document.Text, 160)))
		}
	}
	return b.String()
}

func askCmd(svc AssistantPort, query string, opts service.QueryOptions) tea.Cmd {
	return func() tea.Msg {
		result, err := svc.GenerateResponse(context.Background(), query, opts)
		return answerMsg{result: result, err: err}
	}
}

func addCmd(svc AssistantPort, text string) tea.Cmd {
	return func() tea.Msg {
		count, err := svc.AddDocuments(context.Background(), []string{text}, nil)
		return addedMsg{count: count, err: err}
	}
}

func snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	subtleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
