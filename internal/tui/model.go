package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pdfchat/internal/app"
	"pdfchat/internal/domain"
)

// Handler is the TUI-facing subset of the app context.
type Handler interface {
	Upload(ctx context.Context, filename string, blob []byte) (app.Result, error)
	Ask(ctx context.Context, text string) (app.Result, error)
	Reset(ctx context.Context) (app.Result, error)
	Transcript() []domain.Turn
}

// resultMsg carries the outcome of a handler call run as a tea.Cmd.
type resultMsg struct {
	action string
	res    app.Result
	err    error
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	ctx        context.Context
	handler    Handler
	input      textinput.Model
	viewport   viewport.Model
	picker     filepicker.Model
	transcript []domain.Turn
	status     string
	failed     bool
	busy       bool
	picking    bool
	ready      bool
	width      int
}

// New creates a TUI model. The file picker starts in dir and only offers PDFs.
func New(ctx context.Context, h Handler, dir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What would you like to ask the PDF?"
	ti.Focus()
	ti.CharLimit = 0

	fp := filepicker.New()
	fp.AllowedTypes = []string{".pdf", ".PDF"}
	fp.CurrentDirectory = dir
	fp.ShowPermissions = false

	return Model{
		ctx:        ctx,
		handler:    h,
		input:      ti,
		viewport:   viewport.New(0, 0),
		picker:     fp,
		transcript: h.Transcript(),
		status:     "ctrl+o upload a PDF · enter ask · ctrl+r reset · ctrl+c quit",
	}
}

func (m Model) Init() tea.Cmd { return tea.Batch(textinput.Blink, m.picker.Init()) }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, spacer, input, status
		m.viewport.Width = max(20, msg.Width-chatBoxStyle.GetHorizontalFrameSize())
		m.viewport.Height = max(3, msg.Height-reserved-ch)
		m.picker.Height = max(3, msg.Height-reserved)
		m.refresh()
		return m, nil

	case resultMsg:
		m.busy = false
		m.transcript = msg.res.Transcript
		m.failed = msg.res.Failed || msg.err != nil
		switch {
		case msg.res.Status != "":
			m.status = msg.res.Status
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
		case msg.action == "ask":
			m.status = "Answered."
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.picking {
			return m.updatePicker(msg)
		}
		if m.busy {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyCtrlO:
			m.picking = true
			return m, m.picker.Init()
		case tea.KeyCtrlR:
			return m.start("reset", "Resetting...", func() (app.Result, error) {
				return m.handler.Reset(m.ctx)
			})
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			m.input.Reset()
			// show the question right away; the result snapshot replaces it
			m.transcript = append(m.transcript, domain.Turn{Role: domain.RoleUser, Text: q})
			return m.start("ask", "Thinking...", func() (app.Result, error) {
				return m.handler.Ask(m.ctx, q)
			})
		}

	default:
		// directory listings for the picker arrive here
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		var icmd tea.Cmd
		m.input, icmd = m.input.Update(msg)
		return m, tea.Batch(cmd, icmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		m.picking = false
		return m, nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.picking = false
		return m.start("upload", "Uploading "+filepath.Base(path)+"...", func() (app.Result, error) {
			blob, err := os.ReadFile(path)
			if err != nil {
				return app.Result{Transcript: m.handler.Transcript(), Failed: true}, fmt.Errorf("read %s: %w", path, err)
			}
			return m.handler.Upload(m.ctx, filepath.Base(path), blob)
		})
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.status = filepath.Base(path) + " is not a PDF."
		m.failed = true
	}
	return m, cmd
}

// start marks the model busy and runs fn off the update loop.
func (m Model) start(action, status string, fn func() (app.Result, error)) (tea.Model, tea.Cmd) {
	m.busy = true
	m.failed = false
	m.status = status
	m.refresh()
	return m, func() tea.Msg {
		res, err := fn()
		return resultMsg{action: action, res: res, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderTranscript(m.transcript, m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Chat with your PDF using llama3")
	statusStyle := okStyle
	if m.failed {
		statusStyle = errStyle
	}
	status := statusStyle.Render(m.status)
	if m.picking {
		return header + "\n" + pickerTitleStyle.Render("Pick a PDF (esc to cancel)") + "\n" + m.picker.View() + "\n" + status
	}
	return header + "\n" + chatBoxStyle.Render(m.viewport.View()) + "\n" + inputBoxStyle.Render(m.input.View()) + "\n" + status
}

func renderTranscript(turns []domain.Turn, width int) string {
	if len(turns) == 0 {
		return hintStyle.Render("No messages yet. Upload a PDF and ask a question.")
	}
	body := lipgloss.NewStyle()
	if width > 0 {
		body = body.Width(width)
	}
	parts := make([]string, 0, len(turns))
	for _, t := range turns {
		label := assistantStyle.Render("Assistant")
		if t.Role == domain.RoleUser {
			label = userStyle.Render("You")
		}
		parts = append(parts, label+"\n"+body.Render(t.Text))
	}
	return strings.Join(parts, "\n\n")
}

var (
	headerStyle      = lipgloss.NewStyle().Bold(true)
	chatBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	hintStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	pickerTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
