package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/app"
	"pdfchat/internal/domain"
)

type fakeHandler struct {
	turns  []domain.Turn
	asked  []string
	resets int
	err    error
}

func (h *fakeHandler) Upload(_ context.Context, filename string, _ []byte) (app.Result, error) {
	return app.Result{Transcript: h.turns, Status: "Successfully uploaded " + filename + "!"}, nil
}

func (h *fakeHandler) Ask(_ context.Context, text string) (app.Result, error) {
	h.asked = append(h.asked, text)
	h.turns = append(h.turns, domain.Turn{Role: domain.RoleUser, Text: text})
	if h.err != nil {
		return app.Result{Transcript: h.turns, Status: "Question failed: " + h.err.Error(), Failed: true}, h.err
	}
	h.turns = append(h.turns, domain.Turn{Role: domain.RoleAssistant, Text: "answer: " + text})
	return app.Result{Transcript: h.turns}, nil
}

func (h *fakeHandler) Reset(context.Context) (app.Result, error) {
	h.resets++
	h.turns = nil
	return app.Result{Status: "Chat history and documents cleared."}, nil
}

func (h *fakeHandler) Transcript() []domain.Turn { return h.turns }

func sized(t *testing.T, h Handler) Model {
	t.Helper()
	m := New(context.Background(), h, t.TempDir())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func TestAskFlow(t *testing.T) {
	h := &fakeHandler{}
	m := typeText(sized(t, h), "What is this about?")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Empty(t, m.input.Value())

	// keys are ignored while the question is in flight
	next, extra := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = next.(Model)
	assert.Nil(t, extra)

	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.False(t, m.busy)
	assert.Equal(t, []string{"What is this about?"}, h.asked)
	assert.Zero(t, h.resets)
	require.Len(t, m.transcript, 2)
	assert.Contains(t, m.View(), "answer: What is this about?")
}

func TestBlankInputIsIgnored(t *testing.T) {
	h := &fakeHandler{}
	m := typeText(sized(t, h), "   ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, next.(Model).busy)
	assert.Empty(t, h.asked)
}

func TestErrorsShowInStatusLine(t *testing.T) {
	h := &fakeHandler{err: errors.New("backend unavailable")}
	m := typeText(sized(t, h), "hello")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next, _ = next.(Model).Update(cmd())
	m = next.(Model)

	assert.True(t, m.failed)
	assert.True(t, strings.HasPrefix(m.status, "Question failed"))
	require.Len(t, m.transcript, 1)
	assert.Equal(t, domain.RoleUser, m.transcript[0].Role)
}

func TestResetClearsChatLog(t *testing.T) {
	h := &fakeHandler{turns: []domain.Turn{{Role: domain.RoleUser, Text: "old question"}}}
	m := sized(t, h)
	assert.Contains(t, m.View(), "old question")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	next, _ = next.(Model).Update(cmd())
	m = next.(Model)

	assert.Equal(t, 1, h.resets)
	assert.Empty(t, m.transcript)
	assert.Equal(t, "Chat history and documents cleared.", m.status)
	assert.NotContains(t, m.View(), "old question")
}

func TestPickerToggle(t *testing.T) {
	m := sized(t, &fakeHandler{})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	m = next.(Model)
	assert.True(t, m.picking)
	assert.Contains(t, m.View(), "Pick a PDF")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, next.(Model).picking)
}

func TestTinyWindowKeepsMinimumSizes(t *testing.T) {
	m := New(context.Background(), &fakeHandler{}, t.TempDir())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 4, Height: 2})
	m = next.(Model)

	assert.Equal(t, 20, m.viewport.Width)
	assert.Equal(t, 3, m.viewport.Height)
	assert.Equal(t, 3, m.picker.Height)
}
