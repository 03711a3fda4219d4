package console

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wozlab/humanchat/pkg/oai"
	"github.com/wozlab/humanchat/rendezvous"
)

func TestMain(m *testing.M) {
	// Styles must render identically with and without a terminal.
	lipgloss.SetColorProfile(termenv.Ascii)
	m.Run()
}

// beginConversation parks a conversation in a fresh exchange and returns
// both sides.
func beginConversation(t *testing.T, text string) (*rendezvous.Pending, *rendezvous.Handle) {
	t.Helper()
	ex := rendezvous.New(rendezvous.PolicyReject, 1)
	pending, handle, err := ex.Begin(context.Background(), []oai.Message{
		{Role: oai.RoleUser, Content: text},
	})
	require.NoError(t, err)
	return pending, handle
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	updated, ok := next.(model)
	require.True(t, ok)
	return updated, cmd
}

func typeRunes(t *testing.T, m model, text string) model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func TestEnterResolvesPendingAnswer(t *testing.T) {
	pending, handle := beginConversation(t, "what is the capital of France?")

	m := newModel()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, conversationMsg{
		messages: []oai.Message{{Role: oai.RoleUser, Content: "what is the capital of France?"}},
		handle:   handle,
	})

	m = typeRunes(t, m, "Paris")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	answer, err := pending.Await(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Paris", answer)

	assert.Equal(t, 1, m.answered)
	assert.Nil(t, m.handle)
	assert.Empty(t, m.input.Value())
}

func TestEnterWithEmptyInputKeepsWaiting(t *testing.T) {
	pending, handle := beginConversation(t, "hi")

	m := newModel()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, conversationMsg{handle: handle})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 0, m.answered)
	assert.NotNil(t, m.handle)

	// The conversation is still answerable afterwards.
	handle.Resolve("still here")
	answer, err := pending.Await(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "still here", answer)
}

func TestEnterWithoutConversation(t *testing.T) {
	m := newModel()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m = typeRunes(t, m, "typed ahead")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	// Nothing to answer: the draft stays in the input.
	assert.Equal(t, "typed ahead", m.input.Value())
	assert.Equal(t, 0, m.answered)
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		m := newModel()
		_, cmd := update(t, m, tea.KeyMsg{Type: key})
		require.NotNil(t, cmd)
		_, isQuit := cmd().(tea.QuitMsg)
		assert.True(t, isQuit, "key %v should quit", key)
	}
}

func TestView(t *testing.T) {
	m := newModel()
	assert.Contains(t, m.View(), "starting console")

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	view := m.View()
	assert.Contains(t, view, "0 answered")
	assert.NotContains(t, view, "caller waiting")

	_, handle := beginConversation(t, "hi")
	m, _ = update(t, m, conversationMsg{
		messages: []oai.Message{{Role: oai.RoleUser, Content: "hi"}},
		handle:   handle,
	})
	assert.Contains(t, m.View(), "caller waiting")
}

func TestRenderConversationLabelsRoles(t *testing.T) {
	m := newModel()
	m.width = 80

	out := m.renderConversation([]oai.Message{
		{Role: oai.RoleSystem, Content: "You are helpful."},
		{Role: oai.RoleUser, Content: "hello"},
	})
	assert.Contains(t, out, "system:")
	assert.Contains(t, out, "user:")
	assert.Contains(t, out, "hello")
}

func TestCanned(t *testing.T) {
	pending, handle := beginConversation(t, "ping")

	Canned("pong").OnConversation(context.Background(), nil, handle)

	answer, err := pending.Await(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "pong", answer)
}
