package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/wozlab/humanchat/pkg/oai"
	"github.com/wozlab/humanchat/rendezvous"
)

// conversationMsg carries an incoming conversation into the UI loop.
type conversationMsg struct {
	messages []oai.Message
	handle   *rendezvous.Handle
}

var (
	operatorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	callerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	contextStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Faint(true)
	waitingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

type model struct {
	viewport viewport.Model
	input    textarea.Model

	transcript []string
	handle     *rendezvous.Handle
	answered   int
	width      int
	ready      bool
}

func newModel() model {
	input := textarea.New()
	input.Placeholder = "Type the reply and press Enter..."
	input.ShowLineNumbers = false
	input.SetHeight(3)
	input.Focus()

	return model{
		viewport: viewport.New(0, 0),
		input:    input,
		width:    80,
	}
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - m.input.Height() - 2
		m.input.SetWidth(msg.Width - 2)
		m.ready = true
		m.refresh()
		return m, nil

	case conversationMsg:
		m.handle = msg.handle
		m.transcript = append(m.transcript, m.renderConversation(msg.messages))
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.send()
			return m, nil
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// send resolves the pending answer with the typed reply. Without a pending
// conversation there is nothing to answer and the input is left alone.
func (m *model) send() {
	reply := strings.TrimSpace(m.input.Value())
	if reply == "" || m.handle == nil {
		return
	}

	m.handle.Resolve(reply)
	m.handle = nil
	m.answered++
	m.transcript = append(m.transcript,
		operatorStyle.Render("operator:")+" "+reply)
	m.input.Reset()
	m.refresh()
}

func (m *model) refresh() {
	m.viewport.SetContent(strings.Join(m.transcript, "\n"))
	m.viewport.GotoBottom()
}

// renderConversation formats the incoming messages. The latest user
// message is what the operator answers; earlier messages are context.
// Bodies go through glamour so markdown-heavy prompts stay readable.
func (m *model) renderConversation(messages []oai.Message) string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	renderer, rendererErr := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)

	var b strings.Builder
	b.WriteString(statusStyle.Render(strings.Repeat("─", min(width, 40))))
	b.WriteString("\n")

	for _, msg := range messages {
		label := contextStyle
		if msg.Role == oai.RoleUser {
			label = callerStyle
		}
		b.WriteString(label.Render(string(msg.Role) + ":"))

		body := msg.Text()
		if rendererErr == nil {
			if rendered, err := renderer.Render(body); err == nil {
				body = strings.TrimRight(rendered, "\n")
			}
		}
		b.WriteString(body)
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) View() string {
	if !m.ready {
		return "starting console..."
	}

	status := statusStyle.Render(fmt.Sprintf(" %d answered · Enter sends · Esc quits", m.answered))
	if m.handle != nil {
		status = waitingStyle.Render(" ● caller waiting") + status
	}

	return m.viewport.View() + "\n" + status + "\n" + m.input.View()
}
