// Package console is the operator-facing collaborator: a terminal UI that
// shows each incoming conversation and resolves the pending answer with
// whatever the operator types. It talks to the bridging core exclusively
// through the write-only rendezvous handle.
package console

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/wozlab/humanchat/pkg/oai"
	"github.com/wozlab/humanchat/rendezvous"
)

// Console wraps the bubbletea program and implements server.Collaborator.
type Console struct {
	program *tea.Program
	logger  *zap.Logger
}

// New creates the operator console. Run must be called on the goroutine
// that owns the terminal.
func New(logger *zap.Logger) *Console {
	return &Console{
		program: tea.NewProgram(newModel(), tea.WithAltScreen()),
		logger:  logger,
	}
}

// Run blocks until the operator quits the console.
func (c *Console) Run() error {
	_, err := c.program.Run()
	return err
}

// Quit asks the console to exit.
func (c *Console) Quit() {
	c.program.Quit()
}

// OnConversation delivers a conversation to the console. It returns
// immediately; the operator resolves the handle whenever the reply is
// sent. Called from the HTTP handler's goroutine.
func (c *Console) OnConversation(_ context.Context, messages []oai.Message, handle *rendezvous.Handle) {
	c.logger.Info("conversation handed to operator",
		zap.String("request_id", handle.ID()),
		zap.Int("messages", len(messages)),
	)
	c.program.Send(conversationMsg{messages: messages, handle: handle})
}
