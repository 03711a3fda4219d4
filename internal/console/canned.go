package console

import (
	"context"

	"github.com/wozlab/humanchat/pkg/oai"
	"github.com/wozlab/humanchat/rendezvous"
)

// Canned is a fixed-answer collaborator for headless runs and smoke tests:
// every conversation gets the same reply, immediately.
type Canned string

// OnConversation resolves the pending answer with the canned text.
func (c Canned) OnConversation(_ context.Context, _ []oai.Message, handle *rendezvous.Handle) {
	handle.Resolve(string(c))
}
