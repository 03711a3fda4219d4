// Package server is the HTTP face of humanchat: an OpenAI Chat Completions
// compatible endpoint whose answers come from a human collaborator instead
// of a model. Handlers validate and normalize requests, park them in the
// rendezvous exchange, and re-encode the operator's answer as either a JSON
// completion or an SSE token stream.
package server

import (
	"context"
	"expvar"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/wozlab/humanchat/pkg/oai"
	"github.com/wozlab/humanchat/rendezvous"
)

// Collaborator produces the answer for one conversation. Implementations
// receive the normalized messages and the write-only handle of the pending
// answer, and must eventually resolve the handle, from any goroutine.
// They never read the pending slot; the handle is the only channel back.
type Collaborator interface {
	OnConversation(ctx context.Context, messages []oai.Message, handle *rendezvous.Handle)
}

// CollaboratorFunc adapts a plain function to the Collaborator interface.
type CollaboratorFunc func(ctx context.Context, messages []oai.Message, handle *rendezvous.Handle)

func (f CollaboratorFunc) OnConversation(ctx context.Context, messages []oai.Message, handle *rendezvous.Handle) {
	f(ctx, messages, handle)
}

// Server is the humanchat HTTP server. Start runs the listener on a
// background goroutine so the process can host the operator console on its
// own loop; the two sides only meet in the rendezvous exchange.
type Server struct {
	config   Config
	logger   *zap.Logger
	app      *fiber.App
	exchange *rendezvous.Exchange
	collab   Collaborator
	model    oai.ModelDescriptor

	// runtime tunables, reloadable via WatchConfig
	answerTimeout atomic.Int64 // nanoseconds
	typingPace    atomic.Int64 // nanoseconds

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
}

// expvar registration is process-wide, so the pending gauge points at
// whichever server registered last (tests create many).
var (
	pendingVarOnce sync.Once
	pendingSource  atomic.Pointer[rendezvous.Exchange]
)

func publishPendingVar(ex *rendezvous.Exchange) {
	pendingSource.Store(ex)
	pendingVarOnce.Do(func() {
		expvar.Publish("humanchat_pending", expvar.Func(func() any {
			if e := pendingSource.Load(); e != nil {
				return e.Snapshot()
			}
			return nil
		}))
	})
}

// New creates a Server for the given collaborator.
func New(config Config, collab Collaborator, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		logger:   logger,
		app:      app,
		exchange: rendezvous.New(config.PendingPolicy, config.MaxInFlight),
		collab:   collab,
		model:    oai.NewModelDescriptor(config.ModelID, config.ModelOwner, time.Now()),
	}
	s.answerTimeout.Store(int64(config.AnswerTimeout))
	s.typingPace.Store(int64(config.TypingPace))

	publishPendingVar(s.exchange)

	// Unmodified browser-based clients need permissive CORS.
	app.Use(cors.New())

	app.Get("/", s.handleRoot)
	app.Post("/v1/chat/completions", s.handleChatCompletions)
	app.Post("/chat/completions", s.handleChatCompletions)
	app.Get("/v1/models", s.handleListModels)
	app.Get("/v1/models/:id", s.handleGetModel)
	app.Get("/api/tags", s.handleTags)
	app.Get("/debug/vars", adaptor.HTTPHandler(expvar.Handler()))

	app.Use(s.handleNotFound)

	return s
}

// Exchange exposes the rendezvous exchange, e.g. for runtime policy
// changes.
func (s *Server) Exchange() *rendezvous.Exchange { return s.exchange }

// Model returns the synthetic model descriptor.
func (s *Server) Model() oai.ModelDescriptor { return s.model }

// SetAnswerTimeout changes the Await budget at runtime.
func (s *Server) SetAnswerTimeout(d time.Duration) { s.answerTimeout.Store(int64(d)) }

// SetTypingPace changes the cosmetic inter-frame delay at runtime.
func (s *Server) SetTypingPace(d time.Duration) { s.typingPace.Store(int64(d)) }

// Start begins accepting connections on the configured address. Binding
// happens synchronously so address errors surface here; serving continues
// on a background goroutine. Starting a running server is a no-op.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return err
	}
	s.listener = ln
	s.done = make(chan struct{})

	s.logger.Info("server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("model", s.config.ModelID),
	)

	done := s.done
	go func() {
		defer close(done)
		if err := s.app.Listener(ln); err != nil {
			s.logger.Error("listener stopped", zap.Error(err))
		}
	}()

	return nil
}

// Running reports whether the listener is up.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}

// Addr returns the bound address, or "" when the server is stopped.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop requests a graceful shutdown and waits for up to timeout. A
// listener that fails to quiesce in time is logged and abandoned; this is
// best-effort, not fatal.
func (s *Server) Stop(timeout time.Duration) {
	s.mu.Lock()
	ln := s.listener
	done := s.done
	s.listener = nil
	s.done = nil
	s.mu.Unlock()

	if ln == nil {
		return
	}

	if err := s.app.ShutdownWithTimeout(timeout); err != nil {
		s.logger.Warn("server did not shut down gracefully", zap.Error(err))
		return
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(timeout):
			s.logger.Warn("listener goroutine did not exit in time")
		}
	}
}
