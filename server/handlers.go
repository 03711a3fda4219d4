package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wozlab/humanchat/pkg/oai"
	"github.com/wozlab/humanchat/rendezvous"
)

const supportedEndpoints = "humanchat supports POST /v1/chat/completions, GET /v1/models, GET /v1/models/{id} and GET /api/tags."

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("humanchat listening, serving model %q", s.config.ModelID),
	})
}

func (s *Server) handleNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(oai.RouteNotFound{
		Error:   "Not Found",
		Message: supportedEndpoints,
	})
}

// handleChatCompletions is the bridging path: validate, park the request in
// the exchange, hand the conversation to the collaborator, await the
// answer, encode it back.
func (s *Server) handleChatCompletions(c *fiber.Ctx) error {
	req, err := oai.ParseChatRequest(c.Body())
	if err != nil {
		s.logger.Debug("malformed chat request", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).
			JSON(oai.NewErrorEnvelope(fiber.StatusUnprocessableEntity, err.Error(), "invalid_request"))
	}

	if err := req.Validate(); err != nil {
		var capErr *oai.CapabilityError
		if errors.As(err, &capErr) {
			s.logger.Debug("unsupported capability requested",
				zap.String("capability", capErr.Capability))
			return c.Status(fiber.StatusBadRequest).
				JSON(oai.NewErrorEnvelope(fiber.StatusBadRequest, capErr.Message, "unsupported_"+capErr.Capability))
		}
		return c.Status(fiber.StatusBadRequest).
			JSON(oai.NewErrorEnvelope(fiber.StatusBadRequest, err.Error(), ""))
	}

	ctx := c.Context()

	pending, handle, err := s.exchange.Begin(ctx, req.Messages)
	if err != nil {
		switch {
		case errors.Is(err, rendezvous.ErrBusy):
			return c.Status(fiber.StatusTooManyRequests).
				JSON(oai.NewErrorEnvelope(fiber.StatusTooManyRequests,
					"another request is already awaiting a human answer; retry later", "pending_request_in_flight"))
		default:
			// Context expired while queueing; the client is gone.
			return nil
		}
	}

	s.logger.Info("conversation awaiting answer",
		zap.String("request_id", pending.ID()),
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Bool("stream", req.Stream),
	)

	go s.collab.OnConversation(ctx, req.Messages, handle)

	answer, err := pending.Await(ctx, time.Duration(s.answerTimeout.Load()))
	if err != nil {
		switch {
		case errors.Is(err, rendezvous.ErrAnswerTimeout):
			s.logger.Warn("answer timeout", zap.String("request_id", pending.ID()))
			return c.Status(fiber.StatusGatewayTimeout).
				JSON(oai.NewErrorEnvelope(fiber.StatusGatewayTimeout,
					"no answer was produced within the answer timeout", "answer_timeout"))
		case errors.Is(err, rendezvous.ErrSuperseded):
			return c.Status(fiber.StatusConflict).
				JSON(oai.NewErrorEnvelope(fiber.StatusConflict,
					"request was superseded by a newer conversation", "superseded"))
		default:
			// Client disconnected while awaiting; nothing left to send.
			s.logger.Debug("request cancelled while awaiting answer",
				zap.String("request_id", pending.ID()))
			return nil
		}
	}

	if req.Stream {
		s.streamCompletion(c, req.Model, answer)
		return nil
	}

	completion := oai.NewCompletion(oai.NewCompletionID(), time.Now().Unix(), req.Model, answer)
	return c.JSON(completion)
}

func (s *Server) handleListModels(c *fiber.Ctx) error {
	return c.JSON(oai.ModelList{
		Object: "list",
		Data:   []oai.ModelDescriptor{s.model},
	})
}

func (s *Server) handleGetModel(c *fiber.Ctx) error {
	id := c.Params("id")
	if id != s.model.ID {
		return c.Status(fiber.StatusNotFound).
			JSON(oai.NewErrorEnvelope(fiber.StatusNotFound,
				fmt.Sprintf("model %q does not exist", id), "model_not_found"))
	}
	return c.JSON(s.model)
}

func (s *Server) handleTags(c *fiber.Ctx) error {
	return c.JSON(oai.TagList{
		Models: []oai.Tag{s.model.OllamaTag()},
	})
}
