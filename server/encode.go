package server

import (
	"bufio"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/wozlab/humanchat/pkg/oai"
)

// streamCompletion re-encodes a finished answer as an OpenAI SSE stream:
// one frame per content unit, a terminal stop frame, then the [DONE]
// sentinel. The answer is fully known before the first frame goes out, so
// the writer never blocks on the collaborator.
func (s *Server) streamCompletion(c *fiber.Ctx, model, answer string) {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	id := oai.NewCompletionID()
	created := time.Now().Unix()
	pace := time.Duration(s.typingPace.Load())
	units := oai.ContentUnits(answer)
	logger := s.logger

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		for i, unit := range units {
			if pace > 0 {
				time.Sleep(pace)
			}
			if err := writeFrame(w, oai.NewChunk(id, created, model, i == 0, unit)); err != nil {
				logger.Debug("client closed stream", zap.Error(err))
				return
			}
		}

		if err := writeFrame(w, oai.FinishChunk(id, created, model)); err != nil {
			return
		}
		w.WriteString("data: [DONE]\n\n")
		w.Flush()
	}))
}

func writeFrame(w *bufio.Writer, chunk oai.Chunk) error {
	payload, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	if _, err := w.WriteString("data: "); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if _, err := w.WriteString("\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
