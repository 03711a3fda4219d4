package oai

import "github.com/google/uuid"

const (
	// ObjectCompletion and ObjectChunk are the OpenAI object tags.
	ObjectCompletion = "chat.completion"
	ObjectChunk      = "chat.completion.chunk"

	// SystemFingerprint is the static backend fingerprint. Clients only
	// require the field to exist.
	SystemFingerprint = "fp_human_backend"

	// FinishReasonStop is the only finish reason this backend emits.
	FinishReasonStop = "stop"
)

// NewCompletionID returns a fresh "chatcmpl-" prefixed identifier. A UUID
// is used instead of a timestamp so concurrent completions never collide.
func NewCompletionID() string {
	return "chatcmpl-" + uuid.NewString()
}

// ResponseMessage is the assistant message inside a completion choice.
type ResponseMessage struct {
	Role    Role    `json:"role"`
	Content string  `json:"content"`
	Refusal *string `json:"refusal"` // always null, kept for client compatibility
}

// Choice is a single completion choice. There is always exactly one.
type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
	Logprobs     any             `json:"logprobs"` // always null, kept for client compatibility
}

// PromptTokensDetails breaks down prompt token usage.
type PromptTokensDetails struct {
	AudioTokens  int `json:"audio_tokens"`
	CachedTokens int `json:"cached_tokens"`
}

// CompletionTokensDetails breaks down completion token usage.
type CompletionTokensDetails struct {
	ReasoningTokens          int `json:"reasoning_tokens"`
	AudioTokens              int `json:"audio_tokens"`
	AcceptedPredictionTokens int `json:"accepted_prediction_tokens"`
	RejectedPredictionTokens int `json:"rejected_prediction_tokens"`
}

// Usage carries the token counters of a completion. No token accounting is
// performed for a human-produced answer, so every counter is zero; zero is
// a documented, permitted value for clients of this backend.
type Usage struct {
	PromptTokens            int                     `json:"prompt_tokens"`
	CompletionTokens        int                     `json:"completion_tokens"`
	TotalTokens             int                     `json:"total_tokens"`
	PromptTokensDetails     PromptTokensDetails     `json:"prompt_tokens_details"`
	CompletionTokensDetails CompletionTokensDetails `json:"completion_tokens_details"`
}

// Completion is the non-streaming chat completion response.
type Completion struct {
	ID                string   `json:"id"`
	Object            string   `json:"object"`
	Created           int64    `json:"created"`
	Model             string   `json:"model"`
	SystemFingerprint string   `json:"system_fingerprint"`
	Choices           []Choice `json:"choices"`
	Usage             Usage    `json:"usage"`
}

// NewCompletion builds the single-choice completion for an answer.
func NewCompletion(id string, created int64, model, answer string) Completion {
	return Completion{
		ID:                id,
		Object:            ObjectCompletion,
		Created:           created,
		Model:             model,
		SystemFingerprint: SystemFingerprint,
		Choices: []Choice{{
			Index: 0,
			Message: ResponseMessage{
				Role:    RoleAssistant,
				Content: answer,
			},
			FinishReason: FinishReasonStop,
		}},
	}
}
