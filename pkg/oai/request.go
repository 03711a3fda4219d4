package oai

import (
	"encoding/json"
	"fmt"
)

// ResponseFormat mirrors the OpenAI response_format object.
type ResponseFormat struct {
	Type       string          `json:"type"` // "text", "json_object" or "json_schema"
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

// ChatRequest is an OpenAI-shaped chat completion request. Unknown fields
// are ignored for forward compatibility with evolving client libraries; the
// capability flags below are declared explicitly so Validate can inspect
// them even though the backend supports none of them.
type ChatRequest struct {
	Messages []Message `json:"messages"`
	Model    string    `json:"model"`
	Stream   bool      `json:"stream"`
	User     string    `json:"user,omitempty"`

	Store          bool            `json:"store"`
	Modalities     []string        `json:"modalities"`
	ResponseFormat *ResponseFormat `json:"response_format"`
	ToolChoice     json.RawMessage `json:"tool_choice"`
	Logprobs       bool            `json:"logprobs"`
	TopLogprobs    *int            `json:"top_logprobs"`
	N              *int            `json:"n"`
}

// ParseChatRequest decodes and structurally checks a chat completion
// request body. Structural failures come back as *RequestError; capability
// checks are a separate pass (Validate).
func ParseChatRequest(body []byte) (*ChatRequest, error) {
	var req ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("invalid request body: %v", err)}
	}

	if req.Model == "" {
		return nil, &RequestError{Message: "missing or empty 'model' field"}
	}
	if len(req.Messages) == 0 {
		return nil, &RequestError{Message: "'messages' must contain at least one message"}
	}
	for i, msg := range req.Messages {
		if !msg.Role.Known() {
			return nil, &RequestError{
				Message: fmt.Sprintf("messages[%d] has unknown role %q", i, msg.Role),
			}
		}
	}

	return &req, nil
}
