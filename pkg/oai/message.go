// Package oai provides the OpenAI Chat Completions wire model: typed
// requests with capability validation, response and stream-chunk
// projections, model descriptors in both OpenAI and Ollama shapes, and the
// error envelope that OpenAI client libraries expect.
package oai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies the author of a chat message. The set is closed; any
// other value fails request validation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleFunction  Role = "function"
)

// Known reports whether r belongs to the closed role set.
func (r Role) Known() bool {
	switch r {
	case RoleSystem, RoleDeveloper, RoleUser, RoleAssistant, RoleTool, RoleFunction:
		return true
	}
	return false
}

// Content part types accepted inside structured message content.
const (
	PartText       = "text"
	PartImageURL   = "image_url"
	PartInputAudio = "input_audio"
)

// ImageURL is the image payload of an image_url content part.
type ImageURL struct {
	URL    string `json:"url"`              // URL or base64-encoded image data
	Detail string `json:"detail,omitempty"` // "auto", "low" or "high"
}

// InputAudio is the audio payload of an input_audio content part.
type InputAudio struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

// ContentPart is one element of a structured content array.
type ContentPart struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	ImageURL   *ImageURL   `json:"image_url,omitempty"`
	InputAudio *InputAudio `json:"input_audio,omitempty"`
}

// Message is a single conversation message. On the wire, Content is either
// a plain string or an array of content parts; both forms are accepted and
// the original shape is preserved for re-encoding.
type Message struct {
	Role       Role
	Name       string
	ToolCallID string

	// Content holds the plain-string form; Parts holds the structured
	// form. At most one of the two is populated.
	Content string
	Parts   []ContentPart
}

type messageWire struct {
	Role       Role            `json:"role"`
	Name       string          `json:"name,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Content    json.RawMessage `json:"content"`
}

// UnmarshalJSON accepts both the string and the content-part-array forms of
// the content field.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w messageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	m.Role = w.Role
	m.Name = w.Name
	m.ToolCallID = w.ToolCallID
	m.Content = ""
	m.Parts = nil

	if len(w.Content) == 0 || string(w.Content) == "null" {
		return nil
	}

	switch w.Content[0] {
	case '"':
		return json.Unmarshal(w.Content, &m.Content)
	case '[':
		return json.Unmarshal(w.Content, &m.Parts)
	default:
		return fmt.Errorf("message content must be a string or an array of content parts")
	}
}

// MarshalJSON re-encodes the message in the same shape it arrived in.
func (m Message) MarshalJSON() ([]byte, error) {
	w := messageWire{
		Role:       m.Role,
		Name:       m.Name,
		ToolCallID: m.ToolCallID,
	}

	var err error
	if m.Parts != nil {
		w.Content, err = json.Marshal(m.Parts)
	} else {
		w.Content, err = json.Marshal(m.Content)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// Text flattens the message content to plain text. Structured parts are
// reduced to their text pieces; image and audio parts contribute nothing.
func (m Message) Text() string {
	if m.Parts == nil {
		return m.Content
	}
	var b strings.Builder
	for _, part := range m.Parts {
		if part.Type == PartText {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
