package oai

import "time"

// ModelDescriptor describes the single synthetic model this backend
// serves. It is created once at server start and never changes.
type ModelDescriptor struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// NewModelDescriptor builds the descriptor for the configured model
// identity, stamped with the server launch time.
func NewModelDescriptor(id, owner string, launched time.Time) ModelDescriptor {
	return ModelDescriptor{
		ID:      id,
		Object:  "model",
		Created: launched.Unix(),
		OwnedBy: owner,
	}
}

// ModelList is the GET /v1/models response shape.
type ModelList struct {
	Object string            `json:"object"`
	Data   []ModelDescriptor `json:"data"`
}

// TagDetails is intentionally empty; Ollama clients only require the
// object to exist.
type TagDetails struct{}

// Tag is one entry of the Ollama /api/tags model listing.
type Tag struct {
	Name       string     `json:"name"`
	Model      string     `json:"model"`
	ModifiedAt string     `json:"modified_at"`
	Details    TagDetails `json:"details"`
}

// TagList is the GET /api/tags response shape.
type TagList struct {
	Models []Tag `json:"models"`
}

// OllamaTag reshapes the descriptor into the Ollama listing entry.
func (d ModelDescriptor) OllamaTag() Tag {
	name := d.ID + ":latest"
	return Tag{
		Name:       name,
		Model:      name,
		ModifiedAt: time.Unix(d.Created, 0).UTC().Format(time.RFC3339),
	}
}
