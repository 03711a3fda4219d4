package oai

// Delta is the incremental payload of a stream choice. The role is present
// only on the first content frame; the terminal frame carries an empty
// delta.
type Delta struct {
	Role    Role   `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// StreamChoice is a single choice inside a chunk. finish_reason is absent
// until the terminal frame.
type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason,omitempty"`
}

// Chunk is one frame of a streaming chat completion. All frames of one
// stream share the same id, created timestamp and model.
type Chunk struct {
	ID                string         `json:"id"`
	Object            string         `json:"object"`
	Created           int64          `json:"created"`
	Model             string         `json:"model"`
	SystemFingerprint string         `json:"system_fingerprint"`
	Choices           []StreamChoice `json:"choices"`
}

// ContentUnits splits an answer into its per-frame content increments.
// The split is per rune, the externally observable "typing" granularity;
// it keeps multi-byte sequences intact so concatenating the units in order
// reproduces the answer exactly.
func ContentUnits(answer string) []string {
	units := make([]string, 0, len(answer))
	for _, r := range answer {
		units = append(units, string(r))
	}
	return units
}

// NewChunk builds a content-bearing frame. The first frame of a stream
// announces the assistant role.
func NewChunk(id string, created int64, model string, first bool, content string) Chunk {
	delta := Delta{Content: content}
	if first {
		delta.Role = RoleAssistant
	}
	return Chunk{
		ID:                id,
		Object:            ObjectChunk,
		Created:           created,
		Model:             model,
		SystemFingerprint: SystemFingerprint,
		Choices:           []StreamChoice{{Index: 0, Delta: delta}},
	}
}

// FinishChunk builds the terminal frame: empty delta, finish_reason "stop".
func FinishChunk(id string, created int64, model string) Chunk {
	stop := FinishReasonStop
	return Chunk{
		ID:                id,
		Object:            ObjectChunk,
		Created:           created,
		Model:             model,
		SystemFingerprint: SystemFingerprint,
		Choices:           []StreamChoice{{Index: 0, FinishReason: &stop}},
	}
}
