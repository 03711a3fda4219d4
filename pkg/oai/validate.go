package oai

import (
	"encoding/json"
	"fmt"
)

// RequestError reports a structurally invalid request. The HTTP layer maps
// it to 422, matching the behavior of framework-level request validation.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string { return e.Message }

// CapabilityError reports a request that asks for a capability a human
// backend cannot provide. Capability names the offending field and doubles
// as the machine-readable error code on the wire.
type CapabilityError struct {
	Capability string
	Message    string
}

func (e *CapabilityError) Error() string { return e.Message }

func capErr(capability, format string, args ...any) *CapabilityError {
	return &CapabilityError{
		Capability: capability,
		Message:    fmt.Sprintf(format, args...),
	}
}

// Validate checks the request against the capabilities of a human-operated
// backend. All rules are checked in a fixed order and the first violation
// is returned; each rule carries its own distinct message and code.
func (r *ChatRequest) Validate() error {
	for _, modality := range r.Modalities {
		if modality != "text" {
			return capErr("modalities",
				"output modality %q is not supported; only \"text\" is", modality)
		}
	}

	if r.Store {
		return capErr("store",
			"'store=true' is not supported; conversations are never persisted")
	}

	if r.ResponseFormat != nil {
		switch r.ResponseFormat.Type {
		case "", "text":
		case "json_object", "json_schema":
			return capErr("response_format",
				"response_format %q is not supported; a human operator cannot guarantee structured output, only \"text\" is available", r.ResponseFormat.Type)
		default:
			return capErr("response_format",
				"unknown response_format %q; only \"text\" is supported", r.ResponseFormat.Type)
		}
	}

	if err := validateToolChoice(r.ToolChoice); err != nil {
		return err
	}

	for i, msg := range r.Messages {
		for _, part := range msg.Parts {
			if part.Type == PartInputAudio {
				return capErr("input_audio",
					"messages[%d] contains an input_audio content part; audio input is not supported", i)
			}
		}
	}

	if r.Logprobs || (r.TopLogprobs != nil && *r.TopLogprobs > 0) {
		return capErr("logprobs",
			"'logprobs' is not supported; a human cannot produce token probabilities")
	}

	if r.N != nil && *r.N > 1 {
		return capErr("n",
			"'n=%d' is not supported; a single operator produces a single answer", *r.N)
	}

	return nil
}

// tool_choice may be the strings "none"/"auto" (accepted, nothing to call)
// or "required"/an explicit function selection (rejected, no tool support).
func validateToolChoice(raw json.RawMessage) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "required" {
			return capErr("tool_choice",
				"tool_choice \"required\" is not supported; this backend cannot call tools")
		}
		return nil
	}

	var obj struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Type == "function" {
		return capErr("tool_choice",
			"selecting a specific function via tool_choice is not supported; this backend cannot call tools")
	}
	return nil
}
