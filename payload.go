// Copyright 2025 The Go AgentSvc Authors
// SPDX-License-Identifier: Apache-2.0

package agentsvc

// UserInput is the request body for the one-shot invoke endpoint.
type UserInput struct {
	// Message is the user message to send to the agent.
	Message string `json:"message" validate:"required"`

	// ThreadID continues an existing conversation when set.
	ThreadID string `json:"thread_id,omitzero"`

	// Model overrides the backend model for this request when set.
	Model string `json:"model,omitzero"`
}

// Validate ensures the UserInput is structurally valid.
func (u *UserInput) Validate() error {
	return validateStruct(u)
}

// StreamInput is the request body for the streaming invoke endpoint.
type StreamInput struct {
	UserInput

	// StreamTokens requests incremental token events in addition to full
	// messages.
	StreamTokens bool `json:"stream_tokens"`
}

// Validate ensures the StreamInput is structurally valid.
func (s *StreamInput) Validate() error {
	return validateStruct(s)
}

// Feedback is a scored annotation attached to a prior agent run.
type Feedback struct {
	// RunID identifies the run being scored.
	RunID string `json:"run_id" validate:"required,uuid4"`

	// Key is the metric name, e.g. "human-feedback-stars".
	Key string `json:"key" validate:"required"`

	// Score is the metric value.
	Score float64 `json:"score"`

	// Kwargs carries open-ended auxiliary values forwarded with the record.
	Kwargs map[string]any `json:"kwargs,omitzero"`
}

// Validate ensures the Feedback record is structurally valid.
func (f *Feedback) Validate() error {
	return validateStruct(f)
}

// ChatHistoryInput is the request body for the history endpoint.
type ChatHistoryInput struct {
	ThreadID string `json:"thread_id" validate:"required"`
}

// Validate ensures the ChatHistoryInput is structurally valid.
func (c *ChatHistoryInput) Validate() error {
	return validateStruct(c)
}
