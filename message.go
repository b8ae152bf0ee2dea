// Copyright 2025 The Go AgentSvc Authors
// SPDX-License-Identifier: Apache-2.0

package agentsvc

// Role represents the role of a message sender.
type Role string

// Role constants for message senders.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// ToolCall describes a tool invocation requested by the assistant.
type ToolCall struct {
	ID   string         `json:"id" validate:"required"`
	Name string         `json:"name" validate:"required"`
	Args map[string]any `json:"args,omitzero"`
}

// ChatMessage is a single role-tagged message exchanged with an agent.
//
// Content may be empty for messages that only carry tool calls. RunID, when
// present, identifies the agent run that produced the message and is used to
// correlate feedback.
type ChatMessage struct {
	Role       Role       `json:"role" validate:"required,oneof=user assistant tool system"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitzero" validate:"omitempty,dive"`
	ToolCallID string     `json:"tool_call_id,omitzero"`
	RunID      string     `json:"run_id,omitzero" validate:"omitempty,uuid4"`
}

// Validate ensures the ChatMessage is structurally valid. Validation is
// all-or-nothing; a failing message is never partially usable.
func (m *ChatMessage) Validate() error {
	return validateStruct(m)
}

// NewUserMessage creates a user message with the given content.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message with the given content.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// ChatHistory is the ordered sequence of messages for one thread.
type ChatHistory struct {
	Messages []ChatMessage `json:"messages" validate:"dive"`
}

// Validate ensures every message in the history is valid.
func (h *ChatHistory) Validate() error {
	return validateStruct(h)
}
