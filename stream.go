// Copyright 2025 The Go AgentSvc Authors
// SPDX-License-Identifier: Apache-2.0

package agentsvc

import (
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// StreamEventType represents the type of a streaming event.
type StreamEventType string

// Stream event types.
const (
	// StreamEventToken is an incremental text fragment of the agent's output.
	StreamEventToken StreamEventType = "token"

	// StreamEventMessage is a complete chat message. The message payload is
	// carried raw; use [StreamEvent.DecodeMessage] to validate it.
	StreamEventMessage StreamEventType = "message"

	// StreamEventError is an in-band error reported by the server or raised
	// while decoding a single line. Error events do not end the stream.
	StreamEventError StreamEventType = "error"

	// StreamEventEnd marks the end of the stream. It carries no payload.
	StreamEventEnd StreamEventType = "end"

	// StreamEventUnclassified is a well-formed JSON payload whose type field
	// is missing or unrecognized. The payload is passed through raw so that
	// forward-compatible event types do not kill the stream.
	StreamEventUnclassified StreamEventType = "unclassified"
)

// StreamEvent is one decoded event from a streaming response.
type StreamEvent struct {
	// Type discriminates the event variants.
	Type StreamEventType

	// Content is the token text for token events and the error message for
	// error events.
	Content string

	// Payload is the raw JSON payload for message events (the message
	// object) and unclassified events (the whole line payload).
	Payload jsontext.Value
}

// IsTerminal reports whether the event ends the stream.
func (e *StreamEvent) IsTerminal() bool {
	return e.Type == StreamEventEnd
}

// DecodeMessage decodes the event payload into a validated ChatMessage.
// It fails for event types that carry no message payload.
func (e *StreamEvent) DecodeMessage() (*ChatMessage, error) {
	if e.Type != StreamEventMessage && e.Type != StreamEventUnclassified {
		return nil, fmt.Errorf("event type %q carries no message", e.Type)
	}
	var msg ChatMessage
	if err := json.Unmarshal(e.Payload, &msg); err != nil {
		return nil, fmt.Errorf("decode message payload: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Streaming wire format markers.
const (
	// DataPrefix is the SSE data-line prefix.
	DataPrefix = "data: "

	// DoneMarker is the literal line that terminates a stream.
	DoneMarker = "[DONE]"
)

// DecodeLine decodes one line of a streaming response body.
//
// It returns the decoded event (nil for blank lines and the termination
// marker) and whether the line terminates the stream. Lines may use the
// "data: " prefix or carry bare JSON; a line that fails to parse produces a
// non-terminal error event naming the offending text rather than an error,
// so a single bad line never aborts the caller's read loop. DecodeLine is
// pure and performs no logging; callers log error events as they see fit.
func DecodeLine(line string) (ev *StreamEvent, terminal bool) {
	defer func() {
		if r := recover(); r != nil {
			ev = &StreamEvent{
				Type:    StreamEventError,
				Content: fmt.Sprintf("Unexpected error: %v", r),
			}
			terminal = false
		}
	}()

	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}

	data := line
	if strings.HasPrefix(line, DataPrefix) {
		data = line[len(DataPrefix):]
	} else if strings.HasPrefix(line, "data:") {
		// Some servers omit the space after the field name.
		data = strings.TrimSpace(line[len("data:"):])
	}
	if data == DoneMarker {
		return nil, true
	}

	var raw struct {
		Type    string         `json:"type"`
		Content jsontext.Value `json:"content"`
	}
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return &StreamEvent{
			Type:    StreamEventError,
			Content: fmt.Sprintf("Failed to parse response: %s: %v", data, err),
		}, false
	}

	switch raw.Type {
	case string(StreamEventError):
		var msg string
		if err := json.Unmarshal(raw.Content, &msg); err != nil || msg == "" {
			msg = "Unknown error"
		}
		return &StreamEvent{Type: StreamEventError, Content: msg}, false

	case string(StreamEventToken):
		var tok string
		if err := json.Unmarshal(raw.Content, &tok); err != nil {
			// Token content of an unexpected shape is passed through raw.
			return &StreamEvent{
				Type:    StreamEventUnclassified,
				Payload: jsontext.Value(data),
			}, false
		}
		return &StreamEvent{Type: StreamEventToken, Content: tok}, false

	case string(StreamEventMessage):
		return &StreamEvent{
			Type:    StreamEventMessage,
			Payload: raw.Content,
		}, false

	default:
		// Unknown or missing discriminator: pass the payload through and
		// let the consumer resolve it against the schema.
		return &StreamEvent{
			Type:    StreamEventUnclassified,
			Payload: jsontext.Value(data),
		}, false
	}
}
