// Copyright 2025 The Go AgentSvc Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-agentsvc/agentsvc"
)

// Kind identifies the originating cause of an [Error]. Kinds are used for
// logging and tests; callers are expected to treat the agent service failure
// surface as a single error type with a descriptive message.
type Kind int

// Error cause kinds.
const (
	// KindUnexpected is the catch-all for failures with no better mapping.
	KindUnexpected Kind = iota

	// KindConnectionFailed means the service could not be reached.
	KindConnectionFailed

	// KindHTTPStatus means the service answered with a non-2xx status.
	KindHTTPStatus

	// KindDecodeFailed means a response body was not valid JSON.
	KindDecodeFailed

	// KindValidationFailed means a payload failed schema validation.
	KindValidationFailed

	// KindNoAgentSelected means an operation that needs an agent ran
	// before one was selected.
	KindNoAgentSelected

	// KindUnknownAgent means the requested agent key is not hosted by
	// the service.
	KindUnknownAgent
)

// String returns the wire-style name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConnectionFailed:
		return "connection_failed"
	case KindHTTPStatus:
		return "http_status_error"
	case KindDecodeFailed:
		return "decode_failed"
	case KindValidationFailed:
		return "validation_failed"
	case KindNoAgentSelected:
		return "no_agent_selected"
	case KindUnknownAgent:
		return "unknown_agent"
	default:
		return "unexpected"
	}
}

// ErrStreamClosed is returned when receiving from a closed stream.
var ErrStreamClosed = errors.New("stream is closed")

// Error is the single error type surfaced by the client. The message is
// built deterministically from the cause kind and intentionally omits raw
// transport internals; the full detail is logged at error level when the
// error is created.
type Error struct {
	kind    Kind
	message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.message
}

// Kind returns the originating cause kind.
func (e *Error) Kind() Kind {
	return e.kind
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an [Error] with the same kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.kind == other.kind
	}
	return false
}

// errorKind extracts the cause kind from an error produced by this package.
func errorKind(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.kind, true
	}
	return 0, false
}

// IsConnectionFailed reports whether err is a connection failure.
func IsConnectionFailed(err error) bool {
	k, ok := errorKind(err)
	return ok && k == KindConnectionFailed
}

// IsHTTPStatus reports whether err is a non-2xx HTTP status failure.
func IsHTTPStatus(err error) bool {
	k, ok := errorKind(err)
	return ok && k == KindHTTPStatus
}

// IsDecodeFailed reports whether err is a response decode failure.
func IsDecodeFailed(err error) bool {
	k, ok := errorKind(err)
	return ok && k == KindDecodeFailed
}

// IsValidationFailed reports whether err is a schema validation failure.
func IsValidationFailed(err error) bool {
	k, ok := errorKind(err)
	return ok && k == KindValidationFailed
}

// IsNoAgentSelected reports whether err is the missing-selection precondition.
func IsNoAgentSelected(err error) bool {
	k, ok := errorKind(err)
	return ok && k == KindNoAgentSelected
}

// IsUnknownAgent reports whether err is an unknown-agent failure.
func IsUnknownAgent(err error) bool {
	k, ok := errorKind(err)
	return ok && k == KindUnknownAgent
}

// The methods below are the error normalizer: every failure mode collapses
// to an *Error with a deterministic message, and the original detail is
// logged at error level before the normalized value is returned. They are
// total over the cause kinds and never panic.

func (c *Client) connectionFailed(ctx context.Context, url string, cause error) *Error {
	c.logger.ErrorContext(ctx, "failed to connect to agent service",
		"url", url, "error", cause)
	return &Error{
		kind:    KindConnectionFailed,
		message: "Error connecting to agent service: Connection refused",
		cause:   cause,
	}
}

func (c *Client) httpStatusError(ctx context.Context, url string, status int, body []byte) *Error {
	c.logger.ErrorContext(ctx, "agent service returned an error status",
		"url", url, "status", status, "body", string(body))
	return &Error{
		kind:    KindHTTPStatus,
		message: fmt.Sprintf("Agent service returned HTTP %d", status),
	}
}

func (c *Client) decodeFailed(ctx context.Context, raw []byte, cause error) *Error {
	c.logger.ErrorContext(ctx, "failed to decode agent service response",
		"raw", string(raw), "error", cause)
	return &Error{
		kind:    KindDecodeFailed,
		message: "Error decoding response from agent service",
		cause:   cause,
	}
}

func (c *Client) validationFailed(ctx context.Context, cause error) *Error {
	field := ""
	var verr *agentsvc.ValidationError
	if errors.As(cause, &verr) {
		field = verr.Field
	}
	c.logger.ErrorContext(ctx, "agent service payload failed validation",
		"field", field, "error", cause)

	msg := "Invalid payload for agent service"
	if field != "" {
		msg = fmt.Sprintf("Invalid payload for agent service: field %s", field)
	}
	return &Error{
		kind:    KindValidationFailed,
		message: msg,
		cause:   cause,
	}
}

func (c *Client) noAgentSelected(ctx context.Context) *Error {
	c.logger.ErrorContext(ctx, "operation requires a selected agent")
	return &Error{
		kind:    KindNoAgentSelected,
		message: "No agent selected. Use UpdateAgent to select an agent.",
	}
}

func (c *Client) unknownAgent(ctx context.Context, key string, valid []string) *Error {
	keys := make([]string, len(valid))
	copy(keys, valid)
	sort.Strings(keys)
	joined := strings.Join(keys, ", ")

	c.logger.ErrorContext(ctx, "requested agent is not hosted by the service",
		"agent", key, "available", joined)
	return &Error{
		kind:    KindUnknownAgent,
		message: fmt.Sprintf("Agent %s not found in available agents: %s", key, joined),
	}
}

func (c *Client) unexpected(ctx context.Context, op string, cause error) *Error {
	c.logger.ErrorContext(ctx, "unexpected agent service failure",
		"op", op, "error", cause)
	return &Error{
		kind:    KindUnexpected,
		message: "Unexpected error communicating with agent service",
		cause:   cause,
	}
}

// classifyRequestError maps a transport-level failure from the HTTP client
// onto the connection or unexpected kinds. Cancellation is the caller's
// doing and stays in the unexpected bucket; everything the transport could
// not deliver counts as a connection failure.
func (c *Client) classifyRequestError(ctx context.Context, op, url string, err error) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return c.unexpected(ctx, op, err)
	}
	return c.connectionFailed(ctx, url, err)
}
