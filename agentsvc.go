// Copyright 2025 The Go AgentSvc Authors
// SPDX-License-Identifier: Apache-2.0

// Package agentsvc defines the wire types and stream decoding logic for the
// agent service protocol.
//
// The agent service exposes a small REST surface: a service metadata endpoint,
// per-agent invoke and stream endpoints, and feedback/history endpoints. This
// package holds the typed request and response payloads, their schema
// validation, and the decoder for the newline-delimited SSE stream format.
// The HTTP client built on top of these types lives in the client subpackage.
package agentsvc

// Version is the version of this module.
const Version = "0.1.0"

// Agent service endpoint paths.
const (
	// InfoPath is the path for retrieving service metadata.
	InfoPath = "/info"

	// FeedbackPath is the path for recording feedback on a prior run.
	FeedbackPath = "/feedback"

	// HistoryPath is the path for fetching the chat history of a thread.
	HistoryPath = "/history"
)

// InvokePath returns the one-shot invoke path for the named agent.
func InvokePath(agent string) string {
	return "/" + agent + "/invoke"
}

// StreamPath returns the streaming invoke path for the named agent.
func StreamPath(agent string) string {
	return "/" + agent + "/stream"
}
