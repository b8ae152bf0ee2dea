// Copyright 2025 The Go AgentSvc Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"

	"github.com/go-agentsvc/agentsvc"
	"github.com/go-agentsvc/agentsvc/auth"
)

// Client is a session against one agent service. It owns the selected agent
// key and the cached service metadata; both are mutated only through its own
// methods.
//
// A Client is not safe for concurrent agent reselection: callers that need
// concurrent use with different agents should create independent clients or
// synchronize externally. Request methods themselves hold no mutable state
// beyond reading the current selection.
type Client struct {
	baseURL    string
	httpClient *http.Client
	credential *auth.Credential
	userAgent  string
	logger     *slog.Logger

	agent string
	info  *agentsvc.ServiceMetadata
}

// New creates a new Client. Unless disabled via [WithInfoFetch], it eagerly
// fetches the service metadata and resolves the default agent; an initial
// agent supplied via [WithAgent] is then verified against the metadata.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}

	c := &Client{
		baseURL:    o.baseURL,
		httpClient: o.httpClient,
		credential: o.credential,
		userAgent:  o.userAgent,
		logger:     o.logger,
	}

	if !o.fetchInfo {
		// Offline construction: an initial agent is applied unverified
		// and checked on first use that loads the metadata.
		c.agent = o.agent
		return c, nil
	}

	if err := c.RetrieveInfo(ctx); err != nil {
		return nil, err
	}
	if o.agent != "" {
		if err := c.UpdateAgent(ctx, o.agent); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Agent returns the currently selected agent key, or "" when none is
// selected.
func (c *Client) Agent() string {
	return c.agent
}

// Info returns the cached service metadata, or nil before the first
// successful fetch.
func (c *Client) Info() *agentsvc.ServiceMetadata {
	return c.info
}

// RetrieveInfo fetches the service metadata from the /info endpoint and
// caches it for the session's lifetime. When no agent is selected, or the
// current selection is absent from the returned agent set, the selection
// falls back to the service's declared default agent.
func (c *Client) RetrieveInfo(ctx context.Context) error {
	url := c.baseURL + agentsvc.InfoPath
	c.logger.DebugContext(ctx, "connecting to agent service", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return c.unexpected(ctx, "retrieve info", err)
	}
	c.setHeaders(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classifyRequestError(ctx, "retrieve info", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.unexpected(ctx, "retrieve info", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.httpStatusError(ctx, url, resp.StatusCode, body)
	}

	var info agentsvc.ServiceMetadata
	if err := json.Unmarshal(body, &info); err != nil {
		return c.decodeFailed(ctx, body, err)
	}
	if err := info.Validate(); err != nil {
		return c.validationFailed(ctx, err)
	}

	c.info = &info
	if c.agent == "" || !info.HasAgent(c.agent) {
		c.agent = info.DefaultAgent
	}
	c.logger.DebugContext(ctx, "connected to agent service",
		"agents", len(info.Agents), "selected", c.agent)
	return nil
}

// UpdateAgent selects the agent to use for subsequent requests, verifying
// the key against the service metadata (fetching it first when absent).
// Re-selecting the currently selected agent is a no-op success as long as
// the key remains in the agent set. Use [Client.SetAgent] to skip
// verification.
func (c *Client) UpdateAgent(ctx context.Context, agent string) error {
	if c.info == nil {
		if err := c.RetrieveInfo(ctx); err != nil {
			return err
		}
	}
	if !c.info.HasAgent(agent) {
		return c.unknownAgent(ctx, agent, c.info.AgentKeys())
	}
	c.agent = agent
	return nil
}

// SetAgent selects an agent without verifying it against the service
// metadata.
func (c *Client) SetAgent(agent string) {
	c.agent = agent
}

// Invoke sends a message to the selected agent and returns its final
// response message.
func (c *Client) Invoke(ctx context.Context, message string, opts ...InvokeOption) (*agentsvc.ChatMessage, error) {
	if c.agent == "" {
		return nil, c.noAgentSelected(ctx)
	}

	cfg := applyInvokeOptions(opts...)
	input := agentsvc.UserInput{
		Message:  message,
		ThreadID: cfg.threadID,
		Model:    cfg.model,
	}
	if err := input.Validate(); err != nil {
		return nil, c.validationFailed(ctx, err)
	}

	body, err := c.post(ctx, agentsvc.InvokePath(c.agent), &input)
	if err != nil {
		return nil, err
	}

	var msg agentsvc.ChatMessage
	if uerr := json.Unmarshal(body, &msg); uerr != nil {
		return nil, c.decodeFailed(ctx, body, uerr)
	}
	if verr := msg.Validate(); verr != nil {
		return nil, c.validationFailed(ctx, verr)
	}
	return &msg, nil
}

// Stream sends a message to the selected agent and returns the lazy event
// stream of its response. The stream must be closed by the caller; see
// [Stream]. Failures before the first line of the body — connection errors
// and non-2xx statuses — are returned here rather than surfaced as events.
func (c *Client) Stream(ctx context.Context, message string, opts ...InvokeOption) (*Stream, error) {
	if c.agent == "" {
		return nil, c.noAgentSelected(ctx)
	}

	cfg := applyInvokeOptions(opts...)
	input := agentsvc.StreamInput{
		UserInput: agentsvc.UserInput{
			Message:  message,
			ThreadID: cfg.threadID,
			Model:    cfg.model,
		},
		StreamTokens: cfg.streamTokens,
	}
	if err := input.Validate(); err != nil {
		return nil, c.validationFailed(ctx, err)
	}

	payload, err := json.Marshal(&input)
	if err != nil {
		return nil, c.unexpected(ctx, "stream", err)
	}

	url := c.baseURL + agentsvc.StreamPath(c.agent)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, c.unexpected(ctx, "stream", err)
	}
	c.setHeaders(ctx, req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	requestID := uuid.NewString()
	c.logger.DebugContext(ctx, "starting stream request",
		"agent", c.agent, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyRequestError(ctx, "stream", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, c.httpStatusError(ctx, url, resp.StatusCode, body)
	}

	return newStream(c, requestID, resp), nil
}

// CreateFeedback records a feedback score against a prior run. The run ID
// must be a UUID; the record is forwarded by the service so credentials for
// the evaluation backend stay server-side.
func (c *Client) CreateFeedback(ctx context.Context, runID, key string, score float64, kwargs map[string]any) error {
	if err := uuid.Validate(runID); err != nil {
		return c.validationFailed(ctx, &agentsvc.ValidationError{
			Field: "Feedback.RunID",
			Rule:  "uuid4",
		})
	}

	fb := agentsvc.Feedback{
		RunID:  runID,
		Key:    key,
		Score:  score,
		Kwargs: kwargs,
	}
	if err := fb.Validate(); err != nil {
		return c.validationFailed(ctx, err)
	}

	_, err := c.post(ctx, agentsvc.FeedbackPath, &fb)
	return err
}

// GetHistory fetches the chat history of a thread.
func (c *Client) GetHistory(ctx context.Context, threadID string) (*agentsvc.ChatHistory, error) {
	input := agentsvc.ChatHistoryInput{ThreadID: threadID}
	if err := input.Validate(); err != nil {
		return nil, c.validationFailed(ctx, err)
	}

	body, err := c.post(ctx, agentsvc.HistoryPath, &input)
	if err != nil {
		return nil, err
	}

	var history agentsvc.ChatHistory
	if uerr := json.Unmarshal(body, &history); uerr != nil {
		return nil, c.decodeFailed(ctx, body, uerr)
	}
	if verr := history.Validate(); verr != nil {
		return nil, c.validationFailed(ctx, verr)
	}
	return &history, nil
}

// post sends a JSON POST to the given path and returns the response body,
// with failures already normalized.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, c.unexpected(ctx, "marshal request", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, c.unexpected(ctx, "create request", err)
	}
	c.setHeaders(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyRequestError(ctx, "post "+path, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.unexpected(ctx, "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.httpStatusError(ctx, url, resp.StatusCode, body)
	}
	return body, nil
}

// setHeaders applies the default headers and the bearer credential, when one
// is configured. Attachment is unconditional policy, not per-call
// configuration.
func (c *Client) setHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if c.credential == nil {
		return
	}
	if c.credential.Expired() {
		c.logger.WarnContext(ctx, "bearer credential is expired; attaching anyway")
	}
	req.Header.Set("Authorization", c.credential.Header())
}

// invokeConfig holds per-request invocation options.
type invokeConfig struct {
	model        string
	threadID     string
	streamTokens bool
}

// InvokeOption configures a single Invoke or Stream request.
type InvokeOption func(*invokeConfig)

// applyInvokeOptions resolves the per-request defaults. Token streaming is
// on by default for streaming requests.
func applyInvokeOptions(opts ...InvokeOption) *invokeConfig {
	cfg := &invokeConfig{streamTokens: true}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithModel overrides the backend model for this request.
func WithModel(model string) InvokeOption {
	return func(cfg *invokeConfig) {
		cfg.model = model
	}
}

// WithThreadID continues an existing conversation thread.
func WithThreadID(threadID string) InvokeOption {
	return func(cfg *invokeConfig) {
		cfg.threadID = threadID
	}
}

// WithStreamTokens controls whether the stream carries incremental token
// events in addition to full messages. It has no effect on Invoke.
func WithStreamTokens(enable bool) InvokeOption {
	return func(cfg *invokeConfig) {
		cfg.streamTokens = enable
	}
}
