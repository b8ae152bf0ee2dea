// Copyright 2025 The Go AgentSvc Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-agentsvc/agentsvc"
	"github.com/go-agentsvc/agentsvc/auth"
)

// DefaultBaseURL is the base URL used when none is configured.
const DefaultBaseURL = "http://localhost"

const defaultTimeout = 30 * time.Second

// Option configures a Client.
type Option func(*options) error

// options holds all configuration for a Client.
type options struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *slog.Logger

	agent      string
	credential *auth.Credential
	fetchInfo  bool
}

// defaultOptions returns default client options. The credential defaults to
// whatever the AUTH_SECRET environment variable holds at construction time.
func defaultOptions() *options {
	return &options{
		baseURL:    DefaultBaseURL,
		timeout:    defaultTimeout,
		userAgent:  "go-agentsvc/client " + agentsvc.Version,
		logger:     slog.Default(),
		credential: auth.FromEnv(),
		fetchInfo:  true,
	}
}

// WithBaseURL sets the base URL of the agent service.
func WithBaseURL(url string) Option {
	return func(o *options) error {
		if url == "" {
			return fmt.Errorf("base URL cannot be empty")
		}
		o.baseURL = url
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) error {
		if client == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		o.httpClient = client
		return nil
	}
}

// WithTimeout sets the per-request timeout. It is ignored when a custom
// HTTP client is supplied.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive")
		}
		o.timeout = timeout
		return nil
	}
}

// WithAgent selects the initial agent. The selection is verified against the
// service metadata during construction unless the eager info fetch is
// disabled, in which case it is applied unverified.
func WithAgent(agent string) Option {
	return func(o *options) error {
		if agent == "" {
			return fmt.Errorf("agent cannot be empty")
		}
		o.agent = agent
		return nil
	}
}

// WithCredential sets the bearer credential attached to every request.
// Passing nil disables the Authorization header even when AUTH_SECRET is
// set in the environment.
func WithCredential(credential *auth.Credential) Option {
	return func(o *options) error {
		o.credential = credential
		return nil
	}
}

// WithLogger sets the [*slog.Logger] used for operational logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithInfoFetch controls the eager service metadata fetch during
// construction. It is enabled by default; disable it to construct a client
// without touching the network.
func WithInfoFetch(enable bool) Option {
	return func(o *options) error {
		o.fetchInfo = enable
		return nil
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(o *options) error {
		if ua == "" {
			return fmt.Errorf("user agent cannot be empty")
		}
		o.userAgent = ua
		return nil
	}
}
