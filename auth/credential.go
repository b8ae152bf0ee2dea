// Copyright 2025 The Go AgentSvc Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth provides the bearer credential attached to agent service
// requests. Credential acquisition is out of scope; a credential is supplied
// by the caller or read from the environment at construction time, and the
// client attaches it to every request while it is configured.
package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwt"
)

// EnvAuthSecret is the environment variable the credential is read from.
const EnvAuthSecret = "AUTH_SECRET"

// Credential is a pre-supplied bearer secret.
//
// A Credential is immutable after construction. When the secret is a JWT,
// ParseJWT records its expiration so callers can detect a stale credential
// before the server rejects it; the client still attaches expired
// credentials, since expiry policy belongs to the server.
type Credential struct {
	token     string
	expiresAt time.Time
}

// Bearer creates a credential from a raw bearer secret.
func Bearer(token string) *Credential {
	return &Credential{token: token}
}

// FromEnv reads the credential from the AUTH_SECRET environment variable.
// It returns nil when the variable is unset or empty, in which case requests
// carry no Authorization header.
func FromEnv() *Credential {
	token := os.Getenv(EnvAuthSecret)
	if token == "" {
		return nil
	}
	return Bearer(token)
}

// ParseJWT creates a credential from a JWT, capturing its expiration claim.
// The token signature is not verified; verification is the server's job.
func ParseJWT(token string) (*Credential, error) {
	parsed, err := jwt.ParseInsecure([]byte(token))
	if err != nil {
		return nil, fmt.Errorf("parse JWT credential: %w", err)
	}

	c := Bearer(token)
	if exp, ok := parsed.Expiration(); ok {
		c.expiresAt = exp
	}
	return c, nil
}

// Header returns the Authorization header value for the credential.
func (c *Credential) Header() string {
	return "Bearer " + c.token
}

// ExpiresAt returns the credential's expiration time, when known.
func (c *Credential) ExpiresAt() (time.Time, bool) {
	if c.expiresAt.IsZero() {
		return time.Time{}, false
	}
	return c.expiresAt, true
}

// Expired reports whether the credential is known to be expired.
// Credentials with no recorded expiration are never considered expired.
func (c *Credential) Expired() bool {
	return !c.expiresAt.IsZero() && time.Now().After(c.expiresAt)
}
