package google

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/yhlin/sitecal/internal/logging"
)

// PromptMode selects how a token acquisition may interact with the user.
type PromptMode string

const (
	// PromptSilent acquires a token without any user-visible interaction,
	// typically by refreshing cached credentials.
	PromptSilent PromptMode = "none"

	// PromptConsent runs the interactive consent flow.
	PromptConsent PromptMode = "consent"
)

// Authorizer is the seam to the underlying OAuth implementation. The
// production implementation is FlowAuthorizer; tests substitute fakes.
type Authorizer interface {
	RequestToken(ctx context.Context, mode PromptMode) (*oauth2.Token, error)
}

// Token is the cached access token. Validity is discovered reactively: a
// downstream 401 invalidates it, no local expiry is tracked.
type Token struct {
	Value      string
	Scope      string
	ObtainedAt time.Time
}

// Manager owns token acquisition and caching. At most one token is cached
// at a time, and concurrent acquisitions coalesce into a single underlying
// flow so the user never sees duplicate consent prompts.
type Manager struct {
	authorizer Authorizer
	logger     *slog.Logger

	mu          sync.Mutex
	clientID    string
	initialized bool
	token       *Token

	flight singleflight.Group
}

// NewManager creates a Manager around the given authorizer. A nil authorizer
// is allowed; Initialize and every acquisition will then report
// ErrSDKUnavailable.
func NewManager(authorizer Authorizer, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		authorizer: authorizer,
		logger:     logging.WithService(logger, "oauth"),
	}
}

// Initialize prepares the manager to request tokens. It is idempotent.
func (m *Manager) Initialize(clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authorizer == nil {
		return ErrSDKUnavailable
	}
	if m.initialized {
		return nil
	}
	m.clientID = clientID
	m.initialized = true
	return nil
}

// cached returns the current token value, or "" if none is cached.
func (m *Manager) cached() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return ""
	}
	return m.token.Value
}

// AcquireToken runs one acquisition flow. Silent mode escalates once to
// consent before surfacing a final error; a failed acquisition clears the
// cache. Concurrent callers share the outcome of a single in-flight request.
func (m *Manager) AcquireToken(ctx context.Context, mode PromptMode) (string, error) {
	v, err, shared := m.flight.Do("token", func() (interface{}, error) {
		return m.acquire(ctx, mode)
	})
	if shared {
		m.logger.Debug("token acquisition coalesced with in-flight request")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) acquire(ctx context.Context, mode PromptMode) (string, error) {
	m.mu.Lock()
	if m.authorizer == nil {
		m.mu.Unlock()
		return "", ErrSDKUnavailable
	}
	if !m.initialized {
		m.initialized = true
	}
	m.mu.Unlock()

	tok, err := m.authorizer.RequestToken(ctx, mode)
	if err != nil && mode == PromptSilent {
		m.logger.Info("silent token acquisition failed, escalating to consent",
			logging.Err(err))
		tok, err = m.authorizer.RequestToken(ctx, PromptConsent)
	}
	if err != nil {
		m.mu.Lock()
		m.token = nil
		m.mu.Unlock()
		m.logger.Warn("token acquisition failed", logging.Err(err))
		return "", fmt.Errorf("%w: %v", ErrAuthDenied, err)
	}

	// The token endpoint reports the granted scope alongside the token.
	scope, _ := tok.Extra("scope").(string)

	m.mu.Lock()
	m.token = &Token{
		Value:      tok.AccessToken,
		Scope:      scope,
		ObtainedAt: time.Now(),
	}
	m.mu.Unlock()

	m.logger.Debug("token acquired",
		slog.String("token", logging.SanitizeToken(tok.AccessToken)))
	return tok.AccessToken, nil
}

// GetValidAccessToken returns the cached token when one is present and
// forceReauth is false; otherwise it acquires one, silent-first unless
// forced.
func (m *Manager) GetValidAccessToken(ctx context.Context, forceReauth bool) (string, error) {
	if !forceReauth {
		if v := m.cached(); v != "" {
			return v, nil
		}
		return m.AcquireToken(ctx, PromptSilent)
	}
	return m.AcquireToken(ctx, PromptConsent)
}

// Invalidate drops the cached token. The next acquisition starts from
// scratch.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.token = nil
	m.mu.Unlock()
}

// Reauthorize drops the cached token and runs a consent-mode acquisition.
// Sync clients call this after a downstream 401 before retrying the
// original request exactly once. Consent mode is deliberate: the server
// just rejected the credentials a silent refresh would reuse.
func (m *Manager) Reauthorize(ctx context.Context) (string, error) {
	m.Invalidate()
	return m.AcquireToken(ctx, PromptConsent)
}
