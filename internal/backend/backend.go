// Package backend adapts remote structured-extraction services to the work-order record.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"workorder-intake-go/internal/config"
	"workorder-intake-go/internal/retry"
)

// Completer sends one system and user instruction pair to a provider and returns the reply text.
// Transient failures come back as plain errors; failures that must not be retried are
// wrapped with retry.Terminal.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Provider() string
}

// StatusError is a non-2xx reply from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, truncate(e.Body, 200))
}

// Transient reports whether the status is worth retrying (408, 429, 5xx).
func (e *StatusError) Transient() bool {
	return IsTransientStatus(e.StatusCode)
}

// IsTransientStatus classifies an HTTP status code.
func IsTransientStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
}

// statusFailure builds the error for a non-2xx reply, marking 4xx-class replies terminal.
func statusFailure(provider string, code int, body []byte) error {
	err := &StatusError{Provider: provider, StatusCode: code, Body: string(body)}
	if err.Transient() {
		return err
	}
	return retry.Terminal(err)
}

// IsNetworkError reports whether err came from the transport rather than the provider.
func IsNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

const (
	defaultOpenAIModel      = "gpt-4o-mini"
	defaultOpenAIBaseURL    = "https://api.openai.com"
	defaultAnthropicModel   = "claude-3-5-haiku-latest"
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultGeminiModel      = "gemini-1.5-flash"

	maxReplyTokens = 2048
)

// NewCompleter builds the provider client for a configured backend slot.
func NewCompleter(ctx context.Context, b config.Backend, timeout time.Duration) (Completer, error) {
	if !b.Enabled() {
		return nil, fmt.Errorf("%s: API key required", b.Provider)
	}
	switch b.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(b, timeout), nil
	case config.ProviderAnthropic:
		return NewAnthropicClient(b, timeout), nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, b)
	default:
		return nil, fmt.Errorf("unknown provider %q", b.Provider)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
