// Package upstream holds what the LLM provider clients share: the typed
// request error and the per-request API key carried on the context.
package upstream

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ObserverFunc receives one call per upstream round trip.
type ObserverFunc func(endpoint string, status int, duration time.Duration)

type Error struct {
	Provider   string
	StatusCode int
	Body       string
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s upstream request failed with status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s upstream request failed with status %d", e.Provider, e.StatusCode)
}

type requestAPIKeyKey struct{}

// WithRequestAPIKey attaches a caller-supplied key that takes precedence over
// the client's configured key.
func WithRequestAPIKey(ctx context.Context, key string) context.Context {
	key = strings.TrimSpace(key)
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, requestAPIKeyKey{}, key)
}

func RequestAPIKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(requestAPIKeyKey{}).(string)
	return key
}

// ResolveAPIKey returns the request key if present, otherwise fallback.
func ResolveAPIKey(ctx context.Context, fallback string) string {
	if key := RequestAPIKeyFromContext(ctx); key != "" {
		return key
	}
	return fallback
}

func TruncateBody(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 4096 {
		return s
	}
	return s[:4096] + "..."
}
