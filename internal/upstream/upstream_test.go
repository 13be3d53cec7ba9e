package upstream

import (
	"context"
	"strings"
	"testing"
)

func TestResolveAPIKeyPrefersRequestKey(t *testing.T) {
	ctx := WithRequestAPIKey(context.Background(), "  request-key ")
	if got := ResolveAPIKey(ctx, "server-key"); got != "request-key" {
		t.Fatalf("unexpected key: %q", got)
	}
	if got := ResolveAPIKey(context.Background(), "server-key"); got != "server-key" {
		t.Fatalf("unexpected fallback key: %q", got)
	}
}

func TestWithRequestAPIKeyIgnoresBlank(t *testing.T) {
	ctx := WithRequestAPIKey(context.Background(), "   ")
	if got := RequestAPIKeyFromContext(ctx); got != "" {
		t.Fatalf("expected no key, got %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	cases := map[string]*Error{
		"gemini upstream request failed with status 429":               {Provider: "gemini", StatusCode: 429},
		"openai upstream request failed with status 500: bad gateway": {Provider: "openai", StatusCode: 500, Message: "bad gateway"},
		"gemini: empty candidates":                                     {Provider: "gemini", Message: "empty candidates"},
	}
	for want, err := range cases {
		if got := err.Error(); got != want {
			t.Fatalf("Error(): got %q want %q", got, want)
		}
	}
}

func TestTruncateBody(t *testing.T) {
	long := strings.Repeat("a", 5000)
	got := TruncateBody(long)
	if len(got) != 4096+len("...") || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected truncation length %d", len(got))
	}
	if got := TruncateBody("  short \n"); got != "short" {
		t.Fatalf("unexpected body: %q", got)
	}
}
