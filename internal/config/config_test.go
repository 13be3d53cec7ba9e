package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LISTEN_ADDR", "LLM_PROVIDER", "UPSTREAM_BASE_URL", "UPSTREAM_API_KEY", "GEMINI_API_KEY",
		"SUMMARY_MODEL", "SUMMARY_TEMPERATURE", "SUMMARY_MAX_OUTPUT_TOKENS", "REQUEST_TIMEOUT_SECONDS",
		"TRANSCRIPT_TIMEOUT_SECONDS", "GENERATION_TIMEOUT_SECONDS", "TRANSCRIPT_LANGUAGES", "YOUTUBE_BASE_URL",
		"YOUTUBE_REQUESTS_PER_SECOND", "YOUTUBE_BURST", "HIGHLIGHT_TARGET_COUNT", "PROMPT_MIN_HIGHLIGHTS",
		"PROMPT_MAX_HIGHLIGHTS", "MAX_TRANSCRIPT_CHARS", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", " gem-key ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ListenAddr != ":3000" || cfg.LLMProvider != ProviderGemini {
		t.Fatalf("unexpected listen/provider: %q %q", cfg.ListenAddr, cfg.LLMProvider)
	}
	if cfg.UpstreamBaseURL != defaultGeminiBaseURL {
		t.Fatalf("unexpected base url: %q", cfg.UpstreamBaseURL)
	}
	if cfg.UpstreamAPIKey != "gem-key" {
		t.Fatalf("expected GEMINI_API_KEY fallback, got %q", cfg.UpstreamAPIKey)
	}
	if cfg.SummaryModel != "gemini-1.5-pro-002" || cfg.SummaryTemperature != 0.2 || cfg.SummaryMaxOutputTokens != 2048 {
		t.Fatalf("unexpected summary settings: %+v", cfg)
	}
	if cfg.RequestTimeout != 60*time.Second || cfg.TranscriptTimeout != 20*time.Second || cfg.GenerationTimeout != 50*time.Second {
		t.Fatalf("unexpected timeouts: %+v", cfg)
	}
	if len(cfg.TranscriptLanguages) != 1 || cfg.TranscriptLanguages[0] != "en" {
		t.Fatalf("unexpected languages: %v", cfg.TranscriptLanguages)
	}
	if cfg.HighlightTargetCount != 12 || cfg.PromptMinHighlights != 10 || cfg.PromptMaxHighlights != 15 || cfg.MaxTranscriptChars != 100000 {
		t.Fatalf("unexpected highlight settings: %+v", cfg)
	}
}

func TestLoadOpenAIProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("UPSTREAM_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "ignored")
	t.Setenv("SUMMARY_MODEL", "gpt-4o-mini")
	t.Setenv("TRANSCRIPT_LANGUAGES", "de, en ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLMProvider != ProviderOpenAI || cfg.UpstreamBaseURL != defaultOpenAIBaseURL {
		t.Fatalf("unexpected provider config: %q %q", cfg.LLMProvider, cfg.UpstreamBaseURL)
	}
	if cfg.UpstreamAPIKey != "sk-test" {
		t.Fatalf("unexpected api key: %q", cfg.UpstreamAPIKey)
	}
	if strings.Join(cfg.TranscriptLanguages, "|") != "de|en" {
		t.Fatalf("unexpected languages: %v", cfg.TranscriptLanguages)
	}
}

func TestLoadTrimsBaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPSTREAM_BASE_URL", "http://localhost:8081/v1beta/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UpstreamBaseURL != "http://localhost:8081/v1beta" {
		t.Fatalf("unexpected base url: %q", cfg.UpstreamBaseURL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"LLM_PROVIDER", "anthropic", "LLM_PROVIDER"},
		{"GENERATION_TIMEOUT_SECONDS", "0", "GENERATION_TIMEOUT_SECONDS"},
		{"PROMPT_MIN_HIGHLIGHTS", "20", "PROMPT_MIN_HIGHLIGHTS"},
		{"SUMMARY_TEMPERATURE", "3", "SUMMARY_TEMPERATURE"},
		{"YOUTUBE_BURST", "0", "YOUTUBE_BURST"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %s error, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadRejectsMalformedNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("YOUTUBE_BURST", "lots")

	if _, err := Load(); err == nil {
		t.Fatal("expected a parse error")
	}
}
