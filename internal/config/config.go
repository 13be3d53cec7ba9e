package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
)

type Config struct {
	ListenAddr               string
	LLMProvider              string
	UpstreamBaseURL          string
	UpstreamAPIKey           string
	SummaryModel             string
	SummaryTemperature       float64
	SummaryMaxOutputTokens   int
	RequestTimeout           time.Duration
	TranscriptTimeout        time.Duration
	GenerationTimeout        time.Duration
	TranscriptLanguages      []string
	YouTubeBaseURL           string
	YouTubeRequestsPerSecond float64
	YouTubeBurst             int
	HighlightTargetCount     int
	PromptMinHighlights      int
	PromptMaxHighlights      int
	MaxTranscriptChars       int
	LogLevel                 string
}

type envConfig struct {
	ListenAddr               string   `env:"LISTEN_ADDR" envDefault:":3000"`
	LLMProvider              string   `env:"LLM_PROVIDER" envDefault:"gemini"`
	UpstreamBaseURL          string   `env:"UPSTREAM_BASE_URL"`
	UpstreamAPIKey           string   `env:"UPSTREAM_API_KEY"`
	GeminiAPIKey             string   `env:"GEMINI_API_KEY"`
	SummaryModel             string   `env:"SUMMARY_MODEL" envDefault:"gemini-1.5-pro-002"`
	SummaryTemperature       float64  `env:"SUMMARY_TEMPERATURE" envDefault:"0.2"`
	SummaryMaxOutputTokens   int      `env:"SUMMARY_MAX_OUTPUT_TOKENS" envDefault:"2048"`
	RequestTimeoutSeconds    int      `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"60"`
	TranscriptTimeoutSeconds int      `env:"TRANSCRIPT_TIMEOUT_SECONDS" envDefault:"20"`
	GenerationTimeoutSeconds int      `env:"GENERATION_TIMEOUT_SECONDS" envDefault:"50"`
	TranscriptLanguages      []string `env:"TRANSCRIPT_LANGUAGES" envDefault:"en" envSeparator:","`
	YouTubeBaseURL           string   `env:"YOUTUBE_BASE_URL" envDefault:"https://www.youtube.com"`
	YouTubeRequestsPerSecond float64  `env:"YOUTUBE_REQUESTS_PER_SECOND" envDefault:"2"`
	YouTubeBurst             int      `env:"YOUTUBE_BURST" envDefault:"4"`
	HighlightTargetCount     int      `env:"HIGHLIGHT_TARGET_COUNT" envDefault:"12"`
	PromptMinHighlights      int      `env:"PROMPT_MIN_HIGHLIGHTS" envDefault:"10"`
	PromptMaxHighlights      int      `env:"PROMPT_MAX_HIGHLIGHTS" envDefault:"15"`
	MaxTranscriptChars       int      `env:"MAX_TRANSCRIPT_CHARS" envDefault:"100000"`
	LogLevel                 string   `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (Config, error) {
	var raw envConfig
	if err := cenv.Parse(&raw); err != nil {
		return Config{}, err
	}

	provider := strings.ToLower(strings.TrimSpace(raw.LLMProvider))
	baseURL := strings.TrimRight(strings.TrimSpace(raw.UpstreamBaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL(provider)
	}
	apiKey := strings.TrimSpace(raw.UpstreamAPIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(raw.GeminiAPIKey)
	}

	cfg := Config{
		ListenAddr:               strings.TrimSpace(raw.ListenAddr),
		LLMProvider:              provider,
		UpstreamBaseURL:          baseURL,
		UpstreamAPIKey:           apiKey,
		SummaryModel:             strings.TrimSpace(raw.SummaryModel),
		SummaryTemperature:       raw.SummaryTemperature,
		SummaryMaxOutputTokens:   raw.SummaryMaxOutputTokens,
		RequestTimeout:           time.Duration(raw.RequestTimeoutSeconds) * time.Second,
		TranscriptTimeout:        time.Duration(raw.TranscriptTimeoutSeconds) * time.Second,
		GenerationTimeout:        time.Duration(raw.GenerationTimeoutSeconds) * time.Second,
		TranscriptLanguages:      cleanList(raw.TranscriptLanguages),
		YouTubeBaseURL:           strings.TrimRight(strings.TrimSpace(raw.YouTubeBaseURL), "/"),
		YouTubeRequestsPerSecond: raw.YouTubeRequestsPerSecond,
		YouTubeBurst:             raw.YouTubeBurst,
		HighlightTargetCount:     raw.HighlightTargetCount,
		PromptMinHighlights:      raw.PromptMinHighlights,
		PromptMaxHighlights:      raw.PromptMaxHighlights,
		MaxTranscriptChars:       raw.MaxTranscriptChars,
		LogLevel:                 strings.ToLower(strings.TrimSpace(raw.LogLevel)),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultBaseURL returns the API root for a provider, or "" if unknown.
func DefaultBaseURL(provider string) string {
	switch provider {
	case ProviderGemini:
		return defaultGeminiBaseURL
	case ProviderOpenAI:
		return defaultOpenAIBaseURL
	}
	return ""
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("LISTEN_ADDR must not be empty")
	}
	if c.LLMProvider != ProviderGemini && c.LLMProvider != ProviderOpenAI {
		return fmt.Errorf("LLM_PROVIDER must be %q or %q", ProviderGemini, ProviderOpenAI)
	}
	if c.UpstreamBaseURL == "" {
		return errors.New("UPSTREAM_BASE_URL must not be empty")
	}
	if c.SummaryModel == "" {
		return errors.New("SUMMARY_MODEL must not be empty")
	}
	if c.SummaryTemperature < 0 || c.SummaryTemperature > 2 {
		return errors.New("SUMMARY_TEMPERATURE must be between 0 and 2")
	}
	if c.SummaryMaxOutputTokens <= 0 {
		return errors.New("SUMMARY_MAX_OUTPUT_TOKENS must be > 0")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT_SECONDS must be > 0")
	}
	if c.TranscriptTimeout <= 0 {
		return errors.New("TRANSCRIPT_TIMEOUT_SECONDS must be > 0")
	}
	if c.GenerationTimeout <= 0 {
		return errors.New("GENERATION_TIMEOUT_SECONDS must be > 0")
	}
	if len(c.TranscriptLanguages) == 0 {
		return errors.New("TRANSCRIPT_LANGUAGES must not be empty")
	}
	if c.YouTubeBaseURL == "" {
		return errors.New("YOUTUBE_BASE_URL must not be empty")
	}
	if c.YouTubeRequestsPerSecond < 0 {
		return errors.New("YOUTUBE_REQUESTS_PER_SECOND must be >= 0")
	}
	if c.YouTubeBurst <= 0 {
		return errors.New("YOUTUBE_BURST must be > 0")
	}
	if c.HighlightTargetCount <= 0 {
		return errors.New("HIGHLIGHT_TARGET_COUNT must be > 0")
	}
	if c.PromptMinHighlights <= 0 || c.PromptMaxHighlights < c.PromptMinHighlights {
		return errors.New("PROMPT_MIN_HIGHLIGHTS must be > 0 and <= PROMPT_MAX_HIGHLIGHTS")
	}
	if c.MaxTranscriptChars <= 0 {
		return errors.New("MAX_TRANSCRIPT_CHARS must be > 0")
	}
	return nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
