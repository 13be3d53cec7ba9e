// Package app wires configuration into the upstream clients and services
// shared by the HTTP API and the command line tool.
package app

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"ytsummarizer/internal/config"
	"ytsummarizer/internal/generation"
	"ytsummarizer/internal/highlight"
	"ytsummarizer/internal/observability"
	"ytsummarizer/internal/pipeline"
	"ytsummarizer/internal/prompt"
	"ytsummarizer/internal/transcript"
	"ytsummarizer/internal/transcript/youtube"
	"ytsummarizer/internal/upstream/gemini"
	"ytsummarizer/internal/upstream/openai"
)

type UpstreamChecker interface {
	CheckModels(ctx context.Context) error
}

type App struct {
	Upstream    UpstreamChecker
	Generator   *generation.Service
	Transcripts *transcript.Service
	Pipeline    *pipeline.Service
}

// New builds the service graph. metrics may be nil.
func New(cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) *App {
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	httpClient := &http.Client{Timeout: cfg.RequestTimeout, Transport: transport}

	var upstreamClient UpstreamChecker
	var backend generation.Backend
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		client := openai.New(cfg.UpstreamBaseURL, cfg.UpstreamAPIKey, httpClient, openai.WithObserver(metrics.ObserveUpstream))
		upstreamClient = client
		backend = generation.OpenAIBackend{Client: client}
	default:
		client := gemini.New(cfg.UpstreamBaseURL, cfg.UpstreamAPIKey, httpClient, gemini.WithObserver(metrics.ObserveUpstream))
		upstreamClient = client
		backend = generation.GeminiBackend{Client: client}
	}

	generator := generation.New(backend, cfg.SummaryModel, cfg.GenerationTimeout, cfg.SummaryTemperature, cfg.SummaryMaxOutputTokens)

	scraper := youtube.New(httpClient,
		youtube.WithBaseURL(cfg.YouTubeBaseURL),
		youtube.WithLanguages(cfg.TranscriptLanguages),
		youtube.WithRateLimit(cfg.YouTubeRequestsPerSecond, cfg.YouTubeBurst),
		youtube.WithLogger(logger),
	)
	transcripts := transcript.New(scraper, cfg.TranscriptTimeout, metrics.ObserveTranscript)

	promptCfg := prompt.DefaultConfig()
	promptCfg.MinHighlights = cfg.PromptMinHighlights
	promptCfg.MaxHighlights = cfg.PromptMaxHighlights
	promptCfg.MaxTranscriptChars = cfg.MaxTranscriptChars

	highlightCfg := highlight.DefaultConfig()
	highlightCfg.TargetCount = cfg.HighlightTargetCount

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if metrics != nil {
		opts = append(opts, pipeline.WithObserver(metrics))
	}
	summaries := pipeline.New(transcripts, generator, prompt.New(promptCfg), highlight.New(highlightCfg), opts...)

	return &App{
		Upstream:    upstreamClient,
		Generator:   generator,
		Transcripts: transcripts,
		Pipeline:    summaries,
	}
}

// NewLogger returns a text logger at the named level, defaulting to info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel}))
}
