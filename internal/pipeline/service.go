package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ytsummarizer/internal/generation"
	"ytsummarizer/internal/highlight"
	"ytsummarizer/internal/prompt"
	"ytsummarizer/internal/response"
	"ytsummarizer/internal/timestamp"
	"ytsummarizer/internal/transcript"
	"ytsummarizer/internal/video"
)

// ErrNoInput is returned when neither a video id nor a transcript is given.
var ErrNoInput = errors.New("video_id or transcript is required")

type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoIDOrURL string) (transcript.Transcript, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string, opts generation.Options) (generation.Result, error)
}

type StatsObserver interface {
	ObserveNormalization(stats highlight.Stats)
	ObserveSummary(outcome string)
}

type Option func(*Service)

func WithObserver(observer StatsObserver) Option {
	return func(s *Service) { s.observer = observer }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type Service struct {
	transcripts TranscriptFetcher
	generator   Generator
	builder     *prompt.Builder
	normalizer  highlight.Normalizer
	observer    StatsObserver
	logger      *slog.Logger
}

type Input struct {
	VideoID               string
	Transcript            string
	Cues                  []video.Cue
	Title                 string
	DurationSeconds       int
	DescriptionTimestamps []video.DescriptionTimestamp
	// IsQuestion overrides title-based question detection when set.
	IsQuestion *bool
	Model      string
}

type Timings struct {
	Transcript time.Duration
	Generation time.Duration
	Total      time.Duration
}

// Interpretation is a model reply after parsing and normalization.
type Interpretation struct {
	Title           string
	SummaryPoints   []string
	Highlights      []highlight.Highlight
	Answer          *string
	AnswerSeconds   *int
	AnswerTimestamp string
	Stats           highlight.Stats
}

type Result struct {
	Interpretation
	VideoID         string
	VideoTitle      string
	DurationSeconds int
	IsQuestion      bool
	Model           string
	FinishReason    string
	Usage           *generation.TokenUsage
	Timings         Timings
}

func New(transcripts TranscriptFetcher, generator Generator, builder *prompt.Builder, normalizer highlight.Normalizer, opts ...Option) *Service {
	if builder == nil {
		builder = prompt.New(prompt.DefaultConfig())
	}
	s := &Service{
		transcripts: transcripts,
		generator:   generator,
		builder:     builder,
		normalizer:  normalizer,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Summarize gathers the transcript, asks the model for a structured summary
// and turns the reply into a normalized result. Only transcript and model
// failures abort; a sparse or garbled reply still yields a result.
func (s *Service) Summarize(ctx context.Context, in Input) (Result, error) {
	started := time.Now()

	cues := in.Cues
	text := strings.TrimSpace(in.Transcript)
	videoID := strings.TrimSpace(in.VideoID)
	var fetched transcript.Transcript

	transcriptStarted := time.Now()
	if len(cues) == 0 && text == "" {
		if videoID == "" || s.transcripts == nil {
			s.observeSummary("invalid_input")
			return Result{}, ErrNoInput
		}
		t, err := s.transcripts.Fetch(ctx, videoID)
		if err != nil {
			s.observeSummary("transcript_failed")
			return Result{}, err
		}
		fetched = t
		videoID = t.VideoID
		cues = t.Cues
	}
	transcriptDuration := time.Since(transcriptStarted)
	if text == "" {
		text = video.TranscriptText(cues)
	}

	vc := video.Context{
		Title:                 firstNonEmpty(in.Title, fetched.Title),
		DurationSeconds:       in.DurationSeconds,
		DescriptionTimestamps: in.DescriptionTimestamps,
	}
	if vc.DurationSeconds <= 0 {
		vc.DurationSeconds = fetched.LengthSeconds
	}
	if vc.DurationSeconds <= 0 {
		vc.DurationSeconds = video.EndSeconds(cues)
	}
	if len(vc.DescriptionTimestamps) == 0 && fetched.Description != "" {
		vc.DescriptionTimestamps = video.ExtractDescriptionTimestamps(fetched.Description)
	}

	isQuestion := prompt.IsQuestionTitle(vc.Title)
	if in.IsQuestion != nil {
		isQuestion = *in.IsQuestion
	}

	promptText := s.builder.Build(text, vc, prompt.Options{Cues: cues, IsQuestion: isQuestion})

	generationStarted := time.Now()
	gen, err := s.generator.Generate(ctx, promptText, generation.Options{Model: in.Model})
	generationDuration := time.Since(generationStarted)
	if err != nil {
		s.observeSummary("generation_failed")
		return Result{}, err
	}
	if isTruncated(gen.FinishReason) {
		s.logger.Warn("model reply truncated", "video_id", videoID, "finish_reason", gen.FinishReason, "model", gen.Model)
	}

	interp := s.Interpret(gen.Text, vc.DurationSeconds, isQuestion)
	if interp.Title == "" {
		interp.Title = vc.Title
	}
	s.logger.Debug("summary normalized",
		"video_id", videoID,
		"highlights", len(interp.Highlights),
		"dropped", interp.Stats.Dropped,
		"synthesized", interp.Stats.Synthesized(),
	)
	s.observeSummary("ok")

	return Result{
		Interpretation:  interp,
		VideoID:         videoID,
		VideoTitle:      vc.Title,
		DurationSeconds: vc.DurationSeconds,
		IsQuestion:      isQuestion,
		Model:           gen.Model,
		FinishReason:    gen.FinishReason,
		Usage:           gen.Usage,
		Timings: Timings{
			Transcript: transcriptDuration,
			Generation: generationDuration,
			Total:      time.Since(started),
		},
	}, nil
}

// Interpret parses a raw model reply and normalizes its highlights against
// durationSeconds. It never fails.
func (s *Service) Interpret(raw string, durationSeconds int, isQuestion bool) Interpretation {
	parsed := response.Parse(raw, response.Options{ExpectAnswer: isQuestion})
	highlights, stats := s.normalizer.NormalizeWithStats(parsed.Highlights, durationSeconds)
	if s.observer != nil {
		s.observer.ObserveNormalization(stats)
	}

	out := Interpretation{
		Title:         parsed.Title,
		SummaryPoints: parsed.SummaryPoints,
		Highlights:    highlights,
		Stats:         stats,
	}
	if out.SummaryPoints == nil {
		out.SummaryPoints = []string{}
	}
	if isQuestion && parsed.Answer != "" {
		answer := parsed.Answer
		out.Answer = &answer
	}
	if isQuestion && parsed.AnswerTimestamp != "" {
		if secs, err := timestamp.Parse(parsed.AnswerTimestamp); err == nil && (durationSeconds <= 0 || secs <= durationSeconds) {
			out.AnswerSeconds = &secs
			out.AnswerTimestamp = timestamp.Format(secs)
		}
	}
	return out
}

func (s *Service) observeSummary(outcome string) {
	if s.observer != nil {
		s.observer.ObserveSummary(outcome)
	}
}

func isTruncated(finishReason string) bool {
	switch strings.ToUpper(finishReason) {
	case "MAX_TOKENS", "LENGTH":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
