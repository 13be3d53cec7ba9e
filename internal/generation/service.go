package generation

import (
	"context"
	"errors"
	"strings"
	"time"
)

// SystemInstruction frames every summary request. The per-video instructions
// live in the prompt itself.
const SystemInstruction = "You summarize YouTube videos from their transcripts. Follow the requested output structure exactly and never invent timestamps beyond the video duration."

var ErrEmptyPrompt = errors.New("generation: prompt is empty")

type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Request is what a Backend sends to its provider.
type Request struct {
	Model           string
	System          string
	Prompt          string
	Temperature     float64
	MaxOutputTokens int
}

type Completion struct {
	Text         string
	Model        string
	FinishReason string
	Usage        *TokenUsage
}

// Backend is a single LLM provider.
type Backend interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

type Options struct {
	Model           string
	Temperature     *float64
	MaxOutputTokens int
}

type Result struct {
	Text         string
	Model        string
	FinishReason string
	Usage        *TokenUsage
}

type Service struct {
	backend         Backend
	defaultModel    string
	timeout         time.Duration
	temperature     float64
	maxOutputTokens int
}

func New(backend Backend, defaultModel string, timeout time.Duration, temperature float64, maxOutputTokens int) *Service {
	return &Service{
		backend:         backend,
		defaultModel:    strings.TrimSpace(defaultModel),
		timeout:         timeout,
		temperature:     temperature,
		maxOutputTokens: maxOutputTokens,
	}
}

func (s *Service) DefaultModel() string { return s.defaultModel }

// Generate sends prompt to the backend under the service timeout and returns
// the reply text with any surrounding code fence removed.
func (s *Service) Generate(ctx context.Context, prompt string, opts Options) (Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return Result{}, ErrEmptyPrompt
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = s.defaultModel
	}
	temperature := s.temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := s.maxOutputTokens
	if opts.MaxOutputTokens > 0 {
		maxTokens = opts.MaxOutputTokens
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	completion, err := s.backend.Complete(ctx, Request{
		Model:           model,
		System:          SystemInstruction,
		Prompt:          prompt,
		Temperature:     temperature,
		MaxOutputTokens: maxTokens,
	})
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Text:         stripFences(completion.Text),
		Model:        completion.Model,
		FinishReason: completion.FinishReason,
		Usage:        completion.Usage,
	}
	if result.Model == "" {
		result.Model = model
	}
	return result, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], " :") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
