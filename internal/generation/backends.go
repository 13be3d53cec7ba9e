package generation

import (
	"context"

	"ytsummarizer/internal/upstream/gemini"
	"ytsummarizer/internal/upstream/openai"
)

type ChatClient interface {
	ChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type ContentClient interface {
	GenerateContent(ctx context.Context, model string, req gemini.GenerateContentRequest) (gemini.GenerateContentResponse, error)
}

// OpenAIBackend talks to any OpenAI-compatible /chat/completions endpoint.
type OpenAIBackend struct {
	Client ChatClient
}

func (b OpenAIBackend) Complete(ctx context.Context, req Request) (Completion, error) {
	messages := make([]openai.ChatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, openai.ChatMessage{Role: "user", Content: req.Prompt})

	resp, err := b.Client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxOutputTokens,
		Messages:    messages,
	})
	if err != nil {
		return Completion{}, err
	}

	out := Completion{Text: resp.Content, Model: resp.Model, FinishReason: resp.FinishReason}
	if resp.Usage != nil {
		out.Usage = &TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}

// GeminiBackend sends the system instruction and prompt as a single user turn.
type GeminiBackend struct {
	Client ContentClient
}

func (b GeminiBackend) Complete(ctx context.Context, req Request) (Completion, error) {
	text := req.Prompt
	if req.System != "" {
		text = req.System + "\n\n" + req.Prompt
	}
	temperature := req.Temperature

	resp, err := b.Client.GenerateContent(ctx, req.Model, gemini.GenerateContentRequest{
		Contents: []gemini.Content{{Role: "user", Parts: []gemini.Part{{Text: text}}}},
		GenerationConfig: gemini.GenerationConfig{
			Temperature:     &temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		},
	})
	if err != nil {
		return Completion{}, err
	}

	out := Completion{Text: resp.Text, Model: resp.ModelVersion, FinishReason: resp.FinishReason}
	if resp.Usage != nil {
		out.Usage = &TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}
