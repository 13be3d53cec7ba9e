// Package gemini is a minimal client for the Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ytsummarizer/internal/upstream"
)

const (
	provider       = "gemini"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

type Option func(*Client)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	observer   upstream.ObserverFunc
}

type Part struct {
	Text string `json:"text"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type GenerateContentRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type GenerateContentResponse struct {
	Text         string
	FinishReason string
	ModelVersion string
	Usage        *TokenUsage
}

func WithObserver(observer upstream.ObserverFunc) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

func New(baseURL, apiKey string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: httpClient,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// GenerateContent sends a single-turn request to models/{model}:generateContent
// and returns the concatenated text of the first candidate.
func (c *Client) GenerateContent(ctx context.Context, model string, reqPayload GenerateContentRequest) (GenerateContentResponse, error) {
	started := time.Now()
	statusCode := 0
	defer func() { c.observe("generate_content", statusCode, time.Since(started)) }()

	payload, err := json.Marshal(reqPayload)
	if err != nil {
		return GenerateContentResponse{}, err
	}

	endpoint := c.baseURL + "/models/" + url.PathEscape(strings.TrimPrefix(model, "models/")) + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return GenerateContentResponse{}, err
	}
	req.Header.Set("x-goog-api-key", upstream.ResolveAPIKey(ctx, c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return GenerateContentResponse{}, err
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return GenerateContentResponse{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return GenerateContentResponse{}, &upstream.Error{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Body:       upstream.TruncateBody(string(respBody)),
			Message:    errorMessage(respBody),
		}
	}

	return parseGenerateContent(respBody)
}

func (c *Client) CheckModels(ctx context.Context) error {
	started := time.Now()
	statusCode := 0
	defer func() { c.observe("models", statusCode, time.Since(started)) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models?pageSize=1", nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-api-key", upstream.ResolveAPIKey(ctx, c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &upstream.Error{Provider: provider, StatusCode: resp.StatusCode, Body: upstream.TruncateBody(string(body)), Message: errorMessage(body)}
	}
	return nil
}

func (c *Client) observe(endpoint string, status int, duration time.Duration) {
	if c.observer != nil {
		c.observer(provider+"_"+endpoint, status, duration)
	}
}

func parseGenerateContent(data []byte) (GenerateContentResponse, error) {
	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback *struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback,omitempty"`
		UsageMetadata *struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		} `json:"usageMetadata,omitempty"`
		ModelVersion string `json:"modelVersion"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return GenerateContentResponse{}, &upstream.Error{Provider: provider, StatusCode: http.StatusOK, Body: upstream.TruncateBody(string(data)), Message: "invalid generateContent response: " + err.Error()}
	}
	if len(parsed.Candidates) == 0 {
		msg := "missing candidates"
		if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
			msg = "prompt blocked: " + parsed.PromptFeedback.BlockReason
		}
		return GenerateContentResponse{}, &upstream.Error{Provider: provider, StatusCode: http.StatusOK, Body: upstream.TruncateBody(string(data)), Message: msg}
	}

	first := parsed.Candidates[0]
	var sb strings.Builder
	for _, p := range first.Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return GenerateContentResponse{}, &upstream.Error{Provider: provider, StatusCode: http.StatusOK, Message: "empty candidate content (finish reason " + first.FinishReason + ")"}
	}

	resp := GenerateContentResponse{
		Text:         sb.String(),
		FinishReason: first.FinishReason,
		ModelVersion: parsed.ModelVersion,
	}
	if u := parsed.UsageMetadata; u != nil {
		resp.Usage = &TokenUsage{
			PromptTokens:     u.PromptTokenCount,
			CompletionTokens: u.CandidatesTokenCount,
			TotalTokens:      u.TotalTokenCount,
		}
	}
	return resp, nil
}

func errorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return parsed.Error.Message
}
