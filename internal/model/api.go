package model

type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error     APIError `json:"error"`
	RequestID string   `json:"request_id,omitempty"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

type PingResponse struct {
	Status string `json:"status"`
}

type ReadyResponse struct {
	OK          bool   `json:"ok"`
	ServiceName string `json:"service_name,omitempty"`
	Provider    string `json:"provider,omitempty"`
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Cue struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

type TranscriptResponse struct {
	VideoID         string `json:"video_id"`
	Title           string `json:"title"`
	DurationSeconds int    `json:"duration_seconds"`
	Transcript      string `json:"transcript"`
	Cues            []Cue  `json:"cues"`
}

// DescriptionTimestamp accepts either a formatted timestamp or seconds.
type DescriptionTimestamp struct {
	Timestamp   string `json:"timestamp,omitempty"`
	Seconds     int    `json:"seconds,omitempty"`
	Description string `json:"description"`
}

type SummarizeRequest struct {
	VideoID               string                 `json:"video_id"`
	Transcript            string                 `json:"transcript,omitempty"`
	Cues                  []Cue                  `json:"cues,omitempty"`
	Title                 string                 `json:"title,omitempty"`
	DurationSeconds       int                    `json:"duration_seconds,omitempty"`
	DescriptionTimestamps []DescriptionTimestamp `json:"description_timestamps,omitempty"`
	IsQuestion            *bool                  `json:"is_question,omitempty"`
	Model                 string                 `json:"model,omitempty"`
}

type Highlight struct {
	Seconds     int    `json:"seconds"`
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
}

type NormalizationStats struct {
	Input        int `json:"input"`
	Dropped      int `json:"dropped"`
	Intro        int `json:"intro"`
	Outro        int `json:"outro"`
	Interpolated int `json:"interpolated"`
}

type SummaryTimings struct {
	Transcript int64 `json:"transcript"`
	Generation int64 `json:"generation"`
	Total      int64 `json:"total"`
}

type SummarizeResponse struct {
	VideoID         string             `json:"video_id,omitempty"`
	Title           string             `json:"title"`
	VideoTitle      string             `json:"video_title,omitempty"`
	DurationSeconds int                `json:"duration_seconds"`
	SummaryPoints   []string           `json:"summary_points"`
	Highlights      []Highlight        `json:"highlights"`
	IsQuestion      bool               `json:"is_question"`
	Answer          *string            `json:"answer,omitempty"`
	AnswerSeconds   *int               `json:"answer_seconds,omitempty"`
	AnswerTimestamp string             `json:"answer_timestamp,omitempty"`
	Model           string             `json:"model"`
	Usage           *TokenUsage        `json:"usage,omitempty"`
	Normalization   NormalizationStats `json:"normalization"`
	TimingsMS       SummaryTimings     `json:"timings_ms"`
}

type ParseRequest struct {
	Text            string `json:"text"`
	DurationSeconds int    `json:"duration_seconds"`
	IsQuestion      bool   `json:"is_question"`
}

type ParseResponse struct {
	Title           string             `json:"title"`
	SummaryPoints   []string           `json:"summary_points"`
	Highlights      []Highlight        `json:"highlights"`
	Answer          *string            `json:"answer,omitempty"`
	AnswerSeconds   *int               `json:"answer_seconds,omitempty"`
	AnswerTimestamp string             `json:"answer_timestamp,omitempty"`
	Normalization   NormalizationStats `json:"normalization"`
}
