package model

import (
	"ytsummarizer/internal/highlight"
	"ytsummarizer/internal/pipeline"
	"ytsummarizer/internal/transcript"
)

func NewTranscriptResponse(t transcript.Transcript) TranscriptResponse {
	cues := make([]Cue, 0, len(t.Cues))
	for _, c := range t.Cues {
		cues = append(cues, Cue{Text: c.Text, Start: c.Start, Duration: c.Duration})
	}
	return TranscriptResponse{
		VideoID:         t.VideoID,
		Title:           t.Title,
		DurationSeconds: t.DurationSeconds(),
		Transcript:      t.Text(),
		Cues:            cues,
	}
}

func NewSummarizeResponse(result pipeline.Result) SummarizeResponse {
	out := SummarizeResponse{
		VideoID:         result.VideoID,
		Title:           result.Title,
		VideoTitle:      result.VideoTitle,
		DurationSeconds: result.DurationSeconds,
		SummaryPoints:   nonNil(result.SummaryPoints),
		Highlights:      newHighlights(result.Highlights),
		IsQuestion:      result.IsQuestion,
		Answer:          result.Answer,
		AnswerSeconds:   result.AnswerSeconds,
		AnswerTimestamp: result.AnswerTimestamp,
		Model:           result.Model,
		Normalization:   newNormalizationStats(result.Stats),
		TimingsMS: SummaryTimings{
			Transcript: result.Timings.Transcript.Milliseconds(),
			Generation: result.Timings.Generation.Milliseconds(),
			Total:      result.Timings.Total.Milliseconds(),
		},
	}
	if u := result.Usage; u != nil {
		out.Usage = &TokenUsage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	return out
}

func NewParseResponse(interp pipeline.Interpretation) ParseResponse {
	return ParseResponse{
		Title:           interp.Title,
		SummaryPoints:   nonNil(interp.SummaryPoints),
		Highlights:      newHighlights(interp.Highlights),
		Answer:          interp.Answer,
		AnswerSeconds:   interp.AnswerSeconds,
		AnswerTimestamp: interp.AnswerTimestamp,
		Normalization:   newNormalizationStats(interp.Stats),
	}
}

func newHighlights(hs []highlight.Highlight) []Highlight {
	out := make([]Highlight, 0, len(hs))
	for _, h := range hs {
		out = append(out, Highlight{Seconds: h.Seconds, Timestamp: h.Timestamp, Description: h.Description})
	}
	return out
}

func newNormalizationStats(st highlight.Stats) NormalizationStats {
	return NormalizationStats{
		Input:        st.Input,
		Dropped:      st.Dropped,
		Intro:        st.Intro,
		Outro:        st.Outro,
		Interpolated: st.Interpolated,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
