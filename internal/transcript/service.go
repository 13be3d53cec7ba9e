package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ytsummarizer/internal/video"
)

// ErrUnavailable means the video has no usable caption track.
var ErrUnavailable = errors.New("transcript unavailable")

type Transcript struct {
	VideoID       string
	Title         string
	Description   string
	LengthSeconds int
	Cues          []video.Cue
}

// Text is the transcript as one space-joined string.
func (t Transcript) Text() string { return video.TranscriptText(t.Cues) }

// DurationSeconds prefers the reported length and falls back to the end of
// the last cue.
func (t Transcript) DurationSeconds() int {
	if t.LengthSeconds > 0 {
		return t.LengthSeconds
	}
	return video.EndSeconds(t.Cues)
}

type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (Transcript, error)
}

// OutcomeObserver receives "ok", "unavailable", "invalid_id" or "error" per fetch.
type OutcomeObserver func(outcome string)

type Service struct {
	fetcher  Fetcher
	timeout  time.Duration
	observer OutcomeObserver
}

func New(fetcher Fetcher, timeout time.Duration, observer OutcomeObserver) *Service {
	return &Service{fetcher: fetcher, timeout: timeout, observer: observer}
}

// Fetch resolves a video id or URL and returns its cues and metadata.
func (s *Service) Fetch(ctx context.Context, videoIDOrURL string) (Transcript, error) {
	id, err := video.ParseID(videoIDOrURL)
	if err != nil {
		s.observe("invalid_id")
		return Transcript{}, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	t, err := s.fetcher.Fetch(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			s.observe("unavailable")
		} else {
			s.observe("error")
		}
		return Transcript{}, fmt.Errorf("fetch transcript %s: %w", id, err)
	}

	cues := make([]video.Cue, 0, len(t.Cues))
	for _, c := range t.Cues {
		c.Text = strings.TrimSpace(c.Text)
		if c.Text != "" {
			cues = append(cues, c)
		}
	}
	if len(cues) == 0 {
		s.observe("unavailable")
		return Transcript{}, fmt.Errorf("fetch transcript %s: %w", id, ErrUnavailable)
	}
	t.Cues = cues
	t.VideoID = id
	s.observe("ok")
	return t, nil
}

func (s *Service) observe(outcome string) {
	if s.observer != nil {
		s.observer(outcome)
	}
}
