package video

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"

	"ytsummarizer/internal/timestamp"
)

var ErrInvalidID = errors.New("invalid video id")

// Cue is one timed caption entry. Times are in seconds.
type Cue struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

type DescriptionTimestamp struct {
	Seconds     int    `json:"seconds"`
	Description string `json:"description"`
}

// Context is the per-request video information handed to the prompt builder.
type Context struct {
	Title                 string
	DurationSeconds       int
	DescriptionTimestamps []DescriptionTimestamp
}

var idRE = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseID accepts a bare video id or any of the common YouTube URL shapes.
func ParseID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if idRE.MatchString(s) {
		return s, nil
	}
	if !strings.Contains(s, "://") && (strings.HasPrefix(s, "youtube.com") || strings.HasPrefix(s, "www.youtube.com") ||
		strings.HasPrefix(s, "m.youtube.com") || strings.HasPrefix(s, "youtu.be")) {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, input)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	var candidate string
	switch host {
	case "youtu.be":
		candidate = strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			candidate = v
			break
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 {
			switch parts[0] {
			case "shorts", "embed", "live", "v":
				candidate = parts[1]
			}
		}
	}
	if !idRE.MatchString(candidate) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, input)
	}
	return candidate, nil
}

// TranscriptText joins cue texts with single spaces.
func TranscriptText(cues []Cue) string {
	var sb strings.Builder
	for _, c := range cues {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// EndSeconds is the end of the last cue, rounded up.
func EndSeconds(cues []Cue) int {
	end := 0.0
	for _, c := range cues {
		if e := c.Start + c.Duration; e > end {
			end = e
		}
	}
	return int(math.Ceil(end))
}

// ExtractDescriptionTimestamps picks chapter-style lines ("0:00 Intro",
// "12:30 - Q&A") out of a video description.
func ExtractDescriptionTimestamps(description string) []DescriptionTimestamp {
	var out []DescriptionTimestamp
	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(line)
		loc := timestamp.FindIndex(line)
		if loc == nil || loc[0] > 3 {
			continue
		}
		secs, err := timestamp.Parse(line[loc[0]:loc[1]])
		if err != nil {
			continue
		}
		label := strings.TrimSpace(line[loc[1]:])
		label = strings.TrimLeft(label, "-–—:|) ")
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		out = append(out, DescriptionTimestamp{Seconds: secs, Description: label})
	}
	return out
}
