package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ytsummarizer/internal/timestamp"
	"ytsummarizer/internal/video"
)

// Section headers shared with the response parser.
const (
	HeaderTitle      = "TITLE"
	HeaderSummary    = "SUMMARY POINTS"
	HeaderHighlights = "HIGHLIGHTS"
	HeaderAnswer     = "ANSWER TO TITLE QUESTION"
)

type Config struct {
	MinHighlights      int
	MaxHighlights      int
	FirstWindowPercent int
	LastWindowPercent  int
	ReferenceSamples   int
	MaxTranscriptChars int
}

func DefaultConfig() Config {
	return Config{
		MinHighlights:      10,
		MaxHighlights:      15,
		FirstWindowPercent: 5,
		LastWindowPercent:  95,
		ReferenceSamples:   15,
		MaxTranscriptChars: 100000,
	}
}

type Options struct {
	Cues       []video.Cue
	IsQuestion bool
}

type Builder struct {
	cfg Config
}

func New(cfg Config) *Builder {
	def := DefaultConfig()
	if cfg.MinHighlights <= 0 {
		cfg.MinHighlights = def.MinHighlights
	}
	if cfg.MaxHighlights < cfg.MinHighlights {
		cfg.MaxHighlights = cfg.MinHighlights
	}
	if cfg.FirstWindowPercent <= 0 || cfg.FirstWindowPercent >= 100 {
		cfg.FirstWindowPercent = def.FirstWindowPercent
	}
	if cfg.LastWindowPercent <= cfg.FirstWindowPercent || cfg.LastWindowPercent >= 100 {
		cfg.LastWindowPercent = def.LastWindowPercent
	}
	if cfg.ReferenceSamples < 0 {
		cfg.ReferenceSamples = 0
	}
	if cfg.MaxTranscriptChars <= 0 {
		cfg.MaxTranscriptChars = def.MaxTranscriptChars
	}
	return &Builder{cfg: cfg}
}

func (b *Builder) Config() Config { return b.cfg }

const instructions = `You are summarizing a YouTube video from its transcript.

VIDEO TITLE: %s
VIDEO DURATION: %s (%d seconds)

Respond using EXACTLY the following structure, with each section header on its own line:

1. %s:
A short, clear title for the video (one line).

2. %s:
- 4 to 7 bullet points, each starting with "- ", covering the main ideas and key takeaways.

3. %s:
- %s - description of what happens at this moment
Provide between %d and %d highlights, one per line, each formatted as "- TIMESTAMP - description".
Write timestamps as %s.
Highlight distribution rules:
- The first highlight must be within the first %d%% of the video (before %s).
- The last highlight must be within the final %d%% of the video (after %s).
- Spread the remaining highlights evenly across the whole video.
- Never use a timestamp later than %s.
`

const answerInstructions = `
4. %s:
The video title asks a question. Answer it directly in one or two sentences based on the transcript.
On the next line write "Timestamp: %s" with the moment in the video where the answer is given.
`

// Build assembles the instruction text sent to the model.
func (b *Builder) Build(transcriptText string, vc video.Context, opts Options) string {
	duration := vc.DurationSeconds
	if duration < 0 {
		duration = 0
	}
	title := strings.TrimSpace(vc.Title)
	if title == "" {
		title = "(unknown)"
	}

	format := "MM:SS"
	example := "02:15"
	if duration >= 3600 {
		format = "H:MM:SS"
		example = "1:02:15"
	}

	firstBy := duration * b.cfg.FirstWindowPercent / 100
	lastFrom := duration * b.cfg.LastWindowPercent / 100

	var sb strings.Builder
	fmt.Fprintf(&sb, instructions,
		title, timestamp.Format(duration), duration,
		HeaderTitle,
		HeaderSummary,
		HeaderHighlights,
		example,
		b.cfg.MinHighlights, b.cfg.MaxHighlights,
		format,
		b.cfg.FirstWindowPercent, timestamp.Format(firstBy),
		100-b.cfg.LastWindowPercent, timestamp.Format(lastFrom),
		timestamp.Format(duration),
	)
	if opts.IsQuestion {
		fmt.Fprintf(&sb, answerInstructions, HeaderAnswer, format)
	}

	if len(vc.DescriptionTimestamps) > 0 {
		sb.WriteString("\nThe video description already lists these timestamps. Use them as reference points and keep your highlights consistent with them:\n")
		for _, dt := range vc.DescriptionTimestamps {
			fmt.Fprintf(&sb, "- %s - %s\n", timestamp.Format(dt.Seconds), strings.TrimSpace(dt.Description))
		}
	}

	if refs := sampleCues(opts.Cues, b.cfg.ReferenceSamples); len(refs) > 0 {
		sb.WriteString("\nReference timestamps from the transcript. Only use these timestamps or times close to them:\n")
		for _, c := range refs {
			fmt.Fprintf(&sb, "- %s: %s\n", timestamp.Format(int(c.Start)), truncateRunes(strings.TrimSpace(c.Text), 80))
		}
	}

	sb.WriteString("\nDo not add any other sections or commentary.\n\nTRANSCRIPT:\n")
	sb.WriteString(truncateRunes(strings.TrimSpace(transcriptText), b.cfg.MaxTranscriptChars))
	sb.WriteString("\n")
	return sb.String()
}

// sampleCues picks n cues spread evenly over the list, first and last included.
func sampleCues(cues []video.Cue, n int) []video.Cue {
	if n <= 0 || len(cues) == 0 {
		return nil
	}
	if len(cues) <= n {
		return cues
	}
	if n == 1 {
		return cues[:1]
	}
	out := make([]video.Cue, 0, n)
	step := float64(len(cues)-1) / float64(n-1)
	for i := 0; i < n; i++ {
		out = append(out, cues[int(float64(i)*step+0.5)])
	}
	return out
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit])
}

var questionWords = []string{
	"what", "why", "how", "when", "where", "who", "which",
	"is", "are", "can", "does", "do", "should", "will",
}

// IsQuestionTitle reports whether a video title reads as a question.
func IsQuestionTitle(title string) bool {
	t := strings.TrimSpace(title)
	if t == "" {
		return false
	}
	if strings.HasSuffix(t, "?") {
		return true
	}
	first := strings.ToLower(strings.Fields(t)[0])
	first = strings.TrimRight(first, ",:;")
	first = strings.TrimSuffix(strings.TrimSuffix(first, "'s"), "’s")
	for _, w := range questionWords {
		if first == w {
			return true
		}
	}
	return false
}
