package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytsummarizer/internal/video"
)

func TestBuildIncludesStructureAndRules(t *testing.T) {
	b := New(DefaultConfig())
	out := b.Build("hello world", video.Context{Title: "Go in Production", DurationSeconds: 600}, Options{})

	for _, want := range []string{
		"VIDEO TITLE: Go in Production",
		"VIDEO DURATION: 10:00 (600 seconds)",
		"1. TITLE:",
		"2. SUMMARY POINTS:",
		"3. HIGHLIGHTS:",
		"- 02:15 - description",
		"between 10 and 15 highlights",
		"Write timestamps as MM:SS.",
		"first 5% of the video (before 00:30)",
		"final 5% of the video (after 09:30)",
		"Never use a timestamp later than 10:00.",
		"TRANSCRIPT:\nhello world\n",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, HeaderAnswer)
}

func TestBuildLongVideoUsesHourFormat(t *testing.T) {
	out := New(DefaultConfig()).Build("x", video.Context{Title: "Podcast", DurationSeconds: 5400}, Options{})
	assert.Contains(t, out, "- 1:02:15 - description")
	assert.Contains(t, out, "Write timestamps as H:MM:SS.")
	assert.Contains(t, out, "Never use a timestamp later than 1:30:00.")
}

func TestBuildQuestionSection(t *testing.T) {
	out := New(DefaultConfig()).Build("x", video.Context{Title: "Is Go fast?", DurationSeconds: 300}, Options{IsQuestion: true})
	assert.Contains(t, out, "4. ANSWER TO TITLE QUESTION:")
	assert.Contains(t, out, "Timestamp: MM:SS")
}

func TestBuildDescriptionTimestamps(t *testing.T) {
	vc := video.Context{
		Title:           "Talk",
		DurationSeconds: 900,
		DescriptionTimestamps: []video.DescriptionTimestamp{
			{Seconds: 0, Description: "Intro"},
			{Seconds: 125, Description: " Setup "},
		},
	}
	out := New(DefaultConfig()).Build("x", vc, Options{})
	assert.Contains(t, out, "- 00:00 - Intro\n- 02:05 - Setup\n")
}

func TestBuildReferenceCuesAreSampledAndTruncated(t *testing.T) {
	cues := make([]video.Cue, 0, 40)
	for i := 0; i < 40; i++ {
		cues = append(cues, video.Cue{Text: "cue " + strings.Repeat("z", i*3), Start: float64(i * 10)})
	}
	cfg := DefaultConfig()
	cfg.ReferenceSamples = 5
	out := New(cfg).Build("x", video.Context{Title: "T", DurationSeconds: 400}, Options{Cues: cues})

	require.Contains(t, out, "Reference timestamps from the transcript.")
	assert.Contains(t, out, "- 00:00: cue\n")
	assert.Contains(t, out, "- 06:30: cue ")
	assert.Equal(t, 5, strings.Count(out, ": cue"))

	line := out[strings.Index(out, "- 06:30: "):]
	line = line[:strings.Index(line, "\n")]
	assert.Equal(t, 80, len([]rune(strings.TrimPrefix(line, "- 06:30: "))))
}

func TestBuildTruncatesTranscript(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTranscriptChars = 10
	out := New(cfg).Build("ééééééééééééééé", video.Context{Title: "T", DurationSeconds: 60}, Options{})
	assert.True(t, strings.HasSuffix(out, "TRANSCRIPT:\néééééééééé\n"))
}

func TestBuildUnknownTitle(t *testing.T) {
	out := New(DefaultConfig()).Build("x", video.Context{}, Options{})
	assert.Contains(t, out, "VIDEO TITLE: (unknown)")
	assert.Contains(t, out, "VIDEO DURATION: 00:00 (0 seconds)")
}

func TestNewAppliesDefaults(t *testing.T) {
	b := New(Config{MinHighlights: 20, MaxHighlights: 5, FirstWindowPercent: 150, LastWindowPercent: 2, ReferenceSamples: -3})
	got := b.Config()
	assert.Equal(t, 20, got.MinHighlights)
	assert.Equal(t, 20, got.MaxHighlights)
	assert.Equal(t, 5, got.FirstWindowPercent)
	assert.Equal(t, 95, got.LastWindowPercent)
	assert.Equal(t, 0, got.ReferenceSamples)
	assert.Equal(t, 100000, got.MaxTranscriptChars)
}

func TestSampleCues(t *testing.T) {
	cues := []video.Cue{{Start: 0}, {Start: 1}, {Start: 2}, {Start: 3}, {Start: 4}}
	assert.Nil(t, sampleCues(nil, 3))
	assert.Nil(t, sampleCues(cues, 0))
	assert.Equal(t, cues, sampleCues(cues, 10))
	assert.Equal(t, []video.Cue{{Start: 0}}, sampleCues(cues, 1))
	assert.Equal(t, []video.Cue{{Start: 0}, {Start: 2}, {Start: 4}}, sampleCues(cues, 3))
}

func TestIsQuestionTitle(t *testing.T) {
	cases := map[string]bool{
		"Is Go faster than Rust?":          true,
		"What's new in Go 1.25":            true,
		"How I built a compiler":           true,
		"does anyone still use Perl":       true,
		"Why, exactly, generics":           true,
		"Building a rate limiter":          false,
		"Isolation levels explained":       false,
		"":                                 false,
		"   ":                              false,
		"The 10 best Go libraries of 2026": false,
	}
	for title, want := range cases {
		assert.Equal(t, want, IsQuestionTitle(title), "title %q", title)
	}
}
