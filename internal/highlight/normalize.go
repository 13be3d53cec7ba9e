package highlight

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"ytsummarizer/internal/response"
	"ytsummarizer/internal/timestamp"
)

const (
	IntroDescription = "Video introduction."
	OutroDescription = "Video conclusion."
)

type Highlight struct {
	Seconds     int    `json:"seconds"`
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
}

type Config struct {
	TargetCount    int
	IntroThreshold float64
	OutroThreshold float64
	IntroPosition  float64
	OutroPosition  float64
}

func DefaultConfig() Config {
	return Config{
		TargetCount:    12,
		IntroThreshold: 0.05,
		OutroThreshold: 0.95,
		IntroPosition:  0.03,
		OutroPosition:  0.97,
	}
}

// Stats describes what a normalization pass changed.
type Stats struct {
	Input        int
	Dropped      int
	Intro        int
	Outro        int
	Interpolated int
}

func (s Stats) Synthesized() int { return s.Intro + s.Outro + s.Interpolated }

type Normalizer struct {
	cfg Config
}

func New(cfg Config) Normalizer {
	def := DefaultConfig()
	if cfg.TargetCount <= 0 {
		cfg.TargetCount = def.TargetCount
	}
	if cfg.IntroThreshold <= 0 || cfg.IntroThreshold >= 1 {
		cfg.IntroThreshold = def.IntroThreshold
	}
	if cfg.OutroThreshold <= cfg.IntroThreshold || cfg.OutroThreshold >= 1 {
		cfg.OutroThreshold = def.OutroThreshold
	}
	if cfg.IntroPosition <= 0 || cfg.IntroPosition >= 1 {
		cfg.IntroPosition = def.IntroPosition
	}
	if cfg.OutroPosition <= 0 || cfg.OutroPosition > 1 {
		cfg.OutroPosition = def.OutroPosition
	}
	return Normalizer{cfg: cfg}
}

func (n Normalizer) Normalize(raw []response.RawHighlight, durationSeconds int) []Highlight {
	out, _ := n.NormalizeWithStats(raw, durationSeconds)
	return out
}

// NormalizeWithStats validates raw highlights against the video duration and
// repairs coverage: it anchors an intro and an outro when the model left the
// start or end uncovered, and fills large gaps while the list is short of the
// target count. A non-positive duration disables filtering and repair.
func (n Normalizer) NormalizeWithStats(raw []response.RawHighlight, durationSeconds int) ([]Highlight, Stats) {
	stats := Stats{Input: len(raw)}

	converted := convert(raw, durationSeconds)
	stats.Dropped = len(raw) - len(converted)
	if len(converted) == 0 || durationSeconds <= 0 {
		return converted, stats
	}

	d := float64(durationSeconds)
	sortBySeconds(converted)

	if float64(converted[0].Seconds) > d*n.cfg.IntroThreshold {
		converted = append(converted, synthesize(int(math.Floor(d*n.cfg.IntroPosition)), IntroDescription))
		stats.Intro = 1
	}
	if float64(maxSeconds(converted)) < d*n.cfg.OutroThreshold {
		converted = append(converted, synthesize(int(math.Floor(d*n.cfg.OutroPosition)), OutroDescription))
		stats.Outro = 1
	}
	sortBySeconds(converted)
	converted = dedupe(converted)

	if len(converted) < n.cfg.TargetCount {
		base := len(converted)
		converted = append(converted, interpolate(converted, d/float64(n.cfg.TargetCount))...)
		sortBySeconds(converted)
		converted = dedupe(converted)
		stats.Interpolated = len(converted) - base
	}

	return converted, stats
}

// convert decodes timestamps, drops entries that fail to decode, exceed the
// duration or repeat an earlier (seconds, description) pair.
func convert(raw []response.RawHighlight, durationSeconds int) []Highlight {
	out := make([]Highlight, 0, len(raw))
	for _, r := range raw {
		desc := strings.TrimSpace(r.Description)
		if desc == "" {
			continue
		}
		secs, err := timestamp.Parse(r.TimestampText)
		if err != nil {
			continue
		}
		if secs < 0 || (durationSeconds > 0 && secs > durationSeconds) {
			continue
		}
		out = append(out, Highlight{Seconds: secs, Timestamp: timestamp.Format(secs), Description: desc})
	}
	return dedupe(out)
}

// interpolate computes the fill points for every gap in sorted wider than
// twice the target spacing. Gaps are measured on the input as given, so the
// placement doesn't depend on the order gaps are visited.
func interpolate(sorted []Highlight, spacing float64) []Highlight {
	if spacing <= 0 {
		return nil
	}
	var fill []Highlight
	for i := 1; i < len(sorted); i++ {
		a, b := sorted[i-1].Seconds, sorted[i].Seconds
		gap := float64(b - a)
		if gap <= 2*spacing {
			continue
		}
		count := int(math.Floor(gap/spacing)) - 1
		step := gap / float64(count+1)
		last := a
		for k := 1; k <= count; k++ {
			secs := a + int(math.Floor(step*float64(k)))
			if secs <= last || secs >= b {
				continue
			}
			last = secs
			fill = append(fill, synthesize(secs, fmt.Sprintf("Key point at %s.", timestamp.Format(secs))))
		}
	}
	return fill
}

func synthesize(secs int, desc string) Highlight {
	return Highlight{Seconds: secs, Timestamp: timestamp.Format(secs), Description: desc}
}

func sortBySeconds(hs []Highlight) {
	sort.SliceStable(hs, func(i, j int) bool { return hs[i].Seconds < hs[j].Seconds })
}

func maxSeconds(hs []Highlight) int {
	m := hs[0].Seconds
	for _, h := range hs[1:] {
		if h.Seconds > m {
			m = h.Seconds
		}
	}
	return m
}

func dedupe(hs []Highlight) []Highlight {
	type key struct {
		secs int
		desc string
	}
	seen := make(map[key]struct{}, len(hs))
	out := hs[:0]
	for _, h := range hs {
		if h.Timestamp == "" || h.Description == "" {
			continue
		}
		k := key{h.Seconds, h.Description}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, h)
	}
	return out
}
