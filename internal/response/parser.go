package response

import (
	"regexp"
	"strings"

	"ytsummarizer/internal/prompt"
	"ytsummarizer/internal/timestamp"
)

// RawHighlight is a highlight exactly as the model wrote it.
type RawHighlight struct {
	TimestampText string
	Description   string
}

type Options struct {
	// ExpectAnswer enables extraction of the ANSWER TO TITLE QUESTION section.
	ExpectAnswer bool
}

type Parsed struct {
	Title           string
	SummaryPoints   []string
	Highlights      []RawHighlight
	Answer          string
	AnswerTimestamp string
}

var (
	headerRE = map[string]*regexp.Regexp{
		prompt.HeaderTitle:      headerPattern(prompt.HeaderTitle),
		prompt.HeaderSummary:    headerPattern(prompt.HeaderSummary),
		prompt.HeaderHighlights: headerPattern(prompt.HeaderHighlights),
		prompt.HeaderAnswer:     headerPattern(prompt.HeaderAnswer),
	}
	numberedHeadingRE = regexp.MustCompile(`^[\s#>*_]*\d+\s*[.)]\s*[*_]*\s*[A-Za-z][A-Za-z &/'-]*[*_]*\s*:[\s*_]*$`)
	capsHeadingRE     = regexp.MustCompile(`^[\s#>*_]*[A-Z][A-Z &/'-]{2,}[*_]*\s*:[\s*_]*$`)
	markdownHeadingRE = regexp.MustCompile(`^\s*#{1,6}\s+\S`)
	labelRE           = regexp.MustCompile(`(?i)^[\s*_]*(?:answer|timestamp)[\s*_]*:`)
	bareTimestampRE   = regexp.MustCompile(`^[\[(]?\d+:\d{1,2}(?::\d{1,2})?[\])]?\.?$`)
	separators        = []string{" - ", " – ", " — "}
)

func headerPattern(key string) *regexp.Regexp {
	k := strings.ReplaceAll(regexp.QuoteMeta(key), " ", `\s+`)
	return regexp.MustCompile(`(?i)^[\s#>*_]*(?:\d+\s*[.)]\s*)?[\s*_]*` + k + `[\s*_]*(?:\([^)]*\))?[\s*_]*(?::|$)`)
}

// Parse extracts the structured fields from a model reply. Every field is
// extracted independently; a missing or malformed section leaves its field
// empty and never fails the whole parse.
func Parse(raw string, opts Options) Parsed {
	lines := splitLines(raw)

	var out Parsed
	out.Title = guard("", func() string { return parseTitle(lines) })
	out.SummaryPoints = guard([]string{}, func() []string { return parseSummary(lines) })
	out.Highlights = guard([]RawHighlight{}, func() []RawHighlight { return parseHighlights(lines) })
	if opts.ExpectAnswer {
		out.Answer = guard("", func() string { return parseAnswer(lines) })
		out.AnswerTimestamp = guard("", func() string { return parseAnswerTimestamp(lines) })
	}
	return out
}

func guard[T any](fallback T, fn func() T) (result T) {
	defer func() {
		if recover() != nil {
			result = fallback
		}
	}()
	return fn()
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	return strings.Split(raw, "\n")
}

// section returns the body of the first section headed by key: the rest of
// the header line followed by every line up to the next heading.
func section(lines []string, key string) ([]string, bool) {
	re := headerRE[key]
	for i, line := range lines {
		loc := re.FindStringIndex(line)
		if loc == nil {
			continue
		}
		body := []string{line[loc[1]:]}
		for _, next := range lines[i+1:] {
			if isHeading(next) {
				break
			}
			body = append(body, next)
		}
		return body, true
	}
	return nil, false
}

func isHeading(line string) bool {
	if labelRE.MatchString(line) {
		return false
	}
	return isKnownHeader(line) || numberedHeadingRE.MatchString(line) || capsHeadingRE.MatchString(line) || markdownHeadingRE.MatchString(line)
}

// parseTitle takes the first non-empty line after the TITLE header. Only the
// known section headers end the search, so an all-caps title survives.
func parseTitle(lines []string) string {
	re := headerRE[prompt.HeaderTitle]
	for i, line := range lines {
		loc := re.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if t := cleanText(line[loc[1]:]); t != "" {
			return t
		}
		for _, next := range lines[i+1:] {
			if isKnownHeader(next) {
				return ""
			}
			if t := cleanText(next); t != "" {
				return t
			}
		}
		return ""
	}
	return ""
}

func isKnownHeader(line string) bool {
	for _, re := range headerRE {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func parseSummary(lines []string) []string {
	points := []string{}
	body, ok := section(lines, prompt.HeaderSummary)
	if !ok {
		return points
	}
	for _, line := range body {
		rest, ok := stripBullet(line)
		if !ok {
			continue
		}
		if p := stripEmphasis(rest); p != "" {
			points = append(points, p)
		}
	}
	return points
}

func parseHighlights(lines []string) []RawHighlight {
	out := []RawHighlight{}
	body, ok := section(lines, prompt.HeaderHighlights)
	if !ok {
		return out
	}
	for _, line := range body {
		rest, ok := stripBullet(line)
		if !ok {
			continue
		}
		if h, ok := splitHighlight(rest); ok {
			out = append(out, h)
		}
	}
	return out
}

// splitHighlight splits "02:15 - description" at the first dash separator
// after the timestamp.
func splitHighlight(line string) (RawHighlight, bool) {
	loc := timestamp.FindIndex(line)
	if loc == nil {
		return RawHighlight{}, false
	}
	ts := line[loc[0]:loc[1]]
	after := line[loc[1]:]

	idx, sepLen := firstSeparator(after)
	if idx < 0 {
		return RawHighlight{}, false
	}
	desc := after[idx+sepLen:]

	// "02:15 - 03:00 - description" keeps the start of the range.
	if l := timestamp.FindIndex(desc); l != nil && strings.TrimSpace(stripEmphasis(desc[:l[0]])) == "" {
		if j, n := firstSeparator(desc[l[1]:]); j >= 0 && strings.TrimSpace(stripEmphasis(desc[l[1]:l[1]+j])) == "" {
			desc = desc[l[1]+j+n:]
		}
	}

	desc = cleanText(desc)
	if ts == "" || desc == "" {
		return RawHighlight{}, false
	}
	return RawHighlight{TimestampText: ts, Description: desc}, true
}

func firstSeparator(s string) (int, int) {
	best, bestLen := -1, 0
	for _, sep := range separators {
		if i := strings.Index(s, sep); i >= 0 && (best < 0 || i < best) {
			best, bestLen = i, len(sep)
		}
	}
	return best, bestLen
}

func parseAnswer(lines []string) string {
	body, ok := section(lines, prompt.HeaderAnswer)
	if !ok {
		return ""
	}
	for _, line := range body {
		text := cleanText(line)
		if text == "" || bareTimestampRE.MatchString(text) {
			continue
		}
		lower := strings.ToLower(text)
		if strings.HasPrefix(lower, "timestamp") {
			continue
		}
		if strings.Contains(strings.ToUpper(text), prompt.HeaderAnswer) {
			continue
		}
		if strings.HasPrefix(lower, "answer:") {
			text = strings.TrimSpace(text[len("answer:"):])
			if text == "" {
				continue
			}
		}
		return text
	}
	return ""
}

func parseAnswerTimestamp(lines []string) string {
	body, ok := section(lines, prompt.HeaderAnswer)
	if !ok {
		return ""
	}
	ts, _ := timestamp.Find(strings.Join(body, "\n"))
	return ts
}

func stripBullet(line string) (string, bool) {
	t := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(t, "-"):
		return strings.TrimSpace(t[len("-"):]), true
	case strings.HasPrefix(t, "•"):
		return strings.TrimSpace(t[len("•"):]), true
	}
	return "", false
}

func stripEmphasis(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	return strings.TrimSpace(s)
}

// cleanText strips emphasis markup and surrounding quotes from a single line.
func cleanText(s string) string {
	s = stripEmphasis(s)
	s = strings.Trim(s, " \t*_#`\"“”")
	return strings.TrimSpace(s)
}
