package timestamp

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FormatError reports a timestamp string that cannot be decoded.
type FormatError struct {
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid timestamp %q: %s", e.Text, e.Reason)
}

var tokenRE = regexp.MustCompile(`\d+:\d{1,2}(?::\d{1,2})?`)

// Parse converts H:MM:SS, M:SS or a bare seconds string into seconds.
func Parse(text string) (int, error) {
	value := strings.TrimSpace(text)
	if value == "" {
		return 0, &FormatError{Text: text, Reason: "empty"}
	}

	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, &FormatError{Text: text, Reason: "too many components"}
	}

	total := 0
	multiplier := 1
	for i := len(parts) - 1; i >= 0; i-- {
		part := strings.TrimSpace(parts[i])
		if part == "" || !isDigits(part) {
			return 0, &FormatError{Text: text, Reason: "non-numeric component"}
		}
		val, err := strconv.Atoi(part)
		if err != nil {
			return 0, &FormatError{Text: text, Reason: err.Error()}
		}
		if val > (math.MaxInt-total)/multiplier {
			return 0, &FormatError{Text: text, Reason: "out of range"}
		}
		total += val * multiplier
		multiplier *= 60
	}
	return total, nil
}

// Format renders seconds as H:MM:SS from one hour up, MM:SS below.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Find returns the first digits:digits[:digits] token in text.
func Find(text string) (string, bool) {
	loc := tokenRE.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return text[loc[0]:loc[1]], true
}

// FindIndex is Find with the byte offsets of the match.
func FindIndex(text string) []int {
	return tokenRE.FindStringIndex(text)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
