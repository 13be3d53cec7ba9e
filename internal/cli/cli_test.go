package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytsummarizer/internal/model"
)

const savedReply = `1. TITLE:
How Caches Work

2. SUMMARY POINTS:
- Locality matters.

3. HIGHLIGHTS:
- 00:45 - Why caches exist
- 04:30 - Eviction policies
- 11:00 - Past the end

4. ANSWER TO TITLE QUESTION:
They keep hot data close.
Timestamp: 4:30
`

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LLM_PROVIDER", "UPSTREAM_BASE_URL", "UPSTREAM_API_KEY", "GEMINI_API_KEY", "HIGHLIGHT_TARGET_COUNT"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestParseCommandFromStdin(t *testing.T) {
	clearProviderEnv(t)

	out, _, err := execute(t, savedReply, "parse", "-", "--duration", "600", "--question")
	if err != nil {
		t.Fatalf("execute error = %v", err)
	}

	var got model.ParseResponse
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if got.Title != "How Caches Work" || len(got.SummaryPoints) != 1 {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if got.Answer == nil || *got.Answer != "They keep hot data close." {
		t.Fatalf("unexpected answer: %v", got.Answer)
	}
	if got.AnswerSeconds == nil || *got.AnswerSeconds != 270 || got.AnswerTimestamp != "04:30" {
		t.Fatalf("unexpected answer timestamp: %v %q", got.AnswerSeconds, got.AnswerTimestamp)
	}
	if got.Normalization.Dropped != 1 {
		t.Fatalf("expected the out of range highlight to be dropped: %+v", got.Normalization)
	}
	for i, h := range got.Highlights {
		if h.Seconds > 600 {
			t.Fatalf("highlight beyond duration: %+v", h)
		}
		if i > 0 && got.Highlights[i-1].Seconds > h.Seconds {
			t.Fatalf("highlights not sorted: %+v", got.Highlights)
		}
	}
}

func TestParseCommandFromFile(t *testing.T) {
	clearProviderEnv(t)
	path := filepath.Join(t.TempDir(), "reply.txt")
	if err := os.WriteFile(path, []byte(savedReply), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "", "parse", path, "--duration", "600")
	if err != nil {
		t.Fatalf("execute error = %v", err)
	}
	if strings.Contains(out, `"answer"`) {
		t.Fatalf("answer should be omitted without --question: %s", out)
	}
}

func TestArgsValidation(t *testing.T) {
	clearProviderEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"summarize no args", []string{"summarize"}, "accepts 1 arg(s), received 0"},
		{"transcript too many args", []string{"transcript", "a", "b"}, "accepts 1 arg(s), received 2"},
		{"parse missing duration", []string{"parse", "-"}, `required flag(s) "duration" not set`},
		{"parse non int duration", []string{"parse", "-", "--duration", "ten"}, "invalid argument"},
		{"parse negative duration", []string{"parse", "-", "--duration=-5"}, "--duration must be >= 0"},
		{"unknown flag", []string{"summarize", "abc", "--wat"}, "unknown flag: --wat"},
		{"summarize without key", []string{"summarize", "dQw4w9WgXcQ"}, "UPSTREAM_API_KEY or GEMINI_API_KEY is required"},
		{"parse missing file", []string{"parse", "/does/not/exist", "--duration", "60"}, "no such file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "", tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestInvalidConfigIsReported(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("LLM_PROVIDER", "nope")

	_, _, err := execute(t, "", "parse", "-", "--duration", "60")
	if err == nil || !strings.Contains(err.Error(), "config: LLM_PROVIDER") {
		t.Fatalf("expected config error, got %v", err)
	}
}
