package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ytsummarizer/internal/transcript"
)

const watchPageTemplate = `<!DOCTYPE html><html><head><script>var ytInitialPlayerResponse = {"videoDetails":{"videoId":"dQw4w9WgXcQ","title":"Go {in} \"Production\"","shortDescription":"0:00 Intro\n2:05 Setup","lengthSeconds":"212"},"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[%s]}}};var meta = {};</script></head><body></body></html>`

const timedTextXML = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.5" dur="2.1">Hello &amp;#39;world&amp;#39;</text>
<text start="2.6" dur="1.4">&lt;font color=&quot;#E5E5E5&quot;&gt;second&lt;/font&gt; line</text>
<text start="4" dur="1">   </text>
<text start="5.25" dur="3">a &amp;amp; b</text>
</transcript>`

func newTestClient(ts *httptest.Server, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(ts.URL),
		WithRateLimit(0, 0),
		WithRetry(RetryConfig{MaxRetries: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1}),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(ts.Client(), append(base, opts...)...)
}

func TestFetchScrapesWatchPageAndTimedText(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") != "dQw4w9WgXcQ" {
			t.Fatalf("unexpected video id: %q", r.URL.RawQuery)
		}
		tracks := `{"baseUrl":"/api/timedtext?lang=de","languageCode":"de"},` +
			`{"baseUrl":"/api/timedtext?lang=en&kind=asr","languageCode":"en","kind":"asr"},` +
			`{"baseUrl":"/api/timedtext?lang=en","languageCode":"en"}`
		fmt.Fprintf(w, watchPageTemplate, tracks)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lang") != "en" || r.URL.Query().Get("kind") != "" {
			t.Fatalf("expected the manual English track, got %q", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, timedTextXML)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	got, err := newTestClient(ts).Fetch(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Title != `Go {in} "Production"` || got.LengthSeconds != 212 || got.Description != "0:00 Intro\n2:05 Setup" {
		t.Fatalf("unexpected metadata: %+v", got)
	}
	if len(got.Cues) != 3 {
		t.Fatalf("unexpected cues: %+v", got.Cues)
	}
	if got.Cues[0].Text != "Hello 'world'" || got.Cues[0].Start != 0.5 || got.Cues[0].Duration != 2.1 {
		t.Fatalf("unexpected first cue: %+v", got.Cues[0])
	}
	if got.Cues[1].Text != "second line" {
		t.Fatalf("unexpected second cue: %q", got.Cues[1].Text)
	}
	if got.Cues[2].Text != "a & b" {
		t.Fatalf("unexpected third cue: %q", got.Cues[2].Text)
	}
}

func TestFetchSrv3Format(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, watchPageTemplate, `{"baseUrl":"/api/timedtext?fmt=srv3","languageCode":"en","kind":"asr"}`)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<timedtext format="3"><body><p t="1500" d="2000"><s>it&amp;#39;s</s><s> fine</s></p><p t="4000" d="10">
</p></body></timedtext>`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	got, err := newTestClient(ts).Fetch(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got.Cues) != 1 || got.Cues[0].Text != "it's fine" || got.Cues[0].Start != 1.5 || got.Cues[0].Duration != 2 {
		t.Fatalf("unexpected cues: %+v", got.Cues)
	}
}

func TestFetchWithoutCaptionsIsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<script>var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"},"videoDetails":{"title":"x"}};</script>`)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Fetch(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, transcript.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestFetchSkipsBrowserOnlyTracks(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, watchPageTemplate, `{"baseUrl":"/api/timedtext?lang=en&exp=xpe","languageCode":"en"}`)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Fetch(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, transcript.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestFetchRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, watchPageTemplate, `{"baseUrl":"/api/timedtext?lang=en","languageCode":"en"}`)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, timedTextXML)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	if _, err := newTestClient(ts).Fetch(context.Background(), "dQw4w9WgXcQ"); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 watch page calls, got %d", calls.Load())
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Fetch(context.Background(), "dQw4w9WgXcQ")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestPickBestTrack(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "a", LanguageCode: "fr"},
		{BaseURL: "b", LanguageCode: "en-GB", Kind: "asr"},
		{BaseURL: "c", LanguageCode: "es", Kind: "asr"},
		{BaseURL: "d", LanguageCode: "es"},
	}
	if got, _ := pickBestTrack(tracks, []string{"es"}); got.BaseURL != "d" {
		t.Fatalf("expected manual es track, got %+v", got)
	}
	if got, _ := pickBestTrack(tracks, []string{"de"}); got.BaseURL != "b" {
		t.Fatalf("expected English fallback, got %+v", got)
	}
	if got, _ := pickBestTrack(tracks[:1], []string{"de"}); got.BaseURL != "a" {
		t.Fatalf("expected first usable track, got %+v", got)
	}
	if _, ok := pickBestTrack([]captionTrack{{BaseURL: "x&exp=xpe"}}, nil); ok {
		t.Fatal("expected no usable track")
	}
}

func TestExtractJSON(t *testing.T) {
	in := []byte(`{"a":"}\"{","b":{"c":1}};var x = {}`)
	if got := string(extractJSON(in)); got != `{"a":"}\"{","b":{"c":1}}` {
		t.Fatalf("unexpected JSON: %s", got)
	}
	if extractJSON([]byte(`{"open":`)) != nil {
		t.Fatal("expected nil for unbalanced input")
	}
}

func TestCleanCaption(t *testing.T) {
	cases := map[string]string{
		"Hello &#39;world&#39;": "Hello 'world'",
		"<i>emph</i>asis":       "emphasis",
		"line<br/>break":        "line break",
		"  spaced \n out  ":     "spaced out",
		"":                      "",
		"Tom &amp;amp; Jerry":   "Tom & Jerry",
	}
	for in, want := range cases {
		if got := cleanCaption(in); got != want {
			t.Fatalf("cleanCaption(%q): got %q want %q", in, got, want)
		}
	}
}
