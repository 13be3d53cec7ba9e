// Package youtube fetches caption cues and video metadata by scraping the
// watch page's player response and downloading the chosen timedtext track.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"ytsummarizer/internal/transcript"
	"ytsummarizer/internal/video"
)

const (
	DefaultBaseURL = "https://www.youtube.com"
	userAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

	playerResponseMarker = "ytInitialPlayerResponse = "
	maxWatchPageBytes    = 6 << 20
	maxTimedTextBytes    = 2 << 20
)

type Option func(*Client)

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	langs      []string
	retry      RetryConfig
	logger     *slog.Logger
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if u := strings.TrimRight(strings.TrimSpace(baseURL), "/"); u != "" {
			c.baseURL = u
		}
	}
}

func WithLanguages(langs []string) Option {
	return func(c *Client) {
		cleaned := make([]string, 0, len(langs))
		for _, l := range langs {
			if l = strings.TrimSpace(l); l != "" {
				cleaned = append(cleaned, l)
			}
		}
		if len(cleaned) > 0 {
			c.langs = cleaned
		}
	}
}

// WithRateLimit caps outbound requests; rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithRetry(rc RetryConfig) Option {
	return func(c *Client) { c.retry = rc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(2, 4),
		langs:      []string{"en"},
		retry:      DefaultRetryConfig,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails *struct {
		VideoID          string `json:"videoId"`
		Title            string `json:"title"`
		ShortDescription string `json:"shortDescription"`
		LengthSeconds    string `json:"lengthSeconds"`
	} `json:"videoDetails"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

// Fetch implements transcript.Fetcher.
func (c *Client) Fetch(ctx context.Context, videoID string) (transcript.Transcript, error) {
	player, err := c.playerResponse(ctx, videoID)
	if err != nil {
		return transcript.Transcript{}, err
	}

	out := transcript.Transcript{VideoID: videoID}
	if d := player.VideoDetails; d != nil {
		out.Title = d.Title
		out.Description = d.ShortDescription
		out.LengthSeconds, _ = strconv.Atoi(d.LengthSeconds)
	}

	if player.Captions == nil || len(player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		reason := "no caption tracks"
		if p := player.PlayabilityStatus; p != nil && p.Reason != "" {
			reason = p.Reason
		}
		return transcript.Transcript{}, fmt.Errorf("%w: %s", transcript.ErrUnavailable, reason)
	}

	track, ok := pickBestTrack(player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, c.langs)
	if !ok {
		return transcript.Transcript{}, fmt.Errorf("%w: all caption tracks require a browser token", transcript.ErrUnavailable)
	}
	c.logger.Debug("youtube caption track selected", "video_id", videoID, "lang", track.LanguageCode, "kind", track.Kind)

	cues, err := c.timedText(ctx, track.BaseURL)
	if err != nil {
		return transcript.Transcript{}, err
	}
	out.Cues = cues
	return out, nil
}

func (c *Client) playerResponse(ctx context.Context, videoID string) (playerResponse, error) {
	watchURL := c.baseURL + "/watch?v=" + url.QueryEscape(videoID)
	body, err := c.get(ctx, watchURL, maxWatchPageBytes, func(req *http.Request) {
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	})
	if err != nil {
		return playerResponse{}, fmt.Errorf("watch page: %w", err)
	}

	idx := bytes.Index(body, []byte(playerResponseMarker))
	if idx < 0 {
		return playerResponse{}, fmt.Errorf("%w: player response not found in watch page", transcript.ErrUnavailable)
	}
	raw := extractJSON(body[idx+len(playerResponseMarker):])
	if raw == nil {
		return playerResponse{}, errors.New("youtube: malformed player response")
	}

	var player playerResponse
	if err := json.Unmarshal(raw, &player); err != nil {
		return playerResponse{}, fmt.Errorf("decode player response: %w", err)
	}
	return player, nil
}

type timedText struct {
	Texts []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Text  string `xml:",chardata"`
	} `xml:"text"`
	Body struct {
		Paragraphs []struct {
			T     string `xml:"t,attr"`
			D     string `xml:"d,attr"`
			Inner string `xml:",innerxml"`
		} `xml:"p"`
	} `xml:"body"`
}

func (c *Client) timedText(ctx context.Context, trackURL string) ([]video.Cue, error) {
	body, err := c.get(ctx, c.resolve(trackURL), maxTimedTextBytes, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty caption track", transcript.ErrUnavailable)
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	cues := make([]video.Cue, 0, len(tt.Texts)+len(tt.Body.Paragraphs))
	for _, t := range tt.Texts {
		text := cleanCaption(t.Text)
		if text == "" {
			continue
		}
		cues = append(cues, video.Cue{Text: text, Start: parseFloat(t.Start), Duration: parseFloat(t.Dur)})
	}
	// srv3 format: <p t="ms" d="ms"> with word-level <s> children.
	for _, p := range tt.Body.Paragraphs {
		text := cleanCaption(p.Inner)
		if text == "" {
			continue
		}
		cues = append(cues, video.Cue{Text: text, Start: parseFloat(p.T) / 1000, Duration: parseFloat(p.D) / 1000})
	}
	return cues, nil
}

func (c *Client) get(ctx context.Context, target string, limit int64, decorate func(*http.Request)) ([]byte, error) {
	resp, err := retryHTTP(ctx, c.retry, c.logger, func() (*http.Response, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		if decorate != nil {
			decorate(req)
		}
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{URL: redact(target), StatusCode: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// resolve makes a relative caption URL absolute against the configured base.
func (c *Client) resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// needsPoToken reports whether a caption track only works inside a browser.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack prefers manual tracks over auto-generated ones within the
// preferred languages, then any English track, then the first usable one.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.BaseURL != "" && !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// extractJSON returns the balanced JSON object at the start of b.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, ch := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func redact(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	u.RawQuery = ""
	return u.String()
}
