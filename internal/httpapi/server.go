package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"ytsummarizer/internal/config"
	"ytsummarizer/internal/model"
	"ytsummarizer/internal/pipeline"
	"ytsummarizer/internal/timestamp"
	"ytsummarizer/internal/transcript"
	"ytsummarizer/internal/transcript/youtube"
	"ytsummarizer/internal/upstream"
	"ytsummarizer/internal/video"
)

type TranscriptService interface {
	Fetch(ctx context.Context, videoIDOrURL string) (transcript.Transcript, error)
}

type SummaryService interface {
	Summarize(ctx context.Context, in pipeline.Input) (pipeline.Result, error)
	Interpret(raw string, durationSeconds int, isQuestion bool) pipeline.Interpretation
}

type UpstreamChecker interface {
	CheckModels(ctx context.Context) error
}

type MetricsObserver interface {
	ObserveHTTP(route, method string, status int, duration time.Duration)
}

type Dependencies struct {
	Transcripts    TranscriptService
	Summaries      SummaryService
	Upstream       UpstreamChecker
	Metrics        MetricsObserver
	MetricsHandler http.Handler
}

type server struct {
	cfg          config.Config
	logger       *slog.Logger
	transcripts  TranscriptService
	summaries    SummaryService
	upstream     UpstreamChecker
	metrics      MetricsObserver
	metricsRoute http.Handler
}

type ctxKey string

const (
	requestIDHeader  = "X-Request-Id"
	requestIDContext = ctxKey("request_id")
	maxJSONBodyBytes = 8 << 20
	serviceName      = "ytsummarizer"
)

func NewServer(cfg config.Config, logger *slog.Logger, deps Dependencies) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Transcripts == nil || deps.Summaries == nil || deps.Upstream == nil {
		panic("httpapi: all dependencies are required")
	}

	s := &server{
		cfg:          cfg,
		logger:       logger,
		transcripts:  deps.Transcripts,
		summaries:    deps.Summaries,
		upstream:     deps.Upstream,
		metrics:      deps.Metrics,
		metricsRoute: deps.MetricsHandler,
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, "not_found", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(s.authMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/ping", s.handlePing)
	r.Get("/readyz", s.handleReadyz)
	if s.metricsRoute != nil {
		r.Handle("/metrics", s.metricsRoute)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/transcript", s.handleTranscript)
		r.Post("/summarize", s.handleSummarize)
		r.Post("/parse", s.handleParse)
	})

	return r
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{OK: true})
}

func (s *server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.PingResponse{Status: "ok"})
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ready := model.ReadyResponse{OK: true, ServiceName: serviceName, Provider: s.cfg.LLMProvider}
	if s.cfg.UpstreamAPIKey == "" && upstream.RequestAPIKeyFromContext(r.Context()) == "" {
		writeJSON(w, http.StatusOK, ready)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.upstream.CheckModels(ctx); err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "not_ready", "upstream check failed", detailsForError(err))
		return
	}
	writeJSON(w, http.StatusOK, ready)
}

func (s *server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	videoID := strings.TrimSpace(r.URL.Query().Get("videoId"))
	if videoID == "" {
		videoID = strings.TrimSpace(r.URL.Query().Get("video_id"))
	}
	if videoID == "" {
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", "videoId is required", nil)
		return
	}

	t, err := s.transcripts.Fetch(r.Context(), videoID)
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.NewTranscriptResponse(t))
}

func (s *server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req model.SummarizeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.VideoID) == "" && strings.TrimSpace(req.Transcript) == "" && len(req.Cues) == 0 {
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", "video_id, transcript or cues is required", nil)
		return
	}
	if req.DurationSeconds < 0 {
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", "duration_seconds must be >= 0", nil)
		return
	}
	descriptionTimestamps, err := toDescriptionTimestamps(req.DescriptionTimestamps)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	cues := make([]video.Cue, 0, len(req.Cues))
	for _, c := range req.Cues {
		cues = append(cues, video.Cue{Text: c.Text, Start: c.Start, Duration: c.Duration})
	}

	result, err := s.summaries.Summarize(r.Context(), pipeline.Input{
		VideoID:               req.VideoID,
		Transcript:            req.Transcript,
		Cues:                  cues,
		Title:                 req.Title,
		DurationSeconds:       req.DurationSeconds,
		DescriptionTimestamps: descriptionTimestamps,
		IsQuestion:            req.IsQuestion,
		Model:                 req.Model,
	})
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.NewSummarizeResponse(result))
}

func (s *server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req model.ParseRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.DurationSeconds < 0 {
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", "duration_seconds must be >= 0", nil)
		return
	}

	interp := s.summaries.Interpret(req.Text, req.DurationSeconds, req.IsQuestion)
	writeJSON(w, http.StatusOK, model.NewParseResponse(interp))
}

func (s *server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	defer func() { _ = r.Body.Close() }()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		s.handleJSONDecodeError(w, r, err)
		return false
	}
	if err := ensureBodyFullyConsumed(decoder); err != nil {
		s.handleJSONDecodeError(w, r, err)
		return false
	}
	return true
}

func (s *server) handleJSONDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, "request_too_large", "JSON body too large", nil)
		return
	}
	s.writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
}

func (s *server) writeMappedError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	message := "request failed"
	details := detailsForError(err)

	var upstreamErr *upstream.Error
	var youtubeErr *youtube.StatusError
	switch {
	case errors.Is(err, video.ErrInvalidID):
		status = http.StatusBadRequest
		code = "invalid_video_id"
		message = "invalid YouTube video id or URL"
	case errors.Is(err, pipeline.ErrNoInput):
		status = http.StatusBadRequest
		code = "invalid_request"
		message = err.Error()
	case errors.Is(err, transcript.ErrUnavailable):
		status = http.StatusNotFound
		code = "transcript_unavailable"
		message = "no transcript is available for this video"
	case errors.As(err, &upstreamErr):
		status = http.StatusBadGateway
		code = "upstream_request_failed"
		message = "upstream request failed"
	case errors.As(err, &youtubeErr):
		status = http.StatusBadGateway
		code = "transcript_fetch_failed"
		message = "transcript fetch failed"
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		code = "timeout"
		message = "request timed out"
	case errors.Is(err, context.Canceled):
		status = 499
		code = "canceled"
		message = "request canceled"
	}

	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "request_id", requestIDFromContext(r.Context()), "status", status, "error", err)
	}
	s.writeError(w, r, status, code, message, details)
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	if rid := requestIDFromContext(r.Context()); rid != "" {
		w.Header().Set(requestIDHeader, rid)
	}
	writeJSON(w, status, model.ErrorResponse{
		Error:     model.APIError{Code: code, Message: message, Details: details},
		RequestID: requestIDFromContext(r.Context()),
	})
}

func (s *server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDContext, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		duration := time.Since(started)
		if s.metrics != nil {
			s.metrics.ObserveHTTP(route, r.Method, status, duration)
		}

		s.logger.Info("http_request",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", duration.Milliseconds(),
		)
	})
}

func (s *server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "request_id", requestIDFromContext(r.Context()), "panic", rec)
				s.writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware forwards a caller's bearer token as the upstream API key.
// Only routes that reach the LLM need a key when the server has none.
func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, hasHeader, ok := extractBearerToken(r.Header.Get("Authorization"))
		if hasHeader && !ok {
			s.writeError(w, r, http.StatusUnauthorized, "unauthorized", "Authorization must be Bearer <api_key>", nil)
			return
		}
		if requiresUpstreamKey(r.URL.Path) && token == "" && s.cfg.UpstreamAPIKey == "" {
			s.writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing upstream API key bearer token", nil)
			return
		}
		if token != "" {
			r = r.WithContext(upstream.WithRequestAPIKey(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

func requiresUpstreamKey(path string) bool {
	return path == "/v1/summarize"
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func ensureBodyFullyConsumed(decoder *json.Decoder) error {
	var extra any
	if err := decoder.Decode(&extra); err != io.EOF {
		if err == nil {
			return fmt.Errorf("multiple JSON values")
		}
		return err
	}
	return nil
}

func requestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDContext).(string)
	return value
}

func extractBearerToken(header string) (token string, hasHeader bool, ok bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false, true
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", true, false
	}
	token = strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", true, false
	}
	return token, true, true
}

func toDescriptionTimestamps(in []model.DescriptionTimestamp) ([]video.DescriptionTimestamp, error) {
	out := make([]video.DescriptionTimestamp, 0, len(in))
	for i, dt := range in {
		desc := strings.TrimSpace(dt.Description)
		if desc == "" {
			continue
		}
		secs := dt.Seconds
		if ts := strings.TrimSpace(dt.Timestamp); ts != "" {
			parsed, err := timestamp.Parse(ts)
			if err != nil {
				return nil, fmt.Errorf("description_timestamps[%d].timestamp is invalid", i)
			}
			secs = parsed
		}
		if secs < 0 {
			return nil, fmt.Errorf("description_timestamps[%d].seconds must be >= 0", i)
		}
		out = append(out, video.DescriptionTimestamp{Seconds: secs, Description: desc})
	}
	return out, nil
}

func detailsForError(err error) map[string]any {
	if err == nil {
		return nil
	}
	details := map[string]any{"error": err.Error()}
	var upstreamErr *upstream.Error
	if errors.As(err, &upstreamErr) {
		details["upstream_provider"] = upstreamErr.Provider
		details["upstream_status"] = upstreamErr.StatusCode
		if upstreamErr.Body != "" {
			details["upstream_body"] = upstreamErr.Body
		}
	}
	var youtubeErr *youtube.StatusError
	if errors.As(err, &youtubeErr) {
		details["youtube_status"] = youtubeErr.StatusCode
	}
	return details
}
