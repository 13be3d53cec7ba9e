package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ytsummarizer/internal/app"
	"ytsummarizer/internal/config"
	"ytsummarizer/internal/model"
	"ytsummarizer/internal/pipeline"
)

func load(cmd *cobra.Command) (config.Config, *app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	logger := app.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	return cfg, app.New(cfg, logger, nil), nil
}

func runSummarize(cmd *cobra.Command, videoID string) error {
	cfg, services, err := load(cmd)
	if err != nil {
		return err
	}

	if cfg.UpstreamAPIKey == "" {
		return errors.New("UPSTREAM_API_KEY or GEMINI_API_KEY is required (set it in .env)")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in := pipeline.Input{VideoID: videoID}
	in.Model, _ = cmd.Flags().GetString("model")
	in.Title, _ = cmd.Flags().GetString("title")
	if cmd.Flags().Changed("question") {
		q, _ := cmd.Flags().GetBool("question")
		in.IsQuestion = &q
	}

	result, err := services.Pipeline.Summarize(ctx, in)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), model.NewSummarizeResponse(result))
}

func runTranscript(cmd *cobra.Command, videoID string) error {
	_, services, err := load(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, err := services.Transcripts.Fetch(ctx, videoID)
	if err != nil {
		return err
	}
	if plain, _ := cmd.Flags().GetBool("plain"); plain {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), t.Text())
		return err
	}
	return writeJSON(cmd.OutOrStdout(), model.NewTranscriptResponse(t))
}

func runParse(cmd *cobra.Command, source string) error {
	duration, _ := cmd.Flags().GetInt("duration")
	if duration < 0 {
		return errors.New("--duration must be >= 0")
	}
	isQuestion, _ := cmd.Flags().GetBool("question")

	raw, err := readSource(cmd, source)
	if err != nil {
		return err
	}

	_, services, err := load(cmd)
	if err != nil {
		return err
	}
	interp := services.Pipeline.Interpret(string(raw), duration, isQuestion)
	return writeJSON(cmd.OutOrStdout(), model.NewParseResponse(interp))
}

func readSource(cmd *cobra.Command, source string) ([]byte, error) {
	if source == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(source)
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
