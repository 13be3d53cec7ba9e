package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := NewRootCommand()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ytsummarizer",
		Short:         "Summarize YouTube videos from their transcripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(newSummarizeCommand(), newTranscriptCommand(), newParseCommand())
	return root
}

func newSummarizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize <video id|url>",
		Short: "Fetch a transcript and print a structured summary as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd, args[0])
		},
	}
	cmd.Flags().Bool("question", false, "Treat the title as a question (default: detect from title)")
	cmd.Flags().String("model", "", "Model override")
	cmd.Flags().String("title", "", "Title override")
	return cmd
}

func newTranscriptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript <video id|url>",
		Short: "Print a video's caption cues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscript(cmd, args[0])
		},
	}
	cmd.Flags().Bool("plain", false, "Print the joined transcript text instead of JSON")
	return cmd
}

func newParseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file|->",
		Short: "Parse and normalize a saved model reply without calling any upstream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0])
		},
	}
	cmd.Flags().Int("duration", 0, "Video duration in seconds")
	cmd.Flags().Bool("question", false, "Expect an answer section")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}
