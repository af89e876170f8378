package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vidbrief/vidbrief/internal/apierr"
	"github.com/vidbrief/vidbrief/internal/config"
	"github.com/vidbrief/vidbrief/internal/extract"
	"github.com/vidbrief/vidbrief/internal/generate"
	"github.com/vidbrief/vidbrief/internal/logging"
	"github.com/vidbrief/vidbrief/internal/pipeline"
	"github.com/vidbrief/vidbrief/internal/server"
	"github.com/vidbrief/vidbrief/internal/summarize"
	"github.com/vidbrief/vidbrief/internal/transcribe"
	"github.com/vidbrief/vidbrief/internal/translate"
	"github.com/vidbrief/vidbrief/internal/watch"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK            = 0
	ExitGeneral       = 1
	ExitUsage         = 2
	ExitSetup         = 3
	ExitExtraction    = 4
	ExitTranscription = 5
	ExitSummarization = 6
	ExitAPI           = 7
	ExitInterrupt     = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := &cobra.Command{
		Use:     "vidbrief",
		Short:   "Summarize videos: extract audio, transcribe, and reduce to a styled summary",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().String("config", "config.yaml", "path to the YAML config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(summarizeCmd())
	rootCmd.AddCommand(watchCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// loadEnv loads the config and builds the logger and pipeline.
func loadEnv(cmd *cobra.Command) (config.Config, *logrus.Logger, *pipeline.Pipeline, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	p, err := buildPipeline(cfg, log)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, log, p, nil
}

// buildPipeline wires the OpenAI client into the pipeline collaborators.
func buildPipeline(cfg config.Config, log *logrus.Logger) (*pipeline.Pipeline, error) {
	extractor, err := extract.NewFFmpegExtractor(
		extract.WithBinaryPath(cfg.FFmpeg.BinaryPath),
		extract.WithTempDir(cfg.Paths.Temp),
	)
	if err != nil {
		return nil, err
	}

	oc := openai.NewClient(cfg.APIKey)
	gen := generate.NewClient(oc, generate.WithModel(cfg.Models.Generation))
	transcriber := transcribe.NewOpenAITranscriber(oc,
		transcribe.WithModel(cfg.Models.Transcription))
	reducer := summarize.NewReducer(gen)
	translator := translate.NewTranslator(gen, translate.WithLogger(log))

	return pipeline.New(extractor, transcriber, reducer, translator, log), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, p, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			s, err := server.New(server.Config{
				Addr:        cfg.Server.Addr,
				CORSOrigins: cfg.Server.CORSOrigins,
				UploadDir:   cfg.Paths.Uploads,
			}, p, log)
			if err != nil {
				return err
			}
			return s.Run(cmd.Context())
		},
	}
}

func processCmd() *cobra.Command {
	var (
		styleName    string
		translateOut bool
	)

	cmd := &cobra.Command{
		Use:   "process <video>",
		Short: "Summarize a single video file and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, p, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			result, err := p.Process(cmd.Context(), args[0],
				summarize.ParseStyle(styleName), translateOut)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringVar(&styleName, "style", string(summarize.StyleDetailed),
		"summary style: detailed, brief, or bullet_points")
	cmd.Flags().BoolVar(&translateOut, "translate", false,
		"translate the summary and segments to English")
	return cmd
}

func summarizeCmd() *cobra.Command {
	var (
		styleName    string
		translateOut bool
	)

	cmd := &cobra.Command{
		Use:   "summarize <transcript-file>",
		Short: "Summarize an existing transcript file (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, p, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			transcript, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			summary, err := p.SummarizeTranscript(cmd.Context(),
				transcript, summarize.ParseStyle(styleName))
			if err != nil {
				return err
			}
			if translateOut {
				summary = p.Translate(cmd.Context(), summary)
			}

			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&styleName, "style", string(summarize.StyleDetailed),
		"summary style: detailed, brief, or bullet_points")
	cmd.Flags().BoolVar(&translateOut, "translate", false,
		"translate the summary to English")
	return cmd
}

func watchCmd() *cobra.Command {
	var (
		styleName    string
		translateOut bool
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory and summarize each new video dropped into it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, p, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			style := summarize.ParseStyle(styleName)
			w, err := watch.New(args[0], func(ctx context.Context, videoPath string) error {
				result, err := p.Process(ctx, videoPath, style, translateOut)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			}, log)
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()

			err = w.Run(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&styleName, "style", string(summarize.StyleDetailed),
		"summary style: detailed, brief, or bullet_points")
	cmd.Flags().BoolVar(&translateOut, "translate", false,
		"translate summaries and segments to English")
	return cmd
}

// readInput reads a transcript from a file, or from stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is a CLI argument
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return string(data), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Usage errors: Cobra flag/arg parsing errors. Cobra doesn't expose
	// typed errors, so we check for known error message patterns.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors: missing credentials or tooling.
	if errors.Is(err, config.ErrAPIKeyMissing) || errors.Is(err, extract.ErrFFmpegNotFound) {
		return ExitSetup
	}

	// Pipeline stage failures.
	switch {
	case errors.Is(err, pipeline.ErrExtraction):
		return ExitExtraction
	case errors.Is(err, pipeline.ErrTranscription):
		return ExitTranscription
	case errors.Is(err, pipeline.ErrSummarization):
		return ExitSummarization
	}

	// Bare API errors from collaborators used outside the pipeline.
	if errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, apierr.ErrTimeout) || errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, apierr.ErrBadRequest) {
		return ExitAPI
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate
// Cobra usage errors. These patterns are stable across Cobra versions.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"flag needs an argument",
	"invalid argument",
	"if any flags in the group",
	"accepts ",
	"requires at least",
	"requires at most",
	"unknown command",
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
