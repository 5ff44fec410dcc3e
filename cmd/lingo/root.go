package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/lingo/internal/config"
	"github.com/MikeSquared-Agency/lingo/internal/practice"
)

var version = "dev"

var (
	envFile   string
	serverURL string
	apiToken  string
	logLevel  string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:           "lingo",
	Short:         "Chat partner for language practice",
	Long:          `lingo serves the practice API (chat streaming, speech, history) and ships a terminal client for it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("server") {
			cfg.ServerURL = serverURL
		}
		if cmd.Flags().Changed("token") {
			cfg.APIToken = apiToken
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		// Client commands keep stdout for the conversation.
		out := io.Writer(os.Stdout)
		if cmd.Annotations["client"] == "true" {
			out = os.Stderr
		}
		setupLogging(cfg.LogLevel, cfg.LogFormat, out)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load if present")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "lingo server URL (overrides LINGO_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "API bearer token (overrides LINGO_API_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func setupLogging(level, format string, w io.Writer) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if strings.ToLower(format) == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// clientAnnotations marks a command as a terminal client.
var clientAnnotations = map[string]string{"client": "true"}

func newAPIClient() *practice.APIClient {
	return practice.NewAPIClient(cfg.ServerURL, cfg.APIToken)
}
