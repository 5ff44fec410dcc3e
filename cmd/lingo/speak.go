package main

import (
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/lingo/internal/practice"
)

var (
	speakLang string
	speakOut  string
)

var speakCmd = &cobra.Command{
	Use:         "speak TEXT",
	Short:       "Read text aloud in the study language",
	Args:        cobra.MinimumNArgs(1),
	Annotations: clientAnnotations,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		client := newAPIClient()
		tag, err := resolveLanguage(ctx, client, speakLang)
		if err != nil {
			return err
		}

		var player practice.Player
		if speakOut != "" {
			player = practice.NewFilePlayer(speakOut)
		} else {
			player, err = practice.NewExecPlayer(cfg.Player)
			if err != nil {
				return err
			}
		}
		return practice.NewSpeaker(client, player, slog.Default()).Speak(ctx, strings.Join(args, " "), tag)
	},
}

func init() {
	speakCmd.Flags().StringVar(&speakLang, "lang", "", "language tag (defaults to the saved setting)")
	speakCmd.Flags().StringVarP(&speakOut, "out", "o", "", "write the MP3 to a file instead of playing it")
	rootCmd.AddCommand(speakCmd)
}
