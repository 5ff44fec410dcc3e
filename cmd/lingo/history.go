package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/lingo/internal/language"
	"github.com/MikeSquared-Agency/lingo/internal/practice"
)

var (
	historyLang string
	historyPlay int
)

var historyCmd = &cobra.Command{
	Use:         "history",
	Short:       "Show saved sentences grouped by category",
	Annotations: clientAnnotations,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		client := newAPIClient()
		tag, err := resolveLanguage(ctx, client, historyLang)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if historyPlay == 0 {
			return printHistory(ctx, out, client, tag)
		}

		entries, err := client.ListHistory(ctx, tag)
		if err != nil {
			return err
		}
		if historyPlay < 1 || historyPlay > len(entries) {
			return fmt.Errorf("no entry %d (have %d)", historyPlay, len(entries))
		}
		entry := entries[historyPlay-1]

		player, err := practice.NewExecPlayer(cfg.Player)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, entry.Sentence)
		return practice.NewSpeaker(client, player, slog.Default()).Speak(ctx, entry.Sentence, tag)
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyLang, "lang", "", "language tag (defaults to the saved setting)")
	historyCmd.Flags().IntVar(&historyPlay, "play", 0, "read entry N aloud (numbering as listed)")
	rootCmd.AddCommand(historyCmd)
}

// printHistory lists entries newest first, numbered in that order and shown
// under their category.
func printHistory(ctx context.Context, out io.Writer, client *practice.APIClient, tag language.Tag) error {
	entries, err := client.ListHistory(ctx, tag)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(out, "no saved sentences for %s yet\n", tag)
		return nil
	}

	number := make(map[string]int, len(entries))
	for i, e := range entries {
		number[e.ID.String()] = i + 1
	}
	for _, g := range practice.GroupByCategory(entries) {
		fmt.Fprintf(out, "%s (%d)\n", g.Category, len(g.Entries))
		for _, e := range g.Entries {
			fmt.Fprintf(out, "  %3d. %s  %s\n", number[e.ID.String()], e.Sentence, e.CreatedAt.Local().Format("2006-01-02"))
		}
	}
	return nil
}

// resolveLanguage parses an explicit tag or falls back to the saved setting.
func resolveLanguage(ctx context.Context, client *practice.APIClient, raw string) (language.Tag, error) {
	if raw != "" {
		return language.Parse(raw)
	}
	st, err := client.GetSettings(ctx)
	if err != nil {
		return "", err
	}
	return st.Language, nil
}

