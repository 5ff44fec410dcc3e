package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/lingo/internal/language"
)

var languageList bool

var languageCmd = &cobra.Command{
	Use:         "language [TAG]",
	Short:       "Show or change the study language",
	Args:        cobra.MaximumNArgs(1),
	Annotations: clientAnnotations,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if languageList {
			for _, tag := range language.All() {
				fmt.Fprintln(out, tag)
			}
			return nil
		}

		client := newAPIClient()
		if len(args) == 0 {
			st, err := client.GetSettings(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, st.Language)
			return nil
		}

		tag, err := language.Parse(args[0])
		if err != nil {
			return err
		}
		if err := client.SetLanguage(cmd.Context(), tag); err != nil {
			return err
		}
		fmt.Fprintf(out, "now studying %s\n", tag)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:         "stats [TAG]",
	Short:       "Show learning progress",
	Args:        cobra.MaximumNArgs(1),
	Annotations: clientAnnotations,
	RunE: func(cmd *cobra.Command, args []string) error {
		var tag language.Tag
		if len(args) == 1 {
			var err error
			if tag, err = language.Parse(args[0]); err != nil {
				return err
			}
		}
		client := newAPIClient()
		st, err := client.Stats(cmd.Context(), tag)
		if err != nil {
			return err
		}
		settings, err := client.GetSettings(cmd.Context())
		if err != nil {
			return err
		}
		scope := "all languages"
		if tag != "" {
			scope = string(tag)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s, level %d (%d/100 exp)\n", settings.Name, st.Level, st.Exp)
		fmt.Fprintf(out, "  scope:          %s\n", scope)
		fmt.Fprintf(out, "  learning days:  %d\n", st.LearningDays)
		fmt.Fprintf(out, "  saved:          %d\n", st.HistoryCount)
		fmt.Fprintf(out, "  average words:  %.1f\n", st.AverageWords)
		return nil
	},
}

func init() {
	languageCmd.Flags().BoolVar(&languageList, "list", false, "list supported tags")
	rootCmd.AddCommand(languageCmd, statsCmd)
}
