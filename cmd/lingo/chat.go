package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/lingo/internal/language"
	"github.com/MikeSquared-Agency/lingo/internal/practice"
	"github.com/MikeSquared-Agency/lingo/internal/store"
)

var chatCmd = &cobra.Command{
	Use:         "chat",
	Short:       "Practice in the terminal",
	Annotations: clientAnnotations,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runChat(ctx, os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

const chatHelp = `commands:
  /lang TAG   switch the study language
  /retry      re-send after an error
  /speak      read the last reply aloud
  /history    show saved sentences
  /quit       leave`

func runChat(ctx context.Context, in io.Reader, out io.Writer) error {
	logger := slog.Default()
	client := newAPIClient()
	session := practice.NewSession(client)
	conv := practice.NewConversation(client, session, logger)

	player, err := practice.NewExecPlayer(cfg.Player)
	if err != nil {
		return err
	}
	speaker := practice.NewSpeaker(client, player, logger)
	defer player.Stop()

	if err := session.Load(ctx); err != nil {
		return err
	}
	if err := conv.Load(ctx); err != nil {
		fmt.Fprintln(out, "could not load history:", err)
	}
	renderAll(out, conv.View())
	fmt.Fprintln(out, "type /help for commands")

	conv.OnChange(func(v practice.View) {
		if v.State == practice.Streaming {
			fmt.Fprint(os.Stderr, ".")
		}
	})

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "[%s] > ", session.Language())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/help":
			fmt.Fprintln(out, chatHelp)
		case strings.HasPrefix(line, "/lang"):
			arg := strings.TrimSpace(strings.TrimPrefix(line, "/lang"))
			tag, err := language.Parse(arg)
			if err != nil {
				fmt.Fprintln(out, err)
				fmt.Fprintln(out, "languages:", joinTags(language.All()))
				continue
			}
			if err := session.SetLanguage(ctx, tag); err != nil {
				fmt.Fprintln(out, "could not switch:", err)
				continue
			}
			renderAll(out, conv.View())
		case line == "/retry":
			err := conv.Retry(ctx)
			fmt.Fprintln(os.Stderr)
			reportTurn(out, conv, err)
		case line == "/speak":
			text, ok := lastReply(conv.View())
			if !ok {
				fmt.Fprintln(out, "nothing to read yet")
				continue
			}
			// failures are logged by the speaker
			_ = speaker.Speak(ctx, text, session.Language())
		case line == "/history":
			if err := printHistory(ctx, out, client, session.Language()); err != nil {
				fmt.Fprintln(out, "could not load history:", err)
			}
		case strings.HasPrefix(line, "/"):
			fmt.Fprintln(out, "unknown command, try /help")
		default:
			err := conv.Submit(ctx, line)
			fmt.Fprintln(os.Stderr)
			reportTurn(out, conv, err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func reportTurn(out io.Writer, conv *practice.Conversation, err error) {
	switch {
	case err == nil:
		if text, ok := lastReply(conv.View()); ok {
			fmt.Fprintf(out, "tutor: %s\n", text)
		}
	case errors.Is(err, practice.ErrStale):
	case errors.Is(err, practice.ErrNoRetry):
		fmt.Fprintln(out, "nothing to retry")
	default:
		fmt.Fprintf(out, "error: %v (type /retry to try again)\n", err)
	}
}

func lastReply(v practice.View) (string, bool) {
	for i := len(v.Messages) - 1; i >= 0; i-- {
		if v.Messages[i].Role == store.RoleAssistant {
			return v.Messages[i].Content, true
		}
	}
	return "", false
}

func renderAll(out io.Writer, v practice.View) {
	fmt.Fprintf(out, "── %s ──\n", v.Language)
	for _, m := range v.Messages {
		who := "you"
		if m.Role == store.RoleAssistant {
			who = "tutor"
		}
		fmt.Fprintf(out, "%s: %s\n", who, m.Content)
	}
}

func joinTags(tags []language.Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
