// Command chat runs the donation dialogue in a terminal with an in-memory session.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"plateful-agent/internal/config"
	"plateful-agent/internal/integrations/paramstore"
	"plateful-agent/internal/integrations/places"
	"plateful-agent/internal/integrations/sheets"
	"plateful-agent/internal/logging"
	"plateful-agent/internal/repository"
	"plateful-agent/internal/usecase"
)

type sender interface {
	Send(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

func main() {
	if err := config.LoadDotenvIfPresent(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load(os.LookupEnv, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewConsole(os.Stderr, cfg.LogLevel, false))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	secrets := paramstore.NewEnvGetter()
	placesClient, err := places.NewClient(secrets, cfg.ParamPrefix)
	if err != nil {
		fatal("failed to create places client", err)
	}
	sheetsClient, err := sheets.NewClient(secrets, cfg.ParamPrefix, sheets.WithKeyFile(cfg.ServiceAccountFile))
	if err != nil {
		fatal("failed to create sheets client", err)
	}
	chat, err := usecase.Build(placesClient, sheetsClient, repository.NewMemory(), cfg.MaxMessageLength, cfg.MaxTranscriptItems)
	if err != nil {
		fatal("failed to create chat service", err)
	}

	if err := run(ctx, os.Stdin, os.Stdout, chat); err != nil {
		fatal("chat session ended", err)
	}
}

// run reads one message per line until EOF, /quit or cancellation.
func run(ctx context.Context, in io.Reader, out io.Writer, chat sender) error {
	fmt.Fprintln(out, "🍽️ Plateful - Food Distribution Agent")
	fmt.Fprintln(out, "How can I help? (type /quit to exit)")

	sessionID := ""
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.TrimSpace(line) == "/quit" {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return nil
		}

		res, err := chat.Send(ctx, usecase.ChatInput{SessionID: sessionID, Message: line})
		if err != nil {
			slog.Warn("message rejected", "err", err)
			fmt.Fprintln(out, "Sorry, I couldn't process that message.")
			continue
		}
		sessionID = res.SessionID
		fmt.Fprintln(out, res.Reply)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
