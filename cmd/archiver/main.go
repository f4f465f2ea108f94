package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"

	"github.com/reshetovitsme/telegram-channel-archiver/internal/di"
	archiveService "github.com/reshetovitsme/telegram-channel-archiver/internal/modules/archive/service"
	"github.com/reshetovitsme/telegram-channel-archiver/internal/shared/config"
	apperrors "github.com/reshetovitsme/telegram-channel-archiver/internal/shared/errors"
	tgtransport "github.com/reshetovitsme/telegram-channel-archiver/internal/transport/telegram"
)

func main() {
	os.Exit(run())
}

func run() int {
	limit := flag.Int("limit", 0, "maximum number of messages to archive, 0 means all")
	output := flag.String("output", "", "output root directory, overrides the configured one")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <channel>\n\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "Archives the full history of a public Telegram channel.\n")
		fmt.Fprintf(flag.CommandLine.Output(), "The channel is a username, with or without the leading @.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return 1
	}
	channel := flag.Arg(0)

	// Setup structured logging with multiple handlers using slog-multi
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	// Use Fanout to send logs to both handlers
	multiHandler := slogmulti.Fanout(textHandler, jsonHandler)
	logger := slog.New(multiHandler)
	slog.SetDefault(logger)

	// Setup dependency injection
	injector, err := di.Setup()
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		return 1
	}

	cfg := do.MustInvoke[*config.Config](injector)
	if *output != "" {
		cfg.OutputRoot = *output
	}
	svc := do.MustInvoke[*archiveService.Service](injector)

	// Graceful shutdown: the first Ctrl+C finishes the current message and
	// records a checkpoint instead of killing the process.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionFile},
	})

	err = client.Run(ctx, func(ctx context.Context) error {
		if err := tgtransport.Authenticate(ctx, client, cfg.Phone); err != nil {
			return err
		}
		_, err := svc.Run(ctx, tgtransport.New(client.API()), channel, *limit)
		return err
	})

	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, context.Canceled):
		slog.Info("Interrupted, run again to resume")
		return 0
	default:
		var aborted *apperrors.AbortedError
		if stderrors.As(err, &aborted) {
			slog.Error("Download aborted, run again to resume", "cursor", aborted.Cursor, "error", aborted.Err)
			return 2
		}
		slog.Error("Download failed", "error", err)
		return 1
	}
}
