// jobboard signs you in with Google and shows the current job postings.
//
// Usage:
//
//	JOBBOARD_GOOGLE_CLIENT_ID=... go run ./cmd/jobboard
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gsarma/jobboard/internal/app"
	"github.com/gsarma/jobboard/internal/config"
	"github.com/gsarma/jobboard/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobboard: %v\n", err)
		os.Exit(2)
	}

	log := logger.Setup(os.Stderr, logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, os.Stdin, os.Stdout, log); err != nil {
		log.Error("jobboard exited", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
