// Command countreview reviews one pending inventory count in the terminal and
// records the approval decision through the count API.
//
//	countreview -url http://localhost:8080 -token $TOKEN <count-id>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/erp/stockcount/internal/infrastructure/client"
	"github.com/erp/stockcount/internal/infrastructure/config"
	"github.com/erp/stockcount/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "countreview:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		baseURL string
		token   string
		logFile string
	)
	flag.StringVar(&baseURL, "url", "http://localhost:8080", "Count API base URL")
	flag.StringVar(&token, "token", os.Getenv("STOCKCOUNT_TOKEN"), "Bearer token (default $STOCKCOUNT_TOKEN)")
	flag.StringVar(&logFile, "log", "", "Write a JSON request log to this file")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: countreview [flags] <count-id>")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return fmt.Errorf("count id required")
	}
	countID, err := uuid.Parse(flag.Arg(0))
	if err != nil {
		return fmt.Errorf("invalid count id %q: %w", flag.Arg(0), err)
	}
	if token == "" {
		return fmt.Errorf("no token: pass -token or set STOCKCOUNT_TOKEN")
	}

	log := zap.NewNop()
	if logFile != "" {
		if log, err = logger.New(config.LogConfig{Level: "debug", Format: "json", Output: logFile}); err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	api := client.New(baseURL, token, client.WithLogger(log))
	review, err := api.GetReview(ctx, countID)
	if err != nil {
		return fmt.Errorf("load review: %w", err)
	}

	m, err := newReviewModel(ctx, review, api, api)
	if err != nil {
		return err
	}
	result, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if final, ok := result.(reviewModel); ok && final.gate.Outcome() != "" {
		fmt.Printf("%s %s\n", final.gate.Snapshot().CountNumber, final.gate.Outcome())
	}
	return nil
}
