package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/vodomat/fieldsync/internal/client/api"
	"github.com/vodomat/fieldsync/internal/client/cli"
	"github.com/vodomat/fieldsync/internal/client/iocli"
	"github.com/vodomat/fieldsync/internal/client/storage"
	"github.com/vodomat/fieldsync/internal/client/storage/boltdb"
	clientsync "github.com/vodomat/fieldsync/internal/client/sync"
	"github.com/vodomat/fieldsync/internal/client/tickets"
	"github.com/vodomat/fieldsync/internal/client/users"
	"github.com/vodomat/fieldsync/internal/client/workday"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "fieldsync-client.db", "Path to local database")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	logLevel := slog.LevelWarn
	if os.Getenv("FIELDSYNC_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	if err := ensureSettings(ctx, boltStorage, *serverURL); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save settings: %v\n", err)
		os.Exit(1)
	}

	apiClient := api.NewClient(*serverURL)

	syncSvc := clientsync.NewService(apiClient, boltStorage, boltStorage, boltStorage, logger)
	ticketSvc := tickets.NewService(boltStorage, boltStorage, boltStorage, syncSvc, logger)
	userSvc := users.NewService(boltStorage, boltStorage, boltStorage, syncSvc, logger)
	gate := workday.NewGate(apiClient, boltStorage, boltStorage, syncSvc, logger)

	app := cli.New(iocli.NewStdio(), apiClient, boltStorage, ticketSvc, userSvc, syncSvc, gate, logger)
	app.Run(ctx, args[0], args[1:])
}

// ensureSettings keeps the stored server URL in step with the flag so
// background pulls talk to the same server as the commands.
func ensureSettings(ctx context.Context, store *boltdb.Storage, serverURL string) error {
	settings, err := store.GetSettings(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrSettingsNotFound) {
			return err
		}
		settings = &storage.Settings{AutoSyncEnabled: true}
	}
	if settings.ServerURL == serverURL {
		return nil
	}
	settings.ServerURL = serverURL
	return store.SaveSettings(ctx, settings)
}

func printVersion() {
	fmt.Printf("FieldSync Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
