package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/vodomat/fieldsync/internal/crypto"
	"github.com/vodomat/fieldsync/internal/models"
	"github.com/vodomat/fieldsync/internal/server/handlers"
	"github.com/vodomat/fieldsync/internal/server/middleware"
	"github.com/vodomat/fieldsync/internal/server/storage/sqlite"
	"github.com/vodomat/fieldsync/internal/server/twofactor"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const (
	accessTokenTTL  = 12 * time.Hour
	pendingTokenTTL = 5 * time.Minute

	// Login attempts per client IP per window.
	loginRateLimit  = 10
	loginRateWindow = time.Minute

	shutdownTimeout = 10 * time.Second
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	addr := flag.String("addr", envOr("FIELDSYNC_ADDR", ":8080"), "Listen address")
	dbPath := flag.String("db", envOr("FIELDSYNC_DB", "fieldsync.db"), "Path to SQLite database")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(logger, *addr, *dbPath); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, addr, dbPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jwtSecret := os.Getenv("FIELDSYNC_JWT_SECRET")
	if jwtSecret == "" {
		return fmt.Errorf("FIELDSYNC_JWT_SECRET is required")
	}

	store, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	if err := seedAdmin(ctx, logger, store); err != nil {
		return err
	}

	jwtConfig := handlers.JWTConfig{
		Secret:          []byte(jwtSecret),
		AccessTokenTTL:  accessTokenTTL,
		PendingTokenTTL: pendingTokenTTL,
	}

	authHandler := handlers.NewAuthHandler(logger, store, jwtConfig)
	twoFactorHandler := handlers.NewTwoFactorHandler(logger, twofactor.NewService(logger, store), store, jwtConfig)
	syncHandler := handlers.NewSyncHandler(logger, store, store)
	workdayHandler := handlers.NewWorkdayHandler(logger, store, store, store)
	healthHandler := handlers.NewHealthHandler(logger)

	auth := middleware.AuthMiddleware(logger, jwtConfig)
	allowPending := middleware.AllowPending(logger, jwtConfig)
	admin := middleware.RequireAdmin(logger)
	loginLimit := middleware.RateLimitMiddleware(loginRateLimit, loginRateWindow, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)

	mux.Handle("POST /api/v1/auth/login", loginLimit(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/v1/auth/2fa/setup", auth(http.HandlerFunc(twoFactorHandler.Setup)))
	mux.Handle("POST /api/v1/auth/2fa/enable", auth(http.HandlerFunc(twoFactorHandler.Enable)))
	// Verify is the only endpoint a restricted pending token may reach.
	mux.Handle("POST /api/v1/auth/2fa/verify", loginLimit(allowPending(http.HandlerFunc(twoFactorHandler.Verify))))
	mux.Handle("POST /api/v1/auth/2fa/disable", auth(http.HandlerFunc(twoFactorHandler.Disable)))

	mux.Handle("POST /api/v1/sync/users", auth(admin(http.HandlerFunc(syncHandler.PushUsers))))
	mux.Handle("GET /api/v1/sync/users", auth(http.HandlerFunc(syncHandler.PullUsers)))
	mux.Handle("POST /api/v1/sync/tickets", auth(http.HandlerFunc(syncHandler.PushTickets)))
	mux.Handle("GET /api/v1/sync/tickets", auth(http.HandlerFunc(syncHandler.PullTickets)))

	mux.Handle("POST /api/v1/workday/close", auth(http.HandlerFunc(workdayHandler.Close)))
	mux.Handle("POST /api/v1/workday/open", auth(admin(http.HandlerFunc(workdayHandler.Open))))
	mux.Handle("GET /api/v1/workday/open", auth(admin(http.HandlerFunc(workdayHandler.Audit))))

	var handler http.Handler = mux
	handler = middleware.LoggingWithSkip(logger, []string{"/health"})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// seedAdmin creates the initial super user on an empty database. The
// password comes from FIELDSYNC_ADMIN_PASSWORD or is generated and
// printed exactly once.
func seedAdmin(ctx context.Context, logger *slog.Logger, store *sqlite.Storage) error {
	count, err := store.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("FIELDSYNC_ADMIN_PASSWORD")
	generated := false
	if password == "" {
		raw := make([]byte, 16)
		if _, err := rand.Read(raw); err != nil {
			return fmt.Errorf("failed to generate admin password: %w", err)
		}
		password = hex.EncodeToString(raw)
		generated = true
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		ID:        uuid.New().String(),
		Username:  "admin",
		Password:  hash,
		Name:      "Administrator",
		Role:      models.RoleSuperUser,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}

	if err := store.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("seeded initial super user", "username", admin.Username)
	if generated {
		fmt.Printf("Initial admin password (shown once): %s\n", password)
	}

	return nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func printVersion() {
	fmt.Printf("FieldSync Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
