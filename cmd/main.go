package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bucketdrop/internal/auth"
	"bucketdrop/internal/config"
	"bucketdrop/internal/history"
	"bucketdrop/internal/logger"
	"bucketdrop/internal/metrics"
	"bucketdrop/internal/storage"
	"bucketdrop/internal/upload"
	"bucketdrop/internal/web"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bucketdrop",
	Short: "Browser-based batched file upload to S3-compatible storage",
	Long:  `A small web service for authenticated, rate-limited batch uploads to an S3-compatible bucket, with optional time-limited presigned download links exportable as CSV.`,
	RunE:  runServer,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./config.yaml)")

	// Server flags
	rootCmd.Flags().String("addr", ":8080", "HTTP listen address")
	rootCmd.Flags().String("metrics-addr", ":9090", "Metrics listen address")

	// Storage flags
	rootCmd.Flags().String("s3-endpoint", "", "S3-compatible endpoint")
	rootCmd.Flags().String("s3-access-key", "", "S3 access key")
	rootCmd.Flags().String("s3-secret-key", "", "S3 secret key")
	rootCmd.Flags().Bool("s3-secure", false, "Use HTTPS for storage")
	rootCmd.Flags().String("bucket", "", "Bucket name (required)")

	// Upload flags
	rootCmd.Flags().Int("rate-limit", 8, "Max concurrent uploads per chunk")
	rootCmd.Flags().Int("presign-expiry", 86400, "Presigned URL expiry in seconds")
	rootCmd.Flags().Int64("max-request-bytes", 1<<30, "Max upload request size in bytes")

	rootCmd.Flags().String("history", "./history.db", "Upload history database file")
	rootCmd.Flags().Bool("no-history", false, "Disable the upload history journal")
	rootCmd.Flags().String("log-level", "info", "Log level (debug/info/warn/error)")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	// Storage client, one per process lifetime
	client, err := storage.NewMinIOClient(storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Secure:    cfg.Storage.Secure,
	})
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := client.EnsureBucket(ctx, cfg.Storage.Bucket); err != nil {
		cancel()
		return fmt.Errorf("failed to ensure bucket: %w", err)
	}
	cancel()

	// Upload history journal
	var journal history.Store
	if cfg.History.Enabled {
		journal, err = history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to create history store: %w", err)
		}
		defer journal.Close()
	}

	// Metrics collector
	metricsCollector := metrics.New()
	go func() {
		if err := metricsCollector.StartServer(cfg.Server.MetricsAddr); err != nil {
			log.Error("Failed to start metrics server", zap.Error(err))
		}
	}()

	// Upload pipeline
	orch := upload.NewOrchestrator(
		client,
		cfg.Storage.Bucket,
		time.Duration(cfg.Upload.PresignExpiry)*time.Second,
		metricsCollector,
		journal,
		log,
	)
	batcher := upload.NewBatcher(orch, cfg.Upload.RateLimit, log)

	// Web server
	resolver := auth.NewResolver(cfg.Auth.Users)
	sessions := auth.NewSessions(cfg.Auth.Cookie)
	server := web.New(cfg, log, resolver, sessions, batcher, journal)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Router(),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("bucket", cfg.Storage.Bucket),
			zap.Int("rate_limit", cfg.Upload.RateLimit),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	log.Info("Received shutdown signal, gracefully stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
