package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lehigh-university-libraries/book-inventory/internal/cataloging"
	"github.com/lehigh-university-libraries/book-inventory/internal/handlers"
	"github.com/lehigh-university-libraries/book-inventory/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the book inventory API server",
		Long: `Starts the HTTP API on the configured port.

Books are kept in the configured store (MongoDB by default). Cover uploads
to /api/books/process-image are resized and sent to the vision provider.`,
		Example: `  # Start server on default port 5000 against a local MongoDB
  book-inventory serve

  # Start server on custom port with a SQLite database
  book-inventory serve --port 3000 --store sqlite --sqlite-path books.db

  # Read covers with a local Ollama model
  book-inventory serve --provider ollama --model llava`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			ctx := cmd.Context()

			store, err := storage.Open(ctx, cfg.StoreOptions())
			if err != nil {
				return err
			}
			defer closeStore(store)

			extractor, err := cataloging.NewFromOptions(cfg.VisionOptions())
			if err != nil {
				return err
			}
			provider, model := extractor.Provider()

			if cfg.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			router := handlers.NewRouter(handlers.New(store, extractor))

			addr := cfg.Addr()
			server := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Book inventory API available",
					"addr", addr,
					"url", "http://localhost"+addr,
					"store", cfg.StoreDriver,
					"provider", provider,
					"model", model)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-ctx.Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return fmt.Errorf("server failed: %w", err)
			}
		},
	}

	cmd.Flags().StringP("port", "p", "5000", "Port to listen on")
	addVisionFlags(cmd)

	return cmd
}

func addVisionFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "gemini", "Vision provider (gemini, openai, ollama)")
	cmd.Flags().String("model", "", "Vision model (defaults to the provider's default)")
}
