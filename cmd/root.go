package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/book-inventory/internal/config"
	"github.com/lehigh-university-libraries/book-inventory/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the configuration resolved before any subcommand runs
type app struct {
	v   *viper.Viper
	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "book-inventory",
		Short: "Book inventory backend with LLM-powered cover reading",
		Long: `Book Inventory keeps a catalog of books for a classroom or school library.

Covers can be photographed and uploaded; a vision-capable LLM (Gemini, OpenAI
or Ollama) reads the title, author and other details off the image.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(a.v)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			a.cfg = cfg

			logger, err := config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	flags.String("store", "mongo", "Storage driver (mongo, sqlite, memory)")
	flags.String("mongo-uri", "mongodb://localhost:27017/book-inventory", "MongoDB connection URI")
	flags.String("sqlite-path", "books.db", "SQLite database file")

	cmd.AddCommand(
		newServeCmd(a),
		newExtractCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)

	return cmd
}

// closeStore gives the store 5 seconds to release its connection and logs
// any failure
func closeStore(store storage.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		slog.Error("Failed to close store", "err", err)
	}
}
