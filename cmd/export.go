package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/book-inventory/internal/export"
	"github.com/lehigh-university-libraries/book-inventory/internal/storage"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		formatName string
		output     string
		covers     bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the inventory as JSON, JSONL, YAML or Parquet",
		Example: `  book-inventory export > books.json
  book-inventory export --format parquet --output books.parquet --covers
  book-inventory export --store sqlite --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			store, err := storage.Open(cmd.Context(), a.cfg.StoreOptions())
			if err != nil {
				return err
			}
			defer closeStore(store)

			books, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			write := func(w io.Writer) error {
				return export.Write(w, format, books, covers)
			}
			if output == "" || output == "-" {
				err = write(cmd.OutOrStdout())
			} else {
				err = writeFile(output, write)
			}
			if err != nil {
				return err
			}
			slog.Info("Exported books", "books", len(books), "format", format, "output", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "json", "Output format (json, jsonl, yaml, parquet)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&covers, "covers", false, "Include cover images")

	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add the books in an export file to the inventory",
		Long: `Reads a file produced by export (format chosen by extension: .json,
.jsonl, .yaml, .parquet) and adds every book to the configured store.
Records are validated like the add endpoint; nothing is stored if any
record is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := export.NewLoader(args[0]).Load()
			if err != nil {
				return err
			}

			store, err := storage.Open(cmd.Context(), a.cfg.StoreOptions())
			if err != nil {
				return err
			}
			defer closeStore(store)

			// Exports are newest first; add oldest first so listing order survives
			for i := len(books) - 1; i >= 0; i-- {
				if _, err := store.Add(cmd.Context(), books[i]); err != nil {
					return fmt.Errorf("failed to add %q: %w", books[i].Title, err)
				}
			}
			slog.Info("Imported books", "books", len(books), "store", a.cfg.StoreDriver)
			return nil
		},
	}

	return cmd
}

// writeFile creates path and runs write against it
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return writeAndClose(f, write)
}

// writeAndClose runs write against w and closes it. A failed close is
// reported even when the write succeeded.
func writeAndClose(w io.WriteCloser, write func(io.Writer) error) error {
	if err := write(w); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}
