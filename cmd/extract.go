package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/lehigh-university-libraries/book-inventory/internal/cataloging"
	"github.com/lehigh-university-libraries/book-inventory/internal/images"
	"github.com/lehigh-university-libraries/book-inventory/internal/models"
	"github.com/lehigh-university-libraries/book-inventory/internal/storage"
	"github.com/spf13/cobra"
)

func newExtractCmd(a *app) *cobra.Command {
	var add bool

	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Read book details off a cover image",
		Long: `Resizes a local cover image the same way the API does and asks the
vision provider for the book's details. The details are printed as JSON.

With --add the book is also stored, using the resized cover.`,
		Example: `  book-inventory extract cover.jpg
  book-inventory extract --provider openai --add cover.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			mimeType := http.DetectContentType(data)
			if !images.IsImageType(mimeType) {
				return fmt.Errorf("%s is not an image (detected %s)", args[0], mimeType)
			}

			normalized, err := images.Normalize(data, mimeType)
			if err != nil {
				return err
			}

			extractor, err := cataloging.NewFromOptions(a.cfg.VisionOptions())
			if err != nil {
				return err
			}
			details, err := extractor.ExtractDetails(cmd.Context(), normalized.Data, normalized.MIMEType)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(details); err != nil {
				return err
			}

			if !add {
				return nil
			}
			return addExtracted(cmd, a, details, normalized)
		},
	}

	cmd.Flags().BoolVar(&add, "add", false, "Store the book after extraction")
	addVisionFlags(cmd)

	return cmd
}

func addExtracted(cmd *cobra.Command, a *app, details models.BookDetails, cover *images.Result) error {
	book, err := models.NewBook{
		Title:          details.Title,
		Author:         details.Author,
		GradeLevel:     details.GradeLevel,
		Subject:        details.Subject,
		Series:         details.Series,
		CoverImage:     models.DataURI(cover.MIMEType, cover.Data),
		CoverImageType: cover.MIMEType,
	}.ToBook()
	if err != nil {
		return fmt.Errorf("cannot store extracted book: %w", err)
	}

	store, err := storage.Open(cmd.Context(), a.cfg.StoreOptions())
	if err != nil {
		return err
	}
	defer closeStore(store)

	stored, err := store.Add(cmd.Context(), book)
	if err != nil {
		return err
	}
	slog.Info("Book added", "id", stored.ID, "title", stored.Title)
	return nil
}
