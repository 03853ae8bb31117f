package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/book-inventory/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON    Format = "json"
	FormatJSONL   Format = "jsonl"
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a format name given on the command line
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatJSONL, FormatYAML, FormatParquet:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: json, jsonl, yaml, parquet)", name)
	}
}

// FormatFromPath picks a format from a file extension
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot detect format of %s: no file extension", path)
	}
	return ParseFormat(ext)
}

// parquetRow is the on-disk layout of a book in parquet exports
type parquetRow struct {
	ID             string `parquet:"id"`
	Title          string `parquet:"title"`
	Author         string `parquet:"author"`
	GradeLevel     string `parquet:"grade_level"`
	Subject        string `parquet:"subject"`
	Series         string `parquet:"series"`
	CoverImage     []byte `parquet:"cover_image"`
	CoverImageType string `parquet:"cover_image_type"`
	CreatedAt      int64  `parquet:"created_at"`
}

// Write encodes books in the given format. Covers are dropped unless
// includeCovers is set.
func Write(w io.Writer, format Format, books []models.Book, includeCovers bool) error {
	if !includeCovers {
		stripped := make([]models.Book, len(books))
		for i, b := range books {
			b.CoverImage = nil
			b.CoverImageType = ""
			stripped[i] = b
		}
		books = stripped
	}

	slog.Debug("Writing export", "format", format, "books", len(books), "covers", includeCovers)

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(models.ToTransportList(books)); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	case FormatJSONL:
		enc := json.NewEncoder(w)
		for _, b := range books {
			if err := enc.Encode(models.ToTransport(b)); err != nil {
				return fmt.Errorf("failed to encode book %s: %w", b.ID, err)
			}
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(models.ToTransportList(books)); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case FormatParquet:
		return writeParquet(w, books)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeParquet(w io.Writer, books []models.Book) error {
	rows := make([]parquetRow, 0, len(books))
	for _, b := range books {
		rows = append(rows, parquetRow{
			ID:             b.ID,
			Title:          b.Title,
			Author:         b.Author,
			GradeLevel:     b.GradeLevel,
			Subject:        b.Subject,
			Series:         b.Series,
			CoverImage:     b.CoverImage,
			CoverImageType: b.CoverImageType,
			CreatedAt:      b.CreatedAt.UnixMilli(),
		})
	}

	writer := parquet.NewGenericWriter[parquetRow](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
