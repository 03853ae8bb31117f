package export

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/book-inventory/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Loader reads books back from a file written by Write. Every record is
// validated the same way the add endpoint validates a payload.
type Loader struct {
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load returns the books in the file, ready to be added to a store.
// Ids and creation times are not carried over.
func (l *Loader) Load() ([]models.Book, error) {
	format, err := FormatFromPath(l.path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", l.path, err)
	}
	defer file.Close()

	var payloads []models.NewBook
	switch format {
	case FormatJSON:
		err = json.NewDecoder(file).Decode(&payloads)
	case FormatJSONL:
		payloads, err = readJSONL(file)
	case FormatYAML:
		err = yaml.NewDecoder(file).Decode(&payloads)
	case FormatParquet:
		payloads, err = readParquet(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.path, err)
	}

	books := make([]models.Book, 0, len(payloads))
	for i, p := range payloads {
		book, err := p.ToBook()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		books = append(books, book)
	}

	slog.Debug("Loaded books", "path", l.path, "format", format, "books", len(books))
	return books, nil
}

func readJSONL(r io.Reader) ([]models.NewBook, error) {
	scanner := bufio.NewScanner(r)

	// Lines carry base64 covers
	const maxCapacity = 10 * 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	var payloads []models.NewBook
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var p models.NewBook
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		payloads = append(payloads, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return payloads, nil
}

func readParquet(file *os.File) ([]models.NewBook, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[parquetRow](pf)
	defer reader.Close()

	payloads := make([]models.NewBook, 0, pf.NumRows())
	rows := make([]parquetRow, 128)
	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			payloads = append(payloads, row.toNewBook())
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return payloads, nil
}

func (r parquetRow) toNewBook() models.NewBook {
	p := models.NewBook{
		Title:      r.Title,
		Author:     r.Author,
		GradeLevel: r.GradeLevel,
		Subject:    r.Subject,
		Series:     r.Series,
	}
	if len(r.CoverImage) > 0 {
		p.CoverImage = base64.StdEncoding.EncodeToString(r.CoverImage)
		p.CoverImageType = r.CoverImageType
	}
	return p
}
