package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/book-inventory/internal/models"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS books (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	author           TEXT NOT NULL,
	grade_level      TEXT,
	subject          TEXT,
	series           TEXT,
	cover_image      BLOB,
	cover_image_type TEXT,
	created_at       INTEGER NOT NULL
)`

const sqliteColumns = `id, title, author, grade_level, subject, series, cover_image, cover_image_type, created_at`

// SQLiteStore keeps books in a local SQLite database file
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLite opens (creating if needed) the database at dbPath
func OpenSQLite(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &StoreError{Op: "connect", Err: fmt.Errorf("failed to open database: %w", err)}
	}
	// A single connection avoids SQLITE_BUSY between concurrent writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, &StoreError{Op: "connect", Err: fmt.Errorf("failed to create table: %w", err)}
	}

	slog.Info("SQLite store opened", "path", dbPath)
	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM books ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	books, err := scanBooks(rows)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return books, nil
}

func (s *SQLiteStore) Add(ctx context.Context, book models.Book) (models.Book, error) {
	book.ID = uuid.NewString()
	book.CreatedAt = now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO books (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		book.Title,
		book.Author,
		nullString(book.GradeLevel),
		nullString(book.Subject),
		nullString(book.Series),
		nullBytes(book.CoverImage),
		nullString(book.CoverImageType),
		book.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return models.Book{}, &StoreError{Op: "add", Err: err}
	}
	return book, nil
}

// Search matches with lower() which only folds ASCII letters
func (s *SQLiteStore) Search(ctx context.Context, query string) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM books
		WHERE instr(lower(title), lower(?1)) > 0
		   OR instr(lower(author), lower(?1)) > 0
		   OR instr(lower(coalesce(subject, '')), lower(?1)) > 0
		ORDER BY created_at DESC, rowid DESC`, query)
	if err != nil {
		return nil, &StoreError{Op: "search", Err: err}
	}
	books, err := scanBooks(rows)
	if err != nil {
		return nil, &StoreError{Op: "search", Err: err}
	}
	return books, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func scanBooks(rows *sql.Rows) ([]models.Book, error) {
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		var (
			book                                   models.Book
			gradeLevel, subject, series, coverType sql.NullString
			createdAt                              int64
		)
		if err := rows.Scan(
			&book.ID,
			&book.Title,
			&book.Author,
			&gradeLevel,
			&subject,
			&series,
			&book.CoverImage,
			&coverType,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		book.GradeLevel = gradeLevel.String
		book.Subject = subject.String
		book.Series = series.String
		book.CoverImageType = coverType.String
		book.CreatedAt = time.UnixMilli(createdAt).UTC()
		books = append(books, book)
	}
	return books, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
