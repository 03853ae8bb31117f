package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/lehigh-university-libraries/book-inventory/internal/models"
)

// Supported store drivers
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Store is the persistence layer for book records
type Store interface {
	// List returns every record, newest first
	List(ctx context.Context) ([]models.Book, error)

	// Add persists a validated book and returns it with its ID and CreatedAt set
	Add(ctx context.Context, book models.Book) (models.Book, error)

	// Search returns records whose title, author or subject contains query,
	// ignoring case
	Search(ctx context.Context, query string) ([]models.Book, error)

	// Delete removes the record with the given ID. Unknown IDs are not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the underlying connection
	Close(ctx context.Context) error
}

// StoreError wraps a failure reported by the backing database
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Options selects and configures a store driver
type Options struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
	SQLitePath    string
}

// Open connects to the store selected by opts.Driver
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverMongo, "":
		return OpenMongo(ctx, opts.MongoURI, opts.MongoDatabase)
	case DriverSQLite:
		return OpenSQLite(ctx, opts.SQLitePath)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", opts.Driver)
	}
}

// now is the insertion timestamp, truncated to the millisecond precision
// every driver can round-trip
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
