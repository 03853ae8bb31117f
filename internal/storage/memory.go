package storage

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/book-inventory/internal/models"
)

// MemoryStore keeps books in process memory. Contents are lost on restart.
type MemoryStore struct {
	books []models.Book
	mu    sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) List(ctx context.Context) ([]models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirst(func(models.Book) bool { return true }), nil
}

func (s *MemoryStore) Add(ctx context.Context, book models.Book) (models.Book, error) {
	book.ID = uuid.NewString()
	book.CreatedAt = now()
	book.CoverImage = bytes.Clone(book.CoverImage)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = append(s.books, book)
	return book, nil
}

func (s *MemoryStore) Search(ctx context.Context, query string) ([]models.Book, error) {
	needle := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.newestFirst(func(b models.Book) bool {
		return strings.Contains(strings.ToLower(b.Title), needle) ||
			strings.Contains(strings.ToLower(b.Author), needle) ||
			strings.Contains(strings.ToLower(b.Subject), needle)
	}), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.books {
		if b.ID == id {
			s.books = append(s.books[:i], s.books[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// newestFirst copies the matching books, covers included, ordered by
// CreatedAt descending.
// Books sharing a timestamp keep reverse insertion order. Caller holds the lock.
func (s *MemoryStore) newestFirst(match func(models.Book) bool) []models.Book {
	result := make([]models.Book, 0, len(s.books))
	for i := len(s.books) - 1; i >= 0; i-- {
		if match(s.books[i]) {
			book := s.books[i]
			book.CoverImage = bytes.Clone(book.CoverImage)
			result = append(result, book)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}
