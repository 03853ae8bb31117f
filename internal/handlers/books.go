package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lehigh-university-libraries/book-inventory/internal/models"
)

// ListBooks returns every book, newest first
func (h *Handler) ListBooks(c *gin.Context) {
	books, err := h.store.List(c.Request.Context())
	if err != nil {
		h.writeError(c, http.StatusInternalServerError, "Error fetching books", err)
		return
	}
	c.JSON(http.StatusOK, models.ToTransportList(books))
}

// AddBook validates the JSON or form payload and stores a new book
func (h *Handler) AddBook(c *gin.Context) {
	var payload models.NewBook
	if err := c.ShouldBind(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(c, http.StatusRequestEntityTooLarge, "Request body too large", err)
			return
		}
		slog.Warn("Invalid book payload", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, messageResponse{Message: "Error adding book", Error: "invalid request body"})
		return
	}

	book, err := payload.ToBook()
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			slog.Warn("Book validation failed", "err", err)
			c.AbortWithStatusJSON(http.StatusBadRequest, messageResponse{Message: "Error adding book", Error: validationErr.Error()})
			return
		}
		h.writeError(c, http.StatusBadRequest, "Error adding book", err)
		return
	}

	stored, err := h.store.Add(c.Request.Context(), book)
	if err != nil {
		h.writeError(c, http.StatusBadRequest, "Error adding book", err)
		return
	}

	slog.Info("Book added", "id", stored.ID, "title", stored.Title, "has_cover", stored.HasCover())
	c.JSON(http.StatusCreated, models.ToTransport(stored))
}

// SearchBooks matches the query parameter against title, author and subject
func (h *Handler) SearchBooks(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, messageResponse{Message: "Error searching books", Error: "query parameter is required"})
		return
	}

	books, err := h.store.Search(c.Request.Context(), query)
	if err != nil {
		h.writeError(c, http.StatusInternalServerError, "Error searching books", err)
		return
	}
	c.JSON(http.StatusOK, models.ToTransportList(books))
}

// DeleteBook removes a book. Unknown ids are reported as deleted as well.
func (h *Handler) DeleteBook(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, http.StatusInternalServerError, "Error deleting book", err)
		return
	}
	slog.Info("Book deleted", "id", id)
	c.JSON(http.StatusOK, messageResponse{Message: "Book deleted successfully"})
}
