package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lehigh-university-libraries/book-inventory/internal/models"
	"github.com/lehigh-university-libraries/book-inventory/internal/storage"
)

// DetailExtractor reads bibliographic details off a normalized cover image
type DetailExtractor interface {
	ExtractDetails(ctx context.Context, image []byte, mimeType string) (models.BookDetails, error)
}

type Handler struct {
	store     storage.Store
	extractor DetailExtractor
}

func New(store storage.Store, extractor DetailExtractor) *Handler {
	return &Handler{
		store:     store,
		extractor: extractor,
	}
}

// messageResponse is the body of book endpoint errors and confirmations
type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// processImageResponse is the body of every process-image response
type processImageResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    *models.ProcessedImage `json:"data,omitempty"`
}

// Response helpers
func (h *Handler) writeError(c *gin.Context, code int, message string, err error) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "err", err, "method", c.Request.Method, "path", c.FullPath())
	} else {
		slog.Warn(message, "err", err, "method", c.Request.Method, "path", c.FullPath())
	}
	c.AbortWithStatusJSON(code, messageResponse{Message: message})
}

func (h *Handler) writeUploadError(c *gin.Context, code int, message string, err error) {
	if code >= http.StatusInternalServerError {
		slog.Error("Image processing error", "message", message, "err", err)
	} else {
		slog.Warn("Image processing rejected", "message", message, "err", err)
	}
	c.AbortWithStatusJSON(code, processImageResponse{Success: false, Message: message})
}
