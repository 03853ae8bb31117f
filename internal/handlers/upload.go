package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lehigh-university-libraries/book-inventory/internal/images"
	"github.com/lehigh-university-libraries/book-inventory/internal/models"
)

const (
	// MaxImageBytes is the largest accepted cover upload
	MaxImageBytes = 4 * 1024 * 1024
	// imageField is the multipart form field carrying the upload
	imageField = "image"
)

// ProcessImage normalizes an uploaded cover and asks the vision provider for
// its details. The normalized image is returned alongside them.
func (h *Handler) ProcessImage(c *gin.Context) {
	header, err := c.FormFile(imageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeUploadError(c, http.StatusRequestEntityTooLarge, "Image file too large (max 4MB)", err)
			return
		}
		h.writeUploadError(c, http.StatusBadRequest, "No image file provided", err)
		return
	}

	if header.Size > MaxImageBytes {
		h.writeUploadError(c, http.StatusRequestEntityTooLarge, "Image file too large (max 4MB)", nil)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if !images.IsImageType(mimeType) {
		h.writeUploadError(c, http.StatusBadRequest, "Only image files are allowed", fmt.Errorf("rejected content type %q", mimeType))
		return
	}

	fileData, err := readFormFile(header)
	if err != nil {
		h.writeUploadError(c, http.StatusInternalServerError, "Internal server error", err)
		return
	}

	normalized, err := images.Normalize(fileData, mimeType)
	if err != nil {
		var decodeErr *images.DecodeError
		if errors.As(err, &decodeErr) {
			h.writeUploadError(c, http.StatusBadRequest, "Failed to process image file", err)
			return
		}
		h.writeUploadError(c, http.StatusInternalServerError, "Internal server error", err)
		return
	}

	details, err := h.extractor.ExtractDetails(c.Request.Context(), normalized.Data, normalized.MIMEType)
	if err != nil {
		h.writeUploadError(c, http.StatusInternalServerError, "Internal server error", err)
		return
	}

	c.JSON(http.StatusOK, processImageResponse{
		Success: true,
		Data: &models.ProcessedImage{
			BookDetails:    details,
			CoverImage:     base64.StdEncoding.EncodeToString(normalized.Data),
			CoverImageType: normalized.MIMEType,
		},
	})
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return fileData, nil
}
