package models

import (
	"encoding/base64"
	"time"
)

// BookResponse is the HTTP-facing representation of a Book.
// Optional fields are omitted instead of being sent as null.
type BookResponse struct {
	ID             string    `json:"_id" yaml:"id"`
	Title          string    `json:"title" yaml:"title"`
	Author         string    `json:"author" yaml:"author"`
	GradeLevel     string    `json:"gradeLevel,omitempty" yaml:"gradeLevel,omitempty"`
	Subject        string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	Series         string    `json:"series,omitempty" yaml:"series,omitempty"`
	CoverImage     string    `json:"coverImage,omitempty" yaml:"coverImage,omitempty"`
	CoverImageType string    `json:"coverImageType,omitempty" yaml:"coverImageType,omitempty"`
	CreatedAt      time.Time `json:"createdAt" yaml:"createdAt"`
}

// ToTransport projects a stored book into its response shape, replacing the
// raw cover bytes with a data URI.
func ToTransport(b Book) BookResponse {
	resp := BookResponse{
		ID:         b.ID,
		Title:      b.Title,
		Author:     b.Author,
		GradeLevel: b.GradeLevel,
		Subject:    b.Subject,
		Series:     b.Series,
		CreatedAt:  b.CreatedAt,
	}
	if b.HasCover() {
		resp.CoverImage = DataURI(b.CoverImageType, b.CoverImage)
		resp.CoverImageType = b.CoverImageType
	}
	return resp
}

// ToTransportList projects a slice of books. The result is never nil so it
// always encodes as a JSON array.
func ToTransportList(books []Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, ToTransport(b))
	}
	return out
}

// DataURI formats data as data:<mimeType>;base64,<payload>
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
