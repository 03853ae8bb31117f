package models

import "time"

// Book represents a book record in the inventory
type Book struct {
	ID             string
	Title          string
	Author         string
	GradeLevel     string
	Subject        string
	Series         string
	CoverImage     []byte
	CoverImageType string
	CreatedAt      time.Time
}

// HasCover reports whether the record carries a cover image
func (b *Book) HasCover() bool {
	return len(b.CoverImage) > 0
}

// BookDetails holds the fields a vision model read off a book cover.
// Title and Author may be empty when nothing was found.
type BookDetails struct {
	Title      string `json:"title" yaml:"title"`
	Author     string `json:"author" yaml:"author"`
	GradeLevel string `json:"gradeLevel,omitempty" yaml:"gradeLevel,omitempty"`
	Subject    string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Series     string `json:"series,omitempty" yaml:"series,omitempty"`
}

// ProcessedImage is the payload returned after a cover upload was normalized
// and run through the detail extractor. CoverImage is plain base64.
type ProcessedImage struct {
	BookDetails
	CoverImage     string `json:"coverImage"`
	CoverImageType string `json:"coverImageType"`
}
