package models

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ValidationError is returned when a book payload is missing required
// fields or carries malformed values.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewBook is the payload accepted when adding a book, as JSON or form fields.
// CoverImage is base64 text, or a full data URI as returned by the list
// endpoint.
type NewBook struct {
	Title          string `json:"title" yaml:"title" form:"title"`
	Author         string `json:"author" yaml:"author" form:"author"`
	GradeLevel     string `json:"gradeLevel" yaml:"gradeLevel" form:"gradeLevel"`
	Subject        string `json:"subject" yaml:"subject" form:"subject"`
	Series         string `json:"series" yaml:"series" form:"series"`
	CoverImage     string `json:"coverImage" yaml:"coverImage" form:"coverImage"`
	CoverImageType string `json:"coverImageType" yaml:"coverImageType" form:"coverImageType"`
}

// ToBook validates the payload and converts it into a Book ready to be
// stored. Title and author are kept verbatim.
func (n NewBook) ToBook() (Book, error) {
	if strings.TrimSpace(n.Title) == "" {
		return Book{}, &ValidationError{Field: "title", Reason: "is required"}
	}
	if strings.TrimSpace(n.Author) == "" {
		return Book{}, &ValidationError{Field: "author", Reason: "is required"}
	}

	book := Book{
		Title:      n.Title,
		Author:     n.Author,
		GradeLevel: strings.TrimSpace(n.GradeLevel),
		Subject:    strings.TrimSpace(n.Subject),
		Series:     strings.TrimSpace(n.Series),
	}

	cover, coverType, err := decodeCover(strings.TrimSpace(n.CoverImage), strings.TrimSpace(n.CoverImageType))
	if err != nil {
		return Book{}, err
	}
	book.CoverImage = cover
	book.CoverImageType = coverType

	return book, nil
}

// decodeCover turns the optional cover fields into raw bytes plus MIME type.
// Both come back empty, or both set.
func decodeCover(encoded, mimeType string) ([]byte, string, error) {
	if encoded == "" {
		if mimeType != "" {
			return nil, "", &ValidationError{Field: "coverImageType", Reason: "provided without coverImage"}
		}
		return nil, "", nil
	}

	if rest, ok := strings.CutPrefix(encoded, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", &ValidationError{Field: "coverImage", Reason: "malformed data URI"}
		}
		uriType, encoding, _ := strings.Cut(header, ";")
		if encoding != "base64" {
			return nil, "", &ValidationError{Field: "coverImage", Reason: "data URI must be base64 encoded"}
		}
		if mimeType == "" {
			mimeType = uriType
		}
		encoded = payload
	}

	if mimeType == "" {
		return nil, "", &ValidationError{Field: "coverImageType", Reason: "is required when coverImage is set"}
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", &ValidationError{Field: "coverImageType", Reason: fmt.Sprintf("%q is not an image type", mimeType)}
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Unpadded input is common from browser clients
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, "", &ValidationError{Field: "coverImage", Reason: "is not valid base64"}
		}
	}
	if len(data) == 0 {
		return nil, "", &ValidationError{Field: "coverImage", Reason: "is empty"}
	}

	return data, mimeType, nil
}
