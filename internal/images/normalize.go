package images

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// MaxDimension bounds both the width and the height of a normalized image
	MaxDimension = 800
	// JPEGQuality is the encoder quality used for normalized output
	JPEGQuality = 80
	// OutputMIMEType is the type of every normalized image
	OutputMIMEType = "image/jpeg"
	// MaxInputPixels caps width*height of an upload before it is decoded
	MaxInputPixels = 0x3FFF * 0x3FFF
)

// DecodeError means the uploaded bytes are not a decodable image.
// It is a client error, unlike failures further down the pipeline.
type DecodeError struct {
	MIMEType string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s image: %v", e.MIMEType, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Result is a normalized image
type Result struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

// IsImageType reports whether mimeType declares an image
func IsImageType(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/")
}

// Normalize decodes data, shrinks it to fit within MaxDimension x MaxDimension
// keeping the aspect ratio, and re-encodes it as JPEG. Images already inside
// the box are never enlarged. EXIF orientation is applied before resizing.
// Images above MaxInputPixels are rejected without being decoded.
func Normalize(data []byte, mimeType string) (*Result, error) {
	// Only the header is read here; the pixel buffer is sized from it
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{MIMEType: mimeType, Err: err}
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > MaxInputPixels {
		return nil, &DecodeError{
			MIMEType: mimeType,
			Err:      fmt.Errorf("%dx%d image exceeds the %d pixel limit", cfg.Width, cfg.Height, MaxInputPixels),
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{MIMEType: mimeType, Err: err}
	}

	src := img.Bounds()
	img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	out := img.Bounds()
	slog.Debug("Image normalized",
		"source_type", mimeType,
		"source_width", src.Dx(),
		"source_height", src.Dy(),
		"width", out.Dx(),
		"height", out.Dy(),
		"source_bytes", len(data),
		"bytes", buf.Len())

	return &Result{
		Data:     buf.Bytes(),
		MIMEType: OutputMIMEType,
		Width:    out.Dx(),
		Height:   out.Dy(),
	}, nil
}
