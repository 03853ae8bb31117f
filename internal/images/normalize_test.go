package images

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeBoundsAndAspect(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"landscape shrinks to width", 1600, 1200, 800, 600},
		{"portrait shrinks to height", 500, 2000, 200, 800},
		{"square shrinks", 1000, 1000, 800, 800},
		{"small image is not enlarged", 300, 200, 300, 200},
		{"exact bound unchanged", 800, 800, 800, 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Normalize(encodePNG(t, tt.width, tt.height), "image/png")
			require.NoError(t, err)

			assert.Equal(t, OutputMIMEType, result.MIMEType)
			assert.Equal(t, tt.wantW, result.Width)
			assert.Equal(t, tt.wantH, result.Height)

			cfg, format, err := image.DecodeConfig(bytes.NewReader(result.Data))
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
			assert.Equal(t, tt.wantW, cfg.Width)
			assert.Equal(t, tt.wantH, cfg.Height)
			assert.LessOrEqual(t, cfg.Width, MaxDimension)
			assert.LessOrEqual(t, cfg.Height, MaxDimension)
		})
	}
}

func TestNormalizeRejectsCorruptData(t *testing.T) {
	inputs := map[string][]byte{
		"text":          []byte("this is definitely not an image"),
		"empty":         {},
		"truncated png": encodePNG(t, 40, 40)[:30],
	}

	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(data, "image/png")
			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr), "expected DecodeError, got %v", err)
			assert.Equal(t, "image/png", decodeErr.MIMEType)
		})
	}
}

// pngHeader returns a PNG signature and IHDR chunk declaring a width x height
// grayscale image. That is all DecodeConfig reads.
func pngHeader(width, height uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth, color type 0 (gray)

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestNormalizeRejectsOversizedDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height uint32
	}{
		{"square over limit", 20000, 20000},
		{"long strip", 1 << 30, 1},
		{"just over limit", 0x3FFF, 0x3FFF + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(pngHeader(tt.width, tt.height), "image/png")
			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr), "expected DecodeError, got %v", err)
			assert.Contains(t, decodeErr.Error(), "pixel limit")
		})
	}
}

func TestIsImageType(t *testing.T) {
	assert.True(t, IsImageType("image/jpeg"))
	assert.True(t, IsImageType("Image/PNG"))
	assert.False(t, IsImageType("application/pdf"))
	assert.False(t, IsImageType(""))
}
