package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when the content string is empty or whitespace only.
	ErrEmptyContent = errors.New("qrcode.errors.empty_content")
	// ErrGenerateFailed is returned when the underlying encoder fails.
	ErrGenerateFailed = errors.New("qrcode.errors.generate_failed")
)

// defaultSize is the edge length in pixels used when no size is specified.
const defaultSize = 256

// Generate encodes content into a PNG QR code of the given size.
// A non-positive size falls back to the default. Medium error correction
// keeps the code scannable on phone screens without inflating the image.
func Generate(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = defaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrGenerateFailed, err)
	}
	return png, nil
}

// GenerateDataURI encodes content into a QR code and returns it as a
// base64 data URI suitable for an <img> src attribute.
func GenerateDataURI(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(png)), nil
}
