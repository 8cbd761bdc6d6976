// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging validates category images before they are uploaded and
// downsizes oversized raster images so the storefront never serves
// multi-megapixel originals in category cards.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	"image/png"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxUploadSize is the maximum accepted image size (10 MB).
	MaxUploadSize = 10 << 20

	// DefaultMaxWidth is the width above which images are downscaled.
	DefaultMaxWidth = 1600

	// jpegQuality is used when re-encoding downscaled JPEG and WebP images.
	jpegQuality = 85

	// maxImagePixels caps decoded dimensions to prevent memory bombs.
	maxImagePixels = 100_000_000
)

var (
	// ErrTooLarge is returned for files above MaxUploadSize.
	ErrTooLarge = errors.New("imaging: file too large")

	// ErrUnsupportedType is returned for anything that is not an allowed image.
	ErrUnsupportedType = errors.New("imaging: unsupported file type")

	// ErrEmpty is returned for zero-byte uploads.
	ErrEmpty = errors.New("imaging: empty file")
)

// allowedTypes defines MIME types accepted as category images.
var allowedTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// resizableTypes can be decoded and re-encoded. GIF is excluded to keep
// animation; SVG is vector.
var resizableTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Image is an upload-ready category image.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
	Width       int
	Height      int
	Resized     bool
}

// Prepare sniffs the content type of data, rejects unsupported or oversized
// files and downscales raster images wider than maxWidth (0 = DefaultMaxWidth).
func Prepare(filename string, data []byte, maxWidth int) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}

	contentType := DetectType(filename, data)
	if !allowedTypes[contentType] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	img := &Image{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
	}
	if contentType == "image/svg+xml" {
		return img, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode config: %v", ErrUnsupportedType, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, maxImagePixels)
	}
	img.Width, img.Height = cfg.Width, cfg.Height

	if !resizableTypes[contentType] || cfg.Width <= maxWidth {
		return img, nil
	}

	resized, err := downscale(data, contentType, maxWidth)
	if err != nil {
		return nil, err
	}
	resized.Filename = renameExt(filename, resized.ContentType)
	return resized, nil
}

// DetectType returns the MIME type of data, recognising SVG by extension
// since http.DetectContentType reports it as XML or text.
func DetectType(filename string, data []byte) string {
	contentType := http.DetectContentType(data)
	if strings.HasSuffix(strings.ToLower(filename), ".svg") &&
		(strings.Contains(contentType, "xml") || strings.Contains(contentType, "text/plain")) {
		return "image/svg+xml"
	}
	if i := strings.IndexByte(contentType, ';'); i != -1 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return contentType
}

// downscale resizes to maxWidth preserving aspect ratio. PNG stays PNG to
// keep transparency; JPEG and WebP are encoded as JPEG.
func downscale(data []byte, contentType string, maxWidth int) (*Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	bounds := src.Bounds()
	ratio := float64(maxWidth) / float64(bounds.Dx())
	newHeight := int(float64(bounds.Dy()) * ratio)
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	outType := "image/jpeg"
	if contentType == "image/png" {
		outType = "image/png"
		err = png.Encode(&buf, dst)
	} else {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("imaging: encode: %w", err)
	}

	return &Image{
		ContentType: outType,
		Data:        buf.Bytes(),
		Width:       maxWidth,
		Height:      newHeight,
		Resized:     true,
	}, nil
}

// renameExt swaps the file extension to match the content type.
func renameExt(filename, contentType string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	if base == "" {
		base = "image"
	}
	return base + ExtensionFromType(contentType)
}

// ExtensionFromType returns a file extension for known image MIME types.
func ExtensionFromType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	default:
		return ""
	}
}
