package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"shopdesk/internal/imaging"
)

// ErrNoUploader is returned when no image uploader is configured.
var ErrNoUploader = errors.New("catalog: image uploads are not configured")

// UploadResult describes a stored category image.
type UploadResult struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Resized     bool   `json:"resized"`
}

// UploadImage validates and, if needed, downsizes an image, then stores it
// and returns the URL to put in a create or update form.
func (m *Manager) UploadImage(ctx context.Context, filename string, data []byte) (*UploadResult, error) {
	if m.uploader == nil {
		return nil, ErrNoUploader
	}

	img, err := imaging.Prepare(filename, data, m.maxWidth)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	done, err := m.begin("upload:" + hex.EncodeToString(sum[:8]))
	if err != nil {
		return nil, err
	}
	defer done()

	url, err := m.uploader.UploadImage(ctx, img.Filename, img.ContentType, img.Data)
	if err != nil {
		slog.Warn("category image upload failed", "filename", filename, "error", err)
		return nil, fmt.Errorf("upload image: %w", err)
	}

	slog.Info("category image uploaded", "filename", img.Filename, "size", len(img.Data), "resized", img.Resized)
	return &UploadResult{
		URL:         url,
		ContentType: img.ContentType,
		Width:       img.Width,
		Height:      img.Height,
		Resized:     img.Resized,
	}, nil
}
