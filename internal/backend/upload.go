package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// uploadField is the multipart field the backend reads the file from.
const uploadField = "image"

type uploadData struct {
	URL string `json:"url"`
}

// UploadImage sends a category image to the backend's upload endpoint and
// returns the stable URL to attach to a create or update payload.
func (c *Client) UploadImage(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, uploadField, escapeQuotes(filename)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("backend upload part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("backend upload write: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("backend upload close: %w", err)
	}

	var env envelope[uploadData]
	err = c.do(ctx, request{
		op:          "upload_image",
		method:      http.MethodPost,
		path:        "/api/v1/upload/category",
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, &env)
	if err != nil {
		return "", err
	}
	if err := env.check("upload_image", http.StatusOK); err != nil {
		return "", err
	}
	if strings.TrimSpace(env.Data.URL) == "" {
		return "", fmt.Errorf("%w: upload_image: missing url", ErrMalformedResponse)
	}
	return env.Data.URL, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
