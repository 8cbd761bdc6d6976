package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrHasProducts matches backend errors caused by deleting a category that
// still has products assigned.
var ErrHasProducts = errors.New("backend: category has existing products")

// hasProductsMarker is the substring the backend uses for that failure.
const hasProductsMarker = "existing products"

// Friendly messages shown instead of raw backend errors.
const (
	MsgHasProducts = "This category has existing products. Reassign or remove those products before deleting the category."
	MsgMalformed   = "The server returned an unexpected response. Please try again."
	MsgTimeout     = "The server took too long to respond. Please try again."
	MsgGeneric     = "Something went wrong. Please try again."
)

// APIError is a non-2xx (or success=false) response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrHasProducts) match on the message text.
func (e *APIError) Is(target error) bool {
	return target == ErrHasProducts &&
		strings.Contains(strings.ToLower(e.Message), hasProductsMarker)
}

// errorBody is the error shape returned by the backend.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// parseAPIError builds an APIError from a failed response. The body's
// "error" or "message" field is used when present, otherwise
// "HTTP <status>: <status text>".
func parseAPIError(status int, body []byte) *APIError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if msg := strings.TrimSpace(eb.Error); msg != "" {
			return &APIError{Status: status, Message: msg}
		}
		if msg := strings.TrimSpace(eb.Message); msg != "" {
			return &APIError{Status: status, Message: msg}
		}
	}
	return &APIError{
		Status:  status,
		Message: fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)),
	}
}

// UserMessage converts an error from this package into text suitable for
// a transient notification in the dashboard.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrHasProducts) {
		return MsgHasProducts
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, ErrMalformedResponse) {
		return MsgMalformed
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return MsgTimeout
	}
	return MsgGeneric
}
