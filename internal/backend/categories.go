package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"shopdesk/internal/models"
)

// --- Wire types ---

// envelope is the common response wrapper: {success, data, error|message}.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// check validates the envelope of a 2xx response.
func (e *envelope[T]) check(op string, status int) error {
	if !e.Success {
		msg := e.Error
		if msg == "" {
			msg = e.Message
		}
		if msg == "" {
			return fmt.Errorf("%w: %s: success=false", ErrMalformedResponse, op)
		}
		return &APIError{Status: status, Message: msg}
	}
	if e.Data == nil {
		return fmt.Errorf("%w: %s: missing data", ErrMalformedResponse, op)
	}
	return nil
}

type wireCount struct {
	Products int `json:"products"`
}

type wireCategory struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Image        string         `json:"image"`
	InternalLink *string        `json:"internalLink"`
	IsActive     *bool          `json:"isActive"`
	ParentID     *string        `json:"parentId"`
	Children     []wireCategory `json:"children"`
	Count        wireCount      `json:"_count"`
}

type listData struct {
	Categories []wireCategory `json:"categories"`
}

type categoryData struct {
	Category *wireCategory `json:"category"`
}

// toModel converts a wire category (and its nested children) to a model.
// Levels are assigned later by tree.Build.
func (w wireCategory) toModel() models.Category {
	c := models.Category{
		ID:           w.ID,
		Name:         w.Name,
		Image:        w.Image,
		IsActive:     true,
		ParentID:     w.ParentID,
		ProductCount: w.Count.Products,
		Children:     make([]models.Category, 0, len(w.Children)),
	}
	if w.InternalLink != nil {
		c.InternalLink = *w.InternalLink
	}
	if w.IsActive != nil {
		c.IsActive = *w.IsActive
	}
	for _, child := range w.Children {
		c.Children = append(c.Children, child.toModel())
	}
	return c
}

// CreateInput is the body of POST /api/v1/categories.
type CreateInput struct {
	Name         string  `json:"name"`
	Image        string  `json:"image"`
	InternalLink string  `json:"internalLink"`
	ParentID     *string `json:"parentId"`
}

// UpdateInput is the body of PUT /api/v1/categories/{id}.
type UpdateInput struct {
	Name         string  `json:"name"`
	Image        string  `json:"image"`
	InternalLink string  `json:"internalLink"`
	IsActive     bool    `json:"isActive"`
	ParentID     *string `json:"parentId"`
}

// --- Operations ---

// FetchCategories returns the full category listing. Nested children are
// included as returned by the backend.
func (c *Client) FetchCategories(ctx context.Context) ([]models.Category, error) {
	var env envelope[listData]
	err := c.do(ctx, request{
		op:     "fetch_categories",
		method: http.MethodGet,
		path:   "/api/v1/categories",
	}, &env)
	if err != nil {
		return nil, err
	}
	if err := env.check("fetch_categories", http.StatusOK); err != nil {
		return nil, err
	}

	out := make([]models.Category, 0, len(env.Data.Categories))
	for _, w := range env.Data.Categories {
		if w.ID == "" {
			return nil, fmt.Errorf("%w: fetch_categories: category without id", ErrMalformedResponse)
		}
		out = append(out, w.toModel())
	}
	return out, nil
}

// CreateCategory creates a category and returns it as confirmed by the backend.
func (c *Client) CreateCategory(ctx context.Context, in CreateInput) (models.Category, error) {
	return c.writeCategory(ctx, "create_category", http.MethodPost, "/api/v1/categories", in)
}

// UpdateCategory updates a category and returns the backend's version of it.
// The response does not carry children.
func (c *Client) UpdateCategory(ctx context.Context, id string, in UpdateInput) (models.Category, error) {
	return c.writeCategory(ctx, "update_category", http.MethodPut, "/api/v1/categories/"+url.PathEscape(id), in)
}

func (c *Client) writeCategory(ctx context.Context, op, method, path string, in any) (models.Category, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return models.Category{}, fmt.Errorf("backend %s marshal: %w", op, err)
	}

	var env envelope[categoryData]
	err = c.do(ctx, request{
		op:          op,
		method:      method,
		path:        path,
		body:        bytes.NewReader(payload),
		contentType: "application/json",
	}, &env)
	if err != nil {
		return models.Category{}, err
	}
	if err := env.check(op, http.StatusOK); err != nil {
		return models.Category{}, err
	}
	if env.Data.Category == nil || env.Data.Category.ID == "" {
		return models.Category{}, fmt.Errorf("%w: %s: missing category", ErrMalformedResponse, op)
	}
	return env.Data.Category.toModel(), nil
}

// deleteResponse is the body of a successful delete. Data is optional.
type deleteResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// DeleteCategory deletes a category. A category that still has products is
// reported as an *APIError matching ErrHasProducts. An empty 2xx body
// counts as success.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	resp := deleteResponse{Success: true}
	err := c.do(ctx, request{
		op:     "delete_category",
		method: http.MethodDelete,
		path:   "/api/v1/categories/" + url.PathEscape(id),
	}, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		if msg == "" {
			return fmt.Errorf("%w: delete_category: success=false", ErrMalformedResponse)
		}
		return &APIError{Status: http.StatusOK, Message: msg}
	}
	return nil
}
