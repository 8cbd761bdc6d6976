// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package wizard

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names so the dashboard can
// highlight the matching input.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// submission is the validated shape of a create request.
type submission struct {
	Step         Step   `json:"step" validate:"oneof=main sub nested"`
	Name         string `json:"name" validate:"required,max=120"`
	Image        string `json:"image" validate:"required,max=2000"`
	InternalLink string `json:"internal_link" validate:"required_if=Step main,max=500"`
	ParentID     string `json:"parent_id" validate:"required_unless=Step main"`
}

// ValidationError is a user-displayable form error. No request is sent to
// the backend when validation fails.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Normalize trims whitespace from the text fields.
func (f Form) Normalize() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Image = strings.TrimSpace(f.Image)
	f.InternalLink = strings.TrimSpace(f.InternalLink)
	f.ParentID = strings.TrimSpace(f.ParentID)
	return f
}

// Validate checks the form for the given step and returns the first error
// found as a *ValidationError.
func Validate(f Form, step Step) error {
	f = f.Normalize()
	sub := submission{
		Step:         step,
		Name:         f.Name,
		Image:        f.Image,
		InternalLink: f.InternalLink,
		ParentID:     f.ParentID,
	}
	err := validate.Struct(sub)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: "Invalid category form."}
	}
	fe := verrs[0]
	return &ValidationError{Field: fe.Field(), Message: message(fe)}
}

// Validate checks the wizard's own form against its current step.
func (s State) Validate() error {
	return Validate(s.Form, s.Step)
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case "name":
		if fe.Tag() == "max" {
			return "Category name is too long (max 120 characters)."
		}
		return "Category name is required."
	case "image":
		if fe.Tag() == "max" {
			return "Image reference is too long."
		}
		return "Category image is required."
	case "internal_link":
		if fe.Tag() == "max" {
			return "Internal link is too long (max 500 characters)."
		}
		return "Internal link is required for main categories."
	case "parent_id":
		return "Please select a parent category."
	case "step":
		return "Unknown wizard step."
	default:
		return "Invalid category form."
	}
}

// ValidateUpdate checks an edit form for a category at the given level.
// Edits follow the same rules as creation at that level.
func ValidateUpdate(f Form, level int) error {
	return Validate(f, StepForLevel(level))
}
