// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package wizard implements the three-step category creation flow:
// main category, then subcategory, then nested subcategory. Each successful
// creation moves the wizard one step deeper with the new category as the
// selected parent; the nested step is the last one.
package wizard

import (
	"errors"

	"shopdesk/internal/models"
)

// Step is the wizard position. It also decides the level of the category
// being created.
type Step string

const (
	StepMain   Step = "main"
	StepSub    Step = "sub"
	StepNested Step = "nested"
)

// ErrMaxDepth is returned when a child is requested below the deepest level.
var ErrMaxDepth = errors.New("wizard: categories cannot be nested deeper than three levels")

// ErrWrongParentLevel is returned when a parent does not fit the current step.
var ErrWrongParentLevel = errors.New("wizard: parent does not match the current step")

// Level returns the category level created at this step.
func (s Step) Level() int {
	switch s {
	case StepSub:
		return models.LevelSub
	case StepNested:
		return models.LevelNested
	default:
		return models.LevelMain
	}
}

// StepForLevel maps a category level to the step that creates it.
func StepForLevel(level int) Step {
	switch level {
	case models.LevelSub:
		return StepSub
	case models.LevelNested:
		return StepNested
	default:
		return StepMain
	}
}

// Form holds the creation form fields.
type Form struct {
	Name         string `json:"name"`
	Image        string `json:"image"`
	InternalLink string `json:"internal_link"`
	ParentID     string `json:"parent_id"`
	IsActive     bool   `json:"is_active"`
}

// State is the full wizard state. The zero value is a closed wizard at the
// main step.
type State struct {
	Open           bool             `json:"open"`
	Step           Step             `json:"step"`
	SelectedParent *models.Category `json:"selected_parent"`
	Form           Form             `json:"form"`
}

// New returns a closed wizard.
func New() State {
	return State{Step: StepMain, Form: Form{IsActive: true}}
}

// Open opens the dialog at the main step with an empty form.
func (s State) Open() State {
	n := New()
	n.Open = true
	return n
}

// EnterAt opens the wizard directly below parent ("Add Sub" on an existing
// category), skipping the main step.
func (s State) EnterAt(parent models.Category) (State, error) {
	if !parent.CanHaveChildren() {
		return s, ErrMaxDepth
	}
	n := New()
	n.Open = true
	n.Step = StepForLevel(parent.Level + 1)
	n.setParent(parent)
	return n, nil
}

// SelectParent picks the parent for the current step, e.g. after Back
// cleared it. The parent must sit one level above the step.
func (s State) SelectParent(parent models.Category) (State, error) {
	if s.Step == StepMain || parent.Level != s.Step.Level()-1 {
		return s, ErrWrongParentLevel
	}
	s.setParent(parent)
	return s, nil
}

// Advance applies a successful creation. The created category becomes the
// parent of the next step; after the nested step the wizard closes.
func (s State) Advance(created models.Category) State {
	switch s.Step {
	case StepMain, StepSub:
		n := New()
		n.Open = true
		n.Step = StepForLevel(s.Step.Level() + 1)
		n.Form.IsActive = s.Form.IsActive
		n.setParent(created)
		return n
	default:
		return New()
	}
}

// Back moves to the previous step and clears the selected parent.
func (s State) Back() State {
	switch s.Step {
	case StepNested:
		s.Step = StepSub
	case StepSub:
		s.Step = StepMain
	}
	s.SelectedParent = nil
	s.Form.ParentID = ""
	return s
}

// Cancel closes the dialog and resets to the main step.
func (s State) Cancel() State {
	return New()
}

// Level returns the level of the category the wizard will create next.
func (s State) Level() int {
	return s.Step.Level()
}

// setParent stores a children-free copy of parent and syncs the form.
func (s *State) setParent(parent models.Category) {
	p := parent
	p.Children = nil
	s.SelectedParent = &p
	s.Form.ParentID = p.ID
}
