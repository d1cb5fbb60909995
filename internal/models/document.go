package models

import (
	"github.com/go-playground/validator/v10"
)

const (
	// DocumentTypeStrategic identifies a strategic plan document
	DocumentTypeStrategic = "strategic"
	// DocumentTypeAction identifies an action plan document
	DocumentTypeAction = "action"
)

// StructuredDocument is the normalized form of a planning document as
// produced by the document processor. Immutable once produced: the
// synchronization engine only reads it.
type StructuredDocument struct {
	ID             string    `json:"id"`
	Title          string    `json:"title" validate:"required"`
	Organization   string    `json:"organization"`
	PlanningPeriod string    `json:"planning_period"`
	TotalBudget    string    `json:"total_budget,omitempty"`
	DocumentType   string    `json:"document_type" validate:"required,oneof=strategic action"`
	Sections       []Section `json:"sections" validate:"required,min=1,dive"`
}

// Section groups objectives (strategic documents) or action items
// (action documents) under one heading.
type Section struct {
	ID         string       `json:"id"`
	Title      string       `json:"title" validate:"required"`
	Content    string       `json:"content,omitempty"`
	Objectives []Objective  `json:"objectives,omitempty" validate:"dive"`
	Actions    []ActionItem `json:"actions,omitempty" validate:"dive"`
}

// Objective is a strategic goal statement within the strategic document
type Objective struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
}

// ActionItem is an operational task statement within the action document
type ActionItem struct {
	ID          string `json:"id"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
}

var documentValidator = validator.New()

// Validate checks the document schema. Malformed documents are rejected
// here, on load, rather than failing deep in the pipeline.
func (d *StructuredDocument) Validate() error {
	return documentValidator.Struct(d)
}

// AllObjectives returns all objectives across sections in document order
func (d *StructuredDocument) AllObjectives() []Objective {
	var objectives []Objective
	for _, section := range d.Sections {
		objectives = append(objectives, section.Objectives...)
	}
	return objectives
}

// AllActions returns all action items across sections in document order
func (d *StructuredDocument) AllActions() []ActionItem {
	var actions []ActionItem
	for _, section := range d.Sections {
		actions = append(actions, section.Actions...)
	}
	return actions
}

// Text returns the comparable text of an objective: the title plus
// description when present.
func (o Objective) Text() string {
	if o.Description == "" {
		return o.Title
	}
	return o.Title + ". " + o.Description
}

// Text returns the comparable text of an action item
func (a ActionItem) Text() string {
	if a.Description == "" {
		return a.Title
	}
	return a.Title + ". " + a.Description
}
