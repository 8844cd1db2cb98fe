// api/models/studio_models.go
package models

import (
	"github.com/Annany2002/nebula-studio/internal/core"
)

// --- Widget Request Structs ---

// CreateWidgetRequest places a component on a page.
type CreateWidgetRequest struct {
	Type      string         `json:"type" binding:"required,max=64"`
	Config    map[string]any `json:"config"`
	SortOrder *int           `json:"sort_order" binding:"omitempty,gte=0"`
}

// UpdateWidgetRequest is a partial widget update; a non-nil Config replaces the stored one.
type UpdateWidgetRequest struct {
	Type      *string        `json:"type" binding:"omitempty,min=1,max=64"`
	Config    map[string]any `json:"config"`
	SortOrder *int           `json:"sort_order" binding:"omitempty,gte=0"`
}

// RenderRequest is an unsaved widget instance rendered on the fly.
type RenderRequest struct {
	Type   string         `json:"type" binding:"required,max=64"`
	Config map[string]any `json:"config"`
}

// --- Response Structs ---

// ListResponse is one page of a listing.
type ListResponse struct {
	Data    any `json:"data"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error    string              `json:"error"`
	Failures []core.FieldFailure `json:"failures,omitempty"`
}
