// internal/core/query_params.go
package core

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Default and limit constants for pagination
const (
	DefaultPerPage = 25
	MaxPerPage     = 200
	DefaultOrder   = "desc"
)

// Sortable record envelope columns.
var sortableColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"id":         true,
}

// ListQueryOptions holds parsed query parameters for listing records.
type ListQueryOptions struct {
	// Pagination
	Page    int
	PerPage int

	// Sorting
	SortBy    string
	SortOrder string // "asc" or "desc"

	// Filtering
	CreatedBy string
	Equals    map[string]string // filter[field]=value
	Contains  map[string]string // contains[field]=value
}

// Limit and Offset translate the page window into store terms.
func (o *ListQueryOptions) Limit() int  { return o.PerPage }
func (o *ListQueryOptions) Offset() int { return (o.Page - 1) * o.PerPage }

// ParseListQueryOptions extracts pagination, sorting and filter options from query parameters.
// Returns the parsed options and any validation error.
func ParseListQueryOptions(queryParams url.Values) (*ListQueryOptions, error) {
	opts := &ListQueryOptions{
		Page:      1,
		PerPage:   DefaultPerPage,
		SortBy:    "created_at",
		SortOrder: DefaultOrder,
		Equals:    map[string]string{},
		Contains:  map[string]string{},
	}

	// Parse page
	if pageStr := queryParams.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return nil, fmt.Errorf("invalid 'page' parameter: must be a positive integer")
		}
		opts.Page = page
	}

	// Parse perPage
	if perPageStr := queryParams.Get("perPage"); perPageStr != "" {
		perPage, err := strconv.Atoi(perPageStr)
		if err != nil {
			return nil, fmt.Errorf("invalid 'perPage' parameter: must be an integer")
		}
		if perPage < 1 {
			return nil, fmt.Errorf("invalid 'perPage' parameter: must be at least 1")
		}
		if perPage > MaxPerPage {
			return nil, fmt.Errorf("invalid 'perPage' parameter: maximum is %d", MaxPerPage)
		}
		opts.PerPage = perPage
	}

	// Parse sort column
	if sortBy := queryParams.Get("sort"); sortBy != "" {
		if !sortableColumns[sortBy] {
			return nil, fmt.Errorf("invalid 'sort' parameter: '%s' is not sortable", sortBy)
		}
		opts.SortBy = sortBy
	}

	// Parse sort order
	if order := queryParams.Get("order"); order != "" {
		lowerOrder := strings.ToLower(order)
		if lowerOrder != "asc" && lowerOrder != "desc" {
			return nil, fmt.Errorf("invalid 'order' parameter: must be 'asc' or 'desc'")
		}
		opts.SortOrder = lowerOrder
	}

	opts.CreatedBy = queryParams.Get("created_by")

	// Parse filter[field] / contains[field]
	for key, values := range queryParams {
		if len(values) == 0 {
			continue
		}
		var target map[string]string
		var name string
		switch {
		case strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]"):
			target, name = opts.Equals, key[len("filter["):len(key)-1]
		case strings.HasPrefix(key, "contains[") && strings.HasSuffix(key, "]"):
			target, name = opts.Contains, key[len("contains["):len(key)-1]
		default:
			continue
		}
		if !IsValidIdentifier(name) {
			return nil, fmt.Errorf("invalid filter key '%s': not a valid field name", name)
		}
		target[name] = values[0]
	}

	return opts, nil
}
