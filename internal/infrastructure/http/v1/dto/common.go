// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"invoicer/internal/domain"
)

// --- Pagination ---

// ListQuery contains search and pagination parameters.
type ListQuery struct {
	Search string `form:"search"`
	Limit  int    `form:"limit" binding:"omitempty,min=1"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts to the domain filter.
func (q ListQuery) ToFilter() domain.ListFilter {
	return domain.ListFilter{Search: q.Search, Limit: q.Limit, Offset: q.Offset}.Normalize()
}

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// MapList converts a domain list result.
func MapList[S, T any](r domain.ListResult[S], fn func(S) T) ListResponse[T] {
	items := make([]T, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, fn(it))
	}
	return ListResponse[T]{Items: items, TotalCount: r.TotalCount, Limit: r.Limit, Offset: r.Offset}
}

// --- Error Response ---

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
