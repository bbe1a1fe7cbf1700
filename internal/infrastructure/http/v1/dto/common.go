// Package dto provides Data Transfer Objects for API requests/responses.
package dto

// ListResponse wraps a list result. TotalCount is the number of matching
// rows before paging.
type ListResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
}

// NewListResponse wraps an unpaged result. It never renders a null items array.
func NewListResponse[T any](items []T) ListResponse[T] {
	return NewPageResponse(items, len(items))
}

// NewPageResponse wraps one page of a result with its unpaged total.
func NewPageResponse[T any](items []T, total int) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, TotalCount: total}
}

// PageRequest holds limit/offset query parameters.
type PageRequest struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}
