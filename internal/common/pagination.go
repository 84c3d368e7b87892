// File: internal/common/pagination.go
package common

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PaginationQuery carries the page window of a list request. Domain
// list DTOs embed it so gin binds it from the query string alongside
// their own filters.
type PaginationQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// GetPaginationParams reads page/page_size from the query string.
// Missing, malformed or non-positive values fall back to the defaults;
// page_size is capped at MaxPageSize.
func GetPaginationParams(c *gin.Context) (page, pageSize int) {
	page = positiveQueryInt(c, "page", DefaultPage)
	pageSize = positiveQueryInt(c, "page_size", DefaultPageSize)
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func positiveQueryInt(c *gin.Context, key string, fallback int) int {
	raw, ok := c.GetQuery(key)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// Limit clamps the page size into [1, MaxPageSize], mutating the query
// so later calls agree with the value actually used.
func (pq *PaginationQuery) Limit() int {
	if pq.PageSize <= 0 {
		pq.PageSize = DefaultPageSize
	}
	if pq.PageSize > MaxPageSize {
		pq.PageSize = MaxPageSize
	}
	return pq.PageSize
}

// Offset converts the 1-based page into the row offset.
func (pq *PaginationQuery) Offset() int {
	if pq.Page <= 0 {
		pq.Page = DefaultPage
	}
	return (pq.Page - 1) * pq.Limit()
}
