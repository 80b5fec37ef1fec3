package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/questboard-api/internal/constants"
)

// PaginationParams is a clamped page window. Offset is derived from Page and Limit.
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginationResponse is the pagination block of list responses
type PaginationResponse struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

type pageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// NewPaginationParams clamps page to >= 1 and resets an out of range limit to the default.
func NewPaginationParams(page, limit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	if limit < constants.MinPageSize || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}
	return PaginationParams{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// GetPaginationParams reads ?page= and ?limit=. Malformed values fall back to the defaults.
func GetPaginationParams(c *gin.Context) PaginationParams {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		q = pageQuery{}
	}
	return NewPaginationParams(q.Page, q.Limit)
}

// Response describes this window against the total row count.
func (p PaginationParams) Response(total int64) PaginationResponse {
	return PaginationResponse{
		Page:    p.Page,
		Limit:   p.Limit,
		Total:   total,
		HasMore: int64(p.Offset+p.Limit) < total,
	}
}
