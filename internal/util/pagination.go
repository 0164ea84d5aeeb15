package util

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Pagination is the envelope fragment attached to every list response.
type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

// NewPagination computes hasMore from the page just served.
func NewPagination(total int64, limit, offset int) Pagination {
	return Pagination{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+limit) < total,
	}
}

// ParseLimitOffset reads limit/offset query params. Explicit values
// outside [1, maxLimit] / >= 0 are rejected with a field error, like
// the rest of the input validation; absent params fall back to the
// defaults.
func ParseLimitOffset(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int, ferr *FieldError) {
	limit = defaultLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxLimit {
			return 0, 0, &FieldError{
				Field:   "limit",
				Message: fmt.Sprintf("Limit must be between 1 and %d", maxLimit),
			}
		}
		limit = n
	}

	if s := c.Query("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, 0, &FieldError{
				Field:   "offset",
				Message: "Offset must be a non-negative number",
			}
		}
		offset = n
	}
	return limit, offset, nil
}
