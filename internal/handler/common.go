package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindingErrors flattens gin binding failures into field-level
// messages for the response envelope.
func bindingErrors(err error) []util.FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]util.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, util.FieldError{
				Field:   fe.Field(),
				Message: "failed on the '" + fe.Tag() + "' rule",
			})
		}
		return out
	}
	return []util.FieldError{{Field: "body", Message: "Malformed request body"}}
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n <= 0 {
		return 0, false
	}
	return uint(n), true
}

// dateQuery parses an optional RFC 3339 or YYYY-MM-DD query parameter.
func dateQuery(c *gin.Context, name string) (*time.Time, *util.FieldError) {
	s := c.Query(name)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, &util.FieldError{Field: name, Message: "Must be a valid ISO 8601 date"}
}

// dayBounds returns [00:00:00, 23:59:59.999…] of t's calendar day.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}
