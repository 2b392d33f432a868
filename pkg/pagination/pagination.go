package pagination

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

const MaxLimit = 500

// Params holds optional pagination parameters extracted from a request.
// A zero Limit means no page cap: the full result set is returned.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts limit/offset from the request query string. Absent or
// malformed values fall back to the unlimited default.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 0 {
		limit = 0
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// SQL returns the LIMIT/OFFSET clause, or an empty string when unbounded.
func (p Params) SQL() string {
	if p.Limit <= 0 && p.Offset <= 0 {
		return ""
	}
	if p.Limit <= 0 {
		return fmt.Sprintf("OFFSET %d", p.Offset)
	}
	return fmt.Sprintf("LIMIT %d OFFSET %d", p.Limit, p.Offset)
}
