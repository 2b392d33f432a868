package middleware

import (
	"github.com/labstack/echo/v4"
)

// NoStore stamps every response with headers that forbid caching. Prescription
// data is sensitive medical information and must never be retained by an
// intermediate cache or the browser history.
func NoStore() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
			return next(c)
		}
	}
}
