package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDHeader = "X-Request-ID"

// requestIDFrom reads the id assigned by RequestID; empty when the
// middleware did not run.
func requestIDFrom(c echo.Context) string {
	rid, _ := c.Get("request_id").(string)
	return rid
}

// RequestID assigns each request a UUID unless the client supplied one,
// stores it on the echo context and echoes it back in the response header.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(requestIDHeader)
			if rid == "" {
				rid = uuid.New().String()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set(requestIDHeader, rid)
			return next(c)
		}
	}
}
