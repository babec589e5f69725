package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs one line per request. Scrape and health endpoints are
// skipped to keep the log readable.
func RequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.URL.Path == "/metrics" || req.URL.Path == "/health" {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			log.Printf("%s %s %d %s %s",
				req.Method,
				req.URL.Path,
				c.Response().Status,
				time.Since(start),
				req.RemoteAddr,
			)
			return err
		}
	}
}
