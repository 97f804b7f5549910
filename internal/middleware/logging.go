package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// Logging writes one key=value line per request. Widget traffic is
// high-volume and embedded on third-party pages, so the line carries the
// response size to spot contract regressions from the logs.
func Logging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			log.Printf("request_id=%s method=%s path=%s status=%d bytes=%d latency=%s",
				RequestIDFromContext(c), req.Method, req.URL.Path, res.Status, res.Size, time.Since(start))

			return err
		}
	}
}
