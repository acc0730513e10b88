package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/iris/pkg/context"
)

const (
	// HeaderUserID identifies the operator when authentication is disabled
	HeaderUserID = "X-User-ID"
	// HeaderSource names the calling system, such as the telegram bot
	HeaderSource = "X-Request-Source"
)

// Context attaches the request descriptor and echoes the request id back to the caller
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			source := req.Header.Get(HeaderSource)
			if source == "" {
				source = context.SourceHTTP
			}
			ctx := context.WithRequest(req.Context(), context.Request{
				ID:       requestID,
				Source:   source,
				UserID:   req.Header.Get(HeaderUserID),
				Method:   req.Method,
				Route:    c.Path(),
				RemoteIP: c.RealIP(),
			})

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
