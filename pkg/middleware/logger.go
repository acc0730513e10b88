package middleware

import (
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/iris/pkg/context"
	"github.com/Ramsey-B/iris/pkg/metrics"
)

// Logger logs every request and records its HTTP metrics. Errors are rendered first so
// the logged status is the one the client sees.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()
			res := c.Response()
			start := time.Now()
			if err = next(c); err != nil {
				c.Error(err)
			}

			stop := time.Now()
			ctx := c.Request().Context()

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.RecordHTTPRequest(req.Method, route, strconv.Itoa(res.Status), stop.Sub(start).Seconds())

			info := context.RequestFrom(ctx)
			logger.WithContext(ctx).WithFields(map[string]any{
				"request_id":    info.ID,
				"method":        req.Method,
				"uri":           req.RequestURI,
				"status":        res.Status,
				"route":         route,
				"remote_ip":     info.RemoteIP,
				"source":        info.Source,
				"user_id":       info.UserID,
				"user_agent":    req.UserAgent(),
				"response_time": stop.Sub(start),
				"request_size":  req.Header.Get(echo.HeaderContentLength),
				"response_size": strconv.FormatInt(res.Size, 10),
			}).Info("Request")

			return nil
		}
	}
}
