package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"loancrm/internal/logging"
)

// RequestLogger assigns a request id (honouring an incoming X-Request-Id),
// stores it in the request context so usecase logs carry it, and writes one
// structured line per request.
func RequestLogger(log logging.Logger) []echo.MiddlewareFunc {
	if log == nil {
		log = logging.NewNop()
	}
	return []echo.MiddlewareFunc{
		echomw.RequestIDWithConfig(echomw.RequestIDConfig{
			RequestIDHandler: func(c echo.Context, rid string) {
				req := c.Request()
				c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), rid)))
			},
		}),
		echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
			LogMethod:   true,
			LogURI:      true,
			LogStatus:   true,
			LogLatency:  true,
			LogError:    true,
			HandleError: true,
			LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
				args := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency_ms", v.Latency.Milliseconds()}
				if uid, ok := UserID(c); ok {
					args = append(args, "user_id", uid)
				}
				ctx := c.Request().Context()
				switch {
				case v.Error != nil:
					log.Error(ctx, "request failed", append(args, "error", v.Error)...)
				case v.Status >= 500:
					log.Error(ctx, "request", args...)
				default:
					log.Info(ctx, "request", args...)
				}
				return nil
			},
		}),
	}
}
