package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"loancrm/internal/logging"
)

const (
	// provisionalLockTTL bounds how long a crashed request can hold its key.
	provisionalLockTTL = 60 * time.Second
	maxClockSkew       = 10 * time.Minute
)

type idempEntry struct {
	InProgress bool      `json:"in_progress"`
	Code       int       `json:"code"`
	Body       []byte    `json:"body"`
	BodySHA256 string    `json:"body_sha256"`
	Scope      string    `json:"scope"`
	RequestAt  time.Time `json:"request_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

// IdempotencyMiddleware replays the recorded response of a mutation retried
// with the same Idempotency-Key. Keys are scoped to the caller, the route and
// the fee, repayment or application the route targets. Server errors are not
// recorded: the reservation is dropped so a retry runs the mutation again.
// It must run after JWTAuth; safe methods pass through untouched.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration, log logging.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = logging.NewNop()
	}
	store := idempStore{rdb: rdb}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			k, err := parseIdempotencyKey(req.Header.Get(HeaderIdempotencyKey))
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			reqAt, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}
			now := time.Now().UTC()
			if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": HeaderRequestAt + " too far from server time"})
			}
			userID, ok := UserID(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			hash := bodyHash(body)

			key := idempotencyKey(c, userID, k)
			scope := resourceScope(c)
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			reserved, err := store.reserve(ctx, key, idempEntry{
				InProgress: true,
				BodySHA256: hash,
				Scope:      scope,
				RequestAt:  reqAt,
				CreatedAt:  now,
			})
			if err != nil {
				log.Error(req.Context(), "idempotency store unavailable", "error", err)
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !reserved {
				cur, err := store.load(ctx, key)
				if err != nil {
					log.Warn(req.Context(), "idempotency entry not loaded", "key", key, "error", err)
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != hash {
					return c.JSON(http.StatusConflict, map[string]string{"error": HeaderIdempotencyKey + " reused with a different body"})
				}
				if !cur.InProgress && cur.Code != 0 {
					c.Response().Header().Set("Idempotent-Replay", "true")
					return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
				}
				return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			bg := context.WithoutCancel(req.Context())
			if rec.code >= http.StatusInternalServerError {
				if err := store.release(bg, key); err != nil {
					log.Warn(req.Context(), "idempotency reservation not released", "key", key, "error", err)
				}
				return nil
			}
			if err := store.record(bg, key, idempEntry{
				Code:       rec.code,
				Body:       rec.buf.Bytes(),
				BodySHA256: hash,
				Scope:      scope,
				RequestAt:  reqAt,
				CreatedAt:  time.Now().UTC(),
			}, ttl); err != nil {
				log.Warn(req.Context(), "idempotency entry not saved", "key", key, "error", err)
			}
			return nil
		}
	}
}
