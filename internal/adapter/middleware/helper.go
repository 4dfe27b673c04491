package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderRequestAt      = "X-Request-At"

	idempKeyPrefix = "idemp:loancrm:"
)

// scopeParams maps route parameters to the resource they identify. A bare
// ":id" takes its name from the path segment in front of it.
var scopeParams = map[string]string{
	"fee_id":       "fee",
	"repayment_id": "repayment",
}

// resourceScope names the resource a mutation targets, e.g. "fee:7" for
// /fees/:fee_id/mark-paid or "application:3" for /applications/:id/fees.
// Collection routes without parameters share the "global" scope.
func resourceScope(c echo.Context) string {
	names := c.ParamNames()
	values := c.ParamValues()
	for i, name := range names {
		if i >= len(values) {
			break
		}
		if kind, ok := scopeParams[name]; ok {
			return kind + ":" + values[i]
		}
		if name == "id" {
			return segmentBefore(c.Path(), ":id") + ":" + values[i]
		}
	}
	return "global"
}

func segmentBefore(route, param string) string {
	parts := strings.Split(strings.Trim(route, "/"), "/")
	for i := 1; i < len(parts); i++ {
		if parts[i] == param {
			return strings.TrimSuffix(parts[i-1], "s")
		}
	}
	return "resource"
}

// idempotencyKey is the Redis key for one client-supplied key. The scope and
// route are both part of it, so reusing a key against another fee or another
// endpoint is a new request rather than a replay.
func idempotencyKey(c echo.Context, userID uint64, key uuid.UUID) string {
	return idempKeyPrefix +
		strings.ToLower(c.Request().Method) + ":" +
		resourceScope(c) + ":" +
		c.Path() + ":" +
		"u" + strconv.FormatUint(userID, 10) + ":" +
		key.String()
}

// parseIdempotencyKey accepts any UUID form google/uuid understands, including
// 32 hex digits without dashes, and returns its canonical form.
func parseIdempotencyKey(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing %s", HeaderIdempotencyKey)
	}
	k, err := uuid.Parse(raw)
	if err != nil || k == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid %s format", HeaderIdempotencyKey)
	}
	return k, nil
}

// parseRequestAt accepts epoch seconds, epoch milliseconds or RFC 3339 with an
// explicit zone.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing %s", HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%s must be epoch seconds, epoch milliseconds or RFC 3339 with zone", HeaderRequestAt)
}

func bodyHash(b []byte) string {
	s := sha256.Sum256(b)
	return hex.EncodeToString(s[:])
}

// idempStore keeps reservations and recorded responses in Redis.
type idempStore struct {
	rdb *redis.Client
}

// reserve claims key for an in-flight request. It reports false when the key
// already holds a reservation or a recorded response.
func (s idempStore) reserve(ctx context.Context, key string, e idempEntry) (bool, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func (s idempStore) load(ctx context.Context, key string) (idempEntry, error) {
	var e idempEntry
	v, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(v, &e); err != nil {
		return e, fmt.Errorf("decode idempotency entry: %w", err)
	}
	return e, nil
}

func (s idempStore) record(ctx context.Context, key string, e idempEntry, ttl time.Duration) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, ttl).Err()
}

// release drops a reservation so the client can retry with the same key.
func (s idempStore) release(ctx context.Context, key string) error {
	err := s.rdb.Del(ctx, key).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
