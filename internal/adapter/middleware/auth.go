package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"loancrm/internal/domain/user"
)

const (
	ctxUserID = "auth.user_id"
	ctxRole   = "auth.role"
)

var errNoSubject = errors.New("token has no user id")

// Claims carries the acting user. UserID wins over the numeric subject.
type Claims struct {
	UserID uint64    `json:"user_id,omitempty"`
	Role   user.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) userID() (uint64, error) {
	if c.UserID != 0 {
		return c.UserID, nil
	}
	if c.Subject == "" {
		return 0, errNoSubject
	}
	return strconv.ParseUint(c.Subject, 10, 64)
}

// IssueToken signs an HS256 token for userID.
func IssueToken(secret []byte, userID uint64, role user.Role, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// JWTAuth requires "Authorization: Bearer <token>" signed with secret.
func JWTAuth(secret []byte) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			var claims Claims
			if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return secret, nil }); err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}
			uid, err := claims.userID()
			if err != nil || uid == 0 {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token subject"})
			}
			SetIdentity(c, uid, claims.Role)
			return next(c)
		}
	}
}

// RequireRole must run after JWTAuth.
func RequireRole(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			have := Role(c)
			for _, r := range roles {
				if have == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": fmt.Sprintf("role %q not allowed", have)})
		}
	}
}

// UserID returns the authenticated user, if JWTAuth ran.
func UserID(c echo.Context) (uint64, bool) {
	v, ok := c.Get(ctxUserID).(uint64)
	return v, ok && v != 0
}

func Role(c echo.Context) user.Role {
	r, _ := c.Get(ctxRole).(user.Role)
	return r
}

// SetIdentity is what JWTAuth does on success; handlers' tests use it directly.
func SetIdentity(c echo.Context, userID uint64, role user.Role) {
	c.Set(ctxUserID, userID)
	c.Set(ctxRole, role)
}

func bearer(h string) (string, bool) {
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}
