package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"loancrm/internal/adapter/middleware"
)

// ---- helpers ----

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// pathID parses a positive numeric path parameter. The error is a ready 400.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
	}
	return id, nil
}

func currentUser(c echo.Context) (uint64, error) {
	uid, ok := middleware.UserID(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}
	return uid, nil
}

func badQuery(name string) error {
	return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid query parameter " + name})
}

// mustDecimal is only called on values that passed the money/rate validators.
func mustDecimal(s string) decimal.Decimal {
	d, _, _ := parseDecimal(s)
	return d
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

// optDate treats nil and "" alike as "no date".
func optDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryUint(c echo.Context, name string) (*uint64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func queryDate(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	return optDate(&raw)
}
