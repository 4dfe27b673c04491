package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"loancrm/internal/usecase/escalation"
)

type EscalationHandler struct {
	scheduler escalation.Scheduler
	loc       *time.Location
	now       func() time.Time
}

func NewEscalationHandler(s escalation.Scheduler, loc *time.Location, now func() time.Time) *EscalationHandler {
	if now == nil {
		now = time.Now
	}
	return &EscalationHandler{scheduler: s, loc: loc, now: now}
}

type runEscalationReq struct {
	// Date replays the run for another calendar day.
	Date string `json:"date" validate:"omitempty,date"`
}

// Run answers 409 while another run holds the lock.
func (h *EscalationHandler) Run(c echo.Context) error {
	var req runEscalationReq
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return badBody(c)
		}
		if err := c.Validate(&req); err != nil {
			return validationFailed(c, err)
		}
	}
	now := h.now()
	if req.Date != "" {
		at, err := escalation.At(req.Date, now, h.loc)
		if err != nil {
			return validationFailed(c, err)
		}
		now = at
	}
	rep, err := h.scheduler.Run(c.Request().Context(), now)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"report": rep, "totals": rep.Totals()})
}
