package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"loancrm/internal/usecase/report"
)

type ReportHandler struct{ uc *report.Usecase }

func NewReportHandler(uc *report.Usecase) *ReportHandler { return &ReportHandler{uc: uc} }

// filter reads ?application_id=&from=&to= with dates as YYYY-MM-DD; to is exclusive.
func (h *ReportHandler) filter(c echo.Context) (report.Filter, error) {
	var (
		f   report.Filter
		err error
	)
	if f.ApplicationID, err = queryUint(c, "application_id"); err != nil {
		return f, badQuery("application_id")
	}
	if f.From, err = queryDate(c, "from"); err != nil {
		return f, badQuery("from")
	}
	if f.To, err = queryDate(c, "to"); err != nil {
		return f, badQuery("to")
	}
	return f, nil
}

func (h *ReportHandler) LedgerSummary(c echo.Context) error {
	f, err := h.filter(c)
	if err != nil {
		return err
	}
	out, err := h.uc.LedgerSummary(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReportHandler) RepaymentCompliance(c echo.Context) error {
	f, err := h.filter(c)
	if err != nil {
		return err
	}
	out, err := h.uc.RepaymentCompliance(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
