package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"loancrm/internal/domain/application"
	"loancrm/internal/domain/fee"
	"loancrm/internal/domain/notification"
	"loancrm/internal/domain/repayment"
	"loancrm/internal/domain/uow"
	"loancrm/internal/domain/user"
	"loancrm/internal/usecase/amortization"
	appuc "loancrm/internal/usecase/application"
	"loancrm/internal/usecase/escalation"
	feeuc "loancrm/internal/usecase/fee"
	ledgeruc "loancrm/internal/usecase/ledger"
	prefuc "loancrm/internal/usecase/preference"
	repaymentuc "loancrm/internal/usecase/repayment"
	"loancrm/internal/usecase/report"
)

var (
	notFoundErrs = []error{
		application.ErrNotFound,
		fee.ErrNotFound,
		repayment.ErrNotFound,
		notification.ErrNotFound,
		user.ErrNotFound,
	}
	conflictErrs = []error{
		repayment.ErrScheduleExists,
		application.ErrInvalidTransition,
		escalation.ErrRunInProgress,
	}
	invalidErrs = []error{
		application.ErrInvalidStage,
		application.ErrIncompleteTerms,
		fee.ErrInvalidType,
		amortization.ErrInvalidSchedule,
		appuc.ErrInvalidInput,
		feeuc.ErrInvalidInput,
		repaymentuc.ErrInvalidInput,
		ledgeruc.ErrInvalidInput,
		prefuc.ErrInvalidInput,
		report.ErrInvalidWindow,
	}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// respondError maps usecase errors onto status codes. Anything unmapped is a
// 500 whose cause stays in the logs, not in the body.
func respondError(c echo.Context, err error) error {
	switch {
	case isAny(err, notFoundErrs):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case isAny(err, conflictErrs):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case isAny(err, invalidErrs):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, uow.ErrPersistence):
		return echo.NewHTTPError(http.StatusInternalServerError, ErrorResponse{Error: uow.ErrPersistence.Error()}).SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, ErrorResponse{Error: "internal error"}).SetInternal(err)
	}
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
}
