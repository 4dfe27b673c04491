package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"loancrm/internal/domain/ledger"
	ledgeruc "loancrm/internal/usecase/ledger"
)

type LedgerHandler struct{ uc *ledgeruc.Usecase }

func NewLedgerHandler(uc *ledgeruc.Usecase) *LedgerHandler { return &LedgerHandler{uc: uc} }

type adjustmentReq struct {
	Amount      string `json:"amount" validate:"required,signedmoney"`
	Description string `json:"description" validate:"required,lte=2000"`
}

// ListLedger returns the application's entries newest first.
func (h *LedgerHandler) ListLedger(c echo.Context) error {
	appID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	out, err := h.uc.ListByApplication(c.Request().Context(), appID)
	if err != nil {
		return respondError(c, err)
	}
	if out == nil {
		out = []ledger.Entry{}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LedgerHandler) PostAdjustment(c echo.Context) error {
	appID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req adjustmentReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	e, err := h.uc.PostAdjustment(c.Request().Context(), ledgeruc.AdjustmentInput{
		ApplicationID: appID,
		Amount:        mustDecimal(req.Amount),
		Description:   req.Description,
		CreatedBy:     &uid,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}
