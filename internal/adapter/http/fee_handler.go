package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"loancrm/internal/domain/fee"
	feeuc "loancrm/internal/usecase/fee"
)

type FeeHandler struct{ uc *feeuc.Usecase }

func NewFeeHandler(uc *feeuc.Usecase) *FeeHandler { return &FeeHandler{uc: uc} }

type createFeeReq struct {
	FeeType     string  `json:"fee_type" validate:"required,oneof=application valuation legal broker settlement other"`
	Description string  `json:"description" validate:"lte=2000"`
	Amount      string  `json:"amount" validate:"required,money"`
	DueDate     string  `json:"due_date" validate:"required,date"`
	PaidDate    *string `json:"paid_date" validate:"omitempty,date"`
}

type paidDateReq struct {
	// null clears the paid date
	PaidDate *string `json:"paid_date" validate:"omitempty,date"`
}

type markPaidResp struct {
	Fee         *fee.Fee `json:"fee"`
	AlreadyPaid bool     `json:"already_paid"`
}

func (h *FeeHandler) CreateFee(c echo.Context) error {
	appID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req createFeeReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	due, _ := parseDate(req.DueDate)
	paid, _ := optDate(req.PaidDate)

	f, err := h.uc.Create(c.Request().Context(), feeuc.CreateFeeInput{
		ApplicationID: appID,
		FeeType:       fee.Type(req.FeeType),
		Description:   req.Description,
		Amount:        mustDecimal(req.Amount),
		DueDate:       due,
		PaidDate:      paid,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *FeeHandler) CreateStandardFees(c echo.Context) error {
	appID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	fees, err := h.uc.CreateStandardFees(c.Request().Context(), appID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, fees)
}

func (h *FeeHandler) ListFees(c echo.Context) error {
	appID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	fees, err := h.uc.ListByApplication(c.Request().Context(), appID)
	if err != nil {
		return respondError(c, err)
	}
	if fees == nil {
		fees = []fee.Fee{}
	}
	return c.JSON(http.StatusOK, fees)
}

func (h *FeeHandler) GetFee(c echo.Context) error {
	id, err := pathID(c, "fee_id")
	if err != nil {
		return err
	}
	f, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

// SetPaidDate is the generic edit; only the first unpaid-to-paid change posts to the ledger.
func (h *FeeHandler) SetPaidDate(c echo.Context) error {
	id, err := pathID(c, "fee_id")
	if err != nil {
		return err
	}
	var req paidDateReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	paid, _ := optDate(req.PaidDate)
	f, err := h.uc.SetPaidDate(c.Request().Context(), id, paid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, f)
}

// MarkPaid defaults the paid date to today and leaves an already paid fee alone.
func (h *FeeHandler) MarkPaid(c echo.Context) error {
	id, err := pathID(c, "fee_id")
	if err != nil {
		return err
	}
	var req paidDateReq
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return badBody(c)
		}
		if err := c.Validate(&req); err != nil {
			return validationFailed(c, err)
		}
	}
	paid, _ := optDate(req.PaidDate)
	f, already, err := h.uc.MarkPaid(c.Request().Context(), id, paid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, markPaidResp{Fee: f, AlreadyPaid: already})
}
