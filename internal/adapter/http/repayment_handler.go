package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"loancrm/internal/domain/repayment"
	repaymentuc "loancrm/internal/usecase/repayment"
)

type RepaymentHandler struct{ uc *repaymentuc.Usecase }

func NewRepaymentHandler(uc *repaymentuc.Usecase) *RepaymentHandler {
	return &RepaymentHandler{uc: uc}
}

type createRepaymentReq struct {
	Amount   string  `json:"amount" validate:"required,money"`
	DueDate  string  `json:"due_date" validate:"required,date"`
	PaidDate *string `json:"paid_date" validate:"omitempty,date"`
}

type markRepaymentPaidResp struct {
	Repayment   *repayment.Repayment `json:"repayment"`
	AlreadyPaid bool                 `json:"already_paid"`
}

func (h *RepaymentHandler) CreateRepayment(c echo.Context) error {
	appID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req createRepaymentReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	due, _ := parseDate(req.DueDate)
	paid, _ := optDate(req.PaidDate)

	r, err := h.uc.Create(c.Request().Context(), repaymentuc.CreateRepaymentInput{
		ApplicationID: appID,
		Amount:        mustDecimal(req.Amount),
		DueDate:       due,
		PaidDate:      paid,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// GenerateSchedule answers 409 when the application already has repayments.
func (h *RepaymentHandler) GenerateSchedule(c echo.Context) error {
	appID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	out, err := h.uc.GenerateSchedule(c.Request().Context(), appID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *RepaymentHandler) ListRepayments(c echo.Context) error {
	appID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	out, err := h.uc.ListByApplication(c.Request().Context(), appID)
	if err != nil {
		return respondError(c, err)
	}
	if out == nil {
		out = []repayment.Repayment{}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *RepaymentHandler) GetRepayment(c echo.Context) error {
	id, err := pathID(c, "repayment_id")
	if err != nil {
		return err
	}
	r, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *RepaymentHandler) SetPaidDate(c echo.Context) error {
	id, err := pathID(c, "repayment_id")
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
	r, err := h.uc.SetPaidDate(c.Request().Context(), id, paid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *RepaymentHandler) MarkPaid(c echo.Context) error {
	id, err := pathID(c, "repayment_id")
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
	r, already, err := h.uc.MarkPaid(c.Request().Context(), id, paid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, markRepaymentPaidResp{Repayment: r, AlreadyPaid: already})
}
