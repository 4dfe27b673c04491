package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"loancrm/internal/domain/application"
	"loancrm/internal/usecase/amortization"
	appuc "loancrm/internal/usecase/application"
)

type ApplicationHandler struct{ uc *appuc.Usecase }

func NewApplicationHandler(uc *appuc.Usecase) *ApplicationHandler {
	return &ApplicationHandler{uc: uc}
}

type createApplicationReq struct {
	LoanAmount              string   `json:"loan_amount" validate:"required,money"`
	InterestRate            string   `json:"interest_rate" validate:"required,rate"`
	LoanTerm                int      `json:"loan_term" validate:"gte=0,lte=1200"`
	RepaymentFrequency      string   `json:"repayment_frequency" validate:"omitempty,oneof=weekly fortnightly monthly"`
	RelationshipManagerID   *uint64  `json:"relationship_manager_id"`
	BrokerID                *uint64  `json:"broker_id"`
	EstimatedSettlementDate *string  `json:"estimated_settlement_date" validate:"omitempty,date"`
	BorrowerIDs             []uint64 `json:"borrower_ids"`
}

type changeStageReq struct {
	Stage string `json:"stage" validate:"required,oneof=inquiry pre_approval valuation formal_approval settlement funded declined withdrawn"`
}

type schedulePreview struct {
	Installments []amortization.Installment `json:"installments"`
	Total        string                     `json:"total"`
}

func (h *ApplicationHandler) CreateApplication(c echo.Context) error {
	var req createApplicationReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	settle, _ := optDate(req.EstimatedSettlementDate)
	a, err := h.uc.Create(c.Request().Context(), appuc.CreateApplicationInput{
		LoanAmount:              mustDecimal(req.LoanAmount),
		InterestRate:            mustDecimal(req.InterestRate),
		LoanTerm:                req.LoanTerm,
		RepaymentFrequency:      application.Frequency(req.RepaymentFrequency),
		RelationshipManagerID:   req.RelationshipManagerID,
		BrokerID:                req.BrokerID,
		EstimatedSettlementDate: settle,
		BorrowerIDs:             req.BorrowerIDs,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *ApplicationHandler) GetApplication(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *ApplicationHandler) ChangeStage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	var req changeStageReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	a, err := h.uc.ChangeStage(c.Request().Context(), id, application.Stage(req.Stage), &uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// PreviewSchedule runs the calculator without touching storage:
// ?principal=&rate=&term=&frequency=
func (h *ApplicationHandler) PreviewSchedule(c echo.Context) error {
	principal, places, ok := parseDecimal(c.QueryParam("principal"))
	if !ok || places > 2 || principal.IsNegative() {
		return badQuery("principal")
	}
	rate, places, ok := parseDecimal(c.QueryParam("rate"))
	if !ok || places > 4 || rate.IsNegative() {
		return badQuery("rate")
	}
	term, err := strconv.Atoi(c.QueryParam("term"))
	if err != nil {
		return badQuery("term")
	}
	freq := application.Frequency(c.QueryParam("frequency"))
	if freq == "" {
		freq = application.FrequencyMonthly
	}

	inst, err := amortization.Schedule(principal, rate, term, freq)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, schedulePreview{Installments: inst, Total: amortization.Total(inst).StringFixed(2)})
}
