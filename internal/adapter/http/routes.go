package http

import (
	"github.com/labstack/echo/v4"

	"loancrm/internal/adapter/middleware"
	"loancrm/internal/domain/user"
)

type Handlers struct {
	Health        *Handler
	Applications  *ApplicationHandler
	Fees          *FeeHandler
	Repayments    *RepaymentHandler
	Ledger        *LedgerHandler
	Reports       *ReportHandler
	Notifications *NotificationHandler
	// Escalation is optional; the route is not mounted without it.
	Escalation *EscalationHandler
}

// RegisterRoutes mounts everything but /health under /api/v1 behind mw
// (authentication first, then idempotency).
func RegisterRoutes(e *echo.Echo, h Handlers, mw ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)

	api := e.Group("/api/v1", mw...)
	admin := middleware.RequireRole(user.RoleAdmin)

	api.POST("/applications", h.Applications.CreateApplication)
	api.GET("/applications/:id", h.Applications.GetApplication)
	api.PUT("/applications/:id/stage", h.Applications.ChangeStage)
	api.GET("/amortization/preview", h.Applications.PreviewSchedule)

	api.GET("/applications/:id/fees", h.Fees.ListFees)
	api.POST("/applications/:id/fees", h.Fees.CreateFee)
	api.POST("/applications/:id/fees/standard", h.Fees.CreateStandardFees)
	api.GET("/fees/:fee_id", h.Fees.GetFee)
	api.PUT("/fees/:fee_id/paid-date", h.Fees.SetPaidDate)
	api.POST("/fees/:fee_id/mark-paid", h.Fees.MarkPaid)

	api.GET("/applications/:id/repayments", h.Repayments.ListRepayments)
	api.POST("/applications/:id/repayments", h.Repayments.CreateRepayment)
	api.POST("/applications/:id/repayments/schedule", h.Repayments.GenerateSchedule)
	api.GET("/repayments/:repayment_id", h.Repayments.GetRepayment)
	api.PUT("/repayments/:repayment_id/paid-date", h.Repayments.SetPaidDate)
	api.POST("/repayments/:repayment_id/mark-paid", h.Repayments.MarkPaid)

	api.GET("/applications/:id/ledger", h.Ledger.ListLedger)
	api.POST("/applications/:id/ledger/adjustments", h.Ledger.PostAdjustment, admin)

	api.GET("/reports/ledger-summary", h.Reports.LedgerSummary)
	api.GET("/reports/repayment-compliance", h.Reports.RepaymentCompliance)

	api.GET("/notifications", h.Notifications.List)
	api.GET("/notifications/unread-count", h.Notifications.UnreadCount)
	api.GET("/notifications/stream", h.Notifications.Stream)
	api.POST("/notifications/read-all", h.Notifications.MarkAllRead)
	api.POST("/notifications/:id/read", h.Notifications.MarkRead)
	api.GET("/notifications/preferences", h.Notifications.GetPreferences)
	api.PATCH("/notifications/preferences", h.Notifications.UpdatePreferences)

	if h.Escalation != nil {
		api.POST("/admin/escalation/run", h.Escalation.Run, admin)
	}
}
