package escalation

import (
	"fmt"
	"strings"

	"loancrm/internal/domain/application"
	"loancrm/internal/domain/repayment"
)

const displayDate = "02/01/2006"

func upcomingMessage(r repayment.Repayment, a *application.Application) string {
	return fmt.Sprintf("This is a reminder that you have a repayment of $%s due on %s.\n\n"+
		"Application Reference: %s\n\n"+
		"Please ensure funds are available in your account for this repayment.",
		r.Amount.StringFixed(2), r.DueDate.Format(displayDate), a.Reference)
}

func overdue3Message(r repayment.Repayment, a *application.Application) string {
	return fmt.Sprintf("IMPORTANT: Your repayment of $%s was due on %s and is now 3 days overdue.\n\n"+
		"Application Reference: %s\n\n"+
		"Please make this payment immediately to avoid additional fees and penalties.",
		r.Amount.StringFixed(2), r.DueDate.Format(displayDate), a.Reference)
}

func overdue7Message(r repayment.Repayment, a *application.Application) string {
	return fmt.Sprintf("URGENT: Your repayment of $%s was due on %s and is now 7 days overdue.\n\n"+
		"Application Reference: %s\n\n"+
		"This is your final notice before this matter is escalated. Please make this payment immediately.",
		r.Amount.StringFixed(2), r.DueDate.Format(displayDate), a.Reference)
}

func overdue10Message(r repayment.Repayment, a *application.Application) string {
	return fmt.Sprintf("A repayment of $%s for application %s is now 10 days overdue.\n\n"+
		"Due Date: %s\n\n"+
		"This matter has been escalated to you for further action.",
		r.Amount.StringFixed(2), a.Reference, r.DueDate.Format(displayDate))
}

func applicationAlertMessage(a application.Application, days int, lastLabel string, last string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Application %s has been in the %s stage for over %d days.\n\n", a.Reference, a.Stage.Display(), days)
	b.WriteString("Please review this application and update its status or contact the broker.\n\n")
	b.WriteString("Application Details:\n")
	fmt.Fprintf(&b, "- Reference: %s\n", a.Reference)
	fmt.Fprintf(&b, "- Stage: %s\n", a.Stage.Display())
	fmt.Fprintf(&b, "- Loan Amount: $%s\n", a.LoanAmount.StringFixed(2))
	fmt.Fprintf(&b, "- %s: %s", lastLabel, last)
	return b.String()
}
