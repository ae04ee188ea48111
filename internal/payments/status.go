package payments

import "github.com/alejolo311/CDZGR/internal/models"

// MapStatus maps the processor's payment status vocabulary to our
// internal payment state. Conservative on purpose: approved means the
// funds cleared, pending/in_process stay pending, and every other or
// unrecognized status (rejected, cancelled, refunded, charged_back, …)
// collapses to failed instead of leaving the row ambiguous.
func MapStatus(status string) string {
	switch status {
	case "approved":
		return models.PaymentStateCompleted
	case "pending", "in_process":
		return models.PaymentStatePending
	default:
		return models.PaymentStateFailed
	}
}
