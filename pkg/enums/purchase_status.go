package enums

import "fmt"

// PurchaseStatus tracks the commercial record from settlement to delivery.
type PurchaseStatus string

const (
	PurchaseStatusPaymentPending PurchaseStatus = "payment_pending"
	PurchaseStatusPending        PurchaseStatus = "pending"
	PurchaseStatusConfirmed      PurchaseStatus = "confirmed"
	PurchaseStatusCompleted      PurchaseStatus = "completed"
	PurchaseStatusDelivered      PurchaseStatus = "delivered"
)

var validPurchaseStatuses = []PurchaseStatus{
	PurchaseStatusPaymentPending,
	PurchaseStatusPending,
	PurchaseStatusConfirmed,
	PurchaseStatusCompleted,
	PurchaseStatusDelivered,
}

// String implements fmt.Stringer.
func (p PurchaseStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PurchaseStatus.
func (p PurchaseStatus) IsValid() bool {
	for _, candidate := range validPurchaseStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePurchaseStatus converts raw input into a PurchaseStatus.
func ParsePurchaseStatus(value string) (PurchaseStatus, error) {
	for _, candidate := range validPurchaseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase status %q", value)
}
