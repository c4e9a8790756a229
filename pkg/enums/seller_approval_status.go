package enums

import "fmt"

// SellerApprovalStatus is the post-auction checkpoint the seller (or an
// admin) moves before a sale is finalized.
type SellerApprovalStatus string

const (
	SellerApprovalPending  SellerApprovalStatus = "PENDING"
	SellerApprovalApproved SellerApprovalStatus = "APPROVED"
	SellerApprovalRejected SellerApprovalStatus = "REJECTED"
)

var validSellerApprovalStatuses = []SellerApprovalStatus{
	SellerApprovalPending,
	SellerApprovalApproved,
	SellerApprovalRejected,
}

// String implements fmt.Stringer.
func (s SellerApprovalStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SellerApprovalStatus.
func (s SellerApprovalStatus) IsValid() bool {
	for _, candidate := range validSellerApprovalStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSellerApprovalStatus converts raw input into a SellerApprovalStatus.
func ParseSellerApprovalStatus(value string) (SellerApprovalStatus, error) {
	for _, candidate := range validSellerApprovalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid seller approval status %q", value)
}
