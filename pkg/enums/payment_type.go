package enums

import "fmt"

// PaymentType tags a gateway order so the webhook reconciler can route the
// captured payment to the right domain record.
type PaymentType string

const (
	PaymentTypeMembership      PaymentType = "MEMBERSHIP"
	PaymentTypeRegistrationFee PaymentType = "REGISTRATION_FEE"
	PaymentTypeEMD             PaymentType = "EMD"
	PaymentTypeBalancePayment  PaymentType = "BALANCE_PAYMENT"
	PaymentTypeTransactionFee  PaymentType = "TRANSACTION_FEE"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeMembership,
	PaymentTypeRegistrationFee,
	PaymentTypeEMD,
	PaymentTypeBalancePayment,
	PaymentTypeTransactionFee,
}

// String implements fmt.Stringer.
func (p PaymentType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}
