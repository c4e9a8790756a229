package enums

// EMDStatus tracks an earnest money deposit independently of the auction
// it belongs to. NOT_PAID is the implicit state when no row exists.
type EMDStatus string

const (
	EMDStatusNotPaid EMDStatus = "NOT_PAID"
	EMDStatusPending EMDStatus = "PENDING"
	EMDStatusPaid    EMDStatus = "PAID"
	EMDStatusApplied EMDStatus = "APPLIED"
)

// String implements fmt.Stringer.
func (e EMDStatus) String() string {
	return string(e)
}

// IsValid reports whether the value is a known EMDStatus.
func (e EMDStatus) IsValid() bool {
	switch e {
	case EMDStatusNotPaid, EMDStatusPending, EMDStatusPaid, EMDStatusApplied:
		return true
	default:
		return false
	}
}
