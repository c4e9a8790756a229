package enums

// PurchaseType distinguishes how a vehicle was bought.
type PurchaseType string

const (
	PurchaseTypeAuction     PurchaseType = "AUCTION"
	PurchaseTypePreapproved PurchaseType = "PREAPPROVED"
)

// String implements fmt.Stringer.
func (p PurchaseType) String() string {
	return string(p)
}
