package settlement

import "github.com/shopspring/decimal"

// ComputeTransactionFee returns the fee owed on a purchase price at the
// given basis-point rate, rounded half up to the nearest rupee.
func ComputeTransactionFee(purchasePrice, rateBps int64) int64 {
	if purchasePrice <= 0 || rateBps <= 0 {
		return 0
	}
	fee := decimal.NewFromInt(purchasePrice).
		Mul(decimal.NewFromInt(rateBps)).
		Div(decimal.NewFromInt(10_000))
	return fee.Round(0).IntPart()
}
