package pipeline

import (
	"math"

	"github.com/shopspring/decimal"

	"salebook/internal"
)

// DocumentTotals are recomputed on every edit to the resolved lines.
type DocumentTotals struct {
	BeforeVAT decimal.Decimal
	VAT       decimal.Decimal
	AfterVAT  decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// LineSubtotal is quantity * unitPrice with nil coalesced to 0 for display.
// Submission still requires the real values; see the builder.
func LineSubtotal(line *internal.ResolvedLine) decimal.Decimal {
	qty := decimal.NewFromFloat(floatOrZero(line.Quantity))
	price := decimal.NewFromFloat(floatOrZero(line.UnitPrice))
	return qty.Mul(price)
}

func LineVATAmount(line *internal.ResolvedLine) decimal.Decimal {
	vat := decimal.NewFromFloat(floatOrZero(line.VatPercent))
	return LineSubtotal(line).Mul(vat).Div(hundred)
}

func Totals(lines []*internal.ResolvedLine) DocumentTotals {
	totals := DocumentTotals{
		BeforeVAT: decimal.Zero,
		VAT:       decimal.Zero,
	}
	for _, line := range lines {
		totals.BeforeVAT = totals.BeforeVAT.Add(LineSubtotal(line))
		totals.VAT = totals.VAT.Add(LineVATAmount(line))
	}
	totals.AfterVAT = totals.BeforeVAT.Add(totals.VAT)
	return totals
}

// RequiredBaseStock converts the user-facing quantity into base units. The
// factor defaults to 1 while no unit is selected, purely for display;
// submission requires a selected unit.
func RequiredBaseStock(line *internal.ResolvedLine) float64 {
	factor := int64(1)
	if unit := line.SelectedUnit(); unit != nil {
		factor = unit.ConversionFactor
	}
	return floatOrZero(line.Quantity) * float64(factor)
}

// HasSufficientStock checks the inventory snapshot captured at resolution
// time. Unknown inventory is unconstrained.
func HasSufficientStock(line *internal.ResolvedLine) bool {
	if line.InventoryBaseQuantity == nil || math.IsNaN(*line.InventoryBaseQuantity) {
		return true
	}
	return RequiredBaseStock(line) <= *line.InventoryBaseQuantity
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
