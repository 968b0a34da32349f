package pipeline

import (
	"fmt"

	"salebook/internal"
	"salebook/internal/util"
)

// OrderDraft is the fully edited working state handed to the builder.
type OrderDraft struct {
	CustomerID *int64
	Lines      []*internal.ResolvedLine
}

type ImportSlipDraft struct {
	SupplierID *int64
	Lines      []*internal.ResolvedLine
}

// BuildOrder assembles an immutable order payload, or returns every
// violation found. No partial payload is ever emitted. The builder performs
// no I/O; it only inspects already-resolved state.
func BuildOrder(draft OrderDraft) (*internal.OrderPayload, []internal.Violation) {
	var violations []internal.Violation
	if draft.CustomerID == nil {
		violations = append(violations, internal.Violation{Field: "customer", Reason: internal.ReasonRequired})
	}

	lines, lineViolations := buildLines(draft.Lines, true)
	violations = append(violations, lineViolations...)
	if len(violations) > 0 {
		return nil, violations
	}

	return &internal.OrderPayload{CustomerID: *draft.CustomerID, Lines: lines}, nil
}

// BuildImportSlip is BuildOrder without the stock check: imports add stock.
func BuildImportSlip(draft ImportSlipDraft) (*internal.ImportSlipPayload, []internal.Violation) {
	var violations []internal.Violation
	if draft.SupplierID == nil {
		violations = append(violations, internal.Violation{Field: "supplier", Reason: internal.ReasonRequired})
	}

	lines, lineViolations := buildLines(draft.Lines, false)
	violations = append(violations, lineViolations...)
	if len(violations) > 0 {
		return nil, violations
	}

	return &internal.ImportSlipPayload{SupplierID: *draft.SupplierID, Lines: lines}, nil
}

func buildLines(resolved []*internal.ResolvedLine, checkStock bool) ([]internal.TransactionLine, []internal.Violation) {
	var violations []internal.Violation
	lines := make([]internal.TransactionLine, 0, len(resolved))

	if len(resolved) == 0 {
		violations = append(violations, internal.Violation{Field: "lines", Reason: internal.ReasonRequired})
	}

	for i, line := range resolved {
		field := fmt.Sprintf("line%d", i)
		complete := true

		if line.IsFetchingUnits {
			// In-flight resolution is "not yet resolved", not a failure.
			violations = append(violations, internal.Violation{Field: field + ".product", Reason: internal.ReasonUnresolved})
			complete = false
		} else if line.ProductID == nil {
			violations = append(violations, internal.Violation{Field: field + ".product", Reason: internal.ReasonRequired})
			complete = false
		}

		if line.UnitConversionID == nil {
			violations = append(violations, internal.Violation{Field: field + ".unit", Reason: internal.ReasonRequired})
			complete = false
		} else if line.SelectedUnit() == nil {
			violations = append(violations, internal.Violation{Field: field + ".unit", Reason: internal.ReasonInvalid})
			complete = false
		}

		if line.Quantity == nil {
			violations = append(violations, internal.Violation{Field: field + ".quantity", Reason: internal.ReasonRequired})
			complete = false
		} else if *line.Quantity <= 0 {
			violations = append(violations, internal.Violation{Field: field + ".quantity", Reason: internal.ReasonInvalid})
			complete = false
		}
		if line.UnitPrice == nil {
			violations = append(violations, internal.Violation{Field: field + ".unitPrice", Reason: internal.ReasonRequired})
			complete = false
		}
		if line.VatPercent == nil {
			violations = append(violations, internal.Violation{Field: field + ".vatPercent", Reason: internal.ReasonRequired})
			complete = false
		}

		if complete && checkStock && !HasSufficientStock(line) {
			violations = append(violations, internal.Violation{
				Field:     field,
				Reason:    internal.ReasonStockInsufficient,
				Required:  util.FloatPtr(RequiredBaseStock(line)),
				Available: line.InventoryBaseQuantity,
			})
			complete = false
		}

		if complete {
			lines = append(lines, internal.TransactionLine{
				ProductID:        *line.ProductID,
				UnitConversionID: *line.UnitConversionID,
				Quantity:         *line.Quantity,
				UnitPrice:        *line.UnitPrice,
				VatPercent:       *line.VatPercent,
			})
		}
	}

	return lines, violations
}

// BuildProduct assembles a product payload from a draft. An attribute line is
// included only when both type and value are resolved; both unresolved means
// the line is ignored; a half-resolved line is an error.
func BuildProduct(draft *internal.ProductDraft) (*internal.ProductPayload, []internal.Violation) {
	var violations []internal.Violation

	if draft.Name == "" {
		violations = append(violations, internal.Violation{Field: "name", Reason: internal.ReasonRequired})
	}
	if draft.BrandID == nil {
		violations = append(violations, internal.Violation{Field: "brand", Reason: internal.ReasonRequired})
	}
	if len(draft.CatalogIDs) == 0 {
		violations = append(violations, internal.Violation{Field: "catalogs", Reason: internal.ReasonRequired})
	}

	if len(draft.Units) == 0 {
		violations = append(violations, internal.Violation{Field: "units", Reason: internal.ReasonRequired})
	}
	baseCount := 0
	baseUnitName := ""
	for i, unit := range draft.Units {
		field := fmt.Sprintf("units[%d]", i)
		if unit.Name == "" {
			violations = append(violations, internal.Violation{Field: field + ".name", Reason: internal.ReasonRequired})
		}
		if unit.Price == nil {
			violations = append(violations, internal.Violation{Field: field + ".price", Reason: internal.ReasonRequired})
		}
		if unit.ConversionFactor <= 0 {
			violations = append(violations, internal.Violation{Field: field + ".conversionFactor", Reason: internal.ReasonInvalid})
		}
		if unit.ConversionFactor == 1 {
			baseCount++
			baseUnitName = unit.Name
		}
	}
	if len(draft.Units) > 0 && baseCount != 1 {
		violations = append(violations, internal.Violation{Field: "units", Reason: internal.ReasonInvalid})
	}

	var attributeValueIDs []int64
	for i, attr := range draft.Attributes {
		typeResolved := attr.TypeID != nil
		valueResolved := attr.ValueID != nil
		switch {
		case typeResolved && valueResolved:
			attributeValueIDs = append(attributeValueIDs, *attr.ValueID)
		case !typeResolved && !valueResolved:
			// Both sides unresolved: line is ignored.
		default:
			violations = append(violations, internal.Violation{
				Field:  fmt.Sprintf("attributes[%d]", i),
				Reason: internal.ReasonUnresolved,
			})
		}
	}

	if len(violations) > 0 {
		return nil, violations
	}

	payload := &internal.ProductPayload{
		Name:              draft.Name,
		BrandID:           *draft.BrandID,
		CatalogIDs:        append([]int64(nil), draft.CatalogIDs...),
		AttributeValueIDs: attributeValueIDs,
	}
	for _, unit := range draft.Units {
		payload.Units = append(payload.Units, internal.UnitConversion{
			UnitName:         unit.Name,
			ConversionFactor: unit.ConversionFactor,
			BaseUnitName:     baseUnitName,
			Price:            *unit.Price,
			VatPercent:       unit.VatPercent,
		})
	}
	return payload, nil
}
