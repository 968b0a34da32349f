package pipeline

import (
	"testing"

	"salebook/internal"
	"salebook/internal/util"
)

func completeLine() *internal.ResolvedLine {
	line := lineWithUnit(5, 6, 58000, 8)
	line.ProductID = util.Int64Ptr(3)
	line.ProductName = "Bia Tiger"
	line.InventoryBaseQuantity = util.FloatPtr(100)
	return line
}

func hasViolation(violations []internal.Violation, field string, reason internal.ViolationReason) bool {
	for _, v := range violations {
		if v.Field == field && v.Reason == reason {
			return true
		}
	}
	return false
}

func TestBuildOrderValid(t *testing.T) {
	draft := OrderDraft{
		CustomerID: util.Int64Ptr(9),
		Lines:      []*internal.ResolvedLine{completeLine()},
	}
	payload, violations := BuildOrder(draft)
	if len(violations) != 0 {
		t.Fatalf("violations = %v", violations)
	}
	if payload.CustomerID != 9 || len(payload.Lines) != 1 {
		t.Fatalf("payload = %+v", payload)
	}
	got := payload.Lines[0]
	if got.ProductID != 3 || got.UnitConversionID != 7 || got.Quantity != 5 || got.UnitPrice != 58000 || got.VatPercent != 8 {
		t.Fatalf("line = %+v", got)
	}
}

func TestBuildOrderCollectsAllViolations(t *testing.T) {
	draft := OrderDraft{
		Lines: []*internal.ResolvedLine{
			{ItemNameText: "bia gì đó"},
		},
	}
	payload, violations := BuildOrder(draft)
	if payload != nil {
		t.Fatal("no partial payload on violation")
	}
	for _, want := range []struct {
		field  string
		reason internal.ViolationReason
	}{
		{"customer", internal.ReasonRequired},
		{"line0.product", internal.ReasonRequired},
		{"line0.unit", internal.ReasonRequired},
		{"line0.quantity", internal.ReasonRequired},
		{"line0.unitPrice", internal.ReasonRequired},
		{"line0.vatPercent", internal.ReasonRequired},
	} {
		if !hasViolation(violations, want.field, want.reason) {
			t.Fatalf("missing %s %s in %v", want.field, want.reason, violations)
		}
	}
}

func TestBuildOrderStockViolation(t *testing.T) {
	line := completeLine()
	line.InventoryBaseQuantity = util.FloatPtr(10)

	draft := OrderDraft{CustomerID: util.Int64Ptr(9), Lines: []*internal.ResolvedLine{line}}
	payload, violations := BuildOrder(draft)
	if payload != nil {
		t.Fatal("stock violation must block the payload")
	}
	if len(violations) != 1 {
		t.Fatalf("violations = %v", violations)
	}
	v := violations[0]
	if v.Field != "line0" || v.Reason != internal.ReasonStockInsufficient {
		t.Fatalf("violation = %+v", v)
	}
	if v.Required == nil || *v.Required != 30 || v.Available == nil || *v.Available != 10 {
		t.Fatalf("required/available = %v/%v", v.Required, v.Available)
	}
}

func TestBuildOrderNegativeQuantity(t *testing.T) {
	line := completeLine()
	line.Quantity = util.FloatPtr(-1)
	_, violations := BuildOrder(OrderDraft{CustomerID: util.Int64Ptr(9), Lines: []*internal.ResolvedLine{line}})
	if !hasViolation(violations, "line0.quantity", internal.ReasonInvalid) {
		t.Fatalf("violations = %v", violations)
	}
}

func TestBuildOrderFetchingUnitsIsUnresolved(t *testing.T) {
	line := completeLine()
	line.IsFetchingUnits = true
	_, violations := BuildOrder(OrderDraft{CustomerID: util.Int64Ptr(9), Lines: []*internal.ResolvedLine{line}})
	if !hasViolation(violations, "line0.product", internal.ReasonUnresolved) {
		t.Fatalf("violations = %v", violations)
	}
}

func TestBuildOrderStaleUnitSelection(t *testing.T) {
	line := completeLine()
	line.UnitConversionID = util.Int64Ptr(999)
	_, violations := BuildOrder(OrderDraft{CustomerID: util.Int64Ptr(9), Lines: []*internal.ResolvedLine{line}})
	if !hasViolation(violations, "line0.unit", internal.ReasonInvalid) {
		t.Fatalf("violations = %v", violations)
	}
}

func TestBuildOrderValidateTwiceIsStable(t *testing.T) {
	line := completeLine()
	line.InventoryBaseQuantity = util.FloatPtr(10)
	draft := OrderDraft{CustomerID: util.Int64Ptr(9), Lines: []*internal.ResolvedLine{line}}

	_, first := BuildOrder(draft)
	_, second := BuildOrder(draft)
	if len(first) != len(second) {
		t.Fatalf("validation is not idempotent: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("violation %d changed: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestBuildImportSlipSkipsStockCheck(t *testing.T) {
	line := completeLine()
	line.InventoryBaseQuantity = util.FloatPtr(10)

	draft := ImportSlipDraft{SupplierID: util.Int64Ptr(4), Lines: []*internal.ResolvedLine{line}}
	payload, violations := BuildImportSlip(draft)
	if len(violations) != 0 {
		t.Fatalf("imports add stock, violations = %v", violations)
	}
	if payload.SupplierID != 4 || len(payload.Lines) != 1 {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestBuildImportSlipEmptyLines(t *testing.T) {
	_, violations := BuildImportSlip(ImportSlipDraft{SupplierID: util.Int64Ptr(4)})
	if !hasViolation(violations, "lines", internal.ReasonRequired) {
		t.Fatalf("violations = %v", violations)
	}
}

func productDraftFixture() *internal.ProductDraft {
	return &internal.ProductDraft{
		Name:       "Bia Tiger",
		BrandID:    util.Int64Ptr(1),
		CatalogIDs: []int64{2},
		Units: []internal.UnitDraft{
			{Name: "Lon", ConversionFactor: 1, Price: util.FloatPtr(12000)},
			{Name: "Lốc", ConversionFactor: 6, Price: util.FloatPtr(58000), VatPercent: 8},
		},
	}
}

func TestBuildProductValid(t *testing.T) {
	payload, violations := BuildProduct(productDraftFixture())
	if len(violations) != 0 {
		t.Fatalf("violations = %v", violations)
	}
	if payload.Name != "Bia Tiger" || payload.BrandID != 1 {
		t.Fatalf("payload = %+v", payload)
	}
	if len(payload.Units) != 2 || payload.Units[0].BaseUnitName != "Lon" || payload.Units[1].BaseUnitName != "Lon" {
		t.Fatalf("units = %+v", payload.Units)
	}
}

func TestBuildProductMissingCatalogs(t *testing.T) {
	draft := productDraftFixture()
	draft.CatalogIDs = nil
	payload, violations := BuildProduct(draft)
	if payload != nil {
		t.Fatal("no partial payload on violation")
	}
	if !hasViolation(violations, "catalogs", internal.ReasonRequired) {
		t.Fatalf("violations = %v", violations)
	}
}

func TestBuildProductBaseUnitCount(t *testing.T) {
	draft := productDraftFixture()
	draft.Units[1].ConversionFactor = 1
	_, violations := BuildProduct(draft)
	if !hasViolation(violations, "units", internal.ReasonInvalid) {
		t.Fatalf("two base units: violations = %v", violations)
	}

	draft = productDraftFixture()
	draft.Units[0].ConversionFactor = 12
	_, violations = BuildProduct(draft)
	if !hasViolation(violations, "units", internal.ReasonInvalid) {
		t.Fatalf("no base unit: violations = %v", violations)
	}
}

func TestBuildProductAttributeRules(t *testing.T) {
	draft := productDraftFixture()
	draft.Attributes = []internal.AttributeDraft{
		{TypeText: "Vị", ValueText: "Bạc", TypeID: util.Int64Ptr(5), ValueID: util.Int64Ptr(11)},
		{TypeText: "Cỡ", ValueText: "Lớn"},
	}
	payload, violations := BuildProduct(draft)
	if len(violations) != 0 {
		t.Fatalf("both-unresolved attribute must be ignored, violations = %v", violations)
	}
	if len(payload.AttributeValueIDs) != 1 || payload.AttributeValueIDs[0] != 11 {
		t.Fatalf("attribute value ids = %v", payload.AttributeValueIDs)
	}

	draft.Attributes[1].TypeID = util.Int64Ptr(6)
	payload, violations = BuildProduct(draft)
	if payload != nil {
		t.Fatal("half-resolved attribute must block the payload")
	}
	if !hasViolation(violations, "attributes[1]", internal.ReasonUnresolved) {
		t.Fatalf("violations = %v", violations)
	}
}
