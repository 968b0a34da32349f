package pipeline

import (
	"testing"

	"salebook/internal"
	"salebook/internal/util"
)

func TestNormalizeOrderDefaults(t *testing.T) {
	doc := internal.CandidateDocument{
		Intent:           internal.IntentCreateOrder,
		CustomerNameText: util.StringPtr("  chị Lan  "),
		Lines: []internal.CandidateLine{
			{
				ItemNameText: "  Bia Tiger  ",
				Quantity:     util.FloatPtr(5),
				UnitNameText: util.StringPtr(" lốc "),
			},
		},
	}

	norm, err := Normalize(doc)
	if err != nil {
		t.Fatal(err)
	}
	if norm.CustomerNameText != "chị Lan" {
		t.Fatalf("customer = %q", norm.CustomerNameText)
	}
	if len(norm.Lines) != 1 {
		t.Fatalf("lines = %d", len(norm.Lines))
	}
	line := norm.Lines[0]
	if line.ItemNameText != "Bia Tiger" {
		t.Fatalf("item = %q", line.ItemNameText)
	}
	if line.UnitNameText == nil || *line.UnitNameText != "lốc" {
		t.Fatalf("unit = %v", line.UnitNameText)
	}
	if line.VatPercent == nil || *line.VatPercent != 0 {
		t.Fatalf("vat should default to 0, got %v", line.VatPercent)
	}
	if line.UnitPrice != nil {
		t.Fatalf("price should stay nil, got %v", *line.UnitPrice)
	}
	if line.Quantity == nil || *line.Quantity != 5 {
		t.Fatalf("quantity = %v", line.Quantity)
	}
}

func TestNormalizeBlankUnitStaysNil(t *testing.T) {
	doc := internal.CandidateDocument{
		Intent: internal.IntentCreateOrder,
		Lines: []internal.CandidateLine{
			{ItemNameText: "Bia Tiger", UnitNameText: util.StringPtr("   ")},
		},
	}
	norm, err := Normalize(doc)
	if err != nil {
		t.Fatal(err)
	}
	if norm.Lines[0].UnitNameText != nil {
		t.Fatalf("blank unit should normalize to nil, got %q", *norm.Lines[0].UnitNameText)
	}
}

func TestNormalizeUnclearIntentFails(t *testing.T) {
	if _, err := Normalize(internal.CandidateDocument{Intent: internal.IntentUnclear}); err == nil {
		t.Fatal("expected error for unclear intent")
	}
}

func TestNormalizeProductMissingPayloadFails(t *testing.T) {
	if _, err := Normalize(internal.CandidateDocument{Intent: internal.IntentCreateProduct}); err == nil {
		t.Fatal("expected error for missing product payload")
	}
}

func TestNormalizeProductUnitDefaults(t *testing.T) {
	bad := -2.0
	doc := internal.CandidateDocument{
		Intent: internal.IntentCreateProduct,
		Product: &internal.CandidateProduct{
			Name:         " Bia Tiger ",
			BrandText:    util.StringPtr(" Tiger "),
			CatalogTexts: []string{" Đồ uống ", "  "},
			Attributes: []internal.CandidateAttribute{
				{TypeText: "  ", ValueText: ""},
				{TypeText: "Vị", ValueText: "Bạc"},
			},
			Units: []internal.CandidateUnit{
				{Name: " Lon ", ConversionFactor: &bad},
				{Name: "Lốc", ConversionFactor: util.FloatPtr(6), Price: util.FloatPtr(58000), VatPercent: util.FloatPtr(8)},
			},
		},
	}

	norm, err := Normalize(doc)
	if err != nil {
		t.Fatal(err)
	}
	draft := norm.Product
	if draft.Name != "Bia Tiger" || draft.BrandText != "Tiger" {
		t.Fatalf("draft = %+v", draft)
	}
	if len(draft.CatalogTexts) != 1 || draft.CatalogTexts[0] != "Đồ uống" {
		t.Fatalf("catalogs = %v", draft.CatalogTexts)
	}
	if len(draft.Attributes) != 1 || draft.Attributes[0].TypeText != "Vị" {
		t.Fatalf("attributes = %v", draft.Attributes)
	}
	if len(draft.Units) != 2 {
		t.Fatalf("units = %d", len(draft.Units))
	}
	lon := draft.Units[0]
	if lon.Name != "Lon" || lon.ConversionFactor != 1 {
		t.Fatalf("invalid factor should default to 1, got %+v", lon)
	}
	if lon.Price == nil || *lon.Price != 0 {
		t.Fatalf("missing price should default to 0, got %v", lon.Price)
	}
	if lon.VatPercent != 0 {
		t.Fatalf("missing vat should default to 0, got %v", lon.VatPercent)
	}
	loc := draft.Units[1]
	if loc.ConversionFactor != 6 || *loc.Price != 58000 || loc.VatPercent != 8 {
		t.Fatalf("explicit values must survive, got %+v", loc)
	}
}
