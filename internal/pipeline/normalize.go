package pipeline

import (
	"fmt"
	"strings"

	"salebook/internal"
	"salebook/internal/util"
)

// NormalizedDocument is the cleaned form of a candidate document: search
// seeds prepared, numeric fields defaulted, no identity resolved yet.
type NormalizedDocument struct {
	Intent           internal.Intent
	CustomerNameText string
	SupplierNameText string
	Lines            []*internal.ResolvedLine
	Product          *internal.ProductDraft
}

// Normalize converts a candidate document into working state. VAT defaults
// null to 0; quantity and price stay nil because "unknown, fill in later" is
// a valid state distinct from zero. Normalization never resolves identity.
func Normalize(doc internal.CandidateDocument) (*NormalizedDocument, error) {
	switch doc.Intent {
	case internal.IntentCreateOrder, internal.IntentCreateImportSlip:
		out := &NormalizedDocument{Intent: doc.Intent}
		if doc.CustomerNameText != nil {
			out.CustomerNameText = strings.TrimSpace(*doc.CustomerNameText)
		}
		if doc.SupplierNameText != nil {
			out.SupplierNameText = strings.TrimSpace(*doc.SupplierNameText)
		}
		for _, line := range doc.Lines {
			out.Lines = append(out.Lines, normalizeLine(line))
		}
		return out, nil
	case internal.IntentCreateProduct:
		if doc.Product == nil {
			return nil, fmt.Errorf("intent %s without product payload", doc.Intent)
		}
		return &NormalizedDocument{
			Intent:  doc.Intent,
			Product: normalizeProduct(*doc.Product),
		}, nil
	default:
		return nil, fmt.Errorf("cannot normalize document with intent %q", doc.Intent)
	}
}

func normalizeLine(line internal.CandidateLine) *internal.ResolvedLine {
	resolved := &internal.ResolvedLine{
		ItemNameText: strings.TrimSpace(line.ItemNameText),
		Quantity:     line.Quantity,
		UnitPrice:    line.UnitPrice,
		VatPercent:   line.VatPercent,
	}
	if line.UnitNameText != nil && strings.TrimSpace(*line.UnitNameText) != "" {
		resolved.UnitNameText = util.StringPtr(strings.TrimSpace(*line.UnitNameText))
	}
	if resolved.VatPercent == nil {
		resolved.VatPercent = util.FloatPtr(0)
	}
	return resolved
}

func normalizeProduct(p internal.CandidateProduct) *internal.ProductDraft {
	draft := &internal.ProductDraft{
		Name: strings.TrimSpace(p.Name),
	}
	if p.BrandText != nil {
		draft.BrandText = strings.TrimSpace(*p.BrandText)
	}
	for _, text := range p.CatalogTexts {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			draft.CatalogTexts = append(draft.CatalogTexts, trimmed)
		}
	}
	for _, attr := range p.Attributes {
		typeText := strings.TrimSpace(attr.TypeText)
		valueText := strings.TrimSpace(attr.ValueText)
		if typeText == "" && valueText == "" {
			continue
		}
		draft.Attributes = append(draft.Attributes, internal.AttributeDraft{
			TypeText:  typeText,
			ValueText: valueText,
		})
	}
	for _, unit := range p.Units {
		factor := int64(1)
		if unit.ConversionFactor != nil && *unit.ConversionFactor >= 1 {
			factor = int64(*unit.ConversionFactor)
		}
		price := util.FloatPtr(0)
		if unit.Price != nil {
			price = unit.Price
		}
		vat := 0.0
		if unit.VatPercent != nil {
			vat = *unit.VatPercent
		}
		draft.Units = append(draft.Units, internal.UnitDraft{
			Name:             strings.TrimSpace(unit.Name),
			ConversionFactor: factor,
			Price:            price,
			VatPercent:       vat,
		})
	}
	return draft
}
