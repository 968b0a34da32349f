package internal

import (
	"fmt"
	"strings"
)

// Intent classifies what the upstream extraction model believes the speaker wanted.
type Intent string

const (
	IntentCreateOrder      Intent = "create_order"
	IntentCreateProduct    Intent = "create_product"
	IntentCreateImportSlip Intent = "create_import_slip"
	IntentUnclear          Intent = "unclear"
)

// CandidateDocument is the extraction model's output for one capture.
// Treated as immutable once decoded.
type CandidateDocument struct {
	DetectedLanguage string            `json:"detectedLanguage"`
	RawText          string            `json:"rawText"`
	Intent           Intent            `json:"intent"`
	CustomerNameText *string           `json:"customerNameText,omitempty"`
	SupplierNameText *string           `json:"supplierNameText,omitempty"`
	Lines            []CandidateLine   `json:"lines,omitempty"`
	Product          *CandidateProduct `json:"product,omitempty"`
}

// CandidateLine is one spoken or photographed item before any resolution.
type CandidateLine struct {
	ItemNameText string   `json:"itemNameText"`
	Quantity     *float64 `json:"quantity"`
	UnitNameText *string  `json:"unitNameText"`
	UnitPrice    *float64 `json:"unitPrice"`
	VatPercent   *float64 `json:"vatPercent"`
}

type CandidateUnit struct {
	Name             string   `json:"name"`
	ConversionFactor *float64 `json:"conversionFactor"`
	Price            *float64 `json:"price"`
	VatPercent       *float64 `json:"vatPercent"`
}

type CandidateAttribute struct {
	TypeText  string `json:"typeText"`
	ValueText string `json:"valueText"`
}

type CandidateProduct struct {
	Name         string               `json:"name"`
	BrandText    *string              `json:"brandText"`
	CatalogTexts []string             `json:"catalogTexts"`
	Attributes   []CandidateAttribute `json:"attributes"`
	Units        []CandidateUnit      `json:"units"`
}

// NamedRecord is a flat canonical entity (customer, supplier, brand, catalog).
type NamedRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UnitConversion belongs to exactly one product. The base unit has factor 1;
// every other factor is a positive multiple of the base unit.
type UnitConversion struct {
	ID               int64   `json:"id"`
	ProductID        int64   `json:"productId"`
	UnitName         string  `json:"unitName"`
	ConversionFactor int64   `json:"conversionFactor"`
	BaseUnitName     string  `json:"baseUnitName"`
	Price            float64 `json:"price"`
	VatPercent       float64 `json:"vatPercent"`
}

type Product struct {
	ID                    int64            `json:"id"`
	Name                  string           `json:"name"`
	BrandID               int64            `json:"brandId"`
	CatalogIDs            []int64          `json:"catalogIds"`
	AttributeValueIDs     []int64          `json:"attributeValueIds"`
	InventoryBaseQuantity float64          `json:"inventoryBaseQuantity"`
	Units                 []UnitConversion `json:"unitConversions"`
}

// AttributeType is visible only through the catalogs it is associated with.
type AttributeType struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	CatalogIDs []int64 `json:"catalogIds"`
}

// AttributeValue belongs to exactly one attribute type.
type AttributeValue struct {
	ID              int64  `json:"id"`
	AttributeTypeID int64  `json:"attributeTypeId"`
	Name            string `json:"name"`
}

// ResolvedLine is the mutable working state derived from one candidate line.
// It is owned by the active document and discarded on cancel/reset.
type ResolvedLine struct {
	ItemNameText          string
	UnitNameText          *string
	ProductID             *int64
	ProductName           string
	AvailableUnits        []UnitConversion
	UnitConversionID      *int64
	Quantity              *float64
	UnitPrice             *float64
	VatPercent            *float64
	InventoryBaseQuantity *float64
	IsFetchingUnits       bool
}

// SelectedUnit returns the chosen conversion, or nil when none is selected or
// the selection no longer exists among the available units.
func (l *ResolvedLine) SelectedUnit() *UnitConversion {
	if l.UnitConversionID == nil {
		return nil
	}
	for i := range l.AvailableUnits {
		if l.AvailableUnits[i].ID == *l.UnitConversionID {
			return &l.AvailableUnits[i]
		}
	}
	return nil
}

// UnitDraft is a unit conversion being declared for a new product.
type UnitDraft struct {
	Name             string
	ConversionFactor int64
	Price            *float64
	VatPercent       float64
}

// AttributeDraft pairs a type/value search seed with its resolved ids.
type AttributeDraft struct {
	TypeText  string
	ValueText string
	TypeID    *int64
	ValueID   *int64
}

// ProductDraft is the mutable working state for a product-creation document.
type ProductDraft struct {
	Name         string
	BrandText    string
	BrandID      *int64
	CatalogTexts []string
	CatalogIDs   []int64
	Attributes   []AttributeDraft
	Units        []UnitDraft
}

// TransactionLine is a fully resolved order/import-slip line.
type TransactionLine struct {
	ProductID        int64   `json:"productId"`
	UnitConversionID int64   `json:"unitConversionId"`
	Quantity         float64 `json:"quantity"`
	UnitPrice        float64 `json:"unitPrice"`
	VatPercent       float64 `json:"vatPercent"`
}

type OrderPayload struct {
	CustomerID int64             `json:"customerId"`
	Lines      []TransactionLine `json:"lines"`
}

type ImportSlipPayload struct {
	SupplierID int64             `json:"supplierId"`
	Lines      []TransactionLine `json:"lines"`
}

type ProductPayload struct {
	Name              string           `json:"name"`
	BrandID           int64            `json:"brandId"`
	CatalogIDs        []int64          `json:"catalogIds"`
	AttributeValueIDs []int64          `json:"attributeValueIds"`
	Units             []UnitConversion `json:"unitConversions"`
}

// EntityKind names a canonical table for search/create calls.
type EntityKind string

const (
	KindCustomer       EntityKind = "customer"
	KindSupplier       EntityKind = "supplier"
	KindBrand          EntityKind = "brand"
	KindCatalog        EntityKind = "catalog"
	KindAttributeType  EntityKind = "attribute_type"
	KindAttributeValue EntityKind = "attribute_value"
	KindProduct        EntityKind = "product"
)

// ResolveStatus summarizes how a line's product lookup ended.
type ResolveStatus string

const (
	ResolveOK       ResolveStatus = "OK"
	ResolveReview   ResolveStatus = "REVIEW"
	ResolveNotFound ResolveStatus = "NOT_FOUND"
)

type ViolationReason string

const (
	ReasonRequired          ViolationReason = "Required"
	ReasonUnresolved        ViolationReason = "Unresolved"
	ReasonInvalid           ViolationReason = "Invalid"
	ReasonStockInsufficient ViolationReason = "StockInsufficient"
)

// Violation is one field-scoped validation failure. Required/Available are
// set only for stock violations.
type Violation struct {
	Field     string          `json:"field"`
	Reason    ViolationReason `json:"reason"`
	Required  *float64        `json:"required,omitempty"`
	Available *float64        `json:"available,omitempty"`
}

// ValidationError carries the full violation list from the transaction builder.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+string(v.Reason))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConfigurationError marks a lookup issued without its required table or
// configuration identifier. Fatal, not retryable.
type ConfigurationError struct {
	Name string
}

func (e *ConfigurationError) Error() string {
	return "missing required configuration: " + e.Name
}

// TransientSearchError wraps a recoverable search failure. Prior selection
// state is left untouched by callers.
type TransientSearchError struct {
	Kind EntityKind
	Err  error
}

func (e *TransientSearchError) Error() string {
	return fmt.Sprintf("search %s: %v", e.Kind, e.Err)
}

func (e *TransientSearchError) Unwrap() error { return e.Err }

// ReconcileRow is one exported line of a reconcile run.
type ReconcileRow struct {
	LineNo          int
	RawItemText     string
	SpokenUnit      *string
	Status          ResolveStatus
	Score           float64
	ProductID       *int64
	ProductName     *string
	UnitName        *string
	Quantity        *float64
	UnitPrice       *float64
	VatPercent      *float64
	Subtotal        *float64
	RequiredBase    *float64
	AvailableBase   *float64
	StockOK         bool
	Candidate2Name  *string
	Candidate2Score *float64
}
