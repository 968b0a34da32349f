package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"salebook/internal"
	"salebook/internal/config"
	"salebook/internal/storage"
	"salebook/internal/util"
)

// ReconcileService runs the batch reconcile flow: normalize a candidate
// document, resolve every referenced entity against the canonical store,
// match units, apply price/VAT defaults, snapshot stock, and assemble the
// transaction on submit.
type ReconcileService struct {
	db  *storage.DB
	cfg config.Config
}

func NewReconcileService(db *storage.DB, cfg config.Config) *ReconcileService {
	return &ReconcileService{db: db, cfg: cfg}
}

// ReconcileResult is the resolved working state for one candidate document.
type ReconcileResult struct {
	TraceID  string
	Intent   internal.Intent
	Customer *internal.NamedRecord
	Supplier *internal.NamedRecord
	Lines    []*internal.ResolvedLine
	Product  *internal.ProductDraft
	Rows     []internal.ReconcileRow
	Counts   map[string]int
}

// ReconcileDocument resolves a candidate document against the store. Search
// failures on one slot do not abort sibling slots; the affected slot simply
// stays unresolved and shows up in the violation list at submit time.
func (s *ReconcileService) ReconcileDocument(ctx context.Context, doc internal.CandidateDocument) (*ReconcileResult, error) {
	start := time.Now()

	normalized, err := Normalize(doc)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{
		TraceID: uuid.NewString(),
		Intent:  normalized.Intent,
		Counts:  map[string]int{},
	}

	slots := NewDocumentSlots(s.db, s.cfg)

	switch normalized.Intent {
	case internal.IntentCreateOrder, internal.IntentCreateImportSlip:
		s.resolveCounterparty(ctx, normalized, slots, result)
		result.Lines = normalized.Lines
		for i, line := range result.Lines {
			row := s.resolveLine(ctx, line, doc.Lines[i])
			row.LineNo = i
			result.Rows = append(result.Rows, row)
			result.Counts[countKey(row.Status)]++
		}
	case internal.IntentCreateProduct:
		result.Product = normalized.Product
		s.resolveProductDraft(ctx, slots, result.Product)
	}

	_ = s.db.InsertRun(result.TraceID, result.Intent,
		map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())},
		result.Counts,
	)
	return result, nil
}

// Submit validates the resolved state, builds the immutable payload, and
// hands it to the store. Validation failures come back as a ValidationError
// carrying every violation; nothing is persisted in that case.
func (s *ReconcileService) Submit(result *ReconcileResult) (int64, error) {
	switch result.Intent {
	case internal.IntentCreateOrder:
		draft := OrderDraft{Lines: result.Lines}
		if result.Customer != nil {
			draft.CustomerID = util.Int64Ptr(result.Customer.ID)
		}
		payload, violations := BuildOrder(draft)
		if len(violations) > 0 {
			return 0, &internal.ValidationError{Violations: violations}
		}
		return s.db.SaveOrder(*payload, result.TraceID)
	case internal.IntentCreateImportSlip:
		draft := ImportSlipDraft{Lines: result.Lines}
		if result.Supplier != nil {
			draft.SupplierID = util.Int64Ptr(result.Supplier.ID)
		}
		payload, violations := BuildImportSlip(draft)
		if len(violations) > 0 {
			return 0, &internal.ValidationError{Violations: violations}
		}
		return s.db.SaveImportSlip(*payload, result.TraceID)
	case internal.IntentCreateProduct:
		payload, violations := BuildProduct(result.Product)
		if len(violations) > 0 {
			return 0, &internal.ValidationError{Violations: violations}
		}
		return s.db.SaveProduct(*payload)
	default:
		return 0, fmt.Errorf("cannot submit intent %q", result.Intent)
	}
}

func (s *ReconcileService) resolveCounterparty(ctx context.Context, normalized *NormalizedDocument, slots *DocumentSlots, result *ReconcileResult) {
	if normalized.Intent == internal.IntentCreateOrder && normalized.CustomerNameText != "" {
		if _, err := slots.Customer.ResolveNow(ctx, normalized.CustomerNameText); err == nil {
			result.Customer = slots.Customer.Selected()
		}
	}
	if normalized.Intent == internal.IntentCreateImportSlip && normalized.SupplierNameText != "" {
		if _, err := slots.Supplier.ResolveNow(ctx, normalized.SupplierNameText); err == nil {
			result.Supplier = slots.Supplier.Selected()
		}
	}
}

func (s *ReconcileService) resolveLine(ctx context.Context, line *internal.ResolvedLine, candidate internal.CandidateLine) internal.ReconcileRow {
	row := internal.ReconcileRow{
		RawItemText: line.ItemNameText,
		SpokenUnit:  line.UnitNameText,
		Status:      internal.ResolveNotFound,
		StockOK:     true,
	}

	products, err := s.db.SearchProducts(line.ItemNameText, s.cfg.SearchLimit)
	if err != nil || len(products) == 0 {
		row.Quantity = line.Quantity
		return row
	}

	ranked := rankProducts(line.ItemNameText, products)
	row.Score = ranked[0].score
	if len(ranked) > 1 {
		row.Candidate2Name = util.StringPtr(ranked[1].product.Name)
		row.Candidate2Score = util.FloatPtr(ranked[1].score)
	}

	// Auto-select only a sole result; multiple candidates stay unresolved
	// for explicit review.
	if len(ranked) > 1 {
		row.Status = internal.ResolveReview
		row.Quantity = line.Quantity
		return row
	}

	product := ranked[0].product
	line.ProductID = util.Int64Ptr(product.ID)
	line.ProductName = product.Name
	line.InventoryBaseQuantity = util.FloatPtr(product.InventoryBaseQuantity)

	line.IsFetchingUnits = true
	units, err := s.db.GetUnitConversions(product.ID)
	line.IsFetchingUnits = false
	if err == nil {
		line.AvailableUnits = units
	}

	if unit := MatchUnit(line.AvailableUnits, stringOrEmpty(line.UnitNameText)); unit != nil {
		line.UnitConversionID = util.Int64Ptr(unit.ID)
		// Price and VAT default from the matched unit only where the
		// extraction left them unknown.
		if candidate.UnitPrice == nil {
			line.UnitPrice = util.FloatPtr(unit.Price)
		}
		if candidate.VatPercent == nil {
			line.VatPercent = util.FloatPtr(unit.VatPercent)
		}
		row.UnitName = util.StringPtr(unit.UnitName)
	}

	row.Status = internal.ResolveOK
	row.ProductID = line.ProductID
	row.ProductName = util.StringPtr(product.Name)
	row.Quantity = line.Quantity
	row.UnitPrice = line.UnitPrice
	row.VatPercent = line.VatPercent
	subtotal, _ := LineSubtotal(line).Float64()
	row.Subtotal = util.FloatPtr(subtotal)
	row.RequiredBase = util.FloatPtr(RequiredBaseStock(line))
	row.AvailableBase = line.InventoryBaseQuantity
	row.StockOK = HasSufficientStock(line)

	return row
}

func (s *ReconcileService) resolveProductDraft(ctx context.Context, slots *DocumentSlots, draft *internal.ProductDraft) {
	if draft.BrandText != "" {
		if _, err := slots.Brand.ResolveNow(ctx, draft.BrandText); err == nil {
			if brand := slots.Brand.Selected(); brand != nil {
				draft.BrandID = util.Int64Ptr(brand.ID)
			}
		}
	}

	for _, text := range draft.CatalogTexts {
		results, err := slots.Catalogs.ResolveNow(ctx, text)
		if err != nil {
			continue
		}
		// The sole result of the first search auto-selects; later seeds
		// append their sole match explicitly.
		if len(results) == 1 {
			_ = slots.Catalogs.Add(results[0])
		}
	}
	draft.CatalogIDs = slots.Catalogs.SelectedIDs()

	for i := range draft.Attributes {
		s.resolveAttribute(ctx, draft, &draft.Attributes[i])
	}
}

// resolveAttribute resolves a type/value pair scoped by the already chosen
// catalogs. Either side failing to resolve uniquely leaves the draft
// half-resolved; the builder decides whether that is ignorable.
func (s *ReconcileService) resolveAttribute(ctx context.Context, draft *internal.ProductDraft, attr *internal.AttributeDraft) {
	if attr.TypeText == "" || len(draft.CatalogIDs) == 0 {
		return
	}
	types, err := s.db.SearchAttributeTypes(attr.TypeText, draft.CatalogIDs, s.cfg.SearchLimit)
	if err != nil || len(types) != 1 {
		return
	}
	attr.TypeID = util.Int64Ptr(types[0].ID)

	if attr.ValueText == "" {
		return
	}
	values, err := s.db.SearchAttributeValues(attr.ValueText, types[0].ID, s.cfg.SearchLimit)
	if err != nil || len(values) != 1 {
		return
	}
	attr.ValueID = util.Int64Ptr(values[0].ID)
}

type rankedProduct struct {
	product internal.Product
	score   float64
}

// rankProducts orders substring-search hits by bigram similarity plus token
// overlap against the folded query, the same weighting the catalog matcher
// in the quote pipeline used.
func rankProducts(query string, products []internal.Product) []rankedProduct {
	folded := util.FoldName(query)
	queryTokens := util.Tokenize(query)

	out := make([]rankedProduct, 0, len(products))
	for _, p := range products {
		out = append(out, rankedProduct{product: p, score: scoreName(folded, queryTokens, p.Name)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

func scoreName(foldedQuery string, queryTokens []string, candidateName string) float64 {
	foldedCandidate := util.FoldName(candidateName)
	dice := util.DiceCoefficient(foldedQuery, foldedCandidate)
	if len(queryTokens) == 0 {
		return dice
	}

	candidateTokens := map[string]struct{}{}
	for _, t := range util.Tokenize(candidateName) {
		candidateTokens[t] = struct{}{}
	}
	overlap := 0
	for _, t := range queryTokens {
		if _, ok := candidateTokens[t]; ok {
			overlap++
		}
	}
	tokenScore := float64(overlap) / float64(len(queryTokens))
	return 0.65*dice + 0.35*tokenScore
}

func countKey(status internal.ResolveStatus) string {
	switch status {
	case internal.ResolveOK:
		return "ok"
	case internal.ResolveReview:
		return "review"
	default:
		return "notFound"
	}
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
