package pipeline

import (
	"context"
	"time"

	"salebook/internal"
	"salebook/internal/config"
	"salebook/internal/storage"
)

// DocumentSlots wires one document's resolver slots to the canonical store
// and encodes the dependency graph between them: changing the catalog set
// clears the attribute type, clearing the type clears the value. Resets run
// synchronously inside the triggering change, so a stale search can never
// repopulate a slot that was just invalidated.
type DocumentSlots struct {
	Customer       *Slot[internal.NamedRecord]
	Supplier       *Slot[internal.NamedRecord]
	Brand          *Slot[internal.NamedRecord]
	Catalogs       *MultiSlot[internal.NamedRecord]
	AttributeType  *Slot[internal.AttributeType]
	AttributeValue *Slot[internal.AttributeValue]
}

func NewDocumentSlots(db *storage.DB, cfg config.Config) *DocumentSlots {
	debounce := time.Duration(cfg.ResolverDebounce) * time.Millisecond
	namedKey := func(r internal.NamedRecord) int64 { return r.ID }

	namedSlot := func(kind internal.EntityKind) *Slot[internal.NamedRecord] {
		return NewSlot(kind, debounce, namedKey,
			func(ctx context.Context, query string) ([]internal.NamedRecord, error) {
				return db.SearchNamed(kind, query, cfg.SearchLimit)
			},
			func(ctx context.Context, name string) (internal.NamedRecord, error) {
				return db.CreateNamed(kind, name)
			},
		)
	}

	slots := &DocumentSlots{
		Customer: namedSlot(internal.KindCustomer),
		Supplier: namedSlot(internal.KindSupplier),
		Brand:    namedSlot(internal.KindBrand),
		Catalogs: NewMultiSlot(internal.KindCatalog, namedKey,
			func(ctx context.Context, query string) ([]internal.NamedRecord, error) {
				return db.SearchNamed(internal.KindCatalog, query, cfg.SearchLimit)
			},
			func(ctx context.Context, name string) (internal.NamedRecord, error) {
				return db.CreateNamed(internal.KindCatalog, name)
			},
		),
	}

	// Attribute searches read the current catalog/type selection at call
	// time, so a reset between dispatch and response also changes the scope
	// the next search runs under.
	slots.AttributeType = NewSlot(internal.KindAttributeType, debounce,
		func(t internal.AttributeType) int64 { return t.ID },
		func(ctx context.Context, query string) ([]internal.AttributeType, error) {
			return db.SearchAttributeTypes(query, slots.Catalogs.SelectedIDs(), cfg.SearchLimit)
		},
		func(ctx context.Context, name string) (internal.AttributeType, error) {
			return db.CreateAttributeType(name, slots.Catalogs.SelectedIDs())
		},
	)
	slots.AttributeValue = NewSlot(internal.KindAttributeValue, debounce,
		func(v internal.AttributeValue) int64 { return v.ID },
		func(ctx context.Context, query string) ([]internal.AttributeValue, error) {
			selected := slots.AttributeType.Selected()
			if selected == nil {
				return nil, &internal.ConfigurationError{Name: "attribute type scope for value search"}
			}
			return db.SearchAttributeValues(query, selected.ID, cfg.SearchLimit)
		},
		func(ctx context.Context, name string) (internal.AttributeValue, error) {
			selected := slots.AttributeType.Selected()
			if selected == nil {
				return internal.AttributeValue{}, &internal.ConfigurationError{Name: "attribute type scope for value create"}
			}
			return db.CreateAttributeValue(name, selected.ID)
		},
	)

	slots.Catalogs.Invalidates(slots.AttributeType)
	slots.AttributeType.Invalidates(slots.AttributeValue)

	return slots
}
