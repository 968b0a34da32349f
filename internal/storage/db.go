package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"salebook/internal"
	"salebook/internal/util"
)

// ErrConflict marks a submission the store rejected on a concurrent-state
// check, e.g. an order that would drive stock negative.
var ErrConflict = errors.New("conflict")

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL; PRAGMA foreign_keys = ON;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS customers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  name_key TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_customers_name_key ON customers(name_key);

CREATE TABLE IF NOT EXISTS suppliers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  name_key TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_suppliers_name_key ON suppliers(name_key);

CREATE TABLE IF NOT EXISTS brands (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  name_key TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_brands_name_key ON brands(name_key);

CREATE TABLE IF NOT EXISTS catalogs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  name_key TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_catalogs_name_key ON catalogs(name_key);

CREATE TABLE IF NOT EXISTS attribute_types (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  name_key TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attribute_type_catalogs (
  attributeTypeId INTEGER NOT NULL,
  catalogId INTEGER NOT NULL,
  PRIMARY KEY (attributeTypeId, catalogId),
  FOREIGN KEY(attributeTypeId) REFERENCES attribute_types(id),
  FOREIGN KEY(catalogId) REFERENCES catalogs(id)
);

CREATE TABLE IF NOT EXISTS attribute_values (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  attributeTypeId INTEGER NOT NULL,
  name TEXT NOT NULL,
  name_key TEXT NOT NULL,
  FOREIGN KEY(attributeTypeId) REFERENCES attribute_types(id)
);
CREATE INDEX IF NOT EXISTS idx_attribute_values_type ON attribute_values(attributeTypeId);

CREATE TABLE IF NOT EXISTS products (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  name_key TEXT NOT NULL,
  brandId INTEGER NOT NULL,
  inventoryBaseQuantity REAL NOT NULL DEFAULT 0,
  FOREIGN KEY(brandId) REFERENCES brands(id)
);
CREATE INDEX IF NOT EXISTS idx_products_name_key ON products(name_key);

CREATE TABLE IF NOT EXISTS product_catalogs (
  productId INTEGER NOT NULL,
  catalogId INTEGER NOT NULL,
  PRIMARY KEY (productId, catalogId),
  FOREIGN KEY(productId) REFERENCES products(id),
  FOREIGN KEY(catalogId) REFERENCES catalogs(id)
);

CREATE TABLE IF NOT EXISTS product_attribute_values (
  productId INTEGER NOT NULL,
  attributeValueId INTEGER NOT NULL,
  PRIMARY KEY (productId, attributeValueId),
  FOREIGN KEY(productId) REFERENCES products(id),
  FOREIGN KEY(attributeValueId) REFERENCES attribute_values(id)
);

CREATE TABLE IF NOT EXISTS unit_conversions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  productId INTEGER NOT NULL,
  unitName TEXT NOT NULL,
  conversionFactor INTEGER NOT NULL,
  baseUnitName TEXT NOT NULL,
  price REAL NOT NULL DEFAULT 0,
  vatPercent REAL NOT NULL DEFAULT 0,
  FOREIGN KEY(productId) REFERENCES products(id)
);
CREATE INDEX IF NOT EXISTS idx_unit_conversions_product ON unit_conversions(productId);

CREATE TABLE IF NOT EXISTS orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  customerId INTEGER NOT NULL,
  traceId TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(customerId) REFERENCES customers(id)
);

CREATE TABLE IF NOT EXISTS order_lines (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  orderId INTEGER NOT NULL,
  productId INTEGER NOT NULL,
  unitConversionId INTEGER NOT NULL,
  quantity REAL NOT NULL,
  unitPrice REAL NOT NULL,
  vatPercent REAL NOT NULL,
  FOREIGN KEY(orderId) REFERENCES orders(id)
);

CREATE TABLE IF NOT EXISTS import_slips (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  supplierId INTEGER NOT NULL,
  traceId TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(supplierId) REFERENCES suppliers(id)
);

CREATE TABLE IF NOT EXISTS import_slip_lines (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  importSlipId INTEGER NOT NULL,
  productId INTEGER NOT NULL,
  unitConversionId INTEGER NOT NULL,
  quantity REAL NOT NULL,
  unitPrice REAL NOT NULL,
  vatPercent REAL NOT NULL,
  FOREIGN KEY(importSlipId) REFERENCES import_slips(id)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  intent TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

var namedTables = map[internal.EntityKind]string{
	internal.KindCustomer: "customers",
	internal.KindSupplier: "suppliers",
	internal.KindBrand:    "brands",
	internal.KindCatalog:  "catalogs",
}

// SearchNamed finds flat entities whose folded name contains the folded query.
// An empty query returns no rows.
func (d *DB) SearchNamed(kind internal.EntityKind, query string, limit int) ([]internal.NamedRecord, error) {
	table, ok := namedTables[kind]
	if !ok {
		return nil, &internal.ConfigurationError{Name: "table for " + string(kind)}
	}
	key := util.FoldName(query)
	if key == "" {
		return []internal.NamedRecord{}, nil
	}

	rows, err := d.conn.Query(
		`SELECT id, name FROM `+table+` WHERE name_key LIKE '%' || ? || '%' ORDER BY name LIMIT ?`,
		key, limit,
	)
	if err != nil {
		return nil, &internal.TransientSearchError{Kind: kind, Err: err}
	}
	defer rows.Close()

	out := []internal.NamedRecord{}
	for rows.Next() {
		var r internal.NamedRecord
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) CreateNamed(kind internal.EntityKind, name string) (internal.NamedRecord, error) {
	table, ok := namedTables[kind]
	if !ok {
		return internal.NamedRecord{}, &internal.ConfigurationError{Name: "table for " + string(kind)}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return internal.NamedRecord{}, fmt.Errorf("create %s: empty name", kind)
	}

	res, err := d.conn.Exec(
		`INSERT INTO `+table+` (name, name_key) VALUES (?, ?)`,
		name, util.FoldName(name),
	)
	if err != nil {
		return internal.NamedRecord{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return internal.NamedRecord{}, err
	}
	return internal.NamedRecord{ID: id, Name: name}, nil
}

// SearchAttributeTypes is scoped by the selected catalog set; an empty scope
// is a configuration error, not an empty result.
func (d *DB) SearchAttributeTypes(query string, catalogIDs []int64, limit int) ([]internal.AttributeType, error) {
	if len(catalogIDs) == 0 {
		return nil, &internal.ConfigurationError{Name: "catalog scope for attribute type search"}
	}
	key := util.FoldName(query)
	if key == "" {
		return []internal.AttributeType{}, nil
	}

	placeholders := strings.Repeat("?,", len(catalogIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(catalogIDs)+2)
	args = append(args, key)
	for _, id := range catalogIDs {
		args = append(args, id)
	}
	args = append(args, limit)

	rows, err := d.conn.Query(`
SELECT DISTINCT t.id, t.name
FROM attribute_types t
JOIN attribute_type_catalogs tc ON tc.attributeTypeId = t.id
WHERE t.name_key LIKE '%' || ? || '%' AND tc.catalogId IN (`+placeholders+`)
ORDER BY t.name LIMIT ?`, args...)
	if err != nil {
		return nil, &internal.TransientSearchError{Kind: internal.KindAttributeType, Err: err}
	}
	defer rows.Close()

	out := []internal.AttributeType{}
	for rows.Next() {
		var t internal.AttributeType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		ids, err := d.attributeTypeCatalogs(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].CatalogIDs = ids
	}
	return out, nil
}

func (d *DB) CreateAttributeType(name string, catalogIDs []int64) (internal.AttributeType, error) {
	if len(catalogIDs) == 0 {
		return internal.AttributeType{}, &internal.ConfigurationError{Name: "catalog scope for attribute type create"}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return internal.AttributeType{}, errors.New("create attribute type: empty name")
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return internal.AttributeType{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT INTO attribute_types (name, name_key) VALUES (?, ?)`, name, util.FoldName(name))
	if err != nil {
		return internal.AttributeType{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return internal.AttributeType{}, err
	}
	for _, catalogID := range catalogIDs {
		if _, err := tx.Exec(`INSERT INTO attribute_type_catalogs (attributeTypeId, catalogId) VALUES (?, ?)`, id, catalogID); err != nil {
			return internal.AttributeType{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return internal.AttributeType{}, err
	}
	return internal.AttributeType{ID: id, Name: name, CatalogIDs: catalogIDs}, nil
}

// SearchAttributeValues is scoped by an attribute type.
func (d *DB) SearchAttributeValues(query string, attributeTypeID int64, limit int) ([]internal.AttributeValue, error) {
	if attributeTypeID == 0 {
		return nil, &internal.ConfigurationError{Name: "attribute type scope for value search"}
	}
	key := util.FoldName(query)
	if key == "" {
		return []internal.AttributeValue{}, nil
	}

	rows, err := d.conn.Query(`
SELECT id, attributeTypeId, name FROM attribute_values
WHERE attributeTypeId = ? AND name_key LIKE '%' || ? || '%'
ORDER BY name LIMIT ?`, attributeTypeID, key, limit)
	if err != nil {
		return nil, &internal.TransientSearchError{Kind: internal.KindAttributeValue, Err: err}
	}
	defer rows.Close()

	out := []internal.AttributeValue{}
	for rows.Next() {
		var v internal.AttributeValue
		if err := rows.Scan(&v.ID, &v.AttributeTypeID, &v.Name); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (d *DB) CreateAttributeValue(name string, attributeTypeID int64) (internal.AttributeValue, error) {
	if attributeTypeID == 0 {
		return internal.AttributeValue{}, &internal.ConfigurationError{Name: "attribute type scope for value create"}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return internal.AttributeValue{}, errors.New("create attribute value: empty name")
	}

	res, err := d.conn.Exec(
		`INSERT INTO attribute_values (attributeTypeId, name, name_key) VALUES (?, ?, ?)`,
		attributeTypeID, name, util.FoldName(name),
	)
	if err != nil {
		return internal.AttributeValue{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return internal.AttributeValue{}, err
	}
	return internal.AttributeValue{ID: id, AttributeTypeID: attributeTypeID, Name: name}, nil
}

// SearchProducts returns shallow product records (no units, no links).
func (d *DB) SearchProducts(query string, limit int) ([]internal.Product, error) {
	key := util.FoldName(query)
	if key == "" {
		return []internal.Product{}, nil
	}

	rows, err := d.conn.Query(`
SELECT id, name, brandId, inventoryBaseQuantity FROM products
WHERE name_key LIKE '%' || ? || '%' ORDER BY name LIMIT ?`, key, limit)
	if err != nil {
		return nil, &internal.TransientSearchError{Kind: internal.KindProduct, Err: err}
	}
	defer rows.Close()

	out := []internal.Product{}
	for rows.Next() {
		var p internal.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.BrandID, &p.InventoryBaseQuantity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProduct loads the full record including units, catalogs, attribute values
// and the current base-unit inventory.
func (d *DB) GetProduct(id int64) (*internal.Product, error) {
	var p internal.Product
	err := d.conn.QueryRow(
		`SELECT id, name, brandId, inventoryBaseQuantity FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.BrandID, &p.InventoryBaseQuantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Units, err = d.GetUnitConversions(id)
	if err != nil {
		return nil, err
	}
	p.CatalogIDs, err = d.int64Column(`SELECT catalogId FROM product_catalogs WHERE productId = ? ORDER BY catalogId`, id)
	if err != nil {
		return nil, err
	}
	p.AttributeValueIDs, err = d.int64Column(`SELECT attributeValueId FROM product_attribute_values WHERE productId = ? ORDER BY attributeValueId`, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetUnitConversions returns the product's units in catalog order: base unit
// first, then ascending factor.
func (d *DB) GetUnitConversions(productID int64) ([]internal.UnitConversion, error) {
	rows, err := d.conn.Query(`
SELECT id, productId, unitName, conversionFactor, baseUnitName, price, vatPercent
FROM unit_conversions WHERE productId = ?
ORDER BY conversionFactor ASC, id ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.UnitConversion{}
	for rows.Next() {
		var u internal.UnitConversion
		if err := rows.Scan(&u.ID, &u.ProductID, &u.UnitName, &u.ConversionFactor, &u.BaseUnitName, &u.Price, &u.VatPercent); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SaveProduct persists a product payload. Exactly one declared unit must be
// the base unit (factor 1), and every attribute value's type must share at
// least one catalog with the product.
func (d *DB) SaveProduct(p internal.ProductPayload) (int64, error) {
	baseCount := 0
	for _, u := range p.Units {
		if u.ConversionFactor == 1 {
			baseCount++
		}
	}
	if baseCount != 1 {
		return 0, fmt.Errorf("%w: product must declare exactly one base unit, got %d", ErrConflict, baseCount)
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, valueID := range p.AttributeValueIDs {
		ok, err := attributeValueInCatalogs(tx, valueID, p.CatalogIDs)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("%w: attribute value %d not visible from product catalogs", ErrConflict, valueID)
		}
	}

	res, err := tx.Exec(
		`INSERT INTO products (name, name_key, brandId) VALUES (?, ?, ?)`,
		p.Name, util.FoldName(p.Name), p.BrandID,
	)
	if err != nil {
		return 0, err
	}
	productID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, catalogID := range p.CatalogIDs {
		if _, err := tx.Exec(`INSERT INTO product_catalogs (productId, catalogId) VALUES (?, ?)`, productID, catalogID); err != nil {
			return 0, err
		}
	}
	for _, valueID := range p.AttributeValueIDs {
		if _, err := tx.Exec(`INSERT INTO product_attribute_values (productId, attributeValueId) VALUES (?, ?)`, productID, valueID); err != nil {
			return 0, err
		}
	}
	for _, u := range p.Units {
		if _, err := tx.Exec(`
INSERT INTO unit_conversions (productId, unitName, conversionFactor, baseUnitName, price, vatPercent)
VALUES (?, ?, ?, ?, ?, ?)`,
			productID, u.UnitName, u.ConversionFactor, u.BaseUnitName, u.Price, u.VatPercent); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return productID, nil
}

// SaveOrder persists an order and decrements base-unit stock. The decrement
// is guarded so a concurrent submission cannot drive inventory negative.
func (d *DB) SaveOrder(p internal.OrderPayload, traceID string) (int64, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT INTO orders (customerId, traceId) VALUES (?, ?)`, p.CustomerID, traceID)
	if err != nil {
		return 0, err
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, line := range p.Lines {
		factor, err := unitFactor(tx, line.UnitConversionID, line.ProductID)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", i, err)
		}
		required := line.Quantity * float64(factor)

		upd, err := tx.Exec(
			`UPDATE products SET inventoryBaseQuantity = inventoryBaseQuantity - ? WHERE id = ? AND inventoryBaseQuantity >= ?`,
			required, line.ProductID, required,
		)
		if err != nil {
			return 0, err
		}
		affected, err := upd.RowsAffected()
		if err != nil {
			return 0, err
		}
		if affected == 0 {
			return 0, fmt.Errorf("%w: insufficient stock for product %d (need %.0f base units)", ErrConflict, line.ProductID, required)
		}

		if _, err := tx.Exec(`
INSERT INTO order_lines (orderId, productId, unitConversionId, quantity, unitPrice, vatPercent)
VALUES (?, ?, ?, ?, ?, ?)`,
			orderID, line.ProductID, line.UnitConversionID, line.Quantity, line.UnitPrice, line.VatPercent); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return orderID, nil
}

// SaveImportSlip persists a supplier import and increments base-unit stock.
func (d *DB) SaveImportSlip(p internal.ImportSlipPayload, traceID string) (int64, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT INTO import_slips (supplierId, traceId) VALUES (?, ?)`, p.SupplierID, traceID)
	if err != nil {
		return 0, err
	}
	slipID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, line := range p.Lines {
		factor, err := unitFactor(tx, line.UnitConversionID, line.ProductID)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", i, err)
		}
		added := line.Quantity * float64(factor)

		if _, err := tx.Exec(
			`UPDATE products SET inventoryBaseQuantity = inventoryBaseQuantity + ? WHERE id = ?`,
			added, line.ProductID,
		); err != nil {
			return 0, err
		}
		if _, err := tx.Exec(`
INSERT INTO import_slip_lines (importSlipId, productId, unitConversionId, quantity, unitPrice, vatPercent)
VALUES (?, ?, ?, ?, ?, ?)`,
			slipID, line.ProductID, line.UnitConversionID, line.Quantity, line.UnitPrice, line.VatPercent); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return slipID, nil
}

func (d *DB) SetInventory(productID int64, baseQuantity float64) error {
	_, err := d.conn.Exec(`UPDATE products SET inventoryBaseQuantity = ? WHERE id = ?`, baseQuantity, productID)
	return err
}

func (d *DB) InsertRun(traceID string, intent internal.Intent, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(
		`INSERT INTO runs (traceId, intent, timingsJson, countsJson) VALUES (?, ?, ?, ?)`,
		traceID, string(intent), string(timingsJSON), string(countsJSON),
	)
	return err
}

func (d *DB) attributeTypeCatalogs(typeID int64) ([]int64, error) {
	return d.int64Column(`SELECT catalogId FROM attribute_type_catalogs WHERE attributeTypeId = ? ORDER BY catalogId`, typeID)
}

func (d *DB) int64Column(query string, args ...any) ([]int64, error) {
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []int64{}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func unitFactor(tx *sql.Tx, unitConversionID, productID int64) (int64, error) {
	var factor int64
	err := tx.QueryRow(
		`SELECT conversionFactor FROM unit_conversions WHERE id = ? AND productId = ?`,
		unitConversionID, productID,
	).Scan(&factor)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: unit %d does not belong to product %d", ErrConflict, unitConversionID, productID)
	}
	return factor, err
}

func attributeValueInCatalogs(tx *sql.Tx, valueID int64, catalogIDs []int64) (bool, error) {
	if len(catalogIDs) == 0 {
		return false, nil
	}
	placeholders := strings.Repeat("?,", len(catalogIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(catalogIDs)+1)
	args = append(args, valueID)
	for _, id := range catalogIDs {
		args = append(args, id)
	}

	var count int
	err := tx.QueryRow(`
SELECT COUNT(1)
FROM attribute_values v
JOIN attribute_type_catalogs tc ON tc.attributeTypeId = v.attributeTypeId
WHERE v.id = ? AND tc.catalogId IN (`+placeholders+`)`, args...).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
