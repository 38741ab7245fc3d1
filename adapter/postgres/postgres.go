// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package postgres implements the adapter.Adapter contract against a real
// Postgres database through core/csql, one physical table per collection,
// each document stored whole in a single jsonb column — the same
// properties-column pattern the rest of this backend's storage layer uses
// for its own dynamic, caller-defined attributes.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/lib/pq"

	"github.com/dalarub/docbase/adapter"
	"github.com/dalarub/docbase/core/csql"
	"github.com/dalarub/docbase/model"
)

// default capability limits. Postgres itself bounds a jsonb column at 1GB
// and a row at roughly 1.6GB; these are deliberately far more conservative,
// matching the kind of limits an operator would actually want enforced.
const (
	defaultLimitAttributes = 4096
	defaultLimitIndexes    = 64
	defaultLimitString     = 1 << 20
	defaultLimitInt        = 8
	defaultDocumentSize    = 1 << 24
)

type collectionSchema struct {
	attributes []adapter.Attribute
	indexes    []adapter.Index
}

// Adapter is a Postgres-backed adapter.Adapter. One Adapter owns one
// csql.DB (and therefore one Postgres schema); every collection becomes a
// table within it.
type Adapter struct {
	db *csql.DB

	mu              sync.RWMutex
	namespace       string
	defaultDatabase string
	databases       map[string]bool
	collections     map[string]*collectionSchema
}

// New returns an Adapter backed by db. Collections created through it
// become tables in db.Schema.
func New(db *csql.DB) *Adapter {
	return &Adapter{
		db:          db,
		databases:   map[string]bool{},
		collections: map[string]*collectionSchema{},
	}
}

// SetNamespace sets the namespace used in cache keys. The Postgres adapter
// itself does not use it beyond storing it for GetNamespace.
func (a *Adapter) SetNamespace(namespace string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.namespace = namespace
}

// GetNamespace returns the adapter's namespace.
func (a *Adapter) GetNamespace() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.namespace
}

// SetDefaultDatabase sets the database used when none is given explicitly.
func (a *Adapter) SetDefaultDatabase(database string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.defaultDatabase = database
}

// GetDefaultDatabase returns the adapter's default database.
func (a *Adapter) GetDefaultDatabase() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.defaultDatabase
}

// Ping checks the underlying connection.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Create registers a logical database name. The Postgres schema itself is
// fixed at construction (db.Schema); this only tracks caller-visible
// database names for Exists, the same bookkeeping role the reference
// in-memory adapter gives it.
func (a *Adapter) Create(ctx context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.databases[name] = true
	return nil
}

// Delete removes a logical database name.
func (a *Adapter) Delete(ctx context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.databases, name)
	return nil
}

// List returns every registered database name.
func (a *Adapter) List(ctx context.Context) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.databases))
	for name := range a.databases {
		names = append(names, name)
	}
	return names, nil
}

// Exists reports whether database (when collection is empty) or collection
// (within the adapter's one Postgres schema) is known.
func (a *Adapter) Exists(ctx context.Context, database, collection string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if collection == "" {
		return a.databases[database], nil
	}
	_, ok := a.collections[collection]
	return ok, nil
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func (a *Adapter) table(collection string) string {
	return a.db.Schema + "." + quoteIdent(collection)
}

// CreateCollection creates the physical table backing collection: a text
// primary key, a bigserial used for Find ordering and cursors, and a single
// jsonb column holding the whole document.
func (a *Adapter) CreateCollection(ctx context.Context, collection string, attributes []adapter.Attribute) error {
	a.mu.Lock()
	if _, ok := a.collections[collection]; ok {
		a.mu.Unlock()
		return fmt.Errorf("collection already exists: %s", collection)
	}
	a.mu.Unlock()

	query := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
			id text PRIMARY KEY,
			internal_id bigserial,
			document jsonb NOT NULL DEFAULT '{}'::jsonb
		)`, a.table(collection))
	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return err
	}

	a.mu.Lock()
	a.collections[collection] = &collectionSchema{attributes: append([]adapter.Attribute(nil), attributes...)}
	a.mu.Unlock()
	return nil
}

// DeleteCollection drops collection's table.
func (a *Adapter) DeleteCollection(ctx context.Context, collection string) error {
	query := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, a.table(collection))
	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return err
	}
	a.mu.Lock()
	delete(a.collections, collection)
	a.mu.Unlock()
	return nil
}

func (a *Adapter) mustSchema(collection string) (*collectionSchema, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection not found: %s", collection)
	}
	return c, nil
}

// CreateAttribute records attribute in collection's bookkeeping schema. No
// physical column is added: every attribute lives in the document jsonb
// column already.
func (a *Adapter) CreateAttribute(ctx context.Context, collection string, attribute adapter.Attribute) error {
	if _, err := a.mustSchema(collection); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.collections[collection].attributes = append(a.collections[collection].attributes, attribute)
	return nil
}

// UpdateAttribute replaces an existing attribute's bookkeeping descriptor.
func (a *Adapter) UpdateAttribute(ctx context.Context, collection string, attribute adapter.Attribute) error {
	c, err := a.mustSchema(collection)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, attr := range c.attributes {
		if strings.EqualFold(attr.ID, attribute.ID) {
			c.attributes[i] = attribute
			return nil
		}
	}
	return fmt.Errorf("attribute not found: %s", attribute.ID)
}

// DeleteAttribute removes attributeID from collection's bookkeeping schema
// and, physically, from every stored document's jsonb payload.
func (a *Adapter) DeleteAttribute(ctx context.Context, collection, attributeID string) error {
	c, err := a.mustSchema(collection)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET document = document - $1`, a.table(collection))
	if _, err := a.db.ExecContext(ctx, query, attributeID); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, attr := range c.attributes {
		if strings.EqualFold(attr.ID, attributeID) {
			c.attributes = append(c.attributes[:i], c.attributes[i+1:]...)
			break
		}
	}
	return nil
}

// RenameAttribute renames an attribute, rewriting its key on every stored
// document.
func (a *Adapter) RenameAttribute(ctx context.Context, collection, oldID, newID string) error {
	c, err := a.mustSchema(collection)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(
		`UPDATE %s SET document = (document - $1) || jsonb_build_object($2, document->$1) WHERE document ? $1`,
		a.table(collection))
	if _, err := a.db.ExecContext(ctx, query, oldID, newID); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, attr := range c.attributes {
		if strings.EqualFold(attr.ID, oldID) {
			c.attributes[i].ID = newID
		}
	}
	return nil
}

// CreateIndex adds a Postgres expression index over the jsonb document's
// attribute, plain or unique per index.Type.
func (a *Adapter) CreateIndex(ctx context.Context, collection string, index adapter.Index) error {
	c, err := a.mustSchema(collection)
	if err != nil {
		return err
	}
	unique := ""
	if index.Type == "unique" {
		unique = "UNIQUE "
	}
	var exprs []string
	for _, attr := range index.Attributes {
		exprs = append(exprs, fmt.Sprintf("(document->>%s)", pq.QuoteLiteral(attr)))
	}
	query := fmt.Sprintf(`CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)`,
		unique, quoteIdent(indexName(collection, index.ID)), a.table(collection), strings.Join(exprs, ", "))
	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	c.indexes = append(c.indexes, index)
	return nil
}

func indexName(collection, indexID string) string {
	return "docbase_idx_" + collection + "_" + indexID
}

// DeleteIndex drops indexID.
func (a *Adapter) DeleteIndex(ctx context.Context, collection, indexID string) error {
	c, err := a.mustSchema(collection)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`DROP INDEX IF EXISTS %s.%s`, a.db.Schema, quoteIdent(indexName(collection, indexID)))
	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, idx := range c.indexes {
		if strings.EqualFold(idx.ID, indexID) {
			c.indexes = append(c.indexes[:i], c.indexes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("index not found: %s", indexID)
}

// RenameIndex recreates indexID under newID (Postgres has no in-place
// rename for expression indexes with generated names, so this drops and
// recreates it).
func (a *Adapter) RenameIndex(ctx context.Context, collection, oldID, newID string) error {
	c, err := a.mustSchema(collection)
	if err != nil {
		return err
	}
	var found *adapter.Index
	for _, idx := range c.indexes {
		if strings.EqualFold(idx.ID, oldID) {
			copied := idx
			found = &copied
			break
		}
	}
	if found == nil {
		return fmt.Errorf("index not found: %s", oldID)
	}
	if err := a.DeleteIndex(ctx, collection, oldID); err != nil {
		return err
	}
	found.ID = newID
	return a.CreateIndex(ctx, collection, *found)
}

// CreateRelationship registers the relationship attribute's bookkeeping
// descriptor identically to CreateAttribute: relationship values (ids) are
// stored in the document jsonb column exactly like any other attribute.
func (a *Adapter) CreateRelationship(ctx context.Context, collection string, attribute adapter.Attribute) error {
	return a.CreateAttribute(ctx, collection, attribute)
}

// GetDocument returns the stored row for id, or nil if it does not exist.
func (a *Adapter) GetDocument(ctx context.Context, collection, id string, selections []string) (map[string]interface{}, error) {
	query := fmt.Sprintf(`SELECT document, internal_id FROM %s WHERE id = $1`, a.table(collection))
	var raw []byte
	var internalID int64
	err := a.db.QueryRowContext(ctx, query, id).Scan(&raw, &internalID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeRow(raw, internalID, id, selections)
}

func decodeRow(raw []byte, internalID int64, id string, selections []string) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	doc[model.AttributeID] = id
	doc[model.AttributeInternalID] = internalID
	if len(selections) == 0 {
		return doc, nil
	}
	out := make(map[string]interface{}, len(selections)+2)
	for _, key := range selections {
		if v, ok := doc[key]; ok {
			out[key] = v
		}
	}
	out[model.AttributeID] = id
	out[model.AttributeInternalID] = internalID
	return out, nil
}

// CreateDocument inserts document, which must carry a non-empty $id; an id
// that already exists in the collection is reported as an error.
func (a *Adapter) CreateDocument(ctx context.Context, collection string, document map[string]interface{}) (map[string]interface{}, error) {
	id, _ := document[model.AttributeID].(string)
	if id == "" {
		return nil, fmt.Errorf("document has no %s", model.AttributeID)
	}
	payload, err := marshalDocument(document)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, document) VALUES ($1, $2) RETURNING internal_id`, a.table(collection))
	var internalID int64
	if err := a.db.QueryRowContext(ctx, query, id, payload).Scan(&internalID); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("document already exists: %s", id)
		}
		return nil, err
	}
	return decodeRow(payload, internalID, id, nil)
}

func marshalDocument(document map[string]interface{}) ([]byte, error) {
	clean := make(map[string]interface{}, len(document))
	for k, v := range document {
		if k == model.AttributeID || k == model.AttributeInternalID {
			continue
		}
		clean[k] = v
	}
	return json.Marshal(clean)
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}

// UpdateDocument merges document's keys onto the stored row for id.
func (a *Adapter) UpdateDocument(ctx context.Context, collection, id string, document map[string]interface{}) (map[string]interface{}, error) {
	payload, err := marshalDocument(document)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`UPDATE %s SET document = document || $2::jsonb WHERE id = $1 RETURNING document, internal_id`, a.table(collection))
	var raw []byte
	var internalID int64
	err = a.db.QueryRowContext(ctx, query, id, payload).Scan(&raw, &internalID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return decodeRow(raw, internalID, id, nil)
}

// DeleteDocument removes id from collection.
func (a *Adapter) DeleteDocument(ctx context.Context, collection, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, a.table(collection))
	_, err := a.db.ExecContext(ctx, query, id)
	return err
}

// IncreaseDocumentAttribute atomically adds delta to attribute's numeric
// value and returns the resulting value. The [min, max] bound, when given, is
// enforced by the UPDATE's WHERE clause so concurrent callers never observe a
// torn increment: a row that would violate the bound matches zero rows and
// the call returns an error, leaving the stored value unchanged.
func (a *Adapter) IncreaseDocumentAttribute(ctx context.Context, collection, id, attribute string, delta float64, min, max *float64) (float64, error) {
	table := a.table(collection)
	expr := fmt.Sprintf("COALESCE((document->>%s)::double precision, 0) + $2", pq.QuoteLiteral(attribute))
	query := fmt.Sprintf(
		`UPDATE %s SET document = jsonb_set(document, %s, to_jsonb(%s)) WHERE id = $1`,
		table, pq.QuoteLiteral("{"+attribute+"}"), expr)

	var clamp string
	if max != nil {
		clamp += fmt.Sprintf(" AND (%s) <= %f", expr, *max)
	}
	if min != nil {
		clamp += fmt.Sprintf(" AND (%s) >= %f", expr, *min)
	}
	query += clamp + fmt.Sprintf(" RETURNING (document->>%s)::double precision", pq.QuoteLiteral(attribute))

	var result float64
	err := a.db.QueryRowContext(ctx, query, id, delta).Scan(&result)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("increase/decrease would violate bound, or document not found: %s", id)
	}
	if err != nil {
		return 0, err
	}
	return result, nil
}

// Find evaluates queries against collection's rows and returns the matching
// documents, ordered, paginated and sliced per limit/offset/cursor.
func (a *Adapter) Find(ctx context.Context, collection string, queries []model.Query, limit, offset int, orderAttributes []string, orderTypes []model.Order, cursor string, direction model.CursorDirection) ([]map[string]interface{}, error) {
	where, args := buildWhere(queries, 1)

	if cursor != "" {
		cmp := ">"
		if direction == model.CursorBefore {
			cmp = "<"
		}
		args = append(args, cursor)
		where = appendClause(where, fmt.Sprintf(
			`internal_id %s (SELECT internal_id FROM %s WHERE id = $%d)`, cmp, a.table(collection), len(args)))
	}

	order := "ORDER BY internal_id ASC"
	if len(orderAttributes) > 0 {
		var parts []string
		for i, attr := range orderAttributes {
			dir := "ASC"
			if i < len(orderTypes) && orderTypes[i] == model.OrderDesc {
				dir = "DESC"
			}
			parts = append(parts, fmt.Sprintf("document->>%s %s", pq.QuoteLiteral(attr), dir))
		}
		order = "ORDER BY " + strings.Join(parts, ", ")
	}

	query := fmt.Sprintf(`SELECT id, document, internal_id FROM %s%s %s LIMIT %d OFFSET %d`,
		a.table(collection), where, order, sqlLimit(limit), offset)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]interface{}
	for rows.Next() {
		var id string
		var raw []byte
		var internalID int64
		if err := rows.Scan(&id, &raw, &internalID); err != nil {
			return nil, err
		}
		doc, err := decodeRow(raw, internalID, id, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func sqlLimit(limit int) int {
	if limit <= 0 {
		return 1 << 30
	}
	return limit
}

// Count returns the number of documents matching queries, capped at max
// rows when max > 0.
func (a *Adapter) Count(ctx context.Context, collection string, queries []model.Query, max int) (int, error) {
	where, args := buildWhere(queries, 1)
	query := fmt.Sprintf(`SELECT count(*) FROM %s%s`, a.table(collection), where)
	if max > 0 {
		query = fmt.Sprintf(`SELECT count(*) FROM (SELECT 1 FROM %s%s LIMIT %d) t`, a.table(collection), where, max)
	}
	var count int
	if err := a.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Sum returns the sum of attribute across documents matching queries,
// capped at the first max rows examined when max > 0.
func (a *Adapter) Sum(ctx context.Context, collection, attribute string, queries []model.Query, max int) (float64, error) {
	where, args := buildWhere(queries, 1)
	expr := fmt.Sprintf("COALESCE((document->>%s)::double precision, 0)", pq.QuoteLiteral(attribute))
	query := fmt.Sprintf(`SELECT COALESCE(SUM(%s), 0) FROM %s%s`, expr, a.table(collection), where)
	if max > 0 {
		query = fmt.Sprintf(`SELECT COALESCE(SUM(%s), 0) FROM (SELECT document FROM %s%s LIMIT %d) t`, expr, a.table(collection), where, max)
	}
	var sum float64
	if err := a.db.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

func appendClause(where, clause string) string {
	if where == "" {
		return " WHERE " + clause
	}
	return where + " AND " + clause
}

// buildWhere renders queries into a SQL WHERE clause (or "" for no filter)
// and its positional arguments, starting placeholders at argOffset.
func buildWhere(queries []model.Query, argOffset int) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", argOffset+len(args)-1)
	}

	for _, q := range queries {
		attr := pq.QuoteLiteral(q.GetAttribute())
		field := fmt.Sprintf("document->>%s", attr)
		values := q.GetValues()

		switch q.GetMethod() {
		case model.MethodEqual:
			placeholders := make([]string, len(values))
			for i, v := range values {
				placeholders[i] = next(fmt.Sprint(v))
			}
			clauses = append(clauses, fmt.Sprintf("%s = ANY(ARRAY[%s])", field, strings.Join(placeholders, ",")))
		case model.MethodNotEqual:
			placeholders := make([]string, len(values))
			for i, v := range values {
				placeholders[i] = next(fmt.Sprint(v))
			}
			clauses = append(clauses, fmt.Sprintf("NOT (%s = ANY(ARRAY[%s]))", field, strings.Join(placeholders, ",")))
		case model.MethodIsNull:
			clauses = append(clauses, field+" IS NULL")
		case model.MethodIsNotNull:
			clauses = append(clauses, field+" IS NOT NULL")
		case model.MethodLessThan:
			clauses = append(clauses, fmt.Sprintf("(%s)::double precision < %s::double precision", field, next(values[0])))
		case model.MethodLessThanEqual:
			clauses = append(clauses, fmt.Sprintf("(%s)::double precision <= %s::double precision", field, next(values[0])))
		case model.MethodGreaterThan:
			clauses = append(clauses, fmt.Sprintf("(%s)::double precision > %s::double precision", field, next(values[0])))
		case model.MethodGreaterEqual:
			clauses = append(clauses, fmt.Sprintf("(%s)::double precision >= %s::double precision", field, next(values[0])))
		case model.MethodStartsWith:
			if len(values) > 0 {
				clauses = append(clauses, fmt.Sprintf("%s LIKE %s", field, next(fmt.Sprint(values[0])+"%")))
			}
		case model.MethodEndsWith:
			if len(values) > 0 {
				clauses = append(clauses, fmt.Sprintf("%s LIKE %s", field, next("%"+fmt.Sprint(values[0]))))
			}
		case model.MethodContains, model.MethodSearch:
			if len(values) > 0 {
				clauses = append(clauses, fmt.Sprintf("%s ILIKE %s", field, next("%"+fmt.Sprint(values[0])+"%")))
			}
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// GetLimitForAttributes returns the maximum number of attributes a
// collection may carry.
func (a *Adapter) GetLimitForAttributes() int { return defaultLimitAttributes }

// GetLimitForIndexes returns the maximum number of indexes a collection may carry.
func (a *Adapter) GetLimitForIndexes() int { return defaultLimitIndexes }

// GetLimitForString returns the maximum size of a string attribute.
func (a *Adapter) GetLimitForString() int { return defaultLimitString }

// GetLimitForInt returns the maximum size, in bytes, of an integer attribute.
func (a *Adapter) GetLimitForInt() int { return defaultLimitInt }

// GetCountOfAttributes returns the number of attributes currently tracked
// for collection.
func (a *Adapter) GetCountOfAttributes(collection string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.collections[collection]
	if !ok {
		return 0
	}
	return len(c.attributes)
}

// GetCountOfIndexes returns the number of indexes currently tracked for
// collection.
func (a *Adapter) GetCountOfIndexes(collection string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.collections[collection]
	if !ok {
		return 0
	}
	return len(c.indexes)
}

// GetCountOfDefaultAttributes returns the number of attributes every new
// collection carries before any user-defined attribute is added (the
// fixed id/internal_id columns are not user attributes).
func (a *Adapter) GetCountOfDefaultAttributes() int { return 0 }

// GetCountOfDefaultIndexes returns the number of indexes every new
// collection carries before any user-defined index is added.
func (a *Adapter) GetCountOfDefaultIndexes() int { return 0 }

// GetAttributeWidth returns the current total row width, in bytes, for
// collection, summed from the tracked attribute sizes.
func (a *Adapter) GetAttributeWidth(collection string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.collections[collection]
	if !ok {
		return 0
	}
	width := 0
	for _, attr := range c.attributes {
		width += attr.Size
	}
	return width
}

// GetDocumentSizeLimit returns the maximum size, in bytes, of a whole
// document row.
func (a *Adapter) GetDocumentSizeLimit() int { return defaultDocumentSize }

// GetSupportForIndex reports whether the adapter can maintain secondary indexes.
func (a *Adapter) GetSupportForIndex() bool { return true }

// GetSupportForUniqueIndex reports whether the adapter can enforce unique indexes.
func (a *Adapter) GetSupportForUniqueIndex() bool { return true }

// GetSupportForCasting reports whether the adapter casts stored values to
// their declared type itself. Values round-trip through jsonb, which
// already preserves JSON's own type distinctions (number/string/bool), so
// the codec pipeline's cast phase is only needed for the float64-vs-int64
// ambiguity JSON numbers carry — reported false to let the codec normalize
// that the same way it does for the reference memory adapter.
func (a *Adapter) GetSupportForCasting() bool { return false }

// GetKeywords returns the reserved words the schema manager should refuse
// as attribute or index identifiers: the names of this adapter's own fixed
// table columns (id, internal_id, document).
func (a *Adapter) GetKeywords() []string {
	return []string{"id", "internal_id", "document"}
}
