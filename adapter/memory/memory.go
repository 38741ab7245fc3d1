// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package memory implements the adapter.Adapter contract entirely
// in-process. It is the reference adapter: simple enough to read as
// documentation for the contract, and fast enough to drive the document
// engine's own unit tests without a real backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dalarub/docbase/adapter"
	"github.com/dalarub/docbase/model"
)

// default capability limits, chosen to be generous enough that they never
// bind in tests while still being finite (a real backend always has some
// ceiling; a reference adapter that reports infinite limits would let the
// schema manager's limit checks go untested).
const (
	defaultLimitAttributes = 1024
	defaultLimitIndexes    = 64
	defaultLimitString     = 16384
	defaultLimitInt        = 8
	defaultDocumentSize    = 1 << 20
)

type collectionState struct {
	attributes []adapter.Attribute
	indexes    []adapter.Index
	documents  map[string]map[string]interface{}
	sequence   map[string]int64
	nextSeq    int64
}

// Adapter is an in-memory adapter.Adapter.
type Adapter struct {
	mu              sync.RWMutex
	namespace       string
	defaultDatabase string
	databases       map[string]bool
	collections     map[string]*collectionState
}

// New returns an empty Adapter.
func New() *Adapter {
	return &Adapter{
		databases:   map[string]bool{},
		collections: map[string]*collectionState{},
	}
}

// SetNamespace sets the namespace used in cache keys and, where relevant,
// table prefixes. The memory adapter itself does not use it beyond storing it.
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

// Ping always succeeds: there is no connection to lose.
func (a *Adapter) Ping(ctx context.Context) error { return nil }

// Create registers a logical database name.
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
	sort.Strings(names)
	return names, nil
}

// Exists reports whether database (and, if given, collection within it)
// exists. The memory adapter does not segregate collections by database;
// database existence is tracked only through Create/Delete.
func (a *Adapter) Exists(ctx context.Context, database, collection string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if collection == "" {
		return a.databases[database], nil
	}
	_, ok := a.collections[collection]
	return ok, nil
}

// CreateCollection registers an empty collection with the given attributes.
func (a *Adapter) CreateCollection(ctx context.Context, collection string, attributes []adapter.Attribute) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.collections[collection]; ok {
		return fmt.Errorf("collection already exists: %s", collection)
	}
	a.collections[collection] = &collectionState{
		attributes: append([]adapter.Attribute(nil), attributes...),
		documents:  map[string]map[string]interface{}{},
		sequence:   map[string]int64{},
	}
	return nil
}

// DeleteCollection drops a collection and all of its documents.
func (a *Adapter) DeleteCollection(ctx context.Context, collection string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.collections, collection)
	return nil
}

func (a *Adapter) mustCollection(collection string) (*collectionState, error) {
	c, ok := a.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection not found: %s", collection)
	}
	return c, nil
}

// CreateAttribute appends attribute to collection's physical schema.
func (a *Adapter) CreateAttribute(ctx context.Context, collection string, attribute adapter.Attribute) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, err := a.mustCollection(collection)
	if err != nil {
		return err
	}
	c.attributes = append(c.attributes, attribute)
	return nil
}

// UpdateAttribute replaces an existing attribute's physical descriptor.
func (a *Adapter) UpdateAttribute(ctx context.Context, collection string, attribute adapter.Attribute) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, err := a.mustCollection(collection)
	if err != nil {
		return err
	}
	for i, attr := range c.attributes {
		if strings.EqualFold(attr.ID, attribute.ID) {
			c.attributes[i] = attribute
			return nil
		}
	}
	return fmt.Errorf("attribute not found: %s", attribute.ID)
}

// DeleteAttribute removes attributeID from collection's physical schema and
// every document's stored value for it.
func (a *Adapter) DeleteAttribute(ctx context.Context, collection, attributeID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, err := a.mustCollection(collection)
	if err != nil {
		return err
	}
	for i, attr := range c.attributes {
		if strings.EqualFold(attr.ID, attributeID) {
			c.attributes = append(c.attributes[:i], c.attributes[i+1:]...)
			break
		}
	}
	for _, doc := range c.documents {
		delete(doc, attributeID)
	}
	return nil
}

// RenameAttribute renames an attribute and its value on every document.
func (a *Adapter) RenameAttribute(ctx context.Context, collection, oldID, newID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, err := a.mustCollection(collection)
	if err != nil {
		return err
	}
	for i, attr := range c.attributes {
		if strings.EqualFold(attr.ID, oldID) {
			c.attributes[i].ID = newID
		}
	}
	for _, doc := range c.documents {
		if value, ok := doc[oldID]; ok {
			doc[newID] = value
			delete(doc, oldID)
		}
	}
	return nil
}

// CreateIndex appends index to collection's physical schema.
func (a *Adapter) CreateIndex(ctx context.Context, collection string, index adapter.Index) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, err := a.mustCollection(collection)
	if err != nil {
		return err
	}
	c.indexes = append(c.indexes, index)
	return nil
}

// DeleteIndex removes indexID from collection's physical schema.
func (a *Adapter) DeleteIndex(ctx context.Context, collection, indexID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, err := a.mustCollection(collection)
	if err != nil {
		return err
	}
	for i, idx := range c.indexes {
		if strings.EqualFold(idx.ID, indexID) {
			c.indexes = append(c.indexes[:i], c.indexes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("index not found: %s", indexID)
}

// RenameIndex renames an index.
func (a *Adapter) RenameIndex(ctx context.Context, collection, oldID, newID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, err := a.mustCollection(collection)
	if err != nil {
		return err
	}
	for i, idx := range c.indexes {
		if strings.EqualFold(idx.ID, oldID) {
			c.indexes[i].ID = newID
			return nil
		}
	}
	return fmt.Errorf("index not found: %s", oldID)
}

// CreateRelationship registers the relationship attribute's physical
// descriptor, identically to CreateAttribute: the memory adapter stores
// relationship attribute values (ids) exactly like any other attribute.
func (a *Adapter) CreateRelationship(ctx context.Context, collection string, attribute adapter.Attribute) error {
	return a.CreateAttribute(ctx, collection, attribute)
}

// GetDocument returns the stored row for id, or nil if it does not exist.
// selections, if non-empty, restrict the returned keys.
func (a *Adapter) GetDocument(ctx context.Context, collection, id string, selections []string) (map[string]interface{}, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, err := a.mustCollection(collection)
	if err != nil {
		return nil, err
	}
	row, ok := c.documents[id]
	if !ok {
		return nil, nil
	}
	return selectRow(row, selections), nil
}

// CreateDocument stores document under its $id, assigning an internal
// sequence number used to order Find results and resolve cursors.
func (a *Adapter) CreateDocument(ctx context.Context, collection string, document map[string]interface{}) (map[string]interface{}, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, err := a.mustCollection(collection)
	if err != nil {
		return nil, err
	}
	id, _ := document[model.AttributeID].(string)
	if id == "" {
		return nil, fmt.Errorf("document has no %s", model.AttributeID)
	}
	if _, exists := c.documents[id]; exists {
		return nil, fmt.Errorf("document already exists: %s", id)
	}
	row := cloneRow(document)
	c.nextSeq++
	row[model.AttributeInternalID] = c.nextSeq
	c.documents[id] = row
	c.sequence[id] = c.nextSeq
	return cloneRow(row), nil
}

// UpdateDocument merges document's keys onto the stored row for id.
func (a *Adapter) UpdateDocument(ctx context.Context, collection, id string, document map[string]interface{}) (map[string]interface{}, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, err := a.mustCollection(collection)
	if err != nil {
		return nil, err
	}
	row, ok := c.documents[id]
	if !ok {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	for k, v := range document {
		row[k] = v
	}
	return cloneRow(row), nil
}

// DeleteDocument removes id from collection.
func (a *Adapter) DeleteDocument(ctx context.Context, collection, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, err := a.mustCollection(collection)
	if err != nil {
		return err
	}
	delete(c.documents, id)
	delete(c.sequence, id)
	return nil
}

// IncreaseDocumentAttribute adds delta to attribute's numeric value
// (subtract by passing a negative delta) and returns the resulting value.
// When the result would exceed max or fall below min (when given), it
// returns an error and leaves the stored value unchanged.
func (a *Adapter) IncreaseDocumentAttribute(ctx context.Context, collection, id, attribute string, delta float64, min, max *float64) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, err := a.mustCollection(collection)
	if err != nil {
		return 0, err
	}
	row, ok := c.documents[id]
	if !ok {
		return 0, fmt.Errorf("document not found: %s", id)
	}
	current := asFloat(row[attribute])
	result := current + delta
	if max != nil && result > *max {
		return 0, fmt.Errorf("increase would exceed maximum %v", *max)
	}
	if min != nil && result < *min {
		return 0, fmt.Errorf("decrease would exceed minimum %v", *min)
	}
	row[attribute] = result
	return result, nil
}

// Find evaluates queries against collection's documents and returns the
// matching rows, ordered, paginated, and sliced per limit/offset/cursor.
func (a *Adapter) Find(ctx context.Context, collection string, queries []model.Query, limit, offset int, orderAttributes []string, orderTypes []model.Order, cursor string, direction model.CursorDirection) ([]map[string]interface{}, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, err := a.mustCollection(collection)
	if err != nil {
		return nil, err
	}

	rows := a.filteredRows(c, queries)
	sortRows(rows, orderAttributes, orderTypes)

	if cursor != "" {
		rows = applyCursor(rows, cursor, direction)
	}

	if offset > 0 && offset < len(rows) {
		rows = rows[offset:]
	} else if offset >= len(rows) {
		rows = nil
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	out := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		out[i] = cloneRow(row)
	}
	return out, nil
}

// Count returns the number of documents matching queries, capped at max
// rows examined when max > 0.
func (a *Adapter) Count(ctx context.Context, collection string, queries []model.Query, max int) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, err := a.mustCollection(collection)
	if err != nil {
		return 0, err
	}
	rows := a.filteredRows(c, queries)
	if max > 0 && len(rows) > max {
		return max, nil
	}
	return len(rows), nil
}

// Sum returns the sum of attribute across documents matching queries,
// capped at the first max rows examined when max > 0.
func (a *Adapter) Sum(ctx context.Context, collection, attribute string, queries []model.Query, max int) (float64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, err := a.mustCollection(collection)
	if err != nil {
		return 0, err
	}
	rows := a.filteredRows(c, queries)
	if max > 0 && len(rows) > max {
		rows = rows[:max]
	}
	var sum float64
	for _, row := range rows {
		sum += asFloat(row[attribute])
	}
	return sum, nil
}

func (a *Adapter) filteredRows(c *collectionState, queries []model.Query) []map[string]interface{} {
	ids := make([]string, 0, len(c.documents))
	for id := range c.documents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return c.sequence[ids[i]] < c.sequence[ids[j]] })

	var rows []map[string]interface{}
	for _, id := range ids {
		row := c.documents[id]
		if matchesAll(row, queries) {
			rows = append(rows, row)
		}
	}
	return rows
}

func selectRow(row map[string]interface{}, selections []string) map[string]interface{} {
	if len(selections) == 0 {
		return cloneRow(row)
	}
	out := make(map[string]interface{}, len(selections))
	for _, key := range selections {
		if v, ok := row[key]; ok {
			out[key] = v
		}
	}
	out[model.AttributeID] = row[model.AttributeID]
	out[model.AttributeInternalID] = row[model.AttributeInternalID]
	return out
}

func cloneRow(row map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func applyCursor(rows []map[string]interface{}, cursor string, direction model.CursorDirection) []map[string]interface{} {
	pos := -1
	for i, row := range rows {
		if row[model.AttributeID] == cursor {
			pos = i
			break
		}
	}
	if pos < 0 {
		return rows
	}
	if direction == model.CursorBefore {
		return rows[:pos]
	}
	return rows[pos+1:]
}

func sortRows(rows []map[string]interface{}, attributes []string, orders []model.Order) {
	if len(attributes) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for k, attr := range attributes {
			order := model.OrderAsc
			if k < len(orders) {
				order = orders[k]
			}
			cmp := compareValues(rows[i][attr], rows[j][attr])
			if cmp == 0 {
				continue
			}
			if order == model.OrderDesc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareValues(a, b interface{}) int {
	af, aok := toFloatOK(a)
	bf, bok := toFloatOK(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as := fmt.Sprintf("%v", a)
	bs := fmt.Sprintf("%v", b)
	return strings.Compare(as, bs)
}

func toFloatOK(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asFloat(v interface{}) float64 {
	f, _ := toFloatOK(v)
	return f
}

func matchesAll(row map[string]interface{}, queries []model.Query) bool {
	for _, q := range queries {
		if !matches(row, q) {
			return false
		}
	}
	return true
}

func matches(row map[string]interface{}, q model.Query) bool {
	value, present := row[q.GetAttribute()]
	values := q.GetValues()
	switch q.GetMethod() {
	case model.MethodEqual:
		for _, want := range values {
			if valueEqual(value, want) {
				return true
			}
		}
		return false
	case model.MethodNotEqual:
		for _, want := range values {
			if valueEqual(value, want) {
				return false
			}
		}
		return true
	case model.MethodIsNull:
		return !present || value == nil
	case model.MethodIsNotNull:
		return present && value != nil
	case model.MethodLessThan:
		return len(values) == 1 && compareValues(value, values[0]) < 0
	case model.MethodLessThanEqual:
		return len(values) == 1 && compareValues(value, values[0]) <= 0
	case model.MethodGreaterThan:
		return len(values) == 1 && compareValues(value, values[0]) > 0
	case model.MethodGreaterEqual:
		return len(values) == 1 && compareValues(value, values[0]) >= 0
	case model.MethodStartsWith:
		s, _ := value.(string)
		for _, want := range values {
			if prefix, ok := want.(string); ok && strings.HasPrefix(s, prefix) {
				return true
			}
		}
		return false
	case model.MethodEndsWith:
		s, _ := value.(string)
		for _, want := range values {
			if suffix, ok := want.(string); ok && strings.HasSuffix(s, suffix) {
				return true
			}
		}
		return false
	case model.MethodContains, model.MethodSearch:
		s, _ := value.(string)
		for _, want := range values {
			if needle, ok := want.(string); ok && strings.Contains(strings.ToLower(s), strings.ToLower(needle)) {
				return true
			}
		}
		if arr, ok := value.([]interface{}); ok {
			for _, want := range values {
				for _, item := range arr {
					if valueEqual(item, want) {
						return true
					}
				}
			}
		}
		return false
	default:
		return true
	}
}

func valueEqual(a, b interface{}) bool {
	if af, aok := toFloatOK(a); aok {
		if bf, bok := toFloatOK(b); bok {
			return af == bf
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
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

// GetCountOfAttributes returns the number of physical attributes currently
// stored for collection.
func (a *Adapter) GetCountOfAttributes(collection string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.collections[collection]
	if !ok {
		return 0
	}
	return len(c.attributes)
}

// GetCountOfIndexes returns the number of physical indexes currently stored
// for collection.
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
// memory adapter keeps no implicit default attributes).
func (a *Adapter) GetCountOfDefaultAttributes() int { return 0 }

// GetCountOfDefaultIndexes returns the number of indexes every new
// collection carries before any user-defined index is added.
func (a *Adapter) GetCountOfDefaultIndexes() int { return 0 }

// GetAttributeWidth returns the current total row width, in bytes, for collection.
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

// GetDocumentSizeLimit returns the maximum size, in bytes, of a whole document row.
func (a *Adapter) GetDocumentSizeLimit() int { return defaultDocumentSize }

// GetSupportForIndex reports whether the adapter can maintain secondary indexes.
func (a *Adapter) GetSupportForIndex() bool { return true }

// GetSupportForUniqueIndex reports whether the adapter can enforce unique indexes.
func (a *Adapter) GetSupportForUniqueIndex() bool { return true }

// GetSupportForCasting reports whether the adapter casts stored values to
// their declared type itself; the memory adapter stores values verbatim and
// relies on the codec pipeline's cast phase instead.
func (a *Adapter) GetSupportForCasting() bool { return false }

// GetKeywords returns the reserved words the schema manager should refuse
// as attribute or index identifiers. The memory adapter has none of its own.
func (a *Adapter) GetKeywords() []string { return nil }

var _ adapter.Adapter = (*Adapter)(nil)
