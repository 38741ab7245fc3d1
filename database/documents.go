// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package database

import (
	"context"

	"github.com/dalarub/docbase/core/access"
	"github.com/dalarub/docbase/core/logger"
	"github.com/dalarub/docbase/model"
)

// getCollection resolves collection's logical schema. "_metadata" itself
// short-circuits to the hard-coded bootstrap description (invariant 7);
// every other collection is read out of the "_metadata" collection like any
// other document.
func (d *Database) getCollection(ctx context.Context, id string) (Collection, error) {
	if id == MetadataCollectionID {
		return bootstrapMetadataCollection(), nil
	}
	doc, err := d.getDocument(ctx, MetadataCollectionID, id, nil)
	if err != nil {
		return Collection{}, err
	}
	if doc.IsEmpty() {
		return Collection{}, newError(ErrGeneric, "collection not found: %s", id)
	}
	return documentToCollection(doc)
}

// validateSelections rejects a select query naming an attribute collection
// does not declare.
func validateSelections(collection Collection, selections []string) error {
	for _, name := range selections {
		if containsFold(internalAttributes, name) || name == model.AttributeID {
			continue
		}
		if _, ok := collection.FindAttribute(name); !ok {
			return newError(ErrGeneric, "select of unknown attribute: %s", name)
		}
	}
	return nil
}

// GetDocument is the document engine's read operation (C7). queries may
// carry select directives restricting the returned attributes; every other
// query method is ignored here (find/count/sum consume them instead).
func (d *Database) GetDocument(ctx context.Context, collection, id string, queries []model.Query) (*model.Document, error) {
	return d.getDocument(ctx, collection, id, queries)
}

func (d *Database) getDocument(ctx context.Context, collectionID, id string, queries []model.Query) (*model.Document, error) {
	return d.getDocumentDepth(ctx, collectionID, id, queries, newReadCursor(), 0)
}

func (d *Database) getDocumentDepth(ctx context.Context, collectionID, id string, queries []model.Query, cursor *readCursor, depth int) (*model.Document, error) {
	if collectionID == MetadataCollectionID && id == MetadataCollectionID {
		bootDoc, err := collectionToDocument(bootstrapMetadataCollection())
		if err != nil {
			return nil, err
		}
		return d.codec.decode(bootstrapMetadataCollection(), bootDoc, nil)
	}
	if id == "" {
		return model.NewDocument(), nil
	}

	col, err := d.getCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	grouped := model.GroupByType(queries)
	selections := model.SelectedAttributes(grouped.Selections)
	if err := validateSelections(col, selections); err != nil {
		return nil, err
	}

	if cached, ok := d.loadCached(ctx, collectionID, id, selections); ok {
		if !d.authorize(ctx, collectionID, cached, access.PermissionRead) {
			return model.NewDocument(), nil
		}
		return cached, nil
	}

	fullSelections := selections
	if len(selections) > 0 {
		fullSelections = append(append([]string(nil), selections...), internalAttributes...)
		fullSelections = append(fullSelections, model.AttributePermissions)
	}
	row, err := d.adapter.GetDocument(ctx, collectionID, id, fullSelections)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return model.NewDocument(), nil
	}

	doc := model.NewDocumentFromMap(row)
	doc.SetAttribute(model.AttributeCollection, collectionID, model.SetAssign)

	cursor.depth = depth
	if err := d.resolveRead(ctx, col, doc, cursor); err != nil {
		return nil, err
	}

	if !d.adapter.GetSupportForCasting() {
		if err := d.codec.cast(col, doc); err != nil {
			return nil, err
		}
	}

	decoded, err := d.codec.decode(col, doc, selections)
	if err != nil {
		return nil, err
	}

	if !d.authorize(ctx, collectionID, decoded, access.PermissionRead) {
		return model.NewDocument(), nil
	}

	d.saveCached(ctx, collectionID, id, selections, decoded)
	d.events.Trigger(ctx, EventDocumentRead, decoded)
	logger.FromContext(ctx).Debugln("database: getDocument", collectionID, id)
	return decoded, nil
}

// CreateDocument is the document engine's create operation (C7). No
// explicit permission check runs here: the caller is trusted to have
// assembled a document it is permitted to create; the gate enforces on
// every subsequent operation instead.
func (d *Database) CreateDocument(ctx context.Context, collection string, doc *model.Document) (*model.Document, error) {
	return d.createDocument(ctx, collection, doc)
}

func (d *Database) createDocument(ctx context.Context, collectionID string, doc *model.Document) (*model.Document, error) {
	col, err := d.getCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	working := doc.Clone()
	if working.GetID() == "" {
		working.SetID(model.UniqueID())
	}
	working.SetAttribute(model.AttributeCollection, collectionID, model.SetAssign)
	now := model.Now()
	working.SetAttribute(model.AttributeCreatedAt, now, model.SetAssign)
	working.SetAttribute(model.AttributeUpdatedAt, now, model.SetAssign)

	if err := d.resolveWrite(ctx, col, working); err != nil {
		return nil, err
	}

	encoded, err := d.codec.encode(col, working)
	if err != nil {
		return nil, err
	}

	structure, err := structureFor(col)
	if err != nil {
		return nil, err
	}
	if !structure.IsValid(encoded.GetArrayCopy()) {
		return nil, newError(ErrStructure, "document does not match collection %s: %s", collectionID, structure.GetDescription())
	}

	row, err := d.adapter.CreateDocument(ctx, collectionID, encoded.GetArrayCopy())
	if err != nil {
		return nil, err
	}

	result := model.NewDocumentFromMap(row)
	if !d.adapter.GetSupportForCasting() {
		if err := d.codec.cast(col, result); err != nil {
			return nil, err
		}
	}
	decoded, err := d.codec.decode(col, result, nil)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debugln("database: createDocument", collectionID, decoded.GetID())
	if collectionID == MetadataCollectionID {
		return decoded, nil
	}
	d.events.Trigger(ctx, EventDocumentCreate, decoded)
	return decoded, nil
}

// UpdateDocument is the document engine's update operation (C7). Update
// permission is checked against the document's prior, stored permission
// set, not against whatever the caller's candidate document claims.
func (d *Database) UpdateDocument(ctx context.Context, collection, id string, doc *model.Document) (*model.Document, error) {
	return d.updateDocument(ctx, collection, id, doc)
}

func (d *Database) updateDocument(ctx context.Context, collectionID, id string, doc *model.Document) (*model.Document, error) {
	if id == "" {
		return nil, newError(ErrGeneric, "updateDocument: id is required")
	}
	col, err := d.getCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	var prior *model.Document
	if err := d.withSkip(func() error {
		var err error
		prior, err = d.getDocument(ctx, collectionID, id, nil)
		return err
	}); err != nil {
		return nil, err
	}
	if prior.IsEmpty() {
		return nil, newError(ErrGeneric, "document not found: %s/%s", collectionID, id)
	}
	if !d.authorize(ctx, collectionID, prior, access.PermissionUpdate) {
		return nil, newError(ErrAuthorization, "update denied: %s/%s", collectionID, id)
	}

	working := prior.Clone()
	for _, key := range doc.Keys() {
		value, _ := doc.GetAttribute(key)
		working.SetAttribute(key, value, model.SetAssign)
	}
	working.SetID(id)
	working.SetAttribute(model.AttributeCollection, collectionID, model.SetAssign)
	working.SetAttribute(model.AttributeUpdatedAt, model.Now(), model.SetAssign)

	if err := d.resolveWrite(ctx, col, working); err != nil {
		return nil, err
	}

	encoded, err := d.codec.encode(col, working)
	if err != nil {
		return nil, err
	}

	structure, err := structureFor(col)
	if err != nil {
		return nil, err
	}
	if !structure.IsValid(encoded.GetArrayCopy()) {
		return nil, newError(ErrStructure, "document does not match collection %s: %s", collectionID, structure.GetDescription())
	}

	row, err := d.adapter.UpdateDocument(ctx, collectionID, id, encoded.GetArrayCopy())
	if err != nil {
		return nil, err
	}

	d.purgeFamily(ctx, collectionID, id)

	result := model.NewDocumentFromMap(row)
	if !d.adapter.GetSupportForCasting() {
		if err := d.codec.cast(col, result); err != nil {
			return nil, err
		}
	}
	decoded, err := d.codec.decode(col, result, nil)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debugln("database: updateDocument", collectionID, id)
	if collectionID != MetadataCollectionID {
		d.events.Trigger(ctx, EventDocumentUpdate, decoded)
	}
	return decoded, nil
}

// DeleteDocument is the document engine's delete operation (C7). Delete
// permission is checked against the document's prior, stored permission
// set, identically to update.
func (d *Database) DeleteDocument(ctx context.Context, collection, id string) error {
	return d.deleteDocument(ctx, collection, id)
}

func (d *Database) deleteDocument(ctx context.Context, collectionID, id string) error {
	var prior *model.Document
	if err := d.withSkip(func() error {
		var err error
		prior, err = d.getDocument(ctx, collectionID, id, nil)
		return err
	}); err != nil {
		return err
	}
	if prior.IsEmpty() {
		return newError(ErrGeneric, "document not found: %s/%s", collectionID, id)
	}
	if !d.authorize(ctx, collectionID, prior, access.PermissionDelete) {
		return newError(ErrAuthorization, "delete denied: %s/%s", collectionID, id)
	}

	if err := d.adapter.DeleteDocument(ctx, collectionID, id); err != nil {
		return err
	}
	d.purgeFamily(ctx, collectionID, id)

	logger.FromContext(ctx).Debugln("database: deleteDocument", collectionID, id)
	if collectionID != MetadataCollectionID {
		d.events.Trigger(ctx, EventDocumentDelete, prior)
	}
	return nil
}

// changeDocumentAttribute is the shared implementation behind
// IncreaseDocumentAttribute and DecreaseDocumentAttribute: value must be
// positive, the target attribute must be numeric, and bound (max for an
// increase, min for a decrease) is enforced against the combined result.
func (d *Database) changeDocumentAttribute(ctx context.Context, collectionID, id, attributeID string, value float64, bound *float64, decrease bool) (float64, error) {
	if value <= 0 {
		return 0, newError(ErrGeneric, "value for increase/decrease must be positive: %v", value)
	}
	col, err := d.getCollection(ctx, collectionID)
	if err != nil {
		return 0, err
	}
	attr, ok := col.FindAttribute(attributeID)
	if !ok || (attr.Type != TypeInteger && attr.Type != TypeDouble) {
		return 0, newError(ErrGeneric, "attribute is not numeric: %s", attributeID)
	}

	var prior *model.Document
	if err := d.withSkip(func() error {
		var err error
		prior, err = d.getDocument(ctx, collectionID, id, nil)
		return err
	}); err != nil {
		return 0, err
	}
	if prior.IsEmpty() {
		return 0, newError(ErrGeneric, "document not found: %s/%s", collectionID, id)
	}
	if !d.authorize(ctx, collectionID, prior, access.PermissionUpdate) {
		return 0, newError(ErrAuthorization, "update denied: %s/%s", collectionID, id)
	}

	delta := value
	var min, max *float64
	if decrease {
		delta = -value
		min = bound
	} else {
		max = bound
	}

	result, err := d.adapter.IncreaseDocumentAttribute(ctx, collectionID, id, attributeID, delta, min, max)
	if err != nil {
		return 0, newError(ErrGeneric, "bound violated: %v", err)
	}
	d.purgeFamily(ctx, collectionID, id)
	return result, nil
}

// IncreaseDocumentAttribute adds value to attributeID's current value, not
// exceeding max when given.
func (d *Database) IncreaseDocumentAttribute(ctx context.Context, collection, id, attributeID string, value float64, max *float64) (float64, error) {
	return d.changeDocumentAttribute(ctx, collection, id, attributeID, value, max, false)
}

// DecreaseDocumentAttribute subtracts value from attributeID's current
// value, not going below min when given.
func (d *Database) DecreaseDocumentAttribute(ctx context.Context, collection, id, attributeID string, value float64, min *float64) (float64, error) {
	return d.changeDocumentAttribute(ctx, collection, id, attributeID, value, min, true)
}

// Find is the document engine's query operation (C7): it groups queries
// into filters/selections/pagination, normalizes datetime literals, and
// post-processes each adapter row through cast+decode restricted to the
// validated selection.
func (d *Database) Find(ctx context.Context, collection string, queries []model.Query) ([]*model.Document, error) {
	col, err := d.getCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	return d.find(ctx, col, queries)
}

func (d *Database) find(ctx context.Context, col Collection, queries []model.Query) ([]*model.Document, error) {
	grouped := model.GroupByType(queries)
	selections := model.SelectedAttributes(grouped.Selections)
	if err := validateSelections(col, selections); err != nil {
		return nil, err
	}
	if grouped.Cursor != "" {
		cursorRow, err := d.adapter.GetDocument(ctx, col.ID, grouped.Cursor, nil)
		if err != nil {
			return nil, err
		}
		if cursorRow == nil {
			return nil, newError(ErrGeneric, "cursor from wrong collection: %s", grouped.Cursor)
		}
	}

	filters := normalizeQueries(col, grouped.Filters)
	rows, err := d.adapter.Find(ctx, col.ID, filters, grouped.Limit, grouped.Offset, grouped.OrderAttributes, grouped.OrderTypes, grouped.Cursor, grouped.CursorDirection)
	if err != nil {
		return nil, err
	}

	out := make([]*model.Document, 0, len(rows))
	for _, row := range rows {
		doc := model.NewDocumentFromMap(row)
		doc.SetAttribute(model.AttributeCollection, col.ID, model.SetAssign)
		if !d.adapter.GetSupportForCasting() {
			if err := d.codec.cast(col, doc); err != nil {
				return nil, err
			}
		}
		decoded, err := d.codec.decode(col, doc, selections)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

// FindOne returns the first document matching queries, or an empty document
// (IsEmpty() == true) when nothing matches.
func (d *Database) FindOne(ctx context.Context, collection string, queries []model.Query) (*model.Document, error) {
	docs, err := d.Find(ctx, collection, append(append([]model.Query(nil), queries...), model.Limit(1)))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return model.NewDocument(), nil
	}
	return docs[0], nil
}

// Count returns the number of documents matching queries, capped at max
// when max > 0 (max == 0 means unbounded).
func (d *Database) Count(ctx context.Context, collection string, queries []model.Query, max int) (int, error) {
	col, err := d.getCollection(ctx, collection)
	if err != nil {
		return 0, err
	}
	grouped := model.GroupByType(queries)
	filters := normalizeQueries(col, grouped.Filters)
	return d.adapter.Count(ctx, col.ID, filters, max)
}

// Sum returns the sum of attribute across documents matching queries,
// capped at max rows examined when max > 0.
func (d *Database) Sum(ctx context.Context, collection, attribute string, queries []model.Query, max int) (float64, error) {
	col, err := d.getCollection(ctx, collection)
	if err != nil {
		return 0, err
	}
	grouped := model.GroupByType(queries)
	filters := normalizeQueries(col, grouped.Filters)
	return d.adapter.Sum(ctx, col.ID, attribute, filters, max)
}
