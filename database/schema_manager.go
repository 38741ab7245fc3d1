// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package database

import (
	"context"

	"github.com/dalarub/docbase/core/logger"
	"github.com/dalarub/docbase/model"
)

// knownTypes is the closed set of attribute type names the schema manager
// accepts, bit-exact per the external interface contract.
var knownTypes = []string{TypeString, TypeInteger, TypeDouble, TypeBoolean, TypeDatetime, TypeRelationship}

// attributeFormats maps a registered format name to the attribute types it
// may be applied to. A format not listed here is rejected (spec.md §4.6
// contract 4, "reject formats not registered for the given type").
var attributeFormats = map[string][]string{
	"email": {TypeString},
	"url":   {TypeString},
	"ip":    {TypeString},
	"enum":  {TypeString, TypeInteger},
}

func isKnownType(t string) bool {
	return containsFold(knownTypes, t)
}

func formatAllowedFor(format, attrType string) bool {
	if format == "" {
		return true
	}
	allowed, ok := attributeFormats[format]
	if !ok {
		return false
	}
	return containsFold(allowed, attrType)
}

// ensureMetadataCollection lazily creates the "_metadata" collection on the
// adapter the first time this Database mutates any schema, idempotently.
func (d *Database) ensureMetadataCollection(ctx context.Context) error {
	exists, err := d.adapter.Exists(ctx, d.adapter.GetDefaultDatabase(), MetadataCollectionID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return d.adapter.CreateCollection(ctx, MetadataCollectionID, metadataAttributes())
}

// mustGetCollection loads collection, raising Generic (not merely returning
// a zero value) when it is missing — every schema op but createCollection
// requires the collection to already exist.
func (d *Database) mustGetCollection(ctx context.Context, id string) (Collection, error) {
	return d.getCollection(ctx, id)
}

// putCollectionMetadata mirrors collection into the "_metadata" document
// that describes it, creating it on first write. Mutating "_metadata"
// itself never recurses here: its own schema is hard-coded.
func (d *Database) putCollectionMetadata(ctx context.Context, collection Collection) error {
	if collection.ID == MetadataCollectionID {
		return nil
	}
	doc, err := collectionToDocument(collection)
	if err != nil {
		return err
	}
	return d.disable.With(func() error {
		existing, err := d.getDocument(ctx, MetadataCollectionID, collection.ID, nil)
		if err != nil {
			return err
		}
		if existing.IsEmpty() {
			_, err = d.createDocument(ctx, MetadataCollectionID, doc)
			return err
		}
		_, err = d.updateDocument(ctx, MetadataCollectionID, collection.ID, doc)
		return err
	})
}

// validateAttribute applies the contracts every schema op shares (unknown
// type, mandatory filter, unregistered format, required+default, filter
// existence, case-insensitive id collision, and adapter capability limits)
// to a candidate attribute being added to a collection that currently
// carries existingWidth bytes across the attributes in existing.
func (d *Database) validateAttribute(collectionID string, attr Attribute, existing []Attribute, existingWidth int) error {
	if attr.ID == "" {
		return newError(ErrGeneric, "attribute id is required")
	}
	if !isKnownType(attr.Type) {
		return newError(ErrGeneric, "unknown type: %s", attr.Type)
	}
	if attr.Required && attr.Default != nil {
		return newError(ErrGeneric, "cannot set a default value on a required attribute")
	}
	if attr.Type == TypeDatetime && !containsFold(attr.Filters, "datetime") {
		return newError(ErrGeneric, "datetime attributes must carry the datetime filter")
	}
	if !formatAllowedFor(attr.Format, attr.Type) {
		return newError(ErrGeneric, "unknown format %q for type %s", attr.Format, attr.Type)
	}
	for _, name := range attr.Filters {
		if _, ok := d.registry.Lookup(name); !ok {
			return newError(ErrGeneric, "filter not found: %s", name)
		}
	}
	for _, e := range existing {
		if equalFold(e.ID, attr.ID) {
			return newError(ErrDuplicate, "attribute already exists: %s", attr.ID)
		}
	}
	if len(existing)+1 > d.adapter.GetLimitForAttributes() {
		return newError(ErrLimit, "attribute count would exceed adapter limit for collection %s", collectionID)
	}
	switch attr.Type {
	case TypeString:
		if attr.Size > d.adapter.GetLimitForString() {
			return newError(ErrLimit, "string size %d exceeds adapter limit for attribute %s", attr.Size, attr.ID)
		}
	case TypeInteger:
		limit := d.adapter.GetLimitForInt()
		if attr.Signed {
			limit /= 2
		}
		if attr.Size > limit {
			return newError(ErrLimit, "integer size %d exceeds adapter limit for attribute %s", attr.Size, attr.ID)
		}
	}
	if existingWidth+attr.Size > d.adapter.GetDocumentSizeLimit() {
		return newError(ErrLimit, "row width would exceed adapter limit for collection %s", collectionID)
	}
	return nil
}

func attributeWidth(attrs []Attribute) int {
	width := 0
	for _, a := range attrs {
		width += a.Size
	}
	return width
}

// CreateCollection creates collection name with attributes and indexes,
// mirroring the physical adapter schema into the "_metadata" catalog.
func (d *Database) CreateCollection(ctx context.Context, name string, attributes []Attribute, indexes []Index, permissions []string) (Collection, error) {
	if err := d.ensureMetadataCollection(ctx); err != nil {
		return Collection{}, err
	}
	if name != MetadataCollectionID {
		existing, err := d.getCollection(ctx, name)
		if err == nil && existing.ID != "" {
			return Collection{}, newError(ErrDuplicate, "collection already exists: %s", name)
		}
	}

	var built []Attribute
	for _, attr := range attributes {
		if err := d.validateAttribute(name, attr, built, attributeWidth(built)); err != nil {
			return Collection{}, err
		}
		built = append(built, attr)
	}
	for _, idx := range indexes {
		if err := validateIndex(idx, built, nil); err != nil {
			return Collection{}, err
		}
	}

	if name != MetadataCollectionID {
		if err := d.adapter.CreateCollection(ctx, name, built); err != nil {
			return Collection{}, err
		}
		for _, idx := range indexes {
			if err := d.adapter.CreateIndex(ctx, name, idx); err != nil {
				return Collection{}, err
			}
		}
	}

	collection := Collection{ID: name, Name: name, Attributes: built, Indexes: indexes, Permissions: permissions}
	if err := d.putCollectionMetadata(ctx, collection); err != nil {
		return Collection{}, err
	}

	logger.FromContext(ctx).Infoln("database: createCollection", name)
	d.events.Trigger(ctx, EventCollectionCreate, collection)
	return collection, nil
}

// DeleteCollection drops collection and its "_metadata" description. The
// metadata document is read before the adapter mutation and removed after
// it succeeds — the corrected ordering spec.md §9 calls for, as opposed to
// the source's adapter-delete-then-read-metadata bug.
func (d *Database) DeleteCollection(ctx context.Context, id string) error {
	collection, err := d.mustGetCollection(ctx, id)
	if err != nil {
		return err
	}
	if err := d.adapter.DeleteCollection(ctx, id); err != nil {
		return err
	}
	if id != MetadataCollectionID {
		if err := d.disable.With(func() error { return d.deleteDocument(ctx, MetadataCollectionID, id) }); err != nil {
			return err
		}
	}
	_ = d.PurgeCollection(ctx, id)
	logger.FromContext(ctx).Infoln("database: deleteCollection", id)
	d.events.Trigger(ctx, EventCollectionDelete, collection)
	return nil
}

// ListCollections returns every collection described in "_metadata".
func (d *Database) ListCollections(ctx context.Context) ([]Collection, error) {
	var docs []*model.Document
	if err := d.disable.With(func() error {
		var err error
		docs, err = d.find(ctx, bootstrapMetadataCollection(), nil)
		return err
	}); err != nil {
		return nil, err
	}
	out := make([]Collection, 0, len(docs))
	for _, doc := range docs {
		c, err := documentToCollection(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// CreateAttribute adds attribute to collectionID's schema.
func (d *Database) CreateAttribute(ctx context.Context, collectionID string, attr Attribute) error {
	collection, err := d.mustGetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	if err := d.validateAttribute(collectionID, attr, collection.Attributes, attributeWidth(collection.Attributes)); err != nil {
		return err
	}
	if attr.Type == TypeRelationship {
		if err := d.adapter.CreateRelationship(ctx, collectionID, attr); err != nil {
			return err
		}
	} else if err := d.adapter.CreateAttribute(ctx, collectionID, attr); err != nil {
		return err
	}
	collection.Attributes = append(collection.Attributes, attr)
	if err := d.putCollectionMetadata(ctx, collection); err != nil {
		return err
	}
	logger.FromContext(ctx).Infoln("database: createAttribute", collectionID, attr.ID)
	d.events.Trigger(ctx, EventAttributeCreate, attr)
	return nil
}

// UpdateAttribute structurally replaces an existing attribute's descriptor
// (size, required, default, filters, ...) in both the adapter and
// "_metadata".
func (d *Database) UpdateAttribute(ctx context.Context, collectionID string, attr Attribute) error {
	collection, err := d.mustGetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	idx := -1
	var rest []Attribute
	for i, a := range collection.Attributes {
		if equalFold(a.ID, attr.ID) {
			idx = i
			continue
		}
		rest = append(rest, a)
	}
	if idx < 0 {
		return newError(ErrGeneric, "attribute not found: %s", attr.ID)
	}
	if err := d.validateAttribute(collectionID, attr, rest, attributeWidth(rest)); err != nil {
		return err
	}
	if err := d.adapter.UpdateAttribute(ctx, collectionID, attr); err != nil {
		return err
	}
	collection.Attributes[idx] = attr
	if err := d.putCollectionMetadata(ctx, collection); err != nil {
		return err
	}
	logger.FromContext(ctx).Infoln("database: updateAttribute", collectionID, attr.ID)
	d.events.Trigger(ctx, EventAttributeUpdate, attr)
	return nil
}

// DeleteAttribute removes attributeID from collectionID's schema.
func (d *Database) DeleteAttribute(ctx context.Context, collectionID, attributeID string) error {
	collection, err := d.mustGetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	if _, ok := collection.FindAttribute(attributeID); !ok {
		return newError(ErrGeneric, "attribute not found: %s", attributeID)
	}
	if err := d.adapter.DeleteAttribute(ctx, collectionID, attributeID); err != nil {
		return err
	}
	var kept []Attribute
	for _, a := range collection.Attributes {
		if !equalFold(a.ID, attributeID) {
			kept = append(kept, a)
		}
	}
	collection.Attributes = kept
	if err := d.putCollectionMetadata(ctx, collection); err != nil {
		return err
	}
	logger.FromContext(ctx).Infoln("database: deleteAttribute", collectionID, attributeID)
	d.events.Trigger(ctx, EventAttributeDelete, attributeID)
	return nil
}

// RenameAttribute renames an attribute, also rewriting every index that
// lists it among its attributes.
func (d *Database) RenameAttribute(ctx context.Context, collectionID, oldID, newID string) error {
	collection, err := d.mustGetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	if _, ok := collection.FindAttribute(oldID); !ok {
		return newError(ErrGeneric, "attribute not found: %s", oldID)
	}
	if _, ok := collection.FindAttribute(newID); ok {
		return newError(ErrDuplicate, "attribute already exists: %s", newID)
	}
	if err := d.adapter.RenameAttribute(ctx, collectionID, oldID, newID); err != nil {
		return err
	}
	for i, a := range collection.Attributes {
		if equalFold(a.ID, oldID) {
			collection.Attributes[i].ID = newID
		}
	}
	for i, idx := range collection.Indexes {
		for j, a := range idx.Attributes {
			if equalFold(a, oldID) {
				collection.Indexes[i].Attributes[j] = newID
			}
		}
	}
	if err := d.putCollectionMetadata(ctx, collection); err != nil {
		return err
	}
	logger.FromContext(ctx).Infoln("database: renameAttribute", collectionID, oldID, newID)
	return nil
}

// validateIndex checks an index descriptor's attribute references, type,
// and case-insensitive id uniqueness before it reaches the adapter.
func validateIndex(idx Index, attributes []Attribute, existing []Index) error {
	if idx.ID == "" {
		return newError(ErrGeneric, "index id is required")
	}
	switch idx.Type {
	case IndexKey, IndexFulltext, IndexUnique, IndexSpatial, IndexArray:
	default:
		return newError(ErrGeneric, "unsupported index type: %s", idx.Type)
	}
	for _, attrName := range idx.Attributes {
		found := false
		for _, a := range attributes {
			if equalFold(a.ID, attrName) {
				found = true
				break
			}
		}
		if !found {
			return newError(ErrGeneric, "index references unknown attribute: %s", attrName)
		}
	}
	for _, e := range existing {
		if equalFold(e.ID, idx.ID) {
			return newError(ErrDuplicate, "index already exists: %s", idx.ID)
		}
	}
	return nil
}

// CreateIndex adds index to collectionID's schema.
func (d *Database) CreateIndex(ctx context.Context, collectionID string, idx Index) error {
	collection, err := d.mustGetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	if err := validateIndex(idx, collection.Attributes, collection.Indexes); err != nil {
		return err
	}
	if idx.Type == IndexUnique && !d.adapter.GetSupportForUniqueIndex() {
		return newError(ErrGeneric, "adapter does not support unique indexes")
	}
	if idx.Type != IndexUnique && !d.adapter.GetSupportForIndex() {
		return newError(ErrGeneric, "adapter does not support indexes")
	}
	if len(collection.Indexes)+1 > d.adapter.GetLimitForIndexes() {
		return newError(ErrLimit, "index count would exceed adapter limit for collection %s", collectionID)
	}
	if err := d.adapter.CreateIndex(ctx, collectionID, idx); err != nil {
		return err
	}
	collection.Indexes = append(collection.Indexes, idx)
	if err := d.putCollectionMetadata(ctx, collection); err != nil {
		return err
	}
	logger.FromContext(ctx).Infoln("database: createIndex", collectionID, idx.ID)
	d.events.Trigger(ctx, EventIndexCreate, idx)
	return nil
}

// DeleteIndex removes indexID from collectionID's schema.
func (d *Database) DeleteIndex(ctx context.Context, collectionID, indexID string) error {
	collection, err := d.mustGetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	if _, ok := collection.FindIndex(indexID); !ok {
		return newError(ErrGeneric, "index not found: %s", indexID)
	}
	if err := d.adapter.DeleteIndex(ctx, collectionID, indexID); err != nil {
		return err
	}
	var kept []Index
	for _, idx := range collection.Indexes {
		if !equalFold(idx.ID, indexID) {
			kept = append(kept, idx)
		}
	}
	collection.Indexes = kept
	if err := d.putCollectionMetadata(ctx, collection); err != nil {
		return err
	}
	logger.FromContext(ctx).Infoln("database: deleteIndex", collectionID, indexID)
	d.events.Trigger(ctx, EventIndexDelete, indexID)
	return nil
}

// RenameIndex renames an index.
func (d *Database) RenameIndex(ctx context.Context, collectionID, oldID, newID string) error {
	collection, err := d.mustGetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	if _, ok := collection.FindIndex(oldID); !ok {
		return newError(ErrGeneric, "index not found: %s", oldID)
	}
	if _, ok := collection.FindIndex(newID); ok {
		return newError(ErrDuplicate, "index already exists: %s", newID)
	}
	if err := d.adapter.RenameIndex(ctx, collectionID, oldID, newID); err != nil {
		return err
	}
	for i, idx := range collection.Indexes {
		if equalFold(idx.ID, oldID) {
			collection.Indexes[i].ID = newID
		}
	}
	if err := d.putCollectionMetadata(ctx, collection); err != nil {
		return err
	}
	logger.FromContext(ctx).Infoln("database: renameIndex", collectionID, oldID, newID)
	return nil
}

// CreateRelationship adds a relationship attribute to collectionID and
// mirrors it onto the related collection with side="child" and swapped
// (id, twoWayId). For manyToMany it additionally creates the junction
// collection "{collectionID}_{relatedCollection}" with two required,
// non-array string(36) key attributes.
func (d *Database) CreateRelationship(ctx context.Context, collectionID string, attr Attribute) error {
	if attr.Type != TypeRelationship {
		return newError(ErrGeneric, "createRelationship: attribute type must be relationship")
	}
	opts := attr.Options
	if opts.RelatedCollection == "" {
		return newError(ErrGeneric, "createRelationship: relatedCollection is required")
	}
	switch opts.RelationType {
	case RelationOneToOne, RelationOneToMany, RelationManyToOne, RelationManyToMany:
	default:
		return newError(ErrGeneric, "createRelationship: unknown relation type %s", opts.RelationType)
	}
	if opts.Side == "" {
		opts.Side = SideParent
	}
	if opts.TwoWayID == "" {
		opts.TwoWayID = collectionID + "Id"
	}
	attr.Options = opts

	if err := d.CreateAttribute(ctx, collectionID, attr); err != nil {
		return err
	}

	mirror := Attribute{
		ID:       opts.TwoWayID,
		Type:     TypeRelationship,
		Required: false,
		Array:    false,
		Options: RelationshipOptions{
			RelatedCollection: collectionID,
			RelationType:      opts.RelationType,
			TwoWay:            opts.TwoWay,
			TwoWayID:          attr.ID,
			OnUpdate:          opts.OnUpdate,
			OnDelete:          opts.OnDelete,
			Side:              SideChild,
		},
	}
	if err := d.CreateAttribute(ctx, opts.RelatedCollection, mirror); err != nil {
		return err
	}

	if opts.RelationType == RelationManyToMany {
		junctionID := junctionCollectionID(collectionID, opts)
		keyAttrs := []Attribute{
			{ID: junctionParentID, Type: TypeString, Size: junctionKeySize, Required: true},
			{ID: junctionChildID, Type: TypeString, Size: junctionKeySize, Required: true},
		}
		if _, err := d.CreateCollection(ctx, junctionID, keyAttrs, nil, []string{`read("any")`}); err != nil {
			return err
		}
	}

	logger.FromContext(ctx).Infoln("database: createRelationship", collectionID, attr.ID, "<->", opts.RelatedCollection, opts.TwoWayID)
	d.events.Trigger(ctx, EventRelationshipCreate, attr)
	return nil
}
