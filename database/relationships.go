// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package database

import (
	"context"
	"fmt"

	"github.com/dalarub/docbase/model"
)

// readCursor threads the cycle-breaking state through a relationship read
// recursion. visited tracks (collection,id) pairs already hydrated on this
// chain; depth is the two-way oneToOne hydration depth, capped at
// relationshipFetchDepthLimit (spec.md §9 prefers a visited-set over the
// source's mutable counter; depth is kept alongside it for the oneToOne
// cap invariant 5/property 5 specifically calls out).
type readCursor struct {
	visited map[string]bool
	depth   int
}

func newReadCursor() *readCursor {
	return &readCursor{visited: map[string]bool{}}
}

func (c *readCursor) mark(collection, id string) (alreadySeen bool) {
	key := collection + "/" + id
	if c.visited[key] {
		return true
	}
	c.visited[key] = true
	return false
}

// isSingular reports whether a relationship attribute hydrates to at most
// one nested document ("hydrate by id") as opposed to a list ("find
// children"), per the cardinality table in spec.md §4.8.
func isSingular(opts RelationshipOptions) bool {
	switch opts.RelationType {
	case RelationOneToOne:
		return true
	case RelationOneToMany:
		return opts.Side == SideChild
	case RelationManyToOne:
		return opts.Side == SideParent
	default: // manyToMany
		return false
	}
}

// resolveRead hydrates every relationship attribute on doc, mutating it in
// place. cursor carries the cycle-breaking state across the recursive calls
// this makes back into getDocument for nested collections.
func (d *Database) resolveRead(ctx context.Context, collection Collection, doc *model.Document, cursor *readCursor) error {
	for _, attr := range collection.Attributes {
		if attr.Type != TypeRelationship {
			continue
		}
		opts := attr.Options

		switch {
		case opts.RelationType == RelationManyToMany:
			// no hydration at read; traversal through the junction is deferred.
			continue

		case isSingular(opts):
			if opts.RelationType != RelationOneToOne && !opts.TwoWay {
				doc.RemoveAttribute(attr.ID)
				continue
			}
			value, ok := doc.GetAttribute(attr.ID)
			if !ok || value == nil {
				continue
			}
			id, ok := value.(string)
			if !ok {
				continue
			}
			if opts.RelationType == RelationOneToOne && cursor.depth >= relationshipFetchDepthLimit {
				continue
			}
			if cursor.mark(opts.RelatedCollection, id) {
				continue
			}
			child, err := d.getDocumentDepth(ctx, opts.RelatedCollection, id, nil, cursor, cursor.depth+1)
			if err != nil {
				return err
			}
			if !child.IsEmpty() {
				doc.SetAttribute(attr.ID, child, model.SetAssign)
			}

		default:
			parentID := doc.GetID()
			if parentID == "" {
				continue
			}
			childCollection, err := d.getCollection(ctx, opts.RelatedCollection)
			if err != nil {
				return err
			}
			children, err := d.find(ctx, childCollection, []model.Query{model.Equal(opts.TwoWayID, parentID)})
			if err != nil {
				return err
			}
			for _, child := range children {
				child.RemoveAttribute(opts.TwoWayID)
			}
			doc.SetAttribute(attr.ID, childrenToInterfaces(children), model.SetAssign)
		}
	}
	return nil
}

func childrenToInterfaces(docs []*model.Document) []interface{} {
	out := make([]interface{}, len(docs))
	for i, d := range docs {
		out[i] = d
	}
	return out
}

// resolveWrite handles every relationship attribute present on doc before
// it reaches the adapter: nested documents are fetched-or-created-or-
// updated, bare ids are back-patched onto the child's own mirror attribute
// where the relation is two-way, and manyToMany values are inserted into
// the junction collection. Singular relationships are left on doc as a
// plain id string; plural relationships are removed entirely — the "many"
// side of a relationship is never a physical column.
func (d *Database) resolveWrite(ctx context.Context, collection Collection, doc *model.Document) error {
	for _, attr := range collection.Attributes {
		if attr.Type != TypeRelationship {
			continue
		}
		opts := attr.Options
		value, present := doc.GetAttribute(attr.ID)
		doc.RemoveAttribute(attr.ID)
		if !present || value == nil {
			continue
		}

		if opts.RelationType == RelationManyToMany {
			if err := d.writeManyToMany(ctx, collection.ID, doc.GetID(), attr, value); err != nil {
				return err
			}
			continue
		}

		if isSingular(opts) {
			id, err := d.resolveOneValue(ctx, opts.RelatedCollection, value)
			if err != nil {
				return err
			}
			if id == "" {
				continue
			}
			// Only oneToOne needs a back-patch here: both of its sides are
			// physical FK columns that must agree. oneToMany's child side
			// (and manyToOne's parent side) already store the FK directly
			// in this very attribute — the other side is reconstructed by
			// querying on it, never stored, so patching it back would only
			// walk straight back into this same write.
			if opts.TwoWay && opts.RelationType == RelationOneToOne {
				if err := d.backpatchTwoWay(ctx, opts, id, doc.GetID()); err != nil {
					return err
				}
			}
			doc.SetAttribute(attr.ID, id, model.SetAssign)
			continue
		}

		values := asSlice(value)
		for _, v := range values {
			id, err := d.resolveOneValue(ctx, opts.RelatedCollection, v)
			if err != nil {
				return err
			}
			if id == "" {
				continue
			}
			if opts.TwoWay {
				if err := d.backpatchTwoWay(ctx, opts, id, doc.GetID()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func asSlice(value interface{}) []interface{} {
	if arr, ok := value.([]interface{}); ok {
		return arr
	}
	return []interface{}{value}
}

// resolveOneValue turns one relationship value (id string, nested document,
// or map) into the related document's id, creating or updating the target
// as needed.
func (d *Database) resolveOneValue(ctx context.Context, relatedCollection string, value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case *model.Document:
		return d.upsertRelated(ctx, relatedCollection, v)
	case map[string]interface{}:
		return d.upsertRelated(ctx, relatedCollection, model.NewDocumentFromMap(v))
	default:
		return "", newError(ErrGeneric, "relationship value of unrecognized shape: %T", value)
	}
}

func (d *Database) upsertRelated(ctx context.Context, relatedCollection string, nested *model.Document) (string, error) {
	id := nested.GetID()
	if id == "" {
		created, err := d.createDocument(ctx, relatedCollection, nested)
		if err != nil {
			return "", err
		}
		return created.GetID(), nil
	}
	existing, err := d.getDocument(ctx, relatedCollection, id, nil)
	if err != nil {
		return "", err
	}
	if existing.IsEmpty() {
		created, err := d.createDocument(ctx, relatedCollection, nested)
		if err != nil {
			return "", err
		}
		return created.GetID(), nil
	}
	if documentsDiverge(existing, nested) {
		if _, err := d.updateDocument(ctx, relatedCollection, id, nested); err != nil {
			return "", err
		}
	}
	return id, nil
}

func documentsDiverge(existing, candidate *model.Document) bool {
	for _, key := range candidate.Keys() {
		if key == model.AttributeID {
			continue
		}
		newValue, _ := candidate.GetAttribute(key)
		oldValue, ok := existing.GetAttribute(key)
		if !ok || fmt.Sprint(oldValue) != fmt.Sprint(newValue) {
			return true
		}
	}
	return false
}

// backpatchTwoWay sets the child's own mirror attribute (its twoWayId) to
// parentID directly on the adapter: a single raw FK column write, bypassing
// the permission gate, the structure validator, and relationship
// resolution. It must not re-enter updateDocument's full pipeline — the
// mirror attribute being patched is itself relationship-typed, so running
// it back through resolveWrite would walk straight back into the write
// that triggered this backpatch in the first place.
func (d *Database) backpatchTwoWay(ctx context.Context, opts RelationshipOptions, childID, parentID string) error {
	if parentID == "" || childID == "" {
		return nil
	}
	if _, err := d.adapter.UpdateDocument(ctx, opts.RelatedCollection, childID, map[string]interface{}{opts.TwoWayID: parentID}); err != nil {
		return err
	}
	d.purgeFamily(ctx, opts.RelatedCollection, childID)
	return nil
}

// junctionCollectionID returns the deterministic junction collection name
// for a manyToMany relationship attribute declared on thisCollection,
// "{parent}_{child}" regardless of which side initiates the write.
func junctionCollectionID(thisCollection string, opts RelationshipOptions) string {
	if opts.Side == SideChild {
		return opts.RelatedCollection + "_" + thisCollection
	}
	return thisCollection + "_" + opts.RelatedCollection
}

func (d *Database) writeManyToMany(ctx context.Context, thisCollection, thisDocID string, attr Attribute, value interface{}) error {
	junction := junctionCollectionID(thisCollection, attr.Options)
	thisIsParent := attr.Options.Side != SideChild

	for _, v := range asSlice(value) {
		relatedID, err := d.resolveOneValue(ctx, attr.Options.RelatedCollection, v)
		if err != nil {
			return err
		}
		if relatedID == "" || thisDocID == "" {
			continue
		}
		row := model.NewDocument()
		row.SetID(model.UniqueID())
		row.SetAttribute(model.AttributePermissions, []interface{}{
			`read("any")`, `create("any")`, `update("any")`, `delete("any")`,
		}, model.SetAssign)
		if thisIsParent {
			row.SetAttribute(junctionParentID, thisDocID, model.SetAssign)
			row.SetAttribute(junctionChildID, relatedID, model.SetAssign)
		} else {
			row.SetAttribute(junctionParentID, relatedID, model.SetAssign)
			row.SetAttribute(junctionChildID, thisDocID, model.SetAssign)
		}
		if err := d.disable.With(func() error {
			_, err := d.createDocument(ctx, junction, row)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}
