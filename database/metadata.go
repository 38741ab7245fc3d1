// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package database

import (
	"github.com/goccy/go-json"

	"github.com/dalarub/docbase/adapter"
	"github.com/dalarub/docbase/model"
)

// Attribute, Index and RelationshipOptions are the logical schema
// descriptors the schema manager and metadata catalog work with. They are
// the same shape the adapter contract uses: the catalog and the physical
// backend describe collections identically, they just persist that
// description in different places ($metadata document vs. adapter schema).
type Attribute = adapter.Attribute
type Index = adapter.Index
type RelationshipOptions = adapter.RelationshipOptions

// Collection is the logical descriptor of a collection: its attribute and
// index schema, and the permission set guarding the collection document
// itself (who may alter the schema).
type Collection struct {
	ID          string
	Name        string
	Attributes  []Attribute
	Indexes     []Index
	Permissions []string
}

// metadataAttributes is the _metadata collection's own, hard-coded physical
// schema: every collection description is itself stored as a document with
// these three fields, attributes and indexes serialized as JSON strings
// through the mandatory "json" filter.
func metadataAttributes() []Attribute {
	return []Attribute{
		{ID: "name", Type: TypeString, Size: 256, Required: true},
		{ID: "attributes", Type: TypeString, Size: 1 << 20, Required: true, Filters: []string{"json"}},
		{ID: "indexes", Type: TypeString, Size: 1 << 20, Required: true, Filters: []string{"json"}},
	}
}

// bootstrapMetadataCollection returns the self-describing in-memory
// Collection for "_metadata" itself. getDocument("_metadata","_metadata")
// short-circuits to this description rather than round-tripping through
// the adapter or cache (invariant 7).
func bootstrapMetadataCollection() Collection {
	return Collection{
		ID:          MetadataCollectionID,
		Name:        MetadataCollectionID,
		Attributes:  metadataAttributes(),
		Indexes:     nil,
		Permissions: nil,
	}
}

// collectionToDocument renders a Collection as the document stored under
// its id in "_metadata".
func collectionToDocument(c Collection) (*model.Document, error) {
	attrsJSON, err := json.Marshal(c.Attributes)
	if err != nil {
		return nil, err
	}
	indexesJSON, err := json.Marshal(c.Indexes)
	if err != nil {
		return nil, err
	}
	doc := model.NewDocument()
	doc.SetID(c.ID)
	doc.SetAttribute(model.AttributeCollection, MetadataCollectionID, model.SetAssign)
	doc.SetAttribute("name", c.Name, model.SetAssign)
	doc.SetAttribute("attributes", string(attrsJSON), model.SetAssign)
	doc.SetAttribute("indexes", string(indexesJSON), model.SetAssign)
	if len(c.Permissions) > 0 {
		doc.SetAttribute(model.AttributePermissions, toInterfaceSlice(c.Permissions), model.SetAssign)
	}
	return doc, nil
}

// documentToCollection parses a "_metadata" document back into a Collection.
// doc has normally already been through codec.decode, which runs the "json"
// filter declared on "attributes"/"indexes" and so hands back a structured
// []interface{} rather than the raw JSON string stored on the adapter; only
// a document that bypassed decode still carries the plain string.
// decodeJSONField handles either shape.
func documentToCollection(doc *model.Document) (Collection, error) {
	var c Collection
	c.ID = doc.GetID()
	if name, ok := doc.GetAttribute("name"); ok {
		c.Name, _ = name.(string)
	}
	if raw, ok := doc.GetAttribute("attributes"); ok && raw != nil {
		if err := decodeJSONField(raw, &c.Attributes); err != nil {
			return c, err
		}
	}
	if raw, ok := doc.GetAttribute("indexes"); ok && raw != nil {
		if err := decodeJSONField(raw, &c.Indexes); err != nil {
			return c, err
		}
	}
	var perms []string
	perms = append(perms, doc.GetRead()...)
	perms = append(perms, doc.GetCreate()...)
	perms = append(perms, doc.GetUpdate()...)
	perms = append(perms, doc.GetDelete()...)
	c.Permissions = perms
	return c, nil
}

// decodeJSONField populates target from raw, which is either the plain JSON
// string as stored on the adapter, or the already-unmarshaled structure the
// "json" filter leaves behind after codec.decode has run. Re-marshaling the
// already-structured case and unmarshaling it into target is cheap and
// spares this function from caring which shape it got.
func decodeJSONField(raw interface{}, target interface{}) error {
	s, ok := raw.(string)
	if !ok {
		data, err := json.Marshal(raw)
		if err != nil {
			return err
		}
		s = string(data)
	}
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), target)
}

func toInterfaceSlice(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// FindAttribute returns the attribute named id (case-insensitively), if present.
func (c Collection) FindAttribute(id string) (Attribute, bool) {
	for _, attr := range c.Attributes {
		if equalFold(attr.ID, id) {
			return attr, true
		}
	}
	return Attribute{}, false
}

// FindIndex returns the index named id (case-insensitively), if present.
func (c Collection) FindIndex(id string) (Index, bool) {
	for _, idx := range c.Indexes {
		if equalFold(idx.ID, id) {
			return idx, true
		}
	}
	return Index{}, false
}
