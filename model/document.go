// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package model holds the thin, external collaborators the document engine
// consumes through narrow interfaces: the document value object, the query
// builder, the structure/index validators, the identifier generator and the
// datetime helper. None of these own engine semantics; they are the value
// types and small utilities the core façade (package database) is built on.
package model

import "github.com/goccy/go-json"

// reserved system attribute names, see spec §3 "Document"
const (
	AttributeID           = "$id"
	AttributeCollection   = "$collection"
	AttributeCreatedAt    = "$createdAt"
	AttributeUpdatedAt    = "$updatedAt"
	AttributePermissions  = "$permissions"
	AttributeInternalID   = "$internalId"
)

// SetMode controls how SetAttribute combines a new value with an existing one.
type SetMode int

const (
	// SetAssign replaces the attribute's current value outright.
	SetAssign SetMode = iota
	// SetAppend appends value to the attribute's current value, turning the
	// attribute into an array if it is not one already.
	SetAppend
)

// entry is one key/value pair of a Document, kept in insertion order.
type entry struct {
	key   string
	value interface{}
}

// Document is an ordered mapping of attribute name to value. Mutating a
// Document produces a new logical version of it; callers that need to keep
// a prior version should Clone before mutating.
type Document struct {
	entries []entry
	index   map[string]int
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{index: make(map[string]int)}
}

// NewDocumentFromMap builds a document from a plain map. Key order is not
// guaranteed by Go map iteration; callers that need a stable order should
// build the Document attribute by attribute instead.
func NewDocumentFromMap(m map[string]interface{}) *Document {
	d := NewDocument()
	for k, v := range m {
		d.SetAttribute(k, v, SetAssign)
	}
	return d
}

// IsEmpty reports whether the document carries no attributes at all.
func (d *Document) IsEmpty() bool {
	return d == nil || len(d.entries) == 0
}

// GetID returns the document's $id, or "" if unset.
func (d *Document) GetID() string {
	v, _ := d.GetAttribute(AttributeID)
	s, _ := v.(string)
	return s
}

// SetID sets the document's $id.
func (d *Document) SetID(id string) {
	d.SetAttribute(AttributeID, id, SetAssign)
}

// GetCollection returns the document's $collection, or "" if unset.
func (d *Document) GetCollection() string {
	v, _ := d.GetAttribute(AttributeCollection)
	s, _ := v.(string)
	return s
}

// GetAttribute returns the value stored under key and whether it was present.
func (d *Document) GetAttribute(key string) (interface{}, bool) {
	if d == nil || d.index == nil {
		return nil, false
	}
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}
	return d.entries[i].value, true
}

// SetAttribute sets key to value, appending a new entry if key is unseen, or
// combining with the existing value per mode otherwise.
func (d *Document) SetAttribute(key string, value interface{}, mode SetMode) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[key]; ok {
		if mode == SetAppend {
			d.entries[i].value = appendValue(d.entries[i].value, value)
		} else {
			d.entries[i].value = value
		}
		return
	}
	d.index[key] = len(d.entries)
	if mode == SetAppend {
		value = appendValue(nil, value)
	}
	d.entries = append(d.entries, entry{key: key, value: value})
}

func appendValue(existing, value interface{}) interface{} {
	if existing == nil {
		return []interface{}{value}
	}
	arr, ok := existing.([]interface{})
	if !ok {
		arr = []interface{}{existing}
	}
	return append(arr, value)
}

// RemoveAttribute drops key from the document, if present.
func (d *Document) RemoveAttribute(key string) {
	if d == nil || d.index == nil {
		return
	}
	i, ok := d.index[key]
	if !ok {
		return
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.index, key)
	for k, idx := range d.index {
		if idx > i {
			d.index[k] = idx - 1
		}
	}
}

// Keys returns the document's attribute names in insertion order.
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.key
	}
	return keys
}

// GetArrayCopy returns the document as a fresh map, safe for the caller to
// mutate without affecting the original document.
func (d *Document) GetArrayCopy() map[string]interface{} {
	out := make(map[string]interface{}, len(d.entries))
	for _, e := range d.entries {
		out[e.key] = e.value
	}
	return out
}

// Clone returns a deep-enough copy of the document: entries are copied, but
// nested documents/slices are shared (matching the value-typed "snapshot"
// semantics the cache layer relies on for decode).
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := &Document{
		entries: make([]entry, len(d.entries)),
		index:   make(map[string]int, len(d.index)),
	}
	copy(c.entries, d.entries)
	for k, v := range d.index {
		c.index[k] = v
	}
	return c
}

func permissionsOf(d *Document, kind string) []string {
	v, ok := d.GetAttribute(AttributePermissions)
	if !ok {
		return nil
	}
	all, ok := v.([]string)
	if ok {
		return filterPermissions(all, kind)
	}
	anySlice, ok := v.([]interface{})
	if !ok {
		return nil
	}
	strs := make([]string, 0, len(anySlice))
	for _, item := range anySlice {
		if s, ok := item.(string); ok {
			strs = append(strs, s)
		}
	}
	return filterPermissions(strs, kind)
}

// filterPermissions extracts the tokens for one permission kind out of a
// flat "kind(\"token\")" encoded permission set, the representation used on
// the wire and in storage. A permission entry with no recognisable kind
// prefix is not returned for any kind.
func filterPermissions(all []string, kind string) []string {
	var out []string
	prefix := kind + "("
	for _, p := range all {
		if len(p) > len(prefix) && p[:len(prefix)] == prefix && p[len(p)-1] == ')' {
			token := p[len(prefix) : len(p)-1]
			token = trimQuotes(token)
			out = append(out, token)
		} else if kind == "write" {
			continue
		}
	}
	return out
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// GetRead returns the role tokens permitted to read this document.
func (d *Document) GetRead() []string { return permissionsOf(d, "read") }

// GetCreate returns the role tokens permitted to create documents of this shape.
func (d *Document) GetCreate() []string { return permissionsOf(d, "create") }

// GetUpdate returns the role tokens permitted to update this document.
func (d *Document) GetUpdate() []string { return permissionsOf(d, "update") }

// GetDelete returns the role tokens permitted to delete this document.
func (d *Document) GetDelete() []string { return permissionsOf(d, "delete") }

// MarshalJSON renders the document as a JSON object. It goes through a Go
// map, so keys are written in sorted order, not in insertion order.
func (d *Document) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(d.entries))
	for _, e := range d.entries {
		m[e.key] = e.value
	}
	return json.Marshal(m)
}

// UnmarshalJSON populates the document from a JSON object. The object is
// decoded into a Go map first, so the order of keys in the input is not kept.
func (d *Document) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*d = *NewDocumentFromMap(m)
	return nil
}
