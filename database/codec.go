// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package database

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dalarub/docbase/filters"
	"github.com/dalarub/docbase/model"
)

// codec is the Codec Pipeline (C5): encode, decode and cast between
// in-memory documents and backend rows.
type codec struct {
	registry *filters.Registry
}

func newCodec(registry *filters.Registry) *codec {
	return &codec{registry: registry}
}

// attributesForCodec returns collection's user attributes plus the four
// fixed internal attributes the codec always carries along.
func attributesForCodec(collection Collection) []Attribute {
	attrs := append([]Attribute(nil), collection.Attributes...)
	for _, name := range internalAttributes {
		attrs = append(attrs, Attribute{ID: name, Type: TypeString})
	}
	return attrs
}

// encode runs doc's attributes through their filter chains, forward order,
// substituting declared defaults for null required-less attributes and
// wrapping/unwrapping array attributes element-wise.
func (c *codec) encode(collection Collection, doc *model.Document) (*model.Document, error) {
	out := doc.Clone()
	for _, attr := range attributesForCodec(collection) {
		value, present := out.GetAttribute(attr.ID)
		if (!present || value == nil) && attr.Default != nil {
			value = attr.Default
			present = true
		}
		if !present {
			continue
		}

		elements := wrapArray(value, attr.Array)
		for i, el := range elements {
			if el == nil {
				continue
			}
			for _, name := range attr.Filters {
				f, err := c.registry.MustLookup(name)
				if err != nil {
					return nil, wrapError(ErrGeneric, err, "encode: attribute %s", attr.ID)
				}
				el = f.Encode(el, out, nil)
			}
			elements[i] = el
		}
		out.SetAttribute(attr.ID, unwrapArray(elements, attr.Array), model.SetAssign)
	}
	return out, nil
}

// decode mirrors encode using each attribute's reversed filter chain. When
// selections is non-empty, every attribute is still decoded (later filters
// in a chain may depend on side effects of earlier ones having already run
// for a sibling attribute) but only the selected keys are written back onto
// the returned document.
func (c *codec) decode(collection Collection, doc *model.Document, selections []string) (*model.Document, error) {
	decoded := model.NewDocument()
	for _, attr := range attributesForCodec(collection) {
		value, present := doc.GetAttribute(attr.ID)
		if !present {
			continue
		}

		elements := wrapArray(value, attr.Array)
		for i, el := range elements {
			if el == nil {
				continue
			}
			for j := len(attr.Filters) - 1; j >= 0; j-- {
				f, err := c.registry.MustLookup(attr.Filters[j])
				if err != nil {
					return nil, wrapError(ErrGeneric, err, "decode: attribute %s", attr.ID)
				}
				el = f.Decode(el, doc, nil)
			}
			elements[i] = el
		}
		decoded.SetAttribute(attr.ID, unwrapArray(elements, attr.Array), model.SetAssign)
	}
	// $permissions is never a declared collection attribute, so it never
	// goes through attributesForCodec's filter chains — but the gate reads
	// it off of every decoded document, so it has to survive decode
	// untouched regardless of what selections restrict the result to.
	if v, ok := doc.GetAttribute(model.AttributePermissions); ok {
		decoded.SetAttribute(model.AttributePermissions, v, model.SetAssign)
	}

	if len(selections) == 0 {
		return decoded, nil
	}
	out := model.NewDocument()
	for _, key := range selections {
		if v, ok := decoded.GetAttribute(key); ok {
			out.SetAttribute(key, v, model.SetAssign)
		}
	}
	for _, key := range internalAttributes {
		if v, ok := decoded.GetAttribute(key); ok {
			out.SetAttribute(key, v, model.SetAssign)
		}
	}
	if v, ok := decoded.GetAttribute(model.AttributePermissions); ok {
		out.SetAttribute(model.AttributePermissions, v, model.SetAssign)
	}
	return out, nil
}

// cast coerces every non-null attribute value to its declared primitive
// type, for adapters that report GetSupportForCasting() == false. A
// string-encoded array is JSON-parsed first.
func (c *codec) cast(collection Collection, doc *model.Document) error {
	for _, attr := range collection.Attributes {
		value, ok := doc.GetAttribute(attr.ID)
		if !ok || value == nil {
			continue
		}
		if attr.Array {
			if s, ok := value.(string); ok {
				var arr []interface{}
				if err := json.Unmarshal([]byte(s), &arr); err != nil {
					return newError(ErrGeneric, "cast: attribute %s is not a valid array: %v", attr.ID, err)
				}
				value = arr
			}
		}
		cast, err := castValue(attr, value)
		if err != nil {
			return err
		}
		doc.SetAttribute(attr.ID, cast, model.SetAssign)
	}
	return nil
}

func castValue(attr Attribute, value interface{}) (interface{}, error) {
	if arr, ok := value.([]interface{}); ok {
		out := make([]interface{}, len(arr))
		for i, el := range arr {
			v, err := castScalar(attr, el)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return castScalar(attr, value)
}

func castScalar(attr Attribute, value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	switch attr.Type {
	case TypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, newError(ErrGeneric, "cast: attribute %s is not a valid boolean: %v", attr.ID, value)
			}
			return b, nil
		}
	case TypeInteger:
		switch v := value.(type) {
		case float64:
			return int64(v), nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, newError(ErrGeneric, "cast: attribute %s is not a valid integer: %v", attr.ID, value)
			}
			return n, nil
		}
	case TypeDouble:
		switch v := value.(type) {
		case float64:
			return v, nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, newError(ErrGeneric, "cast: attribute %s is not a valid double: %v", attr.ID, value)
			}
			return f, nil
		}
	}
	return value, nil
}

func wrapArray(value interface{}, isArray bool) []interface{} {
	if !isArray {
		return []interface{}{value}
	}
	if arr, ok := value.([]interface{}); ok {
		return append([]interface{}(nil), arr...)
	}
	return []interface{}{value}
}

func unwrapArray(elements []interface{}, isArray bool) interface{} {
	if isArray {
		return elements
	}
	if len(elements) == 0 {
		return nil
	}
	return elements[0]
}
