// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package database

import "github.com/dalarub/docbase/model"

// structureFor builds a Structure validator for collection's user-defined,
// non-relationship attributes: required fields and primitive types. It is
// rebuilt per call rather than cached, so a schema mutation is reflected on
// the very next create/update without a separate invalidation path.
func structureFor(collection Collection) (model.Structure, error) {
	properties := map[string]interface{}{}
	var required []string
	for _, attr := range collection.Attributes {
		if attr.Type == TypeRelationship {
			continue
		}
		properties[attr.ID] = jsonSchemaFor(attr)
		if attr.Required {
			required = append(required, attr.ID)
		}
	}
	schemaDoc := map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}
	if len(required) > 0 {
		schemaDoc["required"] = required
	}
	return model.NewJSONSchemaStructure(schemaDoc, "collection "+collection.Name)
}

func jsonSchemaFor(attr Attribute) map[string]interface{} {
	var t string
	switch attr.Type {
	case TypeInteger:
		t = "integer"
	case TypeDouble:
		t = "number"
	case TypeBoolean:
		t = "boolean"
	default:
		t = "string"
	}
	prop := map[string]interface{}{}
	if attr.Array {
		prop["type"] = "array"
		prop["items"] = map[string]interface{}{"type": t}
	} else {
		prop["type"] = []string{t, "null"}
	}
	return prop
}
