// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

import (
	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

// Structure is the external collaborator the document engine asks to
// validate a candidate document before it reaches the adapter. Callers
// build one per collection shape; the engine never constructs its schema.
type Structure interface {
	IsValid(document interface{}) bool
	GetDescription() string
}

// IndexValidator is the external collaborator the schema manager asks to
// validate a candidate index descriptor before it reaches the adapter.
type IndexValidator interface {
	IsValid(index interface{}) bool
	GetDescription() string
}

// jsonSchemaStructure implements Structure against a compiled JSON schema,
// mirroring the gojsonschema validator the rest of the ambient stack uses
// for every other structural check in this codebase.
type jsonSchemaStructure struct {
	schema      *gojsonschema.Schema
	description string
	lastError   string
}

// NewJSONSchemaStructure compiles schemaDoc (a JSON-schema document, e.g.
// built by the schema manager from a collection's attribute list) into a
// Structure. description is returned verbatim by GetDescription.
func NewJSONSchemaStructure(schemaDoc map[string]interface{}, description string) (Structure, error) {
	raw, err := json.Marshal(schemaDoc)
	if err != nil {
		return nil, err
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, err
	}
	return &jsonSchemaStructure{schema: schema, description: description}, nil
}

// IsValid reports whether document (a map, a *Document's array copy, or any
// JSON-marshalable value) satisfies the compiled schema. The failure detail
// from the last call is retained and folded into GetDescription.
func (s *jsonSchemaStructure) IsValid(document interface{}) bool {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		s.lastError = err.Error()
		return false
	}
	if !result.Valid() {
		msg := ""
		for _, e := range result.Errors() {
			msg += e.String() + "; "
		}
		s.lastError = msg
		return false
	}
	s.lastError = ""
	return true
}

// GetDescription returns the structure's static description, appending the
// most recent validation failure detail, if any.
func (s *jsonSchemaStructure) GetDescription() string {
	if s.lastError == "" {
		return s.description
	}
	return s.description + ": " + s.lastError
}

// funcIndexValidator adapts a plain predicate into an IndexValidator. Index
// validation is pure structural logic (attribute count, known-attribute
// membership, length bounds) with no need for a schema compiler.
type funcIndexValidator struct {
	description string
	lastError   string
	fn          func(index interface{}) (bool, string)
}

// NewIndexValidator builds an IndexValidator from a predicate. fn returns
// whether index is valid and, when it is not, a human-readable reason.
func NewIndexValidator(description string, fn func(index interface{}) (bool, string)) IndexValidator {
	return &funcIndexValidator{description: description, fn: fn}
}

func (v *funcIndexValidator) IsValid(index interface{}) bool {
	ok, reason := v.fn(index)
	v.lastError = reason
	return ok
}

func (v *funcIndexValidator) GetDescription() string {
	if v.lastError == "" {
		return v.description
	}
	return v.description + ": " + v.lastError
}
