// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package filters

import (
	"testing"

	"github.com/dalarub/docbase/model"
)

func TestNewRegistry_BuiltinsIdempotent(t *testing.T) {
	r1 := NewRegistry()
	r2 := NewRegistry()

	if _, ok := r1.Lookup("json"); !ok {
		t.Fatal("json filter must be registered on a fresh registry")
	}
	if _, ok := r2.Lookup("datetime"); !ok {
		t.Fatal("datetime filter must be registered on a fresh registry")
	}
}

func TestRegistry_InstanceShadowsShared(t *testing.T) {
	r := NewRegistry()
	custom := Filter{
		Encode: func(v interface{}, _ interface{}, _ Engine) interface{} { return "custom" },
		Decode: func(v interface{}, _ interface{}, _ Engine) interface{} { return v },
	}
	r.Register("json", custom)

	f, ok := r.Lookup("json")
	if !ok {
		t.Fatal("json must still resolve")
	}
	if got := f.Encode(nil, nil, nil); got != "custom" {
		t.Fatalf("instance registration should shadow shared, got %v", got)
	}

	other := NewRegistry()
	of, _ := other.Lookup("json")
	if got := of.Encode(map[string]interface{}{"a": 1}, nil, nil); got == "custom" {
		t.Fatal("shadowing on one registry must not leak into another")
	}
}

func TestRegistry_MustLookupMissing(t *testing.T) {
	r := NewRegistry()
	if _, err := r.MustLookup("does-not-exist"); err == nil {
		t.Fatal("expected an error for an unregistered filter name")
	}
}

func TestJSONFilter_RoundTrip(t *testing.T) {
	r := NewRegistry()
	f, _ := r.Lookup("json")

	doc := model.NewDocument()
	doc.SetAttribute("title", "hello", model.SetAssign)

	encoded := f.Encode(doc, nil, nil)
	s, ok := encoded.(string)
	if !ok {
		t.Fatalf("expected encoded value to be a string, got %T", encoded)
	}

	decoded := f.Decode(s, nil, nil)
	m, ok := decoded.(map[string]interface{})
	if !ok {
		t.Fatalf("expected decoded value to be a plain map (no $id), got %T", decoded)
	}
	if m["title"] != "hello" {
		t.Fatalf("expected title to round-trip, got %v", m["title"])
	}
}

func TestJSONFilter_WrapsDocumentOnID(t *testing.T) {
	r := NewRegistry()
	f, _ := r.Lookup("json")

	decoded := f.Decode(`{"$id":"b1","title":"X"}`, nil, nil)
	doc, ok := decoded.(*model.Document)
	if !ok {
		t.Fatalf("expected a *model.Document when $id is present, got %T", decoded)
	}
	if doc.GetID() != "b1" {
		t.Fatalf("expected id b1, got %s", doc.GetID())
	}
}

func TestDatetimeFilter_EncodeDecode(t *testing.T) {
	r := NewRegistry()
	f, _ := r.Lookup("datetime")

	encoded := f.Encode("2024-01-02T03:04:05Z", nil, nil)
	if encoded == "2024-01-02T03:04:05Z" {
		t.Fatal("expected datetime encode to canonicalize the value")
	}

	decoded := f.Decode(encoded, nil, nil)
	if decoded == nil {
		t.Fatal("expected a non-nil decoded value")
	}
}

func TestDatetimeFilter_NilPassesThrough(t *testing.T) {
	r := NewRegistry()
	f, _ := r.Lookup("datetime")

	if f.Encode(nil, nil, nil) != nil {
		t.Fatal("nil must pass through datetime encode unchanged")
	}
	if f.Decode(nil, nil, nil) != nil {
		t.Fatal("nil must pass through datetime decode unchanged")
	}
}
