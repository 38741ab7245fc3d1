// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package cache

import "testing"

func TestKey_WildcardSelection(t *testing.T) {
	got := Key("tenant1", "books", "b1", "")
	want := "cache-tenant1:books:b1:*"
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestKey_WithSelection(t *testing.T) {
	got := Key("tenant1", "books", "b1", "title")
	want := "cache-tenant1:books:b1:title"
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestFamilyPattern(t *testing.T) {
	got := FamilyPattern("tenant1", "books", "b1")
	want := "cache-tenant1:books:b1:*"
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestSelectionFingerprint_OrderIndependent(t *testing.T) {
	a := SelectionFingerprint([]string{"title", "author"})
	b := SelectionFingerprint([]string{"author", "title"})
	if a != b {
		t.Fatalf("expected order-independent fingerprints, got %s vs %s", a, b)
	}
}

func TestSelectionFingerprint_Empty(t *testing.T) {
	if got := SelectionFingerprint(nil); got != "*" {
		t.Fatalf("expected * for an empty selection, got %s", got)
	}
}
