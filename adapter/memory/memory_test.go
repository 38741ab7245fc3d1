// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package memory

import (
	"context"
	"testing"

	"github.com/dalarub/docbase/adapter"
	"github.com/dalarub/docbase/model"
)

func TestAdapter_CreateGetDocument(t *testing.T) {
	ctx := context.Background()
	a := New()
	if err := a.CreateCollection(ctx, "books", nil); err != nil {
		t.Fatal(err)
	}

	created, err := a.CreateDocument(ctx, "books", map[string]interface{}{
		model.AttributeID: "b1",
		"title":           "X",
	})
	if err != nil {
		t.Fatal(err)
	}
	if created["title"] != "X" {
		t.Fatalf("expected title X, got %v", created["title"])
	}

	got, err := a.GetDocument(ctx, "books", "b1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got["title"] != "X" {
		t.Fatalf("expected title X on read-back, got %v", got["title"])
	}
}

func TestAdapter_UpdateDeleteDocument(t *testing.T) {
	ctx := context.Background()
	a := New()
	a.CreateCollection(ctx, "books", nil)
	a.CreateDocument(ctx, "books", map[string]interface{}{model.AttributeID: "b1", "title": "X"})

	if _, err := a.UpdateDocument(ctx, "books", "b1", map[string]interface{}{"title": "Y"}); err != nil {
		t.Fatal(err)
	}
	got, _ := a.GetDocument(ctx, "books", "b1", nil)
	if got["title"] != "Y" {
		t.Fatalf("expected title Y after update, got %v", got["title"])
	}

	if err := a.DeleteDocument(ctx, "books", "b1"); err != nil {
		t.Fatal(err)
	}
	got, _ = a.GetDocument(ctx, "books", "b1", nil)
	if got != nil {
		t.Fatal("expected nil after delete")
	}
}

func TestAdapter_IncreaseDocumentAttributeBound(t *testing.T) {
	ctx := context.Background()
	a := New()
	a.CreateCollection(ctx, "books", nil)
	a.CreateDocument(ctx, "books", map[string]interface{}{model.AttributeID: "b1", "count": float64(5)})

	max := 7.0
	if _, err := a.IncreaseDocumentAttribute(ctx, "books", "b1", "count", 3, nil, &max); err == nil {
		t.Fatal("expected increase exceeding max to fail")
	}
	result, err := a.IncreaseDocumentAttribute(ctx, "books", "b1", "count", 2, nil, &max)
	if err != nil {
		t.Fatal(err)
	}
	if result != 7 {
		t.Fatalf("expected 7, got %v", result)
	}
}

func TestAdapter_FindFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	a := New()
	a.CreateCollection(ctx, "books", nil)
	a.CreateDocument(ctx, "books", map[string]interface{}{model.AttributeID: "b1", "year": float64(2001)})
	a.CreateDocument(ctx, "books", map[string]interface{}{model.AttributeID: "b2", "year": float64(1999)})
	a.CreateDocument(ctx, "books", map[string]interface{}{model.AttributeID: "b3", "year": float64(2010)})

	rows, err := a.Find(ctx, "books", []model.Query{model.NewQuery(model.MethodGreaterThan, "year", float64(2000))},
		25, 0, []string{"year"}, []model.Order{model.OrderAsc}, "", model.CursorAfter)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows with year > 2000, got %d", len(rows))
	}
	if rows[0][model.AttributeID] != "b1" || rows[1][model.AttributeID] != "b3" {
		t.Fatalf("expected ascending order by year, got %v then %v", rows[0][model.AttributeID], rows[1][model.AttributeID])
	}
}

func TestAdapter_FindCursorAfter(t *testing.T) {
	ctx := context.Background()
	a := New()
	a.CreateCollection(ctx, "books", nil)
	a.CreateDocument(ctx, "books", map[string]interface{}{model.AttributeID: "b1"})
	a.CreateDocument(ctx, "books", map[string]interface{}{model.AttributeID: "b2"})
	a.CreateDocument(ctx, "books", map[string]interface{}{model.AttributeID: "b3"})

	rows, err := a.Find(ctx, "books", nil, 25, 0, nil, nil, "b1", model.CursorAfter)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][model.AttributeID] != "b2" {
		t.Fatalf("expected b2,b3 after cursor b1, got %v", rows)
	}
}

func TestAdapter_SatisfiesInterface(t *testing.T) {
	var _ adapter.Adapter = New()
}
