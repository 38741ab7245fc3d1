// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package memorycache

import (
	"context"
	"testing"
)

func TestCache_SaveLoad(t *testing.T) {
	c := New()
	ctx := context.Background()

	if err := c.Save(ctx, "cache-ns:books:b1:*", "hello"); err != nil {
		t.Fatal(err)
	}
	value, ok, err := c.Load(ctx, "cache-ns:books:b1:*", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || value != "hello" {
		t.Fatalf("expected hit with value hello, got ok=%v value=%s", ok, value)
	}
}

func TestCache_LoadMiss(t *testing.T) {
	c := New()
	_, ok, err := c.Load(context.Background(), "does-not-exist", 0)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected a miss for an unseen key")
	}
}

func TestCache_PurgeWildcard(t *testing.T) {
	c := New()
	ctx := context.Background()
	c.Save(ctx, "cache-ns:books:b1:title", "a")
	c.Save(ctx, "cache-ns:books:b1:*", "b")
	c.Save(ctx, "cache-ns:books:b2:title", "c")

	if err := c.Purge(ctx, "cache-ns:books:b1:*"); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := c.Load(ctx, "cache-ns:books:b1:title", 0); ok {
		t.Fatal("expected b1's title entry to be purged")
	}
	if _, ok, _ := c.Load(ctx, "cache-ns:books:b2:title", 0); !ok {
		t.Fatal("expected b2's entry to survive b1's purge")
	}
}
