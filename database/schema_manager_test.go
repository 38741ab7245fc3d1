// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeLifecycleUpdateDeleteRename(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, anyIdentity())

	_, err := db.CreateCollection(ctx, "widgets", []Attribute{
		{ID: "name", Type: TypeString, Size: 32},
	}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, db.UpdateAttribute(ctx, "widgets", Attribute{ID: "name", Type: TypeString, Size: 64, Required: true}))
	col, err := db.mustGetCollection(ctx, "widgets")
	require.NoError(t, err)
	attr, ok := col.FindAttribute("name")
	require.True(t, ok)
	assert.Equal(t, 64, attr.Size)
	assert.True(t, attr.Required)

	require.NoError(t, db.RenameAttribute(ctx, "widgets", "name", "label"))
	col, err = db.mustGetCollection(ctx, "widgets")
	require.NoError(t, err)
	_, stillThere := col.FindAttribute("name")
	assert.False(t, stillThere)
	_, renamed := col.FindAttribute("label")
	assert.True(t, renamed)

	err = db.RenameAttribute(ctx, "widgets", "missing", "whatever")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrGeneric))

	require.NoError(t, db.DeleteAttribute(ctx, "widgets", "label"))
	col, err = db.mustGetCollection(ctx, "widgets")
	require.NoError(t, err)
	_, deleted := col.FindAttribute("label")
	assert.False(t, deleted)

	err = db.DeleteAttribute(ctx, "widgets", "label")
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrGeneric))
}

func TestIndexLifecycleCreateRenameDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, anyIdentity())

	_, err := db.CreateCollection(ctx, "widgets", []Attribute{
		{ID: "sku", Type: TypeString, Size: 32},
	}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, db.CreateIndex(ctx, "widgets", Index{ID: "bySku", Type: IndexKey, Attributes: []string{"sku"}}))

	err = db.CreateIndex(ctx, "widgets", Index{ID: "bySku", Type: IndexKey, Attributes: []string{"sku"}})
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrDuplicate))

	err = db.CreateIndex(ctx, "widgets", Index{ID: "byGhost", Type: IndexKey, Attributes: []string{"ghost"}})
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrGeneric))

	require.NoError(t, db.RenameIndex(ctx, "widgets", "bySku", "skuIndex"))
	col, err := db.mustGetCollection(ctx, "widgets")
	require.NoError(t, err)
	_, renamed := col.FindIndex("skuIndex")
	assert.True(t, renamed)

	require.NoError(t, db.DeleteIndex(ctx, "widgets", "skuIndex"))
	col, err = db.mustGetCollection(ctx, "widgets")
	require.NoError(t, err)
	_, deleted := col.FindIndex("skuIndex")
	assert.False(t, deleted)
}

func TestDeleteCollectionRemovesFromListing(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, anyIdentity())

	_, err := db.CreateCollection(ctx, "throwaway", nil, nil, nil)
	require.NoError(t, err)

	cols, err := db.ListCollections(ctx)
	require.NoError(t, err)
	found := false
	for _, c := range cols {
		if c.ID == "throwaway" {
			found = true
		}
	}
	assert.True(t, found)

	require.NoError(t, db.DeleteCollection(ctx, "throwaway"))

	cols, err = db.ListCollections(ctx)
	require.NoError(t, err)
	for _, c := range cols {
		assert.NotEqual(t, "throwaway", c.ID)
	}
}
