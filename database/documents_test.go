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

	"github.com/dalarub/docbase/adapter/memory"
	"github.com/dalarub/docbase/cache/memorycache"
	"github.com/dalarub/docbase/core/access"
	"github.com/dalarub/docbase/model"
)

func newTestDatabase(t *testing.T, identity *access.Identity) *Database {
	t.Helper()
	return New(&Builder{
		Adapter: memory.New(),
		Cache:   memorycache.New(),
		Oracle:  access.NewStaticOracle(identity),
	})
}

func anyIdentity() *access.Identity {
	return &access.Identity{Subject: "users:anyone"}
}

// S1 — create/read round-trip.
func TestCreateGetDocumentRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, anyIdentity())

	_, err := db.CreateCollection(ctx, "books", []Attribute{
		{ID: "title", Type: TypeString, Size: 128, Required: true},
	}, nil, nil)
	require.NoError(t, err)

	doc := model.NewDocument()
	doc.SetID("b1")
	doc.SetAttribute("title", "X", model.SetAssign)
	doc.SetAttribute(model.AttributePermissions, []interface{}{
		`read("any")`, `update("any")`, `delete("any")`,
	}, model.SetAssign)

	_, err = db.CreateDocument(ctx, "books", doc)
	require.NoError(t, err)

	got, err := db.GetDocument(ctx, "books", "b1", nil)
	require.NoError(t, err)
	require.False(t, got.IsEmpty())

	title, _ := got.GetAttribute("title")
	assert.Equal(t, "X", title)

	createdAt, _ := got.GetAttribute(model.AttributeCreatedAt)
	updatedAt, _ := got.GetAttribute(model.AttributeUpdatedAt)
	assert.Equal(t, createdAt, updatedAt)
}

// S2 — case-insensitive attribute collision.
func TestCreateAttributeCaseInsensitiveCollision(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, anyIdentity())

	_, err := db.CreateCollection(ctx, "books", nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, db.CreateAttribute(ctx, "books", Attribute{ID: "Title", Type: TypeString, Size: 64}))

	err = db.CreateAttribute(ctx, "books", Attribute{ID: "title", Type: TypeString, Size: 64})
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrDuplicate))
}

// S3 — required + default rejected.
func TestRequiredAttributeRejectsDefault(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, anyIdentity())

	_, err := db.CreateCollection(ctx, "books", nil, nil, nil)
	require.NoError(t, err)

	err = db.CreateAttribute(ctx, "books", Attribute{
		ID: "sub", Type: TypeString, Size: 64, Required: true, Default: "x",
	})
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrGeneric))
}

// S4 — oneToMany hydration.
func TestOneToManyHydration(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, anyIdentity())

	_, err := db.CreateCollection(ctx, "author", []Attribute{
		{ID: "name", Type: TypeString, Size: 64},
	}, nil, nil)
	require.NoError(t, err)
	_, err = db.CreateCollection(ctx, "book", []Attribute{
		{ID: "title", Type: TypeString, Size: 64},
	}, nil, nil)
	require.NoError(t, err)

	err = db.CreateRelationship(ctx, "author", Attribute{
		ID:   "books",
		Type: TypeRelationship,
		Options: RelationshipOptions{
			RelatedCollection: "book",
			RelationType:      RelationOneToMany,
			TwoWay:            true,
		},
	})
	require.NoError(t, err)

	authorDoc := model.NewDocument()
	authorDoc.SetID("a1")
	authorDoc.SetAttribute("name", "Jane", model.SetAssign)
	authorDoc.SetAttribute(model.AttributePermissions, []interface{}{
		`read("any")`, `update("any")`, `delete("any")`,
	}, model.SetAssign)
	_, err = db.CreateDocument(ctx, "author", authorDoc)
	require.NoError(t, err)

	for _, id := range []string{"b1", "b2"} {
		bookDoc := model.NewDocument()
		bookDoc.SetID(id)
		bookDoc.SetAttribute("title", id, model.SetAssign)
		bookDoc.SetAttribute("authorId", "a1", model.SetAssign)
		bookDoc.SetAttribute(model.AttributePermissions, []interface{}{
			`read("any")`, `update("any")`, `delete("any")`,
		}, model.SetAssign)
		_, err = db.CreateDocument(ctx, "book", bookDoc)
		require.NoError(t, err)
	}

	got, err := db.GetDocument(ctx, "author", "a1", nil)
	require.NoError(t, err)
	books, ok := got.GetAttribute("books")
	require.True(t, ok)
	list, ok := books.([]interface{})
	require.True(t, ok)
	require.Len(t, list, 2)
	for _, item := range list {
		child, ok := item.(*model.Document)
		require.True(t, ok)
		_, hasBackPointer := child.GetAttribute("authorId")
		assert.False(t, hasBackPointer)
	}
}

// S5 — cache invalidation.
func TestUpdateDocumentPurgesCache(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, anyIdentity())

	_, err := db.CreateCollection(ctx, "books", []Attribute{
		{ID: "title", Type: TypeString, Size: 128},
	}, nil, nil)
	require.NoError(t, err)

	doc := model.NewDocument()
	doc.SetID("b1")
	doc.SetAttribute("title", "X", model.SetAssign)
	doc.SetAttribute(model.AttributePermissions, []interface{}{
		`read("any")`, `update("any")`, `delete("any")`,
	}, model.SetAssign)
	_, err = db.CreateDocument(ctx, "books", doc)
	require.NoError(t, err)

	first, err := db.GetDocument(ctx, "books", "b1", nil)
	require.NoError(t, err)
	title, _ := first.GetAttribute("title")
	assert.Equal(t, "X", title)

	update := model.NewDocument()
	update.SetAttribute("title", "Y", model.SetAssign)
	_, err = db.UpdateDocument(ctx, "books", "b1", update)
	require.NoError(t, err)

	second, err := db.GetDocument(ctx, "books", "b1", nil)
	require.NoError(t, err)
	title, _ = second.GetAttribute("title")
	assert.Equal(t, "Y", title)
}

// S6 — permission denial on update.
func TestUpdateDeniedByPermission(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, &access.Identity{Subject: "users:bob"})

	_, err := db.CreateCollection(ctx, "books", []Attribute{
		{ID: "title", Type: TypeString, Size: 128},
	}, nil, nil)
	require.NoError(t, err)

	doc := model.NewDocument()
	doc.SetID("b1")
	doc.SetAttribute("title", "X", model.SetAssign)
	doc.SetAttribute(model.AttributePermissions, []interface{}{
		`read("any")`, `update("user:alice")`, `delete("user:alice")`,
	}, model.SetAssign)
	_, err = db.CreateDocument(ctx, "books", doc)
	require.NoError(t, err)

	update := model.NewDocument()
	update.SetAttribute("title", "Y", model.SetAssign)
	_, err = db.UpdateDocument(ctx, "books", "b1", update)
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrAuthorization))

	unchanged, err := db.GetDocument(ctx, "books", "b1", nil)
	require.NoError(t, err)
	title, _ := unchanged.GetAttribute("title")
	assert.Equal(t, "X", title)
}

// S7 — increase bound.
func TestIncreaseDocumentAttributeBound(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, anyIdentity())

	_, err := db.CreateCollection(ctx, "counters", []Attribute{
		{ID: "count", Type: TypeInteger, Size: 8},
	}, nil, nil)
	require.NoError(t, err)

	doc := model.NewDocument()
	doc.SetID("c1")
	doc.SetAttribute("count", 5, model.SetAssign)
	doc.SetAttribute(model.AttributePermissions, []interface{}{
		`read("any")`, `update("any")`, `delete("any")`,
	}, model.SetAssign)
	_, err = db.CreateDocument(ctx, "counters", doc)
	require.NoError(t, err)

	max := 7.0
	_, err = db.IncreaseDocumentAttribute(ctx, "counters", "c1", "count", 3, &max)
	require.Error(t, err)

	result, err := db.IncreaseDocumentAttribute(ctx, "counters", "c1", "count", 2, &max)
	require.NoError(t, err)
	assert.Equal(t, 7.0, result)
}

// invariant 7 — _metadata short-circuits without touching adapter or cache.
func TestMetadataBootstrapShortCircuits(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, anyIdentity())

	got, err := db.GetDocument(ctx, MetadataCollectionID, MetadataCollectionID, nil)
	require.NoError(t, err)
	require.False(t, got.IsEmpty())
	name, _ := got.GetAttribute("name")
	assert.Equal(t, MetadataCollectionID, name)
}

// invariant 4 — cache purge after update/delete leaves no family member.
func TestDeleteDocumentPurgesCache(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, anyIdentity())

	_, err := db.CreateCollection(ctx, "books", []Attribute{
		{ID: "title", Type: TypeString, Size: 128},
	}, nil, nil)
	require.NoError(t, err)

	doc := model.NewDocument()
	doc.SetID("b1")
	doc.SetAttribute("title", "X", model.SetAssign)
	doc.SetAttribute(model.AttributePermissions, []interface{}{
		`read("any")`, `update("any")`, `delete("any")`,
	}, model.SetAssign)
	_, err = db.CreateDocument(ctx, "books", doc)
	require.NoError(t, err)

	_, err = db.GetDocument(ctx, "books", "b1", nil)
	require.NoError(t, err)

	require.NoError(t, db.DeleteDocument(ctx, "books", "b1"))

	got, err := db.GetDocument(ctx, "books", "b1", nil)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestFindOneEmptySentinel(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, anyIdentity())

	_, err := db.CreateCollection(ctx, "books", []Attribute{
		{ID: "title", Type: TypeString, Size: 128},
	}, nil, nil)
	require.NoError(t, err)

	got, err := db.FindOne(ctx, "books", []model.Query{model.Equal("title", "missing")})
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

// oneToOne two-way relationships back-patch the mirror attribute directly;
// this exercises the fix that stops that back-patch from cascading back
// into the document that triggered it.
func TestOneToOneTwoWayBackpatch(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, anyIdentity())

	_, err := db.CreateCollection(ctx, "profile", []Attribute{
		{ID: "bio", Type: TypeString, Size: 128},
	}, nil, nil)
	require.NoError(t, err)
	_, err = db.CreateCollection(ctx, "person", []Attribute{
		{ID: "name", Type: TypeString, Size: 64},
	}, nil, nil)
	require.NoError(t, err)

	err = db.CreateRelationship(ctx, "person", Attribute{
		ID:   "profile",
		Type: TypeRelationship,
		Options: RelationshipOptions{
			RelatedCollection: "profile",
			RelationType:      RelationOneToOne,
			TwoWay:            true,
		},
	})
	require.NoError(t, err)

	profileDoc := model.NewDocument()
	profileDoc.SetID("p1")
	profileDoc.SetAttribute("bio", "hello", model.SetAssign)
	profileDoc.SetAttribute(model.AttributePermissions, []interface{}{
		`read("any")`, `update("any")`, `delete("any")`,
	}, model.SetAssign)
	_, err = db.CreateDocument(ctx, "profile", profileDoc)
	require.NoError(t, err)

	personDoc := model.NewDocument()
	personDoc.SetID("person1")
	personDoc.SetAttribute("name", "Alice", model.SetAssign)
	personDoc.SetAttribute("profile", "p1", model.SetAssign)
	personDoc.SetAttribute(model.AttributePermissions, []interface{}{
		`read("any")`, `update("any")`, `delete("any")`,
	}, model.SetAssign)
	_, err = db.CreateDocument(ctx, "person", personDoc)
	require.NoError(t, err)

	gotProfile, err := db.GetDocument(ctx, "profile", "p1", nil)
	require.NoError(t, err)
	personRef, ok := gotProfile.GetAttribute("personId")
	require.True(t, ok)
	person, ok := personRef.(*model.Document)
	require.True(t, ok)
	assert.Equal(t, "person1", person.GetID())
}

// manyToMany relationship writes insert a junction row instead of hydrating
// at read time.
func TestManyToManyJunctionWrite(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, anyIdentity())

	_, err := db.CreateCollection(ctx, "post", []Attribute{
		{ID: "title", Type: TypeString, Size: 64},
	}, nil, nil)
	require.NoError(t, err)
	_, err = db.CreateCollection(ctx, "tag", []Attribute{
		{ID: "label", Type: TypeString, Size: 64},
	}, nil, nil)
	require.NoError(t, err)

	err = db.CreateRelationship(ctx, "post", Attribute{
		ID:   "tags",
		Type: TypeRelationship,
		Options: RelationshipOptions{
			RelatedCollection: "tag",
			RelationType:      RelationManyToMany,
			TwoWay:            true,
		},
	})
	require.NoError(t, err)

	tagDoc := model.NewDocument()
	tagDoc.SetID("t1")
	tagDoc.SetAttribute("label", "go", model.SetAssign)
	tagDoc.SetAttribute(model.AttributePermissions, []interface{}{
		`read("any")`, `update("any")`, `delete("any")`,
	}, model.SetAssign)
	_, err = db.CreateDocument(ctx, "tag", tagDoc)
	require.NoError(t, err)

	postDoc := model.NewDocument()
	postDoc.SetID("post1")
	postDoc.SetAttribute("title", "hello", model.SetAssign)
	postDoc.SetAttribute("tags", []interface{}{"t1"}, model.SetAssign)
	postDoc.SetAttribute(model.AttributePermissions, []interface{}{
		`read("any")`, `update("any")`, `delete("any")`,
	}, model.SetAssign)
	_, err = db.CreateDocument(ctx, "post", postDoc)
	require.NoError(t, err)

	junctionRows, err := db.Find(ctx, "post_tag", []model.Query{model.Equal("id", "post1")})
	require.NoError(t, err)
	require.Len(t, junctionRows, 1)
	twoWayID, _ := junctionRows[0].GetAttribute("twoWayId")
	assert.Equal(t, "t1", twoWayID)
}
