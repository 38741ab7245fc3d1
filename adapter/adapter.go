// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package adapter defines the storage Adapter contract the document engine
// depends on. The core owns no bytes of its own: every physical read or
// write, and every schema mutation, is delegated to a concrete Adapter
// implementation (see adapter/memory and adapter/postgres).
package adapter

import (
	"context"

	"github.com/dalarub/docbase/model"
)

// Attribute is the physical descriptor of a collection attribute the
// adapter is asked to create, alter, or drop.
type Attribute struct {
	ID            string
	Type          string
	Size          int
	Required      bool
	Signed        bool
	Array         bool
	Default       interface{}
	Format        string
	FormatOptions map[string]interface{}
	Filters       []string
	Options       RelationshipOptions
}

// RelationshipOptions carries the extra descriptor fields a relationship
// attribute needs, populated only when Attribute.Type == "relationship".
type RelationshipOptions struct {
	RelatedCollection string
	RelationType      string
	TwoWay            bool
	TwoWayID          string
	OnUpdate          string
	OnDelete          string
	Side              string
}

// Index is the physical descriptor of a collection index.
type Index struct {
	ID         string
	Type       string
	Attributes []string
	Lengths    []int
	Orders     []model.Order
}

// Adapter is the storage backend contract the document engine, schema
// manager, and relationship resolver consume. An Adapter owns no document
// semantics of its own: it persists, indexes, and returns whatever rows it
// is given.
type Adapter interface {
	SetNamespace(namespace string)
	GetNamespace() string
	SetDefaultDatabase(database string)
	GetDefaultDatabase() string
	Ping(ctx context.Context) error

	Create(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, database, collection string) (bool, error)

	CreateCollection(ctx context.Context, collection string, attributes []Attribute) error
	DeleteCollection(ctx context.Context, collection string) error

	CreateAttribute(ctx context.Context, collection string, attribute Attribute) error
	UpdateAttribute(ctx context.Context, collection string, attribute Attribute) error
	DeleteAttribute(ctx context.Context, collection, attributeID string) error
	RenameAttribute(ctx context.Context, collection, oldID, newID string) error

	CreateIndex(ctx context.Context, collection string, index Index) error
	DeleteIndex(ctx context.Context, collection, indexID string) error
	RenameIndex(ctx context.Context, collection, oldID, newID string) error

	CreateRelationship(ctx context.Context, collection string, attribute Attribute) error

	GetDocument(ctx context.Context, collection, id string, selections []string) (map[string]interface{}, error)
	CreateDocument(ctx context.Context, collection string, document map[string]interface{}) (map[string]interface{}, error)
	UpdateDocument(ctx context.Context, collection, id string, document map[string]interface{}) (map[string]interface{}, error)
	DeleteDocument(ctx context.Context, collection, id string) error

	IncreaseDocumentAttribute(ctx context.Context, collection, id, attribute string, delta float64, min, max *float64) (float64, error)

	Find(ctx context.Context, collection string, queries []model.Query, limit, offset int, orderAttributes []string, orderTypes []model.Order, cursor string, direction model.CursorDirection) ([]map[string]interface{}, error)
	Count(ctx context.Context, collection string, queries []model.Query, max int) (int, error)
	Sum(ctx context.Context, collection, attribute string, queries []model.Query, max int) (float64, error)

	GetLimitForAttributes() int
	GetLimitForIndexes() int
	GetLimitForString() int
	GetLimitForInt() int
	GetCountOfAttributes(collection string) int
	GetCountOfIndexes(collection string) int
	GetCountOfDefaultAttributes() int
	GetCountOfDefaultIndexes() int
	GetAttributeWidth(collection string) int
	GetDocumentSizeLimit() int
	GetSupportForIndex() bool
	GetSupportForUniqueIndex() bool
	GetSupportForCasting() bool
	GetKeywords() []string
}
