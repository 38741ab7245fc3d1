// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package database

// attribute type names, bit-exact per the external interface contract
const (
	TypeString       = "string"
	TypeInteger      = "integer"
	TypeDouble       = "double"
	TypeBoolean      = "boolean"
	TypeDatetime     = "datetime"
	TypeRelationship = "relationship"
)

// index type names, bit-exact per the external interface contract
const (
	IndexKey      = "key"
	IndexFulltext = "fulltext"
	IndexUnique   = "unique"
	IndexSpatial  = "spatial"
	IndexArray    = "array"
)

// relationship cardinalities, bit-exact per the external interface contract
const (
	RelationOneToOne   = "oneToOne"
	RelationOneToMany  = "oneToMany"
	RelationManyToOne  = "manyToOne"
	RelationManyToMany = "manyToMany"
)

// relationship sides
const (
	SideParent = "parent"
	SideChild  = "child"
)

// MetadataCollectionID is the id of the self-describing catalog collection.
const MetadataCollectionID = "_metadata"

// EventAll is the catch-all event-bus channel token.
const EventAll = "*"

// schema-mutation event names. EVENT_COLLECTION_CREATE and
// EVENT_COLLECTION_DELETE are given distinct strings: the source this
// façade is modeled on assigns them the same literal, which is treated
// here as a bug rather than intended behavior.
const (
	EventCollectionCreate     = "collection_create"
	EventCollectionDelete     = "collection_delete"
	EventAttributeCreate      = "attribute_create"
	EventAttributeUpdate      = "attribute_update"
	EventAttributeDelete      = "attribute_delete"
	EventIndexCreate          = "index_create"
	EventIndexDelete          = "index_delete"
	EventRelationshipCreate   = "relationship_create"
	EventDocumentCreate       = "document_create"
	EventDocumentRead         = "document_read"
	EventDocumentUpdate       = "document_update"
	EventDocumentDelete       = "document_delete"
)

// fixed internal attributes every document carries regardless of the
// collection's user-defined attribute list.
var internalAttributes = []string{
	"$id", "$collection", "$createdAt", "$updatedAt",
}

// relationshipFetchDepthLimit caps oneToOne hydration recursion; the depth
// is carried per read in a readCursor, not stored on the Database.
const relationshipFetchDepthLimit = 2

// junction collection attribute names
const (
	junctionParentID = "id"
	junctionChildID  = "twoWayId"
)

// junctionKeySize is the fixed string(36) width of a junction collection's
// two key attributes (a UUID's canonical string length).
const junctionKeySize = 36
