// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package database implements the schema-managed document database façade:
// the metadata catalog, permission gate, cache layer, codec pipeline,
// schema manager, document engine, relationship resolver, event bus and
// query normalizer described by the system this repository ships. It owns
// no bytes of its own — every physical read, write and schema mutation is
// delegated to a pluggable adapter.Adapter, and every cached document round
// trips through a pluggable cache.Cache.
package database

import (
	kafka "github.com/segmentio/kafka-go"

	"github.com/dalarub/docbase/adapter"
	"github.com/dalarub/docbase/cache"
	"github.com/dalarub/docbase/core/access"
	"github.com/dalarub/docbase/filters"
)

// Database is the document engine, wired to one adapter, one cache, one
// ambient identity oracle and one filter registry. Per the concurrency
// model, a single Database value is meant to be driven by one logical
// actor; multiple Database values sharing the same namespace/adapter/cache
// are supported and coordinate through the adapter's own locking.
type Database struct {
	adapter   adapter.Adapter
	cache     cache.Cache
	oracle    access.Oracle
	namespace string

	registry *filters.Registry
	codec    *codec
	events   *Events

	skip    access.ScopedCounter
	disable access.ScopedCounter
}

// Builder configures a Database. Adapter and Cache are mandatory; every
// other field has a documented default.
type Builder struct {
	// Adapter is the pluggable storage backend. Mandatory.
	Adapter adapter.Adapter
	// Cache is the write-through document cache. Mandatory.
	Cache cache.Cache
	// Oracle supplies the ambient identity for permission checks. Defaults
	// to access.ContextOracle{}, which reads an Identity attached to the
	// context via access.ContextWithIdentity.
	Oracle access.Oracle
	// Namespace prefixes every cache key, separating logical tenants that
	// share one adapter and cache. Defaults to "default".
	Namespace string
	// KafkaWriter, when set, mirrors every schema/document event onto a
	// Kafka topic synchronously alongside the in-process fan-out.
	KafkaWriter *kafka.Writer
}

// New realizes a Database from a Builder. It registers the built-in json
// and datetime filters (idempotently, across every Database constructed in
// the process). The "_metadata" collection is not created here; the first
// CreateCollection call creates it on the adapter.
func New(b *Builder) *Database {
	if b.Adapter == nil {
		panic("database.New: Adapter is missing")
	}
	if b.Cache == nil {
		panic("database.New: Cache is missing")
	}

	oracle := b.Oracle
	if oracle == nil {
		oracle = access.ContextOracle{}
	}
	namespace := b.Namespace
	if namespace == "" {
		namespace = "default"
	}

	reg := filters.NewRegistry()
	events := NewEvents()
	if b.KafkaWriter != nil {
		events.WithKafkaMirror(b.KafkaWriter)
	}

	b.Adapter.SetNamespace(namespace)

	db := &Database{
		adapter:   b.Adapter,
		cache:     b.Cache,
		oracle:    oracle,
		namespace: namespace,
		registry:  reg,
		codec:     newCodec(reg),
		events:    events,
	}
	return db
}

// RegisterFilter adds a filter to this Database's instance registry,
// shadowing any process-wide filter of the same name for this Database only.
func (d *Database) RegisterFilter(name string, f filters.Filter) {
	d.registry.Register(name, f)
}

// On registers listener for event on this Database's event bus.
func (d *Database) On(event string, listener Listener) {
	d.events.On(event, listener)
}

// Namespace returns the cache-key namespace this Database was built with.
func (d *Database) Namespace() string { return d.namespace }
