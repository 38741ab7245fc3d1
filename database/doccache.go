// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package database

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/dalarub/docbase/cache"
	"github.com/dalarub/docbase/core/logger"
	"github.com/dalarub/docbase/model"
)

// loadCached attempts the write-through cache before falling back to the
// adapter. It returns ok==false on a miss; callers are responsible for
// populating the cache afterward via saveCached. selections is the
// validated attribute list the caller asked for (empty when unrestricted,
// which SelectionFingerprint keys as "*").
func (d *Database) loadCached(ctx context.Context, collection, id string, selections []string) (*model.Document, bool) {
	key := cache.Key(d.namespace, collection, id, cache.SelectionFingerprint(selections))
	raw, ok, err := d.cache.Load(ctx, key, cache.DefaultTTLSeconds)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warnln("database: cache load failed", key)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	doc := model.NewDocument()
	if err := json.Unmarshal([]byte(raw), doc); err != nil {
		logger.FromContext(ctx).WithError(err).Warnln("database: cache entry unreadable", key)
		return nil, false
	}
	return doc, true
}

// saveCached stores doc under the selection-scoped key, best-effort: a cache
// write failure is logged, not raised, since the adapter already holds the
// authoritative value.
func (d *Database) saveCached(ctx context.Context, collection, id string, selections []string, doc *model.Document) {
	key := cache.Key(d.namespace, collection, id, cache.SelectionFingerprint(selections))
	raw, err := json.Marshal(doc)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warnln("database: cannot marshal document for cache", key)
		return
	}
	if err := d.cache.Save(ctx, key, string(raw)); err != nil {
		logger.FromContext(ctx).WithError(err).Warnln("database: cache save failed", key)
	}
}

// purgeFamily purges every cached selection of one document. Called after
// every successful update, delete, increase or decrease, before the result
// becomes visible to the caller (spec.md §5 ordering guarantee).
func (d *Database) purgeFamily(ctx context.Context, collection, id string) {
	if err := d.cache.Purge(ctx, cache.FamilyPattern(d.namespace, collection, id)); err != nil {
		logger.FromContext(ctx).WithError(err).Warnln("database: cache purge failed", collection, id)
	}
}

// PurgeCollection purges every cached document of collection, the bulk
// per-collection purge spec.md §4.4 exposes.
func (d *Database) PurgeCollection(ctx context.Context, collection string) error {
	return d.cache.Purge(ctx, cache.CollectionPattern(d.namespace, collection))
}
