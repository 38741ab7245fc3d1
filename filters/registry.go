// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package filters implements the named, reversible value transforms the
// codec pipeline applies per attribute, and the two-level registry
// (process-wide shadowed by instance-scoped) that looks them up by name.
package filters

import (
	"fmt"
	"sync"
)

// Engine is the narrow slice of the document engine a filter's encode/decode
// function may consult, e.g. to look up sibling attribute values already
// encoded/decoded on the same document.
type Engine interface {
	GetDocument(collection, id string) (interface{}, error)
}

// EncodeFunc transforms a value on its way into storage.
type EncodeFunc func(value interface{}, document interface{}, engine Engine) interface{}

// DecodeFunc transforms a value on its way out of storage.
type DecodeFunc func(value interface{}, document interface{}, engine Engine) interface{}

// Filter is the encode/decode pair registered under a name.
type Filter struct {
	Encode EncodeFunc
	Decode DecodeFunc
}

var (
	sharedMu       sync.RWMutex
	shared         = make(map[string]Filter)
	registerBuiltins sync.Once
)

// Registry is the per-instance filter lookup. It shadows the process-wide
// registry: a name registered on the instance takes precedence over the
// same name registered process-wide, matching spec'd shadowing semantics.
type Registry struct {
	mu       sync.RWMutex
	instance map[string]Filter
}

// NewRegistry returns an instance registry with the process-wide built-ins
// registered exactly once, regardless of how many Registry values are
// constructed over the program's lifetime.
func NewRegistry() *Registry {
	registerBuiltins.Do(registerBuiltinFilters)
	return &Registry{instance: make(map[string]Filter)}
}

// Register adds a filter under name to the instance registry, shadowing any
// process-wide filter of the same name for this registry only.
func (r *Registry) Register(name string, f Filter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instance[name] = f
}

// RegisterShared adds a filter under name to the process-wide registry,
// visible to every Registry that does not shadow it with its own instance
// entry. Intended for application bootstrap, not per-request use.
func RegisterShared(name string, f Filter) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	shared[name] = f
}

// Lookup resolves name, preferring the instance registry over the
// process-wide one. The second return value is false if name is registered
// in neither, which is a fatal configuration error for the caller to raise.
func (r *Registry) Lookup(name string) (Filter, bool) {
	r.mu.RLock()
	f, ok := r.instance[name]
	r.mu.RUnlock()
	if ok {
		return f, true
	}
	sharedMu.RLock()
	f, ok = shared[name]
	sharedMu.RUnlock()
	return f, ok
}

// MustLookup resolves name or returns an error identifying the missing
// filter, for callers (the codec pipeline) that treat an absent filter as a
// fatal configuration error rather than a recoverable one.
func (r *Registry) MustLookup(name string) (Filter, error) {
	f, ok := r.Lookup(name)
	if !ok {
		return Filter{}, fmt.Errorf("filter not found: %s", name)
	}
	return f, nil
}
