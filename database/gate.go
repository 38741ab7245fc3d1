// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package database

import (
	"context"

	"github.com/dalarub/docbase/core/access"
	"github.com/dalarub/docbase/model"
)

// authorize evaluates kind against doc's permission set for the identity the
// oracle resolves from ctx. The "_metadata" collection is exempt (schema
// operations bypass the gate, per spec.md §4.3), and a Disable scope (used
// by administrative listings) forces every check to succeed.
func (d *Database) authorize(ctx context.Context, collection string, doc *model.Document, kind access.PermissionKind) bool {
	if collection == MetadataCollectionID {
		return true
	}
	if d.disable.Active() || d.skip.Active() {
		return true
	}
	tokens := permissionTokens(doc, kind)
	identity := d.oracle.Identity(ctx)
	return access.IsValid(tokens, identity)
}

func permissionTokens(doc *model.Document, kind access.PermissionKind) []string {
	switch kind {
	case access.PermissionCreate:
		return doc.GetCreate()
	case access.PermissionUpdate:
		return doc.GetUpdate()
	case access.PermissionDelete:
		return doc.GetDelete()
	default:
		return doc.GetRead()
	}
}

// withSkip runs f with the permission gate forced valid: used to fetch the
// prior document in update/delete so authorization is evaluated against the
// document's own stored permissions, not the caller's read rights.
func (d *Database) withSkip(f func() error) error {
	return d.skip.With(f)
}

// WithDisabledPermissions runs f with every permission check forced valid,
// for administrative listings that must see every document regardless of
// its permission set.
func (d *Database) WithDisabledPermissions(f func() error) error {
	return d.disable.With(f)
}
