// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access

import "strings"

// PermissionKind is one of the four permission kinds a document carries,
// plus the "write" aggregate used when create/update/delete should be
// checked together.
type PermissionKind string

// the permission kinds a document's permission set is keyed by
const (
	PermissionCreate PermissionKind = "create"
	PermissionRead   PermissionKind = "read"
	PermissionUpdate PermissionKind = "update"
	PermissionDelete PermissionKind = "delete"
	PermissionWrite  PermissionKind = "write"
)

// tokenMatches reports whether a single permission token grants access to
// identity. Recognised token shapes:
//
//	"any"              - granted to everybody, including an anonymous caller
//	"user:<subject>"   - granted to the identity whose Subject equals <subject>
//	"role:<name>"      - granted to any identity carrying role <name>
//	"<name>"           - shorthand for "role:<name>"
func tokenMatches(token string, identity *Identity) bool {
	if token == "any" {
		return true
	}
	if identity == nil {
		return false
	}
	if rest, ok := strings.CutPrefix(token, "user:"); ok {
		return rest == identity.Subject
	}
	role := strings.TrimPrefix(token, "role:")
	return identity.HasRole(role)
}

// IsValid returns true if identity is granted the permission kind by any of
// the tokens in the document's permission set. An empty token set denies
// everyone, including an admin identity: this façade has no built-in
// superuser, the caller must grant "role:admin" (or similar) explicitly.
func IsValid(tokens []string, identity *Identity) bool {
	for _, token := range tokens {
		if tokenMatches(token, identity) {
			return true
		}
	}
	return false
}
