// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package access provides the ambient identity oracle and the permission
// gate primitives consumed by the document engine.
package access

import "context"

// contextKey is the type for context keys. Go linter does not like plain strings
type contextKey string

const contextKeyIdentity contextKey = "_identity_"

// Identity is the ambient identity of the caller making a request against the
// document engine. It carries a subject (an opaque caller id, used for
// "user:<subject>" permission tokens) and a set of role tokens (used for
// "role:<name>" permission tokens, or "team:<name>", etc).
type Identity struct {
	Subject string
	Roles   []string
}

// HasRole returns true if the identity carries the given role token.
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Oracle is the ambient identity oracle the permission gate consults. It is
// the external collaborator that turns a request context into an Identity;
// the document engine never looks at tokens, sessions or transports itself.
type Oracle interface {
	Identity(ctx context.Context) *Identity
}

// StaticOracle is an Oracle that always returns the same identity. It is
// useful for tests and for single-tenant deployments where the caller is
// fixed for the lifetime of the engine.
type StaticOracle struct {
	identity *Identity
}

// NewStaticOracle returns an Oracle that always resolves to identity.
func NewStaticOracle(identity *Identity) StaticOracle {
	return StaticOracle{identity: identity}
}

// Identity implements Oracle.
func (o StaticOracle) Identity(ctx context.Context) *Identity {
	return o.identity
}

// ContextWithIdentity returns a new context carrying identity. It is used by
// transport-level adapters (such as the jwtoracle) to stash the resolved
// identity for the duration of a request.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, identity)
}

// IdentityFromContext retrieves an identity previously stored with
// ContextWithIdentity. It returns nil if none is present.
func IdentityFromContext(ctx context.Context) *Identity {
	if ctx == nil {
		return nil
	}
	identity, _ := ctx.Value(contextKeyIdentity).(*Identity)
	return identity
}

// ContextOracle is an Oracle that reads the identity stashed on the request
// context by a transport-level middleware (e.g. jwtoracle).
type ContextOracle struct{}

// Identity implements Oracle.
func (ContextOracle) Identity(ctx context.Context) *Identity {
	return IdentityFromContext(ctx)
}
