// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package jwtoracle

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/golang-jwt/jwt/v4"
)

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, c claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("cannot sign test token: %v", err)
	}
	return signed
}

func TestOracle_Identity_ValidToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("cannot generate test key: %v", err)
	}

	o := &Oracle{
		issuers: []Issuer{{Name: "test-issuer"}},
		keys:    map[string]interface{}{"kid-1": &key.PublicKey},
	}

	signed := signToken(t, key, "kid-1", claims{
		Roles:           []string{"member"},
		StandardClaims:  jwt.StandardClaims{Subject: "alice", Issuer: "test-issuer"},
	})

	ctx := ContextWithToken(context.Background(), signed)
	identity := o.Identity(ctx)
	if identity == nil {
		t.Fatal("expected a non-nil identity for a valid token")
	}
	if identity.Subject != "alice" {
		t.Fatalf("expected subject alice, got %s", identity.Subject)
	}
	if !identity.HasRole("member") {
		t.Fatal("expected role member to be present")
	}
}

func TestOracle_Identity_UnknownIssuer(t *testing.T) {
	key, _ := rsa.GenerateKey(rand.Reader, 2048)
	o := &Oracle{
		issuers: []Issuer{{Name: "test-issuer"}},
		keys:    map[string]interface{}{"kid-1": &key.PublicKey},
	}

	signed := signToken(t, key, "kid-1", claims{
		StandardClaims: jwt.StandardClaims{Subject: "alice", Issuer: "someone-else"},
	})

	ctx := ContextWithToken(context.Background(), signed)
	if identity := o.Identity(ctx); identity != nil {
		t.Fatalf("expected nil identity for an unrecognised issuer, got %+v", identity)
	}
}

func TestOracle_Identity_NoToken(t *testing.T) {
	o := &Oracle{}
	if identity := o.Identity(context.Background()); identity != nil {
		t.Fatalf("expected nil identity with no token on the context, got %+v", identity)
	}
}

func TestOracle_Identity_UnknownKey(t *testing.T) {
	key, _ := rsa.GenerateKey(rand.Reader, 2048)
	o := &Oracle{
		issuers: []Issuer{{Name: "test-issuer"}},
		keys:    map[string]interface{}{},
	}

	signed := signToken(t, key, "kid-unknown", claims{
		StandardClaims: jwt.StandardClaims{Subject: "alice", Issuer: "test-issuer"},
	})

	ctx := ContextWithToken(context.Background(), signed)
	if identity := o.Identity(ctx); identity != nil {
		t.Fatalf("expected nil identity when the signing key is unknown, got %+v", identity)
	}
}
