// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package jwtoracle implements an access.Oracle that derives the ambient
// identity from a JWT bearer token carried on the context, validating the
// token's signature against a set of well-known issuer public keys fetched
// from each issuer's key-download URL and cached in a registry.
package jwtoracle

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v4"

	"github.com/dalarub/docbase/core/access"
	"github.com/dalarub/docbase/core/csql"
	"github.com/dalarub/docbase/core/logger"
	"github.com/dalarub/docbase/core/registry"
)

type contextKey string

const contextKeyToken contextKey = "_bearer_token_"

// ContextWithToken attaches a raw JWT bearer token string to ctx. Callers at
// the edge of the application (wherever a token is first obtained) use this
// to make the token visible to Oracle.Identity.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKeyToken, token)
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(contextKeyToken).(string)
	return token
}

// Issuer is an accepted token issuer and where to fetch its current set of
// public signing keys.
type Issuer struct {
	// Name is the issuer string expected in a token's "iss" claim.
	Name string
	// PublicKeyDownloadURL serves a JSON map of key-id to PEM certificate,
	// e.g. Google's "https://www.googleapis.com/robot/v1/metadata/x509/...".
	PublicKeyDownloadURL string
}

// RolesClaim is the JWT claim name this oracle reads role names from.
const RolesClaim = "roles"

type claims struct {
	Roles []string `json:"roles"`
	jwt.StandardClaims
}

// Oracle implements access.Oracle by validating the bearer token attached to
// the context via ContextWithToken against a fixed set of known issuers.
// Public keys are loaded once, by NewOracle: each issuer's last-known key
// set is read from a registry and downloaded again only when that copy is
// older than keyRefreshInterval, so a process restart does not require an
// immediate refetch. Keys are not refreshed after construction.
type Oracle struct {
	issuers             []Issuer
	keyRegistry         registry.Accessor
	keyRefreshInterval  time.Duration
	keys                map[string]interface{}
	httpClient          *http.Client
}

// NewOracle builds an Oracle. db is used to persist the last-fetched
// key sets so a restart does not require every issuer to be reachable
// immediately; issuers lists the accepted token issuers.
func NewOracle(db *csql.DB, issuers []Issuer) *Oracle {
	o := &Oracle{
		issuers:            issuers,
		keyRegistry:        registry.NewUnlogged(db).Accessor("_jwtoracle_"),
		keyRefreshInterval: 6 * time.Hour,
		keys:               map[string]interface{}{},
		httpClient:         &http.Client{Timeout: 10 * time.Second},
	}
	o.refreshKeys()
	return o
}

func (o *Oracle) refreshKeys() {
	rlog := logger.Default()
	for _, issuer := range o.issuers {
		var certs map[string]string
		timestamp, err := o.keyRegistry.Read(issuer.PublicKeyDownloadURL, &certs)
		if err != nil {
			rlog.WithError(err).Warnln("jwtoracle: cannot read cached keys for issuer", issuer.Name)
		}
		if time.Since(timestamp) > o.keyRefreshInterval {
			fetched, err := o.fetchCertificates(issuer.PublicKeyDownloadURL)
			if err != nil {
				rlog.WithError(err).Warnln("jwtoracle: cannot fetch keys for issuer", issuer.Name)
			} else {
				certs = fetched
				if err := o.keyRegistry.Write(issuer.PublicKeyDownloadURL, certs); err != nil {
					rlog.WithError(err).Warnln("jwtoracle: cannot cache keys for issuer", issuer.Name)
				}
			}
		}
		for kid, cert := range certs {
			key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cert))
			if err != nil {
				rlog.WithError(err).Warnln("jwtoracle: invalid certificate for kid", kid)
				continue
			}
			o.keys[kid] = key
		}
	}
}

func (o *Oracle) fetchCertificates(url string) (map[string]string, error) {
	res, err := o.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	var certs map[string]string
	if err := json.NewDecoder(res.Body).Decode(&certs); err != nil {
		return nil, err
	}
	return certs, nil
}

func (o *Oracle) keyFunc(token *jwt.Token) (interface{}, error) {
	kid, _ := token.Header["kid"].(string)
	key, ok := o.keys[kid]
	if !ok {
		return nil, errors.New("jwtoracle: unknown signing key")
	}
	return key, nil
}

// Identity parses and validates the bearer token attached to ctx and
// returns the resulting identity, or nil if there is no token, the token is
// invalid, or its issuer is not one of the accepted issuers.
func (o *Oracle) Identity(ctx context.Context) *access.Identity {
	tokenString := tokenFromContext(ctx)
	if tokenString == "" {
		return nil
	}

	c := claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, &c, o.keyFunc)
	if err != nil || !parsed.Valid {
		return nil
	}

	var foundIssuer bool
	for _, issuer := range o.issuers {
		if c.Issuer == issuer.Name {
			foundIssuer = true
			break
		}
	}
	if !foundIssuer {
		return nil
	}

	subject := c.Subject
	if subject == "" {
		return nil
	}
	return &access.Identity{Subject: subject, Roles: c.Roles}
}
