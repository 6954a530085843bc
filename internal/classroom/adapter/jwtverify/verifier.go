// Package jwtverify implements the TokenVerifier port over RS256 JWTs whose
// signing keys are published on a JWKS endpoint.
package jwtverify

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"classroom/internal/domain"
)

const maxClockSkew = 30 * time.Second

// Verifier verifies bearer JWTs against the identity provider's JWKS keys
// and extracts the subject and optional role custom claim.
type Verifier struct {
	keys *keySet
}

// New creates a Verifier fetching keys from jwksEndpoint, re-fetching on
// unknown key IDs at most once per minRefresh.
func New(jwksEndpoint string, minRefresh time.Duration) *Verifier {
	return &Verifier{keys: newKeySet(jwksEndpoint, minRefresh)}
}

// Verify checks the token's signature, expiry and algorithm, returning the
// principal its claims describe. Failures are AuthenticationError values
// carrying a machine code (TOKEN_EXPIRED for expired tokens, TOKEN_INVALID
// otherwise); the gate forwards both message and code.
func (v *Verifier) Verify(ctx context.Context, tokenStr string) (domain.Principal, error) {
	// Only RS256 is accepted — prevents algorithm confusion attacks.
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, errors.New("token has no key id")
		}
		return v.keys.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithLeeway(maxClockSkew),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, domain.NewCode(domain.KindAuthentication,
				"token expired", domain.CodeTokenExpired)
		}
		return domain.Principal{}, domain.NewCode(domain.KindAuthentication,
			"invalid token", domain.CodeTokenInvalid)
	}
	if !token.Valid {
		return domain.Principal{}, domain.NewCode(domain.KindAuthentication,
			"invalid token", domain.CodeTokenInvalid)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Principal{}, domain.NewCode(domain.KindAuthentication,
			"invalid token claims", domain.CodeTokenInvalid)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return domain.Principal{}, domain.NewCode(domain.KindAuthentication,
			"token has no subject", domain.CodeTokenInvalid)
	}

	// The role custom claim is optional; its absence is an authorization
	// concern, not an authentication failure.
	role, _ := claims["role"].(string)

	return domain.Principal{SubjectID: sub, Role: role}, nil
}
