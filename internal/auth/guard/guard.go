// Package guard verifies session tokens and enforces per-route role sets.
// It is pure CPU: claims are trusted for the token's lifetime and never
// re-checked against the stores.
package guard

import (
	jwttoken "medgate/internal/jwt_token"
	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	authmw "medgate/pkg/platform/middleware/auth"
)

type TokenValidator interface {
	ValidateToken(token string) (*jwttoken.Claims, error)
}

// Metrics is satisfied by *metrics.Metrics.
type Metrics interface {
	IncrementAuthorize(outcome string)
}

type Guard struct {
	tokens  TokenValidator
	metrics Metrics
}

type Option func(*Guard)

func WithMetrics(m Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

func New(tokens TokenValidator, opts ...Option) *Guard {
	g := &Guard{tokens: tokens}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize validates token and checks its role against required. An empty
// required set admits any authenticated caller. A role mismatch is forbidden,
// with the caller's role and home path in the error details.
func (g *Guard) Authorize(token string, required ...id.Role) (*authmw.Claims, error) {
	claims, err := g.authorize(token, required)
	g.observe(err)
	return claims, err
}

func (g *Guard) authorize(token string, required []id.Role) (*authmw.Claims, error) {
	raw, err := g.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	claims, err := toClaims(raw)
	if err != nil {
		return nil, err
	}
	if len(required) > 0 && !id.NewRoleSet(required...).Contains(claims.Role) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role not permitted on this route").
			WithDetail("role", claims.Role.String()).
			WithDetail("redirect", claims.Role.HomePath())
	}
	return claims, nil
}

func toClaims(raw *jwttoken.Claims) (*authmw.Claims, error) {
	accountID, err := id.ParseAccountID(raw.AccountID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	role, err := id.ParseRole(raw.Role)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token role")
	}
	claims := &authmw.Claims{
		AccountID:  accountID,
		Email:      raw.Email,
		Role:       role,
		Specialty:  raw.Specialty,
		Department: raw.Department,
		JTI:        raw.ID,
	}
	if raw.IssuedAt != nil {
		claims.IssuedAt = raw.IssuedAt.Time.UTC()
	}
	if raw.ExpiresAt != nil {
		claims.ExpiresAt = raw.ExpiresAt.Time.UTC()
	}
	return claims, nil
}

func (g *Guard) observe(err error) {
	if g.metrics == nil {
		return
	}
	outcome := "allowed"
	if err != nil {
		outcome = string(dErrors.CodeUnauthorized)
		if de, ok := dErrors.From(err); ok {
			outcome = string(de.Code)
		}
	}
	g.metrics.IncrementAuthorize(outcome)
}
