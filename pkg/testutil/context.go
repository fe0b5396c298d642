package testutil

import (
	"context"
	"net/http"
	"time"

	id "medgate/pkg/domain"
	authmw "medgate/pkg/platform/middleware/auth"
)

// WithClaims attaches session claims to the request context, simulating what
// the auth middleware does for authenticated requests.
func WithClaims(req *http.Request, claims *authmw.Claims) *http.Request {
	return req.WithContext(authmw.WithClaims(req.Context(), claims))
}

// WithRole builds minimal claims for a fresh account with the given role.
// The returned claims are valid for one hour.
func WithRole(req *http.Request, role id.Role, specialty string) (*http.Request, *authmw.Claims) {
	now := time.Now()
	claims := &authmw.Claims{
		AccountID: id.NewAccountID(),
		Email:     "user@hospital.test",
		Role:      role,
		Specialty: specialty,
		JTI:       "test-jti",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	return WithClaims(req, claims), claims
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
