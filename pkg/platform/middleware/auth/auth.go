package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/platform/httputil"
	request "medgate/pkg/platform/middleware/request"
	"medgate/pkg/requestcontext"
)

// Authorizer verifies a bearer token and checks the caller's role against the
// route's required set. An empty set accepts any authenticated caller.
type Authorizer interface {
	Authorize(token string, required ...id.Role) (*Claims, error)
}

// Claims is the decoded session snapshot handed to route handlers. It is not
// re-validated against the account or whitelist stores during its lifetime.
type Claims struct {
	AccountID  id.AccountID `json:"account_id"`
	Email      string       `json:"email"`
	Role       id.Role      `json:"role"`
	Specialty  string       `json:"specialty,omitempty"`
	Department string       `json:"department,omitempty"`
	JTI        string       `json:"jti"`
	IssuedAt   time.Time    `json:"issued_at"`
	ExpiresAt  time.Time    `json:"expires_at"`
}

type contextKeyClaims struct{}

// ContextKeyClaims is exported for tests that build authenticated requests.
var ContextKeyClaims = contextKeyClaims{}

// GetClaims retrieves the authenticated caller's claims from the context.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*Claims)
	return claims, ok && claims != nil
}

// WithClaims injects claims, mirroring what RequireAuth does.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClaims, claims)
	return requestcontext.WithAccountID(ctx, claims.AccountID)
}

const bearerPrefix = "Bearer "

// RequireAuth guards a route with the given role requirement.
//
// Responses:
//   - 401 unauthorized when the header is missing or the token is invalid
//   - 401 token_expired when the token verified but has expired
//   - 403 forbidden with the caller's role and home path when the role is not allowed
func RequireAuth(authorizer Authorizer, logger *slog.Logger, roles ...id.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := authorizer.Authorize(strings.TrimSpace(token), roles...)
			if err != nil {
				switch {
				case dErrors.HasCode(err, dErrors.CodeForbidden):
					logger.WarnContext(ctx, "forbidden - role not allowed on route",
						"request_id", requestID,
						"path", r.URL.Path,
					)
				case dErrors.HasCode(err, dErrors.CodeTokenExpired):
					logger.InfoContext(ctx, "unauthorized access - token expired",
						"request_id", requestID,
					)
				default:
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						"error", err,
						"request_id", requestID,
					)
				}
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
		})
	}
}
