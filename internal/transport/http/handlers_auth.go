package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medgate/internal/auth/models"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/platform/httputil"
	authmw "medgate/pkg/platform/middleware/auth"
	"medgate/pkg/requestcontext"
)

//go:generate mockgen -source=handlers_auth.go -destination=mocks/auth-mocks.go -package=mocks AuthService

// AuthService is the registration and login surface the handlers depend on.
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error)
}

// AuthHandler serves self-registration, login and the caller's own claims.
type AuthHandler struct {
	auth       AuthService
	authorizer authmw.Authorizer
	logger     *slog.Logger
}

func NewAuthHandler(auth AuthService, authorizer authmw.Authorizer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, authorizer: authorizer, logger: logger}
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.With(authmw.RequireAuth(h.authorizer, h.logger)).Get("/auth/me", h.handleMe)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.auth.Register(ctx, &req)
	if err != nil {
		h.logFailure(ctx, "registration failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, models.RegisterResult{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.auth.Login(ctx, &req)
	if err != nil {
		if de, ok := dErrors.From(err); ok && de.Code == dErrors.CodeRateLimited {
			if retry := de.Details["retry_after"]; retry != "" {
				w.Header().Set("Retry-After", retry)
			}
		}
		h.logFailure(ctx, "login failed", err)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := authmw.GetClaims(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claims)
}

func (h *AuthHandler) logFailure(ctx context.Context, msg string, err error) {
	requestID := requestcontext.RequestID(ctx)
	if de, ok := dErrors.From(err); ok && de.Code != dErrors.CodeInternal {
		h.logger.InfoContext(ctx, msg,
			"request_id", requestID,
			"code", string(de.Code),
		)
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestID,
		"error", err,
	)
}
