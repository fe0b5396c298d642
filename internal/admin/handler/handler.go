package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"medgate/internal/admin/service"
	"medgate/internal/auth/models"
	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/platform/httputil"
	adminmw "medgate/pkg/platform/middleware/admin"
	"medgate/pkg/requestcontext"
)

// HeaderActor optionally names the operator behind an admin token.
const HeaderActor = "X-Admin-Actor"

const defaultActor = "admin"

// Service defines the interface for whitelist and account administration.
type Service interface {
	CreateEntry(ctx context.Context, cmd service.CreateEntryCommand) (*models.WhitelistEntry, error)
	GetEntry(ctx context.Context, ci id.NationalID) (*models.WhitelistEntry, error)
	ListEntries(ctx context.Context, filter models.WhitelistFilter) ([]*models.WhitelistEntry, error)
	UpdateEntryStatus(ctx context.Context, actor string, ci id.NationalID, status models.WhitelistStatus) (*models.WhitelistEntry, error)
	UpdateAccountStatus(ctx context.Context, actor string, accountID id.AccountID, status models.AccountStatus) (*models.Account, error)
}

// Handler serves the operator endpoints under /admin.
type Handler struct {
	service    Service
	logger     *slog.Logger
	adminToken string
}

func New(service Service, logger *slog.Logger, adminToken string) *Handler {
	return &Handler{service: service, logger: logger, adminToken: adminToken}
}

// Register mounts the admin routes behind the admin token check.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(h.adminToken, h.logger))
		r.Post("/whitelist", h.HandleCreateEntry)
		r.Get("/whitelist", h.HandleListEntries)
		r.Get("/whitelist/{ci}", h.HandleGetEntry)
		r.Patch("/whitelist/{ci}/status", h.HandleUpdateEntryStatus)
		r.Patch("/accounts/{id}/status", h.HandleUpdateAccountStatus)
	})
}

func (h *Handler) HandleCreateEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateEntryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.service.CreateEntry(ctx, cmd)
	if err != nil {
		h.logFailure(ctx, "create whitelist entry failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) HandleGetEntry(w http.ResponseWriter, r *http.Request) {
	ci, err := id.ParseNationalID(chi.URLParam(r, "ci"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entry, err := h.service.GetEntry(r.Context(), ci)
	if err != nil {
		h.logFailure(r.Context(), "get whitelist entry failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) HandleListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := parseFilter(q.Get("status"), q.Get("registered"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.service.ListEntries(r.Context(), filter)
	if err != nil {
		h.logFailure(r.Context(), "list whitelist entries failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EntryListResponse{Entries: entries, Total: len(entries)})
}

func (h *Handler) HandleUpdateEntryStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ci, err := id.ParseNationalID(chi.URLParam(r, "ci"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req UpdateStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := models.ParseWhitelistStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.service.UpdateEntryStatus(ctx, actor(r), ci, status)
	if err != nil {
		h.logFailure(ctx, "update whitelist status failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) HandleUpdateAccountStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "account id must be a UUID"))
		return
	}
	var req UpdateStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := models.ParseAccountStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.service.UpdateAccountStatus(ctx, actor(r), accountID, status)
	if err != nil {
		h.logFailure(ctx, "update account status failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
		return
	}
	h.logger.InfoContext(ctx, msg, "request_id", requestcontext.RequestID(ctx), "error", err)
}

func actor(r *http.Request) string {
	if a := strings.TrimSpace(r.Header.Get(HeaderActor)); a != "" {
		return a
	}
	return defaultActor
}
