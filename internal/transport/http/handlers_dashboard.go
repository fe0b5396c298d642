package httptransport

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"medgate/internal/specialty"
	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/platform/httputil"
	authmw "medgate/pkg/platform/middleware/auth"
)

// Catalog resolves specialty configuration; *specialty.Registry satisfies it.
type Catalog interface {
	Resolve(name string) specialty.Config
	ResolveDashboard(role id.Role, specialtyName string) specialty.Dashboard
	Names() []string
}

// clinicalRoles may open the encounter form of their specialty.
var clinicalRoles = []id.Role{id.RoleMedico, id.RoleEnfermero}

// DashboardHandler serves the role and specialty driven views.
type DashboardHandler struct {
	catalog    Catalog
	authorizer authmw.Authorizer
	logger     *slog.Logger
}

func NewDashboardHandler(catalog Catalog, authorizer authmw.Authorizer, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{catalog: catalog, authorizer: authorizer, logger: logger}
}

func (h *DashboardHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(h.authorizer, h.logger))
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/specialties", h.handleListSpecialties)
		r.Get("/specialties/{name}", h.handleGetSpecialty)
	})
	r.With(authmw.RequireAuth(h.authorizer, h.logger, clinicalRoles...)).
		Get("/encounters/form", h.handleEncounterForm)
}

func (h *DashboardHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := authmw.GetClaims(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	dashboard := h.catalog.ResolveDashboard(claims.Role, claims.Specialty)
	if dashboard.Department == "" {
		dashboard.Department = claims.Department
	}
	httputil.WriteJSON(w, http.StatusOK, dashboard)
}

func (h *DashboardHandler) handleListSpecialties(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"specialties": h.catalog.Names()})
}

// handleGetSpecialty never 404s: unknown names get the fail-closed config
// with an empty name.
func (h *DashboardHandler) handleGetSpecialty(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid specialty name"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.catalog.Resolve(name))
}

func (h *DashboardHandler) handleEncounterForm(w http.ResponseWriter, r *http.Request) {
	claims, ok := authmw.GetClaims(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	cfg := h.catalog.Resolve(claims.Specialty)
	if cfg.EncounterForm == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no encounter form for this specialty"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg.EncounterForm)
}
