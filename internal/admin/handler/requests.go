package handler

import (
	"strconv"
	"strings"
	"time"

	"medgate/internal/admin/service"
	"medgate/internal/auth/models"
	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"

	"github.com/asaskevich/govalidator"
)

type CreateEntryRequest struct {
	CI             string     `json:"ci"`
	FullName       string     `json:"full_name"`
	Email          string     `json:"email,omitempty"`
	AuthorizedRole string     `json:"authorized_role"`
	Department     string     `json:"department,omitempty"`
	Specialty      string     `json:"specialty,omitempty"`
	Title          string     `json:"title,omitempty"`
	JoinedAt       *time.Time `json:"joined_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	AuthorizedBy   string     `json:"authorized_by"`
}

func (r *CreateEntryRequest) ToCommand() (service.CreateEntryCommand, error) {
	ci, err := id.ParseNationalID(r.CI)
	if err != nil {
		return service.CreateEntryCommand{}, err
	}
	role, err := id.ParseRole(r.AuthorizedRole)
	if err != nil {
		return service.CreateEntryCommand{}, dErrors.New(dErrors.CodeValidation, "authorized_role is not a known role")
	}
	email := strings.TrimSpace(r.Email)
	if email != "" && !govalidator.IsEmail(email) {
		return service.CreateEntryCommand{}, dErrors.New(dErrors.CodeValidation, "email is not a valid address")
	}
	cmd := service.CreateEntryCommand{
		CI:             ci,
		FullName:       r.FullName,
		Email:          email,
		AuthorizedRole: role,
		Department:     r.Department,
		Specialty:      r.Specialty,
		Title:          r.Title,
		ExpiresAt:      r.ExpiresAt,
		AuthorizedBy:   r.AuthorizedBy,
	}
	if r.JoinedAt != nil {
		cmd.JoinedAt = *r.JoinedAt
	}
	return cmd, nil
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type EntryListResponse struct {
	Entries []*models.WhitelistEntry `json:"entries"`
	Total   int                      `json:"total"`
}

// parseFilter reads ?status= and ?registered= from the query string.
func parseFilter(status, registered string) (models.WhitelistFilter, error) {
	var filter models.WhitelistFilter
	if status != "" {
		s, err := models.ParseWhitelistStatus(status)
		if err != nil {
			return filter, err
		}
		filter.Status = &s
	}
	if registered != "" {
		b, err := strconv.ParseBool(registered)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeValidation, "registered must be true or false")
		}
		filter.Registered = &b
	}
	return filter, nil
}
