package models

import (
	"strings"
	"time"

	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
)

// WhitelistStatus is the administrative state of an authorization record.
type WhitelistStatus string

const (
	WhitelistActive     WhitelistStatus = "ACTIVE"
	WhitelistInactive   WhitelistStatus = "INACTIVE"
	WhitelistSuspended  WhitelistStatus = "SUSPENDED"
	WhitelistTerminated WhitelistStatus = "TERMINATED"
)

func (s WhitelistStatus) IsValid() bool {
	switch s {
	case WhitelistActive, WhitelistInactive, WhitelistSuspended, WhitelistTerminated:
		return true
	}
	return false
}

// ParseWhitelistStatus is case-insensitive.
func ParseWhitelistStatus(s string) (WhitelistStatus, error) {
	status := WhitelistStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "status must be one of ACTIVE, INACTIVE, SUSPENDED, TERMINATED")
	}
	return status, nil
}

// WhitelistEntry is a pre-authorization permitting exactly one registration
// for a CI. Registered flips to true once and is never reverted; Status is an
// independent dimension that may change afterwards.
type WhitelistEntry struct {
	CI             id.NationalID   `json:"ci"`
	FullName       string          `json:"full_name"`
	Email          string          `json:"email,omitempty"`
	AuthorizedRole id.Role         `json:"authorized_role"`
	Department     string          `json:"department,omitempty"`
	Specialty      string          `json:"specialty,omitempty"`
	Title          string          `json:"title,omitempty"`
	Status         WhitelistStatus `json:"status"`
	JoinedAt       time.Time       `json:"joined_at"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	AuthorizedBy   string          `json:"authorized_by"`
	Registered     bool            `json:"registered"`
	RegisteredAt   *time.Time      `json:"registered_at,omitempty"`
	AccountID      *id.AccountID   `json:"account_id,omitempty"`
}

// IsExpiredAt reports whether the authorization window has closed.
func (e *WhitelistEntry) IsExpiredAt(now time.Time) bool {
	return e.ExpiresAt != nil && e.ExpiresAt.Before(now)
}

// AccountSpecialty is the specialty an account created from this entry gets.
func (e *WhitelistEntry) AccountSpecialty() string {
	if e.Specialty != "" {
		return e.Specialty
	}
	return e.Department
}

// MarkRegistered consumes the entry. It fails with already_registered when the
// entry was consumed before.
func (e *WhitelistEntry) MarkRegistered(accountID id.AccountID, at time.Time) error {
	if e.Registered {
		return dErrors.New(dErrors.CodeAlreadyRegistered, "whitelist entry already consumed")
	}
	e.Registered = true
	e.RegisteredAt = &at
	e.AccountID = &accountID
	return nil
}

// NewWhitelistEntry validates and builds an ACTIVE, unconsumed entry.
func NewWhitelistEntry(ci id.NationalID, fullName, email string, role id.Role, department, specialty, title, authorizedBy string, joinedAt time.Time, expiresAt *time.Time) (*WhitelistEntry, error) {
	if ci == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "ci cannot be empty")
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "authorized_role is not a known role")
	}
	if strings.TrimSpace(authorizedBy) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "authorized_by is required")
	}
	if expiresAt != nil && !expiresAt.After(joinedAt) {
		return nil, dErrors.New(dErrors.CodeValidation, "expires_at must be after joined_at")
	}
	return &WhitelistEntry{
		CI:             ci,
		FullName:       strings.TrimSpace(fullName),
		Email:          strings.ToLower(strings.TrimSpace(email)),
		AuthorizedRole: role,
		Department:     strings.TrimSpace(department),
		Specialty:      strings.TrimSpace(specialty),
		Title:          strings.TrimSpace(title),
		Status:         WhitelistActive,
		JoinedAt:       joinedAt,
		ExpiresAt:      expiresAt,
		AuthorizedBy:   strings.TrimSpace(authorizedBy),
	}, nil
}

// WhitelistFilter narrows admin listings. Nil fields match everything.
type WhitelistFilter struct {
	Status     *WhitelistStatus
	Registered *bool
}

func (f WhitelistFilter) Matches(e *WhitelistEntry) bool {
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	if f.Registered != nil && e.Registered != *f.Registered {
		return false
	}
	return true
}
