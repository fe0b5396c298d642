package models

import (
	"strings"
	"time"

	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
)

type AccountStatus string

const (
	AccountActive    AccountStatus = "ACTIVE"
	AccountSuspended AccountStatus = "SUSPENDED"
	AccountDisabled  AccountStatus = "DISABLED"
)

func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountActive, AccountSuspended, AccountDisabled:
		return true
	}
	return false
}

func ParseAccountStatus(s string) (AccountStatus, error) {
	status := AccountStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "status must be one of ACTIVE, SUSPENDED, DISABLED")
	}
	return status, nil
}

// Account is a registered staff member. Accounts are never hard-deleted;
// deactivation goes through Status.
type Account struct {
	ID           id.AccountID  `json:"id"`
	CI           id.NationalID `json:"ci"`
	Email        string        `json:"email"`
	FullName     string        `json:"full_name"`
	PasswordHash string        `json:"-"`
	Role         id.Role       `json:"role"`
	Specialty    string        `json:"specialty,omitempty"`
	Department   string        `json:"department,omitempty"`
	Status       AccountStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (a *Account) IsActive() bool {
	return a.Status == AccountActive
}

// NewAccountFromEntry builds the ACTIVE account a whitelist entry authorizes.
func NewAccountFromEntry(entry *WhitelistEntry, email, fullName, passwordHash string, now time.Time) (*Account, error) {
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash cannot be empty")
	}
	return &Account{
		ID:           id.NewAccountID(),
		CI:           entry.CI,
		Email:        NormalizeEmail(email),
		FullName:     strings.Join(strings.Fields(fullName), " "),
		PasswordHash: passwordHash,
		Role:         entry.AuthorizedRole,
		Specialty:    entry.AccountSpecialty(),
		Department:   entry.Department,
		Status:       AccountActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail lower-cases and trims; lookups always go through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
