package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"

	"github.com/asaskevich/govalidator"
)

// MinPasswordLength is counted in runes.
const MinPasswordLength = 6

type RegisterRequest struct {
	CI       string `json:"ci"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate covers the syntactic checks that run before any store access.
// Password strength is checked last in the pipeline, not here.
func (r *RegisterRequest) Validate() (id.NationalID, id.Role, error) {
	ci, err := id.ParseNationalID(r.CI)
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(r.FullName) == "" {
		return "", "", dErrors.New(dErrors.CodeMalformedInput, "full_name is required")
	}
	if !govalidator.IsEmail(strings.TrimSpace(r.Email)) {
		return "", "", dErrors.New(dErrors.CodeMalformedInput, "email is not a valid address")
	}
	role, err := id.ParseRole(r.Role)
	if err != nil {
		return "", "", dErrors.New(dErrors.CodeMalformedInput, "role is not a known role")
	}
	return ci, role, nil
}

// CheckPasswordStrength enforces the minimum length.
func CheckPasswordStrength(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return dErrors.New(dErrors.CodeWeakPassword, "password must be at least 6 characters")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned by Login and Issue.
type LoginResult struct {
	AccountID  id.AccountID `json:"account_id"`
	Email      string       `json:"email"`
	Role       id.Role      `json:"role"`
	Specialty  string       `json:"specialty,omitempty"`
	Department string       `json:"department,omitempty"`
	Token      string       `json:"token"`
	ExpiresAt  time.Time    `json:"expires_at"`
}

type RegisterResult struct {
	AccountID id.AccountID `json:"account_id"`
	Email     string       `json:"email"`
	Role      id.Role      `json:"role"`
}
