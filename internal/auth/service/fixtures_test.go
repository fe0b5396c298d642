package service

import (
	"time"

	"medgate/internal/auth/models"
	id "medgate/pkg/domain"
)

const (
	testCI       = id.NationalID("V12345678")
	testPassword = "secret1"
	testKey      = "test-signing-key-with-at-least-32-bytes"
)

// carlos is the whitelist entry used across scenarios.
func carlos(opts ...func(*models.WhitelistEntry)) *models.WhitelistEntry {
	e := &models.WhitelistEntry{
		CI:             testCI,
		FullName:       "Carlos Garcia",
		AuthorizedRole: id.RoleMedico,
		Department:     "cardiologia",
		Status:         models.WhitelistActive,
		JoinedAt:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		AuthorizedBy:   "rrhh",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func registerCarlos(opts ...func(*models.RegisterRequest)) *models.RegisterRequest {
	r := &models.RegisterRequest{
		CI:       "V12345678",
		FullName: "carlos garcia",
		Email:    "c@h.com",
		Password: testPassword,
		Role:     "MEDICO",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
