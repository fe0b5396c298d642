package models

import (
	"testing"
	"time"

	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamesMatch(t *testing.T) {
	tests := []struct {
		name  string
		a, b  string
		match bool
	}{
		{"case and spacing", "CARLOS  GARCIA", "Carlos Garcia", true},
		{"leading and trailing whitespace", "  carlos garcia ", "Carlos Garcia", true},
		{"diacritics", "José Pérez Núñez", "jose perez nunez", true},
		{"tabs collapse", "Ana\tMaría", "ana maria", true},
		{"extra surname", "Carlos Garcia Lopez", "Carlos Garcia", false},
		{"word order matters", "Garcia Carlos", "Carlos Garcia", false},
		{"different letter", "Carla Garcia", "Carlos Garcia", false},
		{"empty never matches", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, NamesMatch(tt.a, tt.b))
		})
	}
}

func TestRegisterRequest_Validate(t *testing.T) {
	valid := RegisterRequest{CI: "v-12345678", FullName: "Carlos Garcia", Email: "c@h.com", Password: "secret1", Role: "medico"}

	ci, role, err := valid.Validate()
	require.NoError(t, err)
	assert.Equal(t, id.NationalID("V12345678"), ci)
	assert.Equal(t, id.RoleMedico, role)

	cases := map[string]func(r *RegisterRequest){
		"bad ci":        func(r *RegisterRequest) { r.CI = "X12345678" },
		"short ci":      func(r *RegisterRequest) { r.CI = "V123" },
		"empty name":    func(r *RegisterRequest) { r.FullName = "  " },
		"invalid email": func(r *RegisterRequest) { r.Email = "not-an-email" },
		"unknown role":  func(r *RegisterRequest) { r.Role = "JANITOR" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := valid
			mutate(&r)
			_, _, err := r.Validate()
			assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedInput), "got %v", err)
		})
	}
}

func TestCheckPasswordStrength(t *testing.T) {
	assert.NoError(t, CheckPasswordStrength("secret"))
	assert.NoError(t, CheckPasswordStrength("ñandú!"))
	assert.True(t, dErrors.HasCode(CheckPasswordStrength("ñañá"), dErrors.CodeWeakPassword), "length counts runes, not bytes")
	assert.True(t, dErrors.HasCode(CheckPasswordStrength("12345"), dErrors.CodeWeakPassword))
	assert.True(t, dErrors.HasCode(CheckPasswordStrength(""), dErrors.CodeWeakPassword))
}

func TestWhitelistEntry(t *testing.T) {
	joined := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("new entry is active and unconsumed", func(t *testing.T) {
		e, err := NewWhitelistEntry("V12345678", " Carlos Garcia ", "C@H.com", id.RoleMedico, "Cardiología", "", "Dr.", "rrhh", joined, nil)
		require.NoError(t, err)
		assert.Equal(t, WhitelistActive, e.Status)
		assert.False(t, e.Registered)
		assert.Equal(t, "c@h.com", e.Email)
		assert.Equal(t, "Carlos Garcia", e.FullName)
	})

	t.Run("rejects expiry before join date", func(t *testing.T) {
		past := joined.Add(-time.Hour)
		_, err := NewWhitelistEntry("V12345678", "Carlos Garcia", "", id.RoleMedico, "", "", "", "rrhh", joined, &past)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("specialty preferred over department", func(t *testing.T) {
		e := &WhitelistEntry{Department: "Medicina Interna", Specialty: "Cardiología"}
		assert.Equal(t, "Cardiología", e.AccountSpecialty())
		e.Specialty = ""
		assert.Equal(t, "Medicina Interna", e.AccountSpecialty())
	})

	t.Run("consumed at most once", func(t *testing.T) {
		e := &WhitelistEntry{CI: "V12345678"}
		accountID := id.NewAccountID()
		require.NoError(t, e.MarkRegistered(accountID, joined))
		assert.True(t, e.Registered)
		assert.Equal(t, accountID, *e.AccountID)

		err := e.MarkRegistered(id.NewAccountID(), joined)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyRegistered))
		assert.Equal(t, accountID, *e.AccountID, "original back-reference kept")
	})

	t.Run("expiry", func(t *testing.T) {
		exp := joined.Add(24 * time.Hour)
		e := &WhitelistEntry{ExpiresAt: &exp}
		assert.False(t, e.IsExpiredAt(joined))
		assert.True(t, e.IsExpiredAt(exp.Add(time.Second)))
		assert.False(t, (&WhitelistEntry{}).IsExpiredAt(joined))
	})
}

func TestWhitelistFilter(t *testing.T) {
	suspended := WhitelistSuspended
	yes := true
	e := &WhitelistEntry{Status: WhitelistSuspended, Registered: true}

	assert.True(t, WhitelistFilter{}.Matches(e))
	assert.True(t, WhitelistFilter{Status: &suspended, Registered: &yes}.Matches(e))
	active := WhitelistActive
	assert.False(t, WhitelistFilter{Status: &active}.Matches(e))
}

func TestParseStatuses(t *testing.T) {
	s, err := ParseWhitelistStatus("terminated")
	require.NoError(t, err)
	assert.Equal(t, WhitelistTerminated, s)
	_, err = ParseWhitelistStatus("gone")
	assert.Error(t, err)

	a, err := ParseAccountStatus(" suspended ")
	require.NoError(t, err)
	assert.Equal(t, AccountSuspended, a)
	_, err = ParseAccountStatus("TERMINATED")
	assert.Error(t, err)
}

func TestNewAccountFromEntry(t *testing.T) {
	now := time.Now()
	entry := &WhitelistEntry{CI: "V12345678", AuthorizedRole: id.RoleMedico, Department: "Cardiología"}

	acct, err := NewAccountFromEntry(entry, " C@H.COM ", "carlos   garcia", "hash", now)
	require.NoError(t, err)
	assert.Equal(t, "c@h.com", acct.Email)
	assert.Equal(t, "carlos garcia", acct.FullName)
	assert.Equal(t, id.RoleMedico, acct.Role)
	assert.Equal(t, "Cardiología", acct.Specialty)
	assert.Equal(t, AccountActive, acct.Status)
	assert.False(t, acct.ID.IsNil())

	_, err = NewAccountFromEntry(entry, "c@h.com", "x", "", now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
