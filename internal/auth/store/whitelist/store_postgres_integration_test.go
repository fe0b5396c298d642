//go:build integration

package whitelist

import (
	"context"
	"testing"
	"time"

	"medgate/internal/auth/models"
	id "medgate/pkg/domain"
	"medgate/pkg/platform/sentinel"
	txcontext "medgate/pkg/platform/tx"
	"medgate/pkg/testutil/containers"

	"github.com/stretchr/testify/suite"
)

type PostgresWhitelistStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresWhitelistStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresWhitelistStoreSuite))
}

func (s *PostgresWhitelistStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresWhitelistStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx, "accounts", "whitelist_entries"))
}

func (s *PostgresWhitelistStoreSuite) TestRoundTrip() {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := newEntry("V12345678")
	entry.Department = "Cardiología"
	entry.ExpiresAt = &exp
	s.Require().NoError(s.store.Create(s.ctx, entry))

	found, err := s.store.FindByCI(s.ctx, "V12345678")
	s.Require().NoError(err)
	s.Equal("Cardiología", found.Department)
	s.Equal(id.RoleMedico, found.AuthorizedRole)
	s.True(found.ExpiresAt.Equal(exp))
	s.False(found.Registered)

	s.ErrorIs(s.store.Create(s.ctx, newEntry("V12345678")), sentinel.ErrConflict)

	_, err = s.store.FindByCI(s.ctx, "E1234567")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresWhitelistStoreSuite) TestMarkRegisteredOnce() {
	s.Require().NoError(s.store.Create(s.ctx, newEntry("V12345678")))
	accountID := id.NewAccountID()

	s.Require().NoError(s.store.MarkRegistered(s.ctx, "V12345678", accountID, time.Now()))
	s.ErrorIs(s.store.MarkRegistered(s.ctx, "V12345678", id.NewAccountID(), time.Now()), sentinel.ErrAlreadyUsed)
	s.ErrorIs(s.store.MarkRegistered(s.ctx, "E1234567", accountID, time.Now()), sentinel.ErrNotFound)

	entry, err := s.store.FindByCI(s.ctx, "V12345678")
	s.Require().NoError(err)
	s.Equal(accountID, *entry.AccountID)
}

func (s *PostgresWhitelistStoreSuite) TestFindByCIInsideTx() {
	s.Require().NoError(s.store.Create(s.ctx, newEntry("V12345678")))

	tx, err := s.pg.DB.BeginTx(s.ctx, nil)
	s.Require().NoError(err)
	defer func() { _ = tx.Rollback() }()

	entry, err := s.store.FindByCI(txcontext.WithTx(s.ctx, tx), "V12345678")
	s.Require().NoError(err)
	s.Equal(id.NationalID("V12345678"), entry.CI)
}

func (s *PostgresWhitelistStoreSuite) TestStatusAndList() {
	s.Require().NoError(s.store.Create(s.ctx, newEntry("V11111111")))
	s.Require().NoError(s.store.Create(s.ctx, newEntry("V22222222")))
	s.Require().NoError(s.store.UpdateStatus(s.ctx, "V22222222", models.WhitelistTerminated, time.Now()))
	s.ErrorIs(s.store.UpdateStatus(s.ctx, "E1234567", models.WhitelistActive, time.Now()), sentinel.ErrNotFound)

	status := models.WhitelistTerminated
	out, err := s.store.List(s.ctx, models.WhitelistFilter{Status: &status})
	s.Require().NoError(err)
	s.Require().Len(out, 1)
	s.Equal(id.NationalID("V22222222"), out[0].CI)

	all, err := s.store.List(s.ctx, models.WhitelistFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)
}
