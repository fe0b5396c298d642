package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medgate/internal/auth/models"
	"medgate/internal/auth/store/account"
	"medgate/internal/auth/store/whitelist"
	dErrors "medgate/pkg/domain-errors"
)

func TestInMemoryRegistrationTx(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	newTx := func() (*InMemoryRegistrationTx, *whitelist.InMemoryStore, *account.InMemoryStore) {
		wl, acc := whitelist.New(), account.New()
		wl.Put(carlos())
		return NewInMemoryRegistrationTx(wl, acc), wl, acc
	}
	newAccount := func(t *testing.T) *models.Account {
		a, err := models.NewAccountFromEntry(carlos(), "c@h.com", "Carlos Garcia", "hash", now)
		require.NoError(t, err)
		return a
	}

	t.Run("commits on success", func(t *testing.T) {
		tx, wl, acc := newTx()
		a := newAccount(t)
		err := tx.RunInTx(ctx, testCI, func(ctx context.Context, stores RegistrationStores) error {
			if err := stores.Accounts.Create(ctx, a); err != nil {
				return err
			}
			return stores.Whitelist.MarkRegistered(ctx, testCI, a.ID, now)
		})
		require.NoError(t, err)

		entry, err := wl.FindByCI(ctx, testCI)
		require.NoError(t, err)
		assert.True(t, entry.Registered)
		assert.Equal(t, 1, acc.CountByCI(testCI))
	})

	t.Run("rolls back every write when fn fails", func(t *testing.T) {
		tx, wl, acc := newTx()
		a := newAccount(t)
		boom := errors.New("boom")
		err := tx.RunInTx(ctx, testCI, func(ctx context.Context, stores RegistrationStores) error {
			if err := stores.Accounts.Create(ctx, a); err != nil {
				return err
			}
			if err := stores.Whitelist.MarkRegistered(ctx, testCI, a.ID, now); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		entry, err := wl.FindByCI(ctx, testCI)
		require.NoError(t, err)
		assert.False(t, entry.Registered)
		assert.Nil(t, entry.AccountID)
		assert.Equal(t, 0, acc.CountByCI(testCI))
		_, err = acc.FindByEmail(ctx, "c@h.com")
		assert.Error(t, err)
	})

	t.Run("failed write leaves nothing to undo", func(t *testing.T) {
		tx, wl, acc := newTx()
		a := newAccount(t)
		require.NoError(t, acc.Create(ctx, a))

		err := tx.RunInTx(ctx, testCI, func(ctx context.Context, stores RegistrationStores) error {
			dup := newAccount(t)
			return stores.Accounts.Create(ctx, dup)
		})
		require.Error(t, err)
		// the pre-existing account survives the rollback
		assert.Equal(t, 1, acc.CountByCI(testCI))
		entry, _ := wl.FindByCI(ctx, testCI)
		assert.False(t, entry.Registered)
	})

	t.Run("cancelled context never runs fn", func(t *testing.T) {
		tx, _, _ := newTx()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		called := false
		err := tx.RunInTx(cctx, testCI, func(context.Context, RegistrationStores) error {
			called = true
			return nil
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		assert.False(t, called)
	})

	t.Run("timeout rolls back", func(t *testing.T) {
		tx, _, acc := newTx()
		tx.timeout = 10 * time.Millisecond
		a := newAccount(t)
		err := tx.RunInTx(ctx, testCI, func(ctx context.Context, stores RegistrationStores) error {
			if err := stores.Accounts.Create(ctx, a); err != nil {
				return err
			}
			<-ctx.Done()
			return nil
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		assert.Equal(t, 0, acc.CountByCI(testCI))
	})

	t.Run("same CI maps to the same shard", func(t *testing.T) {
		assert.Equal(t, shardFor(testCI), shardFor("V12345678"))
		assert.Less(t, shardFor("E7654321"), uint32(registrationShards))
	})
}
