package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	authservice "medgate/internal/auth/service"
	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	txcontext "medgate/pkg/platform/tx"
)

const defaultRegistrationTxTimeout = 5 * time.Second

// registrationPostgresTx runs a registration in one database transaction.
// The whitelist store locks the entry row (SELECT ... FOR UPDATE) when it
// finds a transaction in the context, so registrations of one CI serialise.
type registrationPostgresTx struct {
	db        *sql.DB
	whitelist authservice.WhitelistStore
	accounts  authservice.AccountStore
	timeout   time.Duration
}

func newRegistrationPostgresTx(db *sql.DB, wl authservice.WhitelistStore, accounts authservice.AccountStore) *registrationPostgresTx {
	return &registrationPostgresTx{db: db, whitelist: wl, accounts: accounts, timeout: defaultRegistrationTxTimeout}
}

func (t *registrationPostgresTx) RunInTx(ctx context.Context, _ id.NationalID, fn func(ctx context.Context, stores authservice.RegistrationStores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin registration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx), authservice.RegistrationStores{
		Whitelist: t.whitelist,
		Accounts:  t.accounts,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration tx: %w", err)
	}
	return nil
}
