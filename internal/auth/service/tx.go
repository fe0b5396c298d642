package service

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"medgate/internal/auth/models"
	"medgate/internal/auth/store/account"
	"medgate/internal/auth/store/whitelist"
	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
)

const (
	registrationShards = 128
	defaultTxTimeout   = 5 * time.Second
)

// InMemoryRegistrationTx serialises registrations per CI with a sharded mutex
// and undoes the writes fn made when it returns an error. Different CIs only
// contend when they hash to the same shard.
type InMemoryRegistrationTx struct {
	whitelist *whitelist.InMemoryStore
	accounts  *account.InMemoryStore
	shards    [registrationShards]sync.Mutex
	timeout   time.Duration
}

func NewInMemoryRegistrationTx(wl *whitelist.InMemoryStore, accounts *account.InMemoryStore) *InMemoryRegistrationTx {
	return &InMemoryRegistrationTx{whitelist: wl, accounts: accounts, timeout: defaultTxTimeout}
}

func (t *InMemoryRegistrationTx) RunInTx(ctx context.Context, ci id.NationalID, fn func(ctx context.Context, stores RegistrationStores) error) (err error) {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "registration cancelled")
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	mu := &t.shards[shardFor(ci)]
	mu.Lock()
	defer mu.Unlock()

	j := &journal{}
	defer func() {
		if err != nil {
			j.rollback()
		}
	}()

	if err := fn(ctx, RegistrationStores{
		Whitelist: &journaledWhitelist{store: t.whitelist, journal: j},
		Accounts:  &journaledAccounts{store: t.accounts, journal: j},
	}); err != nil {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "registration timed out")
	}
	return nil
}

func shardFor(ci id.NationalID) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ci))
	return h.Sum32() % registrationShards
}

// journal records compensating actions, replayed in reverse on rollback.
type journal struct {
	undo []func()
}

func (j *journal) record(fn func()) {
	j.undo = append(j.undo, fn)
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
}

type journaledWhitelist struct {
	store   *whitelist.InMemoryStore
	journal *journal
}

func (w *journaledWhitelist) FindByCI(ctx context.Context, ci id.NationalID) (*models.WhitelistEntry, error) {
	return w.store.FindByCI(ctx, ci)
}

func (w *journaledWhitelist) MarkRegistered(ctx context.Context, ci id.NationalID, accountID id.AccountID, at time.Time) error {
	before, err := w.store.FindByCI(ctx, ci)
	if err != nil {
		return err
	}
	if err := w.store.MarkRegistered(ctx, ci, accountID, at); err != nil {
		return err
	}
	w.journal.record(func() { w.store.Put(before) })
	return nil
}

type journaledAccounts struct {
	store   *account.InMemoryStore
	journal *journal
}

func (a *journaledAccounts) Create(ctx context.Context, acc *models.Account) error {
	if err := a.store.Create(ctx, acc); err != nil {
		return err
	}
	accountID := acc.ID
	a.journal.record(func() { _ = a.store.Delete(context.Background(), accountID) })
	return nil
}

func (a *journaledAccounts) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	return a.store.FindByID(ctx, accountID)
}

func (a *journaledAccounts) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return a.store.FindByEmail(ctx, email)
}

func (a *journaledAccounts) FindByCI(ctx context.Context, ci id.NationalID) (*models.Account, error) {
	return a.store.FindByCI(ctx, ci)
}
