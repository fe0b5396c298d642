package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	id "medgate/pkg/domain"
	audit "medgate/pkg/platform/audit"
	"medgate/pkg/platform/audit/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	accountID := id.NewAccountID()
	err := pub.Emit(context.Background(), audit.Event{
		AccountID: accountID,
		Action:    string(audit.EventAccountRegistered),
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), accountID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventAccountRegistered), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	accountID := id.NewAccountID()
	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			AccountID: accountID,
			Action:    string(audit.EventLoginSucceeded),
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByAccount(context.Background(), accountID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_EmitAfterCloseFallsBackToSync(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(4))
	pub.Close()
	pub.Close()

	accountID := id.NewAccountID()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{AccountID: accountID, Action: "x"}))

	events, err := store.ListByAccount(context.Background(), accountID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPublisher_BufferFullDoesNotPanic(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventAuthFailed)})
			if err != nil {
				assert.True(t, errors.Is(err, ErrBufferFull))
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithClock(func() time.Time { return fixed }))

	accountID := id.NewAccountID()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{AccountID: accountID, Action: "x"}))

	events, err := pub.List(context.Background(), accountID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, fixed, events[0].Timestamp)
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	accountID := id.NewAccountID()
	custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		AccountID: accountID,
		Action:    string(audit.EventTokenIssued),
		Timestamp: custom,
	}))

	events, err := pub.List(context.Background(), accountID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, custom, events[0].Timestamp)
}

func TestPublisher_DifferentAccounts(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	a, b := id.NewAccountID(), id.NewAccountID()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{AccountID: a, Action: string(audit.EventAccountRegistered)}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{AccountID: b, Action: string(audit.EventLoginSucceeded)}))

	ea, err := pub.List(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, ea, 1)
	assert.Equal(t, string(audit.EventAccountRegistered), ea[0].Action)

	eb, err := pub.List(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, eb, 1)
	assert.Equal(t, audit.CategoryOperations, eb[0].Category)
}
