package authlockout

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/suite"

	"medgate/internal/ratelimit/models"
)

type lockoutStore interface {
	Get(ctx context.Context, identifier string) (*models.AuthLockout, error)
	RecordFailure(ctx context.Context, identifier string, now time.Time, window time.Duration) (*models.AuthLockout, error)
	Update(ctx context.Context, record *models.AuthLockout) error
	Clear(ctx context.Context, identifier string) error
}

// storeContractSuite runs the same behaviour checks against every backend.
type storeContractSuite struct {
	suite.Suite
	store lockoutStore
	seq   int
}

const window = 15 * time.Minute

var base = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func (s *storeContractSuite) key() string {
	s.seq++
	return fmt.Sprintf("auth_lockout:user%d@hospital.test", s.seq)
}

func (s *storeContractSuite) TestGet() {
	ctx := context.Background()

	s.Run("missing identifier returns nil without error", func() {
		record, err := s.store.Get(ctx, s.key())
		s.NoError(err)
		s.Nil(record)
	})

	s.Run("existing record is returned", func() {
		key := s.key()
		_, err := s.store.RecordFailure(ctx, key, base, window)
		s.Require().NoError(err)

		record, err := s.store.Get(ctx, key)
		s.Require().NoError(err)
		s.Require().NotNil(record)
		s.Equal(key, record.Identifier)
		s.Equal(1, record.FailureCount)
		s.True(base.Equal(record.LastFailureAt))
		s.Nil(record.LockedUntil)
	})
}

func (s *storeContractSuite) TestRecordFailure() {
	ctx := context.Background()

	s.Run("first failure initialises counters to 1", func() {
		record, err := s.store.RecordFailure(ctx, s.key(), base, window)
		s.Require().NoError(err)
		s.Equal(1, record.FailureCount)
		s.Equal(1, record.DailyFailures)
	})

	s.Run("failures within the window accumulate", func() {
		key := s.key()
		for i := range 3 {
			_, err := s.store.RecordFailure(ctx, key, base.Add(time.Duration(i)*time.Minute), window)
			s.Require().NoError(err)
		}
		record, err := s.store.Get(ctx, key)
		s.Require().NoError(err)
		s.Equal(3, record.FailureCount)
		s.Equal(3, record.DailyFailures)
		s.True(base.Add(2 * time.Minute).Equal(record.LastFailureAt))
	})

	s.Run("window counter restarts after the window but daily keeps counting", func() {
		key := s.key()
		_, err := s.store.RecordFailure(ctx, key, base, window)
		s.Require().NoError(err)
		_, err = s.store.RecordFailure(ctx, key, base.Add(time.Minute), window)
		s.Require().NoError(err)

		record, err := s.store.RecordFailure(ctx, key, base.Add(time.Minute+window+time.Second), window)
		s.Require().NoError(err)
		s.Equal(1, record.FailureCount)
		s.Equal(3, record.DailyFailures)
	})

	s.Run("daily counter restarts after a day", func() {
		key := s.key()
		_, err := s.store.RecordFailure(ctx, key, base, window)
		s.Require().NoError(err)

		record, err := s.store.RecordFailure(ctx, key, base.Add(models.DailyWindow+time.Minute), window)
		s.Require().NoError(err)
		s.Equal(1, record.FailureCount)
		s.Equal(1, record.DailyFailures)
	})
}

func (s *storeContractSuite) TestUpdate() {
	ctx := context.Background()
	key := s.key()
	_, err := s.store.RecordFailure(ctx, key, base, window)
	s.Require().NoError(err)

	// far enough ahead that the redis TTL is not shortened during the test
	lockedUntil := time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond)
	err = s.store.Update(ctx, &models.AuthLockout{
		Identifier:    key,
		FailureCount:  5,
		DailyFailures: 10,
		LastFailureAt: base,
		LockedUntil:   &lockedUntil,
	})
	s.Require().NoError(err)

	record, err := s.store.Get(ctx, key)
	s.Require().NoError(err)
	s.Equal(5, record.FailureCount)
	s.Equal(10, record.DailyFailures)
	s.Require().NotNil(record.LockedUntil)
	s.True(lockedUntil.Equal(*record.LockedUntil))

	s.Run("later failures keep the lock", func() {
		record, err := s.store.RecordFailure(ctx, key, base.Add(time.Minute), window)
		s.Require().NoError(err)
		s.Require().NotNil(record.LockedUntil)
		s.True(lockedUntil.Equal(*record.LockedUntil))
		s.Equal(11, record.DailyFailures)
	})
}

func (s *storeContractSuite) TestClear() {
	ctx := context.Background()

	s.Run("clearing an existing record removes it", func() {
		key := s.key()
		_, err := s.store.RecordFailure(ctx, key, base, window)
		s.Require().NoError(err)

		s.Require().NoError(s.store.Clear(ctx, key))

		record, err := s.store.Get(ctx, key)
		s.NoError(err)
		s.Nil(record)
	})

	s.Run("clearing a missing record is a no-op", func() {
		s.NoError(s.store.Clear(ctx, s.key()))
	})
}
