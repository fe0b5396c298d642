//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	id "medgate/pkg/domain"
	audit "medgate/pkg/platform/audit"
	"medgate/pkg/testutil/containers"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestSink_PublishesToTopic(t *testing.T) {
	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	sink, err := New(ctx, []string{broker.Broker}, "medgate.audit.test", nil)
	require.NoError(t, err)
	defer sink.Close()
	require.NoError(t, sink.EnsureTopic(ctx, 1, 1))
	require.NoError(t, sink.EnsureTopic(ctx, 1, 1), "second call must be idempotent")

	accountID := id.NewAccountID()
	require.NoError(t, sink.Append(ctx, audit.Event{
		AccountID: accountID,
		Action:    string(audit.EventAccountRegistered),
		Timestamp: time.Now(),
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics("medgate.audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.NotEmpty(t, records)
	require.Equal(t, accountID.String(), string(records[0].Key))
}
