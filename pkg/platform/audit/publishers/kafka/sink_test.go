package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	id "medgate/pkg/domain"
	audit "medgate/pkg/platform/audit"
	"medgate/pkg/platform/circuit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_DerivesCategoryAndFormatsFields(t *testing.T) {
	accountID := id.NewAccountID()
	ts := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

	b, err := encode(audit.Event{
		AccountID:     accountID,
		Timestamp:     ts,
		Action:        string(audit.EventAuthFailed),
		SubjectIDHash: audit.HashSubjectID("V12345678"),
		RequestID:     "req-1",
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "security", got["category"])
	assert.Equal(t, accountID.String(), got["account_id"])
	assert.Equal(t, "2026-05-04T10:30:00Z", got["timestamp"])
	assert.Equal(t, "req-1", got["request_id"])
	assert.NotEmpty(t, got["id"])
	assert.NotContains(t, got, "email")
}

func TestEncode_OmitsNilAccount(t *testing.T) {
	b, err := encode(audit.Event{Action: string(audit.EventRegistrationRejected)})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.NotContains(t, got, "account_id")
}

func TestAppend_SkipsProduceWhileCircuitOpen(t *testing.T) {
	breaker := circuit.New("audit-kafka", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))
	breaker.RecordFailure()
	sink := &Sink{topic: "audit", logger: slog.New(slog.DiscardHandler), breaker: breaker}

	err := sink.Append(context.Background(), audit.Event{Action: string(audit.EventLoginSucceeded)})

	assert.ErrorIs(t, err, ErrCircuitOpen)
}
