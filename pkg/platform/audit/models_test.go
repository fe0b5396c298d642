package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	id "medgate/pkg/domain"
	"medgate/pkg/requestcontext"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	events []Event
	err    error
}

func (r *recordingStore) Append(_ context.Context, e Event) error {
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingStore) ListByAccount(context.Context, id.AccountID) ([]Event, error) {
	return r.events, nil
}

type recordingEmitter struct{ events []Event }

func (r *recordingEmitter) Emit(_ context.Context, e Event) error {
	r.events = append(r.events, e)
	return nil
}

func TestAuditEventCategory(t *testing.T) {
	assert.Equal(t, CategoryCompliance, EventAccountRegistered.Category())
	assert.Equal(t, CategorySecurity, EventAuthFailed.Category())
	assert.Equal(t, CategorySecurity, EventAuthLockoutTriggered.Category())
	assert.Equal(t, CategoryOperations, EventTokenIssued.Category())
	assert.Equal(t, CategoryOperations, AuditEvent("something_new").Category())
}

func TestHashSubjectID(t *testing.T) {
	assert.Empty(t, HashSubjectID(""))
	h := HashSubjectID("V12345678")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashSubjectID("V12345678"))
	assert.NotEqual(t, h, HashSubjectID("V12345679"))
}

func TestFanout(t *testing.T) {
	primary := &recordingStore{}
	sink := &recordingStore{err: errors.New("broker down")}

	store := Fanout(primary, sink)
	err := store.Append(context.Background(), Event{Action: "x"})

	require.Error(t, err, "sink failures surface")
	assert.Len(t, primary.events, 1)
	assert.Len(t, sink.events, 1)

	assert.Same(t, primary, Fanout(primary), "no sinks returns primary unchanged")
}

func TestLogAudit_EnrichesFromContext(t *testing.T) {
	now := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.7", "curl/8.0")
	ctx = requestcontext.WithTime(ctx, now)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	emitter := &recordingEmitter{}

	LogAudit(ctx, logger, emitter, EventRegistrationRejected, Event{}, "reason", "name_mismatch", "email", "a@b.c")

	require.Len(t, emitter.events, 1)
	e := emitter.events[0]
	assert.Equal(t, "registration_rejected", e.Action)
	assert.Equal(t, CategorySecurity, e.Category)
	assert.Equal(t, "req-42", e.RequestID)
	assert.Equal(t, "10.0.0.7", e.IP)
	assert.Equal(t, "curl/8.0", e.UserAgent)
	assert.Equal(t, "name_mismatch", e.Reason)
	assert.Equal(t, "a@b.c", e.Email)
	assert.Equal(t, now, e.Timestamp)
	assert.Contains(t, buf.String(), `"log_type":"audit"`)
}

func TestLogAudit_NilEmitterOnlyLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogAudit(context.Background(), logger, nil, EventTokenIssued, Event{})
	assert.Contains(t, buf.String(), "token_issued")
}
