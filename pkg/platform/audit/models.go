package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	id "medgate/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention.
type EventCategory string

const (
	// CategoryCompliance covers account lifecycle and whitelist changes.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers rejected registrations, failed logins and lockouts.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine token issuance.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	AccountID id.AccountID
	// SubjectIDHash is a SHA-256 hash of the CI involved, so the trail is
	// traceable without storing the raw national ID.
	SubjectIDHash string
	Action        string
	Reason        string
	Email         string
	IP            string
	UserAgent     string
	RequestID     string
	// ActorID identifies the operator for administrative actions.
	ActorID string
}

type AuditEvent string

const (
	EventAccountRegistered      AuditEvent = "account_registered"
	EventRegistrationRejected   AuditEvent = "registration_rejected"
	EventLoginSucceeded         AuditEvent = "login_succeeded"
	EventAuthFailed             AuditEvent = "auth_failed"
	EventTokenIssued            AuditEvent = "token_issued"
	EventAuthLockoutTriggered   AuditEvent = "auth_lockout_triggered"
	EventAuthLockoutCleared     AuditEvent = "auth_lockout_cleared"
	EventWhitelistEntryCreated  AuditEvent = "whitelist_entry_created"
	EventWhitelistStatusChanged AuditEvent = "whitelist_status_changed"
	EventAccountStatusChanged   AuditEvent = "account_status_changed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAccountRegistered:      CategoryCompliance,
	EventWhitelistEntryCreated:  CategoryCompliance,
	EventWhitelistStatusChanged: CategoryCompliance,
	EventAccountStatusChanged:   CategoryCompliance,

	EventRegistrationRejected: CategorySecurity,
	EventAuthFailed:           CategorySecurity,
	EventAuthLockoutTriggered: CategorySecurity,
	EventAuthLockoutCleared:   CategorySecurity,

	EventLoginSucceeded: CategoryOperations,
	EventTokenIssued:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// HashSubjectID hashes a national ID for the audit trail.
func HashSubjectID(ci string) string {
	if ci == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ci))
	return hex.EncodeToString(sum[:])
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAccount(ctx context.Context, accountID id.AccountID) ([]Event, error)
}

// Sink is a write-only destination such as a message broker.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

type fanout struct {
	primary Store
	sinks   []Sink
}

// Fanout returns a Store that writes to primary and then to every sink.
// Reads are served by primary only.
func Fanout(primary Store, sinks ...Sink) Store {
	if len(sinks) == 0 {
		return primary
	}
	return &fanout{primary: primary, sinks: sinks}
}

func (f *fanout) Append(ctx context.Context, event Event) error {
	errs := []error{f.primary.Append(ctx, event)}
	for _, s := range f.sinks {
		errs = append(errs, s.Append(ctx, event))
	}
	return errors.Join(errs...)
}

func (f *fanout) ListByAccount(ctx context.Context, accountID id.AccountID) ([]Event, error) {
	return f.primary.ListByAccount(ctx, accountID)
}
