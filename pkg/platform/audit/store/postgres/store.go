package postgres

import (
	"context"
	"database/sql"
	"fmt"

	id "medgate/pkg/domain"
	audit "medgate/pkg/platform/audit"
	txcontext "medgate/pkg/platform/tx"

	"github.com/google/uuid"
)

// Store implements audit.Store on the audit_events table. When the context
// carries a transaction the insert joins it, so an event commits or rolls
// back with the state change it describes.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	var accountID *uuid.UUID
	if !event.AccountID.IsNil() {
		uid := uuid.UUID(event.AccountID)
		accountID = &uid
	}

	query := `
		INSERT INTO audit_events (
			id, category, timestamp, account_id, subject_id_hash, action,
			reason, email, ip, user_agent, request_id, actor_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		uuid.New(),
		string(category),
		event.Timestamp,
		accountID,
		event.SubjectIDHash,
		event.Action,
		event.Reason,
		event.Email,
		event.IP,
		event.UserAgent,
		event.RequestID,
		event.ActorID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByAccount returns events for an account, newest first.
func (s *Store) ListByAccount(ctx context.Context, accountID id.AccountID) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, account_id, subject_id_hash, action,
			   reason, email, ip, user_agent, request_id, actor_id
		FROM audit_events
		WHERE account_id = $1
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(accountID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, account_id, subject_id_hash, action,
			   reason, email, ip, user_agent, request_id, actor_id
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			e         audit.Event
			category  string
			accountID uuid.NullUUID
		)
		if err := rows.Scan(
			&category, &e.Timestamp, &accountID, &e.SubjectIDHash, &e.Action,
			&e.Reason, &e.Email, &e.IP, &e.UserAgent, &e.RequestID, &e.ActorID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		if accountID.Valid {
			e.AccountID = id.AccountID(accountID.UUID)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
