package whitelist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"medgate/internal/auth/models"
	id "medgate/pkg/domain"
	"medgate/pkg/platform/sentinel"
	txcontext "medgate/pkg/platform/tx"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// PostgresStore persists whitelist entries in PostgreSQL. Inside a
// transaction (see pkg/platform/tx) FindByCI takes a row lock so concurrent
// registrations for the same CI serialise on the database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `
	SELECT ci, full_name, email, authorized_role, department, specialty, title,
	       status, joined_at, expires_at, authorized_by, registered, registered_at, account_id
	FROM whitelist_entries`

func (s *PostgresStore) FindByCI(ctx context.Context, ci id.NationalID) (*models.WhitelistEntry, error) {
	query := selectColumns + ` WHERE ci = $1`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	entry, err := scanEntry(txcontext.Resolve(ctx, s.db).QueryRowContext(ctx, query, ci.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("whitelist entry not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find whitelist entry: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) Create(ctx context.Context, entry *models.WhitelistEntry) error {
	query := `
		INSERT INTO whitelist_entries (
			ci, full_name, email, authorized_role, department, specialty, title,
			status, joined_at, expires_at, authorized_by, registered
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, FALSE)
	`
	_, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		entry.CI.String(),
		entry.FullName,
		nullString(entry.Email),
		entry.AuthorizedRole.String(),
		nullString(entry.Department),
		nullString(entry.Specialty),
		nullString(entry.Title),
		string(entry.Status),
		entry.JoinedAt,
		entry.ExpiresAt,
		entry.AuthorizedBy,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("whitelist entry %s exists: %w", entry.CI, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert whitelist entry: %w", err)
	}
	return nil
}

// MarkRegistered consumes the entry with a conditional update so a second
// consumer sees zero affected rows.
func (s *PostgresStore) MarkRegistered(ctx context.Context, ci id.NationalID, accountID id.AccountID, at time.Time) error {
	q := txcontext.Resolve(ctx, s.db)
	result, err := q.ExecContext(ctx, `
		UPDATE whitelist_entries
		SET registered = TRUE, registered_at = $2, account_id = $3, updated_at = $2
		WHERE ci = $1 AND registered = FALSE
	`, ci.String(), at, uuid.UUID(accountID))
	if err != nil {
		return fmt.Errorf("mark whitelist entry registered: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark registered rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}

	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM whitelist_entries WHERE ci = $1)`, ci.String()).Scan(&exists); err != nil {
		return fmt.Errorf("check whitelist entry: %w", err)
	}
	if !exists {
		return fmt.Errorf("whitelist entry not found: %w", sentinel.ErrNotFound)
	}
	return fmt.Errorf("whitelist entry %s: %w", ci, sentinel.ErrAlreadyUsed)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, ci id.NationalID, status models.WhitelistStatus, at time.Time) error {
	result, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx,
		`UPDATE whitelist_entries SET status = $2, updated_at = $3 WHERE ci = $1`,
		ci.String(), string(status), at)
	if err != nil {
		return fmt.Errorf("update whitelist status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update whitelist status rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("whitelist entry not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.WhitelistFilter) ([]*models.WhitelistEntry, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Registered != nil {
		args = append(args, *filter.Registered)
		conds = append(conds, fmt.Sprintf("registered = $%d", len(args)))
	}
	query := selectColumns
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY ci"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list whitelist entries: %w", err)
	}
	defer rows.Close()

	var out []*models.WhitelistEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan whitelist entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate whitelist entries: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.WhitelistEntry, error) {
	var (
		e                                   models.WhitelistEntry
		ci, role, status                    string
		email, department, specialty, title sql.NullString
		expiresAt, registeredAt             sql.NullTime
		accountID                           uuid.NullUUID
	)
	if err := row.Scan(&ci, &e.FullName, &email, &role, &department, &specialty, &title,
		&status, &e.JoinedAt, &expiresAt, &e.AuthorizedBy, &e.Registered, &registeredAt, &accountID); err != nil {
		return nil, err
	}
	e.CI = id.NationalID(ci)
	e.AuthorizedRole = id.Role(role)
	e.Status = models.WhitelistStatus(status)
	e.Email = email.String
	e.Department = department.String
	e.Specialty = specialty.String
	e.Title = title.String
	if expiresAt.Valid {
		e.ExpiresAt = &expiresAt.Time
	}
	if registeredAt.Valid {
		e.RegisteredAt = &registeredAt.Time
	}
	if accountID.Valid {
		a := id.AccountID(accountID.UUID)
		e.AccountID = &a
	}
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
