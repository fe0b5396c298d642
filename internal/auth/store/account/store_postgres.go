package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"medgate/internal/auth/models"
	id "medgate/pkg/domain"
	"medgate/pkg/platform/sentinel"
	txcontext "medgate/pkg/platform/tx"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// PostgresStore persists accounts in PostgreSQL. Uniqueness of email and CI is
// enforced by constraints; violations surface as sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `
	SELECT id, ci, email, full_name, password_hash, role, specialty, department,
	       status, created_at, updated_at
	FROM accounts`

func (s *PostgresStore) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (
			id, ci, email, full_name, password_hash, role, specialty, department,
			status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(account.ID),
		account.CI.String(),
		models.NormalizeEmail(account.Email),
		account.FullName,
		account.PasswordHash,
		account.Role.String(),
		nullString(account.Specialty),
		nullString(account.Department),
		string(account.Status),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("account %s: %w", pqErr.Constraint, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	return s.findOne(ctx, selectColumns+` WHERE id = $1`, uuid.UUID(accountID))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findOne(ctx, selectColumns+` WHERE email = $1`, models.NormalizeEmail(email))
}

func (s *PostgresStore) FindByCI(ctx context.Context, ci id.NationalID) (*models.Account, error) {
	return s.findOne(ctx, selectColumns+` WHERE ci = $1`, ci.String())
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, accountID id.AccountID, status models.AccountStatus, at time.Time) error {
	result, err := txcontext.Resolve(ctx, s.db).ExecContext(ctx,
		`UPDATE accounts SET status = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(accountID), string(status), at)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account status rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	var (
		a                     models.Account
		accountID             uuid.UUID
		ci, role, status      string
		specialty, department sql.NullString
	)
	err := txcontext.Resolve(ctx, s.db).QueryRowContext(ctx, query, arg).Scan(
		&accountID, &ci, &a.Email, &a.FullName, &a.PasswordHash, &role,
		&specialty, &department, &status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	a.ID = id.AccountID(accountID)
	a.CI = id.NationalID(ci)
	a.Role = id.Role(role)
	a.Status = models.AccountStatus(status)
	a.Specialty = specialty.String
	a.Department = department.String
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
