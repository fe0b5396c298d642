package domain

import (
	"github.com/google/uuid"

	dErrors "medgate/pkg/domain-errors"
)

// AccountID identifies a personnel account. It is a distinct type so it cannot
// be confused with other UUID-backed identifiers at compile time.
type AccountID uuid.UUID

// AuditEventID identifies a persisted audit event.
type AuditEventID uuid.UUID

// NewAccountID returns a random account identifier.
func NewAccountID() AccountID {
	return AccountID(uuid.New())
}

// ParseAccountID parses a non-nil UUID string into an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s, "account ID")
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

func (id AccountID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the identifier is the zero UUID.
func (id AccountID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText lets AccountID serialize as a plain UUID string in JSON.
func (id AccountID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *AccountID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedInput, "invalid account ID")
	}
	*id = AccountID(u)
	return nil
}

func (id AuditEventID) String() string {
	return uuid.UUID(id).String()
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeMalformedInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeMalformedInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeMalformedInput, label+" cannot be nil")
	}
	return u, nil
}
