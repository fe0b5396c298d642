package jwttoken

import (
	"errors"
	"time"

	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the JWT claims for session tokens. Role and specialty are
// a snapshot taken at issuance; they are trusted until the token expires.
type Claims struct {
	AccountID  string `json:"account_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Specialty  string `json:"specialty,omitempty"`
	Department string `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// Subject is the identity a session token is issued for.
type Subject struct {
	AccountID  id.AccountID
	Email      string
	Role       id.Role
	Specialty  string
	Department string
}

// JWTService handles JWT creation and validation
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		now:        time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now.
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	cp := *s
	cp.now = now
	return &cp
}

// GenerateSessionToken signs a token for subject valid from issuedAt for ttl.
func (s *JWTService) GenerateSessionToken(subject Subject, issuedAt time.Time, ttl time.Duration) (string, *Claims, error) {
	claims := &Claims{
		AccountID:  subject.AccountID.String(),
		Email:      subject.Email,
		Role:       subject.Role.String(),
		Specialty:  subject.Specialty,
		Department: subject.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.AccountID.String(),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt.Add(-time.Minute)),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ValidateToken verifies signature, algorithm, issuer, audience and expiry.
// Expiry maps to token_expired; every other failure maps to unauthorized.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeTokenExpired, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
