package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/mssola/useragent"
	"go.opentelemetry.io/otel/attribute"

	"medgate/internal/auth/models"
	jwttoken "medgate/internal/jwt_token"
	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/platform/audit"
	"medgate/pkg/platform/sentinel"
	"medgate/pkg/requestcontext"
)

var errInvalidCredentials = dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password")

// Login verifies credentials and issues a session token. Unknown email, wrong
// password and ineligible accounts all fail with the same error, and the
// unknown-email path still pays for one bcrypt comparison.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (result *models.LoginResult, err error) {
	started := time.Now()
	ctx, span := tracer.Start(ctx, "auth.Login")
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveLogin(outcome(err), started)
		}
		endSpan(span, err)
	}()

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	email := models.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, dErrors.New(dErrors.CodeMalformedInput, "email and password are required")
	}
	now := requestcontext.Now(ctx)

	if s.lockout != nil {
		check, err := s.lockout.Check(ctx, email)
		if err != nil {
			return nil, internal(err, "failed to check login lockout")
		}
		if !check.Allowed {
			return nil, dErrors.New(dErrors.CodeRateLimited, "too many failed login attempts").
				WithDetail("retry_after", strconv.Itoa(check.RetryAfter(now)))
		}
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.hasher.VerifyDummy(req.Password)
			return nil, s.loginFailed(ctx, email, "unknown_email")
		}
		return nil, internal(err, "failed to look up account")
	}
	if !s.hasher.Verify(req.Password, account.PasswordHash) {
		return nil, s.loginFailed(ctx, email, "bad_password")
	}
	if reason, err := s.eligibility(ctx, account, now); err != nil {
		return nil, err
	} else if reason != "" {
		return nil, s.loginFailed(ctx, email, reason)
	}

	result, err = s.issue(ctx, account, now)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("account.role", account.Role.String()))

	if s.lockout != nil {
		if err := s.lockout.Clear(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "failed to clear login lockout",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}

	ua := useragent.New(requestcontext.UserAgent(ctx))
	browser, browserVersion := ua.Browser()
	s.logAudit(ctx, audit.EventLoginSucceeded, audit.Event{
		AccountID: account.ID,
		Email:     account.Email,
	},
		"account_id", account.ID.String(),
		"role", account.Role.String(),
		"browser", strings.TrimSpace(browser+" "+browserVersion),
		"os", ua.OS(),
		"mobile", ua.Mobile(),
	)
	return result, nil
}

// Issue mints a token for an identity established by other means. The
// account must pass the same eligibility checks as Login.
func (s *Service) Issue(ctx context.Context, accountID id.AccountID) (result *models.LoginResult, err error) {
	ctx, span := tracer.Start(ctx, "auth.Issue")
	defer func() { endSpan(span, err) }()

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, internal(err, "failed to look up account")
	}
	now := requestcontext.Now(ctx)
	reason, err := s.eligibility(ctx, account, now)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		s.logAudit(ctx, audit.EventAuthFailed, audit.Event{AccountID: account.ID, Email: account.Email},
			"reason", reason)
		return nil, errInvalidCredentials
	}

	result, err = s.issue(ctx, account, now)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventTokenIssued, audit.Event{AccountID: account.ID, Email: account.Email},
		"account_id", account.ID.String())
	return result, nil
}

// eligibility returns a non-empty reason when the account may not sign in:
// the account itself must be ACTIVE and so must its whitelist authorization.
func (s *Service) eligibility(ctx context.Context, account *models.Account, now time.Time) (string, error) {
	if !account.IsActive() {
		return "account_" + strings.ToLower(string(account.Status)), nil
	}
	entry, err := s.whitelist.FindByCI(ctx, account.CI)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "authorization_missing", nil
		}
		return "", internal(err, "failed to read whitelist")
	}
	if entry.Status != models.WhitelistActive {
		return "authorization_" + strings.ToLower(string(entry.Status)), nil
	}
	if entry.IsExpiredAt(now) {
		return "authorization_expired", nil
	}
	return "", nil
}

func (s *Service) issue(ctx context.Context, account *models.Account, now time.Time) (*models.LoginResult, error) {
	spec := s.specialties.CanonicalName(account.Specialty)
	if spec == "" {
		spec = account.Specialty
	}
	token, claims, err := s.tokens.GenerateSessionToken(jwttoken.Subject{
		AccountID:  account.ID,
		Email:      account.Email,
		Role:       account.Role,
		Specialty:  spec,
		Department: account.Department,
	}, now, s.tokenTTL)
	if err != nil {
		return nil, internal(err, "failed to issue session token")
	}
	if s.metrics != nil {
		s.metrics.IncrementTokensIssued()
	}
	expiresAt := now.Add(s.tokenTTL)
	if claims != nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &models.LoginResult{
		AccountID:  account.ID,
		Email:      account.Email,
		Role:       account.Role,
		Specialty:  spec,
		Department: account.Department,
		Token:      token,
		ExpiresAt:  expiresAt,
	}, nil
}

func (s *Service) loginFailed(ctx context.Context, email, reason string) error {
	if s.lockout != nil {
		if _, err := s.lockout.RecordFailure(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "failed to record login failure",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	s.logAudit(ctx, audit.EventAuthFailed, audit.Event{Email: email}, "reason", reason)
	return errInvalidCredentials
}
