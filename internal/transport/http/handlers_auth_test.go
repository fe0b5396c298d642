package httptransport

import (
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"medgate/internal/auth/guard"
	"medgate/internal/auth/models"
	jwttoken "medgate/internal/jwt_token"
	"medgate/internal/specialty"
	"medgate/internal/transport/http/mocks"
	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	authmw "medgate/pkg/platform/middleware/auth"
	"medgate/pkg/testutil"
)

const testSigningKey = "handler-test-signing-key"

type AuthHandlerSuite struct {
	suite.Suite
	tokens *jwttoken.JWTService
	logger *slog.Logger
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) SetupSuite() {
	s.tokens = jwttoken.NewJWTService(testSigningKey, "medgate", "medgate-web")
	s.logger = slog.Default()
}

func (s *AuthHandlerSuite) newRouter(t *testing.T) (*mocks.MockAuthService, chi.Router) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockAuthService(ctrl)
	authorizer := guard.New(s.tokens)
	router := NewRouter(s.logger, []Registrar{
		NewAuthHandler(svc, authorizer, s.logger),
		NewDashboardHandler(specialty.NewRegistry(specialty.Default()), authorizer, s.logger),
	})
	return svc, router
}

func (s *AuthHandlerSuite) token(t *testing.T, role id.Role, specialtyName string) (string, id.AccountID) {
	accountID := id.NewAccountID()
	token, _, err := s.tokens.GenerateSessionToken(jwttoken.Subject{
		AccountID: accountID,
		Email:     "c@h.com",
		Role:      role,
		Specialty: specialtyName,
	}, time.Now(), time.Hour)
	require.NoError(t, err)
	return token, accountID
}

func registerBody() map[string]string {
	return map[string]string{
		"ci":        "V12345678",
		"full_name": "Carlos Pérez",
		"email":     "c@h.com",
		"password":  "secret1",
		"role":      "MEDICO",
	}
}

func (s *AuthHandlerSuite) TestRegister() {
	s.T().Run("created account returns 201 with id, email and role", func(t *testing.T) {
		svc, router := s.newRouter(t)
		accountID := id.NewAccountID()
		svc.EXPECT().Register(gomock.Any(), &models.RegisterRequest{
			CI: "V12345678", FullName: "Carlos Pérez", Email: "c@h.com", Password: "secret1", Role: "MEDICO",
		}).Return(&models.Account{ID: accountID, Email: "c@h.com", Role: id.RoleMedico}, nil)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register", registerBody()))

		testutil.AssertStatus(t, rr, http.StatusCreated)
		got := testutil.UnmarshalResponse[models.RegisterResult](t, rr)
		assert.Equal(t, accountID, got.AccountID)
		assert.Equal(t, "c@h.com", got.Email)
		assert.Equal(t, id.RoleMedico, got.Role)
	})

	s.T().Run("invalid json is rejected before the service", func(t *testing.T) {
		svc, router := s.newRouter(t)
		svc.EXPECT().Register(gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/auth/register", "{bad-json"))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	s.T().Run("rejections map to their status", func(t *testing.T) {
		cases := []struct {
			code   dErrors.Code
			status int
		}{
			{dErrors.CodeNotInWhitelist, http.StatusNotFound},
			{dErrors.CodeAlreadyRegistered, http.StatusConflict},
			{dErrors.CodeNameMismatch, http.StatusForbidden},
			{dErrors.CodeRoleNotAuthorized, http.StatusForbidden},
			{dErrors.CodeAuthorizationExpired, http.StatusForbidden},
			{dErrors.CodeWeakPassword, http.StatusBadRequest},
			{dErrors.CodeMalformedInput, http.StatusBadRequest},
			{dErrors.CodeConflict, http.StatusConflict},
		}
		for _, tc := range cases {
			t.Run(string(tc.code), func(t *testing.T) {
				svc, router := s.newRouter(t)
				svc.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(tc.code, "rejected"))

				rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register", registerBody()))

				testutil.AssertStatusAndError(t, rr, tc.status, string(tc.code))
			})
		}
	})

	s.T().Run("internal errors hide their cause", func(t *testing.T) {
		svc, router := s.newRouter(t)
		svc.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeInternal, "failed to create account"))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register", registerBody()))

		testutil.AssertStatus(t, rr, http.StatusInternalServerError)
		assert.NotContains(t, rr.Body.String(), "connection refused")
		assert.NotContains(t, rr.Body.String(), "failed to create account")
	})
}

func (s *AuthHandlerSuite) TestLogin() {
	body := map[string]string{"email": "c@h.com", "password": "secret1"}

	s.T().Run("success returns the token and disables caching", func(t *testing.T) {
		svc, router := s.newRouter(t)
		expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
		svc.EXPECT().Login(gomock.Any(), &models.LoginRequest{Email: "c@h.com", Password: "secret1"}).
			Return(&models.LoginResult{
				AccountID: id.NewAccountID(),
				Email:     "c@h.com",
				Role:      id.RoleMedico,
				Specialty: "Cardiología",
				Token:     "signed.jwt.token",
				ExpiresAt: expires,
			}, nil)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", body))

		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
		got := testutil.UnmarshalResponse[models.LoginResult](t, rr)
		assert.Equal(t, "signed.jwt.token", got.Token)
		assert.True(t, expires.Equal(got.ExpiresAt))
	})

	s.T().Run("invalid credentials are 401", func(t *testing.T) {
		svc, router := s.newRouter(t)
		svc.EXPECT().Login(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password"))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", body))

		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "invalid_credentials")
	})

	s.T().Run("lockout is 429 with Retry-After", func(t *testing.T) {
		svc, router := s.newRouter(t)
		svc.EXPECT().Login(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeRateLimited, "too many failed attempts").WithDetail("retry_after", "900"))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", body))

		testutil.AssertStatus(t, rr, http.StatusTooManyRequests)
		assert.Equal(t, "900", rr.Header().Get("Retry-After"))
		testutil.AssertErrorDetail(t, rr, "retry_after", "900")
	})

	s.T().Run("unknown fields are rejected", func(t *testing.T) {
		svc, router := s.newRouter(t)
		svc.EXPECT().Login(gomock.Any(), gomock.Any()).Times(0)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login",
			map[string]string{"email": "c@h.com", "password": "x", "role": "ADMIN"}))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *AuthHandlerSuite) TestMe() {
	s.T().Run("missing bearer token is 401", func(t *testing.T) {
		_, router := s.newRouter(t)
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/auth/me"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	s.T().Run("tampered token is 401", func(t *testing.T) {
		_, router := s.newRouter(t)
		token, _ := s.token(t, id.RoleMedico, "Cardiología")
		rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/auth/me"), token+"x"))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	s.T().Run("expired token is token_expired", func(t *testing.T) {
		_, router := s.newRouter(t)
		token, _, err := s.tokens.GenerateSessionToken(jwttoken.Subject{
			AccountID: id.NewAccountID(), Email: "c@h.com", Role: id.RoleMedico,
		}, time.Now().Add(-2*time.Hour), time.Hour)
		require.NoError(t, err)

		rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/auth/me"), token))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "token_expired")
	})

	s.T().Run("valid token returns the claims snapshot", func(t *testing.T) {
		_, router := s.newRouter(t)
		token, accountID := s.token(t, id.RoleMedico, "Cardiología")

		rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/auth/me"), token))

		testutil.AssertStatusOK(t, rr)
		got := testutil.UnmarshalResponse[authmw.Claims](t, rr)
		assert.Equal(t, accountID, got.AccountID)
		assert.Equal(t, id.RoleMedico, got.Role)
		assert.Equal(t, "Cardiología", got.Specialty)
	})
}
