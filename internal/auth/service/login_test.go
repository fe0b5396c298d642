package service

import (
	"time"

	"medgate/internal/auth/models"
	id "medgate/pkg/domain"
	dErrors "medgate/pkg/domain-errors"
	"medgate/pkg/platform/audit"
	"medgate/pkg/requestcontext"
)

func (s *RegistrationSuite) registered() *models.Account {
	s.T().Helper()
	s.whitelist.Put(carlos())
	acc, err := s.service.Register(s.ctx, registerCarlos())
	s.Require().NoError(err)
	return acc
}

func (s *RegistrationSuite) login(email, pw string) (*models.LoginResult, error) {
	return s.service.Login(s.ctx, &models.LoginRequest{Email: email, Password: pw})
}

func (s *RegistrationSuite) TestLoginSuccess() {
	acc := s.registered()
	ctx := requestcontext.WithClientMetadata(s.ctx, "10.0.0.1",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	res, err := s.service.Login(ctx, &models.LoginRequest{Email: "  C@H.COM ", Password: testPassword})
	s.Require().NoError(err)
	s.Equal(acc.ID, res.AccountID)
	s.Equal("c@h.com", res.Email)
	s.Equal("Cardiología", res.Specialty, "specialty is reported with its catalog name")
	s.True(s.now.Add(8*time.Hour).Equal(res.ExpiresAt), res.ExpiresAt)

	claims, err := s.tokens.ValidateToken(res.Token)
	s.Require().NoError(err)
	s.Equal(acc.ID.String(), claims.AccountID)
	s.Equal("MEDICO", claims.Role)
	s.Equal("Cardiología", claims.Specialty)
	s.Equal("cardiologia", claims.Department)

	events := s.auditStore.ListByAction(s.ctx, audit.EventLoginSucceeded)
	s.Require().Len(events, 1)
	s.Equal("10.0.0.1", events[0].IP)
}

func (s *RegistrationSuite) TestLoginFailuresAreIndistinguishable() {
	s.registered()

	_, wrongPassword := s.login("c@h.com", "not-the-password")
	_, unknownEmail := s.login("nobody@h.com", testPassword)

	s.requireCode(wrongPassword, dErrors.CodeInvalidCredentials)
	s.requireCode(unknownEmail, dErrors.CodeInvalidCredentials)
	s.Equal(wrongPassword.Error(), unknownEmail.Error())

	wp, _ := dErrors.From(wrongPassword)
	ue, _ := dErrors.From(unknownEmail)
	s.Equal(wp.Details, ue.Details)
}

func (s *RegistrationSuite) TestLoginRequiresActiveAccountAndAuthorization() {
	s.Run("suspended account", func() {
		acc := s.registered()
		s.Require().NoError(s.accounts.UpdateStatus(s.ctx, acc.ID, models.AccountSuspended, s.now))

		_, err := s.login("c@h.com", testPassword)
		s.requireCode(err, dErrors.CodeInvalidCredentials)
	})

	s.SetupTest()
	s.Run("terminated authorization keeps the entry registered but blocks login", func() {
		s.registered()
		s.Require().NoError(s.whitelist.UpdateStatus(s.ctx, testCI, models.WhitelistTerminated, s.now))

		_, err := s.login("c@h.com", testPassword)
		s.requireCode(err, dErrors.CodeInvalidCredentials)

		entry, err := s.whitelist.FindByCI(s.ctx, testCI)
		s.Require().NoError(err)
		s.True(entry.Registered)

		events := s.auditStore.ListByAction(s.ctx, audit.EventAuthFailed)
		s.Require().NotEmpty(events)
		s.Equal("authorization_terminated", events[len(events)-1].Reason)
	})
}

func (s *RegistrationSuite) TestLoginLockout() {
	s.registered()
	for range 5 {
		_, err := s.login("c@h.com", "wrong-password")
		s.requireCode(err, dErrors.CodeInvalidCredentials)
	}

	_, err := s.login("c@h.com", testPassword)
	de := s.requireCode(err, dErrors.CodeRateLimited)
	s.NotEmpty(de.Details["retry_after"])
	s.NotEqual("0", de.Details["retry_after"])
}

func (s *RegistrationSuite) TestLoginClearsFailures() {
	s.registered()
	for range 2 {
		_, _ = s.login("c@h.com", "wrong-password")
	}
	_, err := s.login("c@h.com", testPassword)
	s.Require().NoError(err)

	check, err := s.lockout.Check(s.ctx, "c@h.com")
	s.Require().NoError(err)
	s.Zero(check.FailureCount)
}

func (s *RegistrationSuite) TestLoginMissingFields() {
	_, err := s.login("", testPassword)
	s.requireCode(err, dErrors.CodeMalformedInput)
	_, err = s.login("c@h.com", "")
	s.requireCode(err, dErrors.CodeMalformedInput)
}

func (s *RegistrationSuite) TestIssue() {
	acc := s.registered()

	s.Run("active account", func() {
		res, err := s.service.Issue(s.ctx, acc.ID)
		s.Require().NoError(err)
		s.NotEmpty(res.Token)
		s.Len(s.auditStore.ListByAction(s.ctx, audit.EventTokenIssued), 1)
	})

	s.Run("unknown account", func() {
		_, err := s.service.Issue(s.ctx, id.NewAccountID())
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("disabled account", func() {
		s.Require().NoError(s.accounts.UpdateStatus(s.ctx, acc.ID, models.AccountDisabled, s.now))
		_, err := s.service.Issue(s.ctx, acc.ID)
		s.requireCode(err, dErrors.CodeInvalidCredentials)
	})
}
