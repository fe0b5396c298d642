package httptransport

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medgate/internal/specialty"
	id "medgate/pkg/domain"
	"medgate/pkg/testutil"
)

func (s *AuthHandlerSuite) TestDashboard() {
	s.T().Run("merges role actions with the specialty view", func(t *testing.T) {
		_, router := s.newRouter(t)
		token, _ := s.token(t, id.RoleMedico, "Cardiología")

		rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/dashboard"), token))

		testutil.AssertStatusOK(t, rr)
		got := testutil.UnmarshalResponse[specialty.Dashboard](t, rr)
		assert.Equal(t, "/medico/dashboard", got.HomePath)
		assert.Equal(t, "Cardiología", got.Specialty)
		assert.Contains(t, got.Actions, specialty.ActionPrescribe)
		assert.Contains(t, got.Actions, specialty.ActionRecordECG)
		assert.Contains(t, got.Metrics, specialty.MetricCriticalAlerts)
		assert.NotNil(t, got.EncounterForm)
	})

	s.T().Run("unknown specialty contributes nothing", func(t *testing.T) {
		_, router := s.newRouter(t)
		token, _ := s.token(t, id.RoleFarmacia, "Astrología")

		rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/dashboard"), token))

		testutil.AssertStatusOK(t, rr)
		got := testutil.UnmarshalResponse[specialty.Dashboard](t, rr)
		assert.Empty(t, got.Specialty)
		assert.Empty(t, got.Metrics)
		assert.ElementsMatch(t, specialty.RoleCapabilities(id.RoleFarmacia), got.Actions)
		assert.Nil(t, got.EncounterForm)
	})
}

func (s *AuthHandlerSuite) TestSpecialties() {
	s.T().Run("resolves accented and unaccented names", func(t *testing.T) {
		_, router := s.newRouter(t)
		token, _ := s.token(t, id.RoleRecepcion, "")

		for _, path := range []string{"/specialties/Cardiolog%C3%ADa", "/specialties/cardiologia", "/specialties/CARD"} {
			rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, path), token))
			testutil.AssertStatusOK(t, rr)
			got := testutil.UnmarshalResponse[specialty.Config](t, rr)
			assert.Equal(t, "Cardiología", got.Name, path)
		}
	})

	s.T().Run("unknown name fails closed", func(t *testing.T) {
		_, router := s.newRouter(t)
		token, _ := s.token(t, id.RoleRecepcion, "")

		rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/specialties/astrologia"), token))

		testutil.AssertStatusOK(t, rr)
		got := testutil.UnmarshalResponse[specialty.Config](t, rr)
		assert.Empty(t, got.Name)
		assert.Empty(t, got.Dashboard.Actions)
		assert.Nil(t, got.EncounterForm)
	})

	s.T().Run("lists every catalog name", func(t *testing.T) {
		_, router := s.newRouter(t)
		token, _ := s.token(t, id.RoleAdmin, "")

		rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/specialties"), token))

		testutil.AssertStatusOK(t, rr)
		got := testutil.UnmarshalResponse[map[string][]string](t, rr)
		assert.Len(t, (*got)["specialties"], len(specialty.Default().Names()))
	})
}

func (s *AuthHandlerSuite) TestEncounterFormRoleGate() {
	s.T().Run("clinical role gets its specialty form", func(t *testing.T) {
		_, router := s.newRouter(t)
		token, _ := s.token(t, id.RoleMedico, "Pediatría")

		rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/encounters/form"), token))

		testutil.AssertStatusOK(t, rr)
		got := testutil.UnmarshalResponse[specialty.EncounterForm](t, rr)
		require.NotEmpty(t, got.Steps)
	})

	s.T().Run("other roles are forbidden with a redirect home", func(t *testing.T) {
		_, router := s.newRouter(t)
		token, _ := s.token(t, id.RoleRecepcion, "")

		rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/encounters/form"), token))

		testutil.AssertStatus(t, rr, http.StatusForbidden)
		testutil.AssertErrorDetail(t, rr, "redirect", "/recepcion/dashboard")
	})

	s.T().Run("specialty without a form is not found", func(t *testing.T) {
		_, router := s.newRouter(t)
		token, _ := s.token(t, id.RoleMedico, "Dermatología")

		rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/encounters/form"), token))

		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}
