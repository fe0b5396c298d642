package specialty

import (
	id "medgate/pkg/domain"
	pstrings "medgate/pkg/platform/strings"
)

// Role-level action keys, granted regardless of specialty.
const (
	ActionViewPatients        = "view_patients"
	ActionCreateEncounter     = "create_encounter"
	ActionPrescribe           = "prescribe"
	ActionOrderLabs           = "order_labs"
	ActionAdmitPatient        = "admit_patient"
	ActionScheduleAppointment = "schedule_appointment"
	ActionRegisterPatient     = "register_patient"
	ActionDispense            = "dispense_medication"
	ActionManageInventory     = "manage_inventory"
	ActionRecordLabResult     = "record_lab_result"
	ActionManageWhitelist     = "manage_whitelist"
	ActionManageAccounts      = "manage_accounts"
	ActionViewReports         = "view_reports"
)

var roleCapabilities = map[id.Role][]string{
	id.RoleAdmin:       {ActionManageWhitelist, ActionManageAccounts, ActionViewReports, ActionViewPatients},
	id.RoleMedico:      {ActionViewPatients, ActionCreateEncounter, ActionPrescribe, ActionOrderLabs, ActionAdmitPatient},
	id.RoleEnfermero:   {ActionViewPatients, ActionVitalSigns, ActionMedicationRound},
	id.RoleRecepcion:   {ActionRegisterPatient, ActionScheduleAppointment},
	id.RoleFarmacia:    {ActionDispense, ActionManageInventory},
	id.RoleLaboratorio: {ActionRecordLabResult, ActionViewPatients},
}

// RoleCapabilities returns the sorted action set a role grants. Unknown roles
// get an empty set.
func RoleCapabilities(role id.Role) []string {
	return pstrings.SortedSet(roleCapabilities[role]...)
}

// Dashboard is what a signed-in user sees: the role's generic actions merged
// with the actions and metrics of their specialty.
type Dashboard struct {
	Role          id.Role        `json:"role"`
	HomePath      string         `json:"home_path"`
	Specialty     string         `json:"specialty,omitempty"`
	Department    string         `json:"department,omitempty"`
	Color         string         `json:"color,omitempty"`
	Metrics       []string       `json:"metrics"`
	Actions       []string       `json:"actions"`
	EncounterForm *EncounterForm `json:"encounter_form,omitempty"`
}

// ResolveDashboard is pure: role actions ∪ specialty actions, metrics from
// the specialty only. An unknown specialty contributes nothing.
func (c *Catalog) ResolveDashboard(role id.Role, specialtyName string) Dashboard {
	cfg := c.Resolve(specialtyName)
	actions := append(RoleCapabilities(role), cfg.Dashboard.Actions...)
	return Dashboard{
		Role:          role,
		HomePath:      role.HomePath(),
		Specialty:     cfg.Name,
		Department:    cfg.Department,
		Color:         cfg.Color,
		Metrics:       pstrings.SortedSet(cfg.Dashboard.Metrics...),
		Actions:       pstrings.SortedSet(actions...),
		EncounterForm: cfg.EncounterForm,
	}
}
