package specialty

// Metric keys shown on dashboards.
const (
	MetricPatientsToday      = "patients_today"
	MetricPendingEncounters  = "pending_encounters"
	MetricTriageQueue        = "triage_queue"
	MetricCriticalAlerts     = "critical_alerts"
	MetricBedOccupancy       = "bed_occupancy"
	MetricFollowUpsDue       = "follow_ups_due"
	MetricProceduresToday    = "procedures_today"
	MetricVaccinationsDue    = "vaccinations_due"
	MetricPrenatalControls   = "prenatal_controls"
	MetricMedicationRounds   = "medication_rounds"
	MetricAverageWaitMinutes = "average_wait_minutes"
)

// Specialty-only action keys. Role-level actions live in capabilities.go.
const (
	ActionRecordECG           = "record_ecg"
	ActionOrderEchocardiogram = "order_echocardiogram"
	ActionGrowthChart         = "growth_chart"
	ActionVaccinationRecord   = "vaccination_record"
	ActionOrderImaging        = "order_imaging"
	ActionCastAndSplint       = "cast_and_splint"
	ActionPrenatalControl     = "prenatal_control"
	ActionObstetricUltrasound = "obstetric_ultrasound"
	ActionChronicCarePlan     = "chronic_care_plan"
	ActionNeuroExam           = "neuro_exam"
	ActionOrderEEG            = "order_eeg"
	ActionSkinLesionMap       = "skin_lesion_map"
	ActionVisualAcuityTest    = "visual_acuity_test"
	ActionMentalStatusExam    = "mental_status_exam"
	ActionRiskAssessment      = "risk_assessment"
	ActionReferral            = "referral"
	ActionTriage              = "triage"
	ActionResuscitationLog    = "resuscitation_log"
	ActionVitalSigns          = "vital_signs"
	ActionMedicationRound     = "medication_round"
	ActionWoundCare           = "wound_care"
)

func vitals() FormStep {
	return FormStep{
		Title: "Signos vitales",
		Fields: []Field{
			{Key: "blood_pressure", Label: "Tensión arterial", Type: FieldText, Required: true, Unit: "mmHg"},
			{Key: "heart_rate", Label: "Frecuencia cardíaca", Type: FieldNumber, Required: true, Unit: "lpm"},
			{Key: "temperature", Label: "Temperatura", Type: FieldNumber, Unit: "°C"},
			{Key: "spo2", Label: "Saturación O2", Type: FieldNumber, Unit: "%"},
		},
	}
}

func assessment() FormStep {
	return FormStep{
		Title: "Evaluación",
		Fields: []Field{
			{Key: "diagnosis", Label: "Diagnóstico", Type: FieldTextarea, Required: true},
			{Key: "plan", Label: "Plan", Type: FieldTextarea, Required: true},
			{Key: "follow_up_date", Label: "Próximo control", Type: FieldDate},
		},
	}
}

// builtin is the versioned in-code catalog.
func builtin() []Config {
	return []Config{
		{
			Name: "Cardiología", Code: "CARD", Department: "Cardiología",
			Description: "Diagnóstico y tratamiento de enfermedades del corazón",
			Color:       "#d32f2f",
			Dashboard: DashboardView{
				Metrics: []string{MetricPatientsToday, MetricPendingEncounters, MetricCriticalAlerts},
				Actions: []string{ActionRecordECG, ActionOrderEchocardiogram, ActionRiskAssessment, ActionReferral},
			},
			EncounterForm: &EncounterForm{Steps: []FormStep{
				vitals(),
				{Title: "Evaluación cardiovascular", Fields: []Field{
					{Key: "chest_pain", Label: "Dolor torácico", Type: FieldCheckbox},
					{Key: "nyha_class", Label: "Clase NYHA", Type: FieldSelect, Required: true, Options: []string{"I", "II", "III", "IV"}},
					{Key: "ecg_findings", Label: "Hallazgos ECG", Type: FieldTextarea},
				}},
				assessment(),
			}},
		},
		{
			Name: "Pediatría", Code: "PED", Department: "Pediatría",
			Description: "Atención médica de recién nacidos, niños y adolescentes",
			Color:       "#1976d2",
			Dashboard: DashboardView{
				Metrics: []string{MetricPatientsToday, MetricVaccinationsDue, MetricFollowUpsDue},
				Actions: []string{ActionGrowthChart, ActionVaccinationRecord, ActionReferral},
			},
			EncounterForm: &EncounterForm{Steps: []FormStep{
				{Title: "Antropometría", Fields: []Field{
					{Key: "weight", Label: "Peso", Type: FieldNumber, Required: true, Unit: "kg"},
					{Key: "height", Label: "Talla", Type: FieldNumber, Required: true, Unit: "cm"},
					{Key: "head_circumference", Label: "Circunferencia cefálica", Type: FieldNumber, Unit: "cm"},
				}},
				{Title: "Inmunizaciones", Fields: []Field{
					{Key: "vaccines_up_to_date", Label: "Esquema completo", Type: FieldCheckbox},
					{Key: "last_vaccine_date", Label: "Última vacuna", Type: FieldDate},
				}},
				assessment(),
			}},
		},
		{
			Name: "Traumatología", Code: "TRAU", Department: "Traumatología",
			Description: "Lesiones del sistema musculoesquelético",
			Color:       "#f57c00",
			Dashboard: DashboardView{
				Metrics: []string{MetricPatientsToday, MetricProceduresToday},
				Actions: []string{ActionOrderImaging, ActionCastAndSplint, ActionReferral},
			},
			EncounterForm: &EncounterForm{Steps: []FormStep{
				{Title: "Lesión", Fields: []Field{
					{Key: "injury_site", Label: "Localización", Type: FieldText, Required: true},
					{Key: "mechanism", Label: "Mecanismo", Type: FieldSelect, Required: true, Options: []string{"caída", "deportivo", "tránsito", "laboral", "otro"}},
					{Key: "pain_scale", Label: "Escala de dolor", Type: FieldNumber, Unit: "0-10"},
				}},
				assessment(),
			}},
		},
		{
			Name: "Ginecología", Code: "GIN", Department: "Ginecología y Obstetricia",
			Description: "Salud reproductiva y control prenatal",
			Color:       "#c2185b",
			Dashboard: DashboardView{
				Metrics: []string{MetricPatientsToday, MetricPrenatalControls},
				Actions: []string{ActionPrenatalControl, ActionObstetricUltrasound, ActionReferral},
			},
			EncounterForm: &EncounterForm{Steps: []FormStep{
				{Title: "Antecedentes obstétricos", Fields: []Field{
					{Key: "last_menstrual_period", Label: "FUM", Type: FieldDate},
					{Key: "pregnancies", Label: "Gestas", Type: FieldNumber},
					{Key: "currently_pregnant", Label: "Embarazo actual", Type: FieldCheckbox},
				}},
				assessment(),
			}},
		},
		{
			Name: "Medicina Interna", Code: "MI", Department: "Medicina Interna",
			Description: "Atención integral del adulto con patologías complejas",
			Color:       "#388e3c",
			Dashboard: DashboardView{
				Metrics: []string{MetricPatientsToday, MetricBedOccupancy, MetricFollowUpsDue},
				Actions: []string{ActionChronicCarePlan, ActionRiskAssessment, ActionReferral},
			},
		},
		{
			Name: "Neurología", Code: "NEUR", Department: "Neurología",
			Description: "Trastornos del sistema nervioso",
			Color:       "#7b1fa2",
			Dashboard: DashboardView{
				Metrics: []string{MetricPatientsToday, MetricFollowUpsDue},
				Actions: []string{ActionNeuroExam, ActionOrderEEG, ActionOrderImaging, ActionReferral},
			},
			EncounterForm: &EncounterForm{Steps: []FormStep{
				{Title: "Examen neurológico", Fields: []Field{
					{Key: "glasgow", Label: "Escala de Glasgow", Type: FieldNumber, Required: true, Unit: "3-15"},
					{Key: "focal_deficit", Label: "Déficit focal", Type: FieldCheckbox},
					{Key: "reflexes", Label: "Reflejos", Type: FieldSelect, Options: []string{"normales", "aumentados", "disminuidos", "ausentes"}},
				}},
				assessment(),
			}},
		},
		{
			Name: "Dermatología", Code: "DERM", Department: "Dermatología",
			Description: "Enfermedades de la piel, pelo y uñas",
			Color:       "#8d6e63",
			Dashboard: DashboardView{
				Metrics: []string{MetricPatientsToday, MetricProceduresToday},
				Actions: []string{ActionSkinLesionMap, ActionReferral},
			},
		},
		{
			Name: "Oftalmología", Code: "OFT", Department: "Oftalmología",
			Description: "Salud visual y enfermedades oculares",
			Color:       "#0097a7",
			Dashboard: DashboardView{
				Metrics: []string{MetricPatientsToday, MetricProceduresToday},
				Actions: []string{ActionVisualAcuityTest, ActionReferral},
			},
			EncounterForm: &EncounterForm{Steps: []FormStep{
				{Title: "Agudeza visual", Fields: []Field{
					{Key: "va_right", Label: "Ojo derecho", Type: FieldText, Required: true},
					{Key: "va_left", Label: "Ojo izquierdo", Type: FieldText, Required: true},
					{Key: "iop", Label: "Presión intraocular", Type: FieldNumber, Unit: "mmHg"},
				}},
				assessment(),
			}},
		},
		{
			Name: "Psiquiatría", Code: "PSIQ", Department: "Salud Mental",
			Description: "Diagnóstico y tratamiento de trastornos mentales",
			Color:       "#5d4037",
			Dashboard: DashboardView{
				Metrics: []string{MetricPatientsToday, MetricFollowUpsDue},
				Actions: []string{ActionMentalStatusExam, ActionRiskAssessment, ActionReferral},
			},
		},
		{
			Name: "Medicina General", Code: "MG", Department: "Consulta Externa",
			Description: "Atención primaria y consulta general",
			Color:       "#607d8b",
			Dashboard: DashboardView{
				Metrics: []string{MetricPatientsToday, MetricPendingEncounters, MetricAverageWaitMinutes},
				Actions: []string{ActionReferral},
			},
			EncounterForm: &EncounterForm{Steps: []FormStep{vitals(), assessment()}},
		},
		{
			Name: "Emergencias", Code: "EMER", Department: "Emergencias",
			Description: "Atención de urgencias y pacientes críticos",
			Color:       "#b71c1c",
			Dashboard: DashboardView{
				Metrics: []string{MetricTriageQueue, MetricCriticalAlerts, MetricBedOccupancy, MetricAverageWaitMinutes},
				Actions: []string{ActionTriage, ActionResuscitationLog, ActionOrderImaging, ActionReferral},
			},
			EncounterForm: &EncounterForm{Steps: []FormStep{
				{Title: "Triaje", Fields: []Field{
					{Key: "triage_level", Label: "Nivel de triaje", Type: FieldSelect, Required: true, Options: []string{"I", "II", "III", "IV", "V"}},
					{Key: "chief_complaint", Label: "Motivo de consulta", Type: FieldTextarea, Required: true},
				}},
				vitals(),
				assessment(),
			}},
		},
		{
			Name: "Enfermería", Code: "ENF", Department: "Enfermería",
			Description: "Cuidados de enfermería y administración de medicamentos",
			Color:       "#00897b",
			Dashboard: DashboardView{
				Metrics: []string{MetricMedicationRounds, MetricBedOccupancy},
				Actions: []string{ActionVitalSigns, ActionMedicationRound, ActionWoundCare},
			},
			EncounterForm: &EncounterForm{Steps: []FormStep{
				vitals(),
				{Title: "Cuidados", Fields: []Field{
					{Key: "medication_given", Label: "Medicación administrada", Type: FieldCheckbox},
					{Key: "notes", Label: "Observaciones", Type: FieldTextarea},
				}},
			}},
		},
	}
}
