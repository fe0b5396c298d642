// Package specialty maps a clinical specialty to the dashboard configuration
// its staff see. The catalog is built once and never mutated; reloading means
// building a new Catalog and swapping it in through a Registry.
package specialty

import (
	"slices"
)

// FieldType is the input kind of an encounter-form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldTextarea FieldType = "textarea"
	FieldCheckbox FieldType = "checkbox"
	FieldDate     FieldType = "date"
)

func (t FieldType) IsValid() bool {
	switch t {
	case FieldText, FieldNumber, FieldSelect, FieldTextarea, FieldCheckbox, FieldDate:
		return true
	}
	return false
}

type Field struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
	Unit     string    `json:"unit,omitempty"`
}

type FormStep struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// EncounterForm is an ordered list of steps, each an ordered list of fields.
type EncounterForm struct {
	Steps []FormStep `json:"steps"`
}

// DashboardView lists enabled metric and action keys, sorted and unique.
type DashboardView struct {
	Metrics []string `json:"metrics"`
	Actions []string `json:"actions"`
}

func (v DashboardView) HasAction(action string) bool {
	_, found := slices.BinarySearch(v.Actions, action)
	return found
}

func (v DashboardView) HasMetric(metric string) bool {
	_, found := slices.BinarySearch(v.Metrics, metric)
	return found
}

// Config is a catalog entry. Name is empty for the fail-closed default.
type Config struct {
	Name          string         `json:"name"`
	Code          string         `json:"code"`
	Department    string         `json:"department"`
	Description   string         `json:"description"`
	Color         string         `json:"color"`
	Dashboard     DashboardView  `json:"dashboard"`
	EncounterForm *EncounterForm `json:"encounter_form,omitempty"`
}

// IsKnown is false for the fail-closed default.
func (c Config) IsKnown() bool {
	return c.Name != ""
}

// Unknown is the fail-closed configuration: no metrics, no actions, no form.
func Unknown() Config {
	return Config{Dashboard: DashboardView{Metrics: []string{}, Actions: []string{}}}
}

// clone deep-copies so callers can never reach catalog internals.
func (c Config) clone() Config {
	cp := c
	cp.Dashboard.Metrics = slices.Clone(c.Dashboard.Metrics)
	cp.Dashboard.Actions = slices.Clone(c.Dashboard.Actions)
	if c.EncounterForm != nil {
		form := EncounterForm{Steps: make([]FormStep, len(c.EncounterForm.Steps))}
		for i, step := range c.EncounterForm.Steps {
			fields := make([]Field, len(step.Fields))
			for j, f := range step.Fields {
				f.Options = slices.Clone(f.Options)
				fields[j] = f
			}
			form.Steps[i] = FormStep{Title: step.Title, Fields: fields}
		}
		cp.EncounterForm = &form
	}
	return cp
}
