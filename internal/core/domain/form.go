package domain

import (
	"strconv"
	"strings"
)

// Field names a single answer in the application form.
// Values match the JSON keys used in the persisted envelope.
type Field string

// Personal information (step 1).
const (
	FieldName        Field = "name"
	FieldNationalID  Field = "nationalId"
	FieldDateOfBirth Field = "dateOfBirth"
	FieldGender      Field = "gender"
	FieldAddress     Field = "address"
	FieldCity        Field = "city"
	FieldState       Field = "state"
	FieldCountry     Field = "country"
	FieldPhone       Field = "phone"
	FieldEmail       Field = "email"
)

// Family and financial information (step 2).
const (
	FieldMaritalStatus    Field = "maritalStatus"
	FieldDependents       Field = "dependents"
	FieldEmploymentStatus Field = "employmentStatus"
	FieldMonthlyIncome    Field = "monthlyIncome"
	FieldHousingStatus    Field = "housingStatus"
)

// Situation descriptions (step 3).
const (
	FieldFinancialSituation      Field = "financialSituation"
	FieldEmploymentCircumstances Field = "employmentCircumstances"
	FieldReasonForApplying       Field = "reasonForApplying"
)

var stepFields = [MaxStep][]Field{
	{FieldName, FieldNationalID, FieldDateOfBirth, FieldGender, FieldAddress,
		FieldCity, FieldState, FieldCountry, FieldPhone, FieldEmail},
	{FieldMaritalStatus, FieldDependents, FieldEmploymentStatus, FieldMonthlyIncome, FieldHousingStatus},
	{FieldFinancialSituation, FieldEmploymentCircumstances, FieldReasonForApplying},
}

// AnswerableFields is the number of fields counted towards completion.
// dependents is excluded because zero is a complete answer.
const AnswerableFields = 17

// Fields returns every form field in display order.
func Fields() []Field {
	out := make([]Field, 0, 18)
	for _, group := range stepFields {
		out = append(out, group...)
	}
	return out
}

// StepFields returns the fields collected by the given step after clamping.
func StepFields(step int) []Field {
	group := stepFields[ClampStep(step)-1]
	out := make([]Field, len(group))
	copy(out, group)
	return out
}

// Valid reports whether f names a known field.
func (f Field) Valid() bool {
	for _, group := range stepFields {
		for _, known := range group {
			if known == f {
				return true
			}
		}
	}
	return false
}

// Narrative reports whether f is a free-text situation description.
func (f Field) Narrative() bool {
	switch f {
	case FieldFinancialSituation, FieldEmploymentCircumstances, FieldReasonForApplying:
		return true
	}
	return false
}

// FormData holds every answer of the wizard. The zero value is the
// canonical empty form.
type FormData struct {
	Name        string `json:"name" yaml:"name"`
	NationalID  string `json:"nationalId" yaml:"nationalId"`
	DateOfBirth string `json:"dateOfBirth" yaml:"dateOfBirth"`
	Gender      string `json:"gender" yaml:"gender"`
	Address     string `json:"address" yaml:"address"`
	City        string `json:"city" yaml:"city"`
	State       string `json:"state" yaml:"state"`
	Country     string `json:"country" yaml:"country"`
	Phone       string `json:"phone" yaml:"phone"`
	Email       string `json:"email" yaml:"email"`

	MaritalStatus    string `json:"maritalStatus" yaml:"maritalStatus"`
	Dependents       int    `json:"dependents" yaml:"dependents"`
	EmploymentStatus string `json:"employmentStatus" yaml:"employmentStatus"`
	MonthlyIncome    string `json:"monthlyIncome" yaml:"monthlyIncome"`
	HousingStatus    string `json:"housingStatus" yaml:"housingStatus"`

	FinancialSituation      string `json:"financialSituation" yaml:"financialSituation"`
	EmploymentCircumstances string `json:"employmentCircumstances" yaml:"employmentCircumstances"`
	ReasonForApplying       string `json:"reasonForApplying" yaml:"reasonForApplying"`
}

// Empty returns the canonical empty form.
func Empty() FormData {
	return FormData{}
}

// text returns a pointer to the string backing f, or nil for dependents
// and unknown fields.
func (d *FormData) text(f Field) *string {
	switch f {
	case FieldName:
		return &d.Name
	case FieldNationalID:
		return &d.NationalID
	case FieldDateOfBirth:
		return &d.DateOfBirth
	case FieldGender:
		return &d.Gender
	case FieldAddress:
		return &d.Address
	case FieldCity:
		return &d.City
	case FieldState:
		return &d.State
	case FieldCountry:
		return &d.Country
	case FieldPhone:
		return &d.Phone
	case FieldEmail:
		return &d.Email
	case FieldMaritalStatus:
		return &d.MaritalStatus
	case FieldEmploymentStatus:
		return &d.EmploymentStatus
	case FieldMonthlyIncome:
		return &d.MonthlyIncome
	case FieldHousingStatus:
		return &d.HousingStatus
	case FieldFinancialSituation:
		return &d.FinancialSituation
	case FieldEmploymentCircumstances:
		return &d.EmploymentCircumstances
	case FieldReasonForApplying:
		return &d.ReasonForApplying
	}
	return nil
}

// Get returns the value of f as a string or int. Unknown fields yield nil.
func (d FormData) Get(f Field) any {
	if f == FieldDependents {
		return d.Dependents
	}
	if p := d.text(f); p != nil {
		return *p
	}
	return nil
}

// Text returns the string value of f, formatting dependents as decimal.
func (d FormData) Text(f Field) string {
	switch v := d.Get(f).(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

// IsBlank reports whether every field is empty, whitespace or zero.
// A blank form at step 1 is the reset sentinel and is never persisted.
func (d FormData) IsBlank() bool {
	if d.Dependents != 0 {
		return false
	}
	for _, f := range Fields() {
		if p := d.text(f); p != nil && strings.TrimSpace(*p) != "" {
			return false
		}
	}
	return true
}

// HasData reports whether any text field holds a non-blank answer.
func (d FormData) HasData() bool {
	return d.filled() > 0
}

// Completion returns the percentage of answerable fields that are filled.
func (d FormData) Completion() int {
	filled := d.filled()
	return (filled*100 + AnswerableFields/2) / AnswerableFields
}

func (d FormData) filled() int {
	n := 0
	for _, f := range Fields() {
		if p := d.text(f); p != nil && strings.TrimSpace(*p) != "" {
			n++
		}
	}
	return n
}

// TrimNarrative returns a copy with surrounding whitespace removed from
// the situation descriptions.
func (d FormData) TrimNarrative() FormData {
	d.FinancialSituation = strings.TrimSpace(d.FinancialSituation)
	d.EmploymentCircumstances = strings.TrimSpace(d.EmploymentCircumstances)
	d.ReasonForApplying = strings.TrimSpace(d.ReasonForApplying)
	return d
}
