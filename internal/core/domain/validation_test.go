package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var validationNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func TestValidateApplication_Valid(t *testing.T) {
	if errs := ValidateApplication(validForm(), validationNow); len(errs) != 0 {
		t.Fatalf("ValidateApplication() = %v, want none", errs)
	}
}

func TestValidateStep_Empty(t *testing.T) {
	tests := []struct {
		step int
		want int
	}{
		{step: 1, want: 10},
		{step: 2, want: 4}, // dependents defaults to zero
		{step: 3, want: 3},
	}
	for _, tt := range tests {
		errs := ValidateStep(tt.step, Empty(), validationNow)
		if len(errs) != tt.want {
			t.Errorf("ValidateStep(%d, empty) = %d errors %v, want %d", tt.step, len(errs), errs, tt.want)
		}
		for _, fe := range errs {
			if fe.Message != "this field is required" {
				t.Errorf("step %d field %s message = %q", tt.step, fe.Field, fe.Message)
			}
		}
	}
}

func TestValidateStep_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FormData)
		field  Field
		msg    string
	}{
		{"short name", func(f *FormData) { f.Name = "A" }, FieldName, "at least 2"},
		{"digits in name", func(f *FormData) { f.Name = "Ali 2" }, FieldName, "letters and spaces"},
		{"national id length", func(f *FormData) { f.NationalID = "12345" }, FieldNationalID, "13 digits"},
		{"future birth", func(f *FormData) { f.DateOfBirth = "2030-01-01" }, FieldDateOfBirth, "future"},
		{"too young", func(f *FormData) { f.DateOfBirth = "2010-01-01" }, FieldDateOfBirth, "at least 18"},
		{"before 1900", func(f *FormData) { f.DateOfBirth = "1899-12-31" }, FieldDateOfBirth, "after 1900"},
		{"bad date", func(f *FormData) { f.DateOfBirth = "01/02/1990" }, FieldDateOfBirth, "YYYY-MM-DD"},
		{"gender option", func(f *FormData) { f.Gender = "unknown" }, FieldGender, "valid option"},
		{"short address", func(f *FormData) { f.Address = "Street" }, FieldAddress, "at least 10"},
		{"country option", func(f *FormData) { f.Country = "fr" }, FieldCountry, "valid option"},
		{"phone letters", func(f *FormData) { f.Phone = "+97150abc" }, FieldPhone, "valid phone"},
		{"short phone", func(f *FormData) { f.Phone = "12345" }, FieldPhone, "at least 10"},
		{"email", func(f *FormData) { f.Email = "not-an-email" }, FieldEmail, "valid email"},
		{"long email", func(f *FormData) { f.Email = strings.Repeat("a", 95) + "@x.com" }, FieldEmail, "less than 100"},
		{"negative dependents", func(f *FormData) { f.Dependents = -1 }, FieldDependents, "negative"},
		{"many dependents", func(f *FormData) { f.Dependents = 21 }, FieldDependents, "exceed 20"},
		{"income format", func(f *FormData) { f.MonthlyIncome = "12.345" }, FieldMonthlyIncome, "valid income"},
		{"income high", func(f *FormData) { f.MonthlyIncome = "1000001" }, FieldMonthlyIncome, "too high"},
		{"housing option", func(f *FormData) { f.HousingStatus = "boat" }, FieldHousingStatus, "valid option"},
		{"short narrative", func(f *FormData) { f.ReasonForApplying = "  need help  " }, FieldReasonForApplying, "at least 20"},
		{"long narrative", func(f *FormData) { f.FinancialSituation = strings.Repeat("x", 1001) }, FieldFinancialSituation, "less than 1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)
			errs := ValidateApplication(form, validationNow)
			if len(errs) != 1 {
				t.Fatalf("got %d errors %v, want exactly one", len(errs), errs)
			}
			if errs[0].Field != tt.field || !strings.Contains(errs[0].Message, tt.msg) {
				t.Errorf("got %s: %q, want %s containing %q", errs[0].Field, errs[0].Message, tt.field, tt.msg)
			}
		})
	}
}

func TestValidateStep_ArabicName(t *testing.T) {
	form := validForm()
	form.Name = "فاطمة علي"
	if errs := ValidateStep(1, form, validationNow); len(errs) != 0 {
		t.Errorf("ValidateStep() = %v, want Arabic name accepted", errs)
	}
}

func TestValidationErrors_Err(t *testing.T) {
	if err := ValidationErrors(nil).Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}

	errs := ValidateStep(3, Empty(), validationNow)
	err := errs.Err()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Err() = %v, want ErrValidation", err)
	}
	var fields ValidationErrors
	if !errors.As(err, &fields) || len(fields) != 3 {
		t.Errorf("errors.As() fields = %v", fields)
	}
}

func TestAgeAt(t *testing.T) {
	dob := time.Date(2008, 6, 2, 0, 0, 0, 0, time.UTC)
	if got := AgeAt(dob, validationNow); got != 17 {
		t.Errorf("AgeAt() day before birthday = %d, want 17", got)
	}
	if got := AgeAt(dob, validationNow.AddDate(0, 0, 1)); got != 18 {
		t.Errorf("AgeAt() on birthday = %d, want 18", got)
	}
}
