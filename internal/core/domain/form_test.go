package domain

import "testing"

func TestFields(t *testing.T) {
	fields := Fields()
	if len(fields) != 18 {
		t.Fatalf("len(Fields()) = %d, want 18", len(fields))
	}
	seen := make(map[Field]bool)
	for _, f := range fields {
		if seen[f] {
			t.Errorf("duplicate field %q", f)
		}
		seen[f] = true
		if !f.Valid() {
			t.Errorf("%q.Valid() = false", f)
		}
	}
	if Field("nickname").Valid() {
		t.Error("unknown field reported valid")
	}
}

func TestStepFields(t *testing.T) {
	tests := []struct {
		step  int
		first Field
		count int
	}{
		{step: 1, first: FieldName, count: 10},
		{step: 2, first: FieldMaritalStatus, count: 5},
		{step: 3, first: FieldFinancialSituation, count: 3},
		{step: 0, first: FieldName, count: 10},
		{step: 9, first: FieldFinancialSituation, count: 3},
	}
	for _, tt := range tests {
		got := StepFields(tt.step)
		if len(got) != tt.count || got[0] != tt.first {
			t.Errorf("StepFields(%d) = %v, want %d fields starting with %q", tt.step, got, tt.count, tt.first)
		}
	}

	// Callers must not be able to mutate the shared table.
	StepFields(1)[0] = "mutated"
	if StepFields(1)[0] != FieldName {
		t.Error("StepFields returned a shared slice")
	}
}

func TestFormData_IsBlank(t *testing.T) {
	tests := []struct {
		name string
		form FormData
		want bool
	}{
		{name: "empty", form: Empty(), want: true},
		{name: "whitespace only", form: FormData{Name: "   ", City: "\t"}, want: true},
		{name: "text value", form: FormData{Name: "A"}, want: false},
		{name: "dependents", form: FormData{Dependents: 2}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.form.IsBlank(); got != tt.want {
				t.Errorf("IsBlank() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormData_Completion(t *testing.T) {
	tests := []struct {
		name string
		form FormData
		want int
	}{
		{name: "empty", form: Empty(), want: 0},
		{name: "dependents do not count", form: FormData{Dependents: 3}, want: 0},
		{name: "one field", form: FormData{Name: "Ali"}, want: 6},
		{name: "blank ignored", form: FormData{Name: "Ali", City: "  "}, want: 6},
		{name: "two fields", form: FormData{Name: "Ali", City: "Dubai"}, want: 12},
		{name: "complete", form: validForm(), want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.form.Completion(); got != tt.want {
				t.Errorf("Completion() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormData_HasData(t *testing.T) {
	if Empty().HasData() {
		t.Error("empty form has data")
	}
	if (FormData{Dependents: 1}).HasData() {
		t.Error("dependents alone should not count as data")
	}
	if !(FormData{Email: "a@b.co"}).HasData() {
		t.Error("HasData() = false with email set")
	}
}

func TestFormData_GetText(t *testing.T) {
	form := FormData{Name: "Ali", Dependents: 4}
	if got := form.Get(FieldName); got != "Ali" {
		t.Errorf("Get(name) = %v", got)
	}
	if got := form.Get(FieldDependents); got != 4 {
		t.Errorf("Get(dependents) = %v", got)
	}
	if got := form.Get("unknown"); got != nil {
		t.Errorf("Get(unknown) = %v, want nil", got)
	}
	if got := form.Text(FieldDependents); got != "4" {
		t.Errorf("Text(dependents) = %q, want \"4\"", got)
	}
}

func TestFormData_TrimNarrative(t *testing.T) {
	form := FormData{Name: " Ali ", FinancialSituation: "  tight budget  ", ReasonForApplying: "\nhelp\n"}
	got := form.TrimNarrative()
	if got.FinancialSituation != "tight budget" || got.ReasonForApplying != "help" {
		t.Errorf("TrimNarrative() = %+v", got)
	}
	if got.Name != " Ali " {
		t.Error("TrimNarrative() should leave non-narrative fields untouched")
	}
	if form.FinancialSituation != "  tight budget  " {
		t.Error("TrimNarrative() modified the receiver")
	}
}

func TestClampStep(t *testing.T) {
	tests := map[int]int{-4: 1, 0: 1, 1: 1, 2: 2, 3: 3, 4: 3, 100: 3}
	for in, want := range tests {
		if got := ClampStep(in); got != want {
			t.Errorf("ClampStep(%d) = %d, want %d", in, got, want)
		}
	}
}

// validForm returns a form that passes every validation rule.
func validForm() FormData {
	return FormData{
		Name:                    "Fatima Ali",
		NationalID:              "1234567890123",
		DateOfBirth:             "1990-05-17",
		Gender:                  "female",
		Address:                 "12 Palm Street, Block 4",
		City:                    "Dubai",
		State:                   "Dubai",
		Country:                 "ae",
		Phone:                   "+971501234567",
		Email:                   "fatima@example.com",
		MaritalStatus:           "married",
		Dependents:              2,
		EmploymentStatus:        "unemployed",
		MonthlyIncome:           "1500.50",
		HousingStatus:           "rented",
		FinancialSituation:      "Savings are nearly exhausted after job loss.",
		EmploymentCircumstances: "Laid off in March, actively applying for roles.",
		ReasonForApplying:       "Need support to cover rent and school fees.",
	}
}
