package domain

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation limits.
const (
	NameMinLen        = 2
	NameMaxLen        = 50
	AddressMinLen     = 10
	AddressMaxLen     = 200
	RegionMinLen      = 2
	RegionMaxLen      = 50
	PhoneMinLen       = 10
	PhoneMaxLen       = 15
	EmailMaxLen       = 100
	NarrativeMinLen   = 20
	NarrativeMaxLen   = 1000
	DependentsMax     = 20
	MonthlyIncomeMax  = 1_000_000
	MinApplicantAge   = 18
	MaxApplicantAge   = 120
	dateOfBirthLayout = "2006-01-02"
)

var (
	phonePattern      = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nationalIDPattern = regexp.MustCompile(`^[0-9]{13}$`)
	namePattern       = regexp.MustCompile(`^[a-zA-Z\s\x{0600}-\x{06FF}]+$`)
	incomePattern     = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

	earliestBirthDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Allowed option values.
var (
	GenderOptions           = []string{"male", "female", "other"}
	CountryOptions          = []string{"ae", "us", "pk", "uk", "ca", "in"}
	MaritalStatusOptions    = []string{"single", "married", "divorced", "widowed"}
	EmploymentStatusOptions = []string{"employed", "unemployed", "student", "retired", "selfEmployed"}
	HousingStatusOptions    = []string{"owned", "rented", "livingWithFamily", "homeless"}
)

// FieldError describes a single failed rule.
type FieldError struct {
	Field   Field  `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

// ValidationErrors is the set of failures for a step or application.
type ValidationErrors []FieldError

// Error implements error.
func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = string(fe.Field) + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// Err returns nil when there are no failures, otherwise ErrValidation
// wrapping v.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return ErrValidation.WithDetails(v.Error()).WithCause(v)
}

// ValidateStep checks the fields collected by step. now anchors the age
// rules.
func ValidateStep(step int, form FormData, now time.Time) ValidationErrors {
	var errs ValidationErrors
	add := func(f Field, format string, args ...any) {
		errs = append(errs, FieldError{Field: f, Message: fmt.Sprintf(format, args...)})
	}

	switch ClampStep(step) {
	case 1:
		validatePersonal(form, now, add)
	case 2:
		validateFamilyFinancial(form, add)
	case 3:
		for _, f := range stepFields[2] {
			checkLength(f, strings.TrimSpace(form.Text(f)), NarrativeMinLen, NarrativeMaxLen, add)
		}
	}
	return errs
}

// ValidateApplication checks every step.
func ValidateApplication(form FormData, now time.Time) ValidationErrors {
	var errs ValidationErrors
	for step := MinStep; step <= MaxStep; step++ {
		errs = append(errs, ValidateStep(step, form, now)...)
	}
	return errs
}

type addFunc func(f Field, format string, args ...any)

func validatePersonal(form FormData, now time.Time, add addFunc) {
	if checkLength(FieldName, form.Name, NameMinLen, NameMaxLen, add) && !namePattern.MatchString(form.Name) {
		add(FieldName, "name can only contain letters and spaces")
	}

	if required(FieldNationalID, form.NationalID, add) && !nationalIDPattern.MatchString(form.NationalID) {
		add(FieldNationalID, "national ID must be exactly 13 digits")
	}

	if required(FieldDateOfBirth, form.DateOfBirth, add) {
		validateBirthDate(form.DateOfBirth, now, add)
	}

	oneOf(FieldGender, form.Gender, GenderOptions, add)
	checkLength(FieldAddress, form.Address, AddressMinLen, AddressMaxLen, add)
	checkLength(FieldCity, form.City, RegionMinLen, RegionMaxLen, add)
	checkLength(FieldState, form.State, RegionMinLen, RegionMaxLen, add)
	oneOf(FieldCountry, form.Country, CountryOptions, add)

	if required(FieldPhone, form.Phone, add) {
		phone := strings.ReplaceAll(form.Phone, " ", "")
		switch {
		case !phonePattern.MatchString(phone):
			add(FieldPhone, "please enter a valid phone number")
		case len(phone) < PhoneMinLen:
			add(FieldPhone, "must be at least %d characters", PhoneMinLen)
		case len(phone) > PhoneMaxLen:
			add(FieldPhone, "must be less than %d characters", PhoneMaxLen)
		}
	}

	if required(FieldEmail, form.Email, add) {
		if !emailPattern.MatchString(form.Email) {
			add(FieldEmail, "please enter a valid email address")
		} else if utf8.RuneCountInString(form.Email) > EmailMaxLen {
			add(FieldEmail, "must be less than %d characters", EmailMaxLen)
		}
	}
}

func validateBirthDate(value string, now time.Time, add addFunc) {
	dob, err := time.Parse(dateOfBirthLayout, strings.TrimSpace(value))
	if err != nil {
		add(FieldDateOfBirth, "date of birth must use YYYY-MM-DD")
		return
	}
	if dob.After(now) {
		add(FieldDateOfBirth, "date of birth cannot be in the future")
		return
	}
	if dob.Before(earliestBirthDate) {
		add(FieldDateOfBirth, "date of birth must be after 1900")
		return
	}

	age := AgeAt(dob, now)
	if age < MinApplicantAge {
		add(FieldDateOfBirth, "you must be at least %d years old", MinApplicantAge)
	} else if age > MaxApplicantAge {
		add(FieldDateOfBirth, "age cannot exceed %d years", MaxApplicantAge)
	}
}

// AgeAt returns the number of whole years between dob and now.
func AgeAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

func validateFamilyFinancial(form FormData, add addFunc) {
	oneOf(FieldMaritalStatus, form.MaritalStatus, MaritalStatusOptions, add)

	if form.Dependents < 0 {
		add(FieldDependents, "number of dependents cannot be negative")
	} else if form.Dependents > DependentsMax {
		add(FieldDependents, "number of dependents cannot exceed %d", DependentsMax)
	}

	oneOf(FieldEmploymentStatus, form.EmploymentStatus, EmploymentStatusOptions, add)

	if required(FieldMonthlyIncome, form.MonthlyIncome, add) {
		income := strings.TrimSpace(form.MonthlyIncome)
		if !incomePattern.MatchString(income) {
			add(FieldMonthlyIncome, "please enter a valid income amount")
		} else if v, err := strconv.ParseFloat(income, 64); err == nil && v > MonthlyIncomeMax {
			add(FieldMonthlyIncome, "monthly income seems too high")
		}
	}

	oneOf(FieldHousingStatus, form.HousingStatus, HousingStatusOptions, add)
}

func required(f Field, value string, add addFunc) bool {
	if strings.TrimSpace(value) == "" {
		add(f, "this field is required")
		return false
	}
	return true
}

// checkLength reports whether value passed both the required and length
// rules.
func checkLength(f Field, value string, minLen, maxLen int, add addFunc) bool {
	if !required(f, value, add) {
		return false
	}
	n := utf8.RuneCountInString(value)
	if n < minLen {
		add(f, "must be at least %d characters", minLen)
		return false
	}
	if n > maxLen {
		add(f, "must be less than %d characters", maxLen)
		return false
	}
	return true
}

func oneOf(f Field, value string, options []string, add addFunc) {
	if !required(f, value, add) {
		return
	}
	if !slices.Contains(options, value) {
		add(f, "please select a valid option")
	}
}
