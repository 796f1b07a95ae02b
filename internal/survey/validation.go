package survey

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ajharbinger/refibot/internal/errors"
)

var monthYearPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{4}$`)

var validate = mustValidator()

func mustValidator() *validator.Validate {
	v, err := newValidator()
	if err != nil {
		panic(fmt.Sprintf("survey: %v", err))
	}
	return v
}

func newValidator() (*validator.Validate, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	err := v.RegisterValidation("monthyear", func(fl validator.FieldLevel) bool {
		return monthYearPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register monthyear rule: %w", err)
	}
	return v, nil
}

// fieldMessages are the messages shown under each form field
var fieldMessages = map[string]string{
	"firstName":         "First name must be at least 2 characters",
	"lastName":          "Last name must be at least 2 characters",
	"email":             "Please enter a valid email address",
	"phone":             "Please enter a valid 10-digit phone number",
	"address":           "Please enter a valid address",
	"dateOfBirth":       "Please enter a valid date (YYYY-MM-DD)",
	"education":         "Please select your education level",
	"school":            "Please enter your school name",
	"enrollmentStatus":  "Please select your enrollment status",
	"graduationYear":    "Please enter a valid date in MM/YYYY format",
	"loanType":          "Please select a loan type",
	"loanAmount":        "Loan amount must be at least $1,000",
	"interestRate":      "Interest rate must be between 0 and 100",
	"loanTerm":          "Loan term must be at least 1 year",
	"currentLender":     "Please enter your current lender",
	"annualIncome":      "Annual income must be greater than 0",
	"monthlyDebt":       "Monthly debt payments cannot be negative",
	"creditScore":       "Credit score must be between 300 and 850",
	"bankruptcyHistory": "Please indicate your bankruptcy history",
	"cosignerAvailable": "Please indicate whether a cosigner is available",
}

// FieldError is a single failed rule, keyed by the JSON field name
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is returned for a step that fails its rules
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// Validate checks a step record. Rule failures come back as an AppError wrapping
// ValidationErrors.
func Validate(step interface{}) error {
	err := validate.Struct(step)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.AsTarget(err, &verrs) {
		return errors.InternalError("Unable to validate form", err)
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("failed %s rule", fe.Tag())
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return errors.ValidationError("Please correct the highlighted fields", out)
}

// FieldErrors extracts the per-field failures from an error returned by Validate
func FieldErrors(err error) ValidationErrors {
	var out ValidationErrors
	if errors.AsTarget(err, &out) {
		return out
	}
	return nil
}
