// Package survey holds the four-step refinancing intake form and its validation rules.
package survey

import (
	"github.com/ajharbinger/refibot/internal/loan"
)

// Step numbers, in the order the borrower fills them in
const (
	StepPersonalInfo = iota + 1
	StepEducationEmployment
	StepLoanInfo
	StepFinancialDetails

	StepCount = StepFinancialDetails
)

var stepNames = map[int]string{
	StepPersonalInfo:        "Personal Info",
	StepEducationEmployment: "Education",
	StepLoanInfo:            "Loan Information",
	StepFinancialDetails:    "Financial Details",
}

// StepName returns the display name of a step, or "" for an unknown step
func StepName(step int) string {
	return stepNames[step]
}

type PersonalInfo struct {
	FirstName         string `json:"firstName" validate:"required,min=2"`
	LastName          string `json:"lastName" validate:"required,min=2"`
	Email             string `json:"email" validate:"required,email"`
	Phone             string `json:"phone" validate:"required,len=10,numeric"`
	Address           string `json:"address" validate:"required,min=5"`
	DateOfBirth       string `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	SSN               string `json:"ssn,omitempty"`
	CitizenshipStatus string `json:"citizenshipStatus,omitempty"`
}

type EducationEmployment struct {
	Education        string `json:"education" validate:"required,oneof=high-school associates bachelors masters doctorate"`
	School           string `json:"school" validate:"required,min=2"`
	EnrollmentStatus string `json:"enrollmentStatus" validate:"required,oneof=full-time half-time less-than-half"`
	GraduationYear   string `json:"graduationYear" validate:"required,monthyear"`
}

// LoanInfo is stored under surveyData.loanInfo and read back by the dashboard
type LoanInfo = loan.Info

type FinancialDetails struct {
	AnnualIncome      float64 `json:"annualIncome" validate:"gte=1"`
	MonthlyDebt       float64 `json:"monthlyDebt" validate:"gte=0"`
	CreditScore       int     `json:"creditScore" validate:"gte=300,lte=850"`
	BankruptcyHistory *bool   `json:"bankruptcyHistory" validate:"required"`
	CosignerAvailable *bool   `json:"cosignerAvailable" validate:"required"`
}

// FormData is the aggregate persisted verbatim as surveyData on submit
type FormData struct {
	PersonalInfo        *PersonalInfo        `json:"personalInfo,omitempty"`
	EducationEmployment *EducationEmployment `json:"educationEmployment,omitempty"`
	LoanInfo            *LoanInfo            `json:"loanInfo,omitempty"`
	FinancialDetails    *FinancialDetails    `json:"financialDetails,omitempty"`
}
