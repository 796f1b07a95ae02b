// Package loan holds the borrower's current loan record and the payment arithmetic shown on
// the dashboard and fed to the assistant.
package loan

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Info is the loan-information survey step as stored in the user document
type Info struct {
	LoanType      string  `json:"loanType" validate:"required,oneof=federal private mixed"`
	LoanAmount    float64 `json:"loanAmount" validate:"gte=1000"`
	InterestRate  float64 `json:"interestRate" validate:"gte=0,lte=100"`
	LoanTerm      float64 `json:"loanTerm" validate:"gte=1"`
	CurrentLender string  `json:"currentLender" validate:"required,min=2"`
}

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// MonthlyPayment returns the fixed amortized monthly payment rounded to cents.
// A zero rate spreads the principal evenly over the term.
func MonthlyPayment(amount, annualRatePct, termYears float64) (decimal.Decimal, error) {
	if amount < 0 || annualRatePct < 0 || math.IsNaN(amount) || math.IsNaN(annualRatePct) {
		return decimal.Zero, fmt.Errorf("invalid loan amount %v or rate %v", amount, annualRatePct)
	}
	n := int64(math.Round(termYears * 12))
	if n <= 0 {
		return decimal.Zero, fmt.Errorf("invalid loan term %v", termYears)
	}

	principal := decimal.NewFromFloat(amount)
	payments := decimal.NewFromInt(n)
	if annualRatePct == 0 {
		return principal.Div(payments).Round(2), nil
	}

	r := decimal.NewFromFloat(annualRatePct).Div(hundred).Div(twelve)
	growth := decimal.NewFromInt(1).Add(r).Pow(payments)
	payment := principal.Mul(r).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
	return payment.Round(2), nil
}

// MonthlyPayment of the stored loan
func (i Info) MonthlyPayment() (decimal.Decimal, error) {
	return MonthlyPayment(i.LoanAmount, i.InterestRate, i.LoanTerm)
}
