// Package offers turns raw lender quotes into ranked, display-ready refinancing options.
package offers

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// LenderOffer is a lender quote as received from the quote endpoint or the fallback table
type LenderOffer struct {
	Lender          string `json:"lender"`
	FixedAPRRange   string `json:"fixed_apr"`
	LoanTermRange   string `json:"loan_term"`
	LoanAmountRange string `json:"loan_amount"`
	Requirements    string `json:"requirements"`
}

// NormalizedOffer is a LenderOffer with numeric midpoints and parsed requirements
type NormalizedOffer struct {
	Lender          string   `json:"lender"`
	FixedAPRRange   string   `json:"fixed_apr"`
	LoanTermRange   string   `json:"loan_term"`
	LoanAmountRange string   `json:"loan_amount"`
	Requirements    []string `json:"requirements"`
	AverageAPR      float64  `json:"average_apr"`
	AverageTerm     float64  `json:"average_term"`
}

// MarshalJSON writes NaN averages as null
func (n NormalizedOffer) MarshalJSON() ([]byte, error) {
	type plain NormalizedOffer
	return json.Marshal(struct {
		plain
		AverageAPR  *float64 `json:"average_apr"`
		AverageTerm *float64 `json:"average_term"`
	}{plain(n), finite(n.AverageAPR), finite(n.AverageTerm)})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// AverageOfRange returns the midpoint of a "min-max" range. The result is finite or NaN:
// a side that is not a plain decimal number yields NaN.
func AverageOfRange(r string) float64 {
	minStr, maxStr, found := strings.Cut(r, "-")
	if !found {
		return math.NaN()
	}
	avg := (parseNumber(minStr) + parseNumber(maxStr)) / 2
	if math.IsInf(avg, 0) {
		return math.NaN()
	}
	return avg
}

// parseNumber accepts decimal notation only. ParseFloat alone would also take "inf",
// "NaN" and hex floats.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.IndexFunc(s, notDecimal) >= 0 {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

func notDecimal(r rune) bool {
	return !(r >= '0' && r <= '9') && r != '.' && r != '+' && r != 'e' && r != 'E'
}

// AverageAPR returns the APR midpoint of a "min-max%" range
func AverageAPR(fixedAPR string) float64 {
	return AverageOfRange(strings.Replace(fixedAPR, "%", "", 1))
}

// AverageTerm returns the term midpoint of a "min-max yrs" range
func AverageTerm(loanTerm string) float64 {
	return AverageOfRange(strings.Replace(loanTerm, " yrs", "", 1))
}

// ParseFailureFunc is told about every requirements string that could not be parsed
type ParseFailureFunc func(offer LenderOffer, err error)

// Normalize converts raw offers in order. onFailure may be nil.
func Normalize(raw []LenderOffer, onFailure ParseFailureFunc) []NormalizedOffer {
	out := make([]NormalizedOffer, 0, len(raw))
	for _, o := range raw {
		reqs, err := TryParseRequirements(o.Requirements)
		if err != nil {
			reqs = []string{o.Requirements}
			if onFailure != nil {
				onFailure(o, err)
			}
		}
		out = append(out, NormalizedOffer{
			Lender:          o.Lender,
			FixedAPRRange:   o.FixedAPRRange,
			LoanTermRange:   o.LoanTermRange,
			LoanAmountRange: o.LoanAmountRange,
			Requirements:    reqs,
			AverageAPR:      AverageAPR(o.FixedAPRRange),
			AverageTerm:     AverageTerm(o.LoanTermRange),
		})
	}
	return out
}
