package survey

import (
	"encoding/json"
	"fmt"

	"github.com/ajharbinger/refibot/internal/errors"
)

// Draft is the in-progress form carried in the borrower's session between steps
type Draft struct {
	Step int      `json:"step"`
	Data FormData `json:"data"`
}

// CurrentStep returns the step the borrower is on, starting at 1
func (d *Draft) CurrentStep() int {
	if d.Step < StepPersonalInfo {
		return StepPersonalInfo
	}
	return d.Step
}

// Advance decodes and validates the data for one of the first three steps, stores it and
// moves to the next step. step must be the current step.
func (d *Draft) Advance(step int, raw json.RawMessage) error {
	if step != d.CurrentStep() {
		return errors.InvalidInput(fmt.Sprintf("Expected step %d, got step %d", d.CurrentStep(), step), nil)
	}

	switch step {
	case StepPersonalInfo:
		var v PersonalInfo
		if err := decodeStep(raw, &v); err != nil {
			return err
		}
		d.Data.PersonalInfo = &v
	case StepEducationEmployment:
		var v EducationEmployment
		if err := decodeStep(raw, &v); err != nil {
			return err
		}
		d.Data.EducationEmployment = &v
	case StepLoanInfo:
		var v LoanInfo
		if err := decodeStep(raw, &v); err != nil {
			return err
		}
		d.Data.LoanInfo = &v
	case StepFinancialDetails:
		return errors.InvalidInput("The final step is sent with submit", nil)
	default:
		return errors.InvalidInput(fmt.Sprintf("Unknown survey step %d", step), nil)
	}

	d.Step = step + 1
	return nil
}

// Back returns to the previous step, never before the first
func (d *Draft) Back() {
	if step := d.CurrentStep(); step > StepPersonalInfo {
		d.Step = step - 1
	}
}

// Complete validates the financial details and returns the full form. The earlier steps
// must all have been stored.
func (d *Draft) Complete(raw json.RawMessage) (FormData, error) {
	if d.CurrentStep() != StepFinancialDetails ||
		d.Data.PersonalInfo == nil || d.Data.EducationEmployment == nil || d.Data.LoanInfo == nil {
		return FormData{}, errors.InvalidInput("Please complete the previous steps first", nil)
	}

	var fin FinancialDetails
	if err := decodeStep(raw, &fin); err != nil {
		return FormData{}, err
	}

	out := d.Data
	out.FinancialDetails = &fin
	return out, nil
}

// Reset clears the draft after a successful submit
func (d *Draft) Reset() {
	*d = Draft{}
}

func decodeStep(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return errors.InvalidInput("Step data is required", nil)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.InvalidInput("Invalid step data", err)
	}
	return Validate(dst)
}
