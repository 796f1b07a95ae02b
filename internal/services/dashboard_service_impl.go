package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/loan"
	"github.com/ajharbinger/refibot/internal/session"
)

// LoanOverview is the stored loan with its computed monthly payment
type LoanOverview struct {
	DisplayName    string          `json:"displayName,omitempty"`
	LoanInfo       loan.Info       `json:"loanInfo"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
}

type dashboardServiceImpl struct {
	docs *documentReader
}

func newDashboardService(docs *documentReader) DashboardService {
	return &dashboardServiceImpl{docs: docs}
}

// Overview loads the borrower's loan from the user document
func (s *dashboardServiceImpl) Overview(ctx context.Context, sess *session.Session) (*LoanOverview, error) {
	info, _, err := s.docs.loanInfo(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	payment, err := info.MonthlyPayment()
	if err != nil {
		return nil, errors.ValidationError(MsgNoLoanInfo, err)
	}

	return &LoanOverview{
		DisplayName:    sess.DisplayName,
		LoanInfo:       *info,
		MonthlyPayment: payment,
	}, nil
}
