package services

import (
	"context"
	"strings"
	"time"

	"github.com/ajharbinger/refibot/internal/docstore"
	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/logger"
	"github.com/ajharbinger/refibot/internal/metrics"
	"github.com/ajharbinger/refibot/internal/offers"
	"github.com/ajharbinger/refibot/internal/quotes"
	"github.com/ajharbinger/refibot/internal/session"
	"github.com/ajharbinger/refibot/pkg/config"
)

// FetchOffersRequest asks for a fresh offer list. Zero fields are filled in from the
// borrower's submitted survey.
type FetchOffersRequest struct {
	LoanType    string  `json:"loan_type"`
	LoanAmount  float64 `json:"loan_amount"`
	CreditScore int     `json:"credit_score"`
	UseFallback bool    `json:"use_fallback"`
}

// OfferTable is the offers view as currently filtered and sorted
type OfferTable struct {
	Offers       []offers.NormalizedOffer            `json:"offers"`
	Sort         *offers.SortConfig                  `json:"sort"`
	Indicators   map[offers.SortKey]offers.Indicator `json:"indicators"`
	EligibleOnly bool                                `json:"eligible_only"`
	Source       string                              `json:"source,omitempty"`
	FetchedAt    *time.Time                          `json:"fetched_at,omitempty"`
	Total        int                                 `json:"total"`
}

type offerServiceImpl struct {
	docs        *documentReader
	sessions    session.Store
	quotes      QuoteClient
	ranker      *offers.Ranker
	useFallback bool
	tracker     *upstreamTracker
	log         logger.Logger
}

func newOfferService(deps Dependencies, docs *documentReader, tracker *upstreamTracker) OfferService {
	eligible := strings.Split(config.DefaultEligibleLenders, ",")
	useFallback := false
	if deps.Config != nil {
		eligible = deps.Config.GetEligibleLenders()
		useFallback = deps.Config.QuotesUseFallback
	}
	return &offerServiceImpl{
		docs:        docs,
		sessions:    deps.Sessions,
		quotes:      deps.Quotes,
		ranker:      offers.NewRanker(eligible),
		useFallback: useFallback,
		tracker:     tracker,
		log:         deps.Logger.With("component", "offers"),
	}
}

// Fetch retrieves offers from the quote endpoint, or the built-in table when asked for
// or when no endpoint is configured, and stores them in the session.
func (s *offerServiceImpl) Fetch(ctx context.Context, sess *session.Session, req *FetchOffersRequest) (*OfferTable, error) {
	if req == nil {
		req = &FetchOffersRequest{}
	}

	var (
		raw    []offers.LenderOffer
		source quotes.Source
	)
	if req.UseFallback || s.useFallback || s.quotes == nil || !s.quotes.Configured() {
		raw, source = quotes.Fallback(), quotes.SourceFallback
	} else {
		qr, err := s.quoteRequest(ctx, sess, req)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		raw, err = s.quotes.Fetch(ctx, qr)
		s.tracker.observe(metrics.ServiceQuotes, "quotes.fetch", start, err)
		if err != nil {
			s.log.Error("failed to fetch lender quotes", err, "user_id", sess.UserID)
			return nil, err
		}
		source = quotes.SourceLive
	}

	fetchedAt := time.Now().UTC()
	err := updateSession(ctx, s.sessions, sess, func(latest *session.Session) error {
		latest.Offers.Raw = raw
		latest.Offers.Source = string(source)
		latest.Offers.FetchedAt = fetchedAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	normalized := offers.Normalize(raw, func(o offers.LenderOffer, err error) {
		metrics.RequirementsParseFailures.Inc()
		s.log.Warn("could not parse lender requirements", "lender", o.Lender, "requirements", o.Requirements)
	})
	s.log.Info("offers fetched", "user_id", sess.UserID, "source", source, "count", len(raw))
	return s.table(sess, normalized), nil
}

// quoteRequest fills the request from the stored survey where the caller left fields empty
func (s *offerServiceImpl) quoteRequest(ctx context.Context, sess *session.Session, req *FetchOffersRequest) (quotes.Request, error) {
	qr := quotes.Request{LoanType: req.LoanType, LoanAmount: req.LoanAmount, CreditScore: req.CreditScore}
	if qr.LoanType == "" || qr.LoanAmount == 0 || qr.CreditScore == 0 {
		doc, err := s.docs.get(ctx, sess.UserID)
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return qr, err
		}
		if form, _ := surveyData(doc); form != nil {
			if form.LoanInfo != nil {
				if qr.LoanType == "" {
					qr.LoanType = form.LoanInfo.LoanType
				}
				if qr.LoanAmount == 0 {
					qr.LoanAmount = form.LoanInfo.LoanAmount
				}
			}
			if form.FinancialDetails != nil && qr.CreditScore == 0 {
				qr.CreditScore = form.FinancialDetails.CreditScore
			}
		}
	}
	if qr.LoanType == "" || qr.LoanAmount <= 0 {
		return qr, errors.InvalidInput("Loan type and amount are required to fetch offers", nil)
	}
	return qr, nil
}

func (s *offerServiceImpl) table(sess *session.Session, normalized []offers.NormalizedOffer) *OfferTable {
	view := s.ranker.View(normalized, &sess.Offers.View)
	t := &OfferTable{
		Offers:       view,
		Sort:         sess.Offers.View.ActiveSort(),
		Indicators:   sess.Offers.View.Indicators(),
		EligibleOnly: sess.Offers.View.EligibleOnly,
		Source:       sess.Offers.Source,
		Total:        len(normalized),
	}
	if !sess.Offers.FetchedAt.IsZero() {
		fetched := sess.Offers.FetchedAt
		t.FetchedAt = &fetched
	}
	return t
}

// Table returns the session's offers with its current filter and sort
func (s *offerServiceImpl) Table(sess *session.Session) *OfferTable {
	return s.table(sess, offers.Normalize(sess.Offers.Raw, nil))
}

// Sort selects a column, flipping direction when it is already the active ascending sort
func (s *offerServiceImpl) Sort(ctx context.Context, sess *session.Session, key offers.SortKey) (*OfferTable, error) {
	err := updateSession(ctx, s.sessions, sess, func(latest *session.Session) error {
		latest.Offers.View.RequestSort(key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Table(sess), nil
}

// Filter turns the eligible-lenders filter on or off
func (s *offerServiceImpl) Filter(ctx context.Context, sess *session.Session, eligibleOnly bool) (*OfferTable, error) {
	err := updateSession(ctx, s.sessions, sess, func(latest *session.Session) error {
		latest.Offers.View.SetEligibleOnly(eligibleOnly)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Table(sess), nil
}
