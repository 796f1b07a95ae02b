package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ajharbinger/refibot/internal/docstore"
	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/loan"
	"github.com/ajharbinger/refibot/internal/metrics"
	"github.com/ajharbinger/refibot/internal/survey"
)

const (
	MsgDocumentNotFound = "User document not found."
	MsgNoLoanInfo       = "No loan information found. Please complete the survey."
)

// documentReader wraps the document store with upstream tracking and typed accessors
type documentReader struct {
	store   docstore.Store
	tracker *upstreamTracker
}

func (d *documentReader) get(ctx context.Context, userID string) (docstore.Document, error) {
	start := time.Now()
	doc, err := d.store.Get(ctx, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		d.tracker.observe(metrics.ServiceDocuments, "docstore.get", start, nil)
		return nil, err
	}
	d.tracker.observe(metrics.ServiceDocuments, "docstore.get", start, err)
	return doc, err
}

func (d *documentReader) create(ctx context.Context, userID string, doc docstore.Document) error {
	start := time.Now()
	err := d.store.Create(ctx, userID, doc)
	d.tracker.observe(metrics.ServiceDocuments, "docstore.create", start, err)
	return err
}

func (d *documentReader) update(ctx context.Context, userID string, fields docstore.Document) error {
	start := time.Now()
	err := d.store.Update(ctx, userID, fields)
	d.tracker.observe(metrics.ServiceDocuments, "docstore.update", start, err)
	return err
}

// surveyData decodes the stored survey, returning nil when none has been submitted
func surveyData(doc docstore.Document) (*survey.FormData, error) {
	raw, ok := doc["surveyData"]
	if !ok || raw == nil {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var form survey.FormData
	if err := json.Unmarshal(data, &form); err != nil {
		return nil, err
	}
	return &form, nil
}

// loanInfo loads and validates the borrower's stored loan
func (d *documentReader) loanInfo(ctx context.Context, userID string) (*loan.Info, *survey.FormData, error) {
	doc, err := d.get(ctx, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil, errors.NotFound(MsgDocumentNotFound, err)
	}
	if err != nil {
		return nil, nil, err
	}

	form, err := surveyData(doc)
	if err != nil {
		return nil, nil, errors.ValidationError(MsgNoLoanInfo, err)
	}
	if form == nil || form.LoanInfo == nil {
		return nil, nil, errors.NotFound(MsgNoLoanInfo, nil)
	}
	if err := survey.Validate(form.LoanInfo); err != nil {
		return nil, nil, errors.ValidationError(MsgNoLoanInfo, err)
	}
	return form.LoanInfo, form, nil
}
