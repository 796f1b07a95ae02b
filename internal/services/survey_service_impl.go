package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ajharbinger/refibot/internal/docstore"
	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/logger"
	"github.com/ajharbinger/refibot/internal/metrics"
	"github.com/ajharbinger/refibot/internal/session"
	"github.com/ajharbinger/refibot/internal/survey"
)

// SurveyStatus describes where the borrower is in the intake form
type SurveyStatus struct {
	Step       int             `json:"step"`
	StepName   string          `json:"stepName"`
	TotalSteps int             `json:"totalSteps"`
	Completed  bool            `json:"completed"`
	Draft      survey.FormData `json:"draft"`
}

// surveyServiceImpl implements SurveyService
type surveyServiceImpl struct {
	docs     *documentReader
	sessions session.Store
	log      logger.Logger
}

// newSurveyService creates a new survey service implementation
func newSurveyService(deps Dependencies, docs *documentReader) SurveyService {
	return &surveyServiceImpl{
		docs:     docs,
		sessions: deps.Sessions,
		log:      deps.Logger.With("component", "survey"),
	}
}

func (s *surveyServiceImpl) status(sess *session.Session, completed bool) *SurveyStatus {
	step := sess.Survey.CurrentStep()
	return &SurveyStatus{
		Step:       step,
		StepName:   survey.StepName(step),
		TotalSteps: survey.StepCount,
		Completed:  completed,
		Draft:      sess.Survey.Data,
	}
}

// Status reports the current step and whether a survey was submitted before
func (s *surveyServiceImpl) Status(ctx context.Context, sess *session.Session) (*SurveyStatus, error) {
	doc, err := s.docs.get(ctx, sess.UserID)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}
	_, completed := doc["surveyData"]
	return s.status(sess, completed), nil
}

// SubmitStep validates and stores one of the first three steps in the session draft
func (s *surveyServiceImpl) SubmitStep(ctx context.Context, sess *session.Session, step int, data []byte) (*SurveyStatus, error) {
	err := updateSession(ctx, s.sessions, sess, func(latest *session.Session) error {
		return latest.Survey.Advance(step, json.RawMessage(data))
	})
	if err != nil {
		return nil, err
	}
	return s.status(sess, false), nil
}

// Previous moves the draft back one step
func (s *surveyServiceImpl) Previous(ctx context.Context, sess *session.Session) (*SurveyStatus, error) {
	err := updateSession(ctx, s.sessions, sess, func(latest *session.Session) error {
		latest.Survey.Back()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.status(sess, false), nil
}

// Submit validates the financial details and persists the whole form to the user document
func (s *surveyServiceImpl) Submit(ctx context.Context, sess *session.Session, data []byte) (*SurveyStatus, error) {
	form, err := sess.Survey.Complete(json.RawMessage(data))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.docs.get(ctx, sess.UserID)
	switch {
	case err == nil:
		err = s.docs.update(ctx, sess.UserID, docstore.Document{
			"surveyData":  form,
			"lastUpdated": now,
		})
		if err == nil {
			metrics.SurveySubmissions.WithLabelValues("update").Inc()
		}
	case errors.Is(err, docstore.ErrNotFound):
		err = s.docs.create(ctx, sess.UserID, docstore.Document{
			"userId":      sess.UserID,
			"email":       sess.Email,
			"surveyData":  form,
			"createdAt":   now,
			"lastUpdated": now,
		})
		if err == nil {
			metrics.SurveySubmissions.WithLabelValues("create").Inc()
		}
	}
	if err != nil {
		s.log.Error("failed to store survey", err, "user_id", sess.UserID)
		return nil, err
	}

	err = updateSession(ctx, s.sessions, sess, func(latest *session.Session) error {
		latest.Survey.Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("survey submitted", "user_id", sess.UserID)
	return s.status(sess, true), nil
}
