package services

import (
	"context"
	"io"
	"time"

	"github.com/ajharbinger/refibot/internal/assistant"
	"github.com/ajharbinger/refibot/internal/auth"
	"github.com/ajharbinger/refibot/internal/docstore"
	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/health"
	"github.com/ajharbinger/refibot/internal/identity"
	"github.com/ajharbinger/refibot/internal/logger"
	"github.com/ajharbinger/refibot/internal/metrics"
	"github.com/ajharbinger/refibot/internal/models"
	"github.com/ajharbinger/refibot/internal/offers"
	"github.com/ajharbinger/refibot/internal/quotes"
	"github.com/ajharbinger/refibot/internal/session"
	"github.com/ajharbinger/refibot/pkg/config"
)

// Services contains all application services
type Services struct {
	Auth      AuthService
	Survey    SurveyService
	Dashboard DashboardService
	Chat      ChatService
	Offers    OfferService
	Health    *health.Registry
}

// AuthService signs users in and out and issues tokens bound to a session
type AuthService interface {
	SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	Logout(ctx context.Context, sess *session.Session) error
}

// SurveyService runs the four-step intake form
type SurveyService interface {
	Status(ctx context.Context, sess *session.Session) (*SurveyStatus, error)
	SubmitStep(ctx context.Context, sess *session.Session, step int, data []byte) (*SurveyStatus, error)
	Previous(ctx context.Context, sess *session.Session) (*SurveyStatus, error)
	Submit(ctx context.Context, sess *session.Session, data []byte) (*SurveyStatus, error)
}

// DashboardService reads the stored loan back for display
type DashboardService interface {
	Overview(ctx context.Context, sess *session.Session) (*LoanOverview, error)
}

// ChatService relays borrower questions to the assistant
type ChatService interface {
	History(sess *session.Session) []session.ChatMessage
	Send(ctx context.Context, sess *session.Session, message string) (*ChatReply, error)
	Stream(ctx context.Context, sess *session.Session, message string, sink StreamSink) error
}

// OfferService fetches and ranks refinancing offers
type OfferService interface {
	Fetch(ctx context.Context, sess *session.Session, req *FetchOffersRequest) (*OfferTable, error)
	Table(sess *session.Session) *OfferTable
	Sort(ctx context.Context, sess *session.Session, key offers.SortKey) (*OfferTable, error)
	Filter(ctx context.Context, sess *session.Session, eligibleOnly bool) (*OfferTable, error)
}

// AssistantClient is the hosted chat assistant
type AssistantClient interface {
	Configured() bool
	Chat(ctx context.Context, messages []assistant.Message) (*assistant.ChatResponse, error)
	Stream(ctx context.Context, messages []assistant.Message) (io.ReadCloser, error)
}

// QuoteClient is the lender-quote endpoint
type QuoteClient interface {
	Configured() bool
	Fetch(ctx context.Context, req quotes.Request) ([]offers.LenderOffer, error)
}

// Dependencies are the collaborators wired by main
type Dependencies struct {
	Identity  identity.Provider
	Documents docstore.Store
	Sessions  session.Store
	Assistant AssistantClient
	Quotes    QuoteClient
	JWT       *auth.JWTService
	Logger    logger.Logger
	Health    *health.Registry
	Config    *config.Config
}

// NewServices creates a new Services instance with all dependencies
func NewServices(deps Dependencies) *Services {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Health == nil {
		deps.Health = health.NewRegistry()
	}

	tracker := &upstreamTracker{health: deps.Health}
	docs := &documentReader{store: deps.Documents, tracker: tracker}

	return &Services{
		Auth:      newAuthService(deps, tracker),
		Survey:    newSurveyService(deps, docs),
		Dashboard: newDashboardService(docs),
		Chat:      newChatService(deps, docs, tracker),
		Offers:    newOfferService(deps, docs, tracker),
		Health:    deps.Health,
	}
}

// upstreamTracker records every external call in metrics and the health registry
type upstreamTracker struct {
	health *health.Registry
}

func (u *upstreamTracker) observe(service, operation string, start time.Time, err error) {
	metrics.ObserveUpstream(service, start, err)
	u.health.Monitor(service).Record(operation, err)
}

// updateSession applies change to the latest stored copy of the session and refreshes sess
// with the result, so concurrent requests only touch the state they own. An error returned
// by change is passed through unchanged.
func updateSession(ctx context.Context, store session.Store, sess *session.Session, change func(*session.Session) error) error {
	var changeErr error
	updated, err := store.Update(ctx, sess.ID, func(latest *session.Session) error {
		changeErr = change(latest)
		return changeErr
	})
	if changeErr != nil {
		return changeErr
	}
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return errors.Unauthorized("Session expired", err)
		}
		return errors.ServiceError("failed to save session", err)
	}
	*sess = *updated
	return nil
}
