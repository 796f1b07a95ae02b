package services

import (
	"context"
	"time"

	"github.com/ajharbinger/refibot/internal/auth"
	"github.com/ajharbinger/refibot/internal/docstore"
	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/identity"
	"github.com/ajharbinger/refibot/internal/logger"
	"github.com/ajharbinger/refibot/internal/metrics"
	"github.com/ajharbinger/refibot/internal/models"
	"github.com/ajharbinger/refibot/internal/session"
)

// authServiceImpl implements AuthService
type authServiceImpl struct {
	identity   identity.Provider
	documents  docstore.Store
	sessions   session.Store
	jwtService *auth.JWTService
	tracker    *upstreamTracker
	log        logger.Logger
}

// newAuthService creates a new auth service implementation
func newAuthService(deps Dependencies, tracker *upstreamTracker) AuthService {
	return &authServiceImpl{
		identity:   deps.Identity,
		documents:  deps.Documents,
		sessions:   deps.Sessions,
		jwtService: deps.JWT,
		tracker:    tracker,
		log:        deps.Logger.With("component", "auth"),
	}
}

// SignUp creates the account, stores the profile document and starts a session
func (s *authServiceImpl) SignUp(ctx context.Context, req *models.SignUpRequest) (*models.AuthResponse, error) {
	start := time.Now()
	account, err := s.identity.SignUp(ctx, req.Email, req.Password, req.FullName())
	s.observeIdentity("identity.signUp", start, err)
	if err != nil {
		return nil, err
	}

	profile := docstore.Document{
		"firstName":  req.FirstName,
		"lastName":   req.LastName,
		"email":      account.Email,
		"birthday":   req.Birthday,
		"customerId": req.CustomerID,
		"createdAt":  time.Now().UTC().Format(time.RFC3339),
	}
	start = time.Now()
	err = s.documents.Create(ctx, account.UserID, profile)
	s.tracker.observe(metrics.ServiceDocuments, "docstore.create", start, err)
	if err != nil {
		// the account exists either way; the survey submit recreates the document
		s.log.Warn("failed to store profile document", "user_id", account.UserID, "error", err.Error())
	}

	s.log.Info("account created", "user_id", account.UserID)
	return s.startSession(ctx, account)
}

// Login authenticates a user and returns tokens for a new session
func (s *authServiceImpl) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	start := time.Now()
	account, err := s.identity.SignIn(ctx, req.Email, req.Password)
	s.observeIdentity("identity.signIn", start, err)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, account)
}

// observeIdentity records the call; rejected credentials are not service failures
func (s *authServiceImpl) observeIdentity(op string, start time.Time, err error) {
	if err != nil && !errors.HasCode(err, errors.ErrCodeUpstreamError) {
		err = nil
	}
	s.tracker.observe(metrics.ServiceIdentity, op, start, err)
}

func (s *authServiceImpl) startSession(ctx context.Context, account *identity.Account) (*models.AuthResponse, error) {
	sess := session.New(account.UserID, account.Email, account.DisplayName)
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, errors.ServiceError("failed to create session", err)
	}
	return s.issueTokens(sess)
}

func (s *authServiceImpl) issueTokens(sess *session.Session) (*models.AuthResponse, error) {
	claims := auth.Claims{
		UserID:    sess.UserID,
		Email:     sess.Email,
		SessionID: sess.ID,
	}

	token, expiresAt, err := s.jwtService.GenerateToken(claims)
	if err != nil {
		return nil, errors.InternalError("failed to generate token", err)
	}
	refreshToken, _, err := s.jwtService.GenerateRefreshToken(claims)
	if err != nil {
		return nil, errors.InternalError("failed to generate refresh token", err)
	}

	return &models.AuthResponse{
		Token:        token,
		RefreshToken: refreshToken,
		CSRFToken:    auth.NewCSRFToken(),
		ExpiresAt:    expiresAt,
		User: models.Account{
			UserID:      sess.UserID,
			Email:       sess.Email,
			DisplayName: sess.DisplayName,
		},
	}, nil
}

// Refresh issues new tokens for a live session
func (s *authServiceImpl) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Unauthorized("Invalid refresh token", err)
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, errors.Unauthorized("Session expired", err)
	}
	if err != nil {
		return nil, errors.ServiceError("failed to load session", err)
	}
	if sess.UserID != claims.UserID {
		return nil, errors.Unauthorized("Invalid refresh token", nil)
	}
	return s.issueTokens(sess)
}

// Logout ends the session; tokens that reference it stop working
func (s *authServiceImpl) Logout(ctx context.Context, sess *session.Session) error {
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return errors.ServiceError("failed to end session", err)
	}
	s.log.Info("session ended", "user_id", sess.UserID)
	return nil
}
