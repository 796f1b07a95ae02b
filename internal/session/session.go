// Package session keeps per-user state between requests: the survey draft, the offers
// table and the chat transcript. A session lives from sign-in until sign-out or expiry.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/offers"
	"github.com/ajharbinger/refibot/internal/survey"
)

// MaxChatHistory is the number of chat messages kept per session
const MaxChatHistory = 50

var (
	ErrNotFound = errors.New("session not found")
	ErrConflict = errors.New("session changed concurrently")
)

type ChatMessage struct {
	Text      string    `json:"text"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
}

// OfferState is the last fetched offer list together with its table view
type OfferState struct {
	Raw       []offers.LenderOffer `json:"raw,omitempty"`
	Source    string               `json:"source,omitempty"`
	FetchedAt time.Time            `json:"fetched_at,omitempty"`
	View      offers.ViewState     `json:"view"`
}

type Session struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Email       string        `json:"email"`
	DisplayName string        `json:"display_name,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	Survey      survey.Draft  `json:"survey"`
	Offers      OfferState    `json:"offers"`
	Chat        []ChatMessage `json:"chat,omitempty"`
}

// New creates a session for a freshly authenticated user
func New(userID, email, displayName string) *Session {
	return &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
}

// AppendChat adds messages to the transcript, dropping the oldest beyond MaxChatHistory
func (s *Session) AppendChat(msgs ...ChatMessage) {
	s.Chat = append(s.Chat, msgs...)
	if over := len(s.Chat) - MaxChatHistory; over > 0 {
		s.Chat = append([]ChatMessage(nil), s.Chat[over:]...)
	}
}

// Store persists sessions by ID
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	// Update applies fn to the latest stored copy of a session and writes it back
	// atomically, returning the updated copy. An error from fn aborts the write.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
}
