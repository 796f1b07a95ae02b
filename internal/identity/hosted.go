package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ajharbinger/refibot/internal/errors"
)

// HostedProvider uses the identity toolkit REST API
type HostedProvider struct {
	http     *resty.Client
	endpoint string
	apiKey   string
}

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type updateProfileRequest struct {
	IDToken           string `json:"idToken"`
	DisplayName       string `json:"displayName"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type accountResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewHostedProvider(endpoint, apiKey string, timeout time.Duration) *HostedProvider {
	return &HostedProvider{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
	}
}

func (h *HostedProvider) call(ctx context.Context, method string, body, result interface{}) error {
	var apiErr errorResponse
	resp, err := h.http.R().
		SetContext(ctx).
		SetQueryParam("key", h.apiKey).
		SetBody(body).
		SetResult(result).
		SetError(&apiErr).
		Post(h.endpoint + "/accounts:" + method)
	if err != nil {
		return errors.UpstreamError(MsgUnavailable, err).WithOperation("identity." + method)
	}
	if resp.IsError() {
		cause := fmt.Errorf("identity service returned %s: %s", resp.Status(), apiErr.Error.Message)
		return mapErrorCode(apiErr.Error.Message, cause).WithOperation("identity." + method)
	}
	return nil
}

// SignUp creates the account and sets its display name when one is given
func (h *HostedProvider) SignUp(ctx context.Context, email, password, displayName string) (*Account, error) {
	var created accountResponse
	err := h.call(ctx, "signUp", credentialsRequest{Email: email, Password: password, ReturnSecureToken: true}, &created)
	if err != nil {
		return nil, err
	}

	account := &Account{UserID: created.LocalID, Email: created.Email}
	if displayName == "" {
		return account, nil
	}

	var updated accountResponse
	err = h.call(ctx, "update", updateProfileRequest{IDToken: created.IDToken, DisplayName: displayName}, &updated)
	if err != nil {
		return nil, err
	}
	account.DisplayName = updated.DisplayName
	return account, nil
}

func (h *HostedProvider) SignIn(ctx context.Context, email, password string) (*Account, error) {
	var signedIn accountResponse
	err := h.call(ctx, "signInWithPassword", credentialsRequest{Email: email, Password: password, ReturnSecureToken: true}, &signedIn)
	if err != nil {
		return nil, err
	}
	return &Account{UserID: signedIn.LocalID, Email: signedIn.Email, DisplayName: signedIn.DisplayName}, nil
}
