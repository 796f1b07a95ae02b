package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/refibot/internal/assistant"
	"github.com/ajharbinger/refibot/internal/auth"
	"github.com/ajharbinger/refibot/internal/docstore"
	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/health"
	"github.com/ajharbinger/refibot/internal/identity"
	"github.com/ajharbinger/refibot/internal/offers"
	"github.com/ajharbinger/refibot/internal/quotes"
	"github.com/ajharbinger/refibot/internal/services"
	"github.com/ajharbinger/refibot/internal/session"
	"github.com/ajharbinger/refibot/pkg/config"
)

// MockIdentityProvider keeps accounts in memory
type MockIdentityProvider struct {
	mu       sync.Mutex
	accounts map[string]string
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, email, password, displayName string) (*identity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[email]; ok {
		return nil, errors.Conflict(identity.MsgEmailInUse, nil)
	}
	m.accounts[email] = password
	return &identity.Account{UserID: "uid-" + email, Email: email, DisplayName: displayName}, nil
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (*identity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pw, ok := m.accounts[email]; !ok || pw != password {
		return nil, errors.Unauthorized(identity.MsgInvalidCredentials, nil)
	}
	return &identity.Account{UserID: "uid-" + email, Email: email}, nil
}

// MockDocumentStore keeps user documents in memory
type MockDocumentStore struct {
	mu   sync.Mutex
	docs map[string]docstore.Document
}

func (m *MockDocumentStore) Get(ctx context.Context, userID string) (docstore.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[userID]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return doc, nil
}

func (m *MockDocumentStore) Create(ctx context.Context, userID string, doc docstore.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[userID] = doc
	return nil
}

func (m *MockDocumentStore) Update(ctx context.Context, userID string, fields docstore.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[userID]
	if !ok {
		return docstore.ErrNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

// MockAssistantClient answers with canned replies
type MockAssistantClient struct {
	reply  string
	stream string
	err    error
}

func (m *MockAssistantClient) Configured() bool { return true }

func (m *MockAssistantClient) Chat(ctx context.Context, messages []assistant.Message) (*assistant.ChatResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &assistant.ChatResponse{Message: &assistant.Message{Role: "assistant", Content: m.reply}}, nil
}

func (m *MockAssistantClient) Stream(ctx context.Context, messages []assistant.Message) (io.ReadCloser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(strings.NewReader(m.stream)), nil
}

type unconfiguredQuotes struct{}

func (unconfiguredQuotes) Configured() bool { return false }

func (unconfiguredQuotes) Fetch(ctx context.Context, req quotes.Request) ([]offers.LenderOffer, error) {
	return nil, errors.UpstreamError("not configured", nil)
}

type testServer struct {
	router    *gin.Engine
	assistant *MockAssistantClient
	checks    map[string]CheckFunc
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := session.NewMemoryStore(time.Hour)
	jwtService := auth.NewJWTService("test-secret")
	cfg := &config.Config{Environment: "test", EligibleLenders: config.DefaultEligibleLenders}
	mockAssistant := &MockAssistantClient{reply: "Happy to help."}

	svc := services.NewServices(services.Dependencies{
		Identity:  &MockIdentityProvider{accounts: map[string]string{}},
		Documents: &MockDocumentStore{docs: map[string]docstore.Document{}},
		Sessions:  sessions,
		Assistant: mockAssistant,
		Quotes:    unconfiguredQuotes{},
		JWT:       jwtService,
		Health:    health.NewRegistry(),
		Config:    cfg,
	})

	srv := &testServer{
		router:    gin.New(),
		assistant: mockAssistant,
		checks:    map[string]CheckFunc{"sessions": func(ctx context.Context) error { return nil }},
	}
	SetupRoutes(srv.router, RouterDeps{
		Services: svc,
		JWT:      jwtService,
		Sessions: sessions,
		Config:   cfg,
		Checks:   srv.checks,
	})
	return srv
}

// client carries either the auth cookies or a bearer token between requests
type client struct {
	srv     *testServer
	cookies []*http.Cookie
	csrf    string
	bearer  string
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	if c.csrf != "" {
		req.Header.Set(auth.CSRFHeader, c.csrf)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	w := httptest.NewRecorder()
	c.srv.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func signUp(t *testing.T, srv *testServer, email string) (*client, map[string]interface{}) {
	t.Helper()
	anon := &client{srv: srv}
	w := anon.do("POST", "/api/v1/auth/signup", map[string]string{
		"email":      email,
		"password":   "secret1",
		"first_name": "Jane",
		"last_name":  "Doe",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	c := &client{srv: srv, cookies: w.Result().Cookies(), csrf: body["csrf_token"].(string)}
	return c, body
}

func TestAuthEndpoints(t *testing.T) {
	srv := setupTestServer(t)
	c, body := signUp(t, srv, "jane@example.com")

	names := map[string]bool{}
	for _, ck := range c.cookies {
		names[ck.Name] = true
		if ck.Name == auth.TokenCookie {
			assert.True(t, ck.HttpOnly)
		}
	}
	assert.True(t, names[auth.TokenCookie])
	assert.True(t, names[auth.CSRFCookie])

	w := c.do("GET", "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Jane Doe", decode(t, w)["display_name"])

	// duplicate sign-up
	w = (&client{srv: srv}).do("POST", "/api/v1/auth/signup", map[string]string{"email": "jane@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, identity.MsgEmailInUse, decode(t, w)["error"])

	w = (&client{srv: srv}).do("POST", "/api/v1/auth/login", map[string]string{"email": "jane@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, identity.MsgInvalidCredentials, decode(t, w)["error"])

	w = (&client{srv: srv}).do("POST", "/api/v1/auth/refresh", map[string]string{"refresh_token": body["refresh_token"].(string)})
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.do("POST", "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = c.do("GET", "/api/v1/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Session expired", decode(t, w)["error"])
}

func TestCSRFProtection(t *testing.T) {
	srv := setupTestServer(t)
	c, body := signUp(t, srv, "csrf@example.com")

	noHeader := &client{srv: srv, cookies: c.cookies}
	w := noHeader.do("POST", "/api/v1/survey/previous", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = c.do("POST", "/api/v1/survey/previous", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	bearer := &client{srv: srv, bearer: body["token"].(string)}
	w = bearer.do("POST", "/api/v1/survey/previous", nil)
	assert.Equal(t, http.StatusOK, w.Code, "bearer requests carry no ambient credentials")

	w = (&client{srv: srv}).do("GET", "/api/v1/survey", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSurveyAndDashboardEndpoints(t *testing.T) {
	srv := setupTestServer(t)
	c, _ := signUp(t, srv, "survey@example.com")

	w := c.do("GET", "/api/v1/dashboard", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.MsgNoLoanInfo, decode(t, w)["error"])

	w = c.do("POST", "/api/v1/survey/steps/1", map[string]interface{}{"firstName": "J", "email": "bad"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode(t, w)["fields"])

	w = c.do("POST", "/api/v1/survey/steps/one", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	steps := []map[string]interface{}{
		{"firstName": "Jane", "lastName": "Doe", "email": "survey@example.com", "phone": "5551234567", "address": "1 Main Street", "dateOfBirth": "1990-01-02"},
		{"education": "masters", "school": "State University", "enrollmentStatus": "full-time", "graduationYear": "05/2015"},
		{"loanType": "private", "loanAmount": 30000, "interestRate": 6, "loanTerm": 10, "currentLender": "Sallie Mae"},
	}
	for i, step := range steps {
		w = c.do("POST", "/api/v1/survey/steps/"+string(rune('1'+i)), step)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	assert.Equal(t, float64(4), decode(t, w)["step"])

	w = c.do("POST", "/api/v1/survey/submit", map[string]interface{}{
		"annualIncome": 90000, "monthlyDebt": 400, "creditScore": 740,
		"bankruptcyHistory": false, "cosignerAvailable": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = c.do("GET", "/api/v1/survey", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["completed"])

	w = c.do("GET", "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	overview := decode(t, w)
	assert.Equal(t, "333.06", overview["monthlyPayment"])
	assert.Equal(t, "Sallie Mae", overview["loanInfo"].(map[string]interface{})["currentLender"])
}

func TestOffersEndpoints(t *testing.T) {
	srv := setupTestServer(t)
	c, _ := signUp(t, srv, "offers@example.com")

	w := c.do("GET", "/api/v1/offers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["total"])

	w = c.do("POST", "/api/v1/offers/fetch", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	table := decode(t, w)
	assert.Equal(t, "fallback", table["source"])
	rows := table["offers"].([]interface{})
	require.NotEmpty(t, rows)
	first := rows[0].(map[string]interface{})
	assert.IsType(t, []interface{}{}, first["requirements"])
	assert.Contains(t, first, "average_apr")

	w = c.do("POST", "/api/v1/offers/sort", map[string]string{"key": "averageApr"})
	require.Equal(t, http.StatusOK, w.Code)
	table = decode(t, w)
	assert.Equal(t, "asc", table["indicators"].(map[string]interface{})["average_apr"])
	assert.Equal(t, "none", table["indicators"].(map[string]interface{})["average_term"])

	w = c.do("POST", "/api/v1/offers/sort", map[string]string{"key": "lender"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do("POST", "/api/v1/offers/filter", map[string]bool{"eligible_only": true})
	require.Equal(t, http.StatusOK, w.Code)
	table = decode(t, w)
	assert.Equal(t, true, table["eligible_only"])
	assert.Len(t, table["offers"], 3)
	assert.Equal(t, "asc", table["sort"].(map[string]interface{})["direction"])

	w = c.do("POST", "/api/v1/offers/filter", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatEndpoints(t *testing.T) {
	srv := setupTestServer(t)
	c, _ := signUp(t, srv, "chat@example.com")

	w := c.do("POST", "/api/v1/chat", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code, "chat needs a stored loan")

	for i, step := range []map[string]interface{}{
		{"firstName": "Jane", "lastName": "Doe", "email": "chat@example.com", "phone": "5551234567", "address": "1 Main Street", "dateOfBirth": "1990-01-02"},
		{"education": "bachelors", "school": "State University", "enrollmentStatus": "full-time", "graduationYear": "05/2015"},
		{"loanType": "federal", "loanAmount": 30000, "interestRate": 6, "loanTerm": 10, "currentLender": "Navient"},
	} {
		require.Equal(t, http.StatusOK, c.do("POST", "/api/v1/survey/steps/"+string(rune('1'+i)), step).Code)
	}
	require.Equal(t, http.StatusOK, c.do("POST", "/api/v1/survey/submit", map[string]interface{}{
		"annualIncome": 90000, "monthlyDebt": 400, "creditScore": 740,
		"bankruptcyHistory": false, "cosignerAvailable": true,
	}).Code)

	w = c.do("POST", "/api/v1/chat", map[string]string{"message": "Should I refinance?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Happy to help.", decode(t, w)["message"].(map[string]interface{})["text"])

	srv.assistant.stream = "data: {\"delta\":{\"content\":\"Yes\"}}\n\n"
	w = c.do("POST", "/api/v1/chat/stream", map[string]string{"message": "Really?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, srv.assistant.stream, w.Body.String())

	w = c.do("GET", "/api/v1/chat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["messages"], 4)

	srv.assistant.err = errors.UpstreamError(assistant.Apology, nil)
	w = c.do("POST", "/api/v1/chat", map[string]string{"message": "Hello?"})
	require.Equal(t, http.StatusOK, w.Code)
	reply := decode(t, w)
	assert.Equal(t, assistant.Apology, reply["message"].(map[string]interface{})["text"])
	assert.Equal(t, true, reply["fallback"])

	w = c.do("POST", "/api/v1/chat/stream", map[string]string{"message": "Hello?"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to process message"}`, w.Body.String())

	w = c.do("POST", "/api/v1/chat", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	srv := setupTestServer(t)
	anon := &client{srv: srv}

	w := anon.do("GET", "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["checks"].(map[string]interface{})["sessions"])

	srv.checks["database"] = func(ctx context.Context) error { return errors.New("connection refused") }
	w = anon.do("GET", "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", decode(t, w)["status"])

	w = anon.do("GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
