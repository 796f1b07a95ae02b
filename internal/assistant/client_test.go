package assistant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/loan"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		APIKey:   "test-key",
		Name:     "loan-helper",
		Endpoint: server.URL + "/assistant/chat",
		Timeout:  5 * time.Second,
	})
}

func TestClient_Chat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assistant/chat/loan-helper", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Api-Key"))

		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.False(t, body.Stream)
		assert.Equal(t, DefaultModel, body.Model)
		assert.Len(t, body.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","model":"gpt-4o","finish_reason":"stop",
			"message":{"role":"assistant","content":"Refinancing could lower your rate."},
			"usage":{"prompt_tokens":10,"completion_tokens":6,"total_tokens":16},
			"citations":[{"position":3,"references":[{"file":{"id":"f1","name":"guide.pdf"},"pages":[2]}]}]}`))
	})

	resp, err := client.Chat(context.Background(), []Message{{Role: "system", Content: "ctx"}, {Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "Refinancing could lower your rate.", resp.Message.Content)
	require.Len(t, resp.Citations, 1)
	assert.Equal(t, "guide.pdf", resp.Citations[0].References[0].File.Name)
	assert.Equal(t, 16, resp.Usage.TotalTokens)
}

func TestClient_ChatFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"upstream error", http.StatusUnauthorized, `{"error":"bad key"}`},
		{"missing message", http.StatusOK, `{"id":"1"}`},
		{"empty content", http.StatusOK, `{"message":{"role":"assistant","content":""}}`},
		{"malformed", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			resp, err := client.Chat(context.Background(), nil)
			assert.Nil(t, resp)
			require.Error(t, err)
			assert.Equal(t, Apology, errors.PublicMessage(err))
		})
	}
}

func TestClient_Stream(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"delta\":\"Hel\"}\n\n"))
		w.(http.Flusher).Flush()
		w.Write([]byte("data: {\"delta\":\"lo\"}\n\n"))
	})

	body, err := client.Stream(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "data: {\"delta\":\"Hel\"}\n\ndata: {\"delta\":\"lo\"}\n\n", string(data))
}

func TestClient_StreamRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	body, err := client.Stream(context.Background(), nil)
	assert.Nil(t, body)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUpstreamError))
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient(Config{APIKey: "k"})
	assert.False(t, client.Configured())

	_, err := client.Chat(context.Background(), nil)
	assert.Error(t, err)
	_, err = client.Stream(context.Background(), nil)
	assert.Error(t, err)
}

func TestLoanContext(t *testing.T) {
	info := loan.Info{LoanType: "federal", LoanAmount: 30000, InterestRate: 6, LoanTerm: 10, CurrentLender: "Nelnet"}

	want := "Current Loan Information:\n" +
		"- Loan Amount: $30,000\n" +
		"- Interest Rate: 6%\n" +
		"- Loan Term: 10 years\n" +
		"- Current Lender: Nelnet\n" +
		"- Loan Type: federal\n" +
		"- Monthly Payment: $333.06"
	assert.Equal(t, want, LoanContext(info))

	assert.Equal(t, "1,250,000", FormatAmount(1250000))
	assert.Equal(t, "45,000.50", FormatAmount(45000.5))
}

func TestBuildMessages(t *testing.T) {
	info := loan.Info{LoanType: "private", LoanAmount: 12000, InterestRate: 7.5, LoanTerm: 5, CurrentLender: "Sallie Mae"}
	history := []Message{{Role: "user", Content: "hello"}, {Role: "assistant", Content: "hi there"}}

	got := BuildMessages(info, history, "should I refinance?")
	require.Len(t, got, 4)
	assert.Equal(t, "system", got[0].Role)
	assert.Contains(t, got[0].Content, "Interest Rate: 7.5%")
	assert.Equal(t, history, got[1:3])
	assert.Equal(t, Message{Role: "user", Content: "should I refinance?"}, got[3])
}
