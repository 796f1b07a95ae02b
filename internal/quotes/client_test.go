package quotes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/offers"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, 5*time.Second)
	require.NoError(t, err)
	return client
}

func TestClient_Fetch(t *testing.T) {
	var received Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lender":"SoFi","fixed_apr":"4.49-9.99%","loan_term":"5-20 yrs","loan_amount":"$5,000-$500,000","requirements":"['Graduated']"}]`))
	})

	list, err := client.Fetch(context.Background(), Request{LoanType: "private", LoanAmount: 30000, CreditScore: 720})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "SoFi", list[0].Lender)
	assert.Equal(t, "5-20 yrs", list[0].LoanTermRange)
	assert.Equal(t, Request{LoanType: "private", LoanAmount: 30000, CreditScore: 720}, received)
}

func TestClient_FetchFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"down"}`},
		{"object instead of array", http.StatusOK, `{"lenders":[]}`},
		{"missing field", http.StatusOK, `[{"lender":"SoFi","fixed_apr":"4-9%"}]`},
		{"wrong type", http.StatusOK, `[{"lender":"SoFi","fixed_apr":4.5,"loan_term":"5-20 yrs","loan_amount":"x","requirements":"[]"}]`},
		{"not json", http.StatusOK, `<html></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			list, err := client.Fetch(context.Background(), Request{})
			assert.Nil(t, list)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeUpstreamError))
			assert.Equal(t, unavailableMessage, errors.PublicMessage(err))
		})
	}
}

func TestClient_Unconfigured(t *testing.T) {
	client, err := NewClient("", time.Second)
	require.NoError(t, err)
	assert.False(t, client.Configured())

	_, err = client.Fetch(context.Background(), Request{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeUpstreamError))
}

func TestFallback(t *testing.T) {
	list := Fallback()
	require.NotEmpty(t, list)

	names := map[string]bool{}
	for _, o := range list {
		names[o.Lender] = true
	}
	for _, eligible := range []string{"SoFi", "Earnest", "Laurel Road"} {
		assert.True(t, names[eligible], eligible)
	}

	for _, n := range offers.Normalize(list, func(o offers.LenderOffer, err error) {
		t.Errorf("fallback requirements for %s did not parse: %v", o.Lender, err)
	}) {
		assert.Greater(t, n.AverageAPR, 0.0, n.Lender)
		assert.Greater(t, n.AverageTerm, 0.0, n.Lender)
		assert.GreaterOrEqual(t, len(n.Requirements), 2, n.Lender)
	}

	list[0].Lender = "changed"
	assert.Equal(t, "SoFi", Fallback()[0].Lender)
}
