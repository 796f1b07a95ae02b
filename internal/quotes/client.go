// Package quotes fetches lender refinancing quotes for a borrower profile.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/xeipuuv/gojsonschema"

	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/offers"
)

const unavailableMessage = "Unable to fetch refinancing options. Please try again later."

// responseSchema describes the only body shape accepted from the quote endpoint
const responseSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["lender", "fixed_apr", "loan_term", "loan_amount", "requirements"],
    "properties": {
      "lender":       {"type": "string", "minLength": 1},
      "fixed_apr":    {"type": "string"},
      "loan_term":    {"type": "string"},
      "loan_amount":  {"type": "string"},
      "requirements": {"type": "string"}
    }
  }
}`

// Request is the borrower profile sent to the quote endpoint
type Request struct {
	LoanType    string  `json:"loan_type"`
	LoanAmount  float64 `json:"loan_amount"`
	CreditScore int     `json:"credit_score"`
}

// Source reports where an offer list came from
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// Client talks to the lender-quote endpoint
type Client struct {
	http     *resty.Client
	endpoint string
	schema   *gojsonschema.Schema
}

// NewClient creates a quote client. An empty endpoint yields a client whose every fetch fails.
func NewClient(endpoint string, timeout time.Duration) (*Client, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile quote response schema: %w", err)
	}

	http := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:     http,
		endpoint: strings.TrimSpace(endpoint),
		schema:   schema,
	}, nil
}

// Configured reports whether a live endpoint is set
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

// Fetch posts the profile and returns the validated offer list. Transport failures, non-2xx
// responses and bodies that do not match the schema all surface as upstream errors.
func (c *Client) Fetch(ctx context.Context, req Request) ([]offers.LenderOffer, error) {
	if !c.Configured() {
		return nil, errors.UpstreamError(unavailableMessage, fmt.Errorf("quote endpoint not configured")).
			WithOperation("quotes.fetch")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.endpoint)
	if err != nil {
		return nil, errors.UpstreamError(unavailableMessage, err).WithOperation("quotes.fetch")
	}
	if resp.IsError() {
		return nil, errors.UpstreamError(unavailableMessage,
			fmt.Errorf("quote endpoint returned %s", resp.Status())).WithOperation("quotes.fetch")
	}

	if err := c.validate(resp.Body()); err != nil {
		return nil, errors.UpstreamError(unavailableMessage, err).WithOperation("quotes.fetch")
	}

	var list []offers.LenderOffer
	if err := json.Unmarshal(resp.Body(), &list); err != nil {
		return nil, errors.UpstreamError(unavailableMessage, err).WithOperation("quotes.fetch")
	}
	return list, nil
}

func (c *Client) validate(body []byte) error {
	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("quote response validation failed: %v", errs)
	}
	return nil
}
