// Package assistant is the client for the hosted chat assistant that answers borrower
// questions about their loan.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ajharbinger/refibot/internal/errors"
)

const (
	DefaultEndpoint = "https://prod-1-data.ke.pinecone.io/assistant/chat"
	DefaultModel    = "gpt-4o"

	// Apology is the reply given for any turn the assistant could not answer
	Apology = "I apologize, but I'm having trouble processing your request at the moment. Please try again later."
)

// ErrEmptyResponse is returned when the assistant answers without message content
var ErrEmptyResponse = errors.New("assistant response has no message content")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Model    string    `json:"model"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Reference struct {
	File struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		SignedURL string `json:"signed_url,omitempty"`
	} `json:"file"`
	Pages []int `json:"pages,omitempty"`
}

type Citation struct {
	Position   int         `json:"position"`
	References []Reference `json:"references"`
}

// ChatResponse is the non-streaming reply
type ChatResponse struct {
	ID           string     `json:"id"`
	Model        string     `json:"model"`
	FinishReason string     `json:"finish_reason"`
	Message      *Message   `json:"message"`
	Usage        Usage      `json:"usage"`
	Citations    []Citation `json:"citations,omitempty"`
}

// Config for the assistant client
type Config struct {
	APIKey   string
	Name     string
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// Client sends conversations to a named hosted assistant
type Client struct {
	http    *resty.Client
	name    string
	url     string
	apiKey  string
	model   string
	timeout time.Duration
}

// NewClient creates an assistant client. No client-wide timeout is set so streams can run
// as long as the caller's context allows; Chat applies Config.Timeout per call.
func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		http:    resty.New().SetHeader("Content-Type", "application/json"),
		name:    cfg.Name,
		url:     strings.TrimRight(endpoint, "/") + "/" + cfg.Name,
		apiKey:  cfg.APIKey,
		model:   model,
		timeout: cfg.Timeout,
	}
}

// Configured reports whether credentials and an assistant name are present
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.name != ""
}

func (c *Client) request(ctx context.Context, messages []Message, stream bool) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader("Api-Key", c.apiKey).
		SetBody(chatRequest{Messages: messages, Stream: stream, Model: c.model})
}

// Chat sends the conversation and waits for the complete reply
func (c *Client) Chat(ctx context.Context, messages []Message) (*ChatResponse, error) {
	if !c.Configured() {
		return nil, errors.ServiceError("Assistant is not configured", nil).WithOperation("assistant.chat")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.request(ctx, messages, false).Post(c.url)
	if err != nil {
		return nil, errors.UpstreamError(Apology, err).WithOperation("assistant.chat")
	}
	if resp.IsError() {
		return nil, errors.UpstreamError(Apology,
			fmt.Errorf("assistant returned %s", resp.Status())).WithOperation("assistant.chat")
	}

	var out ChatResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, errors.UpstreamError(Apology, err).WithOperation("assistant.chat")
	}
	if out.Message == nil || out.Message.Content == "" {
		return nil, errors.UpstreamError(Apology, ErrEmptyResponse).WithOperation("assistant.chat")
	}
	return &out, nil
}

// Stream starts a streaming reply and returns the raw event-stream body once the assistant
// has accepted the request. The caller must close it.
func (c *Client) Stream(ctx context.Context, messages []Message) (io.ReadCloser, error) {
	if !c.Configured() {
		return nil, errors.ServiceError("Assistant is not configured", nil).WithOperation("assistant.stream")
	}

	resp, err := c.request(ctx, messages, true).
		SetHeader("Accept", "text/event-stream").
		SetDoNotParseResponse(true).
		Post(c.url)
	if err != nil {
		return nil, errors.UpstreamError(Apology, err).WithOperation("assistant.stream")
	}
	body := resp.RawBody()
	if resp.IsError() {
		body.Close()
		return nil, errors.UpstreamError(Apology,
			fmt.Errorf("assistant returned %s", resp.Status())).WithOperation("assistant.stream")
	}
	return body, nil
}
