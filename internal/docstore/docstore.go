// Package docstore reads and writes the per-user JSON document that holds survey answers.
package docstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ajharbinger/refibot/internal/errors"
	"github.com/ajharbinger/refibot/internal/repository"
)

var ErrNotFound = errors.New("document not found")

// Document is a free-form user document
type Document map[string]interface{}

// Store is the document backend
type Store interface {
	Get(ctx context.Context, userID string) (Document, error)
	Create(ctx context.Context, userID string, doc Document) error
	Update(ctx context.Context, userID string, fields Document) error
}

// HostedStore talks to a REST document service at {base}/users/{userID}
type HostedStore struct {
	http *resty.Client
	base string
}

func NewHostedStore(baseURL, apiKey string, timeout time.Duration) *HostedStore {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &HostedStore{http: client, base: strings.TrimRight(baseURL, "/")}
}

func (h *HostedStore) docURL(userID string) string {
	return h.base + "/users/" + url.PathEscape(userID)
}

func (h *HostedStore) Get(ctx context.Context, userID string) (Document, error) {
	var doc Document
	resp, err := h.http.R().SetContext(ctx).SetResult(&doc).Get(h.docURL(userID))
	if err != nil {
		return nil, errors.UpstreamError("Unable to load your data. Please try again later.", err).WithOperation("docstore.get")
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.IsError() {
		return nil, errors.UpstreamError("Unable to load your data. Please try again later.",
			fmt.Errorf("document store returned %s", resp.Status())).WithOperation("docstore.get")
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

func (h *HostedStore) Create(ctx context.Context, userID string, doc Document) error {
	resp, err := h.http.R().SetContext(ctx).SetBody(doc).Put(h.docURL(userID))
	return h.writeResult("docstore.create", resp, err)
}

func (h *HostedStore) Update(ctx context.Context, userID string, fields Document) error {
	resp, err := h.http.R().SetContext(ctx).SetBody(fields).Patch(h.docURL(userID))
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	return h.writeResult("docstore.update", resp, err)
}

func (h *HostedStore) writeResult(op string, resp *resty.Response, err error) error {
	if err != nil {
		return errors.UpstreamError("Unable to save your data. Please try again later.", err).WithOperation(op)
	}
	if resp.IsError() {
		return errors.UpstreamError("Unable to save your data. Please try again later.",
			fmt.Errorf("document store returned %s", resp.Status())).WithOperation(op)
	}
	return nil
}

// PostgresStore keeps documents in the user_documents table
type PostgresStore struct {
	repo repository.DocumentRepository
}

func NewPostgresStore(repo repository.DocumentRepository) *PostgresStore {
	return &PostgresStore{repo: repo}
}

func (p *PostgresStore) Get(ctx context.Context, userID string) (Document, error) {
	doc, err := p.repo.Get(ctx, userID)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load document", err).WithOperation("docstore.get")
	}
	return doc, nil
}

func (p *PostgresStore) Create(ctx context.Context, userID string, doc Document) error {
	if err := p.repo.Create(ctx, userID, doc); err != nil {
		return errors.DatabaseError("failed to create document", err).WithOperation("docstore.create")
	}
	return nil
}

func (p *PostgresStore) Update(ctx context.Context, userID string, fields Document) error {
	err := p.repo.Update(ctx, userID, fields)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return errors.DatabaseError("failed to update document", err).WithOperation("docstore.update")
	}
	return nil
}
