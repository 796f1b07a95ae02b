package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// documentRepository implements DocumentRepository on a jsonb column
type documentRepository struct {
	db dbExecutor
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db dbExecutor) DocumentRepository {
	return &documentRepository{db: db}
}

// Get returns the user's document
func (r *documentRepository) Get(ctx context.Context, userID string) (map[string]interface{}, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM user_documents WHERE user_id = $1`, userID,
	).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	doc := map[string]interface{}{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

// Create writes the whole document, replacing any existing one
func (r *documentRepository) Create(ctx context.Context, userID string, doc map[string]interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := `
		INSERT INTO user_documents (user_id, data, created_at, updated_at)
		VALUES ($1, $2::jsonb, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, userID, string(data)); err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// Update merges top-level fields into an existing document
func (r *documentRepository) Update(ctx context.Context, userID string, fields map[string]interface{}) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode document fields: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE user_documents SET data = data || $2::jsonb, updated_at = now() WHERE user_id = $1`,
		userID, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return expectOneRow(result, ErrDocumentNotFound)
}
