package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/folio-studio/folio-backend/internal/oauth/domain"
)

type ClientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientColumns = `client_id, client_name, redirect_uris, token_endpoint_auth_method, client_secret_hash, scope, dynamic, last_used_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*domain.Client, error) {
	var c domain.Client
	var uris pq.StringArray
	var secretHash sql.NullString
	var lastUsed sql.NullTime

	err := row.Scan(
		&c.ClientID,
		&c.ClientName,
		&uris,
		&c.TokenEndpointAuthMethod,
		&secretHash,
		&c.Scope,
		&c.Dynamic,
		&lastUsed,
		&c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}

	c.RedirectURIs = []string(uris)
	c.SecretHash = secretHash.String
	if lastUsed.Valid {
		c.LastUsedAt = &lastUsed.Time
	}
	return &c, nil
}

// Create inserts a newly registered client.
func (r *ClientRepository) Create(ctx context.Context, c *domain.Client) error {
	q := `
		INSERT INTO oauth_clients (client_id, client_name, redirect_uris, token_endpoint_auth_method, client_secret_hash, scope, dynamic)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	var secretHash any
	if c.SecretHash != "" {
		secretHash = c.SecretHash
	}

	err := r.db.QueryRowContext(ctx, q,
		c.ClientID,
		c.ClientName,
		pq.Array(c.RedirectURIs),
		c.TokenEndpointAuthMethod,
		secretHash,
		c.Scope,
		c.Dynamic,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create oauth client: %w", err)
	}
	return nil
}

func (r *ClientRepository) GetByID(ctx context.Context, clientID string) (*domain.Client, error) {
	q := `SELECT ` + clientColumns + ` FROM oauth_clients WHERE client_id = $1`
	return scanClient(r.db.QueryRowContext(ctx, q, clientID))
}

// List returns all clients, newest first.
func (r *ClientRepository) List(ctx context.Context) ([]*domain.Client, error) {
	q := `SELECT ` + clientColumns + ` FROM oauth_clients ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list oauth clients: %w", err)
	}
	defer rows.Close()

	var out []*domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TouchLastUsed records a successful token exchange.
func (r *ClientRepository) TouchLastUsed(ctx context.Context, clientID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE oauth_clients SET last_used_at = now() WHERE client_id = $1`, clientID)
	if err != nil {
		return fmt.Errorf("failed to touch oauth client: %w", err)
	}
	return nil
}

// DeleteStaleDynamic removes dynamically registered clients created before
// cutoff that never exchanged a code.
func (r *ClientRepository) DeleteStaleDynamic(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM oauth_clients WHERE dynamic AND last_used_at IS NULL AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale oauth clients: %w", err)
	}
	return res.RowsAffected()
}
