package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quotegate/quotegate/internal/model"
)

// ErrDuplicateIssuance is returned when a fingerprint is recorded twice.
var ErrDuplicateIssuance = errors.New("issuance already recorded")

// ErrIssuanceNotFound is returned when no row matches a fingerprint.
var ErrIssuanceNotFound = errors.New("issuance not found")

// RecordIssuance inserts an audit row for a newly issued key.
func (r *Repository) RecordIssuance(ctx context.Context, cred *model.IssuedCredential) error {
	query := `
		INSERT INTO issued_credentials (id, email, key_fingerprint, issued_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, cred.ID, cred.Email, cred.KeyFingerprint, cred.IssuedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateIssuance
		}
		return fmt.Errorf("failed to record issuance: %w", err)
	}

	return nil
}

// GetIssuanceByFingerprint returns the audit row for a key fingerprint.
func (r *Repository) GetIssuanceByFingerprint(ctx context.Context, fingerprint string) (*model.IssuedCredential, error) {
	query := `
		SELECT id, email, key_fingerprint, issued_at
		FROM issued_credentials
		WHERE key_fingerprint = $1
	`

	var cred model.IssuedCredential
	err := r.pool.QueryRow(ctx, query, fingerprint).Scan(&cred.ID, &cred.Email, &cred.KeyFingerprint, &cred.IssuedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIssuanceNotFound
		}
		return nil, fmt.Errorf("failed to get issuance: %w", err)
	}

	return &cred, nil
}

// ListIssuancesByEmail returns the audit rows for email, newest first.
func (r *Repository) ListIssuancesByEmail(ctx context.Context, email string) ([]*model.IssuedCredential, error) {
	query := `
		SELECT id, email, key_fingerprint, issued_at
		FROM issued_credentials
		WHERE LOWER(email) = LOWER($1)
		ORDER BY issued_at DESC
	`

	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list issuances: %w", err)
	}
	defer rows.Close()

	var creds []*model.IssuedCredential
	for rows.Next() {
		var cred model.IssuedCredential
		if err := rows.Scan(&cred.ID, &cred.Email, &cred.KeyFingerprint, &cred.IssuedAt); err != nil {
			return nil, fmt.Errorf("failed to scan issuance: %w", err)
		}
		creds = append(creds, &cred)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issuances: %w", err)
	}

	return creds, nil
}
