package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/salon-booking/internal/database"
)

// TokenRepo persists/validates refresh tokens (single 'token_hash' column).
type TokenRepo struct{ db *database.DB }

func NewTokenRepo(db *database.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, identityID, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		"INSERT INTO refresh_tokens (identity_id, token_hash, expires_at, created_at) VALUES (?,?,?,?)"),
		identityID, tokenHash, exp, time.Now().UTC())
	return err
}

// ValidateRefresh returns the identity id if a non-revoked, non-expired token exists.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
	var (
		identityID string
		expiresAt  time.Time
		revokedAt  sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, r.db.Rebind(
		"SELECT identity_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1"),
		tokenHash).Scan(&identityID, &expiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return "", ErrNotFound
	}
	return identityID, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		"UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL"),
		time.Now().UTC(), tokenHash)
	return err
}

// RevokeAllForIdentity revokes all of an identity's active tokens.
func (r *TokenRepo) RevokeAllForIdentity(ctx context.Context, identityID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		"UPDATE refresh_tokens SET revoked_at=? WHERE identity_id=? AND revoked_at IS NULL"),
		time.Now().UTC(), identityID)
	return err
}
