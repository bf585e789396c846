package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/salon-booking/internal/database"
	"github.com/iliyamo/salon-booking/internal/model"
)

// InvitationRepo stores staff invitations. Only token hashes are persisted.
type InvitationRepo struct{ db *database.DB }

func NewInvitationRepo(db *database.DB) *InvitationRepo { return &InvitationRepo{db: db} }

func (r *InvitationRepo) Create(ctx context.Context, inv *model.Invitation) error {
	meta, err := encodeJSON(inv.Metadata)
	if err != nil {
		return err
	}
	if inv.Status == "" {
		inv.Status = model.InvitationPending
	}
	inv.CreatedAt = time.Now().UTC()
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO invitations (id, identity_id, email, token_hash, role, name, organization_id,
			invited_by, metadata, redirect_to, status, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		inv.ID, inv.IdentityID, inv.Email, inv.TokenHash, inv.Role, inv.Name, inv.OrganizationID,
		inv.InvitedBy, meta, inv.RedirectTo, inv.Status, inv.ExpiresAt, inv.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByTokenHash finds an invitation by the hash of its raw token.
func (r *InvitationRepo) GetByTokenHash(ctx context.Context, hash string) (*model.Invitation, error) {
	var (
		inv      model.Invitation
		meta     string
		accepted sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT id, identity_id, email, token_hash, role, name, organization_id, invited_by,
			metadata, redirect_to, status, expires_at, created_at, accepted_at
		FROM invitations WHERE token_hash = ?`), hash).
		Scan(&inv.ID, &inv.IdentityID, &inv.Email, &inv.TokenHash, &inv.Role, &inv.Name, &inv.OrganizationID,
			&inv.InvitedBy, &meta, &inv.RedirectTo, &inv.Status, &inv.ExpiresAt, &inv.CreatedAt, &accepted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	inv.Metadata = decodeMetadata(meta)
	if accepted.Valid {
		t := accepted.Time
		inv.AcceptedAt = &t
	}
	return &inv, nil
}

// MarkAccepted flips a pending invitation to accepted. A second call for
// the same invitation returns ErrConflict.
func (r *InvitationRepo) MarkAccepted(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE invitations SET status = ?, accepted_at = ? WHERE id = ? AND status = ?`),
		model.InvitationAccepted, at, id, model.InvitationPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}
