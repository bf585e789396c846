package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/iliyamo/salon-booking/internal/database"
	"github.com/iliyamo/salon-booking/internal/model"
)

// PermissionRepo reads and updates permission profiles. Profiles are
// created by IdentityRepo.AttachOrganization.
type PermissionRepo struct{ db *database.DB }

func NewPermissionRepo(db *database.DB) *PermissionRepo { return &PermissionRepo{db: db} }

// Get loads the profile of an identity.
func (r *PermissionRepo) Get(ctx context.Context, identityID string) (*model.PermissionProfile, error) {
	var (
		p   model.PermissionProfile
		raw string
	)
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT identity_id, organization_id, permissions, created_at, updated_at
		FROM permission_profiles WHERE identity_id = ?`), identityID).
		Scan(&p.IdentityID, &p.OrganizationID, &raw, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Permissions = model.Permissions{}
	if err := json.Unmarshal([]byte(raw), &p.Permissions); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update overwrites the permissions of an existing profile.
func (r *PermissionRepo) Update(ctx context.Context, identityID string, perms model.Permissions) error {
	if err := requireServiceRole(ctx, "update permissions"); err != nil {
		return err
	}
	raw, err := encodeJSON(perms)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE permission_profiles SET permissions = ?, updated_at = ? WHERE identity_id = ?`),
		raw, time.Now().UTC(), identityID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ensureProfileTx inserts a profile for identityID unless one exists. An
// existing profile keeps its grants but moves to orgID.
func ensureProfileTx(ctx context.Context, db *database.DB, tx *sql.Tx, identityID, orgID string, defaults model.Permissions, now time.Time) error {
	var n int
	if err := tx.QueryRowContext(ctx, db.Rebind(
		`SELECT COUNT(*) FROM permission_profiles WHERE identity_id = ?`), identityID).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		_, err := tx.ExecContext(ctx, db.Rebind(`
			UPDATE permission_profiles SET organization_id = ?, updated_at = ?
			WHERE identity_id = ?`), orgID, now, identityID)
		return err
	}
	if defaults == nil {
		defaults = model.NoAccess()
	}
	raw, err := encodeJSON(defaults)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, db.Rebind(`
		INSERT INTO permission_profiles (identity_id, organization_id, permissions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`), identityID, orgID, raw, now, now)
	return err
}
