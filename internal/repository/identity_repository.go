package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/salon-booking/internal/database"
	"github.com/iliyamo/salon-booking/internal/model"
)

const identityColumns = `id, email, password_hash, name, phone, role, organization_id,
	is_active, is_approved, email_confirmed_at, metadata, created_at, updated_at`

// IdentityRepo persists rows of the `identities` table.
type IdentityRepo struct{ db *database.DB }

func NewIdentityRepo(db *database.DB) *IdentityRepo { return &IdentityRepo{db: db} }

// Create inserts a new identity. The caller supplies the ID.
func (r *IdentityRepo) Create(ctx context.Context, i *model.Identity) error {
	meta, err := encodeJSON(i.Metadata)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	i.CreatedAt, i.UpdatedAt = now, now
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO identities (id, email, password_hash, name, phone, role, organization_id,
			is_active, is_approved, email_confirmed_at, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		i.ID, i.Email, i.PasswordHash, i.Name, i.Phone, i.Role, nullString(i.OrganizationID),
		i.IsActive, i.IsApproved, nullTime(i.EmailConfirmedAt), meta, i.CreatedAt, i.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID fetches an identity by id.
func (r *IdentityRepo) GetByID(ctx context.Context, id string) (*model.Identity, error) {
	row := r.db.QueryRowContext(ctx,
		r.db.Rebind("SELECT "+identityColumns+" FROM identities WHERE id = ?"), id)
	return scanIdentity(row)
}

// GetByEmail fetches an identity by normalized email.
func (r *IdentityRepo) GetByEmail(ctx context.Context, email string) (*model.Identity, error) {
	row := r.db.QueryRowContext(ctx,
		r.db.Rebind("SELECT "+identityColumns+" FROM identities WHERE email = ?"), email)
	return scanIdentity(row)
}

// ExistsByEmail reports whether another identity already uses email.
// excludeID lets an identity keep its own address.
func (r *IdentityRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	if excludeID == "" {
		return r.exists(ctx, "SELECT 1 FROM identities WHERE email = ? LIMIT 1", email)
	}
	return r.exists(ctx, "SELECT 1 FROM identities WHERE email = ? AND id <> ? LIMIT 1", email, excludeID)
}

// ExistsByPhone reports whether any identity uses phone.
func (r *IdentityRepo) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM identities WHERE phone = ? LIMIT 1", phone)
}

func (r *IdentityRepo) exists(ctx context.Context, q string, args ...any) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, r.db.Rebind(q), args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Update writes the mutable profile and credential columns back.
func (r *IdentityRepo) Update(ctx context.Context, i *model.Identity) error {
	meta, err := encodeJSON(i.Metadata)
	if err != nil {
		return err
	}
	i.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE identities
		SET email = ?, password_hash = ?, name = ?, phone = ?, role = ?,
			is_active = ?, is_approved = ?, email_confirmed_at = ?, metadata = ?, updated_at = ?
		WHERE id = ?`),
		i.Email, i.PasswordHash, i.Name, i.Phone, i.Role,
		i.IsActive, i.IsApproved, nullTime(i.EmailConfirmedAt), meta, i.UpdatedAt, i.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachOrganization links the identity to orgID, activates it, stores the
// phone and materializes its permission profile (seeded with defaults) in
// the same transaction when none exists yet.
func (r *IdentityRepo) AttachOrganization(ctx context.Context, id, orgID, phone string, approved bool, defaults model.Permissions) (err error) {
	if err := requireServiceRole(ctx, "attach organization"); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, r.db.Rebind(`
		UPDATE identities
		SET organization_id = ?, is_active = ?, is_approved = ?, phone = ?, updated_at = ?
		WHERE id = ?`), orgID, true, approved, phone, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return ensureProfileTx(ctx, r.db, tx, id, orgID, defaults, now)
}

// DetachOrganization clears the organization reference and drops the
// identity's permission profile. Detaching an unattached identity is a no-op.
func (r *IdentityRepo) DetachOrganization(ctx context.Context, id string) (err error) {
	if err := requireServiceRole(ctx, "detach organization"); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	if _, err = tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM permission_profiles WHERE identity_id = ?`), id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, r.db.Rebind(`
		UPDATE identities SET organization_id = NULL, is_active = ?, updated_at = ? WHERE id = ?`),
		false, time.Now().UTC(), id)
	return err
}

// Delete hard-deletes an identity and its dependent rows. Deleting a
// missing identity succeeds so the call can be retried.
func (r *IdentityRepo) Delete(ctx context.Context, id string) (err error) {
	if err := requireServiceRole(ctx, "delete identity"); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	for _, q := range []string{
		`DELETE FROM permission_profiles WHERE identity_id = ?`,
		`DELETE FROM refresh_tokens WHERE identity_id = ?`,
		`DELETE FROM invitations WHERE identity_id = ?`,
		`DELETE FROM identities WHERE id = ?`,
	} {
		if _, err = tx.ExecContext(ctx, r.db.Rebind(q), id); err != nil {
			return err
		}
	}
	return nil
}

// ListByOrganization returns the members of an organization ordered by name.
func (r *IdentityRepo) ListByOrganization(ctx context.Context, orgID string) ([]*model.Identity, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(
		"SELECT "+identityColumns+" FROM identities WHERE organization_id = ? ORDER BY name, email"), orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(s rowScanner) (*model.Identity, error) {
	var (
		i         model.Identity
		orgID     sql.NullString
		confirmed sql.NullTime
		meta      string
	)
	err := s.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.Name, &i.Phone, &i.Role, &orgID,
		&i.IsActive, &i.IsApproved, &confirmed, &meta, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}
	i.OrganizationID = orgID.String
	if confirmed.Valid {
		t := confirmed.Time
		i.EmailConfirmedAt = &t
	}
	i.Metadata = decodeMetadata(meta)
	return &i, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
