package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/salon-booking/internal/database"
	"github.com/iliyamo/salon-booking/internal/model"
)

// OrganizationRepo handles persistence of organizations and their
// industry links.
type OrganizationRepo struct{ db *database.DB }

func NewOrganizationRepo(db *database.DB) *OrganizationRepo { return &OrganizationRepo{db: db} }

// Create inserts an organization. Name and phone are unique; a collision
// surfaces as ErrDuplicate.
func (r *OrganizationRepo) Create(ctx context.Context, o *model.Organization) error {
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO organizations (id, name, email, phone, address, address_detail, postal_code, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		o.ID, o.Name, o.Email, o.Phone, o.Address, o.AddressDetail, o.PostalCode, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID fetches a single organization.
func (r *OrganizationRepo) GetByID(ctx context.Context, id string) (*model.Organization, error) {
	var o model.Organization
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT id, name, email, phone, address, address_detail, postal_code, created_at, updated_at
		FROM organizations WHERE id = ?`), id).
		Scan(&o.ID, &o.Name, &o.Email, &o.Phone, &o.Address, &o.AddressDetail, &o.PostalCode, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ExistsByName reports whether an organization with exactly this name exists.
func (r *OrganizationRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM organizations WHERE name = ? LIMIT 1", name)
}

// ExistsByPhone reports whether an organization uses phone.
func (r *OrganizationRepo) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM organizations WHERE phone = ? LIMIT 1", phone)
}

func (r *OrganizationRepo) exists(ctx context.Context, q string, args ...any) (bool, error) {
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

// LinkIndustries records the organization's industries in one statement.
// An empty list is a no-op.
func (r *OrganizationRepo) LinkIndustries(ctx context.Context, orgID string, industryIDs []int64) error {
	if len(industryIDs) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO organization_industries (organization_id, industry_id) VALUES ")
	args := make([]any, 0, len(industryIDs)*2)
	for i, id := range industryIDs {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?)")
		args = append(args, orgID, id)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(sb.String()), args...); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("link industries: %w", err)
	}
	return nil
}

// IndustryIDs lists the industries linked to an organization.
func (r *OrganizationRepo) IndustryIDs(ctx context.Context, orgID string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(
		"SELECT industry_id FROM organization_industries WHERE organization_id = ? ORDER BY industry_id"), orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes the organization together with its industry links,
// member permission profiles and pending invitations, and unlinks members.
// Deleting a missing organization succeeds.
func (r *OrganizationRepo) Delete(ctx context.Context, id string) (err error) {
	if err := requireServiceRole(ctx, "delete organization"); err != nil {
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
		`DELETE FROM organization_industries WHERE organization_id = ?`,
		`DELETE FROM permission_profiles WHERE organization_id = ?`,
		`DELETE FROM invitations WHERE organization_id = ?`,
		`UPDATE identities SET organization_id = NULL WHERE organization_id = ?`,
		`DELETE FROM organizations WHERE id = ?`,
	} {
		if _, err = tx.ExecContext(ctx, r.db.Rebind(q), id); err != nil {
			return err
		}
	}
	return nil
}
