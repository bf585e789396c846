package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/salon-booking/internal/database"
	"github.com/iliyamo/salon-booking/internal/model"
)

// IndustryRepo reads the industry catalog.
type IndustryRepo struct{ db *database.DB }

func NewIndustryRepo(db *database.DB) *IndustryRepo { return &IndustryRepo{db: db} }

// List returns the whole catalog ordered by id.
func (r *IndustryRepo) List(ctx context.Context) ([]model.Industry, error) {
	return r.query(ctx, "SELECT id, name FROM industries ORDER BY id")
}

// FindByNames resolves catalog entries by exact name. Unknown names are
// simply absent from the result.
func (r *IndustryRepo) FindByNames(ctx context.Context, names []string) ([]model.Industry, error) {
	if len(names) == 0 {
		return nil, nil
	}
	ph := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	return r.query(ctx, "SELECT id, name FROM industries WHERE name IN ("+ph+") ORDER BY id", args...)
}

func (r *IndustryRepo) query(ctx context.Context, q string, args ...any) ([]model.Industry, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Industry
	for rows.Next() {
		var in model.Industry
		if err := rows.Scan(&in.ID, &in.Name); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
