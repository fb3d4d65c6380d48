package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Preference is a stored trip-preference set owned by one account.
type Preference struct {
	ID            int64
	UserID        int64
	Categories    []string
	Locations     []string
	StartDate     *time.Time
	EndDate       *time.Time
	MaxDistanceKm *int
	MaxBudget     *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PreferenceRepository defines persistence operations for preferences.
type PreferenceRepository interface {
	Create(ctx context.Context, p *Preference) error
	ListByUser(ctx context.Context, userID int64) ([]Preference, error)
}

type PgPreferenceRepository struct {
	db *pgxpool.Pool
}

func NewPgPreferenceRepository(db *pgxpool.Pool) *PgPreferenceRepository {
	return &PgPreferenceRepository{db: db}
}

// Create persists p and fills in its ID and timestamps. Category and
// location lists map to text[] columns.
func (r *PgPreferenceRepository) Create(ctx context.Context, p *Preference) error {
	const q = `
INSERT INTO preferences (user_id, categories, locations, start_date, end_date, max_distance_km, max_budget)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, q,
		p.UserID, p.Categories, p.Locations, p.StartDate, p.EndDate, p.MaxDistanceKm, p.MaxBudget,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PgPreferenceRepository) ListByUser(ctx context.Context, userID int64) ([]Preference, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, user_id, categories, locations, start_date, end_date, max_distance_km, max_budget, created_at, updated_at
FROM preferences
WHERE user_id=$1
ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var prefs []Preference
	for rows.Next() {
		var p Preference
		if err := rows.Scan(&p.ID, &p.UserID, &p.Categories, &p.Locations, &p.StartDate, &p.EndDate, &p.MaxDistanceKm, &p.MaxBudget, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}
