package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PreferencesRepository implements domain.PreferencesRepository using PostgreSQL.
// Preferences are stored as a single JSONB document per email.
type PreferencesRepository struct {
	pool *pgxpool.Pool
}

// NewPreferencesRepository creates a new PreferencesRepository
func NewPreferencesRepository(pool *pgxpool.Pool) *PreferencesRepository {
	return &PreferencesRepository{pool: pool}
}

// GetByEmail retrieves the stored preferences for an email
func (r *PreferencesRepository) GetByEmail(ctx context.Context, email string) (*domain.UserPreferences, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, preferences, created_at, updated_at
		FROM user_preferences
		WHERE email = $1`,
		email,
	)
	up, err := scanUserPreferences(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return up, nil
}

// Upsert creates or replaces the preferences document for an email
func (r *PreferencesRepository) Upsert(ctx context.Context, email string, prefs domain.Preferences) (*domain.UserPreferences, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_preferences (id, email, preferences)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE
		SET preferences = EXCLUDED.preferences, updated_at = NOW()
		RETURNING id, email, preferences, created_at, updated_at`,
		uuid.New(), email, prefs,
	)
	return scanUserPreferences(row)
}

func scanUserPreferences(row pgx.Row) (*domain.UserPreferences, error) {
	var up domain.UserPreferences
	if err := row.Scan(&up.ID, &up.Email, &up.Preferences, &up.CreatedAt, &up.UpdatedAt); err != nil {
		return nil, err
	}
	return &up, nil
}
