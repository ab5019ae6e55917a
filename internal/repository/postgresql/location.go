package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/master/location"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type locationRepositoryImpl struct {
	db *database.DB
}

func NewLocationRepository(db *database.DB) location.LocationRepository {
	return &locationRepositoryImpl{db: db}
}

// GetByCode implements location.LocationRepository.
func (r *locationRepositoryImpl) GetByCode(ctx context.Context, code string) (location.Location, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, code, name, created_at, updated_at
		FROM locations
		WHERE code = $1
	`

	var result location.Location
	err := q.QueryRow(ctx, query, code).Scan(
		&result.ID,
		&result.Code,
		&result.Name,
		&result.CreatedAt,
		&result.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return location.Location{}, location.ErrLocationNotFound
		}
		return location.Location{}, fmt.Errorf("failed to get location: %w", err)
	}

	return result, nil
}
