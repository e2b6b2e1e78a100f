package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jengzang/activity-backend-go/internal/models"
)

// SportRepository handles database operations for sports
type SportRepository struct {
	db *sql.DB
}

// NewSportRepository creates a new sport repository
func NewSportRepository(db *sql.DB) *SportRepository {
	return &SportRepository{db: db}
}

// GetByID retrieves a sport by ID
func (r *SportRepository) GetByID(ctx context.Context, id int64) (*models.Sport, error) {
	var s models.Sport
	err := r.db.QueryRowContext(ctx, "SELECT id, label FROM sports WHERE id = ?", id).Scan(&s.ID, &s.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sport: %w", err)
	}
	return &s, nil
}

// List retrieves all sports ordered by label
func (r *SportRepository) List(ctx context.Context) ([]models.Sport, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, label FROM sports ORDER BY label")
	if err != nil {
		return nil, fmt.Errorf("failed to query sports: %w", err)
	}
	defer rows.Close()

	var sports []models.Sport
	for rows.Next() {
		var s models.Sport
		if err := rows.Scan(&s.ID, &s.Label); err != nil {
			return nil, fmt.Errorf("failed to scan sport: %w", err)
		}
		sports = append(sports, s)
	}
	return sports, rows.Err()
}
