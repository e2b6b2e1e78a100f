package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jengzang/activity-backend-go/internal/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx, "SELECT id, username, timezone FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.Username, &u.Timezone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// Create inserts a user and sets its ID
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO users (username, timezone) VALUES (?, ?)", u.Username, u.Timezone)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", wrapConstraint(err))
	}
	u.ID, err = res.LastInsertId()
	return err
}
