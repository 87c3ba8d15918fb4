package repository

import (
	"context"

	"drivebox/internal/model"
)

// UserRepository defines data access for user accounts.
type UserRepository interface {
	// Create inserts a new user and returns the stored row.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByID returns a user by ID.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail returns a user by exact email.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Search returns up to limit users whose email or full name contains q,
	// case-insensitively.
	Search(ctx context.Context, q string, limit int) ([]model.User, error)
}
