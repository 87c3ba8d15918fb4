package service

import (
	"context"
	"strings"

	"drivebox/internal/repository"
)

// UserSummary is the public slice of a user returned by search; it never
// carries credentials.
type UserSummary struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Avatar   string `json:"avatar"`
}

// UserService exposes user lookups for the share picker.
type UserService interface {
	// Search returns users matching q by email or name. An empty query or a
	// lookup failure yields an empty list, never an error, so the share
	// picker degrades instead of breaking.
	Search(ctx context.Context, id *Identity, q string) []UserSummary
}

type userService struct {
	repo repository.UserRepository
}

// NewUserService constructs a UserService.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) Search(ctx context.Context, id *Identity, q string) []UserSummary {
	q = strings.TrimSpace(q)
	if id == nil || id.UserID == "" || q == "" {
		return []UserSummary{}
	}
	users, err := s.repo.Search(ctx, q, 10)
	if err != nil {
		return []UserSummary{}
	}
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		// The caller already knows themselves; the picker wants others.
		if u.ID == id.UserID {
			continue
		}
		out = append(out, UserSummary{ID: u.ID, Email: u.Email, FullName: u.FullName, Avatar: u.Avatar})
	}
	return out
}
