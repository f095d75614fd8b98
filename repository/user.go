package repository

import (
	"context"

	"github.com/taskhub/backend/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail expects an already-normalized (trimmed, lowercased) email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	// Search matches the query as a case-insensitive substring of username
	// or email. An empty query returns all users.
	Search(ctx context.Context, query string) ([]domain.User, error)
	Delete(ctx context.Context, id string) error
}
