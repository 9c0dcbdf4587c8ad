package users

import "context"

type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetUserByLogin(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Favorites(ctx context.Context, userID string) ([]string, error)
	AddFavorite(ctx context.Context, userID, proposalID string) error
	RemoveFavorite(ctx context.Context, userID, proposalID string) error
	IsFavorite(ctx context.Context, userID, proposalID string) (bool, error)
	// ToggleFavorite flips the favorite state atomically and reports the
	// state after the flip.
	ToggleFavorite(ctx context.Context, userID, proposalID string) (bool, error)
}
