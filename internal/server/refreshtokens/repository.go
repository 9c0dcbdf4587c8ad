package refreshtokens

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, userID string, token string, validity time.Duration) error
	// Consume validates the token, removes it and returns the owning user id.
	Consume(ctx context.Context, token string) (string, error)
	DeleteByUser(ctx context.Context, userID string) error
}
