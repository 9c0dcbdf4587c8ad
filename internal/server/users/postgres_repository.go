package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mkravec/tripmate/internal/common"
	"github.com/mkravec/tripmate/internal/dbx"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {
	query :=
		`INSERT INTO users (username, salt, password_verifier)
		 VALUES ($1, $2, $3)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Salt, user.Verifier).Scan(&user.ID)

	if err != nil {
		// 23505 is the postgres unique violation; matching on the message
		// keeps the repo driver-agnostic for tests.
		if strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "23505") {
			return nil, common.ErrLoginAlreadyExists
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, username string) (*User, error) {
	query :=
		`SELECT id, username, salt, password_verifier FROM users
		 WHERE username = $1
		 `

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.Salt, &user.Verifier)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	query :=
		`SELECT id, username, salt, password_verifier FROM users
		 WHERE id = $1
		 `

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Username, &user.Salt, &user.Verifier)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) Favorites(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT proposal_id FROM favorites WHERE user_id = $1 ORDER BY proposal_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *PostgresRepository) AddFavorite(ctx context.Context, userID, proposalID string) error {
	return addFavorite(ctx, r.db, userID, proposalID)
}

func (r *PostgresRepository) RemoveFavorite(ctx context.Context, userID, proposalID string) error {
	return removeFavorite(ctx, r.db, userID, proposalID)
}

func (r *PostgresRepository) IsFavorite(ctx context.Context, userID, proposalID string) (bool, error) {
	return isFavorite(ctx, r.db, userID, proposalID)
}

// ToggleFavorite runs the check and the flip inside one transaction so that
// concurrent toggles for the same pair cannot interleave.
func (r *PostgresRepository) ToggleFavorite(ctx context.Context, userID, proposalID string) (bool, error) {
	var nowFavorite bool

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		exists, err := isFavorite(ctx, tx, userID, proposalID)
		if err != nil {
			return err
		}
		if exists {
			if err := removeFavorite(ctx, tx, userID, proposalID); err != nil {
				return err
			}
		} else {
			if err := addFavorite(ctx, tx, userID, proposalID); err != nil {
				return err
			}
		}
		nowFavorite = !exists
		return nil
	})
	if err != nil {
		return false, err
	}

	return nowFavorite, nil
}

func addFavorite(ctx context.Context, db dbx.DBTX, userID, proposalID string) error {
	query :=
		`INSERT INTO favorites (user_id, proposal_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING
		 `

	if _, err := db.ExecContext(ctx, query, userID, proposalID); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func removeFavorite(ctx context.Context, db dbx.DBTX, userID, proposalID string) error {
	query := `DELETE FROM favorites WHERE user_id = $1 AND proposal_id = $2`

	if _, err := db.ExecContext(ctx, query, userID, proposalID); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func isFavorite(ctx context.Context, db dbx.DBTX, userID, proposalID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND proposal_id = $2)`

	var exists bool
	if err := db.QueryRowContext(ctx, query, userID, proposalID).Scan(&exists); err != nil {
		return false, fmt.Errorf("error performing sql request: %w", err)
	}
	return exists, nil
}
