// Package db wires the server's repositories to a concrete database.
package db

import (
	"context"
	"database/sql"

	"github.com/mkravec/tripmate/internal/server/proposals"
	"github.com/mkravec/tripmate/internal/server/refreshtokens"
	"github.com/mkravec/tripmate/internal/server/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	RefreshTokens() refreshtokens.Repository
	Proposals() proposals.Repository
	Close() error
}
