// Package cli implements the interactive tripmate client: a REPL over the
// reactive proposal state core, backed by the remote store and a local
// sqlite snapshot cache.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/mkravec/tripmate/internal/client/cache"
	"github.com/mkravec/tripmate/internal/client/config"
	"github.com/mkravec/tripmate/internal/client/services"
	"github.com/mkravec/tripmate/internal/client/state"
	"github.com/mkravec/tripmate/internal/client/store"
	"github.com/mkravec/tripmate/internal/core"
	"github.com/mkravec/tripmate/internal/logging"
)

type App struct {
	config *config.Config
	log    logging.Logger
	store  *store.RemoteStore
	cache  *cache.SQLiteCache
	reader *bufio.Reader

	// Session state, populated on login.
	controller  *state.Controller
	favorites   *services.FavoritesService
	userID      string
	userName    string
	cacheUnsubs []func()
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	db, err := cache.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "error initializing snapshot cache", "error", err)
		return nil, err
	}

	return &App{
		config: c,
		log:    log.With("module", "cli"),
		store:  store.NewRemoteStore(c.ServerBaseAddr, log),
		cache:  db,
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.controller != nil
}

// startSession builds the per-user state core after a successful login:
// seeds the snapshot cells from the local cache, arms the live
// subscriptions, and keeps the cache updated from incoming snapshots.
func (a *App) startSession(ctx context.Context, userID, userName string) {
	a.userID = userID
	a.userName = userName

	ctrl := state.NewController(userID, a.store, a.log)
	ctrl.Editor().SetDebounceInterval(a.config.DebounceInterval)
	a.controller = ctrl

	mgr := ctrl.Subscriptions()
	for _, key := range []state.Key{state.KeyAll, state.KeyOwnedBy(userID)} {
		if snap, err := a.cache.Load(ctx, string(key)); err == nil {
			mgr.Seed(key, snap)
		}
		key := key
		unsub := mgr.Snapshot(key).Subscribe(func(snap []core.Proposal) {
			if err := a.cache.Save(ctx, string(key), snap); err != nil {
				a.log.Warn(ctx, "failed to persist snapshot", "key", key, "error", err)
			}
		})
		a.cacheUnsubs = append(a.cacheUnsubs, unsub)
	}

	ctrl.StartListening()

	a.favorites = services.NewFavoritesService(a.store, ctrl.Views())
	if err := a.favorites.Refresh(ctx); err != nil {
		a.log.Warn(ctx, "failed to fetch favorites", "error", err)
	}
}

// endSession tears the state core down, keeping the cached snapshots for
// the next login.
func (a *App) endSession() {
	for _, unsub := range a.cacheUnsubs {
		unsub()
	}
	a.cacheUnsubs = nil

	if a.controller != nil {
		a.controller.Close()
		a.controller = nil
	}
	a.favorites = nil
	a.userID = ""
	a.userName = ""
}

func (a *App) Close() {
	a.endSession()
	if err := a.cache.Close(); err != nil {
		a.log.Warn(context.Background(), "failed to close snapshot cache", "error", err)
	}
}
