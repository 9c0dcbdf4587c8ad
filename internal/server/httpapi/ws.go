package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mkravec/tripmate/internal/core"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 32 * 1024,
}

const writeTimeout = 10 * time.Second

// handleSubscribe upgrades to a websocket and pushes the full snapshot for
// the requested scope: once immediately, then again on every hub tick. The
// snapshot is re-queried per push so subscribers never see stale data, at
// the cost of one query per tick per connection.
func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	ownerID := r.URL.Query().Get("owner_id")

	switch scope {
	case "all":
	case "owner":
		if ownerID == "" {
			ownerID = userIDFrom(r.Context())
		}
	default:
		http.Error(w, "scope must be all or owner", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.log.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	log := h.log.With("scope", scope, "owner", ownerID)

	ticks, cancel := h.hub.Subscribe()
	defer cancel()

	// Reader goroutine: the client never sends data frames, but reading is
	// what surfaces close frames and broken connections.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	query := func() ([]core.Proposal, error) {
		if scope == "owner" {
			return h.proposals.SelectByOwner(ctx, ownerID)
		}
		return h.proposals.SelectAll(ctx)
	}

	push := func() bool {
		snap, err := query()
		if err != nil {
			log.Error(ctx, "snapshot query failed", "error", err)
			return false
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(snap); err != nil {
			return false
		}
		return true
	}

	if !push() {
		return
	}
	log.Debug(ctx, "subscription opened")

	for {
		select {
		case <-ticks:
			if !push() {
				log.Debug(ctx, "subscription closed on write failure")
				return
			}
		case <-closed:
			log.Debug(ctx, "subscription closed by peer")
			return
		case <-ctx.Done():
			return
		}
	}
}
