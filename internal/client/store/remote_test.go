package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravec/tripmate/internal/common"
	"github.com/mkravec/tripmate/internal/core"
	"github.com/mkravec/tripmate/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func TestRemoteStore_Login_InstallsTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "alice", body["username"])
		_ = json.NewEncoder(w).Encode(TokenPair{AccessToken: "at", RefreshToken: "rt"})
	}))
	defer srv.Close()

	s := NewRemoteStore(srv.URL, testLogger())
	require.NoError(t, s.Login(context.Background(), "alice", "secret"))
	assert.Equal(t, "at", s.token())
}

func TestRemoteStore_GetByID_MapsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewRemoteStore(srv.URL, testLogger())
	_, err := s.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRemoteStore_RefreshOnUnauthorized(t *testing.T) {
	var refreshed bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh":
			refreshed = true
			_ = json.NewEncoder(w).Encode(TokenPair{AccessToken: "new-at", RefreshToken: "new-rt"})
		case "/api/proposals/p1":
			if r.Header.Get(common.AuthorizationHeader) != common.BearerPrefix+"new-at" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(core.Proposal{ID: "p1"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := NewRemoteStore(srv.URL, testLogger())
	s.SetTokens(TokenPair{AccessToken: "stale", RefreshToken: "rt"})

	p, err := s.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "new-at", s.token())
}

func TestRemoteStore_Create_UploadsPendingImagesFirst(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(imgPath, []byte("jpeg-bytes"), 0o600))

	var uploaded []byte
	var created core.Proposal

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/api/images/presign", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(presignResponse{
			Key:       "k1",
			PutURL:    srv.URL + "/upload/k1",
			ObjectURL: "https://img.test/k1",
		})
	})
	mux.HandleFunc("/upload/k1", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		buf := make([]byte, 32)
		n, _ := r.Body.Read(buf)
		uploaded = buf[:n]
	})
	mux.HandleFunc("/api/proposals", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		w.WriteHeader(http.StatusCreated)
	})

	s := NewRemoteStore(srv.URL, testLogger())
	err := s.Create(context.Background(), core.Proposal{Name: "Alps"}, []string{imgPath})
	require.NoError(t, err)

	assert.Equal(t, []byte("jpeg-bytes"), uploaded)
	assert.Equal(t, []string{"https://img.test/k1"}, created.ImageURLs)
}

func TestRemoteStore_ObserveAll_StreamsSnapshots(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/subscribe", r.URL.Path)
		require.Equal(t, "all", r.URL.Query().Get("scope"))
		require.Equal(t, common.BearerPrefix+"tok", r.Header.Get(common.AuthorizationHeader))

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		_ = conn.WriteJSON([]core.Proposal{{ID: "p1"}})
		_ = conn.WriteJSON([]core.Proposal{{ID: "p1"}, {ID: "p2"}})
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	s := NewRemoteStore(srv.URL, testLogger())
	s.SetTokens(TokenPair{AccessToken: "tok"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.ObserveAll(ctx)
	require.NoError(t, err)

	first := waitSnapshot(t, ch)
	require.Len(t, first, 1)
	second := waitSnapshot(t, ch)
	require.Len(t, second, 2)
	assert.Equal(t, "p2", second[1].ID)
}
