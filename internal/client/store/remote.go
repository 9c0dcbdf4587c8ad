package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mkravec/tripmate/internal/common"
	"github.com/mkravec/tripmate/internal/core"
	"github.com/mkravec/tripmate/internal/logging"
	"github.com/mkravec/tripmate/internal/netx"
)

// TokenPair carries jwt access/refresh tokens issued by the server.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type presignResponse struct {
	Key       string `json:"key"`
	PutURL    string `json:"put_url"`
	ObjectURL string `json:"object_url"`
}

// RemoteStore talks to the tripmate server: websocket subscriptions for
// snapshot streams, plain HTTP JSON for one-shot operations. It refreshes
// the access token once on 401 responses, the same way the previous
// request would have been retried by hand.
type RemoteStore struct {
	baseURL string
	http    *http.Client
	log     logging.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewRemoteStore(baseURL string, log logging.Logger) *RemoteStore {
	return &RemoteStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     log.With("module", "remote_store"),
	}
}

// SetTokens installs the token pair to use for subsequent requests.
func (s *RemoteStore) SetTokens(tp TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = tp.AccessToken
	s.refreshToken = tp.RefreshToken
}

func (s *RemoteStore) token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// Register creates an account on the server.
func (s *RemoteStore) Register(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	return s.doJSON(ctx, http.MethodPost, "/api/auth/register", body, nil)
}

// Login authenticates and installs the returned token pair.
func (s *RemoteStore) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	var tp TokenPair
	if err := s.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &tp); err != nil {
		return err
	}
	s.SetTokens(tp)
	return nil
}

func (s *RemoteStore) ObserveAll(ctx context.Context) (<-chan []core.Proposal, error) {
	return s.observe(ctx, "all", "")
}

func (s *RemoteStore) ObserveByOwner(ctx context.Context, ownerID string) (<-chan []core.Proposal, error) {
	return s.observe(ctx, "owner", ownerID)
}

func (s *RemoteStore) observe(ctx context.Context, scope, ownerID string) (<-chan []core.Proposal, error) {
	wsURL, err := s.subscribeURL(scope, ownerID)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set(common.AuthorizationHeader, common.BearerPrefix+s.token())

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("subscribe dial failed: %w", err)
	}

	ch := make(chan []core.Proposal, 8)

	// Unblock the reader when the subscription context ends.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	go func() {
		defer close(ch)
		for {
			var snap []core.Proposal
			if err := conn.ReadJSON(&snap); err != nil {
				if ctx.Err() == nil {
					s.log.Warn(ctx, "subscription stream ended", "scope", scope, "error", err)
				}
				return
			}
			select {
			case ch <- snap:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

func (s *RemoteStore) subscribeURL(scope, ownerID string) (string, error) {
	u, err := url.Parse(s.baseURL + "/api/subscribe")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	q := u.Query()
	q.Set("scope", scope)
	if ownerID != "" {
		q.Set("owner_id", ownerID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *RemoteStore) GetByID(ctx context.Context, id string) (*core.Proposal, error) {
	var p core.Proposal
	if err := s.doJSON(ctx, http.MethodGet, "/api/proposals/"+id, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *RemoteStore) Create(ctx context.Context, p core.Proposal, localImages []string) error {
	uploaded, err := s.uploadImages(ctx, localImages)
	if err != nil {
		return err
	}
	p.ImageURLs = append(p.ImageURLs, uploaded...)
	return s.doJSON(ctx, http.MethodPost, "/api/proposals", p, nil)
}

func (s *RemoteStore) Update(ctx context.Context, p core.Proposal, localImages []string) error {
	uploaded, err := s.uploadImages(ctx, localImages)
	if err != nil {
		return err
	}
	p.ImageURLs = append(p.ImageURLs, uploaded...)
	return s.doJSON(ctx, http.MethodPut, "/api/proposals/"+p.ID, p, nil)
}

func (s *RemoteStore) DeleteByID(ctx context.Context, id string) error {
	return s.doJSON(ctx, http.MethodDelete, "/api/proposals/"+id, nil, nil)
}

// Profile fetches the caller's profile, favorites included.
func (s *RemoteStore) Profile(ctx context.Context) (*core.Profile, error) {
	var p core.Profile
	if err := s.doJSON(ctx, http.MethodGet, "/api/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ToggleFavorite flips the favorite state of a proposal on the server.
func (s *RemoteStore) ToggleFavorite(ctx context.Context, proposalID string) error {
	body := map[string]string{"proposal_id": proposalID}
	return s.doJSON(ctx, http.MethodPost, "/api/profile/favorites", body, nil)
}

// uploadImages pushes each pending local image through a presigned PUT URL
// and returns the stored object URLs in input order.
func (s *RemoteStore) uploadImages(ctx context.Context, localImages []string) ([]string, error) {
	if len(localImages) == 0 {
		return nil, nil
	}

	urls := make([]string, 0, len(localImages))
	for _, path := range localImages {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading image %s: %w", path, err)
		}

		var presign presignResponse
		if err := s.doJSON(ctx, http.MethodPost, "/api/images/presign", nil, &presign); err != nil {
			return nil, fmt.Errorf("presign failed: %w", err)
		}

		contentType := mime.TypeByExtension(filepath.Ext(path))
		if err := netx.UploadToPresignedURL(ctx, presign.PutURL, data, contentType); err != nil {
			return nil, fmt.Errorf("uploading image %s: %w", path, err)
		}
		urls = append(urls, presign.ObjectURL)
	}
	return urls, nil
}

func (s *RemoteStore) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := s.do(ctx, method, path, body)
	if err != nil {
		return err
	}

	// One refresh attempt on an expired access token, then retry.
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if err := s.refresh(ctx); err != nil {
			return common.ErrUnauthorized
		}
		if resp, err = s.do(ctx, method, path, body); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return common.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return common.ErrUnauthorized
	case resp.StatusCode >= 400:
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(b)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *RemoteStore) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := s.token(); token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}

	return s.http.Do(req)
}

func (s *RemoteStore) refresh(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.mu.Unlock()
	if refreshToken == "" {
		return common.ErrUnauthorized
	}

	body := map[string]string{"refresh_token": refreshToken}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/auth/refresh", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return common.ErrUnauthorized
	}

	var tp TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&tp); err != nil {
		return err
	}
	s.SetTokens(tp)
	return nil
}
