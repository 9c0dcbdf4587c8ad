// Package httpapi exposes the tripmate server over HTTP: JSON endpoints for
// auth, proposals, profile and image presigning, plus the websocket
// subscription stream.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkravec/tripmate/internal/common"
	"github.com/mkravec/tripmate/internal/core"
	"github.com/mkravec/tripmate/internal/logging"
	"github.com/mkravec/tripmate/internal/server/images"
	"github.com/mkravec/tripmate/internal/server/users"
)

// UserService is the slice of the users service the transport needs.
type UserService interface {
	Register(ctx context.Context, username, password string) (*users.User, error)
	Login(ctx context.Context, username, password string) (*users.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*users.TokenPair, error)
	Profile(ctx context.Context, userID string) (*core.Profile, error)
	ToggleFavorite(ctx context.Context, userID, proposalID string) (bool, error)
}

type ProposalService interface {
	Create(ctx context.Context, userID string, p core.Proposal) (*core.Proposal, error)
	Update(ctx context.Context, userID string, p core.Proposal) (*core.Proposal, error)
	Delete(ctx context.Context, userID, id string) error
	GetByID(ctx context.Context, id string) (*core.Proposal, error)
	SelectAll(ctx context.Context) ([]core.Proposal, error)
	SelectByOwner(ctx context.Context, ownerID string) ([]core.Proposal, error)
	Join(ctx context.Context, id string) (*core.Proposal, error)
	Conclude(ctx context.Context, userID, id string) (*core.Proposal, error)
}

type ImageService interface {
	PresignPut(ctx context.Context) (*images.Presigned, error)
}

// TickSource delivers change notifications to subscription handlers.
type TickSource interface {
	Subscribe() (<-chan struct{}, func())
}

type Handler struct {
	users     UserService
	proposals ProposalService
	images    ImageService
	hub       TickSource
	jwtSecret []byte
	log       logging.Logger
}

func NewHandler(users UserService, proposals ProposalService, images ImageService, hub TickSource, jwtSecret []byte, log logging.Logger) *Handler {
	return &Handler{
		users:     users,
		proposals: proposals,
		images:    images,
		hub:       hub,
		jwtSecret: jwtSecret,
		log:       log.With("component", "httpapi"),
	}
}

// Routes builds the full route table. Everything except registration, login
// and token refresh sits behind the bearer-token middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", h.handleRefresh)

	mux.Handle("GET /api/proposals", h.auth(h.handleListProposals))
	mux.Handle("POST /api/proposals", h.auth(h.handleCreateProposal))
	mux.Handle("GET /api/proposals/{id}", h.auth(h.handleGetProposal))
	mux.Handle("PUT /api/proposals/{id}", h.auth(h.handleUpdateProposal))
	mux.Handle("DELETE /api/proposals/{id}", h.auth(h.handleDeleteProposal))
	mux.Handle("POST /api/proposals/{id}/join", h.auth(h.handleJoinProposal))
	mux.Handle("POST /api/proposals/{id}/conclude", h.auth(h.handleConcludeProposal))

	mux.Handle("GET /api/profile", h.auth(h.handleProfile))
	mux.Handle("POST /api/profile/favorites", h.auth(h.handleToggleFavorite))

	mux.Handle("POST /api/images/presign", h.auth(h.handlePresign))

	mux.Handle("GET /api/subscribe", h.auth(h.handleSubscribe))

	return mux
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	if _, err := h.users.Register(r.Context(), req.Username, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pair, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pair, err := h.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *Handler) handleListProposals(w http.ResponseWriter, r *http.Request) {
	if ownerID := r.URL.Query().Get("owner_id"); ownerID != "" {
		list, err := h.proposals.SelectByOwner(r.Context(), ownerID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, r, list)
		return
	}

	list, err := h.proposals.SelectAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, list)
}

func (h *Handler) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var p core.Proposal
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.proposals.Create(r.Context(), userIDFrom(r.Context()), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	h.writeBody(w, r, created)
}

func (h *Handler) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	p, err := h.proposals.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, p)
}

func (h *Handler) handleUpdateProposal(w http.ResponseWriter, r *http.Request) {
	var p core.Proposal
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p.ID = r.PathValue("id")

	updated, err := h.proposals.Update(r.Context(), userIDFrom(r.Context()), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, updated)
}

func (h *Handler) handleDeleteProposal(w http.ResponseWriter, r *http.Request) {
	if err := h.proposals.Delete(r.Context(), userIDFrom(r.Context()), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleJoinProposal(w http.ResponseWriter, r *http.Request) {
	p, err := h.proposals.Join(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, p)
}

func (h *Handler) handleConcludeProposal(w http.ResponseWriter, r *http.Request) {
	p, err := h.proposals.Conclude(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, p)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.Profile(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, profile)
}

func (h *Handler) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProposalID string `json:"proposal_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ProposalID == "" {
		http.Error(w, "proposal_id is required", http.StatusBadRequest)
		return
	}

	nowFavorite, err := h.users.ToggleFavorite(r.Context(), userIDFrom(r.Context()), req.ProposalID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, map[string]bool{"favorite": nowFavorite})
}

func (h *Handler) handlePresign(w http.ResponseWriter, r *http.Request) {
	presigned, err := h.images.PresignPut(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, presigned)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	h.writeBody(w, r, v)
}

func (h *Handler) writeBody(w http.ResponseWriter, r *http.Request, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error(r.Context(), "response encoding failed", "path", r.URL.Path, "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidLoginOrPassword):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, common.ErrProposalNotOwned):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, common.ErrValidation):
		http.Error(w, "validation failed", http.StatusBadRequest)
	case errors.Is(err, common.ErrLoginAlreadyExists):
		http.Error(w, "login already exists", http.StatusConflict)
	case errors.Is(err, common.ErrProposalFull):
		http.Error(w, "proposal is full", http.StatusConflict)
	default:
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
