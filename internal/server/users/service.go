package users

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/mkravec/tripmate/internal/common"
	"github.com/mkravec/tripmate/internal/core"
	"github.com/mkravec/tripmate/internal/server/auth"
	"github.com/mkravec/tripmate/internal/server/config"
	"github.com/mkravec/tripmate/internal/server/refreshtokens"
)

// argon2id parameters used to derive password verifiers. Changing them
// invalidates every stored verifier, so they are fixed here rather than
// configurable.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Service struct {
	repo                         Repository
	refreshTokenRepo             refreshtokens.Repository
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewService(repo Repository, refreshTokenRepo refreshtokens.Repository, cfg *config.Config) *Service {
	return &Service{
		repo:                         repo,
		refreshTokenRepo:             refreshTokenRepo,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

func deriveVerifier(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

func (s *Service) checkVerifier(verifier, candidate []byte) bool {
	return subtle.ConstantTimeCompare(verifier, candidate) == 1
}

func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	salt := common.GenerateRandByteArray(32)

	user := &User{
		Username: username,
		Salt:     salt,
		Verifier: deriveVerifier(password, salt),
	}

	user, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrLoginAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

func (s *Service) generateAccessToken(user *User) (string, error) {
	return auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *Service) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *Service) issueTokenPair(ctx context.Context, user *User) (*TokenPair, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, common.ErrInternal
	}

	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrInternal
	}

	if err := s.refreshTokenRepo.Create(ctx, user.ID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.repo.GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidLoginOrPassword
		}
		return nil, common.ErrInternal
	}

	if !s.checkVerifier(user.Verifier, deriveVerifier(password, user.Salt)) {
		return nil, common.ErrInvalidLoginOrPassword
	}

	return s.issueTokenPair(ctx, user)
}

// Refresh exchanges a refresh token for a fresh pair. The old token is
// consumed by the lookup, so every refresh rotates the token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.refreshTokenRepo.Consume(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrInternal
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, common.ErrInternal
	}

	return s.issueTokenPair(ctx, user)
}

// Logout revokes every refresh token issued to the user.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.refreshTokenRepo.DeleteByUser(ctx, userID)
}

func (s *Service) Profile(ctx context.Context, userID string) (*core.Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, common.ErrInternal
	}

	favorites, err := s.repo.Favorites(ctx, userID)
	if err != nil {
		return nil, common.ErrInternal
	}

	return &core.Profile{ID: user.ID, Username: user.Username, Favorites: favorites}, nil
}

// ToggleFavorite flips the favorite state and reports the state after the
// flip.
func (s *Service) ToggleFavorite(ctx context.Context, userID, proposalID string) (bool, error) {
	return s.repo.ToggleFavorite(ctx, userID, proposalID)
}
