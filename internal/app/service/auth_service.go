package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"music_charts_api/internal/common"
	"music_charts_api/internal/common/security"
	"music_charts_api/internal/domain/model"
	"music_charts_api/internal/domain/repository"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
)

type AuthService struct {
	userRepo repository.UserRepository
	codec    *security.TokenCodec
	validate *validator.Validate
	logger   *log.Logger
}

func NewAuthService(userRepo repository.UserRepository, codec *security.TokenCodec, logger *log.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		codec:    codec,
		validate: validator.New(),
		logger:   logger,
	}
}

type RegisterRequest struct {
	Username string     `json:"username" validate:"required,min=3,max=50"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=admin editor viewer"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = model.RoleViewer // Default role
	}

	if _, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username already registered: %w", common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Role:           req.Role,
		IsActive:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	user.HashedPassword = "" // Clear hash before returning
	return user, nil
}

func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", common.ErrValidation)
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Generic message for security
			return nil, fmt.Errorf("incorrect username or password: %w", common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(password, user.HashedPassword) {
		return nil, fmt.Errorf("incorrect username or password: %w", common.ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, common.ErrAccountInactive
	}

	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to stamp last login", "user", user.Username, "error", err)
	} else {
		user.LastLogin = &now
	}

	return user, nil
}

// IssueTokens produces a fresh access/refresh pair. Tokens are never
// persisted; validity is purely signature plus expiry, so a compromised
// token stays valid until it expires.
func (s *AuthService) IssueTokens(user *model.User) (*TokenPair, error) {
	accessToken, err := s.codec.GenerateAccessToken(user.Username, string(user.Role), user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.codec.GenerateRefreshToken(user.Username, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(s.codec.AccessTTL().Seconds()),
	}, nil
}

// Refresh rotates a valid refresh token into a new pair. Any verification
// failure, a wrong type tag, or a subject that no longer maps to an active
// user all surface as ErrInvalidToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	if security.TokenType(claims) != security.TokenTypeRefresh {
		return nil, common.ErrInvalidToken
	}
	username, err := security.SubjectFromClaims(claims)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil || !user.IsActive {
		return nil, common.ErrInvalidToken
	}

	return s.IssueTokens(user)
}

// GetCurrentUser resolves the authenticated user behind a verified access
// token.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, common.ErrAccountInactive
	}
	user.HashedPassword = ""
	return user, nil
}
