package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hydrashare/backend/internal/app/models"
	"github.com/hydrashare/backend/internal/app/models/dto"
	"github.com/hydrashare/backend/internal/pkg/apperrors"
	"github.com/hydrashare/backend/internal/pkg/auth"
	"github.com/hydrashare/backend/internal/pkg/validation"
	"github.com/hydrashare/backend/internal/store"
)

// UserService defines the interface for user account operations
type UserService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	GetProfile(ctx context.Context, userID string) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	store      store.Store
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(docStore store.Store, jwtService *auth.JWTService, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		store:      docStore,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Register creates a fresh user document with zero counters and returns it
// with a token pair
func (s *userServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Binding validates the raw input; the normalized form is checked again
	// since it is what gets stored
	if !validation.ValidEmail(email) {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "Invalid email address")
	}

	taken, err := s.emailTaken(ctx, email)
	if err != nil {
		return nil, apperrors.NewWriteFailureError(err, "Failed to check email")
	}
	if taken {
		return nil, apperrors.NewConflictError(apperrors.ErrEmailAlreadyExists, "Email is already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		return nil, apperrors.NewWriteFailureError(err, "Failed to register user")
	}

	user := models.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		College:      req.College,
		Points:       0,
		Tier:         "Bronze III",
		Badges:       map[string]bool{},
		Stats:        models.UserStats{},
		CreatedAt:    time.Now().UnixMilli(),
	}

	if err := s.store.Write(ctx, "users/"+user.ID, user); err != nil {
		s.logger.Error().Err(err).
			Str("email", email).
			Msg("Failed to store user")
		return nil, apperrors.NewWriteFailureError(err, "Failed to register user")
	}

	accessToken, refreshToken, expiresIn, err := s.jwtService.GenerateTokenPair(&user)
	if err != nil {
		s.logger.Error().Err(err).
			Str("userID", user.ID).
			Msg("Failed to issue token pair")
		return nil, apperrors.NewWriteFailureError(err, "Failed to issue tokens")
	}

	s.logger.Info().
		Str("userID", user.ID).
		Str("email", email).
		Msg("User registered")

	return &dto.RegisterResponse{
		User: dto.NewProfileResponse(&user),
		Tokens: dto.TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    expiresIn,
		},
	}, nil
}

// GetProfile returns the user's profile including points, tier and badges
func (s *userServiceImpl) GetProfile(ctx context.Context, userID string) (*dto.ProfileResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	response := dto.NewProfileResponse(user)
	return &response, nil
}

// UpdateProfile applies the editable profile fields
func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.store.Merge(ctx, "users/"+userID, map[string]interface{}{
		"college": req.College,
	}); err != nil {
		return nil, apperrors.NewWriteFailureError(err, "Failed to update profile")
	}

	return s.GetProfile(ctx, userID)
}

func (s *userServiceImpl) loadUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.store.Read(ctx, "users/"+userID, &user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrUserNotFound, "User not found")
		}
		return nil, apperrors.NewWriteFailureError(err, "Failed to load user")
	}
	user.ID = userID
	return &user, nil
}

// emailTaken scans the users collection for the email. The collection read
// stands in for the unique index a relational schema would enforce.
func (s *userServiceImpl) emailTaken(ctx context.Context, email string) (bool, error) {
	var users map[string]struct {
		Email string `json:"email"`
	}
	if err := s.store.Read(ctx, "users", &users); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	for _, user := range users {
		if strings.EqualFold(user.Email, email) {
			return true, nil
		}
	}
	return false, nil
}
