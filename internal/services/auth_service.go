package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"art_studio_backend/internal/models"
	"art_studio_backend/internal/repositories"
	"art_studio_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already exists")
	ErrRoleNotFound       = errors.New("specified role not found")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUserRequest DTO
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	RoleName string `json:"role_name"` // "Admin" or "Staff"; Staff if empty
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

// --- AuthService Interface ---
type AuthService interface {
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*models.User, error)
	LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo repositories.AuthRepository
	db       repositories.SQLExecutor
	tokens   *utils.TokenManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, db repositories.SQLExecutor, tokens *utils.TokenManager) AuthService {
	return &authService{authRepo: authRepo, db: db, tokens: tokens}
}

// RegisterUser handles the business logic for user registration.
func (s *authService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*models.User, error) {
	roleName := strings.TrimSpace(req.RoleName)
	if roleName == "" {
		roleName = models.RoleStaff
	}
	role, err := s.authRepo.FindRoleByName(ctx, s.db, roleName)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrRoleNotFound, roleName)
		}
		return nil, fmt.Errorf("failed to resolve role: %w", err)
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    utils.NewNullString(req.Email),
		FullName: utils.NewNullString(req.FullName),
		RoleID:   &role.ID,
	}

	createdUserID, err := s.authRepo.CreateUser(ctx, s.db, &user, string(hashedPasswordBytes))
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// the repository error carries the constraint name
			if strings.Contains(err.Error(), "users_email_key") {
				return nil, ErrEmailExists
			}
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	registeredUser, err := s.authRepo.FindUserByID(ctx, s.db, createdUserID)
	if err != nil {
		return nil, fmt.Errorf("user registered but failed to retrieve full details: %w", err)
	}
	return registeredUser, nil
}

// LoginUser handles user login and token generation.
func (s *authService) LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, storedHashedPassword, err := s.authRepo.FindUserByUsername(ctx, s.db, req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Username, user.DisplayName(), roleName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return &AuthResponse{User: user, AccessToken: accessToken}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	return user, nil
}
