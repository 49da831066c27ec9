package repositories

import (
	"context"
	"database/sql"
	"time"

	"art_studio_backend/internal/models"
)

// AuthRepository defines the interface for authentication-related database operations.
type AuthRepository interface {
	CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByUsername(ctx context.Context, executor SQLExecutor, username string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(ctx context.Context, executor SQLExecutor, userID int64) (*models.User, error)
	FindRoleByName(ctx context.Context, executor SQLExecutor, name string) (*models.Role, error)
}

// authRepository implements the AuthRepository interface.
type authRepository struct{}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository() AuthRepository {
	return &authRepository{}
}

const userSelect = `
	SELECT u.id, u.username, u.password_hash, u.email, u.full_name, u.role_id, u.is_active, u.created_at, u.updated_at,
	       COALESCE(ro.name, '') AS role_name
	FROM users u
	LEFT JOIN roles ro ON u.role_id = ro.id`

func scanUser(s scanner) (*models.User, string, error) {
	user := &models.User{}
	var hashedPassword string
	var email, fullName sql.NullString
	var roleID sql.NullInt64
	var roleName string

	if err := s.Scan(&user.ID, &user.Username, &hashedPassword, &email, &fullName,
		&roleID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt, &roleName); err != nil {
		return nil, "", err
	}
	user.Email = nullStringPtr(email)
	user.FullName = nullStringPtr(fullName)
	if roleID.Valid {
		user.RoleID = &roleID.Int64
		if roleName != "" {
			user.Role = &models.Role{ID: roleID.Int64, Name: roleName}
		}
	}
	return user, hashedPassword, nil
}

// CreateUser inserts a new user. IsActive defaults to true.
// Unique violations surface as ErrDuplicateKey carrying the constraint name.
func (r *authRepository) CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (username, password_hash, email, full_name, role_id, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	          RETURNING id`

	var userID int64
	err := executor.QueryRowContext(ctx, query,
		user.Username, hashedPassword, user.Email, user.FullName, user.RoleID, true, time.Now(),
	).Scan(&userID)
	if err != nil {
		return 0, wrapError(err, "creating user")
	}
	return userID, nil
}

// FindUserByUsername retrieves a user and their hashed password.
func (r *authRepository) FindUserByUsername(ctx context.Context, executor SQLExecutor, username string) (*models.User, string, error) {
	user, hash, err := scanUser(executor.QueryRowContext(ctx, userSelect+` WHERE u.username = $1`, username))
	if err != nil {
		return nil, "", wrapError(err, "finding user by username")
	}
	return user, hash, nil
}

// FindUserByID retrieves a user profile. The password hash is never populated.
func (r *authRepository) FindUserByID(ctx context.Context, executor SQLExecutor, userID int64) (*models.User, error) {
	user, _, err := scanUser(executor.QueryRowContext(ctx, userSelect+` WHERE u.id = $1`, userID))
	if err != nil {
		return nil, wrapError(err, "finding user by id")
	}
	return user, nil
}

func (r *authRepository) FindRoleByName(ctx context.Context, executor SQLExecutor, name string) (*models.Role, error) {
	var role models.Role
	var description sql.NullString
	err := executor.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM roles WHERE LOWER(name) = LOWER($1)`, name,
	).Scan(&role.ID, &role.Name, &description, &role.CreatedAt)
	if err != nil {
		return nil, wrapError(err, "finding role")
	}
	role.Description = nullStringPtr(description)
	return &role, nil
}
