package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/resumebuilder/internal/models"
)

// UserServiceInterface defines the contract for user operations.
type UserServiceInterface interface {
	Create(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error
}

// AuthServiceInterface defines the contract for authentication operations.
type AuthServiceInterface interface {
	ValidatePassword(password string) error
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
	CreateSession(ctx context.Context, userID uuid.UUID) (token string, err error)
	ValidateSession(ctx context.Context, token string) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error
}

// ResumeServiceInterface defines the contract for resume persistence.
type ResumeServiceInterface interface {
	Create(ctx context.Context, userID uuid.UUID, content models.ResumeContent) (*models.Resume, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Resume, error)
	Get(ctx context.Context, userID, resumeID uuid.UUID) (*models.Resume, error)
	Update(ctx context.Context, userID, resumeID uuid.UUID, content models.ResumeContent) (*models.Resume, error)
	Delete(ctx context.Context, userID, resumeID uuid.UUID) error
}

var (
	_ UserServiceInterface   = (*UserService)(nil)
	_ AuthServiceInterface   = (*AuthService)(nil)
	_ ResumeServiceInterface = (*ResumeService)(nil)
)
