package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/resumebuilder/internal/models"
	"github.com/HammerMeetNail/resumebuilder/internal/services"
	"github.com/HammerMeetNail/resumebuilder/internal/services/ai"
)

type mockUserService struct {
	CreateFunc         func(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordFunc func(ctx context.Context, userID uuid.UUID, newPasswordHash string) error
}

func (m *mockUserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserService) UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, userID, newPasswordHash)
	}
	return nil
}

type mockAuthService struct {
	ValidatePasswordFunc      func(password string) error
	HashPasswordFunc          func(password string) (string, error)
	VerifyPasswordFunc        func(hash, password string) bool
	CreateSessionFunc         func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateSessionFunc       func(ctx context.Context, token string) (*models.User, error)
	DeleteSessionFunc         func(ctx context.Context, token string) error
	DeleteAllUserSessionsFunc func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockAuthService) ValidatePassword(password string) error {
	if m.ValidatePasswordFunc != nil {
		return m.ValidatePasswordFunc(password)
	}
	return (&services.AuthService{}).ValidatePassword(password)
}

func (m *mockAuthService) HashPassword(password string) (string, error) {
	if m.HashPasswordFunc != nil {
		return m.HashPasswordFunc(password)
	}
	return "hashed_" + password, nil
}

func (m *mockAuthService) VerifyPassword(hash, password string) bool {
	if m.VerifyPasswordFunc != nil {
		return m.VerifyPasswordFunc(hash, password)
	}
	return hash == "hashed_"+password
}

func (m *mockAuthService) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, userID)
	}
	return "test_session_token", nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx, token)
	}
	return nil, nil
}

func (m *mockAuthService) DeleteSession(ctx context.Context, token string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, token)
	}
	return nil
}

func (m *mockAuthService) DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	if m.DeleteAllUserSessionsFunc != nil {
		return m.DeleteAllUserSessionsFunc(ctx, userID)
	}
	return nil
}

type mockResumeService struct {
	CreateFunc     func(ctx context.Context, userID uuid.UUID, content models.ResumeContent) (*models.Resume, error)
	ListByUserFunc func(ctx context.Context, userID uuid.UUID) ([]*models.Resume, error)
	GetFunc        func(ctx context.Context, userID, resumeID uuid.UUID) (*models.Resume, error)
	UpdateFunc     func(ctx context.Context, userID, resumeID uuid.UUID, content models.ResumeContent) (*models.Resume, error)
	DeleteFunc     func(ctx context.Context, userID, resumeID uuid.UUID) error
}

func (m *mockResumeService) Create(ctx context.Context, userID uuid.UUID, content models.ResumeContent) (*models.Resume, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, content)
	}
	return nil, nil
}

func (m *mockResumeService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Resume, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*models.Resume{}, nil
}

func (m *mockResumeService) Get(ctx context.Context, userID, resumeID uuid.UUID) (*models.Resume, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, resumeID)
	}
	return nil, nil
}

func (m *mockResumeService) Update(ctx context.Context, userID, resumeID uuid.UUID, content models.ResumeContent) (*models.Resume, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, userID, resumeID, content)
	}
	return nil, nil
}

func (m *mockResumeService) Delete(ctx context.Context, userID, resumeID uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, resumeID)
	}
	return nil
}

type mockSuggester struct {
	SuggestFunc func(ctx context.Context, userID uuid.UUID, req ai.SuggestionRequest) ([]string, error)
	calls       int
}

func (m *mockSuggester) Suggest(ctx context.Context, userID uuid.UUID, req ai.SuggestionRequest) ([]string, error) {
	m.calls++
	if m.SuggestFunc != nil {
		return m.SuggestFunc(ctx, userID, req)
	}
	return []string{}, nil
}
