package handlers_test

import (
	"context"
	"io"

	"github.com/maynagashev/autojob/internal/models"
	"github.com/maynagashev/autojob/internal/upload"
	"github.com/stretchr/testify/mock"
)

// --- Mock AuthService --- //

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req models.LoginRequest) (string, *models.User, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(1).(*models.User)
	return args.String(0), user, args.Error(2)
}

func (m *MockAuthService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

// --- Mock ResumeService --- //

type MockResumeService struct {
	mock.Mock
}

func (m *MockResumeService) Upload(ctx context.Context, userID int64, file *upload.StagedFile) (string, error) {
	args := m.Called(ctx, userID, file)
	return args.String(0), args.Error(1)
}

func (m *MockResumeService) Open(ctx context.Context, userID int64) (io.ReadCloser, *models.Resume, error) {
	args := m.Called(ctx, userID)
	rc, _ := args.Get(0).(io.ReadCloser)
	resume, _ := args.Get(1).(*models.Resume)
	return rc, resume, args.Error(2)
}

// --- Mock DashboardService --- //

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Load(ctx context.Context, userID int64) (*models.Dashboard, error) {
	args := m.Called(ctx, userID)
	d, _ := args.Get(0).(*models.Dashboard)
	return d, args.Error(1)
}
