package services_test

import (
	"context"

	"easyhomes/internal/models"
	"easyhomes/pkg/rabbitmq"

	"github.com/stretchr/testify/mock"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// MockHomeRepository is a mock implementation of repositories.HomeRepository
type MockHomeRepository struct {
	mock.Mock
}

func (m *MockHomeRepository) GetAll(ctx context.Context) ([]models.Home, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Home), args.Error(1)
}

func (m *MockHomeRepository) GetByID(ctx context.Context, id string) (*models.Home, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Home), args.Error(1)
}

func (m *MockHomeRepository) Create(ctx context.Context, home *models.Home) error {
	return m.Called(ctx, home).Error(0)
}

func (m *MockHomeRepository) Update(ctx context.Context, home *models.Home) error {
	return m.Called(ctx, home).Error(0)
}

func (m *MockHomeRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	args := m.Called(ctx, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockCommitRepository is a mock implementation of repositories.CommitRepository
type MockCommitRepository struct {
	mock.Mock
}

func (m *MockCommitRepository) GetAll(ctx context.Context) ([]models.Commit, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Commit), args.Error(1)
}

func (m *MockCommitRepository) GetByID(ctx context.Context, id string) (*models.Commit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Commit), args.Error(1)
}

func (m *MockCommitRepository) GetByUserID(ctx context.Context, userID string) ([]models.Commit, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Commit), args.Error(1)
}

func (m *MockCommitRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Commit, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Commit), args.Error(1)
}

func (m *MockCommitRepository) Create(ctx context.Context, commit *models.Commit) error {
	return m.Called(ctx, commit).Error(0)
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishCommitCreated(ctx context.Context, event rabbitmq.CommitEvent) error {
	return m.Called(ctx, event).Error(0)
}
