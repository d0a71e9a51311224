// Package mocks содержит моки интерфейсов хранилищ на testify/mock.
package mocks

import (
	"context"

	"github.com/maynagashev/autojob/internal/models"
	"github.com/maynagashev/autojob/internal/repository"
	"github.com/stretchr/testify/mock"
)

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository - мок repository.UserRepository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	created, _ := args.Get(0).(*models.User)
	return created, args.Error(1)
}

func (m *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepository) ReplaceResume(ctx context.Context, userID int64, filename string) (string, error) {
	args := m.Called(ctx, userID, filename)
	return args.String(0), args.Error(1)
}
