package mocks

import (
	"context"

	"github.com/maynagashev/autojob/internal/models"
	"github.com/maynagashev/autojob/internal/repository"
	"github.com/stretchr/testify/mock"
)

var _ repository.ApplicationRepository = (*ApplicationRepository)(nil)

// ApplicationRepository - мок repository.ApplicationRepository.
type ApplicationRepository struct {
	mock.Mock
}

func (m *ApplicationRepository) ListRecentByUserID(
	ctx context.Context,
	userID int64,
	limit int,
) ([]models.Application, error) {
	args := m.Called(ctx, userID, limit)
	apps, _ := args.Get(0).([]models.Application)
	return apps, args.Error(1)
}
