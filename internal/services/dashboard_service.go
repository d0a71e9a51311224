package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/maynagashev/autojob/internal/models"
	"github.com/maynagashev/autojob/internal/repository"
)

// DashboardRecentLimit - сколько последних откликов показывается на главной странице.
const DashboardRecentLimit = 5

// DashboardService собирает данные главной страницы.
type DashboardService interface {
	Load(ctx context.Context, userID int64) (*models.Dashboard, error)
}

var _ DashboardService = (*dashboardService)(nil)

type dashboardService struct {
	userRepo repository.UserRepository
	appRepo  repository.ApplicationRepository
}

// NewDashboardService создает сервис главной страницы.
func NewDashboardService(userRepo repository.UserRepository, appRepo repository.ApplicationRepository) DashboardService {
	return &dashboardService{userRepo: userRepo, appRepo: appRepo}
}

// Load возвращает текущее резюме и последние отклики пользователя.
func (s *dashboardService) Load(ctx context.Context, userID int64) (*models.Dashboard, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("загрузка пользователя: %w", err)
	}

	apps, err := s.appRepo.ListRecentByUserID(ctx, userID, DashboardRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("загрузка откликов: %w", err)
	}
	if apps == nil {
		apps = []models.Application{}
	}

	dashboard := &models.Dashboard{Applications: apps}
	if user.CVFilename != nil && *user.CVFilename != "" {
		dashboard.CV = &models.Resume{Filename: *user.CVFilename}
		if user.CVUploadedAt != nil {
			dashboard.CV.UploadedAt = *user.CVUploadedAt
		}
	}
	return dashboard, nil
}
