package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/maynagashev/autojob/internal/metrics"
	"github.com/maynagashev/autojob/internal/models"
	"github.com/maynagashev/autojob/internal/repository"
)

// AuthService определяет интерфейс для сервиса аутентификации.
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	// Login возвращает подписанный токен и пользователя.
	Login(ctx context.Context, req models.LoginRequest) (string, *models.User, error)
	Profile(ctx context.Context, userID int64) (*models.User, error)
}

// Убедимся, что authService удовлетворяет интерфейсу AuthService.
var _ AuthService = (*authService)(nil)

type authService struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	metrics  metrics.Recorder

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService создает новый экземпляр сервиса аутентификации.
func NewAuthService(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	rec metrics.Recorder,
) AuthService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		metrics:  rec,
	}
}

// Register регистрирует нового пользователя.
func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		s.metrics.RecordRegistration(metrics.OutcomeInvalid)
		return nil, ErrInvalidInput
	}
	if fields := validateRegistration(&req); len(fields) > 0 {
		s.metrics.RecordRegistration(metrics.OutcomeInvalid)
		return nil, ErrInvalidInput.WithDetails(fields)
	}

	// Предварительная проверка дает быстрый ответ; окончательно дубликат ловит уникальный индекс.
	_, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		slog.Info("[AuthService] Попытка регистрации с занятым email")
		s.metrics.RecordRegistration(metrics.OutcomeConflict)
		return nil, ErrEmailTaken
	case !errors.Is(err, repository.ErrUserNotFound):
		s.metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("проверка email при регистрации: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("хеширование пароля: %w", err)
	}

	created, err := s.userRepo.CreateUser(ctx, &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			slog.Info("[AuthService] Email занят параллельной регистрацией")
			s.metrics.RecordRegistration(metrics.OutcomeConflict)
			return nil, ErrEmailTaken
		}
		s.metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	slog.Info("[AuthService] Пользователь зарегистрирован", slog.Int64("user_id", created.ID))
	s.metrics.RecordRegistration(metrics.OutcomeSuccess)
	return created, nil
}

// Login аутентифицирует пользователя и возвращает JWT токен.
func (s *authService) Login(ctx context.Context, req models.LoginRequest) (string, *models.User, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		s.metrics.RecordLogin(metrics.OutcomeInvalid)
		return "", nil, ErrMissingCredentials
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Сравнение с фиктивным хешем выравнивает время ответа для существующих и несуществующих email.
			s.hasher.Verify(req.Password, s.fakeHash())
			slog.Info("[AuthService] Попытка входа несуществующего пользователя")
			s.metrics.RecordLogin(metrics.OutcomeRejected)
			return "", nil, ErrInvalidCredentials
		}
		s.metrics.RecordLogin(metrics.OutcomeError)
		return "", nil, fmt.Errorf("поиск пользователя при входе: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		slog.Info("[AuthService] Неверный пароль", slog.Int64("user_id", user.ID))
		s.metrics.RecordLogin(metrics.OutcomeRejected)
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return "", nil, fmt.Errorf("выпуск токена: %w", err)
	}

	slog.Info("[AuthService] Пользователь аутентифицирован", slog.Int64("user_id", user.ID))
	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	return token, user, nil
}

// Profile возвращает пользователя по идентификатору из токена.
func (s *authService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("загрузка профиля: %w", err)
	}
	return user, nil
}

func (s *authService) fakeHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("autojob-timing-equalizer")
		if err != nil {
			slog.Error("[AuthService] Не удалось подготовить фиктивный хеш", slog.Any("error", err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
