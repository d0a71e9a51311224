package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maynagashev/autojob/internal/metrics"
	"github.com/maynagashev/autojob/internal/models"
	"github.com/maynagashev/autojob/internal/repository"
	"github.com/maynagashev/autojob/internal/storage"
	"github.com/maynagashev/autojob/internal/upload"
)

// ResumeService управляет файлом резюме пользователя.
type ResumeService interface {
	// Upload проверяет принятый файл, сохраняет его и заменяет ссылку в профиле.
	// Возвращает сгенерированное имя файла.
	Upload(ctx context.Context, userID int64, file *upload.StagedFile) (string, error)
	// Open возвращает содержимое текущего резюме. Вызывающий обязан закрыть reader.
	Open(ctx context.Context, userID int64) (io.ReadCloser, *models.Resume, error)
}

var _ ResumeService = (*resumeService)(nil)

type resumeService struct {
	userRepo repository.UserRepository
	files    storage.FileStorage
	metrics  metrics.Recorder
	now      func() time.Time
}

// NewResumeService создает сервис резюме.
func NewResumeService(
	userRepo repository.UserRepository,
	files storage.FileStorage,
	rec metrics.Recorder,
) ResumeService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &resumeService{
		userRepo: userRepo,
		files:    files,
		metrics:  rec,
		now:      time.Now,
	}
}

// Upload выполняет замену резюме. Порядок шагов:
// проверка сигнатуры, сохранение нового файла, фиксация в БД, удаление вытесненного файла.
// Строка пользователя меняется только после того, как новый файл сохранен.
// Временный файл удаляется при любом исходе.
func (s *resumeService) Upload(ctx context.Context, userID int64, file *upload.StagedFile) (string, error) {
	if file == nil {
		s.metrics.RecordUpload(metrics.OutcomeInvalid)
		return "", ErrNoFile
	}
	defer file.Remove()

	valid, err := upload.ValidateFile(file.Path)
	if err != nil {
		s.metrics.RecordUpload(metrics.OutcomeError)
		return "", fmt.Errorf("проверка сигнатуры: %w", err)
	}
	if !valid {
		file.Remove()
		slog.Info("[ResumeService] Файл не прошел проверку сигнатуры",
			slog.Int64("user_id", userID),
			slog.String("original_name", file.OriginalName),
		)
		s.metrics.RecordUpload(metrics.OutcomeInvalid)
		return "", ErrInvalidFormat
	}

	name := s.generateName()
	if err = s.persist(ctx, name, file); err != nil {
		s.metrics.RecordUpload(metrics.OutcomeError)
		return "", err
	}

	previous, err := s.userRepo.ReplaceResume(ctx, userID, name)
	if err != nil {
		s.discard(ctx, name)
		s.metrics.RecordUpload(metrics.OutcomeError)
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("фиксация резюме: %w", err)
	}

	if previous != "" && previous != name {
		s.removePrevious(ctx, userID, previous)
	}

	slog.Info("[ResumeService] Резюме загружено",
		slog.Int64("user_id", userID),
		slog.String("filename", name),
		slog.Int64("size", file.Size),
	)
	s.metrics.RecordUpload(metrics.OutcomeSuccess)
	return name, nil
}

// Open возвращает текущее резюме пользователя.
func (s *resumeService) Open(ctx context.Context, userID int64) (io.ReadCloser, *models.Resume, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("загрузка пользователя: %w", err)
	}
	if user.CVFilename == nil || *user.CVFilename == "" {
		return nil, nil, ErrResumeNotFound
	}

	rc, err := s.files.Open(ctx, *user.CVFilename)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			slog.Warn("[ResumeService] Файл резюме отсутствует в хранилище",
				slog.Int64("user_id", userID),
				slog.String("filename", *user.CVFilename),
			)
			return nil, nil, ErrResumeNotFound
		}
		return nil, nil, fmt.Errorf("открытие резюме: %w", err)
	}

	resume := &models.Resume{Filename: *user.CVFilename}
	if user.CVUploadedAt != nil {
		resume.UploadedAt = *user.CVUploadedAt
	}
	return rc, resume, nil
}

// generateName возвращает имя вида <unix-millis>-<uuid>.pdf.
func (s *resumeService) generateName() string {
	return fmt.Sprintf("%d-%s.pdf", s.now().UnixMilli(), uuid.NewString())
}

func (s *resumeService) persist(ctx context.Context, name string, file *upload.StagedFile) error {
	f, err := file.Open()
	if err != nil {
		return fmt.Errorf("открытие временного файла: %w", err)
	}
	defer f.Close()

	if err = s.files.Save(ctx, name, f, file.Size, upload.PDFContentType); err != nil {
		return fmt.Errorf("сохранение резюме: %w", err)
	}
	return nil
}

// discard удаляет новый файл, если фиксация в БД не удалась.
func (s *resumeService) discard(ctx context.Context, name string) {
	if err := s.files.Delete(context.WithoutCancel(ctx), name); err != nil {
		slog.Warn("[ResumeService] Не удалось удалить незафиксированный файл",
			slog.String("filename", name),
			slog.Any("error", err),
		)
	}
}

// removePrevious удаляет вытесненный файл. Ошибка только логируется.
func (s *resumeService) removePrevious(ctx context.Context, userID int64, previous string) {
	err := s.files.Delete(context.WithoutCancel(ctx), previous)
	if err == nil {
		return
	}
	slog.Warn("[ResumeService] Не удалось удалить предыдущее резюме",
		slog.Int64("user_id", userID),
		slog.String("filename", previous),
		slog.Any("error", err),
	)
	s.metrics.RecordStaleFileCleanupFailure()
}
