package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/maynagashev/autojob/internal/models"
)

// Коды ошибок PostgreSQL.
const (
	pgUniqueViolationCode = "23505"
)

const userColumns = `id, name, email, password_hash, created_at, cv_filename, cv_uploaded_at`

// UserRepository определяет методы для работы с данными пользователей в хранилище.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	// ReplaceResume атомарно записывает новое имя файла резюме и возвращает предыдущее ("" если его не было).
	ReplaceResume(ctx context.Context, userID int64, filename string) (string, error)
}

// postgresUserRepository реализует UserRepository для PostgreSQL.
type postgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository создает новый экземпляр репозитория пользователей для PostgreSQL.
func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

// CreateUser создает нового пользователя в базе данных.
// Уникальность email гарантирует ограничение в БД: нарушение возвращается как ErrEmailTaken.
func (r *postgresUserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	query := `INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at`

	created := *user
	err := r.db.QueryRowxContext(ctx, query, user.Name, user.Email, user.PasswordHash).
		Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			slog.Info("[Repo] Email уже занят")
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("ошибка выполнения запроса на создание пользователя: %w", err)
	}

	slog.Debug("[Repo] Пользователь создан", slog.Int64("user_id", created.ID))
	return &created, nil
}

// GetUserByEmail находит пользователя по нормализованному email.
func (r *postgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return r.getOne(ctx, query, email)
}

// GetUserByID находит пользователя по ID.
func (r *postgresUserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.getOne(ctx, query, id)
}

func (r *postgresUserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка выполнения запроса на получение пользователя: %w", err)
	}
	return &user, nil
}

// ReplaceResume блокирует строку пользователя, читает текущее имя файла
// и записывает новое вместе со временем загрузки в одной транзакции.
// Параллельные загрузки одного пользователя выполняются последовательно,
// и каждая получает именно тот файл, который она вытеснила.
func (r *postgresUserRepository) ReplaceResume(ctx context.Context, userID int64, filename string) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.Warn("[Repo] Ошибка отката транзакции", slog.Any("error", rbErr))
			}
		}
	}()

	var previous sql.NullString
	err = tx.GetContext(ctx, &previous, `SELECT cv_filename FROM users WHERE id=$1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("ошибка чтения текущего резюме: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET cv_filename=$1, cv_uploaded_at=NOW() WHERE id=$2`, filename, userID)
	if err != nil {
		return "", fmt.Errorf("ошибка обновления резюме: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	committed = true

	slog.Debug("[Repo] Резюме обновлено", slog.Int64("user_id", userID), slog.String("filename", filename))
	return previous.String, nil
}

// Кастомные ошибки репозитория.
var (
	ErrUserNotFound = errors.New("пользователь не найден")
	ErrEmailTaken   = errors.New("email уже занят")
)
