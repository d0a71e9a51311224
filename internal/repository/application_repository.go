package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/maynagashev/autojob/internal/models"
)

// ApplicationRepository - чтение откликов пользователя.
type ApplicationRepository interface {
	ListRecentByUserID(ctx context.Context, userID int64, limit int) ([]models.Application, error)
}

type postgresApplicationRepository struct {
	db *sqlx.DB
}

// NewPostgresApplicationRepository создает репозиторий откликов.
func NewPostgresApplicationRepository(db *sqlx.DB) ApplicationRepository {
	return &postgresApplicationRepository{db: db}
}

// ListRecentByUserID возвращает последние отклики пользователя, сначала новые.
func (r *postgresApplicationRepository) ListRecentByUserID(
	ctx context.Context,
	userID int64,
	limit int,
) ([]models.Application, error) {
	query := `SELECT id, user_id, title, location, status, applied_at
	          FROM applications
	          WHERE user_id=$1
	          ORDER BY applied_at DESC
	          LIMIT $2`

	applications := make([]models.Application, 0, limit)
	if err := r.db.SelectContext(ctx, &applications, query, userID, limit); err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса на получение откликов: %w", err)
	}
	return applications, nil
}
