package repository

import (
	"context"
	"taskdesk/internal/logger"
	"taskdesk/internal/models"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PasswordResetRepository struct {
	db *pgxpool.Pool
}

func NewPasswordResetRepository(db *pgxpool.Pool) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// CreateWithInvalidate гасит все неиспользованные токены пользователя и в той же
// транзакции вставляет новый — окна с двумя валидными токенами не существует.
func (r *PasswordResetRepository) CreateWithInvalidate(ctx context.Context, userID int, tokenHash string, expiresAt time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE password_reset_tokens SET used_at = now() WHERE user_id = $1 AND used_at IS NULL`,
		userID,
	)
	if err != nil {
		logger.Log.Error("Инвалидация старых токенов сброса не удалась (repo)", zap.Error(err), zap.Int("user_id", userID))
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES ($1, $2, $3)`,
		userID, tokenHash, expiresAt,
	)
	if err != nil {
		logger.Log.Error("Создание токена сброса не удалось (repo)", zap.Error(err), zap.Int("user_id", userID))
		return err
	}

	return tx.Commit(ctx)
}

// GetByHash ищет токен по детерминированному хешу. Просроченность и
// использованность не фильтруем — различать эти случаи решает сервис.
func (r *PasswordResetRepository) GetByHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, used_at, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1
	`, tokenHash)

	var t models.PasswordResetToken
	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Consume атомарно помечает токен использованным (условный UPDATE по used_at IS NULL),
// обновляет пароль пользователя и гасит остальные его токены — всё одной транзакцией.
// Возвращает false, если токен успел использовать кто-то другой.
func (r *PasswordResetRepository) Consume(ctx context.Context, tokenID int64, userID int, passwordHash string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE password_reset_tokens SET used_at = now() WHERE id = $1 AND used_at IS NULL`,
		tokenID,
	)
	if err != nil {
		logger.Log.Error("Условное погашение токена не удалось (repo)", zap.Error(err), zap.Int64("token_id", tokenID))
		return false, err
	}
	if tag.RowsAffected() == 0 {
		// Токен уже израсходован параллельным запросом — пароль не трогаем.
		return false, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		logger.Log.Error("Обновление пароля пользователя не удалось (repo)", zap.Error(err), zap.Int("user_id", userID))
		return false, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE password_reset_tokens SET used_at = now() WHERE user_id = $1 AND used_at IS NULL`,
		userID,
	)
	if err != nil {
		logger.Log.Error("Инвалидация остальных токенов не удалась (repo)", zap.Error(err), zap.Int("user_id", userID))
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// CountCreatedSince считает выпуски токенов пользователя после since и
// возвращает время самой ранней попытки в окне (для retry-after).
func (r *PasswordResetRepository) CountCreatedSince(ctx context.Context, userID int, since time.Time) (int, *time.Time, error) {
	row := r.db.QueryRow(ctx, `
		SELECT count(*), min(created_at)
		FROM password_reset_tokens
		WHERE user_id = $1 AND created_at > $2
	`, userID, since)

	var count int
	var oldest *time.Time
	if err := row.Scan(&count, &oldest); err != nil {
		logger.Log.Error("Подсчёт попыток сброса не удался (repo)", zap.Error(err), zap.Int("user_id", userID))
		return 0, nil, err
	}
	return count, oldest, nil
}
