package repository

import (
	"context"
	"taskdesk/internal/logger"
	"taskdesk/internal/models"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	logger.Log.Debug("Создание сессии (repo)", zap.String("session_id", s.ID), zap.Int("user_id", s.UserID))
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (id, user_id, token_hash, user_agent, ip_address, last_active_at, created_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
	`, s.ID, s.UserID, s.TokenHash, s.UserAgent, s.IPAddress)
	if err != nil {
		logger.Log.Error("Создание сессии не удалось (repo)", zap.Error(err), zap.Int("user_id", s.UserID))
	}
	return err
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, token_hash, user_agent, ip_address, last_active_at, revoked_at, created_at
		FROM sessions
		WHERE id = $1
	`, id)

	var s models.Session
	if err := row.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.UserAgent, &s.IPAddress, &s.LastActiveAt, &s.RevokedAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Touch обновляет last_active_at. false — сессии уже нет.
func (r *SessionRepository) Touch(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE sessions SET last_active_at = now() WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// IsActive — сессия существует и не отозвана.
func (r *SessionRepository) IsActive(ctx context.Context, id string) (bool, error) {
	var active bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM sessions WHERE id = $1 AND revoked_at IS NULL)`,
		id,
	).Scan(&active)
	if err != nil {
		logger.Log.Error("Проверка активности сессии не удалась (repo)", zap.Error(err), zap.String("session_id", id))
	}
	return active, err
}

// Revoke выставляет revoked_at условным UPDATE: повторный отзыв — не ошибка,
// просто ноль затронутых строк. ownerUserID сужает отзыв до владельца.
func (r *SessionRepository) Revoke(ctx context.Context, id string, ownerUserID *int) (bool, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	if ownerUserID != nil {
		tag, err = r.db.Exec(ctx,
			`UPDATE sessions SET revoked_at = now() WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL`,
			id, *ownerUserID,
		)
	} else {
		tag, err = r.db.Exec(ctx,
			`UPDATE sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`,
			id,
		)
	}
	if err != nil {
		logger.Log.Error("Отзыв сессии не удался (repo)", zap.Error(err), zap.String("session_id", id))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RevokeAll гасит все активные сессии пользователя, кроме excludeID (если задана).
func (r *SessionRepository) RevokeAll(ctx context.Context, userID int, excludeID *string) (int, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	if excludeID != nil {
		tag, err = r.db.Exec(ctx,
			`UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND id <> $2 AND revoked_at IS NULL`,
			userID, *excludeID,
		)
	} else {
		tag, err = r.db.Exec(ctx,
			`UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`,
			userID,
		)
	}
	if err != nil {
		logger.Log.Error("Массовый отзыв сессий не удался (repo)", zap.Error(err), zap.Int("user_id", userID))
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID int) ([]*models.Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, token_hash, user_agent, ip_address, last_active_at, revoked_at, created_at
		FROM sessions
		WHERE user_id = $1
		ORDER BY last_active_at DESC
	`, userID)
	if err != nil {
		logger.Log.Error("Список сессий не получен (repo)", zap.Error(err), zap.Int("user_id", userID))
		return nil, err
	}
	defer rows.Close()

	var out []*models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.UserAgent, &s.IPAddress, &s.LastActiveAt, &s.RevokedAt, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *SessionRepository) CountActive(ctx context.Context, userID int) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM sessions WHERE user_id = $1 AND revoked_at IS NULL`,
		userID,
	).Scan(&n)
	return n, err
}

func (r *SessionRepository) CountByUserAgent(ctx context.Context, userID int, userAgent string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM sessions WHERE user_id = $1 AND user_agent = $2`,
		userID, userAgent,
	).Scan(&n)
	return n, err
}

func (r *SessionRepository) CountByIP(ctx context.Context, userID int, ipAddress string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM sessions WHERE user_id = $1 AND ip_address = $2`,
		userID, ipAddress,
	).Scan(&n)
	return n, err
}

// DeleteOld удаляет отозванные до cutoff и «молчащие» (ни разу не отозванные,
// но неактивные с cutoff) сессии.
func (r *SessionRepository) DeleteOld(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM sessions
		WHERE (revoked_at IS NOT NULL AND revoked_at < $1)
		   OR (revoked_at IS NULL AND last_active_at < $1)
	`, cutoff)
	if err != nil {
		logger.Log.Error("Очистка старых сессий не удалась (repo)", zap.Error(err))
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
