package services

import (
	"context"
	"time"

	"taskdesk/internal/config"
	"taskdesk/internal/logger"
	"taskdesk/internal/models"
	"taskdesk/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionRepo — контракт стора сессий. Revoke/RevokeAll работают условным
// UPDATE по revoked_at IS NULL, поэтому параллельные отзывы не задваиваются.
type SessionRepo interface {
	Create(ctx context.Context, s *models.Session) error
	Touch(ctx context.Context, id string) (bool, error)
	Revoke(ctx context.Context, id string, ownerUserID *int) (bool, error)
	RevokeAll(ctx context.Context, userID int, excludeID *string) (int, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Session, error)
	DeleteOld(ctx context.Context, cutoff time.Time) (int, error)
}

type SessionService struct {
	repo SessionRepo
	cfg  config.SessionConfig
}

func NewSessionService(repo SessionRepo, cfg config.SessionConfig) *SessionService {
	return &SessionService{repo: repo, cfg: cfg}
}

// CreateSession заводит сессию после успешной аутентификации.
// Возвращает и сессию, и её секрет: в базе остаётся только хеш.
func (s *SessionService) CreateSession(ctx context.Context, userID int, userAgent, ipAddress string) (*models.Session, string, error) {
	raw, err := utils.GenerateSecureToken(32)
	if err != nil {
		logger.Log.Error("Ошибка генерации секрета сессии", zap.Error(err), zap.Int("user_id", userID))
		return nil, "", ErrInternal
	}

	now := time.Now()
	session := &models.Session{
		ID:           uuid.New().String(),
		UserID:       userID,
		TokenHash:    utils.HashToken(raw),
		UserAgent:    userAgent,
		IPAddress:    ipAddress,
		LastActiveAt: now,
		CreatedAt:    now,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		logger.Log.Error("Ошибка создания сессии", zap.Error(err), zap.Int("user_id", userID))
		return nil, "", ErrInternal
	}

	logger.Log.Info("Сессия создана", zap.String("session_id", session.ID), zap.Int("user_id", userID))
	return session, raw, nil
}

// Touch отмечает активность. Пропавшая сессия — не ошибка для вызывающего:
// логируем и живём дальше.
func (s *SessionService) Touch(ctx context.Context, sessionID string) {
	ok, err := s.repo.Touch(ctx, sessionID)
	if err != nil {
		logger.Log.Warn("Не удалось обновить активность сессии", zap.Error(err), zap.String("session_id", sessionID))
		return
	}
	if !ok {
		logger.Log.Debug("Touch по несуществующей сессии", zap.String("session_id", sessionID))
	}
}

// Revoke отзывает сессию. Повторный вызов — false, не ошибка.
// ownerUserID не даёт отозвать чужую сессию.
func (s *SessionService) Revoke(ctx context.Context, sessionID string, ownerUserID *int) (bool, error) {
	ok, err := s.repo.Revoke(ctx, sessionID, ownerUserID)
	if err != nil {
		logger.Log.Error("Ошибка отзыва сессии", zap.Error(err), zap.String("session_id", sessionID))
		return false, ErrInternal
	}
	if ok {
		logger.Log.Info("Сессия отозвана", zap.String("session_id", sessionID))
	}
	return ok, nil
}

// RevokeAll гасит все активные сессии пользователя, кроме excludeSessionID.
// Возвращает точное число затронутых строк.
func (s *SessionService) RevokeAll(ctx context.Context, userID int, excludeSessionID *string) (int, error) {
	n, err := s.repo.RevokeAll(ctx, userID, excludeSessionID)
	if err != nil {
		logger.Log.Error("Ошибка массового отзыва сессий", zap.Error(err), zap.Int("user_id", userID))
		return 0, ErrInternal
	}
	logger.Log.Info("Сессии отозваны массово", zap.Int("user_id", userID), zap.Int("count", n))
	return n, nil
}

// BulkRevoke отзывает каждую сессию независимо; частичный провал не
// прерывает пакет, а попадает в отчёт.
func (s *SessionService) BulkRevoke(ctx context.Context, sessionIDs []string) models.BulkRevokeResult {
	var res models.BulkRevokeResult
	for _, id := range sessionIDs {
		ok, err := s.repo.Revoke(ctx, id, nil)
		switch {
		case err != nil:
			logger.Log.Error("Ошибка отзыва в пакете", zap.Error(err), zap.String("session_id", id))
			res.Failed++
			res.Errors = append(res.Errors, models.BulkRevokeError{SessionID: id, Reason: "внутренняя ошибка"})
		case !ok:
			res.Failed++
			res.Errors = append(res.Errors, models.BulkRevokeError{SessionID: id, Reason: "сессия не найдена или уже отозвана"})
		default:
			res.Success++
		}
	}
	logger.Log.Info("Пакетный отзыв сессий завершён",
		zap.Int("success", res.Success),
		zap.Int("failed", res.Failed),
	)
	return res
}

// ListByUser — сессии пользователя для страницы «устройства».
func (s *SessionService) ListByUser(ctx context.Context, userID int) ([]*models.Session, error) {
	sessions, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, ErrInternal
	}
	return sessions, nil
}

// Cleanup удаляет давно отозванные и давно молчащие сессии.
// Фоновая операция: ошибки логируются, наружу не идут.
func (s *SessionService) Cleanup(ctx context.Context, olderThanDays int) int {
	if olderThanDays <= 0 {
		olderThanDays = s.cfg.CleanupAfterDays
	}
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	n, err := s.repo.DeleteOld(ctx, cutoff)
	if err != nil {
		logger.Log.Error("Очистка сессий не удалась", zap.Error(err))
		return 0
	}
	if n > 0 {
		logger.Log.Info("Старые сессии удалены", zap.Int("count", n), zap.Time("cutoff", cutoff))
	}
	return n
}
