package services

import (
	"context"
	"taskdesk/internal/config"
	"taskdesk/internal/logger"
	"time"

	"go.uber.org/zap"
)

// ResetAttemptCounter — попытки сброса считаются прямо по времени создания
// токенов: отдельного счётчика нет, чтобы не плодить второй источник истины.
type ResetAttemptCounter interface {
	CountCreatedSince(ctx context.Context, userID int, since time.Time) (int, *time.Time, error)
}

type ResetLimiter struct {
	repo        ResetAttemptCounter
	maxAttempts int
	window      time.Duration
}

func NewResetLimiter(repo ResetAttemptCounter, cfg config.ResetConfig) *ResetLimiter {
	return &ResetLimiter{
		repo:        repo,
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.Window,
	}
}

// AttemptsWithin — число выпусков токенов пользователя за последние window.
func (l *ResetLimiter) AttemptsWithin(ctx context.Context, userID int, window time.Duration) (int, error) {
	count, _, err := l.repo.CountCreatedSince(ctx, userID, time.Now().Add(-window))
	return count, err
}

// Enforce возвращает RateLimitError, когда лимит окна исчерпан.
// RetryAfter — время до выхода самой ранней учтённой попытки из окна.
// Под параллельными запросами возможен небольшой перебор лимита: подсчёт
// и вставка не сериализованы между собой, это осознанное ослабление.
func (l *ResetLimiter) Enforce(ctx context.Context, userID int) error {
	now := time.Now()
	count, oldest, err := l.repo.CountCreatedSince(ctx, userID, now.Add(-l.window))
	if err != nil {
		logger.Log.Error("Не удалось посчитать попытки сброса", zap.Error(err), zap.Int("user_id", userID))
		return ErrInternal
	}

	if count < l.maxAttempts {
		return nil
	}

	retryAfter := l.window
	if oldest != nil {
		retryAfter = oldest.Add(l.window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
	}

	logger.Log.Warn("Превышен лимит запросов на сброс",
		zap.Int("user_id", userID),
		zap.Int("attempts", count),
		zap.Duration("retry_after", retryAfter),
	)
	return &RateLimitError{RetryAfter: retryAfter}
}
