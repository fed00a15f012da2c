package services

import (
	"context"
	"fmt"
	"time"

	"taskdesk/internal/config"
	"taskdesk/internal/logger"
	"taskdesk/internal/models"

	"go.uber.org/zap"
)

// SessionHistoryRepo — чтение истории сессий для эвристик.
type SessionHistoryRepo interface {
	CountByUserAgent(ctx context.Context, userID int, userAgent string) (int, error)
	CountByIP(ctx context.Context, userID int, ipAddress string) (int, error)
	CountActive(ctx context.Context, userID int) (int, error)
}

// ActivityService смотрит на историю сессий после входа и собирает алерты.
// Вход он никогда не блокирует; сбой любой эвристики просто пропускает её.
type ActivityService struct {
	repo      SessionHistoryRepo
	threshold int // порог одновременных активных сессий
}

func NewActivityService(repo SessionHistoryRepo, cfg config.SessionConfig) *ActivityService {
	threshold := cfg.ConcurrentLimit
	if threshold <= 0 {
		threshold = 5
	}
	return &ActivityService{repo: repo, threshold: threshold}
}

// Detect вызывается после создания сессии: свежая запись уже в сторе,
// поэтому «не было раньше» означает «совпадение ровно одно — наше».
func (s *ActivityService) Detect(ctx context.Context, userID int, userAgent, ipAddress string) []models.SecurityAlert {
	log := logger.WithCtx(ctx)
	now := time.Now()
	var alerts []models.SecurityAlert

	if userAgent != "" {
		n, err := s.repo.CountByUserAgent(ctx, userID, userAgent)
		if err != nil {
			log.Warn("Эвристика new device пропущена", zap.Error(err), zap.Int("user_id", userID))
		} else if n <= 1 {
			alerts = append(alerts, models.SecurityAlert{
				Type:      models.AlertNewDevice,
				UserID:    userID,
				Details:   fmt.Sprintf("вход с нового устройства: %s", userAgent),
				Timestamp: now,
			})
		}
	}

	if ipAddress != "" {
		n, err := s.repo.CountByIP(ctx, userID, ipAddress)
		if err != nil {
			log.Warn("Эвристика new location пропущена", zap.Error(err), zap.Int("user_id", userID))
		} else if n <= 1 {
			alerts = append(alerts, models.SecurityAlert{
				Type:      models.AlertSuspiciousLocation,
				UserID:    userID,
				Details:   fmt.Sprintf("вход с нового адреса: %s", ipAddress),
				Timestamp: now,
			})
		}
	}

	active, err := s.repo.CountActive(ctx, userID)
	if err != nil {
		log.Warn("Эвристика concurrent sessions пропущена", zap.Error(err), zap.Int("user_id", userID))
	} else if active > s.threshold {
		alerts = append(alerts, models.SecurityAlert{
			Type:      models.AlertConcurrentSessions,
			UserID:    userID,
			Details:   fmt.Sprintf("активных сессий: %d (порог %d)", active, s.threshold),
			Timestamp: now,
		})
	}

	if len(alerts) > 0 {
		log.Info("Обнаружена подозрительная активность",
			zap.Int("user_id", userID),
			zap.Int("alerts", len(alerts)),
		)
	}
	return alerts
}
