package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskdesk/internal/config"
	"taskdesk/internal/logger"
	"taskdesk/internal/models"
	"taskdesk/internal/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// PasswordResetRepo — контракт стора токенов сброса. Ключевое: Consume —
// условное обновление «погасить, только если ещё не погашен» плюс смена
// пароля одной транзакцией.
type PasswordResetRepo interface {
	CreateWithInvalidate(ctx context.Context, userID int, tokenHash string, expiresAt time.Time) error
	GetByHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error)
	Consume(ctx context.Context, tokenID int64, userID int, passwordHash string) (bool, error)
	CountCreatedSince(ctx context.Context, userID int, since time.Time) (int, *time.Time, error)
}

// AccountRepo — коллаборатор аккаунтов (модуль пользователей нам не принадлежит).
type AccountRepo interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

type EmailSender interface {
	SendPasswordReset(ctx context.Context, to, fullName, resetLink string) error
}

type PasswordService struct {
	repo        PasswordResetRepo
	users       AccountRepo
	limiter     *ResetLimiter
	emailSender EmailSender
	appURL      string // фронтовый URL: ссылка вида /reset?token=...
	cfg         config.ResetConfig
}

func NewPasswordService(
	repo PasswordResetRepo,
	users AccountRepo,
	limiter *ResetLimiter,
	emailSender EmailSender,
	appURL string,
	cfg config.ResetConfig,
) *PasswordService {
	return &PasswordService{
		repo:        repo,
		users:       users,
		limiter:     limiter,
		emailSender: emailSender,
		appURL:      strings.TrimRight(appURL, "/"),
		cfg:         cfg,
	}
}

// RequestReset выпускает одноразовый токен и ставит письмо на отправку.
// Для несуществующего или неактивного аккаунта отвечает так же, как для
// существующего — наличие почты в базе снаружи неразличимо. Старые токены
// пользователя гасятся в той же транзакции, что и вставка нового.
// Возвращённый token непустой только в dev-режиме.
func (s *PasswordService) RequestReset(ctx context.Context, email string) (token string, err error) {
	email = strings.TrimSpace(strings.ToLower(email))
	log := logger.WithCtx(ctx)
	log.Info("Запрос на сброс пароля", zap.String("email", email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Error("Сбой поиска пользователя при запросе сброса", zap.Error(err))
		} else {
			log.Warn("Запрос сброса для неизвестного email", zap.String("email", email))
		}
		// Клиенту — тот же успех, что и в счастливом пути.
		return "", nil
	}
	if !user.IsActive() {
		log.Warn("Запрос сброса для неактивного аккаунта",
			zap.Int("user_id", user.ID),
			zap.String("status", user.Status),
		)
		return "", nil
	}

	if err := s.limiter.Enforce(ctx, user.ID); err != nil {
		return "", err
	}

	raw, err := utils.GenerateSecureToken(s.cfg.TokenBytes)
	if err != nil {
		log.Error("Ошибка генерации токена сброса", zap.Error(err), zap.Int("user_id", user.ID))
		return "", ErrInternal
	}

	// В базе храним только хеш
	tokenHash := utils.HashToken(raw)
	expires := time.Now().Add(s.cfg.TokenTTL)

	if err := s.repo.CreateWithInvalidate(ctx, user.ID, tokenHash, expires); err != nil {
		log.Error("Ошибка сохранения токена сброса", zap.Error(err), zap.Int("user_id", user.ID))
		return "", ErrInternal
	}

	resetLink := fmt.Sprintf("%s/reset?token=%s", s.appURL, raw)
	if err := s.emailSender.SendPasswordReset(ctx, user.Email, user.FullName, resetLink); err != nil {
		// Не фейлим намеренно — чтобы нельзя было брутить наличие e-mail
		log.Error("Ошибка отправки письма для сброса",
			zap.Int("user_id", user.ID),
			zap.Error(err),
		)
	}

	log.Info("Токен сброса выпущен",
		zap.Int("user_id", user.ID),
		zap.Time("expires_at", expires),
	)

	if s.cfg.ExposeToken {
		return raw, nil
	}
	return "", nil
}

// VerifyToken — неизменяющая проверка токена. Несуществующий, просроченный
// и использованный токены, как и пропавший/неактивный владелец, дают одну
// и ту же ошибку.
func (s *PasswordService) VerifyToken(ctx context.Context, token string) (*models.ResetUserInfo, error) {
	log := logger.WithCtx(ctx)

	rec, err := s.repo.GetByHash(ctx, utils.HashToken(token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn("Проверка несуществующего токена сброса")
			return nil, ErrInvalidOrExpiredToken
		}
		log.Error("Сбой поиска токена сброса", zap.Error(err))
		return nil, ErrInternal
	}

	if rec.UsedAt != nil || !rec.ExpiresAt.After(time.Now()) {
		log.Warn("Проверка недействительного токена сброса", zap.Int64("token_id", rec.ID))
		return nil, ErrInvalidOrExpiredToken
	}

	user, err := s.users.GetUserByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn("Владелец токена сброса не найден", zap.Int("user_id", rec.UserID))
			return nil, ErrInvalidOrExpiredToken
		}
		log.Error("Сбой поиска владельца токена", zap.Error(err), zap.Int("user_id", rec.UserID))
		return nil, ErrInternal
	}
	if !user.IsActive() {
		log.Warn("Владелец токена сброса неактивен", zap.Int("user_id", user.ID))
		return nil, ErrInvalidOrExpiredToken
	}

	return &models.ResetUserInfo{FullName: user.FullName, Email: user.Email}, nil
}

// ResetPassword подтверждает токен и устанавливает новый пароль.
// Смена пароля и погашение токена происходят как одно целое: N параллельных
// вызовов с одним токеном дают ровно один успех.
func (s *PasswordService) ResetPassword(ctx context.Context, token, newPassword string) error {
	log := logger.WithCtx(ctx)
	log.Info("Попытка сброса пароля по токену")

	if st := utils.CheckPasswordStrength(newPassword); !st.IsValid {
		log.Warn("Новый пароль не прошёл проверку стойкости", zap.Int("score", st.Score))
		return &ValidationError{Feedback: st.Feedback}
	}

	rec, err := s.repo.GetByHash(ctx, utils.HashToken(token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn("Сброс по несуществующему токену")
			return ErrInvalidOrExpiredToken
		}
		log.Error("Сбой поиска токена при сбросе", zap.Error(err))
		return ErrInternal
	}

	if rec.UsedAt != nil {
		log.Warn("Сброс по уже использованному токену", zap.Int64("token_id", rec.ID))
		return ErrTokenAlreadyUsed
	}
	if !rec.ExpiresAt.After(time.Now()) {
		log.Warn("Сброс по просроченному токену", zap.Int64("token_id", rec.ID))
		return ErrTokenExpired
	}

	pwHash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		log.Error("Ошибка хеширования нового пароля", zap.Error(err), zap.Int("user_id", rec.UserID))
		return ErrInternal
	}

	consumed, err := s.repo.Consume(ctx, rec.ID, rec.UserID, pwHash)
	if err != nil {
		log.Error("Сбой транзакции сброса пароля", zap.Error(err), zap.Int("user_id", rec.UserID))
		return ErrInternal
	}
	if !consumed {
		// Параллельный запрос успел первым — наш read был мгновение назад,
		// но верим условному UPDATE, а не ему.
		log.Warn("Токен перехвачен параллельным сбросом", zap.Int64("token_id", rec.ID))
		return ErrTokenAlreadyUsed
	}

	log.Info("Пароль успешно сброшен", zap.Int("user_id", rec.UserID))
	return nil
}
