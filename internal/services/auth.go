package services

import (
	"context"
	"errors"
	"time"

	"taskdesk/internal/logger"
	"taskdesk/internal/models"
	"taskdesk/internal/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type UserRepo interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, userID int, passwordHash string) error
}

type SecurityMailer interface {
	SendSecurityAlert(ctx context.Context, to, fullName string, alerts []models.SecurityAlert) error
}

// AuthService — вход/выход. Сессию создаёт SessionService, эвристики по
// истории сессий запускаются после входа и никогда его не блокируют.
type AuthService struct {
	repo     UserRepo
	sessions *SessionService
	activity *ActivityService
	mailer   SecurityMailer
}

func NewAuthService(repo UserRepo, sessions *SessionService, activity *ActivityService, mailer SecurityMailer) *AuthService {
	return &AuthService{repo: repo, sessions: sessions, activity: activity, mailer: mailer}
}

// LoginUser проверяет пароль, создаёт сессию и выпускает access-токен.
// «Нет такого пользователя» и «неверный пароль» снаружи неразличимы.
func (s *AuthService) LoginUser(
	ctx context.Context,
	username, password, jwtSecret string,
	accessTTL time.Duration,
	userAgent, ipAddress string,
) (string, *models.Session, error) {
	log := logger.WithCtx(ctx)
	log.Info("Попытка входа (service)", zap.String("username", username))

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn("Пользователь не найден (service)", zap.String("username", username))
			return "", nil, ErrUnauthorized
		}
		log.Error("Сбой поиска пользователя при входе", zap.Error(err))
		return "", nil, ErrInternal
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		log.Warn("Неверный пароль (service)", zap.String("username", username))
		return "", nil, ErrUnauthorized
	}
	if !user.IsActive() {
		log.Warn("Вход в неактивный аккаунт", zap.Int("user_id", user.ID), zap.String("status", user.Status))
		return "", nil, ErrUnauthorized
	}

	session, _, err := s.sessions.CreateSession(ctx, user.ID, userAgent, ipAddress)
	if err != nil {
		return "", nil, err
	}

	accessToken, err := utils.GenerateToken(jwtSecret, user.ID, user.Role, session.ID, accessTTL)
	if err != nil {
		log.Error("Ошибка генерации access-токена", zap.Error(err))
		return "", nil, ErrInternal
	}

	// Эвристики — строго после создания сессии: они читают историю,
	// включая только что вставленную запись.
	if alerts := s.activity.Detect(ctx, user.ID, userAgent, ipAddress); len(alerts) > 0 && s.mailer != nil {
		if err := s.mailer.SendSecurityAlert(ctx, user.Email, user.FullName, alerts); err != nil {
			log.Warn("Письмо об активности не отправлено", zap.Error(err), zap.Int("user_id", user.ID))
		}
	}

	log.Info("Вход выполнен (service)", zap.String("username", username), zap.String("session_id", session.ID))
	return accessToken, session, nil
}

// Logout отзывает текущую сессию пользователя.
func (s *AuthService) Logout(ctx context.Context, userID int, sessionID string) error {
	logger.WithCtx(ctx).Info("Выход пользователя (service)", zap.Int("user_id", userID), zap.String("session_id", sessionID))
	_, err := s.sessions.Revoke(ctx, sessionID, &userID)
	return err
}

// ChangePassword меняет пароль по старому паролю и отзывает остальные
// сессии пользователя — текущая остаётся жить.
func (s *AuthService) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword, currentSessionID string) error {
	log := logger.WithCtx(ctx)
	log.Info("Смена пароля (авторизованный пользователь)", zap.Int("user_id", userID))

	if st := utils.CheckPasswordStrength(newPassword); !st.IsValid {
		log.Warn("Новый пароль не прошёл проверку стойкости", zap.Int("user_id", userID))
		return &ValidationError{Feedback: st.Feedback}
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		log.Error("Пользователь не найден при смене пароля", zap.Error(err), zap.Int("user_id", userID))
		return ErrUnauthorized
	}

	if !utils.CheckPasswordHash(oldPassword, user.PasswordHash) {
		log.Warn("Старый пароль не совпадает", zap.Int("user_id", userID))
		return ErrUnauthorized
	}

	newHash, err := utils.HashPassword(newPassword, 0)
	if err != nil {
		log.Error("Ошибка хеширования нового пароля", zap.Error(err), zap.Int("user_id", userID))
		return ErrInternal
	}

	if err := s.repo.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		log.Error("Ошибка обновления пароля", zap.Error(err), zap.Int("user_id", userID))
		return ErrInternal
	}

	if _, err := s.sessions.RevokeAll(ctx, userID, &currentSessionID); err != nil {
		log.Warn("Не удалось отозвать прочие сессии после смены пароля", zap.Error(err), zap.Int("user_id", userID))
	}

	log.Info("Пароль успешно изменён", zap.Int("user_id", userID))
	return nil
}
