package app

import (
	"context"
	"taskdesk/internal/config"
	"taskdesk/internal/db"
	"taskdesk/internal/handlers"
	"taskdesk/internal/repository"
	"taskdesk/internal/routes"
	"taskdesk/internal/services"
	"time"

	"github.com/gorilla/mux"
)

func InitApp(cfg *config.Config) (*mux.Router, error) {
	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		return nil, err
	}

	// Репозитории
	userRepo := repository.NewUserRepository(conn)
	resetRepo := repository.NewPasswordResetRepository(conn)
	sessionRepo := repository.NewSessionRepository(conn)

	// Сервисы
	emailService := services.NewEmailService(cfg)
	resetLimiter := services.NewResetLimiter(resetRepo, cfg.Reset())
	passwordService := services.NewPasswordService(resetRepo, userRepo, resetLimiter, emailService, cfg.AppURL, cfg.Reset())
	sessionService := services.NewSessionService(sessionRepo, cfg.Session())
	activityService := services.NewActivityService(sessionRepo, cfg.Session())
	authService := services.NewAuthService(userRepo, sessionService, activityService, emailService)

	// Хендлеры
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecret, cfg.AccessTTL())
	passwordHandler := handlers.NewPasswordHandler(passwordService)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	// Периодическая чистка старых сессий
	StartSessionCleaner(sessionService, cfg.Session())

	// Воркеры email
	for i := 0; i < 3; i++ {
		services.StartEmailWorker(emailService)
	}

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, authHandler, passwordHandler, sessionHandler, cfg.JWTSecret, sessionRepo)

	return router, nil
}

func StartSessionCleaner(svc *services.SessionService, cfg config.SessionConfig) {
	t := time.NewTicker(cfg.CleanupInterval)
	go func() {
		for range t.C {
			svc.Cleanup(context.Background(), cfg.CleanupAfterDays)
		}
	}()
}
