package services

import (
	"context"
	"strconv"
	"time"

	"taskdesk/internal/config"
	"taskdesk/internal/logger"
	"taskdesk/internal/models"
	helpers "taskdesk/internal/utils/helpers"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type EmailService struct {
	dialer   *gomail.Dialer
	from     string
	resetTTL time.Duration
}

func NewEmailService(cfg *config.Config) *EmailService {
	port, err := strconv.Atoi(cfg.SMTPPort)
	if err != nil {
		port = 587
	}
	return &EmailService{
		dialer:   gomail.NewDialer(cfg.SMTPHost, port, cfg.SMTPUser, cfg.SMTPPassword),
		from:     cfg.SMTPUser,
		resetTTL: cfg.Reset().TokenTTL,
	}
}

// Send — синхронная отправка; обычно вызывается воркером очереди.
func (s *EmailService) Send(to []string, subject, body string, isHTML bool) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	if isHTML {
		m.SetBody("text/html", body)
	} else {
		m.SetBody("text/plain", body)
	}
	return s.dialer.DialAndSend(m)
}

// SendPasswordReset ставит письмо со ссылкой в очередь. Доставка —
// fire-and-forget: исход отправки на результат сброса не влияет.
func (s *EmailService) SendPasswordReset(ctx context.Context, to, fullName, resetLink string) error {
	EmailQueue <- EmailJob{
		To:      []string{to},
		Subject: "Восстановление пароля TaskDesk",
		Body:    helpers.BuildPasswordResetHTML(fullName, resetLink, s.resetTTL),
		IsHTML:  true,
	}
	return nil
}

// SendSecurityAlert ставит в очередь письмо о подозрительной активности.
func (s *EmailService) SendSecurityAlert(ctx context.Context, to, fullName string, alerts []models.SecurityAlert) error {
	EmailQueue <- EmailJob{
		To:      []string{to},
		Subject: "Новый вход в ваш аккаунт TaskDesk",
		Body:    helpers.BuildSecurityAlertHTML(fullName, alerts),
		IsHTML:  true,
	}
	return nil
}

type EmailJob struct {
	To      []string
	Subject string
	Body    string
	IsHTML  bool
}

var EmailQueue = make(chan EmailJob, 100) // глобальная очередь на 100 писем

func StartEmailWorker(emailService *EmailService) {
	go func() {
		for job := range EmailQueue {
			if err := emailService.Send(job.To, job.Subject, job.Body, job.IsHTML); err != nil {
				logger.Log.Error("Отправка письма не удалась",
					zap.Strings("to", job.To),
					zap.String("subject", job.Subject),
					zap.Error(err),
				)
			}
		}
	}()
}
