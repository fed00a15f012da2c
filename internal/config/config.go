package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DbHost    string
	DbPort    string
	DbUser    string
	DbPass    string
	DbName    string
	DbSSLMode string

	JWTSecret      string
	AccessTokenTTL string

	Log      string
	LogLevel string
	Env      string // dev|prod

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string

	AppURL string // фронтовый URL для ссылок вида /reset?token=...

	PasswordResetTTLHours string
	ResetMaxAttempts      string
	ResetWindowMin        string
	ResetTokenBytes       string
	BcryptCost            string

	SessionCleanupDays        string
	SessionCleanupIntervalMin string
	ConcurrentSessionLimit    string
}

// ResetConfig — типизированные параметры восстановления пароля,
// передаются в сервисы при создании (никаких чтений env внутри логики).
type ResetConfig struct {
	TokenTTL    time.Duration
	TokenBytes  int
	BcryptCost  int
	MaxAttempts int
	Window      time.Duration
	ExposeToken bool // dev-режим: вернуть токен в ответе
}

// SessionConfig — параметры жизненного цикла сессий.
type SessionConfig struct {
	CleanupAfterDays int
	CleanupInterval  time.Duration
	ConcurrentLimit  int
}

// LoadConfig загружает .env, читает переменные окружения и выставляет дефолты.
// Ничего не логирует — чтобы не создавать зависимость от logger.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	def := func(v, d string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return d
		}
		return v
	}

	cfg := &Config{
		Port:      def(os.Getenv("PORT"), "8080"),
		DbHost:    os.Getenv("DB_HOST"),
		DbPort:    def(os.Getenv("DB_PORT"), "5432"),
		DbUser:    os.Getenv("DB_USER"),
		DbPass:    os.Getenv("DB_PASSWORD"),
		DbName:    os.Getenv("DB_NAME"),
		DbSSLMode: def(os.Getenv("DB_SSLMODE"), "disable"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: def(os.Getenv("ACCESS_TOKEN_EXPIRY"), "15m"),

		Log:      os.Getenv("LOG"),
		LogLevel: strings.ToLower(def(os.Getenv("LOGLEVEL"), "info")),
		Env:      strings.ToLower(def(os.Getenv("ENV"), "prod")),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     def(os.Getenv("SMTP_PORT"), "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		AppURL: os.Getenv("APP_URL"),

		PasswordResetTTLHours: def(os.Getenv("PASSWORD_RESET_TTL_HOURS"), "24"),
		ResetMaxAttempts:      def(os.Getenv("RESET_MAX_ATTEMPTS"), "3"),
		ResetWindowMin:        def(os.Getenv("RESET_WINDOW_MIN"), "60"),
		ResetTokenBytes:       def(os.Getenv("RESET_TOKEN_BYTES"), "32"),
		BcryptCost:            def(os.Getenv("BCRYPT_COST"), "12"),

		SessionCleanupDays:        def(os.Getenv("SESSION_CLEANUP_DAYS"), "30"),
		SessionCleanupIntervalMin: def(os.Getenv("SESSION_CLEANUP_INTERVAL_MIN"), "60"),
		ConcurrentSessionLimit:    def(os.Getenv("CONCURRENT_SESSION_LIMIT"), "5"),
	}

	return cfg, nil
}

// Validate возвращает предупреждения и фатальную ошибку (если критично).
func (c *Config) Validate() (warnings []string, err error) {
	// Критичные: БД
	if c.DbHost == "" || c.DbUser == "" || c.DbName == "" {
		return nil, fmt.Errorf("incomplete DB config (DB_HOST/DB_USER/DB_NAME)")
	}

	if strings.TrimSpace(c.JWTSecret) == "" {
		warnings = append(warnings, "JWT_SECRET is empty")
	}

	// SMTP — предупреждение, сервис может работать и без писем
	if c.SMTPHost == "" || c.SMTPUser == "" {
		warnings = append(warnings, "SMTP is not fully configured")
	}

	if c.AppURL == "" {
		warnings = append(warnings, "APP_URL is empty, reset links will be relative")
	}

	if c.Env == "dev" {
		warnings = append(warnings, "ENV=dev: reset tokens are returned in API responses")
	}

	return warnings, nil
}

// Reset собирает типизированный конфиг восстановления пароля.
func (c *Config) Reset() ResetConfig {
	return ResetConfig{
		TokenTTL:    time.Duration(atoiDef(c.PasswordResetTTLHours, 24)) * time.Hour,
		TokenBytes:  atoiDef(c.ResetTokenBytes, 32),
		BcryptCost:  atoiDef(c.BcryptCost, 12),
		MaxAttempts: atoiDef(c.ResetMaxAttempts, 3),
		Window:      time.Duration(atoiDef(c.ResetWindowMin, 60)) * time.Minute,
		ExposeToken: c.Env == "dev",
	}
}

// Session собирает типизированный конфиг сессий.
func (c *Config) Session() SessionConfig {
	return SessionConfig{
		CleanupAfterDays: atoiDef(c.SessionCleanupDays, 30),
		CleanupInterval:  time.Duration(atoiDef(c.SessionCleanupIntervalMin, 60)) * time.Minute,
		ConcurrentLimit:  atoiDef(c.ConcurrentSessionLimit, 5),
	}
}

// AccessTTL — время жизни access-токена.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.AccessTokenTTL)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// GetDSN — полная DSN (с паролем)
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbPass, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

// GetDSNSafe — DSN без пароля (для логов)
func (c *Config) GetDSNSafe() string {
	return fmt.Sprintf(
		"postgres://%s:***@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

func atoiDef(v string, d int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return d
	}
	return n
}
