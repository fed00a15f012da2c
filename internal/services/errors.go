package services

import (
	"errors"
	"fmt"
	"time"
)

// Доменные ошибки — типизированные, чтобы хендлеры матчили их через
// errors.Is/As, а не по тексту сообщений.
var (
	// ErrInvalidOrExpiredToken — намеренно единая ошибка для «нет такого»,
	// «просрочен» и «использован» на этапе проверки: различимые ответы
	// дали бы атакующему оракул состояния.
	ErrInvalidOrExpiredToken = errors.New("неверный или просроченный токен")

	// Эти две различимы только в ResetPassword: у вызывающего на руках
	// уже есть настоящий токен, скрывать его состояние незачем.
	ErrTokenExpired     = errors.New("срок действия токена истёк")
	ErrTokenAlreadyUsed = errors.New("токен уже был использован")

	ErrUnauthorized = errors.New("неверный логин или пароль")

	// ErrInternal — единственное, что уходит наружу при сбоях стора:
	// подробности остаются в логах.
	ErrInternal = errors.New("внутренняя ошибка, попробуйте позже")
)

// ValidationError — новый пароль не прошёл проверку стойкости.
type ValidationError struct {
	Feedback []string
}

func (e *ValidationError) Error() string {
	return "пароль не соответствует требованиям"
}

// RateLimitError — превышен лимит запросов на сброс в скользящем окне.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("слишком много запросов на сброс, повторите через %s", formatRetryAfter(e.RetryAfter))
}

func formatRetryAfter(d time.Duration) string {
	if d < time.Minute {
		return "минуту"
	}
	mins := int(d.Round(time.Minute).Minutes())
	return fmt.Sprintf("%d мин", mins)
}
