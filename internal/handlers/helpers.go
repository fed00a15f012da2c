package handlers

import (
	"errors"
	"net/http"
	"strings"

	"taskdesk/internal/services"
	helpers "taskdesk/internal/utils/helpers"
)

// respondServiceError переводит типизированные ошибки сервисов в HTTP.
// Внутренние сбои наружу уходят одной безликой фразой — детали в логах.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	var rateErr *services.RateLimitError

	switch {
	case errors.As(err, &validationErr):
		msg := validationErr.Error()
		if len(validationErr.Feedback) > 0 {
			msg += ": " + strings.Join(validationErr.Feedback, ", ")
		}
		helpers.Error(w, http.StatusBadRequest, msg)
	case errors.As(err, &rateErr):
		helpers.Error(w, http.StatusTooManyRequests, rateErr.Error())
	case errors.Is(err, services.ErrInvalidOrExpiredToken),
		errors.Is(err, services.ErrTokenExpired),
		errors.Is(err, services.ErrTokenAlreadyUsed):
		helpers.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		helpers.Error(w, http.StatusUnauthorized, err.Error())
	default:
		helpers.Error(w, http.StatusInternalServerError, services.ErrInternal.Error())
	}
}

// maskEmail прячет локальную часть адреса в логах.
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// clientIP — адрес клиента с учётом прокси.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return host
}
