package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"taskdesk/internal/logger"
	"taskdesk/internal/services"
	helpers "taskdesk/internal/utils/helpers"

	"go.uber.org/zap"
)

type PasswordHandler struct {
	svc *services.PasswordService
}

func NewPasswordHandler(svc *services.PasswordService) *PasswordHandler {
	return &PasswordHandler{svc: svc}
}

type forgotReq struct {
	Email string `json:"email"`
}

// Forgot godoc
// @Summary Запрос восстановления пароля
// @Description Отправляет письмо со ссылкой для сброса пароля. Ответ всегда одинаковый, даже если e-mail не найден.
// @Tags password
// @Accept json
// @Produce json
// @Param input body forgotReq true "Email пользователя"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Router /api/password/forgot [post]
func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req forgotReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		log.Warn("Невалидный payload в Forgot")
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	devToken, err := h.svc.RequestReset(r.Context(), req.Email)
	if err != nil {
		// Лимит и сбои стора — единственное, что отличает ответ;
		// «нет такого email» сюда не попадает никогда.
		log.Warn("Сбой при запросе восстановления пароля", zap.String("email_masked", maskEmail(req.Email)), zap.Error(err))
		respondServiceError(w, err)
		return
	}

	log.Info("Запрошено восстановление пароля", zap.String("email_masked", maskEmail(req.Email)))

	resp := map[string]string{"message": "If the email exists, a reset link has been sent."}
	if devToken != "" {
		// Только dev-режим: токен в ответе вместо письма
		resp["token"] = devToken
	}
	helpers.JSON(w, http.StatusOK, resp)
}

// Verify godoc
// @Summary Проверка токена сброса
// @Description Неизменяющая проверка: валиден ли токен. Возвращает имя и email владельца.
// @Tags password
// @Produce json
// @Param token query string true "Токен из письма"
// @Success 200 {object} models.ResetUserInfo
// @Failure 400 {object} map[string]string
// @Router /api/password/verify [get]
func (h *PasswordHandler) Verify(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		log.Warn("Невалидный payload в Verify")
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	info, err := h.svc.VerifyToken(r.Context(), token)
	if err != nil {
		log.Warn("Проверка токена сброса не прошла", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, info)
}

type resetReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Reset godoc
// @Summary Сброс пароля по токену
// @Description Устанавливает новый пароль по токену из письма. Токен одноразовый.
// @Tags password
// @Accept json
// @Produce json
// @Param input body resetReq true "Токен и новый пароль"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/password/reset [post]
func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req resetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" || req.NewPassword == "" {
		log.Warn("Невалидный payload в Reset")
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		log.Warn("Не удалось сбросить пароль по токену", zap.Error(err))
		respondServiceError(w, err)
		return
	}

	log.Info("Пароль успешно сброшен")
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Password has been reset."})
}
