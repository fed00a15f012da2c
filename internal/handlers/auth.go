package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"taskdesk/internal/logger"
	"taskdesk/internal/middleware"
	"taskdesk/internal/models"
	"taskdesk/internal/services"
	helpers "taskdesk/internal/utils/helpers"

	"go.uber.org/zap"
)

type AuthHandler struct {
	svc       *services.AuthService
	jwtSecret string
	accessTTL time.Duration
}

func NewAuthHandler(svc *services.AuthService, jwtSecret string, accessTTL time.Duration) *AuthHandler {
	return &AuthHandler{svc: svc, jwtSecret: jwtSecret, accessTTL: accessTTL}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string          `json:"access_token"`
	Session     *models.Session `json:"session"`
}

// Login godoc
// @Summary Вход по логину и паролю
// @Description Создаёт сессию и выдаёт access-токен, привязанный к ней.
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginReq true "Логин и пароль"
// @Success 200 {object} loginResp
// @Failure 401 {object} map[string]string
// @Router /api/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		log.Warn("Невалидный payload в Login")
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	accessToken, session, err := h.svc.LoginUser(
		r.Context(),
		req.Username, req.Password,
		h.jwtSecret, h.accessTTL,
		r.UserAgent(), clientIP(r),
	)
	if err != nil {
		log.Warn("Вход не выполнен", zap.String("username", req.Username), zap.Error(err))
		respondServiceError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, loginResp{AccessToken: accessToken, Session: session})
}

// Logout godoc
// @Summary Выход (отзыв текущей сессии)
// @Tags auth
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	userID, ok := middleware.UserIDFromContext(r.Context())
	sessionID, ok2 := middleware.SessionIDFromContext(r.Context())
	if !ok || !ok2 {
		log.Warn("Logout без контекста авторизации")
		helpers.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.svc.Logout(r.Context(), userID, sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Logged out."})
}

type changeReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Change godoc
// @Summary Смена пароля (авторизованный пользователь)
// @Description Смена пароля по старому паролю. Остальные сессии отзываются.
// @Tags password
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body changeReq true "Старый и новый пароль"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/password/change [post]
func (h *AuthHandler) Change(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	userID, ok := middleware.UserIDFromContext(r.Context())
	sessionID, ok2 := middleware.SessionIDFromContext(r.Context())
	if !ok || !ok2 || userID == 0 {
		log.Warn("Нет доступа для Change: отсутствует user_id")
		helpers.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OldPassword == "" || req.NewPassword == "" {
		log.Warn("Невалидный payload в Change", zap.Int("user_id", userID))
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := h.svc.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword, sessionID); err != nil {
		log.Warn("Не удалось сменить пароль", zap.Int("user_id", userID), zap.Error(err))
		respondServiceError(w, err)
		return
	}

	log.Info("Пароль изменён", zap.Int("user_id", userID))
	helpers.JSON(w, http.StatusOK, map[string]string{"message": "Password changed."})
}
