package handlers

import (
	"encoding/json"
	"net/http"

	"taskdesk/internal/logger"
	"taskdesk/internal/middleware"
	"taskdesk/internal/services"
	helpers "taskdesk/internal/utils/helpers"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type SessionHandler struct {
	svc *services.SessionService
}

func NewSessionHandler(svc *services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// ListMine godoc
// @Summary Сессии текущего пользователя
// @Tags sessions
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} models.Session
// @Failure 401 {object} map[string]string
// @Router /api/sessions [get]
func (h *SessionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sessions, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	helpers.JSON(w, http.StatusOK, sessions)
}

// Revoke godoc
// @Summary Отзыв одной сессии
// @Description Идемпотентно: повторный отзыв возвращает revoked=false.
// @Tags sessions
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} map[string]bool
// @Failure 401 {object} map[string]string
// @Router /api/sessions/{id} [delete]
func (h *SessionHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sessionID := mux.Vars(r)["id"]
	if sessionID == "" {
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	// Пользователь может отозвать только свою сессию
	revoked, err := h.svc.Revoke(r.Context(), sessionID, &userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info("Запрошен отзыв сессии", zap.String("session_id", sessionID), zap.Bool("revoked", revoked))
	helpers.JSON(w, http.StatusOK, map[string]bool{"revoked": revoked})
}

type revokeAllReq struct {
	KeepCurrent bool `json:"keep_current"`
}

// RevokeAll godoc
// @Summary Отзыв всех сессий пользователя
// @Description По умолчанию текущая сессия сохраняется (keep_current=true).
// @Tags sessions
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body revokeAllReq false "Параметры"
// @Success 200 {object} map[string]int
// @Failure 401 {object} map[string]string
// @Router /api/sessions/revoke-all [post]
func (h *SessionHandler) RevokeAll(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	userID, ok := middleware.UserIDFromContext(r.Context())
	sessionID, ok2 := middleware.SessionIDFromContext(r.Context())
	if !ok || !ok2 {
		helpers.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req := revokeAllReq{KeepCurrent: true}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	var exclude *string
	if req.KeepCurrent {
		exclude = &sessionID
	}

	count, err := h.svc.RevokeAll(r.Context(), userID, exclude)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info("Массовый отзыв сессий", zap.Int("user_id", userID), zap.Int("count", count))
	helpers.JSON(w, http.StatusOK, map[string]int{"revoked": count})
}

type bulkRevokeReq struct {
	SessionIDs []string `json:"session_ids"`
}

// BulkRevoke godoc
// @Summary Пакетный отзыв сессий (админ)
// @Description Каждая сессия отзывается независимо; частичный провал отражается в errors.
// @Tags sessions
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body bulkRevokeReq true "Список сессий"
// @Success 200 {object} models.BulkRevokeResult
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/admin/sessions/bulk-revoke [post]
func (h *SessionHandler) BulkRevoke(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var req bulkRevokeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.SessionIDs) == 0 {
		log.Warn("Невалидный payload в BulkRevoke")
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	res := h.svc.BulkRevoke(r.Context(), req.SessionIDs)
	helpers.JSON(w, http.StatusOK, res)
}
