package middleware

import (
	"context"
	"net/http"
	"strings"

	"taskdesk/internal/logger"
	"taskdesk/internal/reqctx"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// SessionGuard — проверка живости сессии и отметка активности.
type SessionGuard interface {
	IsActive(ctx context.Context, sessionID string) (bool, error)
	Touch(ctx context.Context, sessionID string) (bool, error)
}

// JWTAuth проверяет access-токен и привязанную к нему сессию (claim sid).
// Отозванная сессия делает токен недействительным до истечения exp.
// На каждом авторизованном запросе сессии обновляется last_active_at.
func JWTAuth(secret string, sessions SessionGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				logger.WithCtx(r.Context()).Warn("JWTAuth: отсутствует access token")
				http.Error(w, "Отсутствует access token", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.WithCtx(r.Context()).Warn("JWTAuth: неверный или просроченный токен", zap.Error(err))
				http.Error(w, "Неверный или просроченный токен", http.StatusUnauthorized)
				return
			}

			userID, ok1 := claims["user_id"].(float64)
			role, ok2 := claims["role"].(string)
			sessionID, ok3 := claims["sid"].(string)
			if !ok1 || !ok2 || !ok3 {
				logger.WithCtx(r.Context()).Warn("JWTAuth: недопустимый payload", zap.Any("claims", claims))
				http.Error(w, "Недопустимый payload", http.StatusUnauthorized)
				return
			}

			// Токен жив, но сессия могла быть отозвана
			active, err := sessions.IsActive(r.Context(), sessionID)
			if err != nil {
				logger.WithCtx(r.Context()).Error("JWTAuth: проверка сессии не удалась", zap.Error(err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			if !active {
				logger.WithCtx(r.Context()).Warn("JWTAuth: сессия отозвана", zap.String("session_id", sessionID))
				http.Error(w, "Неверный или просроченный токен", http.StatusUnauthorized)
				return
			}

			// Отметка активности — best effort
			if _, err := sessions.Touch(r.Context(), sessionID); err != nil {
				logger.WithCtx(r.Context()).Warn("JWTAuth: touch сессии не удался", zap.Error(err))
			}

			ctx := context.WithValue(r.Context(), ContextUserID, int(userID))
			ctx = context.WithValue(ctx, ContextRole, role)
			ctx = context.WithValue(ctx, ContextSessionID, sessionID)
			ctx = reqctx.WithUserID(ctx, int(userID))
			ctx = reqctx.WithSessionID(ctx, sessionID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(ContextUserID).(int)
	return v, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextRole).(string)
	return v, ok
}

func SessionIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextSessionID).(string)
	return v, ok
}
