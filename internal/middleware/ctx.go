package middleware

import (
	"context"
	"net/http"
	"taskdesk/internal/reqctx"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ContextRequestID ctxKey = "request_id"
	ContextUserID    ctxKey = "user_id"
	ContextRole      ctxKey = "role"
	ContextSessionID ctxKey = "session_id"
)

// RequestID присваивает каждому запросу идентификатор (или берёт клиентский).
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-Id")
		if rid == "" {
			rid = uuid.New().String()
		}

		ctx := reqctx.WithRequestID(r.Context(), rid)
		ctx = context.WithValue(ctx, ContextRequestID, rid)

		w.Header().Set("X-Request-Id", rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
