package routes

import (
	"taskdesk/internal/handlers"
	"taskdesk/internal/middleware"

	"github.com/gorilla/mux"
)

func InitRoutes(
	router *mux.Router,
	authHandler *handlers.AuthHandler,
	passwordHandler *handlers.PasswordHandler,
	sessionHandler *handlers.SessionHandler,
	jwtSecret string,
	sessionGuard middleware.SessionGuard,
) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logging)

	api := router.PathPrefix("/api").Subrouter()

	// --- Публичные маршруты ---
	api.HandleFunc("/login", authHandler.Login).Methods("POST")

	api.HandleFunc("/password/forgot", passwordHandler.Forgot).Methods("POST")
	api.HandleFunc("/password/verify", passwordHandler.Verify).Methods("GET")
	api.HandleFunc("/password/reset", passwordHandler.Reset).Methods("POST")

	// --- Защищённые JWT ---
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.JWTAuth(jwtSecret, sessionGuard))

	protected.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	protected.HandleFunc("/password/change", authHandler.Change).Methods("POST")

	protected.HandleFunc("/sessions", sessionHandler.ListMine).Methods("GET")
	protected.HandleFunc("/sessions/revoke-all", sessionHandler.RevokeAll).Methods("POST")
	protected.HandleFunc("/sessions/{id}", sessionHandler.Revoke).Methods("DELETE")

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.OnlyRole("admin"))
	admin.HandleFunc("/sessions/bulk-revoke", sessionHandler.BulkRevoke).Methods("POST")
}
