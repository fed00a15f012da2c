package models

import "time"

const (
	AlertNewDevice          = "NEW_DEVICE"
	AlertSuspiciousLocation = "SUSPICIOUS_LOCATION"
	AlertConcurrentSessions = "CONCURRENT_SESSIONS"
)

// SecurityAlert — результат эвристик по истории сессий.
// Чисто наблюдательный: вход пользователя не блокирует.
type SecurityAlert struct {
	Type      string    `json:"type"`
	UserID    int       `json:"user_id"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}
