package models

import "time"

type Session struct {
	ID           string     `json:"id"`
	UserID       int        `json:"user_id"`
	TokenHash    string     `json:"-"`
	UserAgent    string     `json:"user_agent"`
	IPAddress    string     `json:"ip_address"`
	LastActiveAt time.Time  `json:"last_active_at"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsRevoked — сессия считается активной, пока revoked_at не выставлен.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// BulkRevokeError — ошибка отзыва одной сессии в пакетной операции.
type BulkRevokeError struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// BulkRevokeResult — итог пакетного отзыва: частичный провал — штатная ситуация.
type BulkRevokeResult struct {
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Errors  []BulkRevokeError `json:"errors,omitempty"`
}
