package models

import "time"

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusBanned   = "banned"
)

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsActive — только активный пользователь может восстанавливать пароль и входить.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// ResetUserInfo — урезанная проекция пользователя для проверки токена:
// ни ID, ни хеша пароля, ни таймстемпов наружу не отдаём.
type ResetUserInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}
