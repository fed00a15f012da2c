package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyPassword = errors.New("пустой пароль")

// Частые пароли — подстрочное совпадение снижает оценку стойкости.
var commonPasswords = []string{
	"password",
	"пароль",
	"123456",
	"12345678",
	"qwerty",
	"admin",
	"letmein",
	"welcome",
	"111111",
	"abc123",
}

// HashPassword хеширует пароль bcrypt'ом с заданной стоимостью (0 → 12).
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if cost <= 0 {
		cost = 12
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPasswordHash сверяет пароль с bcrypt-хешем.
// На битом хеше возвращает false, а не ошибку.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateSecureToken выдаёт криптостойкий токен: byteLength случайных байт в hex.
func GenerateSecureToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = 32
	}
	raw := make([]byte, byteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// HashToken — детерминированный SHA-256 (hex) для хранения и поиска токенов.
// Не bcrypt: по медленному хешу нельзя искать точным совпадением.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TimingSafeEqual — сравнение за константное время.
// При разной длине отвечает false, но время остаётся функцией длины входа.
func TimingSafeEqual(a, b string) bool {
	ab := []byte(a)
	bb := []byte(b)
	if len(ab) != len(bb) {
		subtle.ConstantTimeCompare(ab, ab)
		return false
	}
	return subtle.ConstantTimeCompare(ab, bb) == 1
}

// PasswordStrength — детерминированная оценка стойкости пароля.
type PasswordStrength struct {
	Score    int      `json:"score"`
	Feedback []string `json:"feedback"`
	IsValid  bool     `json:"is_valid"`
}

// CheckPasswordStrength: +1 за длину>=8, верхний/нижний регистр, цифру и спецсимвол,
// −1 за совпадение с частым паролем. Валиден при score>=4 и длине>=8.
func CheckPasswordStrength(password string) PasswordStrength {
	var st PasswordStrength

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	longEnough := len([]rune(password)) >= 8
	if longEnough {
		st.Score++
	} else {
		st.Feedback = append(st.Feedback, "минимум 8 символов")
	}
	if hasUpper {
		st.Score++
	} else {
		st.Feedback = append(st.Feedback, "добавьте заглавную букву")
	}
	if hasLower {
		st.Score++
	} else {
		st.Feedback = append(st.Feedback, "добавьте строчную букву")
	}
	if hasDigit {
		st.Score++
	} else {
		st.Feedback = append(st.Feedback, "добавьте цифру")
	}
	if hasSpecial {
		st.Score++
	} else {
		st.Feedback = append(st.Feedback, "добавьте спецсимвол")
	}

	lower := strings.ToLower(password)
	for _, common := range commonPasswords {
		if strings.Contains(lower, common) {
			st.Score--
			st.Feedback = append(st.Feedback, "пароль содержит слишком частое сочетание")
			break
		}
	}

	st.IsValid = st.Score >= 4 && longEnough
	return st
}
