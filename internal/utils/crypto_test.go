package utils

import (
	"encoding/hex"
	"errors"
	"testing"
)

func TestHashPassword_AndCheck(t *testing.T) {
	hash, err := HashPassword("Sup3r$ecret", 4) // минимальная стоимость — ради скорости теста
	if err != nil {
		t.Fatalf("ошибка хеширования: %v", err)
	}
	if hash == "" || hash == "Sup3r$ecret" {
		t.Fatal("хеш пустой или совпадает с паролем")
	}

	if !CheckPasswordHash("Sup3r$ecret", hash) {
		t.Fatal("верный пароль не прошёл проверку")
	}
	if CheckPasswordHash("другой", hash) {
		t.Fatal("неверный пароль прошёл проверку")
	}
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("", 4)
	if !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("ожидалась ErrEmptyPassword, получено: %v", err)
	}
}

func TestCheckPasswordHash_MalformedHash(t *testing.T) {
	// Битый хеш — просто false, без паники и ошибок
	if CheckPasswordHash("secret", "это не bcrypt") {
		t.Fatal("битый хеш не должен проходить проверку")
	}
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("ошибка генерации: %v", err)
	}
	if len(a) != 64 {
		t.Fatalf("32 байта должны дать 64 hex-символа, получено %d", len(a))
	}
	if _, err := hex.DecodeString(a); err != nil {
		t.Fatalf("токен не hex: %v", err)
	}

	b, _ := GenerateSecureToken(32)
	if a == b {
		t.Fatal("два вызова дали одинаковый токен")
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Fatal("хеш токена должен быть детерминированным")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatal("разные токены дали одинаковый хеш")
	}
	if len(HashToken("abc")) != 64 {
		t.Fatal("ожидался sha256 в hex (64 символа)")
	}
}

func TestTimingSafeEqual(t *testing.T) {
	if !TimingSafeEqual("token", "token") {
		t.Fatal("равные строки должны совпадать")
	}
	if TimingSafeEqual("token", "Token") {
		t.Fatal("разные строки не должны совпадать")
	}
	if TimingSafeEqual("short", "подлиннее") {
		t.Fatal("строки разной длины не должны совпадать")
	}
}

func TestCheckPasswordStrength(t *testing.T) {
	cases := []struct {
		name    string
		pw      string
		isValid bool
	}{
		{"сильный", "Correct#Horse7", true},
		{"без спецсимвола", "Abcdefg1", true},
		{"короткий", "Ab1$", false},
		{"частый пароль", "Password#1", true}, // 5 признаков − 1 за "password"
		{"совсем слабый", "123456", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			st := CheckPasswordStrength(c.pw)
			if st.IsValid != c.isValid {
				t.Fatalf("%q: ожидалось isValid=%v, получено %v (score=%d, feedback=%v)",
					c.pw, c.isValid, st.IsValid, st.Score, st.Feedback)
			}
		})
	}

	// Детерминированность
	a := CheckPasswordStrength("Abcdefg1")
	b := CheckPasswordStrength("Abcdefg1")
	if a.Score != b.Score || a.IsValid != b.IsValid {
		t.Fatal("оценка должна быть детерминированной")
	}
}

func TestCheckPasswordStrength_ScoreBreakdown(t *testing.T) {
	st := CheckPasswordStrength("Correct#Horse7")
	if st.Score != 5 {
		t.Fatalf("ожидался score=5, получено %d (%v)", st.Score, st.Feedback)
	}
	if len(st.Feedback) != 0 {
		t.Fatalf("у сильного пароля не должно быть замечаний: %v", st.Feedback)
	}

	weak := CheckPasswordStrength("qwerty")
	if weak.IsValid {
		t.Fatal("частый короткий пароль не может быть валидным")
	}
	if weak.Score >= 4 {
		t.Fatalf("слишком высокий score для qwerty: %d", weak.Score)
	}
}
