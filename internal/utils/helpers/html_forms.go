package helpers

import (
	"fmt"
	"html"
	"strings"
	"time"

	"taskdesk/internal/models"
)

// BuildPasswordResetHTML — письмо со ссылкой на сброс пароля.
func BuildPasswordResetHTML(fullName, resetLink string, ttl time.Duration) string {
	name := html.EscapeString(strings.TrimSpace(fullName))
	if name == "" {
		name = "пользователь"
	}
	hours := int(ttl.Hours())
	return fmt.Sprintf(`
		<h2>Восстановление пароля</h2>
		<p>Здравствуйте, %s!</p>
		<p>Мы получили запрос на сброс пароля для вашего аккаунта TaskDesk.</p>
		<p><a href="%s">Установить новый пароль</a></p>
		<p>Ссылка действительна %d ч. Если вы не запрашивали сброс — просто проигнорируйте это письмо.</p>
		<p>— Команда TaskDesk</p>
	`, name, resetLink, hours)
}

// BuildSecurityAlertHTML — письмо о подозрительной активности в аккаунте.
func BuildSecurityAlertHTML(fullName string, alerts []models.SecurityAlert) string {
	name := html.EscapeString(strings.TrimSpace(fullName))
	if name == "" {
		name = "пользователь"
	}

	var b strings.Builder
	b.WriteString("<h2>Новый вход в ваш аккаунт</h2>")
	fmt.Fprintf(&b, "<p>Здравствуйте, %s!</p>", name)
	b.WriteString("<p>Мы заметили следующее:</p><ul>")
	for _, a := range alerts {
		fmt.Fprintf(&b, "<li>%s — %s (%s)</li>",
			html.EscapeString(alertTitle(a.Type)),
			html.EscapeString(a.Details),
			a.Timestamp.Format("02.01.2006 15:04"),
		)
	}
	b.WriteString("</ul>")
	b.WriteString("<p>Если это были вы — ничего делать не нужно. Иначе смените пароль и завершите лишние сессии в настройках.</p>")
	b.WriteString("<p>— Команда TaskDesk</p>")
	return b.String()
}

func alertTitle(alertType string) string {
	switch alertType {
	case models.AlertNewDevice:
		return "Вход с нового устройства"
	case models.AlertSuspiciousLocation:
		return "Вход с нового адреса"
	case models.AlertConcurrentSessions:
		return "Слишком много активных сессий"
	default:
		return "Необычная активность"
	}
}
