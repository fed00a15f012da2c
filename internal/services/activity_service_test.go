package services

import (
	"context"
	"errors"
	"testing"

	"taskdesk/internal/config"
	"taskdesk/internal/models"
)

// Мок истории сессий: счётчики задаются напрямую в тесте.
// Detect зовётся после вставки новой сессии, поэтому «новое» = счётчик 1.
type mockHistoryRepo struct {
	byUA     map[string]int
	byIP     map[string]int
	active   int
	uaErr    error
	ipErr    error
	countErr error
}

func (m *mockHistoryRepo) CountByUserAgent(_ context.Context, _ int, ua string) (int, error) {
	if m.uaErr != nil {
		return 0, m.uaErr
	}
	return m.byUA[ua], nil
}

func (m *mockHistoryRepo) CountByIP(_ context.Context, _ int, ip string) (int, error) {
	if m.ipErr != nil {
		return 0, m.ipErr
	}
	return m.byIP[ip], nil
}

func (m *mockHistoryRepo) CountActive(_ context.Context, _ int) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.active, nil
}

func newTestActivityService(repo *mockHistoryRepo) *ActivityService {
	return NewActivityService(repo, config.SessionConfig{ConcurrentLimit: 5})
}

func hasAlert(alerts []models.SecurityAlert, typ string) bool {
	for _, a := range alerts {
		if a.Type == typ {
			return true
		}
	}
	return false
}

func TestDetect_NewDevice(t *testing.T) {
	repo := &mockHistoryRepo{
		byUA:   map[string]int{"Firefox": 1}, // только что вставленная
		byIP:   map[string]int{"203.0.113.10": 3},
		active: 2,
	}
	svc := newTestActivityService(repo)

	alerts := svc.Detect(context.Background(), 7, "Firefox", "203.0.113.10")
	if !hasAlert(alerts, models.AlertNewDevice) {
		t.Fatalf("ожидался алерт NEW_DEVICE: %+v", alerts)
	}
	if hasAlert(alerts, models.AlertSuspiciousLocation) {
		t.Fatal("знакомый адрес не должен давать алерт")
	}
}

func TestDetect_KnownDeviceSilent(t *testing.T) {
	repo := &mockHistoryRepo{
		byUA:   map[string]int{"Firefox": 4},
		byIP:   map[string]int{"203.0.113.10": 4},
		active: 2,
	}
	svc := newTestActivityService(repo)

	alerts := svc.Detect(context.Background(), 7, "Firefox", "203.0.113.10")
	if len(alerts) != 0 {
		t.Fatalf("повторный вход с того же устройства — без алертов: %+v", alerts)
	}
}

func TestDetect_SuspiciousLocation(t *testing.T) {
	repo := &mockHistoryRepo{
		byUA:   map[string]int{"Firefox": 4},
		byIP:   map[string]int{"198.51.100.7": 1},
		active: 2,
	}
	svc := newTestActivityService(repo)

	alerts := svc.Detect(context.Background(), 7, "Firefox", "198.51.100.7")
	if !hasAlert(alerts, models.AlertSuspiciousLocation) {
		t.Fatalf("ожидался алерт SUSPICIOUS_LOCATION: %+v", alerts)
	}
	if hasAlert(alerts, models.AlertNewDevice) {
		t.Fatal("знакомое устройство не должно давать алерт")
	}
}

func TestDetect_ConcurrentSessions(t *testing.T) {
	repo := &mockHistoryRepo{
		byUA:   map[string]int{"Firefox": 4},
		byIP:   map[string]int{"203.0.113.10": 4},
		active: 6, // порог 5
	}
	svc := newTestActivityService(repo)

	alerts := svc.Detect(context.Background(), 7, "Firefox", "203.0.113.10")
	if !hasAlert(alerts, models.AlertConcurrentSessions) {
		t.Fatalf("ожидался алерт CONCURRENT_SESSIONS: %+v", alerts)
	}

	// Ровно на пороге — ещё тихо
	repo.active = 5
	alerts = svc.Detect(context.Background(), 7, "Firefox", "203.0.113.10")
	if hasAlert(alerts, models.AlertConcurrentSessions) {
		t.Fatal("на пороге алерта быть не должно")
	}
}

func TestDetect_EmptyFieldsSkipped(t *testing.T) {
	repo := &mockHistoryRepo{byUA: map[string]int{}, byIP: map[string]int{}, active: 1}
	svc := newTestActivityService(repo)

	// Пустые UA и IP не должны считаться «новым устройством»
	alerts := svc.Detect(context.Background(), 7, "", "")
	if hasAlert(alerts, models.AlertNewDevice) || hasAlert(alerts, models.AlertSuspiciousLocation) {
		t.Fatalf("пустые поля не участвуют в эвристиках: %+v", alerts)
	}
}

func TestDetect_HeuristicErrorSkipped(t *testing.T) {
	repo := &mockHistoryRepo{
		byUA:   map[string]int{},
		byIP:   map[string]int{"198.51.100.7": 1},
		active: 2,
		uaErr:  errors.New("timeout"),
	}
	svc := newTestActivityService(repo)

	// Сбой одной эвристики не валит остальные
	alerts := svc.Detect(context.Background(), 7, "Firefox", "198.51.100.7")
	if hasAlert(alerts, models.AlertNewDevice) {
		t.Fatal("сбойная эвристика не должна давать алерт")
	}
	if !hasAlert(alerts, models.AlertSuspiciousLocation) {
		t.Fatalf("остальные эвристики должны отработать: %+v", alerts)
	}
}
