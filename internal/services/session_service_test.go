package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"taskdesk/internal/config"
	"taskdesk/internal/models"
)

// Мок-стор сессий: Revoke/RevokeAll повторяют семантику условного UPDATE.
type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*models.Session)}
}

func (m *mockSessionRepo) Create(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *mockSessionRepo) Touch(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false, nil
	}
	s.LastActiveAt = time.Now()
	return true, nil
}

func (m *mockSessionRepo) Revoke(_ context.Context, id string, ownerUserID *int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.RevokedAt != nil {
		return false, nil
	}
	if ownerUserID != nil && s.UserID != *ownerUserID {
		return false, nil
	}
	now := time.Now()
	s.RevokedAt = &now
	return true, nil
}

func (m *mockSessionRepo) RevokeAll(_ context.Context, userID int, excludeID *string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var n int
	for id, s := range m.sessions {
		if s.UserID != userID || s.RevokedAt != nil {
			continue
		}
		if excludeID != nil && id == *excludeID {
			continue
		}
		s.RevokedAt = &now
		n++
	}
	return n, nil
}

func (m *mockSessionRepo) ListByUser(_ context.Context, userID int) ([]*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockSessionRepo) DeleteOld(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	for id, s := range m.sessions {
		revokedOld := s.RevokedAt != nil && s.RevokedAt.Before(cutoff)
		silentOld := s.RevokedAt == nil && s.LastActiveAt.Before(cutoff)
		if revokedOld || silentOld {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func newTestSessionService(repo *mockSessionRepo) *SessionService {
	return NewSessionService(repo, config.SessionConfig{
		CleanupAfterDays: 30,
		CleanupInterval:  time.Hour,
		ConcurrentLimit:  5,
	})
}

func TestCreateSession_StoresOnlyHash(t *testing.T) {
	repo := newMockSessionRepo()
	svc := newTestSessionService(repo)

	session, secret, err := svc.CreateSession(context.Background(), 7, "Mozilla/5.0", "203.0.113.10")
	if err != nil {
		t.Fatalf("ошибка создания сессии: %v", err)
	}
	if secret == "" {
		t.Fatal("секрет сессии не вернулся")
	}
	if session.TokenHash == secret {
		t.Fatal("в сторе лежит плейнтекст секрета")
	}
	if session.RevokedAt != nil {
		t.Fatal("новая сессия не может быть отозванной")
	}
}

func TestRevoke_Idempotent(t *testing.T) {
	repo := newMockSessionRepo()
	svc := newTestSessionService(repo)
	ctx := context.Background()

	session, _, _ := svc.CreateSession(ctx, 7, "ua", "ip")

	first, err := svc.Revoke(ctx, session.ID, nil)
	if err != nil || !first {
		t.Fatalf("первый отзыв должен вернуть true: %v %v", first, err)
	}
	second, err := svc.Revoke(ctx, session.ID, nil)
	if err != nil {
		t.Fatalf("повторный отзыв — не ошибка: %v", err)
	}
	if second {
		t.Fatal("повторный отзыв должен вернуть false")
	}

	// Сессия осталась отозванной ровно один раз
	if repo.sessions[session.ID].RevokedAt == nil {
		t.Fatal("сессия не отозвана")
	}
}

func TestRevoke_OwnerMismatch(t *testing.T) {
	repo := newMockSessionRepo()
	svc := newTestSessionService(repo)
	ctx := context.Background()

	session, _, _ := svc.CreateSession(ctx, 7, "ua", "ip")

	stranger := 99
	ok, err := svc.Revoke(ctx, session.ID, &stranger)
	if err != nil {
		t.Fatalf("чужой отзыв — не ошибка: %v", err)
	}
	if ok {
		t.Fatal("чужую сессию отзывать нельзя")
	}
	if repo.sessions[session.ID].RevokedAt != nil {
		t.Fatal("сессия не должна была отозваться")
	}
}

func TestRevokeAll_ExcludesCurrent(t *testing.T) {
	repo := newMockSessionRepo()
	svc := newTestSessionService(repo)
	ctx := context.Background()

	var keep string
	for i := 0; i < 4; i++ {
		s, _, _ := svc.CreateSession(ctx, 7, "ua", "ip")
		if i == 0 {
			keep = s.ID
		}
	}
	// Чужая сессия не должна попасть под отзыв
	other, _, _ := svc.CreateSession(ctx, 8, "ua", "ip")

	count, err := svc.RevokeAll(ctx, 7, &keep)
	if err != nil {
		t.Fatalf("массовый отзыв: %v", err)
	}
	if count != 3 {
		t.Fatalf("ожидалось ровно 3 отозванных, получено %d", count)
	}
	if repo.sessions[keep].RevokedAt != nil {
		t.Fatal("исключённая сессия отозвана")
	}
	if repo.sessions[other.ID].RevokedAt != nil {
		t.Fatal("чужая сессия отозвана")
	}
}

func TestBulkRevoke_PartialFailure(t *testing.T) {
	repo := newMockSessionRepo()
	svc := newTestSessionService(repo)
	ctx := context.Background()

	session, _, _ := svc.CreateSession(ctx, 7, "ua", "ip")

	res := svc.BulkRevoke(ctx, []string{session.ID, "no-such-session"})
	if res.Success != 1 || res.Failed != 1 {
		t.Fatalf("ожидалось success=1 failed=1, получено %d/%d", res.Success, res.Failed)
	}
	if len(res.Errors) != 1 || res.Errors[0].SessionID != "no-such-session" {
		t.Fatalf("в errors должна быть ровно невалидная сессия: %+v", res.Errors)
	}
}

func TestTouch_MissingSessionSilent(t *testing.T) {
	repo := newMockSessionRepo()
	svc := newTestSessionService(repo)

	// Не должно ни паниковать, ни возвращать ошибку наружу
	svc.Touch(context.Background(), "no-such-session")
}

func TestCleanup(t *testing.T) {
	repo := newMockSessionRepo()
	svc := newTestSessionService(repo)
	ctx := context.Background()

	fresh, _, _ := svc.CreateSession(ctx, 7, "ua", "ip")

	// Давно отозванная
	revoked, _, _ := svc.CreateSession(ctx, 7, "ua", "ip")
	long := time.Now().AddDate(0, 0, -90)
	repo.mu.Lock()
	repo.sessions[revoked.ID].RevokedAt = &long
	repo.mu.Unlock()

	// Давно молчащая, но не отозванная
	silent, _, _ := svc.CreateSession(ctx, 7, "ua", "ip")
	repo.mu.Lock()
	repo.sessions[silent.ID].LastActiveAt = long
	repo.mu.Unlock()

	n := svc.Cleanup(ctx, 30)
	if n != 2 {
		t.Fatalf("ожидалось удаление 2 сессий, удалено %d", n)
	}
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if _, ok := repo.sessions[fresh.ID]; !ok {
		t.Fatal("свежая сессия удалена")
	}
}

func TestRevoke_ConcurrentSingleTrue(t *testing.T) {
	repo := newMockSessionRepo()
	svc := newTestSessionService(repo)
	ctx := context.Background()

	session, _, _ := svc.CreateSession(ctx, 7, "ua", "ip")

	const n = 8
	results := make(chan bool, n)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < n; i++ {
		go func() {
			start.Wait()
			ok, err := svc.Revoke(ctx, session.ID, nil)
			if err != nil {
				t.Errorf("ошибка в гонке отзыва: %v", err)
			}
			results <- ok
		}()
	}
	start.Done()

	var trues int
	for i := 0; i < n; i++ {
		if <-results {
			trues++
		}
	}
	if trues != 1 {
		t.Fatalf("ровно один отзыв должен вернуть true, получено %d", trues)
	}
}
