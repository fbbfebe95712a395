package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"auth-portal/internal/domain"
)

type mockUserRepo struct {
	usersByID  map[int64]domain.User
	byUsername map[string]int64
	nextID     int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:  make(map[int64]domain.User),
		byUsername: make(map[string]int64),
		nextID:     1,
	}
}

func (m *mockUserRepo) add(user domain.User) domain.User {
	if user.ID == 0 {
		user.ID = m.nextID
		m.nextID++
	}
	m.usersByID[user.ID] = user
	m.byUsername[user.Username] = user.ID
	return user
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	id, ok := m.byUsername[username]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.usersByID[id], nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) List(_ context.Context) ([]domain.User, error) {
	var users []domain.User
	for _, u := range m.usersByID {
		users = append(users, u)
	}
	return users, nil
}

func (m *mockUserRepo) Create(_ context.Context, username, passwordHash string, permissions []string) (domain.User, error) {
	if _, exists := m.byUsername[username]; exists {
		return domain.User{}, errors.New("duplicate username")
	}
	user := m.add(domain.User{
		Username:     username,
		PasswordHash: passwordHash,
		Permissions:  permissions,
		CreatedAt:    time.Now().UTC(),
	})
	return user, nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id int64) error {
	if user, ok := m.usersByID[id]; ok {
		delete(m.byUsername, user.Username)
		delete(m.usersByID, id)
	}
	return nil
}

type mockSessionRepo struct {
	mu        sync.Mutex
	sessions  map[string]domain.Session
	insertErr error
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]domain.Session)}
}

func (m *mockSessionRepo) Insert(_ context.Context, session domain.Session) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return domain.Session{}, pgx.ErrNoRows
	}
	return session, nil
}

func (m *mockSessionRepo) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpiredBefore(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for id, s := range m.sessions {
		if s.ExpiresAt.Before(now) {
			delete(m.sessions, id)
			count++
		}
	}
	return count, nil
}

func (m *mockSessionRepo) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	return ok
}

func TestSessionServiceCreateAndValidate_RoundTrip(t *testing.T) {
	users := newMockUserRepo()
	sessions := newMockSessionRepo()
	user := users.add(domain.User{Username: "admin", Permissions: []string{"CREATE_USER", "READ_USER"}})
	svc := NewSessionService(zap.NewNop(), sessions, users, 0)

	session, err := svc.Create(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.ID == "" {
		t.Fatalf("expected opaque session id")
	}
	wantExpiry := time.Now().UTC().Add(DefaultSessionTTL)
	if session.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || session.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Fatalf("expected expiry near now+24h, got %v", session.ExpiresAt)
	}

	resolved, err := svc.Validate(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if resolved == nil {
		t.Fatalf("expected valid session")
	}
	if resolved.ID != user.ID || resolved.Username != "admin" {
		t.Fatalf("expected owning user, got %+v", resolved)
	}
	if len(resolved.Permissions) != 2 {
		t.Fatalf("expected permissions joined, got %v", resolved.Permissions)
	}
}

func TestSessionServiceCreate_DistinctIDs(t *testing.T) {
	users := newMockUserRepo()
	sessions := newMockSessionRepo()
	user := users.add(domain.User{Username: "admin"})
	svc := NewSessionService(zap.NewNop(), sessions, users, time.Hour)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		session, err := svc.Create(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("create session: %v", err)
		}
		if seen[session.ID] {
			t.Fatalf("duplicate session id %s", session.ID)
		}
		seen[session.ID] = true
	}
}

func TestSessionServiceCreate_PersistFailure(t *testing.T) {
	users := newMockUserRepo()
	sessions := newMockSessionRepo()
	sessions.insertErr = errors.New("store unavailable")
	user := users.add(domain.User{Username: "admin"})
	svc := NewSessionService(zap.NewNop(), sessions, users, time.Hour)

	if _, err := svc.Create(context.Background(), user.ID); err == nil {
		t.Fatalf("expected error when persist fails")
	}
	if len(sessions.sessions) != 0 {
		t.Fatalf("expected no session left behind")
	}
}

func TestSessionServiceValidate_UnknownID(t *testing.T) {
	users := newMockUserRepo()
	sessions := newMockSessionRepo()
	svc := NewSessionService(zap.NewNop(), sessions, users, time.Hour)

	user, err := svc.Validate(context.Background(), "never-issued")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil for unknown session id")
	}
}

func TestSessionServiceValidate_ExpiredIsPurged(t *testing.T) {
	users := newMockUserRepo()
	sessions := newMockSessionRepo()
	owner := users.add(domain.User{Username: "admin"})
	svc := NewSessionService(zap.NewNop(), sessions, users, time.Hour)

	expired := domain.Session{
		ID:        "expired-session",
		UserID:    owner.ID,
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}
	sessions.sessions[expired.ID] = expired

	user, err := svc.Validate(context.Background(), expired.ID)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if user != nil {
		t.Fatalf("expected expired session to be invalid")
	}
	if _, ok := sessions.sessions[expired.ID]; ok {
		t.Fatalf("expected expired session to be purged")
	}

	// Validar de nuevo debe dar el mismo resultado que un id desconocido.
	user, err = svc.Validate(context.Background(), expired.ID)
	if err != nil || user != nil {
		t.Fatalf("expected nil on second validate, got user=%v err=%v", user, err)
	}
}

func TestSessionServiceValidate_OrphanIsPurged(t *testing.T) {
	users := newMockUserRepo()
	sessions := newMockSessionRepo()
	owner := users.add(domain.User{Username: "gone"})
	svc := NewSessionService(zap.NewNop(), sessions, users, time.Hour)

	session, err := svc.Create(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := users.Delete(context.Background(), owner.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	user, err := svc.Validate(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if user != nil {
		t.Fatalf("expected orphan session to be invalid")
	}
	if _, ok := sessions.sessions[session.ID]; ok {
		t.Fatalf("expected orphan session to be purged")
	}
}

func TestSessionServiceDestroy_Idempotent(t *testing.T) {
	users := newMockUserRepo()
	sessions := newMockSessionRepo()
	owner := users.add(domain.User{Username: "admin"})
	svc := NewSessionService(zap.NewNop(), sessions, users, time.Hour)

	session, err := svc.Create(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := svc.Destroy(context.Background(), session.ID); err != nil {
		t.Fatalf("first destroy: %v", err)
	}
	if err := svc.Destroy(context.Background(), session.ID); err != nil {
		t.Fatalf("second destroy should be idempotent: %v", err)
	}
	if err := svc.Destroy(context.Background(), "never-issued"); err != nil {
		t.Fatalf("destroying unknown id should not error: %v", err)
	}
}

func TestSessionServiceDestroyAllForUser(t *testing.T) {
	users := newMockUserRepo()
	sessions := newMockSessionRepo()
	alice := users.add(domain.User{Username: "alice"})
	bob := users.add(domain.User{Username: "bob"})
	svc := NewSessionService(zap.NewNop(), sessions, users, time.Hour)

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(context.Background(), alice.ID); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}
	bobSession, err := svc.Create(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := svc.DestroyAllForUser(context.Background(), alice.ID); err != nil {
		t.Fatalf("destroy all: %v", err)
	}
	if len(sessions.sessions) != 1 {
		t.Fatalf("expected only bob's session to remain, got %d", len(sessions.sessions))
	}
	if _, ok := sessions.sessions[bobSession.ID]; !ok {
		t.Fatalf("expected bob's session untouched")
	}
}

func TestSessionServiceCleanupExpired_RemovesExactlyExpired(t *testing.T) {
	users := newMockUserRepo()
	sessions := newMockSessionRepo()
	owner := users.add(domain.User{Username: "admin"})
	svc := NewSessionService(zap.NewNop(), sessions, users, time.Hour)

	alive, err := svc.Create(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	backdated, err := svc.Create(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	stored := sessions.sessions[backdated.ID]
	stored.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	sessions.sessions[backdated.ID] = stored

	count, err := svc.CleanupExpired(context.Background())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 removed, got %d", count)
	}
	if _, ok := sessions.sessions[alive.ID]; !ok {
		t.Fatalf("expected live session to survive cleanup")
	}
	if _, ok := sessions.sessions[backdated.ID]; ok {
		t.Fatalf("expected backdated session removed")
	}
}

func TestSessionServiceLifetime(t *testing.T) {
	svc := NewSessionService(zap.NewNop(), newMockSessionRepo(), newMockUserRepo(), 0)
	if svc.Lifetime() != DefaultSessionTTL {
		t.Fatalf("expected default ttl, got %v", svc.Lifetime())
	}
	svc = NewSessionService(zap.NewNop(), newMockSessionRepo(), newMockUserRepo(), 2*time.Hour)
	if svc.Lifetime() != 2*time.Hour {
		t.Fatalf("expected configured ttl, got %v", svc.Lifetime())
	}
}
