package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"auth-portal/internal/domain"
	"auth-portal/internal/repository"
)

// DefaultSessionTTL es la vida fija de una sesión; no hay expiración deslizante.
const DefaultSessionTTL = 24 * time.Hour

// SessionService emite, valida y revoca sesiones respaldadas por el repositorio.
type SessionService struct {
	logger   *zap.Logger
	sessions repository.SessionRepository
	users    repository.UserRepository
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionService(logger *zap.Logger, sessions repository.SessionRepository, users repository.UserRepository, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		logger:   logger,
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create genera un id opaco nuevo y persiste la sesión. Solo devuelve la
// sesión si el insert tuvo éxito; un fallo de persistencia no deja sesión a medias.
func (s *SessionService) Create(ctx context.Context, userID int64) (domain.Session, error) {
	now := s.now()
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Validate resuelve el id de sesión al usuario dueño con sus permisos.
// Devuelve (nil, nil) tanto para sesiones inexistentes como expiradas: el
// llamador no puede distinguir si el id existió alguna vez. Una sesión
// expirada se elimina del repositorio al ser detectada.
func (s *SessionService) Validate(ctx context.Context, sessionID string) (*domain.User, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if session.Expired(s.now()) {
		if err := s.sessions.DeleteByID(ctx, sessionID); err != nil {
			s.logger.Warn("expired session purge failed", zap.Error(err))
		}
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// El dueño fue eliminado; la sesión huérfana se purga igual que una expirada.
			if err := s.sessions.DeleteByID(ctx, sessionID); err != nil {
				s.logger.Warn("orphan session purge failed", zap.Error(err))
			}
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Destroy revoca una sesión. Es idempotente: revocar un id inexistente no es error.
func (s *SessionService) Destroy(ctx context.Context, sessionID string) error {
	return s.sessions.DeleteByID(ctx, sessionID)
}

// DestroyAllForUser revoca todas las sesiones del usuario ("cerrar sesión en todas partes").
func (s *SessionService) DestroyAllForUser(ctx context.Context, userID int64) error {
	return s.sessions.DeleteByUserID(ctx, userID)
}

// CleanupExpired elimina en lote las sesiones vencidas y devuelve cuántas borró.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpiredBefore(ctx, s.now())
}

// Lifetime expone la vida fija de sesión para alinear la expiración de cookies.
func (s *SessionService) Lifetime() time.Duration {
	return s.ttl
}
