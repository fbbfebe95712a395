package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"auth-portal/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// AuthenticatedUser es la vista del usuario que cruza el límite del servicio.
type AuthenticatedUser struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Permissions []string `json:"permissions"`
}

// LoginResult agrupa la sesión emitida, el usuario autenticado y el catálogo
// completo de permisos del sistema (ordenado por nombre).
type LoginResult struct {
	SessionID      string
	ExpiresAt      time.Time
	User           AuthenticatedUser
	AllPermissions []string
}

// AuthService orquesta verificación de credenciales y emisión de sesiones.
type AuthService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	permissions repository.PermissionRepository
	sessions    *SessionService
	hasher      *PasswordHasher
	limiter     LoginRateLimiter
}

func NewAuthService(logger *zap.Logger, users repository.UserRepository, permissions repository.PermissionRepository, sessions *SessionService, hasher *PasswordHasher, limiter LoginRateLimiter) *AuthService {
	if hasher == nil {
		hasher = NewPasswordHasher(DefaultBcryptCost)
	}
	return &AuthService{
		logger:      logger,
		users:       users,
		permissions: permissions,
		sessions:    sessions,
		hasher:      hasher,
		limiter:     limiter,
	}
}

// Login valida credenciales y crea una sesión nueva. Usuario desconocido y
// contraseña incorrecta devuelven el mismo ErrInvalidCredentials para no
// revelar si el nombre de usuario existe.
func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	if s.limiter != nil && !s.limiter.Allow(username) {
		return LoginResult{}, ErrTooManyAttempts
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}

	catalog, err := s.permissions.ListAll(ctx)
	if err != nil {
		return LoginResult{}, err
	}
	allPermissions := make([]string, 0, len(catalog))
	for _, p := range catalog {
		allPermissions = append(allPermissions, p.Name)
	}

	s.logger.Info("login", zap.String("username", user.Username), zap.Int64("user_id", user.ID))

	return LoginResult{
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
		User: AuthenticatedUser{
			ID:          user.ID,
			Username:    user.Username,
			Permissions: user.Permissions,
		},
		AllPermissions: allPermissions,
	}, nil
}

// Logout revoca la sesión. Siempre tiene éxito desde la perspectiva del llamador.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Destroy(ctx, sessionID)
}
