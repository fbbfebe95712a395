package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"auth-portal/internal/domain"
)

// SessionRepository define el contrato de persistencia para sesiones.
// Los borrados son idempotentes: eliminar una sesión inexistente no es error.
type SessionRepository interface {
	Insert(ctx context.Context, session domain.Session) error
	GetByID(ctx context.Context, id string) (domain.Session, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID int64) error
	DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error)
}

// PgSessionRepository implementa SessionRepository usando pgxpool.
type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

func (r *PgSessionRepository) Insert(ctx context.Context, session domain.Session) error {
	const query = `
		INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.ExpiresAt,
		session.CreatedAt,
	)
	return err
}

func (r *PgSessionRepository) GetByID(ctx context.Context, id string) (domain.Session, error) {
	const query = `
		SELECT id, user_id, expires_at, created_at
		FROM sessions
		WHERE id = $1
	`
	var session domain.Session
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (r *PgSessionRepository) DeleteByID(ctx context.Context, id string) error {
	const query = `
		DELETE FROM sessions WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *PgSessionRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	const query = `
		DELETE FROM sessions WHERE user_id = $1
	`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *PgSessionRepository) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		DELETE FROM sessions WHERE expires_at < $1
	`
	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
