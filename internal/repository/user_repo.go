package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"auth-portal/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
// Las lecturas devuelven el usuario junto con sus permisos.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, username, passwordHash string, permissions []string) (domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	const query = `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.Permissions, err = r.permissionsFor(ctx, u.ID)
	return u, err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	const query = `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE id = $1
	`
	var u domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.Permissions, err = r.permissionsFor(ctx, u.ID)
	return u, err
}

func (r *PgUserRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `
		SELECT u.id, u.username, u.created_at, COALESCE(array_agg(p.name ORDER BY p.name) FILTER (WHERE p.name IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_permissions up ON up.user_id = u.id
		LEFT JOIN permissions p ON p.id = up.permission_id
		GROUP BY u.id
		ORDER BY u.username
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.CreatedAt, &u.Permissions); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Create inserta el usuario y sus permisos en una sola transacción.
// Si algún nombre de permiso no existe, la transacción completa se revierte.
func (r *PgUserRepository) Create(ctx context.Context, username, passwordHash string, permissions []string) (domain.User, error) {
	var u domain.User
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const insertUser = `
			INSERT INTO users (username, password_hash, created_at)
			VALUES ($1, $2, now())
			RETURNING id, username, password_hash, created_at
		`
		if err := tx.QueryRow(ctx, insertUser, username, passwordHash).Scan(
			&u.ID,
			&u.Username,
			&u.PasswordHash,
			&u.CreatedAt,
		); err != nil {
			return err
		}

		if len(permissions) == 0 {
			return nil
		}

		const grant = `
			INSERT INTO user_permissions (user_id, permission_id)
			SELECT $1, id FROM permissions WHERE name = ANY($2)
			ON CONFLICT (user_id, permission_id) DO NOTHING
		`
		tag, err := tx.Exec(ctx, grant, u.ID, permissions)
		if err != nil {
			return err
		}
		if int(tag.RowsAffected()) != len(permissions) {
			return fmt.Errorf("unknown permission in %v", permissions)
		}
		u.Permissions = append([]string(nil), permissions...)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	const query = `
		UPDATE users SET password_hash = $2 WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgUserRepository) Delete(ctx context.Context, id int64) error {
	const query = `
		DELETE FROM users WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *PgUserRepository) permissionsFor(ctx context.Context, userID int64) ([]string, error) {
	const query = `
		SELECT p.name
		FROM permissions p
		JOIN user_permissions up ON up.permission_id = p.id
		WHERE up.user_id = $1
		ORDER BY p.name
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
