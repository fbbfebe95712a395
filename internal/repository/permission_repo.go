package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"auth-portal/internal/domain"
)

// PermissionRepository define el contrato de persistencia para el catálogo de permisos.
type PermissionRepository interface {
	ListAll(ctx context.Context) ([]domain.Permission, error)
	Ensure(ctx context.Context, name string) error
}

// PgPermissionRepository implementa PermissionRepository usando pgxpool.
type PgPermissionRepository struct {
	pool *pgxpool.Pool
}

func NewPgPermissionRepository(pool *pgxpool.Pool) *PgPermissionRepository {
	return &PgPermissionRepository{pool: pool}
}

func (r *PgPermissionRepository) ListAll(ctx context.Context) ([]domain.Permission, error) {
	const query = `
		SELECT id, name
		FROM permissions
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		permissions = append(permissions, p)
	}
	return permissions, rows.Err()
}

// Ensure inserta el permiso si no existe; re-ejecutar es inocuo.
func (r *PgPermissionRepository) Ensure(ctx context.Context, name string) error {
	const query = `
		INSERT INTO permissions (name)
		VALUES ($1)
		ON CONFLICT (name) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, name)
	return err
}
