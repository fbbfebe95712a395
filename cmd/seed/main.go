package main

import (
	"context"
	"log"

	"auth-portal/internal/config"
	"auth-portal/internal/db"
	"auth-portal/internal/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var permissionNames = []string{
	"CREATE_USER",
	"READ_USER",
	"UPDATE_USER",
	"DELETE_USER",
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	for _, name := range permissionNames {
		const query = `INSERT INTO permissions (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
		if _, err := pool.Exec(ctx, query, name); err != nil {
			logger.Fatal("seed permission", zap.String("name", name), zap.Error(err))
		}
	}
	logger.Info("permissions seeded", zap.Int("count", len(permissionNames)))

	hasher := service.NewPasswordHasher(cfg.BcryptCost)

	if err := seedUser(ctx, pool, hasher, "admin", "admin123", permissionNames); err != nil {
		logger.Fatal("seed admin", zap.Error(err))
	}
	if err := seedUser(ctx, pool, hasher, "user", "user123", []string{"READ_USER"}); err != nil {
		logger.Fatal("seed user", zap.Error(err))
	}

	logger.Info("seed completed",
		zap.String("admin", "admin/admin123 (all permissions)"),
		zap.String("user", "user/user123 (READ_USER only)"),
	)
}

// seedUser crea o actualiza la cuenta y le asigna sus permisos en una sola
// transacción: o queda con todos los grants o con ninguno nuevo.
func seedUser(ctx context.Context, pool *pgxpool.Pool, hasher *service.PasswordHasher, username, password string, permissions []string) error {
	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		const upsertUser = `
			INSERT INTO users (username, password_hash, created_at)
			VALUES ($1, $2, now())
			ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash
			RETURNING id
		`
		var userID int64
		if err := tx.QueryRow(ctx, upsertUser, username, hash).Scan(&userID); err != nil {
			return err
		}

		const grant = `
			INSERT INTO user_permissions (user_id, permission_id)
			SELECT $1, id FROM permissions WHERE name = ANY($2)
			ON CONFLICT (user_id, permission_id) DO NOTHING
		`
		_, err := tx.Exec(ctx, grant, userID, permissions)
		return err
	})
}
