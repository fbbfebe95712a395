package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SessionSweeper ejecuta la limpieza periódica de sesiones vencidas,
// independiente de la purga perezosa que ocurre al validar.
type SessionSweeper struct {
	logger   *zap.Logger
	sessions *SessionService
	interval time.Duration
}

func NewSessionSweeper(logger *zap.Logger, sessions *SessionService, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionSweeper{
		logger:   logger,
		sessions: sessions,
		interval: interval,
	}
}

// Run barre hasta que el contexto se cancele. Pensado para correr en su propia goroutine.
func (w *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := w.sessions.CleanupExpired(ctx)
			if err != nil {
				w.logger.Warn("session cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				w.logger.Info("expired sessions removed", zap.Int64("count", removed))
			}
		}
	}
}
