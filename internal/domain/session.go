package domain

import "time"

type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired indica si la sesión ya pasó su fecha de expiración.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
