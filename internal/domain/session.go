package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session backs one issued bearer token. Only a digest of the token is stored.
type Session struct {
	ID        int64     `db:"id" json:"id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
	TokenHash string    `db:"token_hash" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	IsActive  bool      `db:"is_active" json:"is_active"`
}

func (s *Session) ActiveAt(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}
