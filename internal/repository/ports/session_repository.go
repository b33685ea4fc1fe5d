package ports

import (
	"context"
	"time"

	"github.com/rivaq/rivaq-backend/internal/domain"
)

// SessionRepository takes plaintext bearer tokens; implementations store a digest.
type SessionRepository interface {
	CreateSession(ctx context.Context, accountID domain.AccountID, token string, expiresAt time.Time) (*domain.Session, error)
	DeactivateSession(ctx context.Context, token string) error
	DeactivateAllForAccount(ctx context.Context, accountID domain.AccountID) error
	FindActiveSession(ctx context.Context, token string) (*domain.Session, error)
	// PurgeInactive deletes sessions that were ended or expired before cutoff.
	PurgeInactive(ctx context.Context, cutoff time.Time) (int64, error)
}
