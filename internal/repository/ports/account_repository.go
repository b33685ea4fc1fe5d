package ports

import (
	"context"
	"time"

	"github.com/rivaq/rivaq-backend/internal/domain"
)

// AccountRepository stores account credentials. Lookups that match nothing
// return sql.ErrNoRows.
type AccountRepository interface {
	Create(ctx context.Context, in domain.NewAccount) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	FindByResetToken(ctx context.Context, tokenHash string) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]domain.Account, error)
	UpdateProfile(ctx context.Context, id domain.AccountID, update domain.ProfileUpdate) (*domain.Account, error)
	UpdateProfileImage(ctx context.Context, id domain.AccountID, imageURL string) (*domain.Account, error)
	Delete(ctx context.Context, id domain.AccountID) error

	// SetResetToken replaces whatever token the account holds.
	SetResetToken(ctx context.Context, id domain.AccountID, tokenHash string, expiresAt time.Time) error
	// ConsumeResetToken swaps the password and clears the token in one statement,
	// matching only while the token is unexpired at now.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash, passwordSalt []byte) (*domain.Account, error)
	// UpdatePassword also clears any outstanding reset token.
	UpdatePassword(ctx context.Context, id domain.AccountID, passwordHash, passwordSalt []byte) error
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
