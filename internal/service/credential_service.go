package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/repository/ports"
	"github.com/rivaq/rivaq-backend/internal/util"
)

const (
	DefaultResetTTL       = time.Hour
	maxTokenIssueAttempts = 3
)

// dummySalt keeps VerifyPassword doing the same argon2 work for unknown emails.
var dummySalt = []byte("rivaq-dummy-salt")

// CredentialService owns password hashes and the reset-token lifecycle of accounts.
type CredentialService struct {
	accounts    ports.AccountRepository
	policy      util.PasswordPolicy
	tokenLength int
	resetTTL    time.Duration
	now         func() time.Time
}

func NewCredentialService(accounts ports.AccountRepository, policy util.PasswordPolicy, tokenLength int, resetTTL time.Duration) *CredentialService {
	if tokenLength < util.MinResetTokenLength {
		tokenLength = util.DefaultResetTokenLength
	}
	if resetTTL <= 0 {
		resetTTL = DefaultResetTTL
	}
	return &CredentialService{
		accounts:    accounts,
		policy:      policy,
		tokenLength: tokenLength,
		resetTTL:    resetTTL,
		now:         time.Now,
	}
}

func (s *CredentialService) Policy() util.PasswordPolicy { return s.policy }

func (s *CredentialService) ResetTTL() time.Duration { return s.resetTTL }

// VerifyPassword reports false for both an unknown email and a wrong password.
func (s *CredentialService) VerifyPassword(ctx context.Context, email, candidate string) (*domain.Account, bool, error) {
	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			_, _ = util.HashPassword(candidate+" ", dummySalt)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: find account: %w", ErrStorage, err)
	}
	if !util.VerifyPassword(candidate, account.PasswordSalt, account.PasswordHash) {
		return nil, false, nil
	}
	return account, true, nil
}

// IssueResetToken stores a fresh token for the account, replacing any previous one,
// and returns the plaintext for delivery.
func (s *CredentialService) IssueResetToken(ctx context.Context, email string) (string, *domain.Account, error) {
	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return "", nil, ErrAccountNotFound
		}
		return "", nil, fmt.Errorf("%w: find account: %w", ErrStorage, err)
	}

	for attempt := 1; attempt <= maxTokenIssueAttempts; attempt++ {
		token, err := util.GenerateToken(s.tokenLength)
		if err != nil {
			return "", nil, fmt.Errorf("generate reset token: %w", err)
		}
		digest := util.HashToken(token)
		expiresAt := s.now().Add(s.resetTTL)
		err = s.accounts.SetResetToken(ctx, account.AccountID(), digest, expiresAt)
		switch {
		case err == nil:
			account.ResetTokenHash = &digest
			account.ResetTokenExpiresAt = &expiresAt
			return token, account, nil
		case isUniqueViolation(err):
			continue
		case isNotFound(err):
			return "", nil, ErrAccountNotFound
		default:
			return "", nil, fmt.Errorf("%w: store reset token: %w", ErrStorage, err)
		}
	}
	return "", nil, fmt.Errorf("%w: reset token collided %d times", ErrStorage, maxTokenIssueAttempts)
}

// ValidateToken returns the account only while the token exists and has not expired.
func (s *CredentialService) ValidateToken(ctx context.Context, token string) (*domain.Account, error) {
	if !util.IsTokenShaped(token) {
		return nil, ErrTokenInvalidOrExpired
	}
	account, err := s.accounts.FindByResetToken(ctx, util.HashToken(token))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTokenInvalidOrExpired
		}
		return nil, fmt.Errorf("%w: find reset token: %w", ErrStorage, err)
	}
	if account.ResetTokenExpiresAt == nil || !s.now().Before(*account.ResetTokenExpiresAt) {
		return nil, ErrTokenInvalidOrExpired
	}
	return account, nil
}

// ConsumeTokenAndSetPassword checks the token again at write time: the update only
// matches while the stored token is unchanged and unexpired.
func (s *CredentialService) ConsumeTokenAndSetPassword(ctx context.Context, token, newPassword string) (*domain.Account, error) {
	if err := s.policy.Validate(newPassword); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPasswordPolicyViolation, err.Error())
	}
	if !util.IsTokenShaped(token) {
		return nil, ErrTokenInvalidOrExpired
	}
	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("derive password: %w", err)
	}
	account, err := s.accounts.ConsumeResetToken(ctx, util.HashToken(token), s.now(), hash, salt)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTokenInvalidOrExpired
		}
		return nil, fmt.Errorf("%w: consume reset token: %w", ErrStorage, err)
	}
	return account, nil
}

// SetPassword replaces the password of an account and drops any outstanding reset token.
func (s *CredentialService) SetPassword(ctx context.Context, id domain.AccountID, newPassword string) error {
	if err := s.policy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrPasswordPolicyViolation, err.Error())
	}
	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return fmt.Errorf("derive password: %w", err)
	}
	if err := s.accounts.UpdatePassword(ctx, id, hash, salt); err != nil {
		if isNotFound(err) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("%w: update password: %w", ErrStorage, err)
	}
	return nil
}

func (s *CredentialService) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	n, err := s.accounts.PurgeExpiredResetTokens(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("%w: purge reset tokens: %w", ErrStorage, err)
	}
	return n, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
