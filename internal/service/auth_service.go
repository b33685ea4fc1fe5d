package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/repository/ports"
	"github.com/rivaq/rivaq-backend/internal/util"
)

const (
	defaultResetRateLimit  = 5
	defaultResetRateWindow = 15 * time.Minute
	deliveryTimeout        = 30 * time.Second
)

// PasswordResetSender delivers the reset link to the account holder.
type PasswordResetSender interface {
	SendPasswordReset(ctx context.Context, email, link string, expiresIn time.Duration) error
}

type AuthResult struct {
	Account   *domain.Account `json:"account"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type AuthOptions struct {
	// ResetLinkBase is the public origin serving the /reset-password page.
	ResetLinkBase   string
	ResetRateLimit  int
	ResetRateWindow time.Duration
	// ResetResponseFloor is the minimum time RequestPasswordReset takes, so known and
	// unknown emails answer in the same time. Zero disables padding.
	ResetResponseFloor time.Duration
}

type AuthService struct {
	credentials *CredentialService
	accounts    ports.AccountRepository
	sessions    ports.SessionRepository
	mailer      PasswordResetSender
	limiter     ports.RateLimiter
	jwt         *util.JWTManager
	logger      *slog.Logger

	resetLinkBase   string
	resetRateLimit  int
	resetRateWindow time.Duration
	resetFloor      time.Duration
	now             func() time.Time

	deliveries sync.WaitGroup
}

func NewAuthService(credentials *CredentialService, accounts ports.AccountRepository, sessions ports.SessionRepository, mailer PasswordResetSender, limiter ports.RateLimiter, jwtManager *util.JWTManager, logger *slog.Logger, opts AuthOptions) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ResetRateLimit <= 0 {
		opts.ResetRateLimit = defaultResetRateLimit
	}
	if opts.ResetRateWindow <= 0 {
		opts.ResetRateWindow = defaultResetRateWindow
	}
	return &AuthService{
		credentials:     credentials,
		accounts:        accounts,
		sessions:        sessions,
		mailer:          mailer,
		limiter:         limiter,
		jwt:             jwtManager,
		logger:          logger,
		resetLinkBase:   strings.TrimRight(opts.ResetLinkBase, "/"),
		resetRateLimit:  opts.ResetRateLimit,
		resetRateWindow: opts.ResetRateWindow,
		resetFloor:      opts.ResetResponseFloor,
		now:             time.Now,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	account, ok, err := s.credentials.VerifyPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.InfoContext(ctx, "login rejected",
			slog.String("event", "login.failed"),
			slog.String("email_hash", emailDigest(email)),
		)
		return nil, ErrInvalidCredentials
	}
	return s.issueSession(ctx, account)
}

func (s *AuthService) issueSession(ctx context.Context, account *domain.Account) (*AuthResult, error) {
	token, expiresAt, err := s.jwt.Generate(account.ID)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	if _, err := s.sessions.CreateSession(ctx, account.AccountID(), token, expiresAt); err != nil {
		return nil, fmt.Errorf("%w: create session: %w", ErrStorage, err)
	}
	return &AuthResult{Account: account, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.DeactivateSession(ctx, token); err != nil {
		return fmt.Errorf("%w: deactivate session: %w", ErrStorage, err)
	}
	return nil
}

// Authenticate resolves a bearer token to its account. The token must carry a valid
// signature and belong to a session that is still active.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	accountID, err := claims.AccountID()
	if err != nil {
		return nil, ErrSessionInvalid
	}
	session, err := s.sessions.FindActiveSession(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("%w: find session: %w", ErrStorage, err)
	}
	if session.AccountID != accountID {
		return nil, ErrSessionInvalid
	}
	account, err := s.accounts.FindByID(ctx, domain.AccountID(accountID))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("%w: load account: %w", ErrStorage, err)
	}
	return account, nil
}

// RequestPasswordReset never tells the caller whether the email belongs to an account.
// Errors are returned only for storage failures, which hit every email alike.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	defer s.padResponse(ctx, s.now())

	email = normalizeEmail(email)
	digest := emailDigest(email)
	logger := s.logger.With(slog.String("event", "password_reset.requested"), slog.String("email_hash", digest))

	if s.limiter != nil {
		decision, err := s.limiter.Allow(ctx, "reset:email:"+digest, s.resetRateLimit, s.resetRateWindow)
		switch {
		case err != nil:
			logger.WarnContext(ctx, "reset rate limiter unavailable", slog.Any("err", err))
		case !decision.Allowed:
			logger.InfoContext(ctx, "password reset suppressed", slog.String("outcome", "rate_limited"))
			return nil
		}
	}

	token, account, err := s.credentials.IssueResetToken(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			logger.InfoContext(ctx, "password reset requested", slog.String("outcome", "unknown_account"))
			return nil
		}
		return err
	}

	logger.InfoContext(ctx, "password reset requested",
		slog.String("outcome", "issued"),
		slog.String("account_id", account.ID.String()),
	)
	s.deliverReset(ctx, account.Email, s.resetLink(token))
	return nil
}

// padResponse sleeps until resetFloor has passed since start or ctx ends.
func (s *AuthService) padResponse(ctx context.Context, start time.Time) {
	if s.resetFloor <= 0 {
		return
	}
	remaining := s.resetFloor - s.now().Sub(start)
	if remaining <= 0 {
		return
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (s *AuthService) resetLink(token string) string {
	return s.resetLinkBase + "/reset-password?token=" + url.QueryEscape(token)
}

// deliverReset runs after the token is stored. A failed delivery leaves the token valid.
func (s *AuthService) deliverReset(ctx context.Context, email, link string) {
	if s.mailer == nil {
		s.logger.WarnContext(ctx, "password reset mailer not configured", slog.String("event", "password_reset.delivery"))
		return
	}
	ttl := s.credentials.ResetTTL()
	deliveryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)

	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()
		defer cancel()
		if err := s.mailer.SendPasswordReset(deliveryCtx, email, link, ttl); err != nil {
			s.logger.ErrorContext(deliveryCtx, "password reset delivery failed",
				slog.String("event", "password_reset.delivery"),
				slog.String("email_hash", emailDigest(email)),
				slog.Any("err", fmt.Errorf("%w: %w", ErrDeliveryFailure, err)),
			)
		}
	}()
}

// Drain waits for in-flight reset deliveries or for ctx to end.
func (s *AuthService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.deliveries.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AuthService) ValidateResetToken(ctx context.Context, token string) error {
	_, err := s.credentials.ValidateToken(ctx, token)
	return err
}

func (s *AuthService) CompletePasswordReset(ctx context.Context, token, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	account, err := s.credentials.ConsumeTokenAndSetPassword(ctx, token, newPassword)
	if err != nil {
		return err
	}
	if err := s.sessions.DeactivateAllForAccount(ctx, account.AccountID()); err != nil {
		s.logger.WarnContext(ctx, "could not end sessions after reset",
			slog.String("account_id", account.ID.String()),
			slog.Any("err", err),
		)
	}
	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("event", "password_reset.completed"),
		slog.String("account_id", account.ID.String()),
	)
	return nil
}

func emailDigest(email string) string {
	sum := sha256.Sum256([]byte(normalizeEmail(email)))
	return hex.EncodeToString(sum[:])
}
