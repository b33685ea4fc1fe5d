package http

import (
	"bytes"
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/repository/ports"
	"github.com/rivaq/rivaq-backend/internal/util"
)

type memAccounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
	findErr  error
}

func newMemAccounts() *memAccounts {
	return &memAccounts{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *memAccounts) seed(name, email, password string, permissions ...domain.Permission) *domain.Account {
	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		panic(err)
	}
	perms := make([]string, 0, len(permissions))
	for _, p := range permissions {
		perms = append(perms, string(p))
	}
	a := &domain.Account{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		Permissions:  perms,
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.mu.Lock()
	r.accounts[a.ID] = a
	r.mu.Unlock()
	c := *a
	return &c
}

func (r *memAccounts) find(match func(*domain.Account) bool) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if match(a) {
			c := *a
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memAccounts) Create(ctx context.Context, in domain.NewAccount) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := &domain.Account{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		Position:     in.Position,
		Department:   in.Department,
		Permissions:  in.Permissions,
		PasswordHash: in.PasswordHash,
		PasswordSalt: in.PasswordSalt,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.accounts[a.ID] = a
	c := *a
	return &c, nil
}

func (r *memAccounts) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	err := r.findErr
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.find(func(a *domain.Account) bool { return a.Email == email })
}

func (r *memAccounts) FindByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.ID == id.UUID() })
}

func (r *memAccounts) FindByResetToken(ctx context.Context, tokenHash string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.ResetTokenHash != nil && *a.ResetTokenHash == tokenHash })
}

func (r *memAccounts) List(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (r *memAccounts) UpdateProfile(ctx context.Context, id domain.AccountID, update domain.ProfileUpdate) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id.UUID()]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if update.Name != nil {
		a.Name = *update.Name
	}
	c := *a
	return &c, nil
}

func (r *memAccounts) UpdateProfileImage(ctx context.Context, id domain.AccountID, imageURL string) (*domain.Account, error) {
	return nil, sql.ErrNoRows
}

func (r *memAccounts) Delete(ctx context.Context, id domain.AccountID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id.UUID()]; !ok {
		return sql.ErrNoRows
	}
	delete(r.accounts, id.UUID())
	return nil
}

func (r *memAccounts) SetResetToken(ctx context.Context, id domain.AccountID, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id.UUID()]
	if !ok {
		return sql.ErrNoRows
	}
	a.ResetTokenHash = &tokenHash
	a.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (r *memAccounts) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash, passwordSalt []byte) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.ResetTokenHash != nil && *a.ResetTokenHash == tokenHash && now.Before(*a.ResetTokenExpiresAt) {
			a.PasswordHash, a.PasswordSalt = passwordHash, passwordSalt
			a.ResetTokenHash, a.ResetTokenExpiresAt = nil, nil
			c := *a
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memAccounts) UpdatePassword(ctx context.Context, id domain.AccountID, passwordHash, passwordSalt []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id.UUID()]
	if !ok {
		return sql.ErrNoRows
	}
	a.PasswordHash, a.PasswordSalt = passwordHash, passwordSalt
	a.ResetTokenHash, a.ResetTokenExpiresAt = nil, nil
	return nil
}

func (r *memAccounts) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]*domain.Session)}
}

func (s *memSessions) CreateSession(ctx context.Context, accountID domain.AccountID, token string, expiresAt time.Time) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := &domain.Session{AccountID: accountID.UUID(), TokenHash: util.HashToken(token), ExpiresAt: expiresAt, IsActive: true, CreatedAt: time.Now()}
	s.sessions[token] = session
	return session, nil
}

func (s *memSessions) DeactivateSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[token]; ok {
		session.IsActive = false
	}
	return nil
}

func (s *memSessions) DeactivateAllForAccount(ctx context.Context, accountID domain.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.AccountID == accountID.UUID() {
			session.IsActive = false
		}
	}
	return nil
}

func (s *memSessions) FindActiveSession(ctx context.Context, token string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok || !session.IsActive {
		return nil, sql.ErrNoRows
	}
	c := *session
	return &c, nil
}

func (s *memSessions) PurgeInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, session := range s.sessions {
		if !session.ActiveAt(cutoff) && session.CreatedAt.Before(cutoff) {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

// captureSender records reset links instead of mailing them.
type captureSender struct {
	mu    sync.Mutex
	links map[string]string
}

func (s *captureSender) SendPasswordReset(ctx context.Context, email, link string, expiresIn time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.links == nil {
		s.links = make(map[string]string)
	}
	s.links[email] = link
	return nil
}

func (s *captureSender) linkFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.links[email]
}

type fakeLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	keys   []string
	err    error
	retry  time.Duration
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (ports.RateDecision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	if f.err != nil {
		return ports.RateDecision{}, f.err
	}
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[key]++
	if f.counts[key] > limit {
		return ports.RateDecision{Allowed: false, Limit: limit, RetryAfter: f.retry}, nil
	}
	return ports.RateDecision{Allowed: true, Limit: limit, Remaining: limit - f.counts[key]}, nil
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
