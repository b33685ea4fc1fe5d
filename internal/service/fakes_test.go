package service

import (
	"context"
	"database/sql"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/media"
	"github.com/rivaq/rivaq-backend/internal/repository/ports"
	"github.com/rivaq/rivaq-backend/internal/util"
)

// memAccountRepo behaves like the user_account table: unique email, unique token digest,
// conditional consume.
type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account

	setTokenErrs []error
	findErr      error
	deleteErr    error
	createErr    error

	setTokenCalls int
	consumeCalls  int
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *memAccountRepo) seed(email, password string, permissions ...domain.Permission) *domain.Account {
	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		panic(err)
	}
	perms := make([]string, 0, len(permissions))
	for _, p := range permissions {
		perms = append(perms, string(p))
	}
	account := &domain.Account{
		ID:           uuid.New(),
		Name:         strings.Split(email, "@")[0],
		Email:        email,
		Permissions:  perms,
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.mu.Lock()
	r.accounts[account.ID] = account
	r.mu.Unlock()
	return cloneAccount(account)
}

func (r *memAccountRepo) get(id uuid.UUID) *domain.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		return cloneAccount(a)
	}
	return nil
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	c.Permissions = append([]string(nil), a.Permissions...)
	c.PasswordHash = append([]byte(nil), a.PasswordHash...)
	c.PasswordSalt = append([]byte(nil), a.PasswordSalt...)
	if a.ResetTokenHash != nil {
		v := *a.ResetTokenHash
		c.ResetTokenHash = &v
	}
	if a.ResetTokenExpiresAt != nil {
		v := *a.ResetTokenExpiresAt
		c.ResetTokenExpiresAt = &v
	}
	return &c
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505"}
}

func (r *memAccountRepo) Create(ctx context.Context, in domain.NewAccount) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, a := range r.accounts {
		if a.Email == in.Email {
			return nil, uniqueViolation()
		}
	}
	if in.ManagerID != nil {
		if _, ok := r.accounts[*in.ManagerID]; !ok {
			return nil, &pgconn.PgError{Code: "23503"}
		}
	}
	account := &domain.Account{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		Position:     in.Position,
		Department:   in.Department,
		JoinDate:     in.JoinDate,
		ManagerID:    in.ManagerID,
		Permissions:  append([]string(nil), in.Permissions...),
		PasswordHash: in.PasswordHash,
		PasswordSalt: in.PasswordSalt,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.accounts[account.ID] = account
	return cloneAccount(account), nil
}

func (r *memAccountRepo) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, a := range r.accounts {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memAccountRepo) FindByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	if a, ok := r.accounts[id.UUID()]; ok {
		return cloneAccount(a), nil
	}
	return nil, sql.ErrNoRows
}

func (r *memAccountRepo) FindByResetToken(ctx context.Context, tokenHash string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, a := range r.accounts {
		if a.ResetTokenHash != nil && *a.ResetTokenHash == tokenHash {
			return cloneAccount(a), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memAccountRepo) List(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		all = append(all, *cloneAccount(a))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })
	if offset >= len(all) {
		return []domain.Account{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memAccountRepo) UpdateProfile(ctx context.Context, id domain.AccountID, update domain.ProfileUpdate) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id.UUID()]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if v := trimmed(update.Name); v != nil {
		a.Name = *v
	}
	if v := trimmed(update.Position); v != nil {
		a.Position = *v
	}
	if v := trimmed(update.Department); v != nil {
		a.Department = *v
	}
	return cloneAccount(a), nil
}

func trimmed(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	v := strings.TrimSpace(*ptr)
	if v == "" {
		return nil
	}
	return &v
}

func (r *memAccountRepo) UpdateProfileImage(ctx context.Context, id domain.AccountID, imageURL string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id.UUID()]
	if !ok {
		return nil, sql.ErrNoRows
	}
	a.ProfileImageURL = &imageURL
	return cloneAccount(a), nil
}

func (r *memAccountRepo) Delete(ctx context.Context, id domain.AccountID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.accounts[id.UUID()]; !ok {
		return sql.ErrNoRows
	}
	delete(r.accounts, id.UUID())
	return nil
}

func (r *memAccountRepo) SetResetToken(ctx context.Context, id domain.AccountID, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setTokenCalls++
	if len(r.setTokenErrs) > 0 {
		err := r.setTokenErrs[0]
		r.setTokenErrs = r.setTokenErrs[1:]
		if err != nil {
			return err
		}
	}
	for otherID, a := range r.accounts {
		if otherID != id.UUID() && a.ResetTokenHash != nil && *a.ResetTokenHash == tokenHash {
			return uniqueViolation()
		}
	}
	a, ok := r.accounts[id.UUID()]
	if !ok {
		return sql.ErrNoRows
	}
	a.ResetTokenHash = &tokenHash
	a.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (r *memAccountRepo) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash, passwordSalt []byte) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumeCalls++
	for _, a := range r.accounts {
		if a.ResetTokenHash == nil || *a.ResetTokenHash != tokenHash {
			continue
		}
		if a.ResetTokenExpiresAt == nil || !a.ResetTokenExpiresAt.After(now) {
			return nil, sql.ErrNoRows
		}
		a.PasswordHash = passwordHash
		a.PasswordSalt = passwordSalt
		a.ResetTokenHash = nil
		a.ResetTokenExpiresAt = nil
		return cloneAccount(a), nil
	}
	return nil, sql.ErrNoRows
}

func (r *memAccountRepo) UpdatePassword(ctx context.Context, id domain.AccountID, passwordHash, passwordSalt []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id.UUID()]
	if !ok {
		return sql.ErrNoRows
	}
	a.PasswordHash = passwordHash
	a.PasswordSalt = passwordSalt
	a.ResetTokenHash = nil
	a.ResetTokenExpiresAt = nil
	return nil
}

func (r *memAccountRepo) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.accounts {
		if a.ResetTokenExpiresAt != nil && !a.ResetTokenExpiresAt.After(now) {
			a.ResetTokenHash = nil
			a.ResetTokenExpiresAt = nil
			n++
		}
	}
	return n, nil
}

var _ ports.AccountRepository = (*memAccountRepo)(nil)

type fakeSessionRepo struct {
	mu sync.Mutex

	createdSessions []struct {
		accountID domain.AccountID
		token     string
		expiresAt time.Time
	}
	createErr error

	findActiveToken  string
	findActiveResult *domain.Session
	findActiveErr    error

	deactivatedToken   string
	deactivateErr      error
	deactivatedAccount []domain.AccountID
	deactivateAllErr   error
}

func (f *fakeSessionRepo) CreateSession(ctx context.Context, accountID domain.AccountID, token string, expiresAt time.Time) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdSessions = append(f.createdSessions, struct {
		accountID domain.AccountID
		token     string
		expiresAt time.Time
	}{accountID: accountID, token: token, expiresAt: expiresAt})
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Session{ID: int64(len(f.createdSessions)), AccountID: accountID.UUID(), TokenHash: util.HashToken(token), ExpiresAt: expiresAt, IsActive: true}, nil
}

func (f *fakeSessionRepo) DeactivateSession(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivatedToken = token
	return f.deactivateErr
}

func (f *fakeSessionRepo) DeactivateAllForAccount(ctx context.Context, accountID domain.AccountID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivatedAccount = append(f.deactivatedAccount, accountID)
	return f.deactivateAllErr
}

func (f *fakeSessionRepo) FindActiveSession(ctx context.Context, token string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findActiveToken = token
	if f.findActiveErr != nil {
		return nil, f.findActiveErr
	}
	if f.findActiveResult != nil {
		return f.findActiveResult, nil
	}
	for i, created := range f.createdSessions {
		if created.token == token {
			return &domain.Session{ID: int64(i + 1), AccountID: created.accountID.UUID(), TokenHash: util.HashToken(token), IsActive: true, ExpiresAt: created.expiresAt}, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSessionRepo) PurgeInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []ports.MailMessage
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg ports.MailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeMailer) messages() []ports.MailMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.MailMessage(nil), f.sent...)
}

// fakeLimiter allows the first `limit` hits of each key.
type fakeLimiter struct {
	mu   sync.Mutex
	hits map[string]int
	err  error
	keys []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (ports.RateDecision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	if f.err != nil {
		return ports.RateDecision{}, f.err
	}
	if f.hits == nil {
		f.hits = make(map[string]int)
	}
	f.hits[key]++
	count := f.hits[key]
	return ports.RateDecision{Allowed: count <= limit, Limit: limit, Remaining: max(0, limit-count)}, nil
}

type fakeStorage struct {
	uploaded []struct {
		bucket      string
		objectName  string
		contentType string
		size        int64
	}
	removed []string
	url     string
	err     error
}

func (f *fakeStorage) Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error) {
	f.uploaded = append(f.uploaded, struct {
		bucket      string
		objectName  string
		contentType string
		size        int64
	}{bucket: bucket, objectName: objectName, contentType: contentType, size: size})
	if f.err != nil {
		return "", f.err
	}
	if f.url != "" {
		return f.url, nil
	}
	return "https://storage/" + bucket + "/" + objectName, nil
}

func (f *fakeStorage) Remove(ctx context.Context, bucket, objectName string) error {
	f.removed = append(f.removed, bucket+"/"+objectName)
	return f.err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// stubImageProcessor stands in for media.ImageProcessor and records what it was asked to scale.
type stubImageProcessor struct {
	output      []byte
	contentType string
	err         error

	calls   int
	last    media.Upload
	lastMax int
}

func (s *stubImageProcessor) Process(ctx context.Context, upload media.Upload, maxDimension int) (*media.Result, error) {
	s.calls++
	s.last = upload
	s.lastMax = maxDimension
	if s.err != nil {
		return nil, s.err
	}
	ct := s.contentType
	if ct == "" {
		ct = upload.ContentType
	}
	return &media.Result{
		Bytes:       append([]byte(nil), s.output...),
		ContentType: ct,
		Resized:     true,
	}, nil
}
