package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/repository/ports"
	"github.com/rivaq/rivaq-backend/internal/util"
)

const sessionColumns = `id, account_id, token_hash, created_at, expires_at, is_active`

type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, accountID domain.AccountID, token string, expiresAt time.Time) (*domain.Session, error) {
	const query = `
		INSERT INTO sessions (account_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING ` + sessionColumns
	var session domain.Session
	if err := r.db.GetContext(ctx, &session, query, accountID.UUID(), util.HashToken(token), expiresAt); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) DeactivateSession(ctx context.Context, token string) error {
	const query = `UPDATE sessions SET is_active = false WHERE token_hash = $1 AND is_active`
	_, err := r.db.ExecContext(ctx, query, util.HashToken(token))
	return err
}

func (r *SessionRepository) DeactivateAllForAccount(ctx context.Context, accountID domain.AccountID) error {
	const query = `UPDATE sessions SET is_active = false WHERE account_id = $1 AND is_active`
	_, err := r.db.ExecContext(ctx, query, accountID.UUID())
	return err
}

func (r *SessionRepository) FindActiveSession(ctx context.Context, token string) (*domain.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions
		WHERE token_hash = $1 AND is_active AND expires_at > NOW()`
	var session domain.Session
	if err := r.db.GetContext(ctx, &session, query, util.HashToken(token)); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) PurgeInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE (NOT is_active OR expires_at <= $1) AND created_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ ports.SessionRepository = (*SessionRepository)(nil)
