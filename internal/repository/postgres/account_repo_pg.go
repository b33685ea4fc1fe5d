package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/repository/ports"
)

const accountColumns = `id, name, email, position, department, join_date, manager_id, permissions,
        profile_image_url, password_hash, password_salt, reset_token_hash, reset_token_expires_at,
        created_at, updated_at`

type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, in domain.NewAccount) (*domain.Account, error) {
	const query = `
        INSERT INTO user_account (name, email, position, department, join_date, manager_id, permissions, password_hash, password_salt)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING ` + accountColumns
	permissions := in.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	row := r.db.QueryRowxContext(ctx, query,
		in.Name, in.Email, in.Position, in.Department, in.JoinDate, in.ManagerID,
		pq.Array(permissions), in.PasswordHash, in.PasswordSalt)
	var account domain.Account
	if err := row.StructScan(&account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM user_account WHERE email = $1`
	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM user_account WHERE id = $1`
	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, id.UUID()); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) FindByResetToken(ctx context.Context, tokenHash string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM user_account WHERE reset_token_hash = $1`
	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, tokenHash); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	const query = `
        SELECT ` + accountColumns + `
        FROM user_account
        ORDER BY created_at ASC, id ASC
        LIMIT $1 OFFSET $2
    `
	accounts := make([]domain.Account, 0)
	if err := r.db.SelectContext(ctx, &accounts, query, limit, offset); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, id domain.AccountID, update domain.ProfileUpdate) (*domain.Account, error) {
	const query = `
        UPDATE user_account
        SET name = COALESCE($2, name),
            position = COALESCE($3, position),
            department = COALESCE($4, department),
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + accountColumns
	row := r.db.QueryRowxContext(ctx, query, id.UUID(), trimmedOrNil(update.Name), trimmedOrNil(update.Position), trimmedOrNil(update.Department))
	var account domain.Account
	if err := row.StructScan(&account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) UpdateProfileImage(ctx context.Context, id domain.AccountID, imageURL string) (*domain.Account, error) {
	const query = `
        UPDATE user_account
        SET profile_image_url = $2,
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + accountColumns
	row := r.db.QueryRowxContext(ctx, query, id.UUID(), imageURL)
	var account domain.Account
	if err := row.StructScan(&account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id domain.AccountID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_account WHERE id = $1`, id.UUID())
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *AccountRepository) SetResetToken(ctx context.Context, id domain.AccountID, tokenHash string, expiresAt time.Time) error {
	const query = `
        UPDATE user_account
        SET reset_token_hash = $2,
            reset_token_expires_at = $3,
            updated_at = NOW()
        WHERE id = $1
    `
	result, err := r.db.ExecContext(ctx, query, id.UUID(), tokenHash, expiresAt)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *AccountRepository) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash, passwordSalt []byte) (*domain.Account, error) {
	const query = `
        UPDATE user_account
        SET password_hash = $3,
            password_salt = $4,
            reset_token_hash = NULL,
            reset_token_expires_at = NULL,
            updated_at = NOW()
        WHERE reset_token_hash = $1 AND reset_token_expires_at > $2
        RETURNING ` + accountColumns
	var account domain.Account
	if err := r.db.GetContext(ctx, &account, query, tokenHash, now, passwordHash, passwordSalt); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id domain.AccountID, passwordHash, passwordSalt []byte) error {
	const query = `
        UPDATE user_account
        SET password_hash = $2,
            password_salt = $3,
            reset_token_hash = NULL,
            reset_token_expires_at = NULL,
            updated_at = NOW()
        WHERE id = $1
    `
	result, err := r.db.ExecContext(ctx, query, id.UUID(), passwordHash, passwordSalt)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (r *AccountRepository) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	const query = `
        UPDATE user_account
        SET reset_token_hash = NULL,
            reset_token_expires_at = NULL
        WHERE reset_token_expires_at IS NOT NULL AND reset_token_expires_at <= $1
    `
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func trimmedOrNil(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	v := strings.TrimSpace(*ptr)
	if v == "" {
		return nil
	}
	return &v
}

var _ ports.AccountRepository = (*AccountRepository)(nil)
