package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AccountID identifies an account. It is never derived from a row position.
type AccountID uuid.UUID

func NewAccountID() AccountID {
	return AccountID(uuid.New())
}

func ParseAccountID(raw string) (AccountID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(id), nil
}

func (id AccountID) UUID() uuid.UUID { return uuid.UUID(id) }

func (id AccountID) String() string { return uuid.UUID(id).String() }

func (id AccountID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

type Account struct {
	ID                  uuid.UUID      `db:"id" json:"id"`
	Name                string         `db:"name" json:"name"`
	Email               string         `db:"email" json:"email"`
	Position            string         `db:"position" json:"position"`
	Department          string         `db:"department" json:"department"`
	JoinDate            *time.Time     `db:"join_date" json:"join_date,omitempty"`
	ManagerID           *uuid.UUID     `db:"manager_id" json:"manager_id,omitempty"`
	Permissions         pq.StringArray `db:"permissions" json:"permissions"`
	ProfileImageURL     *string        `db:"profile_image_url" json:"profile_image_url,omitempty"`
	PasswordHash        []byte         `db:"password_hash" json:"-"`
	PasswordSalt        []byte         `db:"password_salt" json:"-"`
	ResetTokenHash      *string        `db:"reset_token_hash" json:"-"`
	ResetTokenExpiresAt *time.Time     `db:"reset_token_expires_at" json:"-"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

func (a *Account) AccountID() AccountID {
	return AccountID(a.ID)
}

func (a *Account) HasPermission(p Permission) bool {
	for _, granted := range a.Permissions {
		if Permission(granted) == p {
			return true
		}
	}
	return false
}

// HasResetToken reports whether a reset token is currently stored, expired or not.
func (a *Account) HasResetToken() bool {
	return a.ResetTokenHash != nil && a.ResetTokenExpiresAt != nil
}

// NewAccount carries the fields needed to provision an account.
type NewAccount struct {
	Name         string
	Email        string
	Position     string
	Department   string
	JoinDate     *time.Time
	ManagerID    *uuid.UUID
	Permissions  []string
	PasswordHash []byte
	PasswordSalt []byte
}

type ProfileUpdate struct {
	Name       *string
	Position   *string
	Department *string
}
