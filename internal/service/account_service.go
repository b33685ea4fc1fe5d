package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rivaq/rivaq-backend/internal/domain"
	"github.com/rivaq/rivaq-backend/internal/media"
	"github.com/rivaq/rivaq-backend/internal/repository/ports"
	"github.com/rivaq/rivaq-backend/internal/util"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	DefaultAvatarMaxBytes = 5 << 20
)

type ProvisionInput struct {
	Name        string
	Email       string
	Password    string
	Position    string
	Department  string
	JoinDate    *time.Time
	ManagerID   *uuid.UUID
	Permissions []string
}

type ProfileImage struct {
	Reader      io.Reader
	Size        int64
	FileName    string
	ContentType string
}

type AvatarOptions struct {
	Bucket       string
	MaxBytes     int64
	MaxDimension int
}

type AccountService struct {
	accounts    ports.AccountRepository
	sessions    ports.SessionRepository
	credentials *CredentialService
	storage     ports.ObjectStorage
	processor   media.Processor
	avatars     AvatarOptions
}

func NewAccountService(accounts ports.AccountRepository, sessions ports.SessionRepository, credentials *CredentialService, storage ports.ObjectStorage, processor media.Processor, avatars AvatarOptions) *AccountService {
	if avatars.MaxBytes <= 0 {
		avatars.MaxBytes = DefaultAvatarMaxBytes
	}
	if avatars.MaxDimension <= 0 {
		avatars.MaxDimension = media.DefaultMaxDimension
	}
	return &AccountService{
		accounts:    accounts,
		sessions:    sessions,
		credentials: credentials,
		storage:     storage,
		processor:   processor,
		avatars:     avatars,
	}
}

func (s *AccountService) ListAccounts(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	limit, offset = clampPage(limit, offset)
	accounts, err := s.accounts.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list accounts: %w", ErrStorage, err)
	}
	return accounts, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: find account: %w", ErrStorage, err)
	}
	return account, nil
}

// ProvisionAccount creates an account on behalf of an administrator. Granting a
// permission the actor does not hold requires manage_permissions.
func (s *AccountService) ProvisionAccount(ctx context.Context, actor *domain.Account, in ProvisionInput) (*domain.Account, error) {
	if actor == nil || !actor.HasPermission(domain.PermissionManageUsers) {
		return nil, ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	permissions, err := normalizePermissions(in.Permissions)
	if err != nil {
		return nil, err
	}
	if !actor.HasPermission(domain.PermissionManagePermissions) {
		for _, p := range permissions {
			if !actor.HasPermission(domain.Permission(p)) {
				return nil, ErrForbidden
			}
		}
	}
	if err := s.credentials.Policy().Validate(in.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPasswordPolicyViolation, err.Error())
	}
	hash, salt, err := util.DerivePassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("derive password: %w", err)
	}

	account, err := s.accounts.Create(ctx, domain.NewAccount{
		Name:         name,
		Email:        email,
		Position:     strings.TrimSpace(in.Position),
		Department:   strings.TrimSpace(in.Department),
		JoinDate:     in.JoinDate,
		ManagerID:    in.ManagerID,
		Permissions:  permissions,
		PasswordHash: hash,
		PasswordSalt: salt,
	})
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, ErrEmailAlreadyUsed
		case isForeignKeyViolation(err):
			return nil, ErrManagerNotFound
		}
		return nil, fmt.Errorf("%w: create account: %w", ErrStorage, err)
	}
	return account, nil
}

func (s *AccountService) DeleteAccount(ctx context.Context, actor *domain.Account, id domain.AccountID) error {
	if actor == nil || !actor.HasPermission(domain.PermissionManageUsers) {
		return ErrForbidden
	}
	if actor.AccountID() == id {
		return ErrCannotDeleteSelf
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		switch {
		case isNotFound(err):
			return ErrAccountNotFound
		case isForeignKeyViolation(err):
			return ErrAccountInUse
		}
		return fmt.Errorf("%w: delete account: %w", ErrStorage, err)
	}
	return nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, id domain.AccountID, update domain.ProfileUpdate) (*domain.Account, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, ErrNameRequired
	}
	account, err := s.accounts.UpdateProfile(ctx, id, update)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: update profile: %w", ErrStorage, err)
	}
	return account, nil
}

// ChangePassword requires the current password and ends every session of the account.
func (s *AccountService) ChangePassword(ctx context.Context, id domain.AccountID, currentPassword, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	if !util.VerifyPassword(currentPassword, account.PasswordSalt, account.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := s.credentials.SetPassword(ctx, id, newPassword); err != nil {
		return err
	}
	if err := s.sessions.DeactivateAllForAccount(ctx, id); err != nil {
		return fmt.Errorf("%w: end sessions: %w", ErrStorage, err)
	}
	return nil
}

func (s *AccountService) UploadAvatar(ctx context.Context, id domain.AccountID, image ProfileImage) (*domain.Account, error) {
	if s.storage == nil || s.avatars.Bucket == "" {
		return nil, ErrStorageNotAvailable
	}
	if image.Reader == nil {
		return nil, ErrUnsupportedImage
	}
	if image.Size > s.avatars.MaxBytes {
		return nil, ErrAvatarTooLarge
	}
	limited := io.LimitReader(image.Reader, s.avatars.MaxBytes+1)

	body, contentType, err := s.scaleAvatar(ctx, media.Upload{
		Reader:      limited,
		Size:        image.Size,
		FileName:    image.FileName,
		ContentType: image.ContentType,
	})
	if err != nil {
		return nil, err
	}
	if !isAllowedAvatarType(contentType) {
		return nil, ErrUnsupportedImage
	}

	objectName := path.Join("accounts", id.String(), uuid.NewString()+avatarExtension(contentType))
	imageURL, err := s.storage.Upload(ctx, s.avatars.Bucket, objectName, contentType, bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: upload avatar: %w", ErrStorage, err)
	}
	account, err := s.accounts.UpdateProfileImage(ctx, id, imageURL)
	if err != nil {
		_ = s.storage.Remove(ctx, s.avatars.Bucket, objectName)
		if isNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: save avatar url: %w", ErrStorage, err)
	}
	return account, nil
}

// scaleAvatar runs the upload through the processor. Without one the bytes are
// stored as sent, so the declared size is re-checked against what was read.
func (s *AccountService) scaleAvatar(ctx context.Context, upload media.Upload) ([]byte, string, error) {
	if s.processor == nil {
		raw, err := io.ReadAll(upload.Reader)
		if err != nil {
			return nil, "", fmt.Errorf("read avatar: %w", err)
		}
		if int64(len(raw)) > s.avatars.MaxBytes {
			return nil, "", ErrAvatarTooLarge
		}
		return raw, upload.ContentType, nil
	}
	result, err := s.processor.Process(ctx, upload, s.avatars.MaxDimension)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedImage) {
			return nil, "", ErrUnsupportedImage
		}
		return nil, "", fmt.Errorf("process avatar: %w", err)
	}
	return result.Bytes, result.ContentType, nil
}

func isAllowedAvatarType(contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/png", "image/webp":
		return true
	}
	return false
}

func avatarExtension(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func normalizePermissions(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !domain.IsKnownPermission(p) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPermission, p)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
