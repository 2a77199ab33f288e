package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"digitrack/pkg/apperrors"
	"digitrack/pkg/auth"
	"digitrack/pkg/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = apperrors.Conflict("Username already exists.")
	ErrUserNotFound       = apperrors.NotFound("User not found.")
	ErrHomestayNotFound   = apperrors.NotFound("Homestay not found.")
	ErrMissingFields      = apperrors.Validation("Missing required fields.")
	ErrPasswordMismatch   = apperrors.Validation("New passwords do not match.")
	ErrWrongPassword      = apperrors.Forbidden("Current password is incorrect.")
	ErrInvalidStatus      = apperrors.Validation("Status must be Active or Inactive.")
)

// UsernameTakenError carries the nearest free username.
type UsernameTakenError struct {
	Suggested string
}

func (e *UsernameTakenError) Error() string { return ErrUsernameTaken.Error() }

func (e *UsernameTakenError) Unwrap() error { return ErrUsernameTaken }

// GuestTotaler sums guests per homestay id.
type GuestTotaler interface {
	HomestayGuestTotals(ctx context.Context) (map[uint]int, error)
}

type Service struct {
	db     *gorm.DB
	totals GuestTotaler
	log    zerolog.Logger
}

func NewService(db *gorm.DB, totals GuestTotaler, log zerolog.Logger) *Service {
	return &Service{
		db:     db,
		totals: totals,
		log:    log.With().Str("component", "accounts").Logger(),
	}
}

const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

func statusOf(a *models.Account) string {
	if a.IsActive {
		return StatusActive
	}
	return StatusInactive
}

func parseStatus(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "", StatusActive:
		return true, nil
	case StatusInactive:
		return false, nil
	}
	return false, ErrInvalidStatus
}

func (s *Service) ByUsername(ctx context.Context, username string) (*models.Account, error) {
	var a models.Account
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &a, nil
}

func (s *Service) ByID(ctx context.Context, id uint) (*models.Account, error) {
	var a models.Account
	err := s.db.WithContext(ctx).First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return &a, nil
}

// Authenticate checks a username and password. Unknown, inactive and
// wrong-password logins are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	a, err := s.ByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !a.IsActive || !auth.CheckPassword(a.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, accountID uint, current, next, confirm string) error {
	if current == "" || next == "" || confirm == "" {
		return ErrMissingFields
	}
	if next != confirm {
		return ErrPasswordMismatch
	}
	if err := auth.ValidatePassword(next); err != nil {
		return err
	}
	a, err := s.ByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(a.PasswordHash, current) {
		return ErrWrongPassword
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(a).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.log.Info().Uint("account_id", a.ID).Msg("password changed")
	return nil
}

// CreateMTO adds a tourism office account.
func (s *Service) CreateMTO(ctx context.Context, username, password, name string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	a := &models.Account{Username: username, PasswordHash: hash, Name: strings.TrimSpace(name), Role: models.RoleMTO, IsActive: true}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

// SetOwner hands the named homestay to another account.
func (s *Service) SetOwner(ctx context.Context, homestayName, username string) error {
	a, err := s.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	var h models.Homestay
	err = s.db.WithContext(ctx).Where("name = ?", strings.TrimSpace(homestayName)).Order("id").First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrHomestayNotFound
	}
	if err != nil {
		return fmt.Errorf("load homestay: %w", err)
	}
	err = s.db.WithContext(ctx).Model(&h).Update("owner_id", a.ID).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Conflict("Account already owns a homestay.")
	}
	if err != nil {
		return fmt.Errorf("set owner: %w", err)
	}
	return nil
}

// Profile is the signed-in account's own view of itself.
type Profile struct {
	ID       uint        `json:"id"`
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
}

func profileOf(a *models.Account) Profile {
	return Profile{ID: a.ID, Username: a.Username, Name: a.Name, Email: a.Email, Role: a.Role}
}

// EditProfile sets the account's display name and email.
func (s *Service) EditProfile(ctx context.Context, accountID uint, name, email string) (Profile, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return Profile{}, ErrMissingFields
	}

	var a models.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&a, accountID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("load account: %w", err)
		}

		var changed []string
		if name != a.Name {
			a.Name = name
			changed = append(changed, "name")
		}
		if email != a.Email {
			a.Email = email
			changed = append(changed, "email")
		}
		if len(changed) == 0 {
			return nil
		}
		if err := tx.Model(&a).Select("name", "email").Updates(&a).Error; err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		return recordEvent(tx, a.ID, &a, models.EventChanged, changeMessage(changed))
	})
	if err != nil {
		return Profile{}, err
	}

	s.log.Info().Uint("account_id", a.ID).Msg("profile updated")
	return profileOf(&a), nil
}
